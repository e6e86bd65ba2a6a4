package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"plastics-backend/internal/apierror"
	"plastics-backend/internal/audit"
	"plastics-backend/internal/auth"
	"plastics-backend/internal/billing"
	"plastics-backend/internal/config"
	"plastics-backend/internal/dashboard"
	"plastics-backend/internal/database"
	"plastics-backend/internal/inventory"
	"plastics-backend/internal/ledger"
	"plastics-backend/internal/metrics"
	"plastics-backend/internal/middleware"
	"plastics-backend/internal/models"
	"plastics-backend/internal/party"
	"plastics-backend/internal/scheduler"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logger := config.GetLogger()
	database.Init(cfg)

	svc := ledger.NewService(database.NewStore(database.DB),
		ledger.WithLogger(logger),
		ledger.WithMovementHook(metrics.RecordMovement),
	)

	rdb := config.ConnectRedis(cfg.RedisAddress)
	locker := billing.NewBillLocker(rdb, cfg.BillLockTTL)

	sched := scheduler.NewScheduler(cfg, svc, logger)
	if err := sched.Start(); err != nil {
		logger.WithError(err).Fatal("could not start scheduler")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: apierror.Handler,
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(logger))
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + middleware.HeaderRequestID,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition, " + middleware.HeaderRequestID,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))
	adminOnly := auth.RequireRole(models.RoleAdmin)

	protected.Get("/auth/me", auth.MeHandler())
	protected.Post("/users", adminOnly, auth.CreateUserHandler())

	// Materials
	protected.Get("/materials", inventory.ListMaterialsHandler(svc))
	protected.Get("/materials/:id", inventory.GetMaterialHandler(svc))
	protected.Post("/materials", adminOnly, inventory.CreateMaterialHandler(svc))
	protected.Put("/materials/:id", adminOnly, inventory.UpdateMaterialHandler(svc))
	protected.Delete("/materials/:id", adminOnly, inventory.DeleteMaterialHandler(svc))

	// Stock ledger
	protected.Get("/stocks", inventory.ListStocksHandler(svc))
	protected.Get("/stocks/export", inventory.ExportStocksHandler(svc))
	protected.Post("/stocks/import", adminOnly, inventory.ImportStocksHandler(svc))
	protected.Get("/stocks/:id", inventory.GetStockHandler(svc))
	protected.Post("/stocks", adminOnly, inventory.CreateStockHandler(svc))
	protected.Put("/stocks/:id/add", adminOnly, inventory.AddStockHandler(svc))
	protected.Put("/stocks/:id/remove", adminOnly, inventory.RemoveStockHandler(svc))
	protected.Delete("/stocks/:id", adminOnly, inventory.DeleteStockHandler(svc))

	// Sales bills
	protected.Get("/sales-bills", billing.ListSalesBillsHandler(svc))
	protected.Post("/sales-bills", billing.CreateSalesBillHandler(svc))
	protected.Get("/sales-bills/:id", billing.GetSalesBillHandler(svc))
	protected.Put("/sales-bills/:id", billing.UpdateSalesBillHandler(svc, locker))
	protected.Delete("/sales-bills/:id", adminOnly, billing.DeleteSalesBillHandler(svc, locker))
	protected.Get("/sales-bills/:id/invoice", billing.SalesInvoiceHandler(svc, cfg.CompanyName))

	// Purchase bills
	protected.Get("/purchase-bills", billing.ListPurchaseBillsHandler(svc))
	protected.Post("/purchase-bills", billing.CreatePurchaseBillHandler(svc))
	protected.Get("/purchase-bills/:id", billing.GetPurchaseBillHandler(svc))
	protected.Put("/purchase-bills/:id", billing.UpdatePurchaseBillHandler(svc, locker))
	protected.Delete("/purchase-bills/:id", adminOnly, billing.DeletePurchaseBillHandler(svc, locker))
	protected.Get("/purchase-bills/:id/invoice", billing.PurchaseInvoiceHandler(svc, cfg.CompanyName))

	// Parties
	protected.Get("/parties", party.ListPartiesHandler())
	protected.Post("/parties", party.CreatePartyHandler())
	protected.Delete("/parties/:id", adminOnly, party.DeletePartyHandler())

	// Dashboard
	protected.Get("/dashboard/sales-chart", dashboard.SalesChartHandler(svc))

	// Audit trail
	protected.Get("/audit-logs", adminOnly, audit.ListAuditLogsHandler())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		sched.Stop()
		if err := app.Shutdown(); err != nil {
			logger.WithError(err).Error("server shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{"port": cfg.HTTPPort}).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

