package inventory

import (
	"time"

	"plastics-backend/internal/apierror"
	"plastics-backend/internal/audit"
	"plastics-backend/internal/ledger"
	"plastics-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type StockResponse struct {
	ID             uint            `json:"id"`
	MaterialID     uint            `json:"material_id"`
	ColorName      string          `json:"color_name"`
	TotalBags      int             `json:"total_bags"`
	WeightPerBag   decimal.Decimal `json:"weight_per_bag"`
	TotalWeight    decimal.Decimal `json:"total_weight"`
	AvailableStock decimal.Decimal `json:"available_stock"`
	IsActive       bool            `json:"is_active"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreateStockRequest struct {
	MaterialID   uint            `json:"material_id" validate:"required"`
	TotalBags    int             `json:"total_bags" validate:"gt=0"`
	WeightPerBag decimal.Decimal `json:"weight_per_bag"`
}

type AddStockRequest struct {
	BagsAdded    int             `json:"bags_added" validate:"gt=0"`
	WeightPerBag decimal.Decimal `json:"weight_per_bag"`
}

type RemoveStockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

func toStockResponse(s *models.Stock) StockResponse {
	return StockResponse{
		ID:             s.ID,
		MaterialID:     s.MaterialID,
		ColorName:      s.Material.ColorName,
		TotalBags:      s.TotalBags,
		WeightPerBag:   s.WeightPerBag,
		TotalWeight:    s.TotalWeight(),
		AvailableStock: s.AvailableStock,
		IsActive:       s.IsActive,
		UpdatedAt:      s.UpdatedAt,
	}
}

// GET /api/stocks
func ListStocksHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stocks, err := svc.ListStocks(c.UserContext())
		if err != nil {
			return err
		}
		res := make([]StockResponse, 0, len(stocks))
		for i := range stocks {
			res = append(res, toStockResponse(&stocks[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/stocks/:id
func GetStockHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		s, err := svc.GetStock(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(toStockResponse(s))
	}
}

// POST /api/stocks (admin)
func CreateStockHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStockRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}
		s, err := svc.CreateStock(c.UserContext(), body.MaterialID, body.TotalBags, body.WeightPerBag)
		if err != nil {
			return err
		}
		resp := toStockResponse(s)
		audit.Record(c, audit.EntityStock, s.ID, models.AuditActionCreate,
			"stock opened for "+s.Material.ColorName, nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/stocks/:id/add (admin)
func AddStockHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body AddStockRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}
		before, err := svc.GetStock(c.UserContext(), id)
		if err != nil {
			return err
		}
		s, err := svc.AddStock(c.UserContext(), id, body.BagsAdded, body.WeightPerBag)
		if err != nil {
			return err
		}
		resp := toStockResponse(s)
		audit.Record(c, audit.EntityStock, s.ID, models.AuditActionUpdate,
			"stock received", toStockResponse(before), resp)
		return c.JSON(resp)
	}
}

// PUT /api/stocks/:id/remove (admin)
func RemoveStockHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body RemoveStockRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}
		before, err := svc.GetStock(c.UserContext(), id)
		if err != nil {
			return err
		}
		s, err := svc.RemoveStock(c.UserContext(), id, body.Quantity)
		if err != nil {
			return err
		}
		resp := toStockResponse(s)
		audit.Record(c, audit.EntityStock, s.ID, models.AuditActionUpdate,
			"stock written off: "+body.Quantity.String()+" kg", toStockResponse(before), resp)
		return c.JSON(resp)
	}
}

// DELETE /api/stocks/:id (admin)
func DeleteStockHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		s, err := svc.DeleteStock(c.UserContext(), id)
		if err != nil {
			return err
		}
		audit.Record(c, audit.EntityStock, s.ID, models.AuditActionDelete,
			"stock deactivated", toStockResponse(s), nil)
		return c.JSON(fiber.Map{"message": "stock deactivated"})
	}
}
