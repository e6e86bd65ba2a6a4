package metrics

import (
	"strconv"
	"time"

	"plastics-backend/internal/apierror"
	"plastics-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BillOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plastics_bill_operations_total",
		Help: "Bill workflow calls by bill kind, operation and result kind.",
	}, []string{"kind", "operation", "result"})

	StockMovementKg = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plastics_stock_movement_kg_total",
		Help: "Kilograms moved in or out of available stock, by direction.",
	}, []string{"direction"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plastics_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plastics_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// RecordBillOperation counts one workflow call. result is "ok" or the ledger error kind.
func RecordBillOperation(kind, operation string, err error) {
	result := "ok"
	if err != nil {
		result = ledger.KindOf(err)
	}
	BillOperations.WithLabelValues(kind, operation, result).Inc()
}

func RecordMovement(m ledger.Movement) {
	kg, _ := m.Quantity.Float64()
	StockMovementKg.WithLabelValues(m.Direction).Add(kg)
}

// Middleware records request counts and latency per route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the error handler has not written the response yet
			status = apierror.From(err).Status
		}
		route := c.Route().Path
		HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves /metrics.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
