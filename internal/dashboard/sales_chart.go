package dashboard

import (
	"time"

	"plastics-backend/internal/ledger"
	"plastics-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

type SalesChartPoint struct {
	Label        string          `json:"label"` // bucket start, YYYY-MM-DD
	Cash         decimal.Decimal `json:"cash"`
	BankTransfer decimal.Decimal `json:"bank_transfer"`
	Total        decimal.Decimal `json:"total"`
	Purchases    decimal.Decimal `json:"purchases"`
	Bills        int             `json:"bills"`
}

type SalesChartTotals struct {
	Cash         decimal.Decimal `json:"cash"`
	BankTransfer decimal.Decimal `json:"bank_transfer"`
	Total        decimal.Decimal `json:"total"`
	Purchases    decimal.Decimal `json:"purchases"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	Bills        int             `json:"bills"`
}

type SalesChartResponse struct {
	Period      string            `json:"period"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Points      []SalesChartPoint `json:"points"`
	GrandTotals SalesChartTotals  `json:"grand_totals"`
}

func defaultCount(period string) int {
	switch period {
	case PeriodWeekly:
		return 8
	case PeriodMonthly:
		return 12
	}
	return 7
}

// bucketStart truncates t to its day, Monday-based week or month.
func bucketStart(period string, t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case PeriodWeekly:
		return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return day
}

func nextBucket(period string, t time.Time) time.Time {
	switch period {
	case PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case PeriodMonthly:
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// BuildSalesChart sums sales by payment method and purchases into count buckets ending at now.
// Empty buckets are kept so the chart has no gaps.
func BuildSalesChart(sales []models.SalesBill, purchases []models.PurchaseBill, period string, count int, now time.Time) SalesChartResponse {
	last := bucketStart(period, now)
	first := last
	for i := 1; i < count; i++ {
		switch period {
		case PeriodWeekly:
			first = first.AddDate(0, 0, -7)
		case PeriodMonthly:
			first = first.AddDate(0, -1, 0)
		default:
			first = first.AddDate(0, 0, -1)
		}
	}
	end := nextBucket(period, last)

	points := make([]SalesChartPoint, 0, count)
	index := make(map[time.Time]int, count)
	for b := first; b.Before(end); b = nextBucket(period, b) {
		index[b] = len(points)
		points = append(points, SalesChartPoint{Label: b.Format("2006-01-02")})
	}

	grand := SalesChartTotals{}
	for _, b := range sales {
		i, ok := index[bucketStart(period, b.CreatedAt)]
		if !ok {
			continue
		}
		p := &points[i]
		switch b.PaymentMethod {
		case models.PaymentCash:
			p.Cash = p.Cash.Add(b.Total)
		case models.PaymentBankTransfer:
			p.BankTransfer = p.BankTransfer.Add(b.Total)
		}
		p.Total = p.Total.Add(b.Total)
		p.Bills++
		if !b.IsPaid {
			grand.Outstanding = grand.Outstanding.Add(b.RemainAmount)
		}
	}
	for _, b := range purchases {
		if i, ok := index[bucketStart(period, b.CreatedAt)]; ok {
			points[i].Purchases = points[i].Purchases.Add(b.Total)
		}
	}

	for _, p := range points {
		grand.Cash = grand.Cash.Add(p.Cash)
		grand.BankTransfer = grand.BankTransfer.Add(p.BankTransfer)
		grand.Total = grand.Total.Add(p.Total)
		grand.Purchases = grand.Purchases.Add(p.Purchases)
		grand.Bills += p.Bills
	}

	return SalesChartResponse{
		Period:      period,
		From:        first.Format("2006-01-02"),
		To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points:      points,
		GrandTotals: grand,
	}
}

// GET /api/dashboard/sales-chart?period=daily&count=7
func SalesChartHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", PeriodDaily)
		switch period {
		case PeriodDaily, PeriodWeekly, PeriodMonthly:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "period must be daily, weekly or monthly")
		}
		count := c.QueryInt("count", defaultCount(period))
		if count <= 0 || count > 366 {
			return fiber.NewError(fiber.StatusBadRequest, "count must be between 1 and 366")
		}

		sales, err := svc.ListSalesBills(c.UserContext())
		if err != nil {
			return err
		}
		purchases, err := svc.ListPurchaseBills(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(BuildSalesChart(sales, purchases, period, count, time.Now()))
	}
}
