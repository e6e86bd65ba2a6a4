package ledger_test

import (
	"context"
	"testing"
	"time"

	"plastics-backend/internal/ledger"
	"plastics-backend/internal/ledger/memstore"
	"plastics-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	svc       *ledger.Service
	store     *memstore.Store
	movements []ledger.Movement
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	f := &fixture{store: memstore.New()}
	f.svc = ledger.NewService(f.store,
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithLogger(log),
		ledger.WithMovementHook(func(m ledger.Movement) { f.movements = append(f.movements, m) }),
	)
	return f
}

// seedStock creates a material and an active stock of bags x weight kg.
func (f *fixture) seedStock(t *testing.T, name string, bags int, weight string) *models.Stock {
	t.Helper()
	ctx := context.Background()
	m, err := f.svc.CreateMaterial(ctx, name, dec("4.50"))
	require.NoError(t, err)
	s, err := f.svc.CreateStock(ctx, m.ID, bags, dec(weight))
	require.NoError(t, err)
	return s
}

func (f *fixture) available(t *testing.T, stockID uint) string {
	t.Helper()
	s, err := f.svc.GetStock(context.Background(), stockID)
	require.NoError(t, err)
	return s.AvailableStock.StringFixed(2)
}

func salesInput(items ...ledger.SalesItemInput) ledger.SalesBillInput {
	return ledger.SalesBillInput{
		SellerName:    "Kumar Traders",
		PaymentMethod: models.PaymentCash,
		DueDate:       testNow.AddDate(0, 0, 30),
		Status:        models.BillStatusPending,
		RemainAmount:  decimal.Zero,
		Items:         items,
	}
}

func item(stockID uint, bags int, weight, price string) ledger.SalesItemInput {
	return ledger.SalesItemInput{StockID: stockID, Bags: bags, WeightPerBag: dec(weight), Price: dec(price)}
}
