package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"plastics-backend/internal/ledger"
	"plastics-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSalesBillReservesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")

	bill, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 2, "10", "5")))
	require.NoError(t, err)

	assert.Equal(t, "S_1", bill.BillNo)
	assert.Equal(t, "100.00", bill.Total.StringFixed(2))
	assert.Equal(t, testNow, bill.CreatedAt)
	require.Len(t, bill.Items, 1)
	assert.Equal(t, "20.00", bill.Items[0].TotalWeight().StringFixed(2))
	assert.Equal(t, "Red", bill.Items[0].Stock.Material.ColorName)
	assert.Equal(t, "80.00", f.available(t, red.ID))

	stored, err := f.svc.GetSalesBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", stored.Total.StringFixed(2))
	assert.Equal(t, models.BillStatusPending, stored.Status)
}

func TestCreateSalesBillInsufficientStockPersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")

	_, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 15, "10", "5")))
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)
	assert.Equal(t, ledger.KindInsufficientStock, ledger.KindOf(err))
	assert.Contains(t, err.Error(), fmt.Sprintf("stock %d (Red)", red.ID))

	assert.Equal(t, "100.00", f.available(t, red.ID))
	bills, err := f.svc.ListSalesBills(ctx)
	require.NoError(t, err)
	assert.Empty(t, bills)

	// the failed attempt must not have consumed a bill number
	bill, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 1, "10", "5")))
	require.NoError(t, err)
	assert.Equal(t, "S_1", bill.BillNo)
}

func TestCreateSalesBillIsAtomicAcrossItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")
	blue := f.seedStock(t, "Blue", 10, "10")
	green := f.seedStock(t, "Green", 1, "10")

	_, err := f.svc.CreateSalesBill(ctx, salesInput(
		item(red.ID, 2, "10", "5"),
		item(blue.ID, 3, "10", "5"),
		item(green.ID, 2, "10", "5"),
	))
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)

	assert.Equal(t, "100.00", f.available(t, red.ID))
	assert.Equal(t, "100.00", f.available(t, blue.ID))
	assert.Equal(t, "10.00", f.available(t, green.ID))
}

func TestCreateSalesBillRollsBackOnStorageFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")

	f.store.FailNext("SaveSalesBill", errors.New("disk full"))
	_, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 2, "10", "5")))
	require.Error(t, err)
	assert.Equal(t, ledger.KindInternal, ledger.KindOf(err))

	assert.Equal(t, "100.00", f.available(t, red.ID))
	bill, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 2, "10", "5")))
	require.NoError(t, err)
	assert.Equal(t, "S_1", bill.BillNo)
}

func TestCreateSalesBillValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")

	tests := []struct {
		name   string
		mutate func(in *ledger.SalesBillInput)
	}{
		{"no items", func(in *ledger.SalesBillInput) { in.Items = nil }},
		{"zero bags", func(in *ledger.SalesBillInput) { in.Items[0].Bags = 0 }},
		{"zero weight", func(in *ledger.SalesBillInput) { in.Items[0].WeightPerBag = decimal.Zero }},
		{"negative price", func(in *ledger.SalesBillInput) { in.Items[0].Price = dec("-1") }},
		{"price with three decimals", func(in *ledger.SalesBillInput) { in.Items[0].Price = dec("1.005") }},
		{"duplicate stock", func(in *ledger.SalesBillInput) { in.Items = append(in.Items, in.Items[0]) }},
		{"blank seller", func(in *ledger.SalesBillInput) { in.SellerName = "  " }},
		{"credit card", func(in *ledger.SalesBillInput) { in.PaymentMethod = models.PaymentCreditCard }},
		{"bad status", func(in *ledger.SalesBillInput) { in.Status = "lost" }},
		{"negative remain", func(in *ledger.SalesBillInput) { in.RemainAmount = dec("-5") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := salesInput(item(red.ID, 2, "10", "5"))
			tt.mutate(&in)
			_, err := f.svc.CreateSalesBill(ctx, in)
			require.ErrorIs(t, err, ledger.ErrValidation)
		})
	}
	assert.Equal(t, "100.00", f.available(t, red.ID))

	_, err := f.svc.CreateSalesBill(ctx, salesInput(item(424242, 1, "1", "1")))
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestCreateSalesBillRejectsDeactivatedStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")
	_, err := f.svc.DeleteStock(ctx, red.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 1, "10", "5")))
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestModifySalesBillAppliesDeltas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")
	blue := f.seedStock(t, "Blue", 10, "10")

	bill, err := f.svc.CreateSalesBill(ctx, salesInput(
		item(red.ID, 2, "10", "5"),
		item(blue.ID, 1, "10", "2"),
	))
	require.NoError(t, err)
	assert.Equal(t, "80.00", f.available(t, red.ID))
	assert.Equal(t, "90.00", f.available(t, blue.ID))

	// bags 2 -> 3 on red
	in := salesInput(item(red.ID, 3, "10", "5"), item(blue.ID, 1, "10", "2"))
	in.Status = models.BillStatusCompleted
	in.IsPaid = true
	bill, err = f.svc.ModifySalesBill(ctx, bill.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "70.00", f.available(t, red.ID))
	assert.Equal(t, "90.00", f.available(t, blue.ID))
	assert.Equal(t, "170.00", bill.Total.StringFixed(2))
	assert.Equal(t, "S_1", bill.BillNo)
	assert.Equal(t, models.BillStatusCompleted, bill.Status)
	assert.True(t, bill.IsPaid)

	// remove the red line, blue stays
	bill, err = f.svc.ModifySalesBill(ctx, bill.ID, salesInput(item(blue.ID, 1, "10", "2")))
	require.NoError(t, err)
	assert.Equal(t, "100.00", f.available(t, red.ID))
	assert.Equal(t, "90.00", f.available(t, blue.ID))
	assert.Equal(t, "20.00", bill.Total.StringFixed(2))

	stored, err := f.svc.GetSalesBill(ctx, bill.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, blue.ID, stored.Items[0].StockID)
	assert.Equal(t, "20.00", stored.Total.StringFixed(2))
}

func TestModifySalesBillSingleItemScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")

	bill, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 2, "10", "5")))
	require.NoError(t, err)

	bill, err = f.svc.ModifySalesBill(ctx, bill.ID, salesInput(item(red.ID, 3, "10", "5")))
	require.NoError(t, err)
	assert.Equal(t, "70.00", f.available(t, red.ID))
	assert.Equal(t, "150.00", bill.Total.StringFixed(2))

	// leaving a bill empty is refused; deleting it is the way to give everything back
	_, err = f.svc.ModifySalesBill(ctx, bill.ID, salesInput())
	require.ErrorIs(t, err, ledger.ErrValidation)
	assert.Equal(t, "70.00", f.available(t, red.ID))
}

func TestModifySalesBillShrinkAndNewLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")
	blue := f.seedStock(t, "Blue", 5, "10")

	bill, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 5, "10", "1")))
	require.NoError(t, err)

	bill, err = f.svc.ModifySalesBill(ctx, bill.ID, salesInput(
		item(red.ID, 1, "10", "1"),
		item(blue.ID, 5, "10", "3"),
	))
	require.NoError(t, err)
	assert.Equal(t, "90.00", f.available(t, red.ID))
	assert.Equal(t, "0.00", f.available(t, blue.ID))
	assert.Equal(t, "160.00", bill.Total.StringFixed(2))
}

func TestModifySalesBillAllowsExactDepletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")

	bill, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 2, "10", "5")))
	require.NoError(t, err)

	_, err = f.svc.ModifySalesBill(ctx, bill.ID, salesInput(item(red.ID, 10, "10", "5")))
	require.NoError(t, err)
	assert.Equal(t, "0.00", f.available(t, red.ID))
}

func TestModifySalesBillInsufficientDeltaChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")
	blue := f.seedStock(t, "Blue", 10, "10")

	bill, err := f.svc.CreateSalesBill(ctx, salesInput(
		item(red.ID, 2, "10", "5"),
		item(blue.ID, 2, "10", "5"),
	))
	require.NoError(t, err)

	in := salesInput(item(red.ID, 1, "10", "5"), item(blue.ID, 11, "10", "5"))
	in.SellerName = "Someone Else"
	_, err = f.svc.ModifySalesBill(ctx, bill.ID, in)
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)

	assert.Equal(t, "80.00", f.available(t, red.ID))
	assert.Equal(t, "80.00", f.available(t, blue.ID))
	stored, err := f.svc.GetSalesBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kumar Traders", stored.SellerName)
	assert.Equal(t, "200.00", stored.Total.StringFixed(2))
	assert.Len(t, stored.Items, 2)
}

func TestModifySalesBillUnknownBill(t *testing.T) {
	f := newFixture(t)
	red := f.seedStock(t, "Red", 10, "10")

	_, err := f.svc.ModifySalesBill(context.Background(), 77, salesInput(item(red.ID, 1, "1", "1")))
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestDeleteSalesBillReleasesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")
	blue := f.seedStock(t, "Blue", 10, "10")

	bill, err := f.svc.CreateSalesBill(ctx, salesInput(
		item(red.ID, 2, "10", "5"),
		item(blue.ID, 4, "5", "5"),
	))
	require.NoError(t, err)

	deleted, err := f.svc.DeleteSalesBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, bill.BillNo, deleted.BillNo)
	assert.Equal(t, "100.00", f.available(t, red.ID))
	assert.Equal(t, "100.00", f.available(t, blue.ID))

	_, err = f.svc.GetSalesBill(ctx, bill.ID)
	require.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = f.svc.DeleteSalesBill(ctx, bill.ID)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestBillNumbersIncreaseByOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 100, "10")

	for i := 1; i <= 5; i++ {
		bill, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 1, "1", "1")))
		require.NoError(t, err)
		n, ok := ledger.ParseBillNumber(bill.BillNo)
		require.True(t, ok)
		assert.Equal(t, int64(i), n)
	}
}

func TestBillCounterSeededFromExistingBills(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 100, "10")

	// a bill imported before the counter existed
	legacy := &models.SalesBill{
		BillNo:        "S_41",
		SellerName:    "Legacy",
		PaymentMethod: models.PaymentCash,
		Status:        models.BillStatusCompleted,
		DueDate:       testNow,
		CreatedAt:     testNow.AddDate(0, -1, 0),
	}
	require.NoError(t, f.store.SaveSalesBill(ctx, legacy))

	bill, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 1, "1", "1")))
	require.NoError(t, err)
	assert.Equal(t, "S_42", bill.BillNo)

	bill, err = f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 1, "1", "1")))
	require.NoError(t, err)
	assert.Equal(t, "S_43", bill.BillNo)
}

// memstore serialises every unit of work behind one mutex, so this checks the ledger's
// accounting under concurrency, not row locking. TestPostgresConcurrentSalesNeverOversell in
// internal/database covers FOR UPDATE and the version check against a real database.
func TestConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 10, "10")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		billNos   = map[string]bool{}
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bill, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 1, "15", "1")))
			if err != nil {
				assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
				return
			}
			mu.Lock()
			succeeded++
			billNos[bill.BillNo] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, succeeded)
	assert.Len(t, billNos, 6)
	assert.Equal(t, "10.00", f.available(t, red.ID))
}

func TestMarkOverdueSalesBills(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 100, "10")

	late := salesInput(item(red.ID, 1, "1", "1"))
	late.DueDate = testNow.AddDate(0, 0, -3)
	lateBill, err := f.svc.CreateSalesBill(ctx, late)
	require.NoError(t, err)

	paid := late
	paid.IsPaid = true
	paidBill, err := f.svc.CreateSalesBill(ctx, paid)
	require.NoError(t, err)

	dueToday := salesInput(item(red.ID, 1, "1", "1"))
	dueToday.DueDate = testNow
	todayBill, err := f.svc.CreateSalesBill(ctx, dueToday)
	require.NoError(t, err)

	n, err := f.svc.MarkOverdueSalesBills(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for id, want := range map[uint]models.BillStatus{
		lateBill.ID:  models.BillStatusOverDue,
		paidBill.ID:  models.BillStatusPending,
		todayBill.ID: models.BillStatusPending,
	} {
		b, err := f.svc.GetSalesBill(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, b.Status, b.BillNo)
	}
}

func TestTotalMatchesItemsAfterEveryStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	red := f.seedStock(t, "Red", 20, "12.5")
	blue := f.seedStock(t, "Blue", 20, "7.25")

	check := func(b *models.SalesBill) {
		t.Helper()
		sum := decimal.Zero
		for _, it := range b.Items {
			sum = sum.Add(it.Amount())
		}
		assert.Equal(t, sum.StringFixed(2), b.Total.StringFixed(2))
	}

	bill, err := f.svc.CreateSalesBill(ctx, salesInput(item(red.ID, 3, "12.5", "3.35"), item(blue.ID, 2, "7.25", "4.10")))
	require.NoError(t, err)
	check(bill)

	bill, err = f.svc.ModifySalesBill(ctx, bill.ID, salesInput(item(red.ID, 1, "12.5", "3.35"), item(blue.ID, 6, "7.25", "4.25")))
	require.NoError(t, err)
	check(bill)

	bill, err = f.svc.ModifySalesBill(ctx, bill.ID, salesInput(item(blue.ID, 6, "7.25", "4.25")))
	require.NoError(t, err)
	check(bill)
}

func TestTotalIsSumOfRoundedLineAmounts(t *testing.T) {
	f := newFixture(t)
	red := f.seedStock(t, "Red", 5, "0.33")
	blue := f.seedStock(t, "Blue", 5, "0.33")

	bill, err := f.svc.CreateSalesBill(context.Background(),
		salesInput(item(red.ID, 1, "0.33", "0.33"), item(blue.ID, 1, "0.33", "0.35")))
	require.NoError(t, err)
	require.Len(t, bill.Items, 2)

	assert.Equal(t, "0.11", bill.Items[0].Amount().String())
	assert.Equal(t, "0.12", bill.Items[1].Amount().String())
	assert.Equal(t, "0.23", bill.Total.StringFixed(2))
	assert.True(t, bill.Total.Equal(bill.Items[0].Amount().Add(bill.Items[1].Amount())))
}
