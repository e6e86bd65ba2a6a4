package ledger_test

import (
	"context"
	"testing"

	"plastics-backend/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.seedStock(t, "Red", 10, "10")
	assert.Equal(t, "100.00", s.AvailableStock.StringFixed(2))
	assert.Equal(t, "100.00", s.TotalWeight().StringFixed(2))
	assert.True(t, s.IsActive)
	assert.Equal(t, "Red", s.Material.ColorName)

	_, err := f.svc.CreateStock(ctx, s.MaterialID, 1, dec("5"))
	require.ErrorIs(t, err, ledger.ErrDuplicate)
	assert.Equal(t, "100.00", f.available(t, s.ID))
}

func TestCreateStockValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, err := f.svc.CreateMaterial(ctx, "Blue", dec("3"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		bags   int
		weight string
	}{
		{"zero bags", 0, "10"},
		{"negative bags", -2, "10"},
		{"zero weight", 5, "0"},
		{"negative weight", 5, "-1"},
		{"three decimals", 5, "1.255"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateStock(ctx, m.ID, tt.bags, dec(tt.weight))
			require.ErrorIs(t, err, ledger.ErrValidation)
		})
	}

	_, err = f.svc.CreateStock(ctx, 999, 1, dec("1"))
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestCreateStockReactivatesDeactivatedRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.seedStock(t, "Green", 4, "25")
	_, err := f.svc.RemoveStock(ctx, s.ID, dec("30"))
	require.NoError(t, err)
	_, err = f.svc.DeleteStock(ctx, s.ID)
	require.NoError(t, err)

	list, err := f.svc.ListStocks(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	again, err := f.svc.CreateStock(ctx, s.MaterialID, 2, dec("12.5"))
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)
	assert.True(t, again.IsActive)
	assert.Equal(t, 2, again.TotalBags)
	assert.Equal(t, "25.00", again.AvailableStock.StringFixed(2))
}

func TestAddAndRemoveStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.seedStock(t, "Black", 5, "20")

	s, err := f.svc.AddStock(ctx, s.ID, 3, dec("25"))
	require.NoError(t, err)
	assert.Equal(t, 8, s.TotalBags)
	assert.Equal(t, "25.00", s.WeightPerBag.StringFixed(2))
	assert.Equal(t, "175.00", s.AvailableStock.StringFixed(2))

	s, err = f.svc.RemoveStock(ctx, s.ID, dec("175"))
	require.NoError(t, err)
	assert.Equal(t, "0.00", s.AvailableStock.StringFixed(2))

	_, err = f.svc.RemoveStock(ctx, s.ID, dec("0.01"))
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Black")
	assert.Equal(t, "0.00", f.available(t, s.ID))

	_, err = f.svc.AddStock(ctx, s.ID, 1, dec("0"))
	require.ErrorIs(t, err, ledger.ErrValidation)
	_, err = f.svc.AddStock(ctx, 12345, 1, dec("1"))
	require.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = f.svc.RemoveStock(ctx, s.ID, dec("-1"))
	require.ErrorIs(t, err, ledger.ErrValidation)
}

func TestDeactivatedStockRejectsAdjustments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.seedStock(t, "White", 1, "10")

	_, err := f.svc.DeleteStock(ctx, s.ID)
	require.NoError(t, err)

	_, err = f.svc.AddStock(ctx, s.ID, 1, dec("10"))
	require.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = f.svc.RemoveStock(ctx, s.ID, dec("1"))
	require.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = f.svc.DeleteStock(ctx, s.ID)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	got, err := f.svc.GetStock(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestListStocksOrderedByMaterialName(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, "Yellow", 1, "1")
	f.seedStock(t, "Amber", 1, "1")
	f.seedStock(t, "Maroon", 1, "1")

	list, err := f.svc.ListStocks(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Amber", list[0].Material.ColorName)
	assert.Equal(t, "Maroon", list[1].Material.ColorName)
	assert.Equal(t, "Yellow", list[2].Material.ColorName)
}

func TestStaleStockSaveIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.seedStock(t, "Grey", 2, "10")

	stale, err := f.store.FindStock(ctx, s.ID, false)
	require.NoError(t, err)

	_, err = f.svc.AddStock(ctx, s.ID, 1, dec("10"))
	require.NoError(t, err)

	stale.AvailableStock = dec("999")
	err = f.store.SaveStock(ctx, stale)
	require.ErrorIs(t, err, ledger.ErrConflict)
	assert.Equal(t, ledger.KindConflict, ledger.KindOf(err))
	assert.Equal(t, "30.00", f.available(t, s.ID))
}

func TestMovementsPublishedOnlyAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.seedStock(t, "Teal", 2, "10")
	f.movements = nil

	_, err := f.svc.RemoveStock(ctx, s.ID, dec("50"))
	require.Error(t, err)
	assert.Empty(t, f.movements)

	_, err = f.svc.RemoveStock(ctx, s.ID, dec("5"))
	require.NoError(t, err)
	require.Len(t, f.movements, 1)
	assert.Equal(t, ledger.MovementRemoved, f.movements[0].Direction)
	assert.Equal(t, "5.00", f.movements[0].Quantity.StringFixed(2))
}
