package ledger_test

import (
	"context"
	"testing"

	"plastics-backend/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialCatalogue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	red, err := f.svc.CreateMaterial(ctx, "  Red  ", dec("5.25"))
	require.NoError(t, err)
	assert.Equal(t, "Red", red.ColorName)
	assert.True(t, red.IsActive)

	_, err = f.svc.CreateMaterial(ctx, "Red", dec("1"))
	require.ErrorIs(t, err, ledger.ErrDuplicate)
	_, err = f.svc.CreateMaterial(ctx, "", dec("1"))
	require.ErrorIs(t, err, ledger.ErrValidation)
	_, err = f.svc.CreateMaterial(ctx, "Blue", dec("-1"))
	require.ErrorIs(t, err, ledger.ErrValidation)

	blue, err := f.svc.CreateMaterial(ctx, "Blue", dec("3"))
	require.NoError(t, err)

	red, err = f.svc.UpdateMaterial(ctx, red.ID, dec("6"), true)
	require.NoError(t, err)
	assert.Equal(t, "6.00", red.BasePrice.StringFixed(2))

	_, err = f.svc.DeleteMaterial(ctx, blue.ID)
	require.NoError(t, err)
	_, err = f.svc.DeleteMaterial(ctx, blue.ID)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	active, err := f.svc.ListMaterials(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Red", active[0].ColorName)

	all, err := f.svc.ListMaterials(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// stock cannot be opened for an inactive material
	_, err = f.svc.CreateStock(ctx, blue.ID, 1, dec("1"))
	require.ErrorIs(t, err, ledger.ErrNotFound)

	got, err := f.svc.GetMaterial(ctx, blue.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}
