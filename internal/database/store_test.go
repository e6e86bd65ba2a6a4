package database

import (
	"errors"
	"fmt"
	"testing"

	"plastics-backend/internal/ledger"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, ledger.ErrConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, ledger.ErrConflict},
		{"lock timeout", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "55P03"}), ledger.ErrConflict},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "idx_materials_color_name"}, ledger.ErrDuplicate},
		{"check violation", &pgconn.PgError{Code: "23514"}, ledger.ErrInsufficientStock},
		{"numeric overflow", &pgconn.PgError{Code: "22003", Message: "numeric field overflow"}, ledger.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapErr(tt.err), tt.want)
		})
	}

	plain := errors.New("connection refused")
	assert.Equal(t, plain, mapErr(plain))
	assert.Equal(t, ledger.KindInternal, ledger.KindOf(mapErr(&pgconn.PgError{Code: "08006"})))
	assert.NoError(t, mapErr(nil))

	overflow := mapErr(&pgconn.PgError{Code: "22003", Message: "numeric field overflow"})
	assert.Equal(t, ledger.KindValidation, ledger.KindOf(overflow))
	assert.Contains(t, overflow.Error(), "numeric field overflow")
}
