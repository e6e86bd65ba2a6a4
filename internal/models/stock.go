package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock: one ledger row per material held in inventory.
// AvailableStock is tracked independently of TotalWeight and is the sellable quantity (kg).
type Stock struct {
	ID             uint `gorm:"primaryKey"`
	MaterialID     uint `gorm:"index;not null"`
	Material       Material
	TotalBags      int             `gorm:"not null"`
	WeightPerBag   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AvailableStock decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IsActive       bool            `gorm:"not null;index"`
	Version        int64           `gorm:"not null"` // bumped on every save, compare-and-swap guard
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (s Stock) TotalWeight() decimal.Decimal {
	return s.WeightPerBag.Mul(decimal.NewFromInt(int64(s.TotalBags)))
}
