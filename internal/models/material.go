package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material: a sellable colour/grade of plastic granules
type Material struct {
	ID        uint            `gorm:"primaryKey"`
	ColorName string          `gorm:"size:100;not null;uniqueIndex"`
	BasePrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IsActive  bool            `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
