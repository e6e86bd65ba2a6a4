package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseBill: material bought from a supplier. Does not move stock on its own.
type PurchaseBill struct {
	ID            uint            `gorm:"primaryKey"`
	BillNo        string          `gorm:"size:50;not null;uniqueIndex"`
	BuyerName     string          `gorm:"size:100;not null"`
	Total         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null"`
	IsPaid        bool            `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"index"`
	UpdatedAt     time.Time

	Items []PurchaseBillItem `gorm:"foreignKey:PurchaseBillID;constraint:OnDelete:CASCADE"`
}

type PurchaseBillItem struct {
	ID             uint `gorm:"primaryKey"`
	PurchaseBillID uint `gorm:"index;not null"`
	MaterialID     uint `gorm:"index;not null"`
	Material       Material
	Quantity       decimal.Decimal `gorm:"type:decimal(18,2);not null"` // kg
	Price          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (i PurchaseBillItem) Amount() decimal.Decimal {
	return i.Price.Mul(i.Quantity).Round(2)
}
