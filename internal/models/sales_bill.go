package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

type BillStatus string

const (
	BillStatusPending   BillStatus = "pending"
	BillStatusOverDue   BillStatus = "overdue"
	BillStatusCompleted BillStatus = "completed"
)

func (s BillStatus) Valid() bool {
	switch s {
	case BillStatusPending, BillStatusOverDue, BillStatusCompleted:
		return true
	}
	return false
}

// SalesBill: one sale, consumes stock through its items
type SalesBill struct {
	ID            uint            `gorm:"primaryKey"`
	BillNo        string          `gorm:"size:50;not null;uniqueIndex"`
	SellerName    string          `gorm:"size:100;not null"`
	Total         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null"`
	DueDate       time.Time       `gorm:"type:date;index;not null"`
	Status        BillStatus      `gorm:"size:20;not null;index"`
	RemainAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IsPaid        bool            `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"index"`
	UpdatedAt     time.Time

	Items []SalesBillItem `gorm:"foreignKey:SalesBillID;constraint:OnDelete:CASCADE"`
}

// SalesBillItem: one line of a sales bill, references a stock row
type SalesBillItem struct {
	ID           uint `gorm:"primaryKey"`
	SalesBillID  uint `gorm:"index;not null"`
	StockID      uint `gorm:"index;not null"`
	Stock        Stock
	Bags         int             `gorm:"not null"`
	WeightPerBag decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(18,2);not null"` // per kg
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (i SalesBillItem) TotalWeight() decimal.Decimal {
	return i.WeightPerBag.Mul(decimal.NewFromInt(int64(i.Bags)))
}

// Amount is price × weight rounded to cents, so a bill total is exactly the sum of its lines.
func (i SalesBillItem) Amount() decimal.Decimal {
	return i.Price.Mul(i.TotalWeight()).Round(2)
}
