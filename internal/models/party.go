package models

import "time"

type PartyType string

const (
	PartySupplier PartyType = "supplier"
	PartyCustomer PartyType = "customer"
)

// Party: supplier or customer. Phone is unique per type.
type Party struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:200;not null"`
	Phone     string    `gorm:"size:10;not null;uniqueIndex:idx_party_phone_type"`
	Type      PartyType `gorm:"size:20;not null;uniqueIndex:idx_party_phone_type"`
	Address   string    `gorm:"size:500"`
	IsActive  bool      `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
