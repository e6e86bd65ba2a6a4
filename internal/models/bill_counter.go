package models

// BillCounter: last issued number per bill kind ("S" sales, "B" purchase)
type BillCounter struct {
	Kind      string `gorm:"primaryKey;size:2"`
	LastValue int64  `gorm:"not null"`
}
