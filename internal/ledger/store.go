package ledger

import (
	"context"
	"time"

	"plastics-backend/internal/models"
)

// Repository is the storage contract the ledger runs against.
// Finders return (nil, nil) when the row does not exist.
type Repository interface {
	FindMaterial(ctx context.Context, id uint) (*models.Material, error)
	FindMaterialByName(ctx context.Context, name string) (*models.Material, error)
	ListMaterials(ctx context.Context, activeOnly bool) ([]models.Material, error)
	SaveMaterial(ctx context.Context, m *models.Material) error

	// FindStock loads the stock with its material. forUpdate takes a row lock until the unit of work ends.
	FindStock(ctx context.Context, id uint, forUpdate bool) (*models.Stock, error)
	FindStockByMaterial(ctx context.Context, materialID uint, active bool) (*models.Stock, error)
	// SaveStock inserts a new row or updates an existing one only if its Version is unchanged.
	// A stale Version yields ErrConflict. Version is incremented on success.
	SaveStock(ctx context.Context, s *models.Stock) error
	ListActiveStocks(ctx context.Context) ([]models.Stock, error)

	FindSalesBill(ctx context.Context, id uint, forUpdate bool) (*models.SalesBill, error)
	ListSalesBills(ctx context.Context) ([]models.SalesBill, error)
	SaveSalesBill(ctx context.Context, b *models.SalesBill) error
	DeleteSalesBillItems(ctx context.Context, ids []uint) error
	DeleteSalesBill(ctx context.Context, id uint) error
	MarkOverdueSalesBills(ctx context.Context, before time.Time) (int64, error)

	FindPurchaseBill(ctx context.Context, id uint, forUpdate bool) (*models.PurchaseBill, error)
	ListPurchaseBills(ctx context.Context) ([]models.PurchaseBill, error)
	SavePurchaseBill(ctx context.Context, b *models.PurchaseBill) error
	DeletePurchaseBillItems(ctx context.Context, ids []uint) error
	DeletePurchaseBill(ctx context.Context, id uint) error

	// IncrementBillCounter bumps the counter and returns the new value.
	// ok is false when no counter row exists for kind.
	IncrementBillCounter(ctx context.Context, kind string) (value int64, ok bool, err error)
	CreateBillCounter(ctx context.Context, kind string, value int64) error
	// MostRecentBillNumber returns "" when no bill of that kind exists.
	MostRecentBillNumber(ctx context.Context, kind string) (string, error)
}

// Store is a Repository that can run a unit of work.
// fn's Repository sees the transaction; returning an error from fn rolls everything back.
type Store interface {
	Repository
	Transaction(ctx context.Context, fn func(repo Repository) error) error
}
