package database

import (
	"context"
	"errors"
	"time"

	"plastics-backend/internal/ledger"
	"plastics-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the Postgres ledger.Store.
type Store struct {
	db *gorm.DB
}

var _ ledger.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) Transaction(ctx context.Context, fn func(repo ledger.Repository) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return mapErr(tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&Store{db: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return mapErr(err)
	}
	return nil
}

// mapErr turns Postgres lock and constraint failures into ledger errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return &ledger.Error{Err: ledger.ErrConflict, Details: pgErr.Message}
		case "23505": // unique_violation
			return &ledger.Error{Err: ledger.ErrDuplicate, Details: pgErr.ConstraintName}
		case "23514": // check_violation
			return &ledger.Error{Err: ledger.ErrInsufficientStock, Details: pgErr.ConstraintName}
		case "22003": // numeric_value_out_of_range
			return &ledger.Error{Err: ledger.ErrValidation, Details: "value exceeds the supported range: " + pgErr.Message}
		}
	}
	return err
}

func locking(q *gorm.DB, forUpdate bool) *gorm.DB {
	if forUpdate {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// first runs q.First and reports a missing row as found == false.
func first(q *gorm.DB, dest any, conds ...any) (bool, error) {
	err := q.First(dest, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, mapErr(err)
	}
	return true, nil
}

// Materials

func (s *Store) FindMaterial(ctx context.Context, id uint) (*models.Material, error) {
	var m models.Material
	found, err := first(s.conn(ctx), &m, id)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

func (s *Store) FindMaterialByName(ctx context.Context, name string) (*models.Material, error) {
	var m models.Material
	found, err := first(s.conn(ctx).Where("color_name = ?", name), &m)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListMaterials(ctx context.Context, activeOnly bool) ([]models.Material, error) {
	q := s.conn(ctx).Order("color_name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var materials []models.Material
	if err := q.Find(&materials).Error; err != nil {
		return nil, mapErr(err)
	}
	return materials, nil
}

func (s *Store) SaveMaterial(ctx context.Context, m *models.Material) error {
	return mapErr(s.conn(ctx).Save(m).Error)
}

// Stocks

func (s *Store) FindStock(ctx context.Context, id uint, forUpdate bool) (*models.Stock, error) {
	var st models.Stock
	found, err := first(locking(s.conn(ctx), forUpdate), &st, id)
	if err != nil || !found {
		return nil, err
	}
	if err := s.conn(ctx).First(&st.Material, st.MaterialID).Error; err != nil {
		return nil, mapErr(err)
	}
	return &st, nil
}

func (s *Store) FindStockByMaterial(ctx context.Context, materialID uint, active bool) (*models.Stock, error) {
	var st models.Stock
	q := s.conn(ctx).Preload("Material").
		Where("material_id = ? AND is_active = ?", materialID, active).
		Order("id DESC")
	found, err := first(q, &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

// SaveStock is a compare-and-swap on Version for existing rows.
func (s *Store) SaveStock(ctx context.Context, st *models.Stock) error {
	if st.ID == 0 {
		st.Version = 1
		if err := s.conn(ctx).Omit(clause.Associations).Create(st).Error; err != nil {
			st.Version = 0
			return mapErr(err)
		}
		return nil
	}

	now := time.Now()
	res := s.conn(ctx).Model(&models.Stock{}).
		Where("id = ? AND version = ?", st.ID, st.Version).
		Updates(map[string]any{
			"total_bags":      st.TotalBags,
			"weight_per_bag":  st.WeightPerBag,
			"available_stock": st.AvailableStock,
			"is_active":       st.IsActive,
			"version":         st.Version + 1,
			"updated_at":      now,
		})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return &ledger.Error{Err: ledger.ErrConflict, Details: "stock was modified concurrently"}
	}
	st.Version++
	st.UpdatedAt = now
	return nil
}

func (s *Store) ListActiveStocks(ctx context.Context) ([]models.Stock, error) {
	var stocks []models.Stock
	err := s.conn(ctx).Preload("Material").
		Joins("JOIN materials ON materials.id = stocks.material_id").
		Where("stocks.is_active = ?", true).
		Order("materials.color_name ASC, stocks.id ASC").
		Find(&stocks).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return stocks, nil
}

// Sales bills

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func (s *Store) FindSalesBill(ctx context.Context, id uint, forUpdate bool) (*models.SalesBill, error) {
	var b models.SalesBill
	found, err := first(locking(s.conn(ctx), forUpdate), &b, id)
	if err != nil || !found {
		return nil, err
	}
	err = s.conn(ctx).Preload("Stock.Material").
		Where("sales_bill_id = ?", b.ID).
		Order("id ASC").
		Find(&b.Items).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (s *Store) ListSalesBills(ctx context.Context) ([]models.SalesBill, error) {
	var bills []models.SalesBill
	err := s.conn(ctx).
		Preload("Items", orderByID).
		Preload("Items.Stock.Material").
		Order("created_at DESC, id DESC").
		Find(&bills).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return bills, nil
}

// SaveSalesBill writes the bill row and upserts its items. Items removed from the bill
// must be deleted with DeleteSalesBillItems.
func (s *Store) SaveSalesBill(ctx context.Context, b *models.SalesBill) error {
	db := s.conn(ctx)
	if err := db.Omit(clause.Associations).Save(b).Error; err != nil {
		return mapErr(err)
	}
	for i := range b.Items {
		b.Items[i].SalesBillID = b.ID
		if err := db.Omit(clause.Associations).Save(&b.Items[i]).Error; err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (s *Store) DeleteSalesBillItems(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return mapErr(s.conn(ctx).Where("id IN ?", ids).Delete(&models.SalesBillItem{}).Error)
}

func (s *Store) DeleteSalesBill(ctx context.Context, id uint) error {
	db := s.conn(ctx)
	if err := db.Where("sales_bill_id = ?", id).Delete(&models.SalesBillItem{}).Error; err != nil {
		return mapErr(err)
	}
	return mapErr(db.Delete(&models.SalesBill{}, id).Error)
}

func (s *Store) MarkOverdueSalesBills(ctx context.Context, before time.Time) (int64, error) {
	res := s.conn(ctx).Model(&models.SalesBill{}).
		Where("status = ? AND is_paid = ? AND due_date < ?", models.BillStatusPending, false, before).
		Update("status", models.BillStatusOverDue)
	if res.Error != nil {
		return 0, mapErr(res.Error)
	}
	return res.RowsAffected, nil
}

// Purchase bills

func (s *Store) FindPurchaseBill(ctx context.Context, id uint, forUpdate bool) (*models.PurchaseBill, error) {
	var b models.PurchaseBill
	found, err := first(locking(s.conn(ctx), forUpdate), &b, id)
	if err != nil || !found {
		return nil, err
	}
	err = s.conn(ctx).Preload("Material").
		Where("purchase_bill_id = ?", b.ID).
		Order("id ASC").
		Find(&b.Items).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (s *Store) ListPurchaseBills(ctx context.Context) ([]models.PurchaseBill, error) {
	var bills []models.PurchaseBill
	err := s.conn(ctx).
		Preload("Items", orderByID).
		Preload("Items.Material").
		Order("created_at DESC, id DESC").
		Find(&bills).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return bills, nil
}

func (s *Store) SavePurchaseBill(ctx context.Context, b *models.PurchaseBill) error {
	db := s.conn(ctx)
	if err := db.Omit(clause.Associations).Save(b).Error; err != nil {
		return mapErr(err)
	}
	for i := range b.Items {
		b.Items[i].PurchaseBillID = b.ID
		if err := db.Omit(clause.Associations).Save(&b.Items[i]).Error; err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (s *Store) DeletePurchaseBillItems(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return mapErr(s.conn(ctx).Where("id IN ?", ids).Delete(&models.PurchaseBillItem{}).Error)
}

func (s *Store) DeletePurchaseBill(ctx context.Context, id uint) error {
	db := s.conn(ctx)
	if err := db.Where("purchase_bill_id = ?", id).Delete(&models.PurchaseBillItem{}).Error; err != nil {
		return mapErr(err)
	}
	return mapErr(db.Delete(&models.PurchaseBill{}, id).Error)
}

// Numbering

// IncrementBillCounter relies on UPDATE taking the row lock for the rest of the transaction.
func (s *Store) IncrementBillCounter(ctx context.Context, kind string) (int64, bool, error) {
	var counter models.BillCounter
	res := s.conn(ctx).Model(&counter).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "last_value"}}}).
		Where("kind = ?", kind).
		UpdateColumn("last_value", gorm.Expr("last_value + ?", 1))
	if res.Error != nil {
		return 0, false, mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	return counter.LastValue, true, nil
}

func (s *Store) CreateBillCounter(ctx context.Context, kind string, value int64) error {
	return mapErr(s.conn(ctx).Create(&models.BillCounter{Kind: kind, LastValue: value}).Error)
}

func (s *Store) MostRecentBillNumber(ctx context.Context, kind string) (string, error) {
	q := s.conn(ctx)
	switch kind {
	case ledger.BillKindSales:
		q = q.Model(&models.SalesBill{})
	case ledger.BillKindPurchase:
		q = q.Model(&models.PurchaseBill{})
	default:
		return "", nil
	}
	var billNos []string
	err := q.Where("bill_no LIKE ?", kind+`\_%`).
		Order("created_at DESC, id DESC").
		Limit(1).
		Pluck("bill_no", &billNos).Error
	if err != nil {
		return "", mapErr(err)
	}
	if len(billNos) == 0 {
		return "", nil
	}
	return billNos[0], nil
}
