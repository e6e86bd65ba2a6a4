// Package memstore is an in-memory ledger.Store. Units of work run one at a time
// against a copy of the data that replaces the live copy only on success.
package memstore

import (
	"context"
	"sync"
	"time"

	"plastics-backend/internal/ledger"
	"plastics-backend/internal/models"
)

type state struct {
	nextID        uint
	materials     map[uint]models.Material
	stocks        map[uint]models.Stock
	salesBills    map[uint]models.SalesBill
	salesItems    map[uint]models.SalesBillItem
	purchaseBills map[uint]models.PurchaseBill
	purchaseItems map[uint]models.PurchaseBillItem
	counters      map[string]int64
}

func newState() *state {
	return &state{
		materials:     map[uint]models.Material{},
		stocks:        map[uint]models.Stock{},
		salesBills:    map[uint]models.SalesBill{},
		salesItems:    map[uint]models.SalesBillItem{},
		purchaseBills: map[uint]models.PurchaseBill{},
		purchaseItems: map[uint]models.PurchaseBillItem{},
		counters:      map[string]int64{},
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (st *state) clone() *state {
	return &state{
		nextID:        st.nextID,
		materials:     cloneMap(st.materials),
		stocks:        cloneMap(st.stocks),
		salesBills:    cloneMap(st.salesBills),
		salesItems:    cloneMap(st.salesItems),
		purchaseBills: cloneMap(st.purchaseBills),
		purchaseItems: cloneMap(st.purchaseItems),
		counters:      cloneMap(st.counters),
	}
}

func (st *state) id() uint {
	st.nextID++
	return st.nextID
}

type Store struct {
	mu     sync.Mutex
	st     *state
	now    func() time.Time
	faults map[string]error
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState(), now: time.Now, faults: map[string]error{}}
}

// FailNext makes the next call of the named Repository method return err.
func (s *Store) FailNext(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method] = err
}

func (s *Store) Transaction(ctx context.Context, fn func(repo ledger.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(&repo{store: s, st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// live returns a repo over the committed data. Call the returned func when done.
func (s *Store) live() (*repo, func()) {
	s.mu.Lock()
	return &repo{store: s, st: s.st}, s.mu.Unlock
}

func (s *Store) FindMaterial(ctx context.Context, id uint) (*models.Material, error) {
	r, unlock := s.live()
	defer unlock()
	return r.FindMaterial(ctx, id)
}

func (s *Store) FindMaterialByName(ctx context.Context, name string) (*models.Material, error) {
	r, unlock := s.live()
	defer unlock()
	return r.FindMaterialByName(ctx, name)
}

func (s *Store) ListMaterials(ctx context.Context, activeOnly bool) ([]models.Material, error) {
	r, unlock := s.live()
	defer unlock()
	return r.ListMaterials(ctx, activeOnly)
}

func (s *Store) SaveMaterial(ctx context.Context, m *models.Material) error {
	r, unlock := s.live()
	defer unlock()
	return r.SaveMaterial(ctx, m)
}

func (s *Store) FindStock(ctx context.Context, id uint, forUpdate bool) (*models.Stock, error) {
	r, unlock := s.live()
	defer unlock()
	return r.FindStock(ctx, id, forUpdate)
}

func (s *Store) FindStockByMaterial(ctx context.Context, materialID uint, active bool) (*models.Stock, error) {
	r, unlock := s.live()
	defer unlock()
	return r.FindStockByMaterial(ctx, materialID, active)
}

func (s *Store) SaveStock(ctx context.Context, st *models.Stock) error {
	r, unlock := s.live()
	defer unlock()
	return r.SaveStock(ctx, st)
}

func (s *Store) ListActiveStocks(ctx context.Context) ([]models.Stock, error) {
	r, unlock := s.live()
	defer unlock()
	return r.ListActiveStocks(ctx)
}

func (s *Store) FindSalesBill(ctx context.Context, id uint, forUpdate bool) (*models.SalesBill, error) {
	r, unlock := s.live()
	defer unlock()
	return r.FindSalesBill(ctx, id, forUpdate)
}

func (s *Store) ListSalesBills(ctx context.Context) ([]models.SalesBill, error) {
	r, unlock := s.live()
	defer unlock()
	return r.ListSalesBills(ctx)
}

func (s *Store) SaveSalesBill(ctx context.Context, b *models.SalesBill) error {
	r, unlock := s.live()
	defer unlock()
	return r.SaveSalesBill(ctx, b)
}

func (s *Store) DeleteSalesBillItems(ctx context.Context, ids []uint) error {
	r, unlock := s.live()
	defer unlock()
	return r.DeleteSalesBillItems(ctx, ids)
}

func (s *Store) DeleteSalesBill(ctx context.Context, id uint) error {
	r, unlock := s.live()
	defer unlock()
	return r.DeleteSalesBill(ctx, id)
}

func (s *Store) MarkOverdueSalesBills(ctx context.Context, before time.Time) (int64, error) {
	r, unlock := s.live()
	defer unlock()
	return r.MarkOverdueSalesBills(ctx, before)
}

func (s *Store) FindPurchaseBill(ctx context.Context, id uint, forUpdate bool) (*models.PurchaseBill, error) {
	r, unlock := s.live()
	defer unlock()
	return r.FindPurchaseBill(ctx, id, forUpdate)
}

func (s *Store) ListPurchaseBills(ctx context.Context) ([]models.PurchaseBill, error) {
	r, unlock := s.live()
	defer unlock()
	return r.ListPurchaseBills(ctx)
}

func (s *Store) SavePurchaseBill(ctx context.Context, b *models.PurchaseBill) error {
	r, unlock := s.live()
	defer unlock()
	return r.SavePurchaseBill(ctx, b)
}

func (s *Store) DeletePurchaseBillItems(ctx context.Context, ids []uint) error {
	r, unlock := s.live()
	defer unlock()
	return r.DeletePurchaseBillItems(ctx, ids)
}

func (s *Store) DeletePurchaseBill(ctx context.Context, id uint) error {
	r, unlock := s.live()
	defer unlock()
	return r.DeletePurchaseBill(ctx, id)
}

func (s *Store) IncrementBillCounter(ctx context.Context, kind string) (int64, bool, error) {
	r, unlock := s.live()
	defer unlock()
	return r.IncrementBillCounter(ctx, kind)
}

func (s *Store) CreateBillCounter(ctx context.Context, kind string, value int64) error {
	r, unlock := s.live()
	defer unlock()
	return r.CreateBillCounter(ctx, kind, value)
}

func (s *Store) MostRecentBillNumber(ctx context.Context, kind string) (string, error) {
	r, unlock := s.live()
	defer unlock()
	return r.MostRecentBillNumber(ctx, kind)
}

// byNewest orders by creation time, then id, newest first.
func byNewest(aCreated, bCreated time.Time, aID, bID uint) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return aID > bID
}
