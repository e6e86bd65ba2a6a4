package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"plastics-backend/internal/ledger"
	"plastics-backend/internal/models"
)

type repo struct {
	store *Store
	st    *state
}

var _ ledger.Repository = (*repo)(nil)

func (r *repo) check(ctx context.Context, method string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := r.store.faults[method]; ok {
		delete(r.store.faults, method)
		return err
	}
	return nil
}

func conflict(format string, args ...any) error {
	return &ledger.Error{Err: ledger.ErrConflict, Details: fmt.Sprintf(format, args...)}
}

func duplicate(format string, args ...any) error {
	return &ledger.Error{Err: ledger.ErrDuplicate, Details: fmt.Sprintf(format, args...)}
}

func missing(format string, args ...any) error {
	return &ledger.Error{Err: ledger.ErrNotFound, Details: fmt.Sprintf(format, args...)}
}

// Materials

func (r *repo) FindMaterial(ctx context.Context, id uint) (*models.Material, error) {
	if err := r.check(ctx, "FindMaterial"); err != nil {
		return nil, err
	}
	m, ok := r.st.materials[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) FindMaterialByName(ctx context.Context, name string) (*models.Material, error) {
	if err := r.check(ctx, "FindMaterialByName"); err != nil {
		return nil, err
	}
	for _, m := range r.st.materials {
		if m.ColorName == name {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func (r *repo) ListMaterials(ctx context.Context, activeOnly bool) ([]models.Material, error) {
	if err := r.check(ctx, "ListMaterials"); err != nil {
		return nil, err
	}
	out := make([]models.Material, 0, len(r.st.materials))
	for _, m := range r.st.materials {
		if activeOnly && !m.IsActive {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ColorName < out[j].ColorName })
	return out, nil
}

func (r *repo) SaveMaterial(ctx context.Context, m *models.Material) error {
	if err := r.check(ctx, "SaveMaterial"); err != nil {
		return err
	}
	for id, other := range r.st.materials {
		if id != m.ID && other.ColorName == m.ColorName {
			return duplicate("material %q already exists", m.ColorName)
		}
	}
	now := r.store.now()
	if m.ID == 0 {
		m.ID = r.st.id()
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	r.st.materials[m.ID] = *m
	return nil
}

// Stocks

func (r *repo) withMaterial(s models.Stock) *models.Stock {
	s.Material = r.st.materials[s.MaterialID]
	return &s
}

func (r *repo) FindStock(ctx context.Context, id uint, forUpdate bool) (*models.Stock, error) {
	if err := r.check(ctx, "FindStock"); err != nil {
		return nil, err
	}
	s, ok := r.st.stocks[id]
	if !ok {
		return nil, nil
	}
	return r.withMaterial(s), nil
}

func (r *repo) FindStockByMaterial(ctx context.Context, materialID uint, active bool) (*models.Stock, error) {
	if err := r.check(ctx, "FindStockByMaterial"); err != nil {
		return nil, err
	}
	var found *models.Stock
	for _, s := range r.st.stocks {
		if s.MaterialID != materialID || s.IsActive != active {
			continue
		}
		if found == nil || s.ID > found.ID {
			found = r.withMaterial(s)
		}
	}
	return found, nil
}

func (r *repo) SaveStock(ctx context.Context, s *models.Stock) error {
	if err := r.check(ctx, "SaveStock"); err != nil {
		return err
	}
	if s.IsActive {
		for id, other := range r.st.stocks {
			if id != s.ID && other.MaterialID == s.MaterialID && other.IsActive {
				return duplicate("material %d already has active stock %d", s.MaterialID, id)
			}
		}
	}

	now := r.store.now()
	if s.ID == 0 {
		s.ID = r.st.id()
		s.CreatedAt = now
	} else {
		current, ok := r.st.stocks[s.ID]
		if !ok {
			return missing("stock %d", s.ID)
		}
		if current.Version != s.Version {
			return conflict("stock %d was modified concurrently", s.ID)
		}
	}
	s.Version++
	s.UpdatedAt = now

	row := *s
	row.Material = models.Material{}
	r.st.stocks[s.ID] = row
	return nil
}

func (r *repo) ListActiveStocks(ctx context.Context) ([]models.Stock, error) {
	if err := r.check(ctx, "ListActiveStocks"); err != nil {
		return nil, err
	}
	out := make([]models.Stock, 0, len(r.st.stocks))
	for _, s := range r.st.stocks {
		if s.IsActive {
			out = append(out, *r.withMaterial(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Material.ColorName != out[j].Material.ColorName {
			return out[i].Material.ColorName < out[j].Material.ColorName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Sales bills

func (r *repo) loadSalesBill(b models.SalesBill) models.SalesBill {
	b.Items = nil
	for _, it := range r.st.salesItems {
		if it.SalesBillID != b.ID {
			continue
		}
		if s, ok := r.st.stocks[it.StockID]; ok {
			it.Stock = *r.withMaterial(s)
		}
		b.Items = append(b.Items, it)
	}
	sort.Slice(b.Items, func(i, j int) bool { return b.Items[i].ID < b.Items[j].ID })
	return b
}

func (r *repo) FindSalesBill(ctx context.Context, id uint, forUpdate bool) (*models.SalesBill, error) {
	if err := r.check(ctx, "FindSalesBill"); err != nil {
		return nil, err
	}
	b, ok := r.st.salesBills[id]
	if !ok {
		return nil, nil
	}
	b = r.loadSalesBill(b)
	return &b, nil
}

func (r *repo) ListSalesBills(ctx context.Context) ([]models.SalesBill, error) {
	if err := r.check(ctx, "ListSalesBills"); err != nil {
		return nil, err
	}
	out := make([]models.SalesBill, 0, len(r.st.salesBills))
	for _, b := range r.st.salesBills {
		out = append(out, r.loadSalesBill(b))
	}
	sort.Slice(out, func(i, j int) bool {
		return byNewest(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (r *repo) SaveSalesBill(ctx context.Context, b *models.SalesBill) error {
	if err := r.check(ctx, "SaveSalesBill"); err != nil {
		return err
	}
	for id, other := range r.st.salesBills {
		if id != b.ID && other.BillNo == b.BillNo {
			return duplicate("bill number %s already used", b.BillNo)
		}
	}
	now := r.store.now()
	if b.ID == 0 {
		b.ID = r.st.id()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	for i := range b.Items {
		it := &b.Items[i]
		it.SalesBillID = b.ID
		if it.ID == 0 {
			it.ID = r.st.id()
			it.CreatedAt = now
		}
		it.UpdatedAt = now
		row := *it
		row.Stock = models.Stock{}
		r.st.salesItems[it.ID] = row
	}

	row := *b
	row.Items = nil
	r.st.salesBills[b.ID] = row
	return nil
}

func (r *repo) DeleteSalesBillItems(ctx context.Context, ids []uint) error {
	if err := r.check(ctx, "DeleteSalesBillItems"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(r.st.salesItems, id)
	}
	return nil
}

func (r *repo) DeleteSalesBill(ctx context.Context, id uint) error {
	if err := r.check(ctx, "DeleteSalesBill"); err != nil {
		return err
	}
	for itemID, it := range r.st.salesItems {
		if it.SalesBillID == id {
			delete(r.st.salesItems, itemID)
		}
	}
	delete(r.st.salesBills, id)
	return nil
}

func (r *repo) MarkOverdueSalesBills(ctx context.Context, before time.Time) (int64, error) {
	if err := r.check(ctx, "MarkOverdueSalesBills"); err != nil {
		return 0, err
	}
	var n int64
	for id, b := range r.st.salesBills {
		if b.Status != models.BillStatusPending || b.IsPaid || !b.DueDate.Before(before) {
			continue
		}
		b.Status = models.BillStatusOverDue
		b.UpdatedAt = r.store.now()
		r.st.salesBills[id] = b
		n++
	}
	return n, nil
}

// Purchase bills

func (r *repo) loadPurchaseBill(b models.PurchaseBill) models.PurchaseBill {
	b.Items = nil
	for _, it := range r.st.purchaseItems {
		if it.PurchaseBillID != b.ID {
			continue
		}
		it.Material = r.st.materials[it.MaterialID]
		b.Items = append(b.Items, it)
	}
	sort.Slice(b.Items, func(i, j int) bool { return b.Items[i].ID < b.Items[j].ID })
	return b
}

func (r *repo) FindPurchaseBill(ctx context.Context, id uint, forUpdate bool) (*models.PurchaseBill, error) {
	if err := r.check(ctx, "FindPurchaseBill"); err != nil {
		return nil, err
	}
	b, ok := r.st.purchaseBills[id]
	if !ok {
		return nil, nil
	}
	b = r.loadPurchaseBill(b)
	return &b, nil
}

func (r *repo) ListPurchaseBills(ctx context.Context) ([]models.PurchaseBill, error) {
	if err := r.check(ctx, "ListPurchaseBills"); err != nil {
		return nil, err
	}
	out := make([]models.PurchaseBill, 0, len(r.st.purchaseBills))
	for _, b := range r.st.purchaseBills {
		out = append(out, r.loadPurchaseBill(b))
	}
	sort.Slice(out, func(i, j int) bool {
		return byNewest(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (r *repo) SavePurchaseBill(ctx context.Context, b *models.PurchaseBill) error {
	if err := r.check(ctx, "SavePurchaseBill"); err != nil {
		return err
	}
	for id, other := range r.st.purchaseBills {
		if id != b.ID && other.BillNo == b.BillNo {
			return duplicate("bill number %s already used", b.BillNo)
		}
	}
	now := r.store.now()
	if b.ID == 0 {
		b.ID = r.st.id()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	for i := range b.Items {
		it := &b.Items[i]
		it.PurchaseBillID = b.ID
		if it.ID == 0 {
			it.ID = r.st.id()
			it.CreatedAt = now
		}
		it.UpdatedAt = now
		row := *it
		row.Material = models.Material{}
		r.st.purchaseItems[it.ID] = row
	}

	row := *b
	row.Items = nil
	r.st.purchaseBills[b.ID] = row
	return nil
}

func (r *repo) DeletePurchaseBillItems(ctx context.Context, ids []uint) error {
	if err := r.check(ctx, "DeletePurchaseBillItems"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(r.st.purchaseItems, id)
	}
	return nil
}

func (r *repo) DeletePurchaseBill(ctx context.Context, id uint) error {
	if err := r.check(ctx, "DeletePurchaseBill"); err != nil {
		return err
	}
	for itemID, it := range r.st.purchaseItems {
		if it.PurchaseBillID == id {
			delete(r.st.purchaseItems, itemID)
		}
	}
	delete(r.st.purchaseBills, id)
	return nil
}

// Numbering

func (r *repo) IncrementBillCounter(ctx context.Context, kind string) (int64, bool, error) {
	if err := r.check(ctx, "IncrementBillCounter"); err != nil {
		return 0, false, err
	}
	v, ok := r.st.counters[kind]
	if !ok {
		return 0, false, nil
	}
	v++
	r.st.counters[kind] = v
	return v, true, nil
}

func (r *repo) CreateBillCounter(ctx context.Context, kind string, value int64) error {
	if err := r.check(ctx, "CreateBillCounter"); err != nil {
		return err
	}
	if _, ok := r.st.counters[kind]; ok {
		return duplicate("bill counter %q", kind)
	}
	r.st.counters[kind] = value
	return nil
}

func (r *repo) MostRecentBillNumber(ctx context.Context, kind string) (string, error) {
	if err := r.check(ctx, "MostRecentBillNumber"); err != nil {
		return "", err
	}
	var (
		latest  string
		created time.Time
		id      uint
	)
	consider := func(billNo string, c time.Time, billID uint) {
		if !strings.HasPrefix(billNo, kind+"_") {
			return
		}
		if latest == "" || byNewest(c, created, billID, id) {
			latest, created, id = billNo, c, billID
		}
	}
	switch kind {
	case ledger.BillKindSales:
		for _, b := range r.st.salesBills {
			consider(b.BillNo, b.CreatedAt, b.ID)
		}
	case ledger.BillKindPurchase:
		for _, b := range r.st.purchaseBills {
			consider(b.BillNo, b.CreatedAt, b.ID)
		}
	}
	return latest, nil
}
