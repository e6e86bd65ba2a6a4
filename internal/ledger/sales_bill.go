package ledger

import (
	"context"
	"time"

	"plastics-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type SalesItemInput struct {
	StockID      uint
	Bags         int
	WeightPerBag decimal.Decimal
	Price        decimal.Decimal
}

func (in SalesItemInput) totalWeight() decimal.Decimal {
	return in.WeightPerBag.Mul(decimal.NewFromInt(int64(in.Bags)))
}

// SalesBillInput carries everything the caller controls on a sales bill.
// Bill number and creation time are assigned by the ledger.
type SalesBillInput struct {
	SellerName    string
	PaymentMethod models.PaymentMethod
	DueDate       time.Time
	Status        models.BillStatus
	RemainAmount  decimal.Decimal
	IsPaid        bool
	Items         []SalesItemInput
}

func (in *SalesBillInput) validate() error {
	name, err := checkName("seller name", in.SellerName, 100)
	if err != nil {
		return err
	}
	in.SellerName = name

	switch in.PaymentMethod {
	case models.PaymentCash, models.PaymentBankTransfer:
	default:
		return validationError("payment method %q is not accepted on sales bills", in.PaymentMethod)
	}
	if in.Status == "" {
		in.Status = models.BillStatusPending
	}
	if !in.Status.Valid() {
		return validationError("unknown bill status %q", in.Status)
	}
	if in.DueDate.IsZero() {
		return validationError("due date is required")
	}
	in.DueDate = dateOnly(in.DueDate)
	if err := checkNonNegative("remain amount", in.RemainAmount); err != nil {
		return err
	}

	if len(in.Items) == 0 {
		return validationError("a bill needs at least one item")
	}
	seen := make(map[uint]bool, len(in.Items))
	for i, it := range in.Items {
		if it.StockID == 0 {
			return validationError("item %d: stock id is required", i+1)
		}
		if seen[it.StockID] {
			return validationError("item %d: stock %d appears more than once", i+1, it.StockID)
		}
		seen[it.StockID] = true
		if it.Bags <= 0 {
			return validationError("item %d: bags must be greater than zero, got %d", i+1, it.Bags)
		}
		if err := checkPositive("weight per bag", it.WeightPerBag); err != nil {
			return err
		}
		if err := checkNonNegative("price", it.Price); err != nil {
			return err
		}
	}
	return nil
}

func (in SalesBillInput) stockIDs() []uint {
	ids := make([]uint, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.StockID)
	}
	return ids
}

func (in SalesBillInput) applyTo(b *models.SalesBill) {
	b.SellerName = in.SellerName
	b.PaymentMethod = in.PaymentMethod
	b.DueDate = in.DueDate
	b.Status = in.Status
	b.RemainAmount = in.RemainAmount
	b.IsPaid = in.IsPaid
}

func billTotal(items []models.SalesBillItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount())
	}
	return total.Round(maxScale)
}

func attachStocks(b *models.SalesBill, stocks map[uint]*models.Stock) {
	for i := range b.Items {
		if stock := stocks[b.Items[i].StockID]; stock != nil {
			b.Items[i].Stock = *stock
		}
	}
}

// CreateSalesBill reserves stock for every item and records the bill, all in one unit of work.
func (s *Service) CreateSalesBill(ctx context.Context, in SalesBillInput) (*models.SalesBill, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var bill *models.SalesBill
	err := s.unitOfWork(ctx, func(repo Repository, j *journal) error {
		stocks, err := lockStocks(ctx, repo, in.stockIDs())
		if err != nil {
			return err
		}

		b := &models.SalesBill{}
		in.applyTo(b)
		touched := make(map[uint]bool, len(in.Items))
		for _, it := range in.Items {
			stock, err := activeStock(stocks, it.StockID)
			if err != nil {
				return err
			}
			weight := it.totalWeight()
			if err := reserve(stock, weight); err != nil {
				return err
			}
			touched[stock.ID] = true
			j.record(stock.ID, MovementReserved, weight)
			b.Items = append(b.Items, models.SalesBillItem{
				StockID:      it.StockID,
				Bags:         it.Bags,
				WeightPerBag: it.WeightPerBag,
				Price:        it.Price,
			})
		}
		b.Total = billTotal(b.Items)

		billNo, err := issueBillNumber(ctx, repo, BillKindSales)
		if err != nil {
			return err
		}
		b.BillNo = billNo
		b.CreatedAt = s.now()

		if err := saveStocks(ctx, repo, stocks, touched); err != nil {
			return err
		}
		if err := repo.SaveSalesBill(ctx, b); err != nil {
			return err
		}
		attachStocks(b, stocks)
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"bill_no": bill.BillNo,
		"items":   len(bill.Items),
		"total":   bill.Total.StringFixed(2),
	}).Info("sales bill created")
	return bill, nil
}

// ModifySalesBill replaces the bill's fields and items, moving only the weight difference of each line.
// Items are matched by stock id. Lines missing from the input are removed and fully released.
func (s *Service) ModifySalesBill(ctx context.Context, id uint, in SalesBillInput) (*models.SalesBill, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var bill *models.SalesBill
	err := s.unitOfWork(ctx, func(repo Repository, j *journal) error {
		b, err := repo.FindSalesBill(ctx, id, true)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound("sales bill %d", id)
		}

		ids := in.stockIDs()
		previous := make(map[uint]models.SalesBillItem, len(b.Items))
		for _, old := range b.Items {
			previous[old.StockID] = old
			ids = append(ids, old.StockID)
		}
		stocks, err := lockStocks(ctx, repo, ids)
		if err != nil {
			return err
		}

		in.applyTo(b)
		touched := make(map[uint]bool, len(ids))
		items := make([]models.SalesBillItem, 0, len(in.Items))
		for _, it := range in.Items {
			item := models.SalesBillItem{
				SalesBillID:  b.ID,
				StockID:      it.StockID,
				Bags:         it.Bags,
				WeightPerBag: it.WeightPerBag,
				Price:        it.Price,
			}

			old, matched := previous[it.StockID]
			if !matched {
				stock, err := activeStock(stocks, it.StockID)
				if err != nil {
					return err
				}
				if err := reserve(stock, item.TotalWeight()); err != nil {
					return err
				}
				touched[stock.ID] = true
				j.record(stock.ID, MovementReserved, item.TotalWeight())
				items = append(items, item)
				continue
			}

			stock := stocks[it.StockID]
			if stock == nil {
				return notFound("stock %d", it.StockID)
			}
			delta := item.TotalWeight().Sub(old.TotalWeight())
			switch {
			case delta.IsPositive():
				if err := reserve(stock, delta); err != nil {
					return err
				}
				touched[stock.ID] = true
				j.record(stock.ID, MovementReserved, delta)
			case delta.IsNegative():
				release(stock, delta.Neg())
				touched[stock.ID] = true
				j.record(stock.ID, MovementReleased, delta.Neg())
			}
			item.ID = old.ID
			item.CreatedAt = old.CreatedAt
			delete(previous, it.StockID)
			items = append(items, item)
		}

		removed := make([]uint, 0, len(previous))
		for stockID, old := range previous {
			stock := stocks[stockID]
			if stock == nil {
				return notFound("stock %d referenced by bill %s", stockID, b.BillNo)
			}
			release(stock, old.TotalWeight())
			touched[stockID] = true
			j.record(stockID, MovementReleased, old.TotalWeight())
			removed = append(removed, old.ID)
		}

		b.Items = items
		b.Total = billTotal(items)

		if err := saveStocks(ctx, repo, stocks, touched); err != nil {
			return err
		}
		if len(removed) > 0 {
			if err := repo.DeleteSalesBillItems(ctx, removed); err != nil {
				return err
			}
		}
		if err := repo.SaveSalesBill(ctx, b); err != nil {
			return err
		}
		attachStocks(b, stocks)
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"bill_no": bill.BillNo,
		"items":   len(bill.Items),
		"total":   bill.Total.StringFixed(2),
	}).Info("sales bill modified")
	return bill, nil
}

// DeleteSalesBill removes the bill and its items and gives their weight back to stock.
func (s *Service) DeleteSalesBill(ctx context.Context, id uint) (*models.SalesBill, error) {
	var bill *models.SalesBill
	err := s.unitOfWork(ctx, func(repo Repository, j *journal) error {
		b, err := repo.FindSalesBill(ctx, id, true)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound("sales bill %d", id)
		}

		ids := make([]uint, 0, len(b.Items))
		itemIDs := make([]uint, 0, len(b.Items))
		for _, it := range b.Items {
			ids = append(ids, it.StockID)
			itemIDs = append(itemIDs, it.ID)
		}
		stocks, err := lockStocks(ctx, repo, ids)
		if err != nil {
			return err
		}

		touched := make(map[uint]bool, len(ids))
		for _, it := range b.Items {
			stock := stocks[it.StockID]
			if stock == nil {
				return notFound("stock %d referenced by bill %s", it.StockID, b.BillNo)
			}
			release(stock, it.TotalWeight())
			touched[stock.ID] = true
			j.record(stock.ID, MovementReleased, it.TotalWeight())
		}

		if err := saveStocks(ctx, repo, stocks, touched); err != nil {
			return err
		}
		if len(itemIDs) > 0 {
			if err := repo.DeleteSalesBillItems(ctx, itemIDs); err != nil {
				return err
			}
		}
		if err := repo.DeleteSalesBill(ctx, b.ID); err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("bill_no", bill.BillNo).Info("sales bill deleted")
	return bill, nil
}

func (s *Service) GetSalesBill(ctx context.Context, id uint) (*models.SalesBill, error) {
	bill, err := s.store.FindSalesBill(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, notFound("sales bill %d", id)
	}
	return bill, nil
}

// ListSalesBills returns every bill with its items, newest first.
func (s *Service) ListSalesBills(ctx context.Context) ([]models.SalesBill, error) {
	return s.store.ListSalesBills(ctx)
}

// MarkOverdueSalesBills moves unpaid pending bills due before asOf's date to overdue.
func (s *Service) MarkOverdueSalesBills(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.store.MarkOverdueSalesBills(ctx, dateOnly(asOf))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.WithField("count", n).Info("sales bills marked overdue")
	}
	return n, nil
}
