package ledger

import (
	"context"

	"plastics-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type PurchaseItemInput struct {
	MaterialID uint
	Quantity   decimal.Decimal
	Price      decimal.Decimal
}

// PurchaseBillInput records material bought from a supplier. It never moves stock;
// received goods are booked with AddStock.
type PurchaseBillInput struct {
	BuyerName     string
	PaymentMethod models.PaymentMethod
	IsPaid        bool
	Items         []PurchaseItemInput
}

func (in *PurchaseBillInput) validate() error {
	name, err := checkName("buyer name", in.BuyerName, 100)
	if err != nil {
		return err
	}
	in.BuyerName = name

	switch in.PaymentMethod {
	case models.PaymentCash, models.PaymentCreditCard, models.PaymentBankTransfer:
	default:
		return validationError("unknown payment method %q", in.PaymentMethod)
	}
	if !in.IsPaid {
		return validationError("purchase bills must be paid")
	}

	if len(in.Items) == 0 {
		return validationError("a bill needs at least one item")
	}
	seen := make(map[uint]bool, len(in.Items))
	for i, it := range in.Items {
		if it.MaterialID == 0 {
			return validationError("item %d: material id is required", i+1)
		}
		if seen[it.MaterialID] {
			return validationError("item %d: material %d appears more than once", i+1, it.MaterialID)
		}
		seen[it.MaterialID] = true
		if err := checkPositive("quantity", it.Quantity); err != nil {
			return err
		}
		if err := checkNonNegative("price", it.Price); err != nil {
			return err
		}
	}
	return nil
}

func purchaseTotal(items []models.PurchaseBillItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount())
	}
	return total.Round(maxScale)
}

func loadMaterials(ctx context.Context, repo Repository, items []PurchaseItemInput) (map[uint]*models.Material, error) {
	materials := make(map[uint]*models.Material, len(items))
	for _, it := range items {
		m, err := repo.FindMaterial(ctx, it.MaterialID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, notFound("material %d", it.MaterialID)
		}
		materials[m.ID] = m
	}
	return materials, nil
}

func attachMaterials(b *models.PurchaseBill, materials map[uint]*models.Material) {
	for i := range b.Items {
		if m := materials[b.Items[i].MaterialID]; m != nil {
			b.Items[i].Material = *m
		}
	}
}

func (s *Service) CreatePurchaseBill(ctx context.Context, in PurchaseBillInput) (*models.PurchaseBill, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var bill *models.PurchaseBill
	err := s.store.Transaction(ctx, func(repo Repository) error {
		materials, err := loadMaterials(ctx, repo, in.Items)
		if err != nil {
			return err
		}

		b := &models.PurchaseBill{
			BuyerName:     in.BuyerName,
			PaymentMethod: in.PaymentMethod,
			IsPaid:        in.IsPaid,
		}
		for _, it := range in.Items {
			b.Items = append(b.Items, models.PurchaseBillItem{
				MaterialID: it.MaterialID,
				Quantity:   it.Quantity,
				Price:      it.Price,
			})
		}
		b.Total = purchaseTotal(b.Items)

		billNo, err := issueBillNumber(ctx, repo, BillKindPurchase)
		if err != nil {
			return err
		}
		b.BillNo = billNo
		b.CreatedAt = s.now()

		if err := repo.SavePurchaseBill(ctx, b); err != nil {
			return err
		}
		attachMaterials(b, materials)
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"bill_no": bill.BillNo,
		"total":   bill.Total.StringFixed(2),
	}).Info("purchase bill created")
	return bill, nil
}

// ModifyPurchaseBill matches items by material id, updates or inserts them and drops the rest.
func (s *Service) ModifyPurchaseBill(ctx context.Context, id uint, in PurchaseBillInput) (*models.PurchaseBill, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var bill *models.PurchaseBill
	err := s.store.Transaction(ctx, func(repo Repository) error {
		b, err := repo.FindPurchaseBill(ctx, id, true)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound("purchase bill %d", id)
		}
		materials, err := loadMaterials(ctx, repo, in.Items)
		if err != nil {
			return err
		}

		previous := make(map[uint]models.PurchaseBillItem, len(b.Items))
		for _, old := range b.Items {
			previous[old.MaterialID] = old
		}

		b.BuyerName = in.BuyerName
		b.PaymentMethod = in.PaymentMethod
		b.IsPaid = in.IsPaid

		items := make([]models.PurchaseBillItem, 0, len(in.Items))
		for _, it := range in.Items {
			item := models.PurchaseBillItem{
				PurchaseBillID: b.ID,
				MaterialID:     it.MaterialID,
				Quantity:       it.Quantity,
				Price:          it.Price,
			}
			if old, ok := previous[it.MaterialID]; ok {
				item.ID = old.ID
				item.CreatedAt = old.CreatedAt
				delete(previous, it.MaterialID)
			}
			items = append(items, item)
		}

		removed := make([]uint, 0, len(previous))
		for _, old := range previous {
			removed = append(removed, old.ID)
		}
		if len(removed) > 0 {
			if err := repo.DeletePurchaseBillItems(ctx, removed); err != nil {
				return err
			}
		}

		b.Items = items
		b.Total = purchaseTotal(items)
		if err := repo.SavePurchaseBill(ctx, b); err != nil {
			return err
		}
		attachMaterials(b, materials)
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *Service) DeletePurchaseBill(ctx context.Context, id uint) (*models.PurchaseBill, error) {
	var bill *models.PurchaseBill
	err := s.store.Transaction(ctx, func(repo Repository) error {
		b, err := repo.FindPurchaseBill(ctx, id, true)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound("purchase bill %d", id)
		}
		itemIDs := make([]uint, 0, len(b.Items))
		for _, it := range b.Items {
			itemIDs = append(itemIDs, it.ID)
		}
		if len(itemIDs) > 0 {
			if err := repo.DeletePurchaseBillItems(ctx, itemIDs); err != nil {
				return err
			}
		}
		if err := repo.DeletePurchaseBill(ctx, b.ID); err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *Service) GetPurchaseBill(ctx context.Context, id uint) (*models.PurchaseBill, error) {
	bill, err := s.store.FindPurchaseBill(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, notFound("purchase bill %d", id)
	}
	return bill, nil
}

func (s *Service) ListPurchaseBills(ctx context.Context) ([]models.PurchaseBill, error) {
	return s.store.ListPurchaseBills(ctx)
}
