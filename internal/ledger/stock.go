package ledger

import (
	"context"
	"sort"

	"plastics-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// reserve takes qty kg out of the available balance. It is the only debit path.
func reserve(s *models.Stock, qty decimal.Decimal) error {
	if qty.GreaterThan(s.AvailableStock) {
		return newError(ErrInsufficientStock,
			"stock %d (%s) has %s kg available, %s kg requested",
			s.ID, s.Material.ColorName, s.AvailableStock.StringFixed(2), qty.StringFixed(2))
	}
	s.AvailableStock = s.AvailableStock.Sub(qty)
	return nil
}

// release puts qty kg back into the available balance. It is the only credit path.
func release(s *models.Stock, qty decimal.Decimal) {
	s.AvailableStock = s.AvailableStock.Add(qty)
}

// lockStocks loads and row-locks the given stocks in ascending id order.
// Missing ids are absent from the result.
func lockStocks(ctx context.Context, repo Repository, ids []uint) (map[uint]*models.Stock, error) {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	stocks := make(map[uint]*models.Stock, len(sorted))
	for _, id := range sorted {
		if _, done := stocks[id]; done {
			continue
		}
		stock, err := repo.FindStock(ctx, id, true)
		if err != nil {
			return nil, err
		}
		if stock != nil {
			stocks[id] = stock
		}
	}
	return stocks, nil
}

// saveStocks persists the touched rows in ascending id order.
func saveStocks(ctx context.Context, repo Repository, stocks map[uint]*models.Stock, touched map[uint]bool) error {
	ids := make([]uint, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := repo.SaveStock(ctx, stocks[id]); err != nil {
			return err
		}
	}
	return nil
}

func activeStock(stocks map[uint]*models.Stock, id uint) (*models.Stock, error) {
	stock := stocks[id]
	if stock == nil || !stock.IsActive {
		return nil, notFound("stock %d", id)
	}
	return stock, nil
}

// CreateStock opens the ledger row for a material, reactivating a deactivated row when one exists.
func (s *Service) CreateStock(ctx context.Context, materialID uint, totalBags int, weightPerBag decimal.Decimal) (*models.Stock, error) {
	if totalBags <= 0 {
		return nil, validationError("total bags must be greater than zero, got %d", totalBags)
	}
	if err := checkPositive("weight per bag", weightPerBag); err != nil {
		return nil, err
	}

	var created *models.Stock
	err := s.unitOfWork(ctx, func(repo Repository, j *journal) error {
		material, err := repo.FindMaterial(ctx, materialID)
		if err != nil {
			return err
		}
		if material == nil || !material.IsActive {
			return notFound("material %d", materialID)
		}

		active, err := repo.FindStockByMaterial(ctx, materialID, true)
		if err != nil {
			return err
		}
		if active != nil {
			return newError(ErrDuplicate, "material %q already has active stock %d", material.ColorName, active.ID)
		}

		stock, err := repo.FindStockByMaterial(ctx, materialID, false)
		if err != nil {
			return err
		}
		if stock == nil {
			stock = &models.Stock{MaterialID: materialID}
		}
		stock.TotalBags = totalBags
		stock.WeightPerBag = weightPerBag
		stock.AvailableStock = stock.TotalWeight()
		stock.IsActive = true

		if err := repo.SaveStock(ctx, stock); err != nil {
			return err
		}
		stock.Material = *material
		j.record(stock.ID, MovementAdded, stock.AvailableStock)
		created = stock
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"stock_id":    created.ID,
		"material_id": materialID,
		"available":   created.AvailableStock.String(),
	}).Info("stock opened")
	return created, nil
}

// AddStock receives bagsAdded bags of weightPerBag kg into an active stock row.
func (s *Service) AddStock(ctx context.Context, stockID uint, bagsAdded int, weightPerBag decimal.Decimal) (*models.Stock, error) {
	if bagsAdded <= 0 {
		return nil, validationError("bags added must be greater than zero, got %d", bagsAdded)
	}
	if err := checkPositive("weight per bag", weightPerBag); err != nil {
		return nil, err
	}

	var updated *models.Stock
	err := s.unitOfWork(ctx, func(repo Repository, j *journal) error {
		stocks, err := lockStocks(ctx, repo, []uint{stockID})
		if err != nil {
			return err
		}
		stock, err := activeStock(stocks, stockID)
		if err != nil {
			return err
		}

		added := weightPerBag.Mul(decimal.NewFromInt(int64(bagsAdded)))
		stock.TotalBags += bagsAdded
		stock.WeightPerBag = weightPerBag
		release(stock, added)

		if err := repo.SaveStock(ctx, stock); err != nil {
			return err
		}
		j.record(stock.ID, MovementAdded, added)
		updated = stock
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveStock writes quantity kg off an active stock row.
func (s *Service) RemoveStock(ctx context.Context, stockID uint, quantity decimal.Decimal) (*models.Stock, error) {
	if err := checkPositive("quantity", quantity); err != nil {
		return nil, err
	}

	var updated *models.Stock
	err := s.unitOfWork(ctx, func(repo Repository, j *journal) error {
		stocks, err := lockStocks(ctx, repo, []uint{stockID})
		if err != nil {
			return err
		}
		stock, err := activeStock(stocks, stockID)
		if err != nil {
			return err
		}
		if err := reserve(stock, quantity); err != nil {
			return err
		}
		if err := repo.SaveStock(ctx, stock); err != nil {
			return err
		}
		j.record(stock.ID, MovementRemoved, quantity)
		updated = stock
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetStock returns the row whether or not it is active.
func (s *Service) GetStock(ctx context.Context, id uint) (*models.Stock, error) {
	stock, err := s.store.FindStock(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, notFound("stock %d", id)
	}
	return stock, nil
}

// ListStocks returns active rows ordered by material name.
func (s *Service) ListStocks(ctx context.Context) ([]models.Stock, error) {
	return s.store.ListActiveStocks(ctx)
}

// DeleteStock deactivates the row. Bills that reference it keep their history.
func (s *Service) DeleteStock(ctx context.Context, id uint) (*models.Stock, error) {
	var deleted *models.Stock
	err := s.unitOfWork(ctx, func(repo Repository, _ *journal) error {
		stocks, err := lockStocks(ctx, repo, []uint{id})
		if err != nil {
			return err
		}
		stock, err := activeStock(stocks, id)
		if err != nil {
			return err
		}
		stock.IsActive = false
		if err := repo.SaveStock(ctx, stock); err != nil {
			return err
		}
		deleted = stock
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
