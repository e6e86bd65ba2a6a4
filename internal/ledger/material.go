package ledger

import (
	"context"

	"plastics-backend/internal/models"

	"github.com/shopspring/decimal"
)

func (s *Service) CreateMaterial(ctx context.Context, colorName string, basePrice decimal.Decimal) (*models.Material, error) {
	name, err := checkName("color name", colorName, 100)
	if err != nil {
		return nil, err
	}
	if err := checkNonNegative("base price", basePrice); err != nil {
		return nil, err
	}

	var created *models.Material
	err = s.store.Transaction(ctx, func(repo Repository) error {
		existing, err := repo.FindMaterialByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return newError(ErrDuplicate, "material %q already exists", name)
		}
		m := &models.Material{ColorName: name, BasePrice: basePrice, IsActive: true}
		if err := repo.SaveMaterial(ctx, m); err != nil {
			return err
		}
		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateMaterial changes price and active flag. The name is the material's identity and stays.
func (s *Service) UpdateMaterial(ctx context.Context, id uint, basePrice decimal.Decimal, isActive bool) (*models.Material, error) {
	if err := checkNonNegative("base price", basePrice); err != nil {
		return nil, err
	}

	var updated *models.Material
	err := s.store.Transaction(ctx, func(repo Repository) error {
		m, err := repo.FindMaterial(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return notFound("material %d", id)
		}
		m.BasePrice = basePrice
		m.IsActive = isActive
		if err := repo.SaveMaterial(ctx, m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) GetMaterial(ctx context.Context, id uint) (*models.Material, error) {
	m, err := s.store.FindMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, notFound("material %d", id)
	}
	return m, nil
}

func (s *Service) ListMaterials(ctx context.Context, activeOnly bool) ([]models.Material, error) {
	return s.store.ListMaterials(ctx, activeOnly)
}

// DeleteMaterial deactivates the material.
func (s *Service) DeleteMaterial(ctx context.Context, id uint) (*models.Material, error) {
	var deleted *models.Material
	err := s.store.Transaction(ctx, func(repo Repository) error {
		m, err := repo.FindMaterial(ctx, id)
		if err != nil {
			return err
		}
		if m == nil || !m.IsActive {
			return notFound("material %d", id)
		}
		m.IsActive = false
		if err := repo.SaveMaterial(ctx, m); err != nil {
			return err
		}
		deleted = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
