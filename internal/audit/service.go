package audit

import (
	"encoding/json"
	"errors"
	"fmt"

	"plastics-backend/internal/database"
	"plastics-backend/internal/models"
)

const (
	EntityMaterial     = "material"
	EntityStock        = "stock"
	EntitySalesBill    = "sales_bill"
	EntityPurchaseBill = "purchase_bill"
	EntityParty        = "party"
)

var ErrNoDatabase = errors.New("audit log database not initialised")

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func toJSON(v any) string {
	// jsonb needs "null" rather than an empty string
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func NewEntry(opts LogOptions) models.AuditLog {
	return models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  toJSON(opts.Before),
		AfterData:   toJSON(opts.After),
	}
}

func WriteLog(opts LogOptions) error {
	if database.DB == nil {
		return ErrNoDatabase
	}
	entry := NewEntry(opts)
	if err := database.DB.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log could not be saved: %w", err)
	}
	return nil
}
