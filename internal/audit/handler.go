package audit

import (
	"time"

	"plastics-backend/internal/auth"
	"plastics-backend/internal/config"
	"plastics-backend/internal/database"
	"plastics-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

// Record writes an audit entry for the current request. A failed write is logged, not returned.
func Record(c *fiber.Ctx, entityType string, entityID uint, action models.AuditAction, description string, before, after any) {
	userID, userName := auth.CurrentUser(c)
	err := WriteLog(LogOptions{
		UserID:      userID,
		UserName:    userName,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: description,
		Before:      before,
		After:       after,
	})
	if err != nil {
		config.LogError(config.GetLogger(), "audit", "Record", entityType, entityID, err)
	}
}

// GET /api/audit-logs?entity_type=sales_bill&entity_id=1&user_id=2&limit=100
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if entityID := c.QueryInt("entity_id"); entityID > 0 {
			dbq = dbq.Where("entity_id = ?", entityID)
		}
		if userID := c.QueryInt("user_id"); userID > 0 {
			dbq = dbq.Where("user_id = ?", userID)
		}

		limit := c.QueryInt("limit", 200)
		if limit <= 0 || limit > 1000 {
			limit = 200
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format(time.RFC3339),
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
			})
		}
		return c.JSON(resp)
	}
}
