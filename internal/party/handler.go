// Package party keeps the supplier and customer directory.
package party

import (
	"errors"
	"strings"
	"time"

	"plastics-backend/internal/apierror"
	"plastics-backend/internal/audit"
	"plastics-backend/internal/database"
	"plastics-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PartyResponse struct {
	ID        uint             `json:"id"`
	Name      string           `json:"name"`
	Phone     string           `json:"phone"`
	Type      models.PartyType `json:"type"`
	Address   string           `json:"address"`
	CreatedAt time.Time        `json:"created_at"`
}

type CreatePartyRequest struct {
	Name    string           `json:"name" validate:"required,min=3,max=200"`
	Phone   string           `json:"phone" validate:"required,phone10"`
	Type    models.PartyType `json:"type" validate:"required,oneof=supplier customer"`
	Address string           `json:"address" validate:"max=500"`
}

func toPartyResponse(p *models.Party) PartyResponse {
	return PartyResponse{
		ID:        p.ID,
		Name:      p.Name,
		Phone:     p.Phone,
		Type:      p.Type,
		Address:   p.Address,
		CreatedAt: p.CreatedAt,
	}
}

// GET /api/parties?type=supplier
func ListPartiesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.WithContext(c.UserContext()).Model(&models.Party{}).Where("is_active = ?", true)

		if t := models.PartyType(c.Query("type")); t != "" {
			if t != models.PartySupplier && t != models.PartyCustomer {
				return fiber.NewError(fiber.StatusBadRequest, "type must be supplier or customer")
			}
			dbq = dbq.Where("type = ?", t)
		}

		var parties []models.Party
		if err := dbq.Order("name asc").Find(&parties).Error; err != nil {
			return err
		}

		res := make([]PartyResponse, 0, len(parties))
		for i := range parties {
			res = append(res, toPartyResponse(&parties[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/parties
func CreatePartyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePartyRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Address = strings.TrimSpace(body.Address)
		if len([]rune(body.Name)) < 3 {
			return fiber.NewError(fiber.StatusBadRequest, "name must be at least 3 characters")
		}

		db := database.DB.WithContext(c.UserContext())

		var existing models.Party
		err := db.Where("phone = ? AND type = ?", body.Phone, body.Type).First(&existing).Error
		switch {
		case err == nil:
			return fiber.NewError(fiber.StatusConflict, "a "+string(body.Type)+" with phone "+body.Phone+" already exists")
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		p := models.Party{
			Name:     body.Name,
			Phone:    body.Phone,
			Type:     body.Type,
			Address:  body.Address,
			IsActive: true,
		}
		if err := db.Create(&p).Error; err != nil {
			return err
		}

		resp := toPartyResponse(&p)
		audit.Record(c, audit.EntityParty, p.ID, models.AuditActionCreate, "party "+p.Name+" created", nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// DELETE /api/parties/:id (admin)
func DeletePartyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}

		db := database.DB.WithContext(c.UserContext())

		var p models.Party
		if err := db.Where("id = ? AND is_active = ?", id, true).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "party not found")
			}
			return err
		}
		if err := db.Model(&p).Update("is_active", false).Error; err != nil {
			return err
		}

		audit.Record(c, audit.EntityParty, p.ID, models.AuditActionDelete, "party "+p.Name+" deactivated", toPartyResponse(&p), nil)
		return c.JSON(fiber.Map{"message": "party deactivated"})
	}
}
