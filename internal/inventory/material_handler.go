package inventory

import (
	"time"

	"plastics-backend/internal/apierror"
	"plastics-backend/internal/audit"
	"plastics-backend/internal/ledger"
	"plastics-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type MaterialResponse struct {
	ID        uint            `json:"id"`
	ColorName string          `json:"color_name"`
	BasePrice decimal.Decimal `json:"base_price"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

type CreateMaterialRequest struct {
	ColorName string          `json:"color_name" validate:"required,max=100"`
	BasePrice decimal.Decimal `json:"base_price"`
}

type UpdateMaterialRequest struct {
	BasePrice *decimal.Decimal `json:"base_price"`
	IsActive  *bool            `json:"is_active"`
}

func toMaterialResponse(m *models.Material) MaterialResponse {
	return MaterialResponse{
		ID:        m.ID,
		ColorName: m.ColorName,
		BasePrice: m.BasePrice,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
}

// GET /api/materials?all=true
// Only active materials unless all=true.
func ListMaterialsHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		materials, err := svc.ListMaterials(c.UserContext(), c.Query("all") != "true")
		if err != nil {
			return err
		}
		res := make([]MaterialResponse, 0, len(materials))
		for i := range materials {
			res = append(res, toMaterialResponse(&materials[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/materials/:id
func GetMaterialHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		m, err := svc.GetMaterial(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(toMaterialResponse(m))
	}
}

// POST /api/materials (admin)
func CreateMaterialHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMaterialRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}
		m, err := svc.CreateMaterial(c.UserContext(), body.ColorName, body.BasePrice)
		if err != nil {
			return err
		}
		resp := toMaterialResponse(m)
		audit.Record(c, audit.EntityMaterial, m.ID, models.AuditActionCreate,
			"material "+m.ColorName+" created", nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/materials/:id (admin)
func UpdateMaterialHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateMaterialRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}

		before, err := svc.GetMaterial(c.UserContext(), id)
		if err != nil {
			return err
		}
		price, active := before.BasePrice, before.IsActive
		if body.BasePrice != nil {
			price = *body.BasePrice
		}
		if body.IsActive != nil {
			active = *body.IsActive
		}

		m, err := svc.UpdateMaterial(c.UserContext(), id, price, active)
		if err != nil {
			return err
		}
		resp := toMaterialResponse(m)
		audit.Record(c, audit.EntityMaterial, m.ID, models.AuditActionUpdate,
			"material "+m.ColorName+" updated", toMaterialResponse(before), resp)
		return c.JSON(resp)
	}
}

// DELETE /api/materials/:id (admin)
func DeleteMaterialHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		m, err := svc.DeleteMaterial(c.UserContext(), id)
		if err != nil {
			return err
		}
		audit.Record(c, audit.EntityMaterial, m.ID, models.AuditActionDelete,
			"material "+m.ColorName+" deactivated", toMaterialResponse(m), nil)
		return c.JSON(fiber.Map{"message": "material deactivated"})
	}
}
