package billing

import (
	"time"

	"plastics-backend/internal/apierror"
	"plastics-backend/internal/audit"
	"plastics-backend/internal/ledger"
	"plastics-backend/internal/metrics"
	"plastics-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PurchaseBillItemRequest struct {
	MaterialID uint            `json:"material_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

type PurchaseBillRequest struct {
	BuyerName     string                    `json:"buyer_name" validate:"required,max=100"`
	PaymentMethod models.PaymentMethod      `json:"payment_method" validate:"required,oneof=cash credit_card bank_transfer"`
	IsPaid        bool                      `json:"is_paid"`
	Items         []PurchaseBillItemRequest `json:"items" validate:"required,min=1,dive"`
}

type PurchaseBillItemResponse struct {
	ID         uint            `json:"id"`
	MaterialID uint            `json:"material_id"`
	ColorName  string          `json:"color_name"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Amount     decimal.Decimal `json:"amount"`
}

type PurchaseBillResponse struct {
	ID            uint                       `json:"id"`
	BillNo        string                     `json:"bill_no"`
	BuyerName     string                     `json:"buyer_name"`
	Total         decimal.Decimal            `json:"total"`
	CreatedAt     time.Time                  `json:"created_at"`
	PaymentMethod models.PaymentMethod       `json:"payment_method"`
	IsPaid        bool                       `json:"is_paid"`
	Items         []PurchaseBillItemResponse `json:"items"`
}

func (r PurchaseBillRequest) toInput() ledger.PurchaseBillInput {
	in := ledger.PurchaseBillInput{
		BuyerName:     r.BuyerName,
		PaymentMethod: r.PaymentMethod,
		IsPaid:        r.IsPaid,
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, ledger.PurchaseItemInput{
			MaterialID: it.MaterialID,
			Quantity:   it.Quantity,
			Price:      it.Price,
		})
	}
	return in
}

func toPurchaseBillResponse(b *models.PurchaseBill) PurchaseBillResponse {
	resp := PurchaseBillResponse{
		ID:            b.ID,
		BillNo:        b.BillNo,
		BuyerName:     b.BuyerName,
		Total:         b.Total,
		CreatedAt:     b.CreatedAt,
		PaymentMethod: b.PaymentMethod,
		IsPaid:        b.IsPaid,
		Items:         make([]PurchaseBillItemResponse, 0, len(b.Items)),
	}
	for _, it := range b.Items {
		resp.Items = append(resp.Items, PurchaseBillItemResponse{
			ID:         it.ID,
			MaterialID: it.MaterialID,
			ColorName:  it.Material.ColorName,
			Quantity:   it.Quantity,
			Price:      it.Price,
			Amount:     it.Amount(),
		})
	}
	return resp
}

// POST /api/purchase-bills
func CreatePurchaseBillHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PurchaseBillRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}

		bill, err := svc.CreatePurchaseBill(c.UserContext(), body.toInput())
		metrics.RecordBillOperation(ledger.BillKindPurchase, "create", err)
		if err != nil {
			return err
		}

		resp := toPurchaseBillResponse(bill)
		audit.Record(c, audit.EntityPurchaseBill, bill.ID, models.AuditActionCreate,
			"purchase bill "+bill.BillNo+" created", nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/purchase-bills
func ListPurchaseBillsHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bills, err := svc.ListPurchaseBills(c.UserContext())
		if err != nil {
			return err
		}
		resp := make([]PurchaseBillResponse, 0, len(bills))
		for i := range bills {
			resp = append(resp, toPurchaseBillResponse(&bills[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/purchase-bills/:id
func GetPurchaseBillHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		bill, err := svc.GetPurchaseBill(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(toPurchaseBillResponse(bill))
	}
}

// PUT /api/purchase-bills/:id
func UpdatePurchaseBillHandler(svc *ledger.Service, locker *BillLocker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body PurchaseBillRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}

		unlock, err := locker.Lock(c.UserContext(), ledger.BillKindPurchase, id)
		if err != nil {
			return err
		}
		defer unlock()

		before, err := svc.GetPurchaseBill(c.UserContext(), id)
		if err != nil {
			return err
		}
		bill, err := svc.ModifyPurchaseBill(c.UserContext(), id, body.toInput())
		metrics.RecordBillOperation(ledger.BillKindPurchase, "modify", err)
		if err != nil {
			return err
		}

		resp := toPurchaseBillResponse(bill)
		audit.Record(c, audit.EntityPurchaseBill, bill.ID, models.AuditActionUpdate,
			"purchase bill "+bill.BillNo+" modified", toPurchaseBillResponse(before), resp)
		return c.JSON(resp)
	}
}

// DELETE /api/purchase-bills/:id
func DeletePurchaseBillHandler(svc *ledger.Service, locker *BillLocker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}

		unlock, err := locker.Lock(c.UserContext(), ledger.BillKindPurchase, id)
		if err != nil {
			return err
		}
		defer unlock()

		bill, err := svc.DeletePurchaseBill(c.UserContext(), id)
		metrics.RecordBillOperation(ledger.BillKindPurchase, "delete", err)
		if err != nil {
			return err
		}

		audit.Record(c, audit.EntityPurchaseBill, bill.ID, models.AuditActionDelete,
			"purchase bill "+bill.BillNo+" deleted", toPurchaseBillResponse(bill), nil)
		return c.JSON(fiber.Map{"message": "purchase bill deleted", "bill_no": bill.BillNo})
	}
}

// GET /api/purchase-bills/:id/invoice
func PurchaseInvoiceHandler(svc *ledger.Service, company string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		bill, err := svc.GetPurchaseBill(c.UserContext(), id)
		if err != nil {
			return err
		}
		return sendInvoice(c, PurchaseInvoice(company, bill))
	}
}
