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

const dateLayout = "2006-01-02"

type SalesBillItemRequest struct {
	StockID      uint            `json:"stock_id" validate:"required"`
	Bags         int             `json:"bags" validate:"gt=0"`
	WeightPerBag decimal.Decimal `json:"weight_per_bag"`
	Price        decimal.Decimal `json:"price"`
}

type SalesBillRequest struct {
	SellerName    string                 `json:"seller_name" validate:"required,max=100"`
	PaymentMethod models.PaymentMethod   `json:"payment_method" validate:"required,oneof=cash bank_transfer"`
	DueDate       string                 `json:"due_date" validate:"required"` // YYYY-MM-DD
	Status        models.BillStatus      `json:"status" validate:"omitempty,oneof=pending overdue completed"`
	RemainAmount  decimal.Decimal        `json:"remain_amount"`
	IsPaid        bool                   `json:"is_paid"`
	Items         []SalesBillItemRequest `json:"items" validate:"required,min=1,dive"`
}

type SalesBillItemResponse struct {
	ID           uint            `json:"id"`
	StockID      uint            `json:"stock_id"`
	MaterialID   uint            `json:"material_id"`
	ColorName    string          `json:"color_name"`
	Bags         int             `json:"bags"`
	WeightPerBag decimal.Decimal `json:"weight_per_bag"`
	TotalWeight  decimal.Decimal `json:"total_weight"`
	Price        decimal.Decimal `json:"price"`
	Amount       decimal.Decimal `json:"amount"`
}

type SalesBillResponse struct {
	ID            uint                    `json:"id"`
	BillNo        string                  `json:"bill_no"`
	SellerName    string                  `json:"seller_name"`
	Total         decimal.Decimal         `json:"total"`
	CreatedAt     time.Time               `json:"created_at"`
	PaymentMethod models.PaymentMethod    `json:"payment_method"`
	DueDate       string                  `json:"due_date"`
	Status        models.BillStatus       `json:"status"`
	RemainAmount  decimal.Decimal         `json:"remain_amount"`
	IsPaid        bool                    `json:"is_paid"`
	Items         []SalesBillItemResponse `json:"items"`
}

func (r SalesBillRequest) toInput() (ledger.SalesBillInput, error) {
	due, err := time.Parse(dateLayout, r.DueDate)
	if err != nil {
		return ledger.SalesBillInput{}, fiber.NewError(fiber.StatusBadRequest, "due_date must be YYYY-MM-DD")
	}
	in := ledger.SalesBillInput{
		SellerName:    r.SellerName,
		PaymentMethod: r.PaymentMethod,
		DueDate:       due,
		Status:        r.Status,
		RemainAmount:  r.RemainAmount,
		IsPaid:        r.IsPaid,
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, ledger.SalesItemInput{
			StockID:      it.StockID,
			Bags:         it.Bags,
			WeightPerBag: it.WeightPerBag,
			Price:        it.Price,
		})
	}
	return in, nil
}

func toSalesBillResponse(b *models.SalesBill) SalesBillResponse {
	resp := SalesBillResponse{
		ID:            b.ID,
		BillNo:        b.BillNo,
		SellerName:    b.SellerName,
		Total:         b.Total,
		CreatedAt:     b.CreatedAt,
		PaymentMethod: b.PaymentMethod,
		DueDate:       b.DueDate.Format(dateLayout),
		Status:        b.Status,
		RemainAmount:  b.RemainAmount,
		IsPaid:        b.IsPaid,
		Items:         make([]SalesBillItemResponse, 0, len(b.Items)),
	}
	for _, it := range b.Items {
		resp.Items = append(resp.Items, SalesBillItemResponse{
			ID:           it.ID,
			StockID:      it.StockID,
			MaterialID:   it.Stock.MaterialID,
			ColorName:    it.Stock.Material.ColorName,
			Bags:         it.Bags,
			WeightPerBag: it.WeightPerBag,
			TotalWeight:  it.TotalWeight(),
			Price:        it.Price,
			Amount:       it.Amount(),
		})
	}
	return resp
}

// POST /api/sales-bills
func CreateSalesBillHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SalesBillRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}
		in, err := body.toInput()
		if err != nil {
			return err
		}

		bill, err := svc.CreateSalesBill(c.UserContext(), in)
		metrics.RecordBillOperation(ledger.BillKindSales, "create", err)
		if err != nil {
			return err
		}

		resp := toSalesBillResponse(bill)
		audit.Record(c, audit.EntitySalesBill, bill.ID, models.AuditActionCreate,
			"sales bill "+bill.BillNo+" created", nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/sales-bills
func ListSalesBillsHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bills, err := svc.ListSalesBills(c.UserContext())
		if err != nil {
			return err
		}
		status := models.BillStatus(c.Query("status"))
		resp := make([]SalesBillResponse, 0, len(bills))
		for i := range bills {
			if status != "" && bills[i].Status != status {
				continue
			}
			resp = append(resp, toSalesBillResponse(&bills[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/sales-bills/:id
func GetSalesBillHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		bill, err := svc.GetSalesBill(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(toSalesBillResponse(bill))
	}
}

// PUT /api/sales-bills/:id
func UpdateSalesBillHandler(svc *ledger.Service, locker *BillLocker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body SalesBillRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}
		in, err := body.toInput()
		if err != nil {
			return err
		}

		unlock, err := locker.Lock(c.UserContext(), ledger.BillKindSales, id)
		if err != nil {
			return err
		}
		defer unlock()

		before, err := svc.GetSalesBill(c.UserContext(), id)
		if err != nil {
			return err
		}
		bill, err := svc.ModifySalesBill(c.UserContext(), id, in)
		metrics.RecordBillOperation(ledger.BillKindSales, "modify", err)
		if err != nil {
			return err
		}

		resp := toSalesBillResponse(bill)
		audit.Record(c, audit.EntitySalesBill, bill.ID, models.AuditActionUpdate,
			"sales bill "+bill.BillNo+" modified", toSalesBillResponse(before), resp)
		return c.JSON(resp)
	}
}

// DELETE /api/sales-bills/:id
func DeleteSalesBillHandler(svc *ledger.Service, locker *BillLocker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}

		unlock, err := locker.Lock(c.UserContext(), ledger.BillKindSales, id)
		if err != nil {
			return err
		}
		defer unlock()

		bill, err := svc.DeleteSalesBill(c.UserContext(), id)
		metrics.RecordBillOperation(ledger.BillKindSales, "delete", err)
		if err != nil {
			return err
		}

		audit.Record(c, audit.EntitySalesBill, bill.ID, models.AuditActionDelete,
			"sales bill "+bill.BillNo+" deleted, stock released", toSalesBillResponse(bill), nil)
		return c.JSON(fiber.Map{"message": "sales bill deleted", "bill_no": bill.BillNo})
	}
}

// GET /api/sales-bills/:id/invoice
func SalesInvoiceHandler(svc *ledger.Service, company string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := apierror.ParamID(c, "id")
		if err != nil {
			return err
		}
		bill, err := svc.GetSalesBill(c.UserContext(), id)
		if err != nil {
			return err
		}
		return sendInvoice(c, SalesInvoice(company, bill))
	}
}

func sendInvoice(c *fiber.Ctx, inv Invoice) error {
	pdf, err := RenderInvoice(inv)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+inv.FileName()+`"`)
	return c.Send(pdf)
}
