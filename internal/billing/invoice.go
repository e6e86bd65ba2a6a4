package billing

import (
	"bytes"
	"fmt"
	"time"

	"plastics-backend/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

type InvoiceLine struct {
	Description string
	Quantity    string
	Rate        string
	Amount      string
}

// Invoice is what the PDF shows. Build it from a fully loaded bill.
type Invoice struct {
	Company       string
	Title         string
	BillNo        string
	PartyLabel    string
	PartyName     string
	Date          time.Time
	DueDate       time.Time
	PaymentMethod models.PaymentMethod
	Status        string
	Lines         []InvoiceLine
	Total         decimal.Decimal
	Remaining     decimal.Decimal
}

func (inv Invoice) FileName() string {
	return inv.BillNo + "_Invoice.pdf"
}

func SalesInvoice(company string, b *models.SalesBill) Invoice {
	inv := Invoice{
		Company:       company,
		Title:         "SALES INVOICE",
		BillNo:        b.BillNo,
		PartyLabel:    "Seller",
		PartyName:     b.SellerName,
		Date:          b.CreatedAt,
		DueDate:       b.DueDate,
		PaymentMethod: b.PaymentMethod,
		Status:        string(b.Status),
		Total:         b.Total,
		Remaining:     b.RemainAmount,
	}
	for _, it := range b.Items {
		inv.Lines = append(inv.Lines, InvoiceLine{
			Description: it.Stock.Material.ColorName,
			Quantity:    fmt.Sprintf("%d x %s kg", it.Bags, it.WeightPerBag.StringFixed(2)),
			Rate:        it.Price.StringFixed(2),
			Amount:      it.Amount().StringFixed(2),
		})
	}
	return inv
}

func PurchaseInvoice(company string, b *models.PurchaseBill) Invoice {
	inv := Invoice{
		Company:       company,
		Title:         "PURCHASE INVOICE",
		BillNo:        b.BillNo,
		PartyLabel:    "Buyer",
		PartyName:     b.BuyerName,
		Date:          b.CreatedAt,
		PaymentMethod: b.PaymentMethod,
		Total:         b.Total,
	}
	if b.IsPaid {
		inv.Status = "paid"
	}
	for _, it := range b.Items {
		inv.Lines = append(inv.Lines, InvoiceLine{
			Description: it.Material.ColorName,
			Quantity:    it.Quantity.StringFixed(2) + " kg",
			Rate:        it.Price.StringFixed(2),
			Amount:      it.Amount().StringFixed(2),
		})
	}
	return inv
}

// column widths on an A5 page with 10mm margins
var invoiceCols = []float64{8, 52, 34, 16, 18}

// RenderInvoice draws inv on a single A5 page (more pages if the item table overflows).
func RenderInvoice(inv Invoice) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.SetTitle(inv.Title+" "+inv.BillNo, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, inv.Company, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, inv.Title, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	meta := [][2]string{
		{"Bill No", inv.BillNo},
		{"Date", inv.Date.Format("02 Jan 2006")},
		{inv.PartyLabel, inv.PartyName},
		{"Payment", string(inv.PaymentMethod)},
	}
	if !inv.DueDate.IsZero() {
		meta = append(meta, [2]string{"Due Date", inv.DueDate.Format("02 Jan 2006")})
	}
	if inv.Status != "" {
		meta = append(meta, [2]string{"Status", inv.Status})
	}
	for _, kv := range meta {
		pdf.CellFormat(28, 5, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, kv[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	headers := []string{"#", "Material", "Quantity", "Rate", "Amount"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		align := "L"
		if i >= 3 {
			align = "R"
		}
		pdf.CellFormat(invoiceCols[i], 6, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for n, line := range inv.Lines {
		cells := []string{fmt.Sprint(n + 1), line.Description, line.Quantity, line.Rate, line.Amount}
		for i, v := range cells {
			align := "L"
			if i >= 3 {
				align = "R"
			}
			pdf.CellFormat(invoiceCols[i], 6, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	labelWidth := invoiceCols[0] + invoiceCols[1] + invoiceCols[2] + invoiceCols[3]
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(labelWidth, 7, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(invoiceCols[4], 7, inv.Total.StringFixed(2), "1", 1, "R", false, 0, "")
	if inv.Remaining.IsPositive() {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(labelWidth, 6, "Remaining", "1", 0, "R", false, 0, "")
		pdf.CellFormat(invoiceCols[4], 6, inv.Remaining.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.BillNo, err)
	}
	return buf.Bytes(), nil
}
