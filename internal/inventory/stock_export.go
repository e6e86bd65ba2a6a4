package inventory

import (
	"bytes"
	"fmt"

	"plastics-backend/internal/ledger"
	"plastics-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const stockSheet = "Stocks"

var stockHeader = []any{"Color", "Material ID", "Stock ID", "Bags", "Weight/Bag (kg)", "Total Weight (kg)", "Available (kg)", "Updated"}

// BuildStockWorkbook writes one row per stock under a bold header.
func BuildStockWorkbook(stocks []models.Stock) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", stockSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(stockSheet, "A1", &stockHeader); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(stockSheet, "A1", "H1", bold); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(stockSheet, "A", "A", 24)
	_ = f.SetColWidth(stockSheet, "E", "H", 18)

	for i, s := range stocks {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			s.Material.ColorName,
			s.MaterialID,
			s.ID,
			s.TotalBags,
			s.WeightPerBag.InexactFloat64(),
			s.TotalWeight().InexactFloat64(),
			s.AvailableStock.InexactFloat64(),
			s.UpdatedAt.Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(stockSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

// GET /api/stocks/export
func ExportStocksHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stocks, err := svc.ListStocks(c.UserContext())
		if err != nil {
			return err
		}
		buf, err := BuildStockWorkbook(stocks)
		if err != nil {
			return fmt.Errorf("build stock workbook: %w", err)
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="stocks.xlsx"`)
		return c.Send(buf.Bytes())
	}
}
