package inventory

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"plastics-backend/internal/audit"
	"plastics-backend/internal/ledger"
	"plastics-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ImportRowResult reports what happened to one spreadsheet row.
type ImportRowResult struct {
	Row       int    `json:"row"`
	ColorName string `json:"color_name"`
	StockID   uint   `json:"stock_id,omitempty"`
	Action    string `json:"action"` // created, added, skipped
	Error     string `json:"error,omitempty"`
}

type ImportResponse struct {
	Created int               `json:"created"`
	Added   int               `json:"added"`
	Skipped int               `json:"skipped"`
	Rows    []ImportRowResult `json:"rows"`
}

type stockRow struct {
	line         int
	colorName    string
	bags         int
	weightPerBag decimal.Decimal
	problem      string
}

// parseStockRows reads color, bags and weight per bag from the first sheet.
// A first row whose bag column is not a number is treated as the header.
func parseStockRows(r io.Reader) ([]stockRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "could not read xlsx file: "+err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "workbook has no sheets")
	}
	cellRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "could not read sheet: "+err.Error())
	}

	var rows []stockRow
	for i, cells := range cellRows {
		if len(cells) == 0 || strings.TrimSpace(cells[0]) == "" {
			continue
		}
		row := stockRow{line: i + 1, colorName: strings.TrimSpace(cells[0])}
		if len(cells) < 3 {
			row.problem = "expected color, bags and weight per bag"
			rows = append(rows, row)
			continue
		}
		bags, err := strconv.Atoi(strings.TrimSpace(cells[1]))
		if err != nil {
			if i == 0 {
				continue
			}
			row.problem = "bags is not a whole number"
			rows = append(rows, row)
			continue
		}
		weight, err := decimal.NewFromString(strings.TrimSpace(cells[2]))
		if err != nil {
			row.problem = "weight per bag is not a number"
			rows = append(rows, row)
			continue
		}
		row.bags, row.weightPerBag = bags, weight
		rows = append(rows, row)
	}
	return rows, nil
}

// importStockRows receives each row into the material's active stock, opening one when missing.
// Rows are applied one by one; a failing row does not undo earlier ones.
func importStockRows(ctx context.Context, svc *ledger.Service, rows []stockRow) (ImportResponse, error) {
	materials, err := svc.ListMaterials(ctx, true)
	if err != nil {
		return ImportResponse{}, err
	}
	byName := make(map[string]uint, len(materials))
	for _, m := range materials {
		byName[strings.ToLower(m.ColorName)] = m.ID
	}

	stocks, err := svc.ListStocks(ctx)
	if err != nil {
		return ImportResponse{}, err
	}
	stockByMaterial := make(map[uint]uint, len(stocks))
	for _, s := range stocks {
		stockByMaterial[s.MaterialID] = s.ID
	}

	resp := ImportResponse{Rows: make([]ImportRowResult, 0, len(rows))}
	skip := func(res ImportRowResult, reason string) {
		res.Action, res.Error = "skipped", reason
		resp.Skipped++
		resp.Rows = append(resp.Rows, res)
	}

	for _, row := range rows {
		res := ImportRowResult{Row: row.line, ColorName: row.colorName}
		if row.problem != "" {
			skip(res, row.problem)
			continue
		}
		materialID, ok := byName[strings.ToLower(row.colorName)]
		if !ok {
			skip(res, fmt.Sprintf("no active material named %q", row.colorName))
			continue
		}

		var stock *models.Stock
		if stockID, ok := stockByMaterial[materialID]; ok {
			stock, err = svc.AddStock(ctx, stockID, row.bags, row.weightPerBag)
			res.Action = "added"
		} else {
			stock, err = svc.CreateStock(ctx, materialID, row.bags, row.weightPerBag)
			res.Action = "created"
		}
		if err != nil {
			skip(res, err.Error())
			continue
		}

		stockByMaterial[materialID] = stock.ID
		res.StockID = stock.ID
		if res.Action == "added" {
			resp.Added++
		} else {
			resp.Created++
		}
		resp.Rows = append(resp.Rows, res)
	}
	return resp, nil
}

// POST /api/stocks/import (admin, multipart "file")
func ImportStocksHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fmt.Errorf("open upload: %w", err)
		}
		defer file.Close()

		rows, err := parseStockRows(file)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "workbook has no stock rows")
		}

		resp, err := importStockRows(c.UserContext(), svc, rows)
		if err != nil {
			return err
		}
		for _, r := range resp.Rows {
			if r.StockID == 0 {
				continue
			}
			action := models.AuditActionUpdate
			if r.Action == "created" {
				action = models.AuditActionCreate
			}
			audit.Record(c, audit.EntityStock, r.StockID, action, "stock import: "+r.ColorName, nil, r)
		}
		return c.JSON(resp)
	}
}
