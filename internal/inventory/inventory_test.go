package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"plastics-backend/internal/apierror"
	"plastics-backend/internal/ledger"
	"plastics-backend/internal/ledger/memstore"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestApp(t *testing.T) (*fiber.App, *ledger.Service) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := ledger.NewService(memstore.New(), ledger.WithLogger(log),
		ledger.WithClock(func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }))

	app := fiber.New(fiber.Config{ErrorHandler: apierror.Handler})
	app.Get("/materials", ListMaterialsHandler(svc))
	app.Post("/materials", CreateMaterialHandler(svc))
	app.Put("/materials/:id", UpdateMaterialHandler(svc))
	app.Delete("/materials/:id", DeleteMaterialHandler(svc))
	app.Get("/stocks", ListStocksHandler(svc))
	app.Get("/stocks/export", ExportStocksHandler(svc))
	app.Post("/stocks/import", ImportStocksHandler(svc))
	app.Get("/stocks/:id", GetStockHandler(svc))
	app.Post("/stocks", CreateStockHandler(svc))
	app.Put("/stocks/:id/add", AddStockHandler(svc))
	app.Put("/stocks/:id/remove", RemoveStockHandler(svc))
	app.Delete("/stocks/:id", DeleteStockHandler(svc))
	return app, svc
}

func doJSON(t *testing.T, app *fiber.App, method, url, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func TestMaterialHandlers(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/materials", `{"color_name":"Red","base_price":"4.50"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var m MaterialResponse
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, "Red", m.ColorName)
	assert.True(t, m.IsActive)

	status, body = doJSON(t, app, http.MethodPost, "/materials", `{"color_name":"Red","base_price":"1"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, string(body), `"kind":"duplicate"`)

	status, _ = doJSON(t, app, http.MethodPost, "/materials", `{"base_price":"1"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	id := strconv.FormatUint(uint64(m.ID), 10)
	status, body = doJSON(t, app, http.MethodPut, "/materials/"+id, `{"base_price":"5.25"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, "5.25", m.BasePrice.StringFixed(2))
	assert.True(t, m.IsActive)

	status, _ = doJSON(t, app, http.MethodDelete, "/materials/"+id, "")
	require.Equal(t, fiber.StatusOK, status)

	status, body = doJSON(t, app, http.MethodGet, "/materials", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, _ = doJSON(t, app, http.MethodDelete, "/materials/"+id, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestStockHandlers(t *testing.T) {
	app, svc := newTestApp(t)
	m, err := svc.CreateMaterial(context.Background(), "Green", decimal.RequireFromString("3"))
	require.NoError(t, err)

	status, body := doJSON(t, app, http.MethodPost, "/stocks",
		`{"material_id":`+strconv.FormatUint(uint64(m.ID), 10)+`,"total_bags":4,"weight_per_bag":"25"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var s StockResponse
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, "Green", s.ColorName)
	assert.Equal(t, "100.00", s.AvailableStock.StringFixed(2))

	id := strconv.FormatUint(uint64(s.ID), 10)

	status, body = doJSON(t, app, http.MethodPut, "/stocks/"+id+"/add", `{"bags_added":2,"weight_per_bag":"25"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, 6, s.TotalBags)
	assert.Equal(t, "150.00", s.AvailableStock.StringFixed(2))

	status, body = doJSON(t, app, http.MethodPut, "/stocks/"+id+"/remove", `{"quantity":"200"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, string(body), `"kind":"insufficient_stock"`)

	status, body = doJSON(t, app, http.MethodPut, "/stocks/"+id+"/remove", `{"quantity":"40.5"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, "109.50", s.AvailableStock.StringFixed(2))

	status, _ = doJSON(t, app, http.MethodPut, "/stocks/"+id+"/remove", `{"quantity":"1.005"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodDelete, "/stocks/"+id, "")
	require.Equal(t, fiber.StatusOK, status)

	status, body = doJSON(t, app, http.MethodGet, "/stocks", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, _ = doJSON(t, app, http.MethodGet, "/stocks/999", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestStockExport(t *testing.T) {
	app, svc := newTestApp(t)
	ctx := context.Background()
	m, err := svc.CreateMaterial(ctx, "Black", decimal.RequireFromString("2"))
	require.NoError(t, err)
	_, err = svc.CreateStock(ctx, m.ID, 3, decimal.RequireFromString("12.5"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/stocks/export", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "stocks.xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(stockSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Color", rows[0][0])
	assert.Equal(t, "Black", rows[1][0])
	assert.Equal(t, "3", rows[1][3])
	assert.Equal(t, "12.5", rows[1][4])
	assert.Equal(t, "37.5", rows[1][6])
}

func uploadWorkbook(t *testing.T, app *fiber.App, rows [][]any) (int, []byte) {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	xlsx, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "stocks.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/stocks/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func TestStockImport(t *testing.T) {
	app, svc := newTestApp(t)
	ctx := context.Background()
	red, err := svc.CreateMaterial(ctx, "Red", decimal.RequireFromString("4"))
	require.NoError(t, err)
	redStock, err := svc.CreateStock(ctx, red.ID, 10, decimal.RequireFromString("10"))
	require.NoError(t, err)
	_, err = svc.CreateMaterial(ctx, "Blue", decimal.RequireFromString("4"))
	require.NoError(t, err)

	status, body := uploadWorkbook(t, app, [][]any{
		{"Color", "Bags", "Weight per bag"},
		{"red", 2, 10},
		{"Blue", 3, 25},
		{"Green", 1, 1},
		{"Red", "x", 5},
	})
	require.Equal(t, fiber.StatusOK, status, string(body))

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, 1, resp.Added)
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 2, resp.Skipped)
	require.Len(t, resp.Rows, 4)
	assert.Equal(t, 2, resp.Rows[0].Row)
	assert.Equal(t, "added", resp.Rows[0].Action)
	assert.Equal(t, "created", resp.Rows[1].Action)
	assert.Contains(t, resp.Rows[2].Error, "Green")
	assert.Equal(t, "skipped", resp.Rows[3].Action)

	got, err := svc.GetStock(ctx, redStock.ID)
	require.NoError(t, err)
	assert.Equal(t, "120.00", got.AvailableStock.StringFixed(2))

	stocks, err := svc.ListStocks(ctx)
	require.NoError(t, err)
	assert.Len(t, stocks, 2)
}

func TestStockImportRejectsNonXLSX(t *testing.T) {
	app, _ := newTestApp(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "stocks.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("Red,1,1\n"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/stocks/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
