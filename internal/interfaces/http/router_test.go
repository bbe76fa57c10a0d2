package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/dto"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/payments"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/purchasing"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/infrastructure/memory"
	apphttp "github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/interfaces/http"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/logger"
)

type fakeEnqueuer struct {
	id  string
	err error
}

func (f fakeEnqueuer) EnqueuePaymentsSync(context.Context, string) (string, error) { return f.id, f.err }

func buildTestApp(t *testing.T, enqueuer apphttp.SyncEnqueuer) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	runner := memory.NewTxRunner(store)
	materials := memory.NewMaterialRepository(store)
	engine := inventory.NewCostingEngine(runner, materials, memory.NewStockMovementRepository(store),
		inventory.WithLocker(inventory.NewLocalLocker()))
	invoices := memory.NewPurchaseInvoiceRepository(store)
	svc := payments.NewService(memory.NewPaymentRepository(store), invoices)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	app.Use(apphttp.RequestLogger(logger.Nop()))
	apphttp.Router(app, apphttp.RouterDeps{
		Engine:       engine,
		MaterialUC:   inventory.NewMaterialUseCase(runner, materials, engine),
		PurchaseUC:   purchasing.NewUseCase(runner, engine, invoices, svc, logger.Nop()),
		Payments:     svc,
		SyncEnqueuer: enqueuer,
	})
	return app, store
}

func do(t *testing.T, app *fiber.App, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createMaterial(t *testing.T, app *fiber.App, name string) dto.MaterialResponse {
	t.Helper()
	var m dto.MaterialResponse
	status := do(t, app, http.MethodPost, "/api/materials", map[string]any{"name": name, "unit": "KG", "tax_rate": "18"}, &m)
	require.Equal(t, fiber.StatusCreated, status)
	return m
}

func TestReceipts_PromedioPonderado(t *testing.T) {
	app, _ := buildTestApp(t, nil)
	m := createMaterial(t, app, "Harina")

	var res dto.ReceiptResponse
	status := do(t, app, http.MethodPost, "/api/inventory/receipts",
		map[string]any{"material_id": m.ID, "quantity": "10", "unit_price": "5"}, &res)
	require.Equal(t, fiber.StatusCreated, status)
	status = do(t, app, http.MethodPost, "/api/inventory/receipts",
		map[string]any{"material_id": m.ID, "quantity": "5", "unit_price": "8"}, &res)
	require.Equal(t, fiber.StatusCreated, status)
	assert.True(t, res.Stock.Equal(decimal.NewFromInt(15)))
	assert.True(t, res.AverageCost.Equal(decimal.NewFromInt(6)))

	var got dto.MaterialResponse
	require.Equal(t, fiber.StatusOK, do(t, app, http.MethodGet, "/api/materials/"+m.ID, nil, &got))
	assert.True(t, got.AverageCost.Equal(decimal.NewFromInt(6)))
	assert.True(t, got.LastPurchasePrice.Equal(decimal.NewFromInt(8)))

	var hist dto.MovementListResponse
	require.Equal(t, fiber.StatusOK, do(t, app, http.MethodGet, "/api/materials/"+m.ID+"/movements", nil, &hist))
	require.Len(t, hist.Items, 2)
	assert.Equal(t, "MANUAL", hist.Items[0].ReferenceType)

	var report dto.LedgerReportResponse
	require.Equal(t, fiber.StatusOK, do(t, app, http.MethodGet, "/api/materials/"+m.ID+"/ledger", nil, &report))
	assert.True(t, report.Consistent)
	assert.Equal(t, 2, report.Movements)
}

func TestReceipts_ErroresDeEntrada(t *testing.T) {
	app, _ := buildTestApp(t, nil)
	m := createMaterial(t, app, "Azucar")

	var e dto.ErrorResponse
	status := do(t, app, http.MethodPost, "/api/inventory/receipts",
		map[string]any{"material_id": m.ID, "quantity": "0", "unit_price": "5"}, &e)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_QUANTITY", e.Code)

	status = do(t, app, http.MethodPost, "/api/inventory/receipts",
		map[string]any{"material_id": m.ID, "quantity": "1", "unit_price": "-1"}, &e)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_PRICE", e.Code)

	status = do(t, app, http.MethodPost, "/api/inventory/receipts",
		map[string]any{"material_id": "no-existe", "quantity": "1", "unit_price": "1"}, &e)
	assert.Equal(t, fiber.StatusNotFound, status)

	status = do(t, app, http.MethodPost, "/api/inventory/receipts", map[string]any{"quantity": "1"}, &e)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", e.Code)

	status = do(t, app, http.MethodGet, "/api/materials/"+m.ID+"/movements?from=ayer", nil, &e)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestMaterials_DuplicadoYNoEncontrado(t *testing.T) {
	app, _ := buildTestApp(t, nil)
	body := map[string]any{"code": "HAR01", "name": "Harina", "unit": "KG"}
	require.Equal(t, fiber.StatusCreated, do(t, app, http.MethodPost, "/api/materials", body, nil))

	var e dto.ErrorResponse
	assert.Equal(t, fiber.StatusConflict, do(t, app, http.MethodPost, "/api/materials", body, &e))
	assert.Equal(t, "DUPLICATE", e.Code)

	assert.Equal(t, fiber.StatusNotFound, do(t, app, http.MethodGet, "/api/materials/no-existe", nil, &e))
	assert.Equal(t, "NOT_FOUND", e.Code)

	var list dto.MaterialListResponse
	require.Equal(t, fiber.StatusOK, do(t, app, http.MethodGet, "/api/materials?search=har", nil, &list))
	assert.Len(t, list.Items, 1)
}

func TestPurchaseInvoice_CreaFacturaYPago(t *testing.T) {
	app, _ := buildTestApp(t, nil)
	m := createMaterial(t, app, "Cemento")

	var inv dto.PurchaseInvoiceResponse
	status := do(t, app, http.MethodPost, "/api/purchase-invoices", map[string]any{
		"date":          "2026-03-01T00:00:00Z",
		"supplier_name": "Proveedor SA",
		"lines": []map[string]any{
			{"material_id": m.ID, "quantity": "10", "unit_price": "4"},
		},
	}, &inv)
	require.Equal(t, fiber.StatusCreated, status)
	assert.True(t, inv.NetTotal.Equal(decimal.NewFromInt(40)))
	assert.True(t, inv.Total.Equal(decimal.RequireFromString("47.2")))
	require.NotNil(t, inv.PaymentLinked)
	assert.True(t, *inv.PaymentLinked)

	var got dto.PurchaseInvoiceResponse
	require.Equal(t, fiber.StatusOK, do(t, app, http.MethodGet, "/api/purchase-invoices/"+inv.ID, nil, &got))
	assert.Len(t, got.Lines, 1)

	var pays dto.PaymentListResponse
	require.Equal(t, fiber.StatusOK, do(t, app, http.MethodGet, "/api/payments?invoice_id="+inv.ID, nil, &pays))
	require.Len(t, pays.Items, 1)
	assert.True(t, pays.Items[0].Amount.Equal(inv.Total))

	var ensured dto.EnsurePaymentResponse
	status = do(t, app, http.MethodPost, "/api/payments/ensure",
		map[string]any{"invoice_id": inv.ID, "payee_name": "Proveedor SA", "amount": "47.2"}, &ensured)
	assert.Equal(t, fiber.StatusOK, status)
	assert.False(t, ensured.Created)

	var sync dto.SyncPaymentsResponse
	require.Equal(t, fiber.StatusOK, do(t, app, http.MethodPost, "/api/payments/sync", nil, &sync))
	assert.Equal(t, 1, sync.Checked)
	assert.Equal(t, 0, sync.Created)
	assert.Equal(t, 1, sync.Skipped)
}

func TestPurchaseInvoice_SinLineas(t *testing.T) {
	app, _ := buildTestApp(t, nil)
	var e dto.ErrorResponse
	status := do(t, app, http.MethodPost, "/api/purchase-invoices", map[string]any{
		"date": "2026-03-01T00:00:00Z", "supplier_name": "X", "lines": []any{},
	}, &e)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", e.Code)
}

func TestPaymentsSync_Encolada(t *testing.T) {
	app, _ := buildTestApp(t, fakeEnqueuer{id: "task-1"})
	var res dto.SyncPaymentsResponse
	require.Equal(t, fiber.StatusAccepted, do(t, app, http.MethodPost, "/api/payments/sync", nil, &res))
	assert.True(t, res.Queued)
	assert.Equal(t, "task-1", res.TaskID)

	app, _ = buildTestApp(t, fakeEnqueuer{err: domain.ErrConflict})
	var e dto.ErrorResponse
	assert.Equal(t, fiber.StatusConflict, do(t, app, http.MethodPost, "/api/payments/sync", nil, &e))
	assert.Equal(t, "CONFLICT", e.Code)
}

func TestStorageFailure_Responde503(t *testing.T) {
	app, store := buildTestApp(t, nil)
	m := createMaterial(t, app, "Arena")
	store.SetFault(func(op string) error {
		if op == "materials.update_balance" {
			return errors.New("disco lleno")
		}
		return nil
	})

	var e dto.ErrorResponse
	status := do(t, app, http.MethodPost, "/api/inventory/receipts",
		map[string]any{"material_id": m.ID, "quantity": "1", "unit_price": "1"}, &e)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "STORAGE_FAILURE", e.Code)
}

func TestRutaInexistente(t *testing.T) {
	app, _ := buildTestApp(t, nil)
	var e dto.ErrorResponse
	assert.Equal(t, fiber.StatusNotFound, do(t, app, http.MethodGet, "/api/nada", nil, &e))
	assert.Equal(t, "NOT_FOUND", e.Code)
}

func TestListados_Paginacion(t *testing.T) {
	app, _ := buildTestApp(t, nil)
	createMaterial(t, app, "cemento gris")
	createMaterial(t, app, "arena fina")

	var list dto.MaterialListResponse
	require.Equal(t, fiber.StatusOK, do(t, app, http.MethodGet, "/api/materials", nil, &list))
	assert.Equal(t, 20, list.Page.Limit)
	assert.Len(t, list.Items, 2)

	list = dto.MaterialListResponse{}
	require.Equal(t, fiber.StatusOK, do(t, app, http.MethodGet, "/api/materials?limit=1&offset=1", nil, &list))
	assert.Equal(t, 1, list.Page.Limit)
	assert.Equal(t, 1, list.Page.Offset)
	assert.Len(t, list.Items, 1)

	for _, path := range []string{
		"/api/materials?limit=500",
		"/api/purchase-invoices?limit=101",
		"/api/payments?limit=abc",
	} {
		var e dto.ErrorResponse
		assert.Equal(t, fiber.StatusBadRequest, do(t, app, http.MethodGet, path, nil, &e), path)
		assert.Equal(t, "VALIDATION", e.Code, path)
	}
}
