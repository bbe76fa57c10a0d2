package purchasing_test

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/dto"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/payments"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/purchasing"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/infrastructure/memory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

type env struct {
	store    *memory.Store
	engine   *inventory.CostingEngine
	payments *payments.Service
	uc       *purchasing.UseCase
}

func newEnv(t *testing.T, linker purchasing.PaymentLinker, log *logger.Logger) *env {
	t.Helper()
	store := memory.NewStore()
	engine := inventory.NewCostingEngine(
		memory.NewTxRunner(store),
		memory.NewMaterialRepository(store),
		memory.NewStockMovementRepository(store),
		inventory.WithLocker(inventory.NewLocalLocker()),
	)
	svc := payments.NewService(memory.NewPaymentRepository(store), memory.NewPurchaseInvoiceRepository(store))
	if linker == nil {
		linker = svc
	}
	uc := purchasing.NewUseCase(memory.NewTxRunner(store), engine, memory.NewPurchaseInvoiceRepository(store), linker, log)
	e := &env{store: store, engine: engine, payments: svc, uc: uc}
	e.material(t, "m1", "18")
	e.material(t, "m2", "18")
	return e
}

func (e *env) material(t *testing.T, id, tax string) {
	t.Helper()
	require.NoError(t, memory.NewMaterialRepository(e.store).Create(context.Background(), &entity.Material{
		ID: id, Code: id, Name: "Material " + id, Unit: "ADET", TaxRate: d(tax),
		Stock: decimal.Zero, AverageCost: decimal.Zero, LastPurchasePrice: decimal.Zero,
	}))
}

func (e *env) snapshot(t *testing.T, id string) *entity.Material {
	t.Helper()
	m, err := e.engine.GetSnapshot(context.Background(), id)
	require.NoError(t, err)
	return m
}

func request(lines ...dto.PurchaseInvoiceLineRequest) dto.CreatePurchaseInvoiceRequest {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return dto.CreatePurchaseInvoiceRequest{
		Date:         time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		DueDate:      &due,
		SupplierID:   "sup-1",
		SupplierName: "Demir Ltd",
		Lines:        lines,
	}
}

func TestCreate_AplicaLineasTotalesYPago(t *testing.T) {
	e := newEnv(t, nil, nil)
	ctx := context.Background()

	resp, err := e.uc.Create(ctx, request(
		dto.PurchaseInvoiceLineRequest{MaterialID: "m1", Quantity: d("10"), UnitPrice: d("5"), TaxRate: dp("20")},
		dto.PurchaseInvoiceLineRequest{MaterialID: "m2", Quantity: d("5"), UnitPrice: d("8")},
	))
	require.NoError(t, err)

	assert.Equal(t, "AL20260000001", resp.Number)
	assert.True(t, resp.NetTotal.Equal(d("90")))
	assert.True(t, resp.TaxTotal.Equal(d("17.20")))
	assert.True(t, resp.Total.Equal(d("107.20")))
	require.Len(t, resp.Lines, 2)
	assert.True(t, resp.Lines[1].TaxRate.Equal(d("18")), "IVA del material por defecto")
	require.NotNil(t, resp.PaymentLinked)
	assert.True(t, *resp.PaymentLinked)

	assert.True(t, e.snapshot(t, "m1").Stock.Equal(d("10")))
	assert.True(t, e.snapshot(t, "m2").AverageCost.Equal(d("8")))

	movs, err := memory.NewStockMovementRepository(e.store).ListByReference(ctx, entity.ReferencePurchaseInvoice, resp.ID)
	require.NoError(t, err)
	assert.Len(t, movs, 2)

	pays, err := e.payments.ListPayments(ctx, resp.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, pays.Items, 1)
	assert.True(t, pays.Items[0].Amount.Equal(d("107.20")))
	assert.Equal(t, "AL20260000001", pays.Items[0].DocumentNo)

	second, err := e.uc.Create(ctx, request(dto.PurchaseInvoiceLineRequest{MaterialID: "m1", Quantity: d("10"), UnitPrice: d("7")}))
	require.NoError(t, err)
	assert.Equal(t, "AL20260000002", second.Number)
	assert.True(t, e.snapshot(t, "m1").AverageCost.Equal(d("6")))

	got, err := e.uc.Get(ctx, resp.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	require.NotNil(t, got.Lines[0].Stock)
	assert.True(t, got.Lines[0].Stock.Equal(d("10")), "saldo que dejó la línea, no el actual")
	assert.True(t, got.Lines[1].AverageCost.Equal(d("8")))

	list, err := e.uc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
}

func TestCreate_LineaPosteriorFallaRevierteTodo(t *testing.T) {
	e := newEnv(t, nil, nil)
	ctx := context.Background()

	_, err := e.uc.Create(ctx, request(
		dto.PurchaseInvoiceLineRequest{MaterialID: "m1", Quantity: d("10"), UnitPrice: d("5")},
		dto.PurchaseInvoiceLineRequest{MaterialID: "nope", Quantity: d("1"), UnitPrice: d("1")},
	))
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, e.snapshot(t, "m1").Stock.IsZero())

	var calls atomic.Int32
	e.store.SetFault(func(op string) error {
		if op == "movements.create" && calls.Add(1) == 2 {
			return errors.New("conexión perdida")
		}
		return nil
	})
	_, err = e.uc.Create(ctx, request(
		dto.PurchaseInvoiceLineRequest{MaterialID: "m1", Quantity: d("10"), UnitPrice: d("5")},
		dto.PurchaseInvoiceLineRequest{MaterialID: "m2", Quantity: d("1"), UnitPrice: d("1")},
	))
	require.ErrorIs(t, err, domain.ErrStorage)
	e.store.SetFault(nil)

	assert.True(t, e.snapshot(t, "m1").Stock.IsZero())
	assert.True(t, e.snapshot(t, "m2").Stock.IsZero())
	movs, err := e.engine.GetMovementHistory(ctx, "m1", repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movs)
	list, err := e.uc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	pays, err := e.payments.ListPayments(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, pays.Items)
}

type failingLinker struct{}

func (failingLinker) EnsurePaymentForInvoice(context.Context, payments.EnsureInput) (bool, error) {
	return false, domain.ErrStorage
}

func TestCreate_FallaDelPagoSeRegistraComoWarn(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "warn", Output: &buf})
	e := newEnv(t, failingLinker{}, log)

	resp, err := e.uc.Create(context.Background(), request(
		dto.PurchaseInvoiceLineRequest{MaterialID: "m1", Quantity: d("2"), UnitPrice: d("3")},
	))
	require.NoError(t, err)
	require.NotNil(t, resp.PaymentLinked)
	assert.False(t, *resp.PaymentLinked)
	assert.True(t, e.snapshot(t, "m1").Stock.Equal(d("2")))

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, resp.ID)
	assert.Contains(t, out, resp.Number)
}

func TestCreate_Validaciones(t *testing.T) {
	e := newEnv(t, nil, nil)
	ctx := context.Background()

	_, err := e.uc.Create(ctx, request())
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.uc.Create(ctx, request(dto.PurchaseInvoiceLineRequest{MaterialID: "m1", Quantity: d("0"), UnitPrice: d("1")}))
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = e.uc.Create(ctx, request(dto.PurchaseInvoiceLineRequest{MaterialID: "m1", Quantity: d("1"), UnitPrice: d("-1")}))
	require.ErrorIs(t, err, domain.ErrInvalidPrice)

	req := request(dto.PurchaseInvoiceLineRequest{MaterialID: "m1", Quantity: d("1"), UnitPrice: d("1")})
	req.Number = "F-100"
	_, err = e.uc.Create(ctx, req)
	require.NoError(t, err)
	_, err = e.uc.Create(ctx, req)
	require.ErrorIs(t, err, domain.ErrDuplicate)
	assert.True(t, e.snapshot(t, "m1").Stock.Equal(d("1")))

	_, err = e.uc.Get(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_MismoMaterialEnVariasLineas(t *testing.T) {
	e := newEnv(t, nil, nil)

	resp, err := e.uc.Create(context.Background(), request(
		dto.PurchaseInvoiceLineRequest{MaterialID: "m1", Quantity: d("10"), UnitPrice: d("5")},
		dto.PurchaseInvoiceLineRequest{MaterialID: "m1", Quantity: d("5"), UnitPrice: d("8")},
	))
	require.NoError(t, err)
	require.Len(t, resp.Lines, 2)
	assert.True(t, resp.Lines[1].Stock.Equal(d("15")))
	assert.True(t, resp.Lines[1].AverageCost.Equal(d("6")))

	got, err := e.uc.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[0].Stock.Equal(d("10")))
	assert.True(t, got.Lines[1].Stock.Equal(d("15")))

	report, err := e.engine.VerifyLedger(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}
