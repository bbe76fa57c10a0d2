package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	got := inventory.CostCalculator(d("10"), d("5.00"), d("5"), d("8.00"), 2)
	assert.True(t, got.Equal(d("6.00")), "esperado 6.00, obtenido %s", got)
}

func TestCostCalculator_SinStockPrevioTomaElPrecio(t *testing.T) {
	got := inventory.CostCalculator(decimal.Zero, decimal.Zero, d("1"), d("12.34"), 2)
	assert.True(t, got.Equal(d("12.34")))
}

func TestCostCalculator_RedondeoMitadHaciaArriba(t *testing.T) {
	// (1*0 + 1*0.01) / 2 = 0.005 -> 0.01
	got := inventory.CostCalculator(d("1"), d("0"), d("1"), d("0.01"), 2)
	assert.True(t, got.Equal(d("0.01")), "obtenido %s", got)

	// (2*1 + 1*2) / 3 = 1.3333... -> 1.33
	got = inventory.CostCalculator(d("2"), d("1"), d("1"), d("2"), 2)
	assert.True(t, got.Equal(d("1.33")), "obtenido %s", got)

	// (1*1 + 2*2) / 3 = 1.6666... -> 1.67
	got = inventory.CostCalculator(d("1"), d("1"), d("2"), d("2"), 2)
	assert.True(t, got.Equal(d("1.67")), "obtenido %s", got)
}

func TestCostCalculator_EscalaConfigurable(t *testing.T) {
	got := inventory.CostCalculator(d("2"), d("1"), d("1"), d("2"), 4)
	assert.True(t, got.Equal(d("1.3333")), "obtenido %s", got)
}

func TestApplyReceipt_RechazaCantidadInvalida(t *testing.T) {
	cur := inventory.Balance{Stock: d("10"), AverageCost: d("5")}
	_, err := inventory.ApplyReceipt(cur, decimal.Zero, d("5"), 2)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = inventory.ApplyReceipt(cur, d("-1"), d("5"), 2)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestApplyReceipt_RechazaPrecioNegativo(t *testing.T) {
	cur := inventory.Balance{Stock: d("10"), AverageCost: d("5")}
	_, err := inventory.ApplyReceipt(cur, d("1"), d("-0.01"), 2)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestValidateReceipt_LimitaDecimales(t *testing.T) {
	assert.NoError(t, inventory.ValidateReceipt(d("0.0001"), d("0.000001")))
	assert.NoError(t, inventory.ValidateReceipt(d("1.25000000"), d("3.1000000000")))

	assert.ErrorIs(t, inventory.ValidateReceipt(d("0.00005"), d("1")), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, inventory.ValidateReceipt(d("1"), d("0.0000001")), domain.ErrInvalidPrice)
}

func TestApplyReceipt_PrecioCeroDiluyeElCosto(t *testing.T) {
	cur := inventory.Balance{Stock: d("10"), AverageCost: d("5")}
	got, err := inventory.ApplyReceipt(cur, d("10"), decimal.Zero, 2)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(d("20")))
	assert.True(t, got.AverageCost.Equal(d("2.50")))
}

func TestApplyReceipt_Escenario(t *testing.T) {
	bal := inventory.Balance{Stock: decimal.Zero, AverageCost: decimal.Zero}
	steps := []struct{ qty, price string }{
		{"100", "10.00"}, {"50", "12.00"}, {"25", "9.00"}, {"25", "15.00"},
	}
	for _, s := range steps {
		var err error
		bal, err = inventory.ApplyReceipt(bal, d(s.qty), d(s.price), 2)
		require.NoError(t, err)
	}
	assert.True(t, bal.Stock.Equal(d("200")))
	assert.True(t, bal.AverageCost.Equal(d("11.00")), "obtenido %s", bal.AverageCost)
}

// ──────────────────────────────────────────────────────────────────────────────
// Replay
// ──────────────────────────────────────────────────────────────────────────────

func receipt(id, qty, price, stock, cost string) entity.StockMovement {
	return entity.StockMovement{
		ID:                   id,
		Type:                 entity.MovementTypeReceipt,
		Quantity:             d(qty),
		UnitPrice:            d(price),
		TotalValue:           d(qty).Mul(d(price)),
		ResultingStock:       d(stock),
		ResultingAverageCost: d(cost),
	}
}

func TestReplay_HistorialConsistente(t *testing.T) {
	movs := []entity.StockMovement{
		receipt("m1", "10", "5.00", "10", "5.00"),
		receipt("m2", "5", "8.00", "15", "6.00"),
		receipt("m3", "1", "2", "16", "5.75"),
	}
	bal, err := inventory.Replay(movs, 2)
	require.NoError(t, err)
	assert.True(t, bal.Stock.Equal(d("16")))
	assert.True(t, bal.AverageCost.Equal(d("5.75")))
}

func TestReplay_HistorialVacio(t *testing.T) {
	bal, err := inventory.Replay(nil, 2)
	require.NoError(t, err)
	assert.True(t, bal.Stock.IsZero())
	assert.True(t, bal.AverageCost.IsZero())
}

func TestReplay_DetectaDesvio(t *testing.T) {
	movs := []entity.StockMovement{
		receipt("m1", "10", "5.00", "10", "5.00"),
		receipt("m2", "5", "8.00", "15", "6.01"),
	}
	_, err := inventory.Replay(movs, 2)
	var mismatch *inventory.LedgerMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Index)
	assert.Equal(t, "m2", mismatch.MovementID)
	assert.True(t, mismatch.Expected.AverageCost.Equal(d("6.00")))
}

func TestReplay_TipoNoSoportado(t *testing.T) {
	m := receipt("m1", "10", "5.00", "10", "5.00")
	m.Type = entity.MovementTypeIssue
	_, err := inventory.Replay([]entity.StockMovement{m}, 2)
	assert.Error(t, err)
}
