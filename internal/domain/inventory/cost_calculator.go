package inventory

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
)

// DefaultCostScale decimales del costo promedio (unidad mínima de la moneda).
const DefaultCostScale int32 = 2

// Decimales máximos que admite el almacenamiento (NUMERIC(18,4) cantidades, NUMERIC(18,6) precios y costos).
const (
	MaxQuantityScale int32 = 4
	MaxPriceScale    int32 = 6
	MaxCostScale     int32 = 6
)

// Balance saldo de un material: cantidad disponible y costo promedio ponderado.
type Balance struct {
	Stock       decimal.Decimal
	AverageCost decimal.Decimal
}

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// El resultado se redondea una sola vez a scale decimales (mitad hacia arriba).
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal, scale int32) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	// DivRound redondea desde el cociente exacto, sin pasar por DivisionPrecision.
	return num.DivRound(sum, scale)
}

// ValidateReceipt verifica las precondiciones de una entrada.
// Los decimales se limitan para que lo guardado sea exactamente lo calculado.
func ValidateReceipt(quantity, unitPrice decimal.Decimal) error {
	if !quantity.IsPositive() || fractionDigits(quantity) > MaxQuantityScale {
		return domain.ErrInvalidQuantity
	}
	if unitPrice.IsNegative() || fractionDigits(unitPrice) > MaxPriceScale {
		return domain.ErrInvalidPrice
	}
	return nil
}

// fractionDigits decimales significativos (1.2500 cuenta 2).
func fractionDigits(d decimal.Decimal) int32 {
	exp := d.Exponent()
	if exp >= 0 || d.IsZero() {
		return 0
	}
	digits := -exp
	coef := d.Coefficient()
	ten := big.NewInt(10)
	rem := new(big.Int)
	for digits > 0 {
		q, r := new(big.Int).QuoRem(coef, ten, rem)
		if r.Sign() != 0 {
			break
		}
		coef = q
		digits--
	}
	return digits
}

// ApplyReceipt calcula el saldo resultante de recibir quantity unidades a unitPrice.
func ApplyReceipt(current Balance, quantity, unitPrice decimal.Decimal, scale int32) (Balance, error) {
	if err := ValidateReceipt(quantity, unitPrice); err != nil {
		return Balance{}, err
	}
	return Balance{
		Stock:       current.Stock.Add(quantity),
		AverageCost: CostCalculator(current.Stock, current.AverageCost, quantity, unitPrice, scale),
	}, nil
}
