package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material es el snapshot actual de un material: stock disponible y costo promedio ponderado.
// Stock, AverageCost, LastPurchasePrice y LastMovementAt solo los escribe el motor de costeo;
// siempre equivalen a reproducir sus movimientos en orden desde 0/0.
type Material struct {
	ID                string
	Code              string
	Name              string
	Unit              string
	TaxRate           decimal.Decimal // IVA en porcentaje (descriptivo, p. ej. 18)
	Notes             string
	Stock             decimal.Decimal
	AverageCost       decimal.Decimal
	LastPurchasePrice decimal.Decimal
	LastMovementAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
