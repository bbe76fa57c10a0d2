package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMaterialRequest entrada para crear un material. Code vacío = se genera desde Name.
// OpeningStock > 0 registra una entrada de apertura a OpeningCost.
type CreateMaterialRequest struct {
	Code         string           `json:"code" validate:"omitempty,max=15"`
	Name         string           `json:"name" validate:"required,min=1,max=200"`
	Unit         string           `json:"unit" validate:"required,min=1,max=20"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	Notes        string           `json:"notes" validate:"max=500"`
	OpeningStock *decimal.Decimal `json:"opening_stock"`
	OpeningCost  *decimal.Decimal `json:"opening_cost"`
}

// UpdateMaterialRequest entrada para actualizar un material (sin stock ni costo).
type UpdateMaterialRequest struct {
	Code    *string          `json:"code" validate:"omitempty,min=1,max=15"`
	Name    *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Unit    *string          `json:"unit" validate:"omitempty,min=1,max=20"`
	TaxRate *decimal.Decimal `json:"tax_rate"`
	Notes   *string          `json:"notes" validate:"omitempty,max=500"`
}

// MaterialResponse salida de un material con su saldo.
type MaterialResponse struct {
	ID                string          `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	Notes             string          `json:"notes,omitempty"`
	Stock             decimal.Decimal `json:"stock"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	LastPurchasePrice decimal.Decimal `json:"last_purchase_price"`
	LastMovementAt    *time.Time      `json:"last_movement_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// MaterialListResponse lista paginada de materiales.
type MaterialListResponse struct {
	Items []MaterialResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
