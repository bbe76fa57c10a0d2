package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordReceiptRequest body para POST /api/inventory/receipts (entrada manual).
type RecordReceiptRequest struct {
	MaterialID  string          `json:"material_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ReferenceID string          `json:"reference_id" validate:"max=100"`
	Notes       string          `json:"notes" validate:"max=500"`
}

// ReceiptResponse saldo resultante de una entrada.
type ReceiptResponse struct {
	MaterialID  string           `json:"material_id"`
	Stock       decimal.Decimal  `json:"stock"`
	AverageCost decimal.Decimal  `json:"average_cost"`
	Movement    MovementResponse `json:"movement"`
}

// MovementHistoryRequest filtros de GET /api/materials/:id/movements.
type MovementHistoryRequest struct {
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" validate:"min=0,max=1000"`
	Offset int    `query:"offset" validate:"min=0"`
}

// MovementResponse un movimiento del kardex.
type MovementResponse struct {
	ID                   string          `json:"id"`
	Seq                  int64           `json:"seq"`
	MaterialID           string          `json:"material_id"`
	Type                 string          `json:"type"`
	Quantity             decimal.Decimal `json:"quantity"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	TotalValue           decimal.Decimal `json:"total_value"`
	ResultingStock       decimal.Decimal `json:"resulting_stock"`
	ResultingAverageCost decimal.Decimal `json:"resulting_average_cost"`
	ReferenceType        string          `json:"reference_type"`
	ReferenceID          string          `json:"reference_id,omitempty"`
	Notes                string          `json:"notes,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// MovementListResponse historial de un material.
type MovementListResponse struct {
	MaterialID string             `json:"material_id"`
	Items      []MovementResponse `json:"items"`
	Page       PageResponse       `json:"page"`
}

// LedgerReportResponse resultado de GET /api/materials/:id/ledger.
type LedgerReportResponse struct {
	MaterialID       string          `json:"material_id"`
	Movements        int             `json:"movements"`
	Consistent       bool            `json:"consistent"`
	SnapshotStock    decimal.Decimal `json:"snapshot_stock"`
	SnapshotCost     decimal.Decimal `json:"snapshot_average_cost"`
	ReplayedStock    decimal.Decimal `json:"replayed_stock"`
	ReplayedCost     decimal.Decimal `json:"replayed_average_cost"`
	MismatchIndex    int             `json:"mismatch_index"`
	MismatchMovement string          `json:"mismatch_movement_id,omitempty"`
	Detail           string          `json:"detail,omitempty"`
}
