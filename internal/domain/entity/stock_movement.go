package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeReceipt = "RECEIPT" // entrada
	MovementTypeIssue   = "ISSUE"   // salida (reservado, ningún caller lo usa aún)
)

// Tipos de referencia al documento que origina el movimiento.
const (
	ReferencePurchaseInvoice = "PURCHASE_INVOICE"
	ReferenceManual          = "MANUAL"
	ReferenceOpening         = "OPENING"
)

// StockMovement es un hecho inmutable: un cambio de stock con los saldos que produjo.
// Nunca se actualiza ni se borra.
type StockMovement struct {
	ID                   string
	Seq                  int64 // orden de inserción asignado por el almacenamiento (desempate de CreatedAt)
	MaterialID           string
	Type                 string
	Quantity             decimal.Decimal
	UnitPrice            decimal.Decimal
	TotalValue           decimal.Decimal // Quantity * UnitPrice
	ResultingStock       decimal.Decimal
	ResultingAverageCost decimal.Decimal
	ReferenceType        string
	ReferenceID          string
	Notes                string
	CreatedAt            time.Time
}
