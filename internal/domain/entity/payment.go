package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categorías y estados de pago.
const (
	PaymentCategorySupplier = "SUPPLIER"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Payment registro de pago pendiente a un proveedor.
// Como máximo existe uno por factura de compra (PurchaseInvoiceID único).
type Payment struct {
	ID                string
	Category          string
	PayeeID           string
	PayeeName         string
	PurchaseInvoiceID string
	Amount            decimal.Decimal
	Status            string
	DueDate           *time.Time
	DocumentNo        string
	Description       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
