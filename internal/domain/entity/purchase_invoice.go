package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de factura de compra.
const (
	PurchaseInvoiceStatusOpen   = "OPEN"
	PurchaseInvoiceStatusClosed = "CLOSED"
)

// PurchaseInvoice cabecera de una factura de compra (alım faturası).
type PurchaseInvoice struct {
	ID           string
	Number       string // AL<año><secuencia de 7 dígitos>
	Date         time.Time
	DueDate      *time.Time
	SupplierID   string
	SupplierName string
	NetTotal     decimal.Decimal
	TaxTotal     decimal.Decimal
	Total        decimal.Decimal
	Status       string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PurchaseInvoiceLine línea de una factura de compra; cada una genera una entrada de stock.
type PurchaseInvoiceLine struct {
	ID           string
	InvoiceID    string
	LineNo       int
	MaterialID   string
	MaterialCode string
	MaterialName string
	Unit         string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	TaxRate      decimal.Decimal // porcentaje
	NetAmount    decimal.Decimal // Quantity * UnitPrice
	Amount       decimal.Decimal // NetAmount + IVA
	CreatedAt    time.Time
}
