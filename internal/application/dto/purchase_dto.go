package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePurchaseInvoiceRequest body para POST /api/purchase-invoices.
type CreatePurchaseInvoiceRequest struct {
	Number       string                       `json:"number" validate:"omitempty,max=30"`
	Date         time.Time                    `json:"date" validate:"required"`
	DueDate      *time.Time                   `json:"due_date"`
	SupplierID   string                       `json:"supplier_id" validate:"max=64"`
	SupplierName string                       `json:"supplier_name" validate:"required,min=1,max=200"`
	Notes        string                       `json:"notes" validate:"max=500"`
	Lines        []PurchaseInvoiceLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// PurchaseInvoiceLineRequest una línea de la factura. TaxRate nil = IVA del material.
type PurchaseInvoiceLineRequest struct {
	MaterialID string           `json:"material_id" validate:"required"`
	Quantity   decimal.Decimal  `json:"quantity"`
	UnitPrice  decimal.Decimal  `json:"unit_price"`
	TaxRate    *decimal.Decimal `json:"tax_rate"`
}

// PurchaseInvoiceResponse factura de compra con sus líneas.
type PurchaseInvoiceResponse struct {
	ID            string                        `json:"id"`
	Number        string                        `json:"number"`
	Date          time.Time                     `json:"date"`
	DueDate       *time.Time                    `json:"due_date,omitempty"`
	SupplierID    string                        `json:"supplier_id,omitempty"`
	SupplierName  string                        `json:"supplier_name"`
	NetTotal      decimal.Decimal               `json:"net_total"`
	TaxTotal      decimal.Decimal               `json:"tax_total"`
	Total         decimal.Decimal               `json:"total"`
	Status        string                        `json:"status"`
	Notes         string                        `json:"notes,omitempty"`
	Lines         []PurchaseInvoiceLineResponse `json:"lines,omitempty"`
	PaymentLinked *bool                         `json:"payment_linked,omitempty"`
	CreatedAt     time.Time                     `json:"created_at"`
}

// PurchaseInvoiceLineResponse línea con el saldo resultante del material.
type PurchaseInvoiceLineResponse struct {
	ID           string           `json:"id"`
	LineNo       int              `json:"line_no"`
	MaterialID   string           `json:"material_id"`
	MaterialCode string           `json:"material_code"`
	MaterialName string           `json:"material_name"`
	Unit         string           `json:"unit"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	TaxRate      decimal.Decimal  `json:"tax_rate"`
	NetAmount    decimal.Decimal  `json:"net_amount"`
	Amount       decimal.Decimal  `json:"amount"`
	Stock        *decimal.Decimal `json:"resulting_stock,omitempty"`
	AverageCost  *decimal.Decimal `json:"resulting_average_cost,omitempty"`
}

// PurchaseInvoiceListResponse lista paginada de facturas de compra.
type PurchaseInvoiceListResponse struct {
	Items []PurchaseInvoiceResponse `json:"items"`
	Page  PageResponse              `json:"page"`
}
