package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnsurePaymentRequest body para POST /api/payments/ensure.
type EnsurePaymentRequest struct {
	InvoiceID  string          `json:"invoice_id" validate:"required"`
	PayeeID    string          `json:"payee_id" validate:"max=64"`
	PayeeName  string          `json:"payee_name" validate:"max=200"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    *time.Time      `json:"due_date"`
	DocumentNo string          `json:"document_no" validate:"max=30"`
}

// EnsurePaymentResponse indica si se creó el pago.
type EnsurePaymentResponse struct {
	InvoiceID string `json:"invoice_id"`
	Created   bool   `json:"created"`
}

// PaymentResponse un pago a proveedor.
type PaymentResponse struct {
	ID                string          `json:"id"`
	Category          string          `json:"category"`
	PayeeID           string          `json:"payee_id,omitempty"`
	PayeeName         string          `json:"payee_name"`
	PurchaseInvoiceID string          `json:"purchase_invoice_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
	DueDate           *time.Time      `json:"due_date,omitempty"`
	DocumentNo        string          `json:"document_no,omitempty"`
	Description       string          `json:"description"`
	CreatedAt         time.Time       `json:"created_at"`
}

// PaymentListResponse lista de pagos.
type PaymentListResponse struct {
	Items []PaymentResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// SyncPaymentsResponse resultado de la sincronización de pagos.
type SyncPaymentsResponse struct {
	Queued  bool   `json:"queued"`
	TaskID  string `json:"task_id,omitempty"`
	Checked int    `json:"checked"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}
