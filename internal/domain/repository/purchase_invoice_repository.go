package repository

import (
	"context"
	"time"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
)

// PurchaseInvoiceRepository define el puerto de persistencia para facturas de compra y sus líneas.
type PurchaseInvoiceRepository interface {
	// Create devuelve domain.ErrDuplicate si el número ya existe.
	Create(ctx context.Context, invoice *entity.PurchaseInvoice) error
	CreateLine(ctx context.Context, line *entity.PurchaseInvoiceLine) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseInvoice, error)
	GetLines(ctx context.Context, invoiceID string) ([]*entity.PurchaseInvoiceLine, error)
	// LastNumberWithPrefix último número emitido con el prefijo dado ("" si no hay).
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	// List ordena por fecha de creación descendente. Limit 0 = todas.
	List(ctx context.Context, limit, offset int) ([]*entity.PurchaseInvoice, error)
	// ListAfter recorrido por clave (created_at, id) ascendente; el cursor cero empieza desde el principio.
	ListAfter(ctx context.Context, after InvoiceCursor, limit int) ([]*entity.PurchaseInvoice, error)
}

// InvoiceCursor posición en el recorrido de ListAfter.
type InvoiceCursor struct {
	CreatedAt time.Time
	ID        string
}

// IsZero indica el inicio del recorrido.
func (c InvoiceCursor) IsZero() bool { return c.ID == "" && c.CreatedAt.IsZero() }

// CursorOf posición inmediatamente posterior a inv.
func CursorOf(inv *entity.PurchaseInvoice) InvoiceCursor {
	return InvoiceCursor{CreatedAt: inv.CreatedAt, ID: inv.ID}
}
