package repository

import (
	"context"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
)

// PaymentRepository define el puerto de persistencia para pagos.
type PaymentRepository interface {
	// Create devuelve domain.ErrDuplicate si ya existe un pago para la misma factura (índice único).
	Create(ctx context.Context, payment *entity.Payment) error
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.Payment, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Payment, error)
}
