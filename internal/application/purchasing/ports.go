package purchasing

import (
	"context"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/payments"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

// PurchaseTxRunner transacción que abarca la factura completa: cabecera, líneas, movimientos y saldos.
type PurchaseTxRunner interface {
	RunPurchase(ctx context.Context, fn func(
		materialRepo repository.MaterialRepository,
		movRepo repository.StockMovementRepository,
		invoiceRepo repository.PurchaseInvoiceRepository,
	) error) error
}

// PaymentLinker crea el pago pendiente de una factura (idempotente).
type PaymentLinker interface {
	EnsurePaymentForInvoice(ctx context.Context, in payments.EnsureInput) (bool, error)
}
