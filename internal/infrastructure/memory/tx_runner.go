package memory

import (
	"context"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

// TxRunner abre una transacción del Store y entrega repositorios atados a ella.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner { return &TxRunner{s: s} }

// Run ejecuta fn en una transacción; Commit si fn devuelve nil, Rollback en otro caso.
func (r *TxRunner) Run(ctx context.Context, fn func(
	materialRepo repository.MaterialRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	return r.run(ctx, func(tx *Tx) error {
		return fn(&MaterialRepository{s: r.s, tx: tx}, &StockMovementRepository{s: r.s, tx: tx})
	})
}

// RunPurchase como Run, agregando el repositorio de facturas de compra.
func (r *TxRunner) RunPurchase(ctx context.Context, fn func(
	materialRepo repository.MaterialRepository,
	movRepo repository.StockMovementRepository,
	invoiceRepo repository.PurchaseInvoiceRepository,
) error) error {
	return r.run(ctx, func(tx *Tx) error {
		return fn(
			&MaterialRepository{s: r.s, tx: tx},
			&StockMovementRepository{s: r.s, tx: tx},
			&PurchaseInvoiceRepository{s: r.s, tx: tx},
		)
	})
}

func (r *TxRunner) run(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := r.s.Begin(ctx)
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
