package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/purchasing"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

var tracer = otel.Tracer("costing/postgres")

// Ensure TxRunner implements inventory.TxRunner and purchasing.PurchaseTxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)
var _ purchasing.PurchaseTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED + SELECT FOR UPDATE).
type TxRunner struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. statementTimeout 0 = sin límite propio.
func NewTxRunner(pool *pgxpool.Pool, statementTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, statementTimeout: statementTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	materialRepo repository.MaterialRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	return r.run(ctx, "inventory", func(tx pgx.Tx) error {
		return fn(NewMaterialRepository(tx), NewStockMovementRepository(tx))
	})
}

// RunPurchase inicia una transacción con repos de inventario y facturas de compra.
func (r *TxRunner) RunPurchase(ctx context.Context, fn func(
	materialRepo repository.MaterialRepository,
	movRepo repository.StockMovementRepository,
	invoiceRepo repository.PurchaseInvoiceRepository,
) error) error {
	return r.run(ctx, "purchase", func(tx pgx.Tx) error {
		return fn(NewMaterialRepository(tx), NewStockMovementRepository(tx), NewPurchaseInvoiceRepository(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, name string, fn func(tx pgx.Tx) error) (err error) {
	ctx, span := tracer.Start(ctx, "tx."+name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.Int64("tx.statement_timeout_ms", r.statementTimeout.Milliseconds()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// rollback con contexto propio: debe completarse aunque ctx se haya cancelado
	defer func() { _ = tx.Rollback(context.Background()) }()

	if r.statementTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", r.statementTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
