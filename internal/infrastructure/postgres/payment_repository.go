package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

var paymentColumns = []string{
	"id", "category", "payee_id", "payee_name", "COALESCE(purchase_invoice_id, '') AS purchase_invoice_id",
	"amount", "status", "due_date", "document_no", "description", "created_at", "updated_at",
}

// PaymentRepo pagos a proveedor. El índice único parcial sobre purchase_invoice_id
// garantiza un solo pago por factura aun con llamadas concurrentes.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx.
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create inserta el pago; si la factura ya tiene pago devuelve domain.ErrDuplicate.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (id, category, payee_id, payee_name, purchase_invoice_id, amount, status, due_date, document_no, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Category, p.PayeeID, p.PayeeName, p.PurchaseInvoiceID, p.Amount, p.Status,
		p.DueDate, p.DocumentNo, p.Description, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListByInvoiceID pagos que referencian la factura.
func (r *PaymentRepo) ListByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	query, args, err := psql.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"purchase_invoice_id": invoiceID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build payments by invoice: %w", err)
	}
	var list []*entity.Payment
	if err := pgxscan.Select(ctx, r.q, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list payments by invoice: %w", err)
	}
	return list, nil
}

// List pagos más recientes primero.
func (r *PaymentRepo) List(ctx context.Context, limit, offset int) ([]*entity.Payment, error) {
	query, args, err := buildPaymentListQuery(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("build payment list: %w", err)
	}
	var list []*entity.Payment
	if err := pgxscan.Select(ctx, r.q, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return list, nil
}

func buildPaymentListQuery(limit, offset int) (string, []any, error) {
	return paginate(
		psql.Select(paymentColumns...).From("payments").OrderBy("created_at DESC", "id DESC"),
		limit, offset,
	).ToSql()
}
