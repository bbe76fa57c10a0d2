package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

var _ repository.PurchaseInvoiceRepository = (*PurchaseInvoiceRepo)(nil)

const invoiceColumns = `id, number, date, due_date, supplier_id, supplier_name, net_total, tax_total, total, status, notes, created_at, updated_at`

const lineColumns = `id, invoice_id, line_no, material_id, material_code, material_name, unit, quantity, unit_price, tax_rate, net_amount, amount, created_at`

// PurchaseInvoiceRepo facturas de compra y sus líneas.
type PurchaseInvoiceRepo struct {
	q Querier
}

// NewPurchaseInvoiceRepository construye el adaptador. Pasar pool o tx.
func NewPurchaseInvoiceRepository(q Querier) *PurchaseInvoiceRepo {
	return &PurchaseInvoiceRepo{q: q}
}

// Create inserta la cabecera; número repetido = domain.ErrDuplicate.
func (r *PurchaseInvoiceRepo) Create(ctx context.Context, inv *entity.PurchaseInvoice) error {
	query := `
		INSERT INTO purchase_invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.Number, inv.Date, inv.DueDate, inv.SupplierID, inv.SupplierName,
		inv.NetTotal, inv.TaxTotal, inv.Total, inv.Status, inv.Notes, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert purchase invoice: %w", err)
	}
	return nil
}

// CreateLine inserta una línea de la factura.
func (r *PurchaseInvoiceRepo) CreateLine(ctx context.Context, l *entity.PurchaseInvoiceLine) error {
	query := `
		INSERT INTO purchase_invoice_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.InvoiceID, l.LineNo, l.MaterialID, l.MaterialCode, l.MaterialName, l.Unit,
		l.Quantity, l.UnitPrice, l.TaxRate, l.NetAmount, l.Amount, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert purchase invoice line: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera; (nil, nil) si no existe.
func (r *PurchaseInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseInvoice, error) {
	var inv entity.PurchaseInvoice
	err := pgxscan.Get(ctx, r.q, &inv, `SELECT `+invoiceColumns+` FROM purchase_invoices WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase invoice: %w", err)
	}
	return &inv, nil
}

// GetLines líneas en orden.
func (r *PurchaseInvoiceRepo) GetLines(ctx context.Context, invoiceID string) ([]*entity.PurchaseInvoiceLine, error) {
	var lines []*entity.PurchaseInvoiceLine
	err := pgxscan.Select(ctx, r.q, &lines,
		`SELECT `+lineColumns+` FROM purchase_invoice_lines WHERE invoice_id = $1 ORDER BY line_no`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get purchase invoice lines: %w", err)
	}
	return lines, nil
}

// LastNumberWithPrefix mayor número con el prefijo (más largo primero, luego lexicográfico).
func (r *PurchaseInvoiceRepo) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT number FROM purchase_invoices
		WHERE number LIKE $1 || '%'
		ORDER BY length(number) DESC, number DESC
		LIMIT 1`
	var number string
	if err := r.q.QueryRow(ctx, query, prefix).Scan(&number); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("last invoice number: %w", err)
	}
	return number, nil
}

// List facturas más recientes primero.
func (r *PurchaseInvoiceRepo) List(ctx context.Context, limit, offset int) ([]*entity.PurchaseInvoice, error) {
	query, args, err := paginate(
		psql.Select(invoiceColumns).From("purchase_invoices").OrderBy("created_at DESC", "number DESC"),
		limit, offset,
	).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build invoice list: %w", err)
	}
	var list []*entity.PurchaseInvoice
	if err := pgxscan.Select(ctx, r.q, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list purchase invoices: %w", err)
	}
	return list, nil
}

// ListAfter recorrido por clave, del más antiguo al más nuevo.
func (r *PurchaseInvoiceRepo) ListAfter(ctx context.Context, after repository.InvoiceCursor, limit int) ([]*entity.PurchaseInvoice, error) {
	query, args, err := buildInvoiceKeysetQuery(after, limit)
	if err != nil {
		return nil, fmt.Errorf("build invoice keyset: %w", err)
	}
	var list []*entity.PurchaseInvoice
	if err := pgxscan.Select(ctx, r.q, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list purchase invoices after: %w", err)
	}
	return list, nil
}

func buildInvoiceKeysetQuery(after repository.InvoiceCursor, limit int) (string, []any, error) {
	q := psql.Select(invoiceColumns).From("purchase_invoices").OrderBy("created_at ASC", "id ASC")
	if !after.IsZero() {
		q = q.Where(squirrel.Expr("(created_at, id) > (?, ?)", after.CreatedAt, after.ID))
	}
	return paginate(q, limit, 0).ToSql()
}
