package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/dto"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/logger"
)

const (
	descriptionPrefix  = "Alim Faturasi: "
	syncPageSize       = 200
	defaultParallelism = 4
)

// EnsureInput datos de la factura para crear su pago pendiente.
type EnsureInput struct {
	InvoiceID  string
	PayeeID    string
	PayeeName  string
	Amount     decimal.Decimal
	DueDate    *time.Time
	DocumentNo string
}

// SyncResult contadores de una sincronización completa.
type SyncResult struct {
	Checked int
	Created int
	Skipped int
	Failed  int
}

// Service vincula facturas de compra con pagos a proveedor (un pago por factura).
type Service struct {
	repo        repository.PaymentRepository
	invoices    repository.PurchaseInvoiceRepository
	guard       SyncGuard
	log         *logger.Logger
	parallelism int
	pageSize    int
	now         func() time.Time
}

// Option configura el servicio.
type Option func(*Service)

// WithSyncGuard evita sincronizaciones superpuestas entre instancias.
func WithSyncGuard(g SyncGuard) Option { return func(s *Service) { s.guard = g } }

// WithParallelism facturas procesadas en paralelo durante la sincronización.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithSyncPageSize facturas leídas por página durante la sincronización.
func WithSyncPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLogger reemplaza el logger.
func WithLogger(l *logger.Logger) Option { return func(s *Service) { s.log = l } }

// NewService construye el servicio.
func NewService(repo repository.PaymentRepository, invoices repository.PurchaseInvoiceRepository, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		invoices:    invoices,
		log:         logger.Nop(),
		parallelism: defaultParallelism,
		pageSize:    syncPageSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsurePaymentForInvoice crea el pago pendiente de la factura si todavía no existe.
// Es idempotente: created=false si ya había uno, incluso si otra llamada concurrente ganó la carrera.
func (s *Service) EnsurePaymentForInvoice(ctx context.Context, in EnsureInput) (bool, error) {
	invoiceID := strings.TrimSpace(in.InvoiceID)
	if invoiceID == "" {
		return false, domain.ErrInvalidInput
	}
	existing, err := s.repo.ListByInvoiceID(ctx, invoiceID)
	if err != nil {
		return false, fmt.Errorf("%w: list payments: %w", domain.ErrStorage, err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	now := s.now().UTC()
	p := &entity.Payment{
		ID:                uuid.New().String(),
		Category:          entity.PaymentCategorySupplier,
		PayeeID:           in.PayeeID,
		PayeeName:         in.PayeeName,
		PurchaseInvoiceID: invoiceID,
		Amount:            in.Amount,
		Status:            entity.PaymentStatusPending,
		DueDate:           in.DueDate,
		DocumentNo:        in.DocumentNo,
		Description:       descriptionPrefix + in.DocumentNo,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("%w: create payment: %w", domain.ErrStorage, err)
	}
	s.log.Info().Str("invoice_id", invoiceID).Str("payment_id", p.ID).Msg("pago a proveedor creado")
	return true, nil
}

// InputFromInvoice arma la entrada de EnsurePaymentForInvoice a partir de la factura.
func InputFromInvoice(inv *entity.PurchaseInvoice) EnsureInput {
	return EnsureInput{
		InvoiceID:  inv.ID,
		PayeeID:    inv.SupplierID,
		PayeeName:  inv.SupplierName,
		Amount:     inv.Total,
		DueDate:    inv.DueDate,
		DocumentNo: inv.Number,
	}
}

// SyncPurchaseInvoices recorre todas las facturas y asegura un pago para cada una.
// Las fallas por factura se cuentan y se registran; solo falla si no se puede listar.
func (s *Service) SyncPurchaseInvoices(ctx context.Context) (*SyncResult, error) {
	if s.guard != nil {
		release, err := s.guard.Acquire(ctx, SyncLockKey)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var checked, created, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	// recorrido por clave del más antiguo al más nuevo: las facturas creadas durante
	// la sincronización quedan al final y no desplazan las páginas
	var cursor repository.InvoiceCursor
	for {
		batch, err := s.invoices.ListAfter(ctx, cursor, s.pageSize)
		if err != nil {
			_ = g.Wait()
			return nil, fmt.Errorf("%w: list invoices: %w", domain.ErrStorage, err)
		}
		for _, inv := range batch {
			inv := inv
			g.Go(func() error {
				checked.Add(1)
				ok, err := s.EnsurePaymentForInvoice(gctx, InputFromInvoice(inv))
				switch {
				case err != nil:
					failed.Add(1)
					s.log.Warn().Err(err).Str("invoice_id", inv.ID).Str("number", inv.Number).Msg("no se pudo sincronizar el pago")
				case ok:
					created.Add(1)
				default:
					skipped.Add(1)
				}
				return nil
			})
		}
		if len(batch) < s.pageSize {
			break
		}
		cursor = repository.CursorOf(batch[len(batch)-1])
	}
	_ = g.Wait()

	res := &SyncResult{
		Checked: int(checked.Load()),
		Created: int(created.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	s.log.Info().
		Int("checked", res.Checked).
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("sincronización de pagos terminada")
	return res, nil
}

// ListPayments lista pagos; con invoiceID filtra los de esa factura.
func (s *Service) ListPayments(ctx context.Context, invoiceID string, limit, offset int) (*dto.PaymentListResponse, error) {
	var (
		list []*entity.Payment
		err  error
	)
	if invoiceID = strings.TrimSpace(invoiceID); invoiceID != "" {
		list, err = s.repo.ListByInvoiceID(ctx, invoiceID)
	} else {
		list, err = s.repo.List(ctx, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list payments: %w", domain.ErrStorage, err)
	}
	items := make([]dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		items = append(items, ToPaymentResponse(p))
	}
	return &dto.PaymentListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

func ToPaymentResponse(p *entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:                p.ID,
		Category:          p.Category,
		PayeeID:           p.PayeeID,
		PayeeName:         p.PayeeName,
		PurchaseInvoiceID: p.PurchaseInvoiceID,
		Amount:            p.Amount,
		Status:            p.Status,
		DueDate:           p.DueDate,
		DocumentNo:        p.DocumentNo,
		Description:       p.Description,
		CreatedAt:         p.CreatedAt,
	}
}
