package purchasing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/dto"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/payments"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
	domaininv "github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/logger"
)

const (
	numberPrefix   = "AL"
	numberDigits   = 7
	numberAttempts = 3
	amountScale    = 2
)

var (
	hundred = decimal.NewFromInt(100)
	// errNumberTaken número generado tomado por otra factura concurrente; se reintenta.
	errNumberTaken = errors.New("número de factura tomado")
)

// UseCase registra facturas de compra: cada línea es una entrada de inventario costeada.
type UseCase struct {
	txRunner PurchaseTxRunner
	engine   *inventory.CostingEngine
	invoices repository.PurchaseInvoiceRepository
	payments PaymentLinker
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso. linker puede ser nil (sin vinculación de pagos).
func NewUseCase(
	txRunner PurchaseTxRunner,
	engine *inventory.CostingEngine,
	invoices repository.PurchaseInvoiceRepository,
	linker PaymentLinker,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner: txRunner,
		engine:   engine,
		invoices: invoices,
		payments: linker,
		log:      log,
		now:      time.Now,
	}
}

type lineResult struct {
	line    entity.PurchaseInvoiceLine
	receipt *inventory.ReceiptResult
}

// Create guarda la factura y aplica todas sus entradas en una sola transacción: si una línea
// falla no queda nada escrito. Luego asegura el pago pendiente; si eso falla la factura
// igual queda registrada y se informa PaymentLinked=false.
func (uc *UseCase) Create(ctx context.Context, in dto.CreatePurchaseInvoiceRequest) (*dto.PurchaseInvoiceResponse, error) {
	if err := validateRequest(in); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(in.Lines))
	for _, l := range in.Lines {
		ids = append(ids, l.MaterialID)
	}
	ids = inventory.SortedUnique(ids)

	unlock, err := uc.engine.LockMaterials(ctx, ids...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	explicit := strings.TrimSpace(in.Number)
	var (
		invoice *entity.PurchaseInvoice
		results []lineResult
	)
	for attempt := 1; ; attempt++ {
		invoice, results, err = uc.createInTx(ctx, in, ids, explicit)
		if errors.Is(err, errNumberTaken) && attempt < numberAttempts {
			continue
		}
		break
	}
	if err != nil {
		if errors.Is(err, errNumberTaken) {
			err = domain.ErrDuplicate
		}
		return nil, storageError("create purchase invoice", err)
	}

	uc.log.Info().
		Str("invoice_id", invoice.ID).
		Str("number", invoice.Number).
		Int("lines", len(results)).
		Str("total", invoice.Total.StringFixed(amountScale)).
		Msg("factura de compra registrada")

	resp := toInvoiceResponse(invoice, nil)
	for _, r := range results {
		line := toLineResponse(&r.line)
		stock, avg := r.receipt.Stock, r.receipt.AverageCost
		line.Stock, line.AverageCost = &stock, &avg
		resp.Lines = append(resp.Lines, line)
	}
	linked := uc.linkPayment(ctx, invoice)
	resp.PaymentLinked = &linked
	return resp, nil
}

func (uc *UseCase) createInTx(ctx context.Context, in dto.CreatePurchaseInvoiceRequest, ids []string, explicit string) (*entity.PurchaseInvoice, []lineResult, error) {
	var (
		invoice *entity.PurchaseInvoice
		results []lineResult
	)
	err := uc.txRunner.RunPurchase(ctx, func(
		materialRepo repository.MaterialRepository,
		movRepo repository.StockMovementRepository,
		invoiceRepo repository.PurchaseInvoiceRepository,
	) error {
		// bloquear en orden de ID antes de tocar nada
		materials := make(map[string]*entity.Material, len(ids))
		for _, id := range ids {
			m, err := materialRepo.GetForUpdate(ctx, id)
			if err != nil {
				return fmt.Errorf("lock material: %w", err)
			}
			if m == nil {
				return fmt.Errorf("material %s: %w", id, domain.ErrNotFound)
			}
			materials[id] = m
		}

		number := explicit
		if number == "" {
			var err error
			if number, err = nextNumber(ctx, invoiceRepo, in.Date); err != nil {
				return err
			}
		}

		now := uc.now().UTC()
		invoice = &entity.PurchaseInvoice{
			ID:           uuid.New().String(),
			Number:       number,
			Date:         in.Date,
			DueDate:      in.DueDate,
			SupplierID:   strings.TrimSpace(in.SupplierID),
			SupplierName: strings.TrimSpace(in.SupplierName),
			Status:       entity.PurchaseInvoiceStatusOpen,
			Notes:        in.Notes,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		lines := buildLines(invoice, in.Lines, materials, now)
		invoice.NetTotal, invoice.TaxTotal, invoice.Total = totals(lines)

		if err := invoiceRepo.Create(ctx, invoice); err != nil {
			if errors.Is(err, domain.ErrDuplicate) && explicit == "" {
				return errNumberTaken
			}
			return fmt.Errorf("insert invoice: %w", err)
		}

		results = make([]lineResult, 0, len(lines))
		for i := range lines {
			if err := invoiceRepo.CreateLine(ctx, &lines[i]); err != nil {
				return fmt.Errorf("insert line %d: %w", lines[i].LineNo, err)
			}
			res, err := uc.engine.RecordReceiptInTx(ctx, materialRepo, movRepo, inventory.ReceiptInput{
				MaterialID:    lines[i].MaterialID,
				Quantity:      lines[i].Quantity,
				UnitPrice:     lines[i].UnitPrice,
				ReferenceType: entity.ReferencePurchaseInvoice,
				ReferenceID:   invoice.ID,
				Notes:         "factura de compra " + number,
			})
			if err != nil {
				return fmt.Errorf("line %d: %w", lines[i].LineNo, err)
			}
			results = append(results, lineResult{line: lines[i], receipt: res})
		}
		return nil
	})
	return invoice, results, err
}

// linkPayment nunca hace fallar la factura ya confirmada; la falla queda en el log.
func (uc *UseCase) linkPayment(ctx context.Context, invoice *entity.PurchaseInvoice) bool {
	if uc.payments == nil {
		return false
	}
	created, err := uc.payments.EnsurePaymentForInvoice(ctx, payments.InputFromInvoice(invoice))
	if err != nil {
		uc.log.Warn().
			Err(err).
			Str("invoice_id", invoice.ID).
			Str("number", invoice.Number).
			Msg("factura registrada sin pago vinculado")
		return false
	}
	if !created {
		uc.log.Debug().Str("invoice_id", invoice.ID).Msg("la factura ya tenía pago")
	}
	return true
}

func validateRequest(in dto.CreatePurchaseInvoiceRequest) error {
	if len(in.Lines) == 0 || in.Date.IsZero() || strings.TrimSpace(in.SupplierName) == "" {
		return domain.ErrInvalidInput
	}
	for _, l := range in.Lines {
		if strings.TrimSpace(l.MaterialID) == "" {
			return domain.ErrInvalidInput
		}
		if err := domaininv.ValidateReceipt(l.Quantity, l.UnitPrice); err != nil {
			return err
		}
		if l.TaxRate != nil && l.TaxRate.IsNegative() {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

func buildLines(inv *entity.PurchaseInvoice, reqs []dto.PurchaseInvoiceLineRequest, materials map[string]*entity.Material, now time.Time) []entity.PurchaseInvoiceLine {
	lines := make([]entity.PurchaseInvoiceLine, 0, len(reqs))
	for i, r := range reqs {
		m := materials[r.MaterialID]
		rate := m.TaxRate
		if r.TaxRate != nil {
			rate = *r.TaxRate
		}
		net, gross := lineAmounts(r.Quantity, r.UnitPrice, rate)
		lines = append(lines, entity.PurchaseInvoiceLine{
			ID:           uuid.New().String(),
			InvoiceID:    inv.ID,
			LineNo:       i + 1,
			MaterialID:   m.ID,
			MaterialCode: m.Code,
			MaterialName: m.Name,
			Unit:         m.Unit,
			Quantity:     r.Quantity,
			UnitPrice:    r.UnitPrice,
			TaxRate:      rate,
			NetAmount:    net,
			Amount:       gross,
			CreatedAt:    now,
		})
	}
	return lines
}

// lineAmounts neto = cantidad × precio; bruto = neto + IVA. Ambos a 2 decimales.
func lineAmounts(qty, price, taxRate decimal.Decimal) (net, gross decimal.Decimal) {
	net = qty.Mul(price).Round(amountScale)
	vat := net.Mul(taxRate).Div(hundred).Round(amountScale)
	return net, net.Add(vat)
}

func totals(lines []entity.PurchaseInvoiceLine) (net, tax, total decimal.Decimal) {
	for _, l := range lines {
		net = net.Add(l.NetAmount)
		total = total.Add(l.Amount)
	}
	return net, total.Sub(net), total
}

// nextNumber continúa la secuencia AL<año><7 dígitos> del año de la factura.
func nextNumber(ctx context.Context, repo repository.PurchaseInvoiceRepository, date time.Time) (string, error) {
	prefix := fmt.Sprintf("%s%04d", numberPrefix, date.Year())
	last, err := repo.LastNumberWithPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("last invoice number: %w", err)
	}
	seq := 0
	if suffix := strings.TrimPrefix(last, prefix); last != "" && suffix != "" {
		if n, err := strconv.Atoi(suffix); err == nil {
			seq = n
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, numberDigits, seq+1), nil
}

// Get obtiene la factura con sus líneas.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.PurchaseInvoiceResponse, error) {
	inv, err := uc.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("get invoice", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	lines, err := uc.invoices.GetLines(ctx, id)
	if err != nil {
		return nil, storageError("get invoice lines", err)
	}
	movs, err := uc.engine.DocumentMovements(ctx, entity.ReferencePurchaseInvoice, id)
	if err != nil {
		return nil, err
	}
	resp := toInvoiceResponse(inv, lines)
	attachResultingBalances(resp.Lines, movs)
	return resp, nil
}

// attachResultingBalances asigna a cada línea el saldo que dejó su movimiento.
// Las líneas se registran en orden, así que el i-ésimo movimiento de un material corresponde
// a la i-ésima línea de ese material.
func attachResultingBalances(lines []dto.PurchaseInvoiceLineResponse, movs []entity.StockMovement) {
	byMaterial := make(map[string][]entity.StockMovement, len(movs))
	for _, mv := range movs {
		byMaterial[mv.MaterialID] = append(byMaterial[mv.MaterialID], mv)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].LineNo < lines[j].LineNo })
	for i := range lines {
		queue := byMaterial[lines[i].MaterialID]
		if len(queue) == 0 {
			continue
		}
		stock, avg := queue[0].ResultingStock, queue[0].ResultingAverageCost
		lines[i].Stock, lines[i].AverageCost = &stock, &avg
		byMaterial[lines[i].MaterialID] = queue[1:]
	}
}

// List lista facturas (más recientes primero), sin líneas.
func (uc *UseCase) List(ctx context.Context, limit, offset int) (*dto.PurchaseInvoiceListResponse, error) {
	list, err := uc.invoices.List(ctx, limit, offset)
	if err != nil {
		return nil, storageError("list invoices", err)
	}
	items := make([]dto.PurchaseInvoiceResponse, 0, len(list))
	for _, inv := range list {
		items = append(items, *toInvoiceResponse(inv, nil))
	}
	return &dto.PurchaseInvoiceListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

func toInvoiceResponse(inv *entity.PurchaseInvoice, lines []*entity.PurchaseInvoiceLine) *dto.PurchaseInvoiceResponse {
	resp := &dto.PurchaseInvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		Date:         inv.Date,
		DueDate:      inv.DueDate,
		SupplierID:   inv.SupplierID,
		SupplierName: inv.SupplierName,
		NetTotal:     inv.NetTotal,
		TaxTotal:     inv.TaxTotal,
		Total:        inv.Total,
		Status:       inv.Status,
		Notes:        inv.Notes,
		CreatedAt:    inv.CreatedAt,
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, toLineResponse(l))
	}
	return resp
}

func toLineResponse(l *entity.PurchaseInvoiceLine) dto.PurchaseInvoiceLineResponse {
	return dto.PurchaseInvoiceLineResponse{
		ID:           l.ID,
		LineNo:       l.LineNo,
		MaterialID:   l.MaterialID,
		MaterialCode: l.MaterialCode,
		MaterialName: l.MaterialName,
		Unit:         l.Unit,
		Quantity:     l.Quantity,
		UnitPrice:    l.UnitPrice,
		TaxRate:      l.TaxRate,
		NetAmount:    l.NetAmount,
		Amount:       l.Amount,
	}
}

func storageError(op string, err error) error {
	if domain.IsCallerError(err) || errors.Is(err, domain.ErrLockNotObtained) || errors.Is(err, domain.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}
