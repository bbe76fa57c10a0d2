package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

var (
	_ repository.MaterialRepository        = (*MaterialRepository)(nil)
	_ repository.StockMovementRepository   = (*StockMovementRepository)(nil)
	_ repository.PurchaseInvoiceRepository = (*PurchaseInvoiceRepository)(nil)
	_ repository.PaymentRepository         = (*PaymentRepository)(nil)
)

// MaterialRepository implementación en memoria. tx nil = autocommit.
type MaterialRepository struct {
	s  *Store
	tx *Tx
}

// NewMaterialRepository repositorio fuera de transacción.
func NewMaterialRepository(s *Store) *MaterialRepository { return &MaterialRepository{s: s} }

func (r *MaterialRepository) Create(ctx context.Context, m *entity.Material) error {
	return r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("materials.create"); err != nil {
			return err
		}
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if _, exists := t.material(m.ID); exists {
			return domain.ErrDuplicate
		}
		if err := t.reserve(r.s.materialCodes, r.s.reservedCodes, m.Code); err != nil {
			return err
		}
		t.resCodes = append(t.resCodes, m.Code)
		t.materials[m.ID] = *m
		t.created[m.ID] = true
		return nil
	})
}

func (r *MaterialRepository) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	var out *entity.Material
	err := r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("materials.get"); err != nil {
			return err
		}
		if m, ok := t.material(id); ok {
			out = &m
		}
		return nil
	})
	return out, err
}

func (r *MaterialRepository) GetForUpdate(ctx context.Context, id string) (*entity.Material, error) {
	var out *entity.Material
	err := r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("materials.get_for_update"); err != nil {
			return err
		}
		if !t.created[id] {
			if err := t.lockRow(ctx, id); err != nil {
				return err
			}
		}
		if m, ok := t.material(id); ok {
			out = &m
		}
		return nil
	})
	return out, err
}

func (r *MaterialRepository) GetByCode(ctx context.Context, code string) (*entity.Material, error) {
	var out *entity.Material
	err := r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("materials.get_by_code"); err != nil {
			return err
		}
		for _, m := range t.materials {
			if m.Code == code {
				m := m
				out = &m
				return nil
			}
		}
		r.s.mu.Lock()
		id, ok := r.s.materialCodes[code]
		r.s.mu.Unlock()
		if !ok {
			return nil
		}
		if m, ok := t.material(id); ok && m.Code == code {
			out = &m
		}
		return nil
	})
	return out, err
}

func (r *MaterialRepository) UpdateDetails(ctx context.Context, m *entity.Material) error {
	return r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("materials.update_details"); err != nil {
			return err
		}
		cur, ok := t.material(m.ID)
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Code != m.Code {
			if err := t.reserve(r.s.materialCodes, r.s.reservedCodes, m.Code); err != nil {
				return err
			}
			t.resCodes = append(t.resCodes, m.Code)
		}
		cur.Code = m.Code
		cur.Name = m.Name
		cur.Unit = m.Unit
		cur.TaxRate = m.TaxRate
		cur.Notes = m.Notes
		cur.UpdatedAt = m.UpdatedAt
		t.materials[m.ID] = cur
		return nil
	})
}

func (r *MaterialRepository) UpdateBalance(ctx context.Context, m *entity.Material) error {
	return r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("materials.update_balance"); err != nil {
			return err
		}
		cur, ok := t.material(m.ID)
		if !ok {
			return domain.ErrNotFound
		}
		cur.Stock = m.Stock
		cur.AverageCost = m.AverageCost
		cur.LastPurchasePrice = m.LastPurchasePrice
		cur.LastMovementAt = m.LastMovementAt
		cur.UpdatedAt = m.UpdatedAt
		t.materials[m.ID] = cur
		return nil
	})
}

func (r *MaterialRepository) List(ctx context.Context, search string, limit, offset int) ([]*entity.Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.s.check("materials.list"); err != nil {
		return nil, err
	}
	q := strings.ToLower(search)
	r.s.mu.Lock()
	list := make([]*entity.Material, 0, len(r.s.materials))
	for _, m := range r.s.materials {
		if q != "" && !strings.Contains(strings.ToLower(m.Code), q) && !strings.Contains(strings.ToLower(m.Name), q) {
			continue
		}
		m := m
		list = append(list, &m)
	}
	r.s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return page(list, limit, offset), nil
}

// StockMovementRepository movimientos en memoria (solo inserción).
type StockMovementRepository struct {
	s  *Store
	tx *Tx
}

// NewStockMovementRepository repositorio fuera de transacción.
func NewStockMovementRepository(s *Store) *StockMovementRepository {
	return &StockMovementRepository{s: s}
}

func (r *StockMovementRepository) Create(ctx context.Context, mv *entity.StockMovement) error {
	return r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("movements.create"); err != nil {
			return err
		}
		if mv.ID == "" {
			mv.ID = uuid.New().String()
		}
		r.s.mu.Lock()
		r.s.seq++
		mv.Seq = r.s.seq
		r.s.mu.Unlock()
		t.movements = append(t.movements, *mv)
		return nil
	})
}

func (r *StockMovementRepository) ListByMaterial(ctx context.Context, materialID string, filter repository.MovementFilter) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	err := r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("movements.list"); err != nil {
			return err
		}
		r.s.mu.Lock()
		all := append([]entity.StockMovement(nil), r.s.movements[materialID]...)
		r.s.mu.Unlock()
		for _, mv := range t.movements {
			if mv.MaterialID == materialID {
				all = append(all, mv)
			}
		}
		sortMovements(all)
		out = make([]entity.StockMovement, 0, len(all))
		for _, mv := range all {
			if filter.From != nil && mv.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && mv.CreatedAt.After(*filter.To) {
				continue
			}
			out = append(out, mv)
		}
		out = page(out, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

func (r *StockMovementRepository) ListByReference(ctx context.Context, referenceType, referenceID string) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	err := r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("movements.list_by_reference"); err != nil {
			return err
		}
		match := func(mv entity.StockMovement) bool {
			return mv.ReferenceType == referenceType && mv.ReferenceID == referenceID
		}
		r.s.mu.Lock()
		for _, movs := range r.s.movements {
			for _, mv := range movs {
				if match(mv) {
					out = append(out, mv)
				}
			}
		}
		r.s.mu.Unlock()
		for _, mv := range t.movements {
			if match(mv) {
				out = append(out, mv)
			}
		}
		sortMovements(out)
		return nil
	})
	return out, err
}

func sortMovements(movs []entity.StockMovement) {
	sort.SliceStable(movs, func(i, j int) bool {
		if !movs[i].CreatedAt.Equal(movs[j].CreatedAt) {
			return movs[i].CreatedAt.Before(movs[j].CreatedAt)
		}
		return movs[i].Seq < movs[j].Seq
	})
}

// PurchaseInvoiceRepository facturas de compra en memoria.
type PurchaseInvoiceRepository struct {
	s  *Store
	tx *Tx
}

// NewPurchaseInvoiceRepository repositorio fuera de transacción.
func NewPurchaseInvoiceRepository(s *Store) *PurchaseInvoiceRepository {
	return &PurchaseInvoiceRepository{s: s}
}

func (r *PurchaseInvoiceRepository) Create(ctx context.Context, inv *entity.PurchaseInvoice) error {
	return r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("invoices.create"); err != nil {
			return err
		}
		if inv.ID == "" {
			inv.ID = uuid.New().String()
		}
		if err := t.reserve(r.s.invoiceNumbers, r.s.reservedNumbers, inv.Number); err != nil {
			return err
		}
		t.resNums = append(t.resNums, inv.Number)
		t.invoices[inv.ID] = *inv
		return nil
	})
}

func (r *PurchaseInvoiceRepository) CreateLine(ctx context.Context, line *entity.PurchaseInvoiceLine) error {
	return r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("invoices.create_line"); err != nil {
			return err
		}
		if line.ID == "" {
			line.ID = uuid.New().String()
		}
		t.lines = append(t.lines, *line)
		return nil
	})
}

func (r *PurchaseInvoiceRepository) GetByID(ctx context.Context, id string) (*entity.PurchaseInvoice, error) {
	var out *entity.PurchaseInvoice
	err := r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("invoices.get"); err != nil {
			return err
		}
		if inv, ok := t.invoices[id]; ok {
			out = &inv
			return nil
		}
		r.s.mu.Lock()
		inv, ok := r.s.invoices[id]
		r.s.mu.Unlock()
		if ok {
			out = &inv
		}
		return nil
	})
	return out, err
}

func (r *PurchaseInvoiceRepository) GetLines(ctx context.Context, invoiceID string) ([]*entity.PurchaseInvoiceLine, error) {
	var out []*entity.PurchaseInvoiceLine
	err := r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("invoices.get_lines"); err != nil {
			return err
		}
		r.s.mu.Lock()
		all := append([]entity.PurchaseInvoiceLine(nil), r.s.lines[invoiceID]...)
		r.s.mu.Unlock()
		for _, l := range t.lines {
			if l.InvoiceID == invoiceID {
				all = append(all, l)
			}
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].LineNo < all[j].LineNo })
		for i := range all {
			out = append(out, &all[i])
		}
		return nil
	})
	return out, err
}

func (r *PurchaseInvoiceRepository) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var last string
	err := r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("invoices.last_number"); err != nil {
			return err
		}
		consider := func(n string) {
			if strings.HasPrefix(n, prefix) && (len(n) > len(last) || (len(n) == len(last) && n > last)) {
				last = n
			}
		}
		r.s.mu.Lock()
		for n := range r.s.invoiceNumbers {
			consider(n)
		}
		for n := range r.s.reservedNumbers {
			consider(n)
		}
		r.s.mu.Unlock()
		return nil
	})
	return last, err
}

func (r *PurchaseInvoiceRepository) List(ctx context.Context, limit, offset int) ([]*entity.PurchaseInvoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.s.check("invoices.list"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	list := make([]*entity.PurchaseInvoice, 0, len(r.s.invoices))
	for _, inv := range r.s.invoices {
		inv := inv
		list = append(list, &inv)
	}
	r.s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].Number > list[j].Number
	})
	return page(list, limit, offset), nil
}

func (r *PurchaseInvoiceRepository) ListAfter(ctx context.Context, after repository.InvoiceCursor, limit int) ([]*entity.PurchaseInvoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.s.check("invoices.list"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	list := make([]*entity.PurchaseInvoice, 0, len(r.s.invoices))
	for _, inv := range r.s.invoices {
		inv := inv
		if after.IsZero() || invoiceAfter(&inv, after) {
			list = append(list, &inv)
		}
	}
	r.s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return invoiceAfter(list[j], repository.CursorOf(list[i])) })
	return page(list, limit, 0), nil
}

// invoiceAfter compara (created_at, id) como lo hace la fila de Postgres.
func invoiceAfter(inv *entity.PurchaseInvoice, c repository.InvoiceCursor) bool {
	if !inv.CreatedAt.Equal(c.CreatedAt) {
		return inv.CreatedAt.After(c.CreatedAt)
	}
	return inv.ID > c.ID
}

// PaymentRepository pagos en memoria con índice único por factura.
type PaymentRepository struct {
	s  *Store
	tx *Tx
}

// NewPaymentRepository repositorio fuera de transacción.
func NewPaymentRepository(s *Store) *PaymentRepository { return &PaymentRepository{s: s} }

func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	return r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("payments.create"); err != nil {
			return err
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.PurchaseInvoiceID != "" {
			if err := t.reserve(r.s.paymentByInvoice, r.s.reservedPayments, p.PurchaseInvoiceID); err != nil {
				return err
			}
			t.resPays = append(t.resPays, p.PurchaseInvoiceID)
		}
		t.payments = append(t.payments, *p)
		return nil
	})
}

func (r *PaymentRepository) ListByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	err := r.s.do(ctx, r.tx, func(t *Tx) error {
		if err := r.s.check("payments.list_by_invoice"); err != nil {
			return err
		}
		r.s.mu.Lock()
		for _, id := range r.s.paymentOrder {
			if p := r.s.payments[id]; p.PurchaseInvoiceID == invoiceID {
				out = append(out, &p)
			}
		}
		r.s.mu.Unlock()
		for i := range t.payments {
			if t.payments[i].PurchaseInvoiceID == invoiceID {
				p := t.payments[i]
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}

func (r *PaymentRepository) List(ctx context.Context, limit, offset int) ([]*entity.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.s.check("payments.list"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	list := make([]*entity.Payment, 0, len(r.s.paymentOrder))
	for i := len(r.s.paymentOrder) - 1; i >= 0; i-- {
		p := r.s.payments[r.s.paymentOrder[i]]
		list = append(list, &p)
	}
	r.s.mu.Unlock()
	return page(list, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
