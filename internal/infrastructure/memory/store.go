// Package memory almacenamiento transaccional en proceso (STORE_DRIVER=memory y tests).
// Replica la semántica que el motor espera de Postgres: bloqueo de fila hasta el commit,
// índices únicos, secuencia de inserción y todo-o-nada por transacción.
package memory

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
)

// FaultFunc permite inyectar fallas por operación ("materials.update_balance", "movements.create", ...).
type FaultFunc func(op string) error

// Store estado confirmado más índices únicos y bloqueos de fila.
type Store struct {
	mu sync.Mutex

	materials     map[string]entity.Material
	materialCodes map[string]string
	movements     map[string][]entity.StockMovement
	seq           int64

	invoices       map[string]entity.PurchaseInvoice
	invoiceNumbers map[string]string
	lines          map[string][]entity.PurchaseInvoiceLine

	payments         map[string]entity.Payment
	paymentOrder     []string
	paymentByInvoice map[string]string

	// claves reservadas por transacciones abiertas
	reservedCodes    map[string]*Tx
	reservedNumbers  map[string]*Tx
	reservedPayments map[string]*Tx

	rowLocks map[string]*semaphore.Weighted
	fault    FaultFunc
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		materials:        make(map[string]entity.Material),
		materialCodes:    make(map[string]string),
		movements:        make(map[string][]entity.StockMovement),
		invoices:         make(map[string]entity.PurchaseInvoice),
		invoiceNumbers:   make(map[string]string),
		lines:            make(map[string][]entity.PurchaseInvoiceLine),
		payments:         make(map[string]entity.Payment),
		paymentByInvoice: make(map[string]string),
		reservedCodes:    make(map[string]*Tx),
		reservedNumbers:  make(map[string]*Tx),
		reservedPayments: make(map[string]*Tx),
		rowLocks:         make(map[string]*semaphore.Weighted),
	}
}

// SetFault instala (o quita, con nil) el inyector de fallas.
func (s *Store) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

func (s *Store) check(op string) error {
	s.mu.Lock()
	f := s.fault
	s.mu.Unlock()
	if f == nil {
		return nil
	}
	if err := f(op); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Tx escrituras pendientes de una transacción. No es segura para uso concurrente.
type Tx struct {
	s      *Store
	ctx    context.Context
	locks  map[string]*semaphore.Weighted
	closed bool

	materials map[string]entity.Material
	created   map[string]bool
	codes     map[string]string
	movements []entity.StockMovement
	invoices  map[string]entity.PurchaseInvoice
	lines     []entity.PurchaseInvoiceLine
	payments  []entity.Payment
	resCodes  []string
	resNums   []string
	resPays   []string
}

// Begin abre una transacción.
func (s *Store) Begin(ctx context.Context) *Tx {
	return &Tx{
		s:         s,
		ctx:       ctx,
		locks:     make(map[string]*semaphore.Weighted),
		materials: make(map[string]entity.Material),
		created:   make(map[string]bool),
		codes:     make(map[string]string),
		invoices:  make(map[string]entity.PurchaseInvoice),
	}
}

// lockRow bloquea la fila del material hasta Commit/Rollback. Reentrante dentro de la misma tx.
func (t *Tx) lockRow(ctx context.Context, id string) error {
	if _, held := t.locks[id]; held {
		return nil
	}
	t.s.mu.Lock()
	sem, ok := t.s.rowLocks[id]
	if !ok {
		sem = semaphore.NewWeighted(1)
		t.s.rowLocks[id] = sem
	}
	t.s.mu.Unlock()
	if err := sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("lock row %s: %w", id, err)
	}
	t.locks[id] = sem
	return nil
}

func (t *Tx) material(id string) (entity.Material, bool) {
	if m, ok := t.materials[id]; ok {
		return m, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	m, ok := t.s.materials[id]
	return m, ok
}

// reserve toma una clave única; ErrDuplicate si ya está confirmada o reservada por otra tx.
func (t *Tx) reserve(committed map[string]string, reserved map[string]*Tx, key string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := committed[key]; ok {
		return domain.ErrDuplicate
	}
	if owner, ok := reserved[key]; ok && owner != t {
		return domain.ErrDuplicate
	}
	reserved[key] = t
	return nil
}

// Commit aplica todas las escrituras de forma atómica y libera los bloqueos.
func (t *Tx) Commit() error {
	if t.closed {
		return fmt.Errorf("memory tx: already closed")
	}
	if err := t.ctx.Err(); err != nil {
		t.Rollback()
		return fmt.Errorf("commit: %w", err)
	}
	if err := t.s.check("tx.commit"); err != nil {
		t.Rollback()
		return err
	}
	s := t.s
	s.mu.Lock()
	for id, m := range t.materials {
		if old, ok := s.materials[id]; ok && old.Code != m.Code {
			delete(s.materialCodes, old.Code)
		}
		s.materials[id] = m
		s.materialCodes[m.Code] = id
	}
	for _, mv := range t.movements {
		s.movements[mv.MaterialID] = append(s.movements[mv.MaterialID], mv)
	}
	for id, inv := range t.invoices {
		s.invoices[id] = inv
		s.invoiceNumbers[inv.Number] = id
	}
	for _, l := range t.lines {
		s.lines[l.InvoiceID] = append(s.lines[l.InvoiceID], l)
	}
	for _, p := range t.payments {
		s.payments[p.ID] = p
		s.paymentOrder = append(s.paymentOrder, p.ID)
		if p.PurchaseInvoiceID != "" {
			s.paymentByInvoice[p.PurchaseInvoiceID] = p.ID
		}
	}
	t.releaseReservations()
	s.mu.Unlock()
	t.finish()
	return nil
}

// Rollback descarta las escrituras. Idempotente.
func (t *Tx) Rollback() {
	if t.closed {
		return
	}
	t.s.mu.Lock()
	t.releaseReservations()
	t.s.mu.Unlock()
	t.finish()
}

// releaseReservations requiere s.mu tomado.
func (t *Tx) releaseReservations() {
	for _, k := range t.resCodes {
		if t.s.reservedCodes[k] == t {
			delete(t.s.reservedCodes, k)
		}
	}
	for _, k := range t.resNums {
		if t.s.reservedNumbers[k] == t {
			delete(t.s.reservedNumbers, k)
		}
	}
	for _, k := range t.resPays {
		if t.s.reservedPayments[k] == t {
			delete(t.s.reservedPayments, k)
		}
	}
}

func (t *Tx) finish() {
	t.closed = true
	for id, sem := range t.locks {
		sem.Release(1)
		delete(t.locks, id)
	}
}

// do ejecuta fn en tx; sin tx abre una y confirma al terminar (autocommit).
func (s *Store) do(ctx context.Context, tx *Tx, fn func(t *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx != nil {
		return fn(tx)
	}
	t := s.Begin(ctx)
	if err := fn(t); err != nil {
		t.Rollback()
		return err
	}
	return t.Commit()
}
