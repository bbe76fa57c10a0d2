package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
	domaininv "github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

// CostingEngine registra entradas de inventario y mantiene el costo promedio ponderado.
// Cada entrada es atómica: un movimiento + actualización del snapshot, o nada.
type CostingEngine struct {
	txRunner     TxRunner
	materialRepo repository.MaterialRepository
	movementRepo repository.StockMovementRepository
	locker       MaterialLocker
	scale        int32
	now          func() time.Time
}

// Option configura el motor.
type Option func(*CostingEngine)

// WithLocker agrega un bloqueo por material fuera de la transacción (local o Redis).
func WithLocker(l MaterialLocker) Option {
	return func(e *CostingEngine) { e.locker = l }
}

// WithCostScale fija los decimales del costo promedio.
func WithCostScale(scale int32) Option {
	return func(e *CostingEngine) {
		if scale >= 0 && scale <= domaininv.MaxCostScale {
			e.scale = scale
		}
	}
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(e *CostingEngine) { e.now = now }
}

// NewCostingEngine construye el motor de costeo.
func NewCostingEngine(
	txRunner TxRunner,
	materialRepo repository.MaterialRepository,
	movementRepo repository.StockMovementRepository,
	opts ...Option,
) *CostingEngine {
	e := &CostingEngine{
		txRunner:     txRunner,
		materialRepo: materialRepo,
		movementRepo: movementRepo,
		scale:        domaininv.DefaultCostScale,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReceiptInput entrada de mercadería para un material.
type ReceiptInput struct {
	MaterialID    string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	ReferenceType string
	ReferenceID   string
	Notes         string
}

// ReceiptResult saldo del material luego de la entrada.
type ReceiptResult struct {
	Stock       decimal.Decimal
	AverageCost decimal.Decimal
	Movement    entity.StockMovement
}

// LedgerReport resultado de reproducir el historial de un material.
type LedgerReport struct {
	MaterialID       string
	Movements        int
	Consistent       bool
	SnapshotStock    decimal.Decimal
	SnapshotCost     decimal.Decimal
	ReplayedStock    decimal.Decimal
	ReplayedCost     decimal.Decimal
	MismatchIndex    int
	MismatchMovement string
	Detail           string
}

// CostScale decimales con que se redondea el costo promedio.
func (e *CostingEngine) CostScale() int32 { return e.scale }

// RecordReceipt valida, bloquea el material y registra la entrada en su propia transacción.
func (e *CostingEngine) RecordReceipt(ctx context.Context, in ReceiptInput) (*ReceiptResult, error) {
	if err := validateReceiptInput(in); err != nil {
		return nil, err
	}

	unlock, err := e.LockMaterials(ctx, in.MaterialID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var res *ReceiptResult
	err = e.txRunner.Run(ctx, func(materialRepo repository.MaterialRepository, movRepo repository.StockMovementRepository) error {
		r, err := e.RecordReceiptInTx(ctx, materialRepo, movRepo, in)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, storageError("record receipt", err)
	}
	return res, nil
}

// RecordReceiptInTx aplica la entrada con repositorios de una transacción ajena (no hace commit).
// El llamador es responsable del bloqueo por material (LockMaterials).
func (e *CostingEngine) RecordReceiptInTx(
	ctx context.Context,
	materialRepo repository.MaterialRepository,
	movRepo repository.StockMovementRepository,
	in ReceiptInput,
) (*ReceiptResult, error) {
	if err := validateReceiptInput(in); err != nil {
		return nil, err
	}

	material, err := materialRepo.GetForUpdate(ctx, in.MaterialID)
	if err != nil {
		return nil, fmt.Errorf("lock material: %w", err)
	}
	if material == nil {
		return nil, domain.ErrNotFound
	}

	current := domaininv.Balance{Stock: material.Stock, AverageCost: material.AverageCost}
	next, err := domaininv.ApplyReceipt(current, in.Quantity, in.UnitPrice, e.scale)
	if err != nil {
		return nil, err
	}

	createdAt := e.now().UTC()
	if material.LastMovementAt != nil && material.LastMovementAt.After(createdAt) {
		createdAt = *material.LastMovementAt
	}

	refType := in.ReferenceType
	if refType == "" {
		refType = entity.ReferenceManual
	}
	mov := entity.StockMovement{
		ID:                   uuid.New().String(),
		MaterialID:           material.ID,
		Type:                 entity.MovementTypeReceipt,
		Quantity:             in.Quantity,
		UnitPrice:            in.UnitPrice,
		TotalValue:           in.Quantity.Mul(in.UnitPrice),
		ResultingStock:       next.Stock,
		ResultingAverageCost: next.AverageCost,
		ReferenceType:        refType,
		ReferenceID:          in.ReferenceID,
		Notes:                in.Notes,
		CreatedAt:            createdAt,
	}
	if err := movRepo.Create(ctx, &mov); err != nil {
		return nil, fmt.Errorf("insert movement: %w", err)
	}

	material.Stock = next.Stock
	material.AverageCost = next.AverageCost
	material.LastPurchasePrice = in.UnitPrice
	material.LastMovementAt = &createdAt
	material.UpdatedAt = createdAt
	if err := materialRepo.UpdateBalance(ctx, material); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	return &ReceiptResult{Stock: next.Stock, AverageCost: next.AverageCost, Movement: mov}, nil
}

// LockMaterials bloquea los materiales en orden de ID. Sin locker configurado no hace nada
// y el bloqueo queda a cargo del almacenamiento (GetForUpdate).
func (e *CostingEngine) LockMaterials(ctx context.Context, materialIDs ...string) (func(), error) {
	if e.locker == nil {
		return func() {}, nil
	}
	keys := SortedUnique(materialIDs)
	for i, id := range keys {
		keys[i] = "material:" + id
	}
	unlock, err := e.locker.Lock(ctx, keys...)
	if err != nil {
		if errors.Is(err, domain.ErrLockNotObtained) {
			return nil, err
		}
		return nil, storageError("lock materials", err)
	}
	return unlock, nil
}

// GetSnapshot devuelve el material con su saldo actual.
func (e *CostingEngine) GetSnapshot(ctx context.Context, materialID string) (*entity.Material, error) {
	if strings.TrimSpace(materialID) == "" {
		return nil, domain.ErrInvalidInput
	}
	m, err := e.materialRepo.GetByID(ctx, materialID)
	if err != nil {
		return nil, storageError("get material", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// GetMovementHistory lista los movimientos del material ordenados por (created_at, seq).
func (e *CostingEngine) GetMovementHistory(ctx context.Context, materialID string, filter repository.MovementFilter) ([]entity.StockMovement, error) {
	if _, err := e.GetSnapshot(ctx, materialID); err != nil {
		return nil, err
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, domain.ErrInvalidInput
	}
	movs, err := e.movementRepo.ListByMaterial(ctx, materialID, filter)
	if err != nil {
		return nil, storageError("list movements", err)
	}
	return movs, nil
}

// DocumentMovements movimientos generados por un documento, en orden de registro.
func (e *CostingEngine) DocumentMovements(ctx context.Context, referenceType, referenceID string) ([]entity.StockMovement, error) {
	movs, err := e.movementRepo.ListByReference(ctx, referenceType, referenceID)
	if err != nil {
		return nil, storageError("list document movements", err)
	}
	return movs, nil
}

// VerifyLedger reproduce el historial completo y lo compara con el snapshot.
// Bloquea la fila mientras lee para no observar una entrada a medio aplicar.
func (e *CostingEngine) VerifyLedger(ctx context.Context, materialID string) (*LedgerReport, error) {
	if strings.TrimSpace(materialID) == "" {
		return nil, domain.ErrInvalidInput
	}
	var report *LedgerReport
	err := e.txRunner.Run(ctx, func(materialRepo repository.MaterialRepository, movRepo repository.StockMovementRepository) error {
		m, err := materialRepo.GetForUpdate(ctx, materialID)
		if err != nil {
			return fmt.Errorf("lock material: %w", err)
		}
		if m == nil {
			return domain.ErrNotFound
		}
		movs, err := movRepo.ListByMaterial(ctx, materialID, repository.MovementFilter{})
		if err != nil {
			return fmt.Errorf("list movements: %w", err)
		}
		report = buildLedgerReport(m, movs, e.scale)
		return nil
	})
	if err != nil {
		return nil, storageError("verify ledger", err)
	}
	return report, nil
}

func buildLedgerReport(m *entity.Material, movs []entity.StockMovement, scale int32) *LedgerReport {
	r := &LedgerReport{
		MaterialID:    m.ID,
		Movements:     len(movs),
		SnapshotStock: m.Stock,
		SnapshotCost:  m.AverageCost,
		MismatchIndex: -1,
	}
	bal, err := domaininv.Replay(movs, scale)
	r.ReplayedStock = bal.Stock
	r.ReplayedCost = bal.AverageCost
	if err != nil {
		var mismatch *domaininv.LedgerMismatchError
		if errors.As(err, &mismatch) {
			r.MismatchIndex = mismatch.Index
			r.MismatchMovement = mismatch.MovementID
		}
		r.Detail = err.Error()
		return r
	}
	if !bal.Stock.Equal(m.Stock) || !bal.AverageCost.Equal(m.AverageCost) {
		r.Detail = "el snapshot no coincide con el último movimiento"
		return r
	}
	r.Consistent = true
	return r
}

func validateReceiptInput(in ReceiptInput) error {
	if err := domaininv.ValidateReceipt(in.Quantity, in.UnitPrice); err != nil {
		return err
	}
	if strings.TrimSpace(in.MaterialID) == "" {
		return domain.ErrNotFound
	}
	return nil
}

// storageError deja pasar errores del llamador y de bloqueo; el resto se marca como ErrStorage.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsCallerError(err) || errors.Is(err, domain.ErrLockNotObtained) || errors.Is(err, domain.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}
