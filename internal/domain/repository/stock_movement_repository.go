package repository

import (
	"context"
	"time"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
)

// MovementFilter filtros para el historial de movimientos. Limit 0 = sin límite.
type MovementFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// StockMovementRepository define el puerto de persistencia para movimientos (solo inserción).
type StockMovementRepository interface {
	// Create inserta el movimiento y asigna ID (si falta) y Seq.
	Create(ctx context.Context, movement *entity.StockMovement) error
	// ListByMaterial devuelve movimientos ordenados por (created_at, seq) ascendente.
	ListByMaterial(ctx context.Context, materialID string, filter MovementFilter) ([]entity.StockMovement, error)
	ListByReference(ctx context.Context, referenceType, referenceID string) ([]entity.StockMovement, error)
}
