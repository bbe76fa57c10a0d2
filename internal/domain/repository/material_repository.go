package repository

import (
	"context"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
)

// MaterialRepository define el puerto de persistencia para el snapshot de materiales (DIP).
// GetByID / GetForUpdate devuelven (nil, nil) si el material no existe.
type MaterialRepository interface {
	Create(ctx context.Context, material *entity.Material) error
	GetByID(ctx context.Context, id string) (*entity.Material, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Material, error)
	GetByCode(ctx context.Context, code string) (*entity.Material, error)
	// UpdateDetails actualiza solo campos descriptivos (código, nombre, unidad, IVA, notas).
	UpdateDetails(ctx context.Context, material *entity.Material) error
	// UpdateBalance actualiza stock y costo; solo lo invoca el motor de costeo.
	UpdateBalance(ctx context.Context, material *entity.Material) error
	List(ctx context.Context, search string, limit, offset int) ([]*entity.Material, error)
}
