package inventory

import (
	"context"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de costeo: si fn falla no queda nada escrito.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		materialRepo repository.MaterialRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// MaterialLocker bloqueo exclusivo por material, adicional al bloqueo de fila del almacenamiento.
// Lock adquiere todas las claves en orden y devuelve la función que las libera.
type MaterialLocker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}
