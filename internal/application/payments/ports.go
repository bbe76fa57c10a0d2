package payments

import "context"

// SyncLockKey clave del bloqueo que impide dos sincronizaciones simultáneas.
const SyncLockKey = "payments:sync"

// SyncGuard bloqueo exclusivo entre procesos. Acquire devuelve domain.ErrConflict si ya está tomado.
type SyncGuard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
