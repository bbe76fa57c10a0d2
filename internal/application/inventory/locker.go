package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
)

var _ MaterialLocker = (*LocalLocker)(nil)

// LocalLocker bloqueo por clave dentro del proceso. Claves distintas no se bloquean entre sí.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  *semaphore.Weighted
	refs int
}

// NewLocalLocker construye el locker en memoria.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

// Lock adquiere las claves en orden lexicográfico (sin deadlocks entre llamadas concurrentes).
// Respeta la cancelación de ctx mientras espera.
func (l *LocalLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = SortedUnique(keys)
	acquired := make([]string, 0, len(keys))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			l.release(acquired[i])
		}
	}
	for _, k := range keys {
		kl := l.ref(k)
		if err := kl.sem.Acquire(ctx, 1); err != nil {
			l.unref(k)
			release()
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrLockNotObtained, k, err)
		}
		acquired = append(acquired, k)
	}
	return release, nil
}

func (l *LocalLocker) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: semaphore.NewWeighted(1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.locks[key]
	if !ok {
		return
	}
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *LocalLocker) release(key string) {
	l.mu.Lock()
	kl := l.locks[key]
	l.mu.Unlock()
	if kl != nil {
		kl.sem.Release(1)
	}
	l.unref(key)
}

// SortedUnique devuelve las claves no vacías, sin repetir y ordenadas.
func SortedUnique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
