// Package lock bloqueos distribuidos sobre Redis (bsm/redislock).
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/payments"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/config"
)

const (
	keyPrefix    = "costing:lock:"
	retryBackoff = 25 * time.Millisecond
)

var (
	_ inventory.MaterialLocker = (*RedisLocker)(nil)
	_ payments.SyncGuard       = (*RedisGuard)(nil)
)

// NewRedisClient crea el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisLocker bloqueo por material compartido entre instancias de la API.
// El TTL acota cuánto queda tomado si el proceso muere; wait acota la espera.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker construye el locker sobre un cliente go-redis.
func NewRedisLocker(rdb redislock.RedisClient, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl, wait: wait}
}

// Lock adquiere las claves en orden; si alguna no se obtiene libera las anteriores.
func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = inventory.SortedUnique(keys)
	held := make([]*redislock.Lock, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			// contexto propio: liberar aunque la petición se haya cancelado
			_ = held[i].Release(context.Background())
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	for _, k := range keys {
		lk, err := l.client.Obtain(waitCtx, keyPrefix+k, l.ttl, &redislock.Options{
			RetryStrategy: redislock.LinearBackoff(retryBackoff),
		})
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", domain.ErrLockNotObtained, k)
			}
			return nil, fmt.Errorf("obtain lock %s: %w", k, err)
		}
		held = append(held, lk)
	}
	return release, nil
}

// RedisGuard bloqueo sin espera: si otro proceso lo tiene, devuelve domain.ErrConflict.
type RedisGuard struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewRedisGuard construye el guard.
func NewRedisGuard(rdb redislock.RedisClient, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: redislock.New(rdb), ttl: ttl}
}

// Acquire intenta una sola vez.
func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	lk, err := g.client.Obtain(ctx, keyPrefix+key, g.ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, fmt.Errorf("%w: %s en curso", domain.ErrConflict, key)
		}
		return nil, fmt.Errorf("%w: obtain guard %s: %w", domain.ErrStorage, key, err)
	}
	return func() { _ = lk.Release(context.Background()) }, nil
}
