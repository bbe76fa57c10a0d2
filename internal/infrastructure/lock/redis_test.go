package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLocker_ExclusivoPorClave(t *testing.T) {
	mr, client := newRedis(t)
	l := NewRedisLocker(client, 10*time.Second, 100*time.Millisecond)

	unlock, err := l.Lock(context.Background(), "material:b", "material:a")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"material:a"))
	assert.True(t, mr.Exists(keyPrefix+"material:b"))

	_, err = l.Lock(context.Background(), "material:a")
	require.ErrorIs(t, err, domain.ErrLockNotObtained)

	other, err := l.Lock(context.Background(), "material:c")
	require.NoError(t, err)
	other()

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"material:a"))
	again, err := l.Lock(context.Background(), "material:a")
	require.NoError(t, err)
	again()
}

func TestRedisLocker_FallaLiberaLasYaTomadas(t *testing.T) {
	mr, client := newRedis(t)
	l := NewRedisLocker(client, 10*time.Second, 50*time.Millisecond)

	holdB, err := l.Lock(context.Background(), "b")
	require.NoError(t, err)
	defer holdB()

	_, err = l.Lock(context.Background(), "a", "b")
	require.ErrorIs(t, err, domain.ErrLockNotObtained)
	assert.False(t, mr.Exists(keyPrefix+"a"))
}

func TestRedisGuard_ConflictoSiEstaTomado(t *testing.T) {
	mr, client := newRedis(t)
	g := NewRedisGuard(client, time.Minute)

	release, err := g.Acquire(context.Background(), "payments:sync")
	require.NoError(t, err)

	_, err = g.Acquire(context.Background(), "payments:sync")
	require.ErrorIs(t, err, domain.ErrConflict)

	release()
	release2, err := g.Acquire(context.Background(), "payments:sync")
	require.NoError(t, err)
	release2()

	// el TTL libera el guard si el proceso muere
	_, err = g.Acquire(context.Background(), "payments:sync")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = g.Acquire(context.Background(), "payments:sync")
	require.NoError(t, err)
}
