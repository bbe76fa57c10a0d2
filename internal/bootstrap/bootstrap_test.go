package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/dto"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/config"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/logger"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Store:   config.StoreConfig{Driver: "memory"},
		Costing: config.CostingConfig{CostScale: 2},
		Lock:    config.LockConfig{Backend: "local", TTL: time.Second, Wait: time.Second},
		Worker:  config.WorkerConfig{SyncParallelism: 2},
	}
}

func TestNewServices_MemoriaConLockLocal(t *testing.T) {
	cfg := memoryConfig()
	stores, err := OpenStores(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer stores.Close()

	svc, err := NewServices(cfg, stores, nil, logger.Nop())
	require.NoError(t, err)

	m, err := svc.MaterialUC.Create(context.Background(), dto.CreateMaterialRequest{Name: "Tornillo", Unit: "ADET"})
	require.NoError(t, err)
	res, err := svc.Engine.RecordReceipt(context.Background(), inventory.ReceiptInput{
		MaterialID: m.ID, Quantity: decimal.NewFromInt(4), UnitPrice: decimal.RequireFromString("2.5"),
	})
	require.NoError(t, err)
	assert.True(t, res.AverageCost.Equal(decimal.RequireFromString("2.5")))
}

func TestNewServices_RedisActivaGuardDeSincronizacion(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := memoryConfig()
	cfg.Lock.Backend = "redis"
	stores, err := OpenStores(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)

	svc, err := NewServices(cfg, stores, rdb, logger.Nop())
	require.NoError(t, err)

	// otro proceso tiene la sincronización tomada
	require.NoError(t, mr.Set("costing:lock:payments:sync", "otro"))
	_, err = svc.Payments.SyncPurchaseInvoices(context.Background())
	require.ErrorIs(t, err, domain.ErrConflict)

	mr.Del("costing:lock:payments:sync")
	res, err := svc.Payments.SyncPurchaseInvoices(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Checked)
}

func TestNewServices_RedisSinCliente(t *testing.T) {
	cfg := memoryConfig()
	cfg.Lock.Backend = "redis"
	stores, err := OpenStores(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	_, err = NewServices(cfg, stores, nil, logger.Nop())
	assert.Error(t, err)
}

func TestOpenStores_DriverDesconocido(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Driver = "sqlite"
	_, err := OpenStores(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
