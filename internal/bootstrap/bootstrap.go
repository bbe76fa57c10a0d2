// Package bootstrap arma las dependencias compartidas por la API y el worker.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/payments"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/purchasing"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/infrastructure/lock"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/infrastructure/memory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/infrastructure/postgres"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/config"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/logger"
)

// syncGuardTTL tope de una sincronización de pagos si el proceso muere a mitad.
const syncGuardTTL = 10 * time.Minute

// txRunner lo que ambos almacenamientos ofrecen para transacciones.
type txRunner interface {
	inventory.TxRunner
	purchasing.PurchaseTxRunner
}

// Stores repositorios sobre el almacenamiento elegido en STORE_DRIVER.
type Stores struct {
	TxRunner  txRunner
	Materials repository.MaterialRepository
	Movements repository.StockMovementRepository
	Invoices  repository.PurchaseInvoiceRepository
	Payments  repository.PaymentRepository
	close     func()
}

// Close libera el pool (no-op en memoria).
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores abre Postgres (aplicando el esquema si DB_AUTO_MIGRATE) o crea el almacenamiento en memoria.
func OpenStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Stores, error) {
	switch cfg.Store.Driver {
	case "memory":
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
		return memoryStores(memory.NewStore()), nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			log.Info().Msg("esquema aplicado")
		}
		return &Stores{
			TxRunner:  postgres.NewTxRunner(pool, cfg.DB.StatementTimeout),
			Materials: postgres.NewMaterialRepository(pool),
			Movements: postgres.NewStockMovementRepository(pool),
			Invoices:  postgres.NewPurchaseInvoiceRepository(pool),
			Payments:  postgres.NewPaymentRepository(pool),
			close:     pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("STORE_DRIVER no soportado: %q", cfg.Store.Driver)
}

func memoryStores(s *memory.Store) *Stores {
	return &Stores{
		TxRunner:  memory.NewTxRunner(s),
		Materials: memory.NewMaterialRepository(s),
		Movements: memory.NewStockMovementRepository(s),
		Invoices:  memory.NewPurchaseInvoiceRepository(s),
		Payments:  memory.NewPaymentRepository(s),
	}
}

// Services casos de uso listos para exponer.
type Services struct {
	Engine     *inventory.CostingEngine
	MaterialUC *inventory.MaterialUseCase
	PurchaseUC *purchasing.UseCase
	Payments   *payments.Service
}

// NewServices arma los casos de uso. rdb puede ser nil cuando no hay Redis.
func NewServices(cfg *config.Config, stores *Stores, rdb *redis.Client, log *logger.Logger) (*Services, error) {
	engineOpts := []inventory.Option{inventory.WithCostScale(cfg.Costing.CostScale)}
	switch cfg.Lock.Backend {
	case "local":
		engineOpts = append(engineOpts, inventory.WithLocker(inventory.NewLocalLocker()))
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("LOCK_BACKEND=redis sin cliente Redis")
		}
		engineOpts = append(engineOpts, inventory.WithLocker(lock.NewRedisLocker(rdb, cfg.Lock.TTL, cfg.Lock.Wait)))
	}
	engine := inventory.NewCostingEngine(stores.TxRunner, stores.Materials, stores.Movements, engineOpts...)

	payOpts := []payments.Option{
		payments.WithParallelism(cfg.Worker.SyncParallelism),
		payments.WithLogger(log),
	}
	if rdb != nil {
		payOpts = append(payOpts, payments.WithSyncGuard(lock.NewRedisGuard(rdb, syncGuardTTL)))
	}
	paySvc := payments.NewService(stores.Payments, stores.Invoices, payOpts...)

	return &Services{
		Engine:     engine,
		MaterialUC: inventory.NewMaterialUseCase(stores.TxRunner, stores.Materials, engine),
		PurchaseUC: purchasing.NewUseCase(stores.TxRunner, engine, stores.Invoices, paySvc, log),
		Payments:   paySvc,
	}, nil
}

// AsynqRedisOpt opciones de conexión de asynq a partir de la misma configuración de Redis.
func AsynqRedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
}
