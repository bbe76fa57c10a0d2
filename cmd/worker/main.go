package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/bootstrap"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/infrastructure/lock"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/infrastructure/queue"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/config"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name + "-worker",
	})
	if !cfg.Redis.Enabled() {
		log.Fatal().Msg("el worker requiere REDIS_ADDRESS")
	}
	if cfg.Store.Driver == "memory" {
		log.Warn().Msg("worker con STORE_DRIVER=memory: no comparte datos con la API")
	}

	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer stores.Close()

	rdb, err := lock.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer rdb.Close()

	svc, err := bootstrap.NewServices(cfg, stores, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("armar servicios")
	}

	worker, err := queue.NewWorker(queue.WorkerConfig{
		RedisOpts:   bootstrap.AsynqRedisOpt(cfg.Redis),
		Concurrency: cfg.Worker.Concurrency,
		Logger:      log,
		SyncCron:    cfg.Worker.SyncCron,
		Handlers: []queue.TaskHandler{
			{Type: queue.TaskPaymentsSync, Handler: queue.NewPaymentsSyncHandler(svc.Payments, log)},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear worker")
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado con error")
		return
	}
	log.Info().Msg("worker detenido")
}
