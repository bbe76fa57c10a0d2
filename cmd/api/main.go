package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/bootstrap"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/infrastructure/lock"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/infrastructure/queue"
	httpRouter "github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/interfaces/http"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/config"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name + "-api",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Str("lock", cfg.Lock.Backend).
		Int32("cost_scale", cfg.Costing.CostScale).
		Msg("iniciando aplicación")

	ctx := context.Background()
	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer stores.Close()

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = lock.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
	}

	svc, err := bootstrap.NewServices(cfg, stores, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("armar servicios")
	}

	deps := httpRouter.RouterDeps{
		Engine:     svc.Engine,
		MaterialUC: svc.MaterialUC,
		PurchaseUC: svc.PurchaseUC,
		Payments:   svc.Payments,
	}
	if cfg.Worker.SyncAsync {
		queueClient := queue.NewClient(bootstrap.AsynqRedisOpt(cfg.Redis))
		defer queueClient.Close()
		deps.SyncEnqueuer = queueClient
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventory Costing API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
