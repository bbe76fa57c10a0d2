package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/logger"
)

const (
	syncUniqueTTL = 5 * time.Minute
	syncMaxRetry  = 3
)

// Client encola tareas.
type Client struct {
	client *asynq.Client
}

// NewClient construye el cliente asynq.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueuePaymentsSync encola la sincronización y devuelve el ID de la tarea.
// Una sincronización ya encolada y sin procesar devuelve domain.ErrConflict.
func (c *Client) EnqueuePaymentsSync(ctx context.Context, requestedBy string) (string, error) {
	task, err := NewPaymentsSyncTask(PaymentsSyncPayload{RequestedBy: requestedBy, RequestedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.Unique(syncUniqueTTL),
		asynq.MaxRetry(syncMaxRetry),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return "", fmt.Errorf("%w: sincronización ya encolada", domain.ErrConflict)
		}
		return "", fmt.Errorf("%w: enqueue %s: %w", domain.ErrStorage, TaskPaymentsSync, err)
	}
	return info.ID, nil
}

// Close libera el cliente.
func (c *Client) Close() error {
	return c.client.Close()
}

// TaskHandler handler adicional a registrar en el worker.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// WorkerConfig dependencias del worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Logger      *logger.Logger
	Handlers    []TaskHandler
	// SyncCron expresión cron para encolar payments:sync periódicamente (vacío = sin programar).
	SyncCron string
}

// Worker servidor asynq más el programador opcional.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// NewWorker construye el worker.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}

	var scheduler *asynq.Scheduler
	if cfg.SyncCron != "" {
		task, err := NewPaymentsSyncTask(PaymentsSyncPayload{RequestedBy: "cron"})
		if err != nil {
			return nil, err
		}
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		if _, err := scheduler.Register(cfg.SyncCron, task, asynq.Unique(syncUniqueTTL), asynq.MaxRetry(syncMaxRetry)); err != nil {
			return nil, fmt.Errorf("register cron %q: %w", cfg.SyncCron, err)
		}
	}
	return &Worker{server: srv, mux: mux, scheduler: scheduler, log: cfg.Logger}, nil
}

// Run procesa tareas hasta que se cancele ctx.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: no configurado")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	w.log.Info().Msg("worker iniciado")
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}
