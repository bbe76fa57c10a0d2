// Package queue tareas en segundo plano sobre asynq (Redis).
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/payments"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/logger"
)

const (
	// QueueDefault cola por defecto.
	QueueDefault = "default"
	// TaskPaymentsSync sincroniza pagos pendientes de facturas de compra.
	TaskPaymentsSync = "payments:sync"
)

// PaymentsSyncPayload datos de la solicitud de sincronización.
type PaymentsSyncPayload struct {
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewPaymentsSyncTask construye la tarea.
func NewPaymentsSyncTask(payload PaymentsSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentsSync, data), nil
}

// PaymentSyncer lo que el handler necesita del servicio de pagos.
type PaymentSyncer interface {
	SyncPurchaseInvoices(ctx context.Context) (*payments.SyncResult, error)
}

// NewPaymentsSyncHandler procesa TaskPaymentsSync. Si otra sincronización está en curso
// la tarea se da por cumplida.
func NewPaymentsSyncHandler(syncer PaymentSyncer, log *logger.Logger) asynq.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload PaymentsSyncPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("payload %s: %v: %w", TaskPaymentsSync, err, asynq.SkipRetry)
		}
		res, err := syncer.SyncPurchaseInvoices(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				log.Info().Str("task", TaskPaymentsSync).Msg("sincronización ya en curso, se omite")
				return nil
			}
			return err
		}
		log.Info().
			Str("task", TaskPaymentsSync).
			Str("requested_by", payload.RequestedBy).
			Int("checked", res.Checked).
			Int("created", res.Created).
			Int("skipped", res.Skipped).
			Int("failed", res.Failed).
			Msg("sincronización de pagos terminada")
		return nil
	}
}
