package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/payments"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/pkg/logger"
)

type fakeSyncer struct {
	calls int
	res   *payments.SyncResult
	err   error
}

func (f *fakeSyncer) SyncPurchaseInvoices(context.Context) (*payments.SyncResult, error) {
	f.calls++
	return f.res, f.err
}

func TestNewPaymentsSyncTask_TipoYPayload(t *testing.T) {
	task, err := NewPaymentsSyncTask(PaymentsSyncPayload{RequestedBy: "api"})
	require.NoError(t, err)
	assert.Equal(t, TaskPaymentsSync, task.Type())

	var p PaymentsSyncPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "api", p.RequestedBy)
}

func TestPaymentsSyncHandler_RegistraContadores(t *testing.T) {
	var buf bytes.Buffer
	log := logger.FromZerolog(zerolog.New(&buf))
	syncer := &fakeSyncer{res: &payments.SyncResult{Checked: 3, Created: 2, Skipped: 1}}
	task, err := NewPaymentsSyncTask(PaymentsSyncPayload{RequestedBy: "api"})
	require.NoError(t, err)

	require.NoError(t, NewPaymentsSyncHandler(syncer, log)(context.Background(), task))
	assert.Equal(t, 1, syncer.calls)
	assert.Contains(t, buf.String(), `"created":2`)
}

func TestPaymentsSyncHandler_ConflictoNoReintenta(t *testing.T) {
	syncer := &fakeSyncer{err: domain.ErrConflict}
	task, err := NewPaymentsSyncTask(PaymentsSyncPayload{})
	require.NoError(t, err)
	assert.NoError(t, NewPaymentsSyncHandler(syncer, nil)(context.Background(), task))
}

func TestPaymentsSyncHandler_ErrorDeAlmacenamientoSeReintenta(t *testing.T) {
	cause := errors.New("conexión perdida")
	syncer := &fakeSyncer{err: cause}
	task, err := NewPaymentsSyncTask(PaymentsSyncPayload{})
	require.NoError(t, err)

	err = NewPaymentsSyncHandler(syncer, nil)(context.Background(), task)
	require.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestPaymentsSyncHandler_PayloadInvalido(t *testing.T) {
	syncer := &fakeSyncer{}
	err := NewPaymentsSyncHandler(syncer, nil)(context.Background(), asynq.NewTask(TaskPaymentsSync, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, syncer.calls)
}
