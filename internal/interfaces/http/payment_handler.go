package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/dto"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/payments"
)

// SyncEnqueuer encola la sincronización de pagos en la cola de tareas.
type SyncEnqueuer interface {
	EnqueuePaymentsSync(ctx context.Context, requestedBy string) (string, error)
}

// PaymentHandler pagos a proveedores.
type PaymentHandler struct {
	svc      *payments.Service
	enqueuer SyncEnqueuer
}

// NewPaymentHandler construye el handler. enqueuer nil = sincronización en línea.
func NewPaymentHandler(svc *payments.Service, enqueuer SyncEnqueuer) *PaymentHandler {
	return &PaymentHandler{svc: svc, enqueuer: enqueuer}
}

// Ensure godoc
// @Summary      Asegurar pago de una factura de compra
// @Description  Idempotente: si ya existe un pago para la factura no crea otro.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EnsurePaymentRequest  true  "Factura y datos del pago"
// @Success      200   {object}  dto.EnsurePaymentResponse
// @Success      201   {object}  dto.EnsurePaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/payments/ensure [post]
func (h *PaymentHandler) Ensure(c *fiber.Ctx) error {
	var in dto.EnsurePaymentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	created, err := h.svc.EnsurePaymentForInvoice(c.UserContext(), payments.EnsureInput{
		InvoiceID:  in.InvoiceID,
		PayeeID:    in.PayeeID,
		PayeeName:  in.PayeeName,
		Amount:     in.Amount,
		DueDate:    in.DueDate,
		DocumentNo: in.DocumentNo,
	})
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(dto.EnsurePaymentResponse{InvoiceID: in.InvoiceID, Created: created})
}

// Sync godoc
// @Summary      Sincronizar pagos de todas las facturas de compra
// @Description  En línea devuelve los contadores; con cola configurada responde 202 con el ID de la tarea.
// @Tags         payments
// @Produce      json
// @Success      200  {object}  dto.SyncPaymentsResponse
// @Success      202  {object}  dto.SyncPaymentsResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/payments/sync [post]
func (h *PaymentHandler) Sync(c *fiber.Ctx) error {
	if h.enqueuer != nil {
		id, err := h.enqueuer.EnqueuePaymentsSync(c.UserContext(), "api")
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(dto.SyncPaymentsResponse{Queued: true, TaskID: id})
	}
	res, err := h.svc.SyncPurchaseInvoices(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SyncPaymentsResponse{
		Checked: res.Checked,
		Created: res.Created,
		Skipped: res.Skipped,
		Failed:  res.Failed,
	})
}

// List godoc
// @Summary      Listar pagos
// @Tags         payments
// @Produce      json
// @Param        invoice_id  query  string  false  "Filtrar por factura de compra"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200         {object}  dto.PaymentListResponse
// @Router       /api/payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	page, ok, err := pageRequest(c)
	if !ok {
		return err
	}
	out, err := h.svc.ListPayments(c.UserContext(), c.Query("invoice_id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
