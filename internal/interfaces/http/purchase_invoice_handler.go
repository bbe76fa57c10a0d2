package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/dto"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/purchasing"
)

// PurchaseInvoiceHandler facturas de compra.
type PurchaseInvoiceHandler struct {
	uc *purchasing.UseCase
}

// NewPurchaseInvoiceHandler construye el handler.
func NewPurchaseInvoiceHandler(uc *purchasing.UseCase) *PurchaseInvoiceHandler {
	return &PurchaseInvoiceHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar factura de compra
// @Description  Cada línea es una entrada de inventario. Si una línea falla no se guarda nada.
// @Tags         purchase-invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseInvoiceRequest  true  "Factura y líneas"
// @Success      201   {object}  dto.PurchaseInvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-invoices [post]
func (h *PurchaseInvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseInvoiceRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener factura de compra
// @Tags         purchase-invoices
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.PurchaseInvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-invoices/{id} [get]
func (h *PurchaseInvoiceHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar facturas de compra
// @Tags         purchase-invoices
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.PurchaseInvoiceListResponse
// @Router       /api/purchase-invoices [get]
func (h *PurchaseInvoiceHandler) List(c *fiber.Ctx) error {
	page, ok, err := pageRequest(c)
	if !ok {
		return err
	}
	out, err := h.uc.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
