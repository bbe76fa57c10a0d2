package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/dto"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/entity"
)

// InventoryHandler entradas manuales de inventario.
type InventoryHandler struct {
	engine *inventory.CostingEngine
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventory.CostingEngine) *InventoryHandler {
	return &InventoryHandler{engine: engine}
}

// RecordReceipt godoc
// @Summary      Registrar entrada de mercadería
// @Description  Recalcula el costo promedio ponderado del material.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordReceiptRequest  true  "material_id, quantity (> 0), unit_price (>= 0)"
// @Success      201   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) RecordReceipt(c *fiber.Ctx) error {
	var in dto.RecordReceiptRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.engine.RecordReceipt(c.UserContext(), inventory.ReceiptInput{
		MaterialID:    in.MaterialID,
		Quantity:      in.Quantity,
		UnitPrice:     in.UnitPrice,
		ReferenceType: entity.ReferenceManual,
		ReferenceID:   in.ReferenceID,
		Notes:         in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToReceiptResponse(in.MaterialID, res))
}
