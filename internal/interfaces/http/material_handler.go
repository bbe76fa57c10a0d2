package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/dto"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain/repository"
)

// MaterialHandler maneja las peticiones HTTP de materiales y su kardex.
type MaterialHandler struct {
	uc     *inventory.MaterialUseCase
	engine *inventory.CostingEngine
}

// NewMaterialHandler construye el handler.
func NewMaterialHandler(uc *inventory.MaterialUseCase, engine *inventory.CostingEngine) *MaterialHandler {
	return &MaterialHandler{uc: uc, engine: engine}
}

// Create godoc
// @Summary      Crear material
// @Description  Code vacío se genera a partir del nombre. opening_stock > 0 registra una entrada de apertura.
// @Tags         materials
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMaterialRequest  true  "Datos del material"
// @Success      201   {object}  dto.MaterialResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/materials [post]
func (h *MaterialHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMaterialRequest
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
// @Summary      Obtener material con su saldo
// @Tags         materials
// @Produce      json
// @Param        id   path  string  true  "ID del material"
// @Success      200  {object}  dto.MaterialResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/materials/{id} [get]
func (h *MaterialHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar materiales
// @Tags         materials
// @Produce      json
// @Param        search  query  string  false  "Filtro por código o nombre"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.MaterialListResponse
// @Router       /api/materials [get]
func (h *MaterialHandler) List(c *fiber.Ctx) error {
	page, ok, err := pageRequest(c)
	if !ok {
		return err
	}
	out, err := h.uc.List(c.UserContext(), c.Query("search"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar datos descriptivos del material
// @Tags         materials
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del material"
// @Param        body  body  dto.UpdateMaterialRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.MaterialResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/materials/{id} [put]
func (h *MaterialHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateMaterialRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Historial de movimientos (kardex)
// @Description  Ordenado por fecha y secuencia. from/to aceptan RFC3339 o AAAA-MM-DD (inclusivos).
// @Tags         materials
// @Produce      json
// @Param        id      path   string  true   "ID del material"
// @Param        from    query  string  false  "Desde"
// @Param        to      query  string  false  "Hasta"
// @Param        limit   query  int     false  "Límite (0 = todos)"
// @Param        offset  query  int     false  "Offset"
// @Success      200     {object}  dto.MovementListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/movements [get]
func (h *MaterialHandler) Movements(c *fiber.Ctx) error {
	var q dto.MovementHistoryRequest
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
	}
	if ok, err := validateStruct(c, &q); !ok {
		return err
	}
	filter := repository.MovementFilter{Limit: q.Limit, Offset: q.Offset}
	var err error
	if filter.From, err = parseTime(q.From, false); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido"})
	}
	if filter.To, err = parseTime(q.To, true); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido"})
	}

	id := c.Params("id")
	movs, err := h.engine.GetMovementHistory(c.UserContext(), id, filter)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		items = append(items, inventory.ToMovementResponse(m))
	}
	return c.JSON(dto.MovementListResponse{
		MaterialID: id,
		Items:      items,
		Page:       dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	})
}

// Ledger godoc
// @Summary      Verificar el kardex contra el saldo
// @Tags         materials
// @Produce      json
// @Param        id   path  string  true  "ID del material"
// @Success      200  {object}  dto.LedgerReportResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/ledger [get]
func (h *MaterialHandler) Ledger(c *fiber.Ctx) error {
	report, err := h.engine.VerifyLedger(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToLedgerReportResponse(report))
}

// parseTime acepta RFC3339 o fecha; una fecha "hasta" cubre el día completo.
func parseTime(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
