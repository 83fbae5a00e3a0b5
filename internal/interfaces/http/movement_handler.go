package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// MovementHandler historial global, lotes e inventario físico (protegido).
type MovementHandler struct {
	history   *stock.HistoryUseCase
	batch     *stock.BatchUseCase
	reconcile *stock.ReconcileUseCase
	log       zerolog.Logger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(history *stock.HistoryUseCase, batch *stock.BatchUseCase, reconcile *stock.ReconcileUseCase, log zerolog.Logger) *MovementHandler {
	return &MovementHandler{history: history, batch: batch, reconcile: reconcile, log: log}
}

// List godoc
// @Summary      Historial global
// @Description  Del más reciente al más antiguo, con página de tamaño fijo.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        kind       query     string  false  "addition|consumption|exit|correction|exit+consumption"
// @Param        exit_kind  query     string  false  "Subtipo de salida"
// @Param        q          query     string  false  "Texto en el nombre del artículo"
// @Param        from       query     string  false  "YYYY-MM-DD (inclusivo)"
// @Param        to         query     string  false  "YYYY-MM-DD (inclusivo)"
// @Param        page       query     int     false  "Página (desde 1)"
// @Success      200        {object}  dto.MovementListResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	var q dto.HistoryQuery
	if err := c.QueryParser(&q); err != nil {
		return writeError(c, h.log, domain.NewValidationError("query", err.Error()))
	}
	out, err := h.history.Global(c.UserContext(), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Batch godoc
// @Summary      Operación por lote
// @Description  consume, exit o delete sobre varios artículos. Los fallos se informan por entrada
// @Description  sin revertir los éxitos; un lote mal formado se rechaza completo.
// @Tags         batch
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        action  path      string            true  "consume|exit|delete"
// @Param        body    body      dto.BatchRequest  true  "Entradas y metadatos compartidos"
// @Success      200     {object}  dto.BatchResult
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Router       /api/stock/batch/{action} [post]
func (h *MovementHandler) Batch(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in dto.BatchRequest
		if err := decodeJSON(c, &in); err != nil {
			return writeError(c, h.log, err)
		}
		out, err := h.batch.Execute(c.UserContext(), GetUserID(c), action, in)
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(out)
	}
}

// InventoryCount godoc
// @Summary      Inventario físico
// @Description  Registra una corrección por cada diferencia entre el conteo y la cantidad del libro.
// @Tags         batch
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.InventoryCountRequest  true  "Conteos"
// @Success      200   {object}  dto.InventoryCountResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/stock/inventory-counts [post]
func (h *MovementHandler) InventoryCount(c *fiber.Ctx) error {
	var in dto.InventoryCountRequest
	if err := decodeJSON(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.reconcile.Reconcile(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
