package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// ItemHandler maneja el catálogo y los movimientos de un artículo (protegido).
type ItemHandler struct {
	catalog *stock.CatalogUseCase
	ledger  *stock.LedgerUseCase
	history *stock.HistoryUseCase
	log     zerolog.Logger
}

// NewItemHandler construye el handler.
func NewItemHandler(catalog *stock.CatalogUseCase, ledger *stock.LedgerUseCase, history *stock.HistoryUseCase, log zerolog.Logger) *ItemHandler {
	return &ItemHandler{catalog: catalog, ledger: ledger, history: history, log: log}
}

// Create godoc
// @Summary      Crear artículo
// @Description  La existencia inicial (quantity > 0) queda registrada como movimiento addition.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateItemRequest  true  "Artículo"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := decodeJSON(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.catalog.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Import godoc
// @Summary      Importar catálogo
// @Description  Alta masiva; cada fila se acepta o rechaza por separado.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ImportItemsRequest  true  "Artículos"
// @Success      200   {object}  dto.ImportResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/items/import [post]
func (h *ItemHandler) Import(c *fiber.Ctx) error {
	var in dto.ImportItemsRequest
	if err := decodeJSON(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.catalog.Import(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar artículos
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        status    query     string  false  "available|expiring-soon|low|expired|critical"
// @Param        category  query     string  false  "Categoría"
// @Param        q         query     string  false  "Texto en nombre, código de barras o proveedor"
// @Param        page      query     int     false  "Página (desde 1)"
// @Success      200       {object}  dto.ItemListResponse
// @Failure      400       {object}  dto.ErrorResponse
// @Router       /api/stock/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	var q dto.ItemQuery
	if err := c.QueryParser(&q); err != nil {
		return writeError(c, h.log, domain.NewValidationError("query", err.Error()))
	}
	out, err := h.catalog.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener artículo
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del artículo"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/items/{id} [get]
func (h *ItemHandler) Get(c *fiber.Ctx) error {
	out, err := h.catalog.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByBarcode godoc
// @Summary      Buscar por código de barras
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        barcode  path      string  true  "Código de barras"
// @Success      200      {object}  dto.ItemResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Router       /api/stock/items/barcode/{barcode} [get]
func (h *ItemHandler) GetByBarcode(c *fiber.Ctx) error {
	out, err := h.catalog.GetByBarcode(c.UserContext(), c.Params("barcode"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar atributos
// @Description  La cantidad no se modifica aquí. Con version, una versión obsoleta responde 409.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "ID del artículo"
// @Param        body  body      dto.UpdateItemRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/items/{id} [put]
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if err := decodeJSON(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.catalog.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar o archivar artículo
// @Description  Sin movimientos se elimina; con movimientos se archiva y el historial se conserva.
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del artículo"
// @Success      200  {object}  dto.DeleteItemResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/items/{id} [delete]
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	out, err := h.catalog.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Adjust godoc
// @Summary      Ajustar cantidad
// @Description  add registra una entrada; remove una corrección negativa.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "ID del artículo"
// @Param        body  body      dto.AdjustRequest  true  "delta y direction"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/items/{id}/adjust [post]
func (h *ItemHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if err := decodeJSON(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.ledger.Adjust(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Consume godoc
// @Summary      Registrar consumo
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "ID del artículo"
// @Param        body  body      dto.ConsumeRequest  true  "Cantidad consumida"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/items/{id}/consume [post]
func (h *ItemHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeRequest
	if err := decodeJSON(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.ledger.Consume(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Exit godoc
// @Summary      Registrar salida
// @Description  transfer requiere destination; other requiere reason.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "ID del artículo"
// @Param        body  body      dto.ExitRequest  true  "Salida"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/items/{id}/exit [post]
func (h *ItemHandler) Exit(c *fiber.Ctx) error {
	var in dto.ExitRequest
	if err := decodeJSON(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.ledger.RecordExit(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// History godoc
// @Summary      Historial del artículo
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id         path      string  true   "ID del artículo"
// @Param        kind       query     string  false  "addition|consumption|exit|correction|exit+consumption"
// @Param        exit_kind  query     string  false  "Subtipo de salida"
// @Param        from       query     string  false  "YYYY-MM-DD (inclusivo)"
// @Param        to         query     string  false  "YYYY-MM-DD (inclusivo)"
// @Param        page       query     int     false  "Página (desde 1)"
// @Success      200        {object}  dto.MovementListResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Router       /api/stock/items/{id}/history [get]
func (h *ItemHandler) History(c *fiber.Ctx) error {
	var q dto.HistoryQuery
	if err := c.QueryParser(&q); err != nil {
		return writeError(c, h.log, domain.NewValidationError("query", err.Error()))
	}
	out, err := h.history.ForItem(c.UserContext(), c.Params("id"), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Verify godoc
// @Summary      Verificar libro del artículo
// @Description  Reproduce los movimientos y compara con la cantidad en caché.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del artículo"
// @Success      200  {object}  dto.VerificationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/items/{id}/verify [get]
func (h *ItemHandler) Verify(c *fiber.Ctx) error {
	out, err := h.ledger.Verify(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
