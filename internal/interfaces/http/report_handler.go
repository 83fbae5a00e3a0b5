package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
)

// ReportHandler alertas, reportes y respaldo (protegido).
type ReportHandler struct {
	alerts  *stock.AlertUseCase
	reports *stock.ReportUseCase
	backup  *stock.BackupUseCase
	log     zerolog.Logger
}

// NewReportHandler construye el handler.
func NewReportHandler(alerts *stock.AlertUseCase, reports *stock.ReportUseCase, backup *stock.BackupUseCase, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{alerts: alerts, reports: reports, backup: backup, log: log}
}

// Alerts godoc
// @Summary      Alertas vigentes
// @Description  Artículos en estado critical, expired, low o expiring-soon, del más grave al menos grave.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.AlertListResponse
// @Router       /api/stock/alerts [get]
func (h *ReportHandler) Alerts(c *fiber.Ctx) error {
	out, err := h.alerts.List(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen del almacén
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockSummaryDTO
// @Router       /api/stock/reports/summary [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	out, err := h.reports.Summary(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Categories godoc
// @Summary      Desglose por categoría
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.CategoryBreakdownDTO
// @Router       /api/stock/reports/categories [get]
func (h *ReportHandler) Categories(c *fiber.Ctx) error {
	out, err := h.reports.Categories(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Reorder godoc
// @Summary      Lista de reposición
// @Description  Artículos en o bajo su umbral con cantidad sugerida, costo estimado y días de cobertura.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/stock/reports/reorder [get]
func (h *ReportHandler) Reorder(c *fiber.Ctx) error {
	list, err := h.reports.Reorder(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total":   len(list),
		"reorder": list,
	})
}

// Expirations godoc
// @Summary      Calendario de vencimientos
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        days  query     int  false  "Horizonte en días (por defecto 90, máximo 730)"
// @Success      200   {object}  dto.ExpirationCalendarDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/reports/expirations [get]
func (h *ReportHandler) Expirations(c *fiber.Ctx) error {
	days, err := queryInt(c, "days", stock.DefaultExpirationHorizonDays)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.reports.Expirations(c.UserContext(), days)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Consumption godoc
// @Summary      Consumo y salidas por artículo
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from  query     string  false  "YYYY-MM-DD (inclusivo, por defecto hace 30 días)"
// @Param        to    query     string  false  "YYYY-MM-DD (inclusivo, por defecto hoy)"
// @Success      200   {object}  dto.ConsumptionReportDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/reports/consumption [get]
func (h *ReportHandler) Consumption(c *fiber.Ctx) error {
	out, err := h.reports.Consumption(c.UserContext(), c.Query("from"), c.Query("to"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// DownloadBackup godoc
// @Summary      Descargar respaldo
// @Description  Catálogo completo (incluye archivados), libro de movimientos y verificación.
// @Tags         backup
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SnapshotDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/backup [get]
func (h *ReportHandler) DownloadBackup(c *fiber.Ctx) error {
	data, snap, err := h.backup.Export(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	name := "stock-" + snap.GeneratedAt.UTC().Format("20060102-150405") + ".json"
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	c.Set("X-Ledger-Consistent", strconv.FormatBool(snap.Consistent))
	return c.Send(data)
}

// StoreBackup godoc
// @Summary      Guardar respaldo
// @Description  Sube el respaldo al almacenamiento de objetos configurado.
// @Tags         backup
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.BackupStoredResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stock/backup [post]
func (h *ReportHandler) StoreBackup(c *fiber.Ctx) error {
	out, err := h.backup.Store(c.UserContext())
	if err != nil {
		if errors.Is(err, stock.ErrBackupDisabled) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "BACKUP_DISABLED", Message: err.Error()})
		}
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
