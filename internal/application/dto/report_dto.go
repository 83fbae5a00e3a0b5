package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Alertas ───────────────────────────────────────────────────────────────────

// AlertDTO artículo que requiere atención (estado distinto de available).
type AlertDTO struct {
	ItemID            string          `json:"item_id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	Status            string          `json:"status"`
	Quantity          decimal.Decimal `json:"quantity"`
	CriticalThreshold decimal.Decimal `json:"critical_threshold"`
	ExpirationDate    *Date           `json:"expiration_date,omitempty"`
	DaysToExpiration  *int            `json:"days_to_expiration,omitempty"`
}

// AlertListResponse alertas ordenadas por severidad.
type AlertListResponse struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"` // por estado
	Alerts []AlertDTO     `json:"alerts"`
}

// ── Reportes ──────────────────────────────────────────────────────────────────

// StatusTotalsDTO totales de un estado.
type StatusTotalsDTO struct {
	Items int             `json:"items"`
	Value decimal.Decimal `json:"value"`
}

// StockSummaryDTO totales globales del almacén.
type StockSummaryDTO struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	TotalItems  int                        `json:"total_items"`
	TotalValue  decimal.Decimal            `json:"total_value"` // suma de cantidad * precio
	ByStatus    map[string]StatusTotalsDTO `json:"by_status"`
}

// CategoryBreakdownDTO desglose por categoría.
type CategoryBreakdownDTO struct {
	Category       string                     `json:"category"`
	Items          int                        `json:"items"`
	Value          decimal.Decimal            `json:"value"`
	QuantityByUnit map[string]decimal.Decimal `json:"quantity_by_unit"` // no se suman unidades distintas
	ValuePct       decimal.Decimal            `json:"value_pct"`        // participación % en el valor total
}

// ReorderSuggestionDTO sugerencia de reposición para un artículo bajo su umbral crítico.
type ReorderSuggestionDTO struct {
	ItemID            string          `json:"item_id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	Supplier          string          `json:"supplier,omitempty"`
	CurrentQuantity   decimal.Decimal `json:"current_quantity"`
	CriticalThreshold decimal.Decimal `json:"critical_threshold"`
	IdealQuantity     decimal.Decimal `json:"ideal_quantity"`      // CriticalThreshold * 1.5
	SuggestedQuantity decimal.Decimal `json:"suggested_quantity"`  // IdealQuantity - CurrentQuantity
	UnitPrice         decimal.Decimal `json:"unit_price"`
	EstimatedCost     decimal.Decimal `json:"estimated_cost"`      // SuggestedQuantity * UnitPrice
	UsedLast30Days    decimal.Decimal `json:"used_last_30_days"`   // consumo + salidas
	Priority          int             `json:"priority"`            // 1 = más urgente
	// DaysOfCover días que dura la existencia al ritmo de los últimos 30 días; nil sin consumo.
	DaysOfCover *int `json:"days_of_cover,omitempty"`
}

// ExpirationEntryDTO artículo con vencimiento en el calendario.
type ExpirationEntryDTO struct {
	ItemID   string          `json:"item_id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Value    decimal.Decimal `json:"value"`
	Status   string          `json:"status"`
}

// ExpirationDayDTO día del calendario de vencimientos.
type ExpirationDayDTO struct {
	Date             Date                 `json:"date"`
	DaysToExpiration int                  `json:"days_to_expiration"`
	Items            []ExpirationEntryDTO `json:"items"`
}

// ExpirationCalendarDTO calendario de vencimientos dentro del horizonte.
type ExpirationCalendarDTO struct {
	HorizonDays int                `json:"horizon_days"`
	Days        []ExpirationDayDTO `json:"days"`
}

// ConsumptionLineDTO salidas y consumo de un artículo en el período.
type ConsumptionLineDTO struct {
	ItemID   string                     `json:"item_id"`
	Name     string                     `json:"name"`
	Unit     string                     `json:"unit"`
	Consumed decimal.Decimal            `json:"consumed"`
	Exits    map[string]decimal.Decimal `json:"exits"` // por subtipo de salida
	Total    decimal.Decimal            `json:"total"`
}

// ConsumptionReportDTO consumo y salidas por artículo en un rango de fechas.
type ConsumptionReportDTO struct {
	From  Date                 `json:"from"`
	To    Date                 `json:"to"`
	Lines []ConsumptionLineDTO `json:"lines"`
}

// ── Respaldo ──────────────────────────────────────────────────────────────────

// SnapshotDTO copia consistente de catálogo + libro completo.
type SnapshotDTO struct {
	GeneratedAt  time.Time              `json:"generated_at"`
	Items        []ItemResponse         `json:"items"`
	Movements    []MovementResponse     `json:"movements"` // Seq ascendente
	Verification []VerificationResponse `json:"verification"`
	Consistent   bool                   `json:"consistent"`
}

// BackupStoredResponse ubicación del respaldo almacenado.
type BackupStoredResponse struct {
	Bucket    string `json:"bucket"`
	Object    string `json:"object"`
	Size      int64  `json:"size"`
	Items     int    `json:"items"`
	Movements int    `json:"movements"`
}
