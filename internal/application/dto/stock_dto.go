package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Catálogo ──────────────────────────────────────────────────────────────────

// CreateItemRequest body para POST /api/stock/items.
// Quantity es la existencia inicial; si es > 0 se registra como movimiento addition.
type CreateItemRequest struct {
	Name              string          `json:"name" validate:"required,min=1,max=200"`
	Category          string          `json:"category" validate:"required,category"`
	Unit              string          `json:"unit" validate:"required,unit"`
	UnitPrice         decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Quantity          decimal.Decimal `json:"quantity" validate:"gte=0"`
	CriticalThreshold decimal.Decimal `json:"critical_threshold" validate:"gte=0"`
	PurchaseDate      *Date           `json:"purchase_date,omitempty"`
	ExpirationDate    *Date           `json:"expiration_date,omitempty"`
	Supplier          string          `json:"supplier,omitempty" validate:"max=200"`
	Location          string          `json:"location,omitempty" validate:"max=200"`
	Barcode           string          `json:"barcode,omitempty" validate:"max=64"`
	Notes             string          `json:"notes,omitempty" validate:"max=2000"`
}

// UpdateItemRequest body para PUT /api/stock/items/:id (sin cantidad: se maneja vía movimientos).
// Version opcional: si viene y no coincide con la almacenada la respuesta es 409 CONFLICT.
type UpdateItemRequest struct {
	Name              *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Category          *string          `json:"category,omitempty" validate:"omitempty,category"`
	Unit              *string          `json:"unit,omitempty" validate:"omitempty,unit"`
	UnitPrice         *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	CriticalThreshold *decimal.Decimal `json:"critical_threshold,omitempty" validate:"omitempty,gte=0"`
	PurchaseDate      *Date            `json:"purchase_date,omitempty"`
	ExpirationDate    *Date            `json:"expiration_date,omitempty"`
	Supplier          *string          `json:"supplier,omitempty" validate:"omitempty,max=200"`
	Location          *string          `json:"location,omitempty" validate:"omitempty,max=200"`
	Barcode           *string          `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Notes             *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Version           *int64           `json:"version,omitempty" validate:"omitempty,min=1"`
}

// ImportItemsRequest body para POST /api/stock/items/import.
type ImportItemsRequest struct {
	Items []CreateItemRequest `json:"items" validate:"required,min=1"`
}

// ImportFailure fila rechazada en una importación.
type ImportFailure struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult resultado de una importación (éxito parcial).
type ImportResult struct {
	Successful int             `json:"successful"`
	Created    []ItemResponse  `json:"created"`
	Failed     []ImportFailure `json:"failed"`
}

// ItemQuery filtros de GET /api/stock/items.
type ItemQuery struct {
	Status   string `query:"status"`
	Category string `query:"category"`
	Search   string `query:"q"`
	Page     int    `query:"page"`
}

// ItemResponse salida de un artículo con su estado derivado.
type ItemResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Quantity          decimal.Decimal `json:"quantity"`
	Value             decimal.Decimal `json:"value"` // Quantity * UnitPrice
	CriticalThreshold decimal.Decimal `json:"critical_threshold"`
	PurchaseDate      *Date           `json:"purchase_date,omitempty"`
	ExpirationDate    *Date           `json:"expiration_date,omitempty"`
	DaysToExpiration  *int            `json:"days_to_expiration,omitempty"`
	Status            string          `json:"status"`
	Supplier          string          `json:"supplier,omitempty"`
	Location          string          `json:"location,omitempty"`
	Barcode           string          `json:"barcode,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	Version           int64           `json:"version"`
	Archived          bool            `json:"archived,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ItemListResponse lista paginada de artículos.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// DeleteItemResponse resultado del borrado: "deleted" (sin movimientos) o "archived".
type DeleteItemResponse struct {
	ID     string `json:"id"`
	Result string `json:"result"`
}

// ── Movimientos ───────────────────────────────────────────────────────────────

// AdjustRequest body para POST /api/stock/items/:id/adjust.
type AdjustRequest struct {
	Delta     decimal.Decimal `json:"delta" validate:"gt=0"`
	Direction string          `json:"direction" validate:"required,oneof=add remove"`
	Reason    string          `json:"reason,omitempty" validate:"max=500"`
}

// ConsumeRequest body para POST /api/stock/items/:id/consume.
type ConsumeRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"gt=0"`
	Reason   string          `json:"reason,omitempty" validate:"max=500"`
}

// ExitRequest body para POST /api/stock/items/:id/exit.
type ExitRequest struct {
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	ExitKind    string          `json:"exit_kind" validate:"required,exit_kind"`
	Destination string          `json:"destination,omitempty" validate:"max=200"`
	Reason      string          `json:"reason,omitempty" validate:"max=500"`
}

// MovementResponse salida de un asiento del libro.
type MovementResponse struct {
	ID            string          `json:"id"`
	Seq           int64           `json:"seq"`
	ItemID        string          `json:"item_id"`
	ItemName      string          `json:"item_name,omitempty"`
	Kind          string          `json:"kind"`
	ExitKind      string          `json:"exit_kind,omitempty"`
	Delta         decimal.Decimal `json:"delta"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Destination   string          `json:"destination,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	ActorID       string          `json:"actor_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// HistoryQuery filtros del historial (global o por artículo).
// Kind acepta addition|consumption|exit|correction|exit+consumption.
type HistoryQuery struct {
	Kind     string `query:"kind"`
	ExitKind string `query:"exit_kind"`
	Search   string `query:"q"`
	From     string `query:"from"` // YYYY-MM-DD, inclusivo
	To       string `query:"to"`   // YYYY-MM-DD, inclusivo
	Page     int    `query:"page"`
}

// MovementListResponse página del historial (más reciente primero).
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// VerificationResponse resultado de reproducir el libro de un artículo.
type VerificationResponse struct {
	ItemID           string          `json:"item_id"`
	Quantity         decimal.Decimal `json:"quantity"`          // cantidad en caché
	ReplayedQuantity decimal.Decimal `json:"replayed_quantity"` // suma de deltas
	Movements        int             `json:"movements"`
	Consistent       bool            `json:"consistent"`
	BrokenAtSeq      *int64          `json:"broken_at_seq,omitempty"` // primer movimiento con balance_after incoherente
}

// ── Lotes e inventario físico ─────────────────────────────────────────────────

// BatchItem entrada de un lote. Quantity se ignora en borrados.
type BatchItem struct {
	ID       string          `json:"id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// BatchRequest body para POST /api/stock/batch/{consume|exit|delete}.
// Los metadatos son compartidos por todas las entradas.
type BatchRequest struct {
	Items       []BatchItem `json:"items" validate:"required,min=1"`
	ExitKind    string      `json:"exit_kind,omitempty" validate:"omitempty,exit_kind"`
	Destination string      `json:"destination,omitempty" validate:"max=200"`
	Reason      string      `json:"reason,omitempty" validate:"max=500"`
}

// BatchFailure entrada rechazada de un lote.
type BatchFailure struct {
	ItemID  string `json:"item_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchResult resultado por entrada: los fallos no revierten a los demás.
type BatchResult struct {
	Action     string         `json:"action"`
	Successful int            `json:"successful"`
	Failed     []BatchFailure `json:"failed"`
}

// CountEntry conteo físico de un artículo.
type CountEntry struct {
	ItemID           string          `json:"item_id"`
	PhysicalQuantity decimal.Decimal `json:"physical_quantity"`
	Note             string          `json:"note,omitempty"`
}

// InventoryCountRequest body para POST /api/stock/inventory-counts.
type InventoryCountRequest struct {
	Counts []CountEntry `json:"counts" validate:"required,min=1"`
}

// InventoryCountResult resultado de la conciliación.
type InventoryCountResult struct {
	Successful     int            `json:"successful"`
	WithDifference int            `json:"with_difference"`
	Failed         []BatchFailure `json:"failed"`
}
