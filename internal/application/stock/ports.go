// Package stock implementa los casos de uso del almacén de alimentos: catálogo,
// libro de cantidades con su historial, lotes, inventario físico, alertas,
// reportes y respaldo.
package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	domainstock "github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a ella.
// Garantiza que un movimiento y la actualización de la cantidad se confirman juntos o no se confirman.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		items repository.StockItemRepository,
		movements repository.MovementRepository,
	) error) error
	// Snapshot ejecuta fn en una lectura consistente de solo lectura (catálogo + libro).
	Snapshot(ctx context.Context, fn func(
		items repository.StockItemRepository,
		movements repository.MovementRepository,
	) error) error
}

// Alert cambio de estado de un artículo hacia un estado de atención.
type Alert struct {
	ItemID         string             `json:"item_id"`
	ItemName       string             `json:"item_name"`
	Status         domainstock.Status `json:"status"`
	Previous       domainstock.Status `json:"previous,omitempty"`
	Quantity       decimal.Decimal    `json:"quantity"`
	Threshold      decimal.Decimal    `json:"critical_threshold"`
	ExpirationDate *time.Time         `json:"expiration_date,omitempty"`
	At             time.Time          `json:"at"`
}

// Notifier entrega alertas a un colaborador externo (la entrega no es parte del núcleo).
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// BackupStore guarda respaldos serializados.
type BackupStore interface {
	Put(ctx context.Context, object string, data []byte) (bucket string, err error)
}

// Config parámetros de los casos de uso.
type Config struct {
	PageSize           int
	ExpiringWindowDays int
	BatchWorkers       int
	BatchMaxItems      int
}

// DefaultConfig valores por defecto.
func DefaultConfig() Config {
	return Config{
		PageSize:           20,
		ExpiringWindowDays: domainstock.DefaultExpiringWindowDays,
		BatchWorkers:       4,
		BatchMaxItems:      500,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.ExpiringWindowDays <= 0 {
		c.ExpiringWindowDays = d.ExpiringWindowDays
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = d.BatchWorkers
	}
	if c.BatchMaxItems <= 0 {
		c.BatchMaxItems = d.BatchMaxItems
	}
	return c
}

func (c Config) policy() domainstock.Policy {
	return domainstock.Policy{ExpiringWindowDays: c.ExpiringWindowDays}
}

// Clock fuente de tiempo; reemplazable en tests.
type Clock func() time.Time
