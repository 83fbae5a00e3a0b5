package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ItemFilter criterios de consulta del catálogo.
// Search compara sin distinguir mayúsculas ni acentos contra nombre, código de barras y proveedor.
type ItemFilter struct {
	Category        string
	Search          string
	IncludeArchived bool
}

// StockItemRepository define el puerto de persistencia del catálogo (DIP).
// Los métodos Get* devuelven (nil, nil) si el artículo no existe.
type StockItemRepository interface {
	Create(ctx context.Context, item *entity.StockItem) error
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	// GetForUpdate bloquea el artículo hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error)
	// GetByBarcode busca solo entre artículos activos. (nil, nil) si no hay ninguno.
	GetByBarcode(ctx context.Context, barcode string) (*entity.StockItem, error)
	// Update modifica atributos de catálogo si item.Version coincide con la versión
	// almacenada; deja en item.Version la nueva versión. ErrConflict si no coincide o fue archivado.
	Update(ctx context.Context, item *entity.StockItem) error
	// UpdateQuantity aplica compare-and-set sobre la cantidad. ErrConflict si la
	// cantidad almacenada ya no es from.
	UpdateQuantity(ctx context.Context, id string, from, to decimal.Decimal, at time.Time) error
	Archive(ctx context.Context, id string, version int64, at time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ItemFilter) ([]*entity.StockItem, error)
}
