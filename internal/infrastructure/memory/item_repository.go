package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	domainstock "github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

var _ repository.StockItemRepository = (*itemRepo)(nil)

// itemRepo con tx == nil cada escritura abre y confirma su propia transacción.
type itemRepo struct {
	s  *Store
	tx *tx
}

func (r *itemRepo) autocommit(ctx context.Context, fn func(tx *itemRepo) error) error {
	return r.s.run(ctx, false, func(t *tx) error {
		return fn(&itemRepo{s: r.s, tx: t})
	})
}

func (r *itemRepo) get(id string) *entity.StockItem {
	if r.tx != nil {
		return r.tx.item(id)
	}
	return r.s.committedItem(id)
}

func (r *itemRepo) Create(ctx context.Context, item *entity.StockItem) error {
	if r.tx == nil {
		return r.autocommit(ctx, func(tx *itemRepo) error { return tx.Create(ctx, item) })
	}
	if err := r.tx.acquire(ctx, item.ID); err != nil {
		return err
	}
	if r.get(item.ID) != nil {
		return domain.ErrDuplicate
	}
	r.tx.items[item.ID] = item.Clone()
	return nil
}

func (r *itemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.get(id), nil
}

// GetForUpdate bloquea el artículo hasta el fin de la transacción.
func (r *itemRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	if r.tx == nil {
		return r.GetByID(ctx, id)
	}
	if err := r.tx.acquire(ctx, id); err != nil {
		return nil, err
	}
	return r.get(id), nil
}

func (r *itemRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.StockItem, error) {
	list, err := r.List(ctx, repository.ItemFilter{})
	if err != nil {
		return nil, err
	}
	for _, it := range list {
		if it.Barcode != nil && *it.Barcode == barcode {
			return it, nil
		}
	}
	return nil, nil
}

// Update copia solo los atributos del catálogo sobre la versión almacenada.
func (r *itemRepo) Update(ctx context.Context, item *entity.StockItem) error {
	if r.tx == nil {
		return r.autocommit(ctx, func(tx *itemRepo) error { return tx.Update(ctx, item) })
	}
	if err := r.tx.acquire(ctx, item.ID); err != nil {
		return err
	}
	cur := r.get(item.ID)
	if cur == nil || cur.Archived() || cur.Version != item.Version {
		return domain.ErrConflict
	}
	next := item.Clone()
	next.Quantity = cur.Quantity
	next.CreatedAt = cur.CreatedAt
	next.DeletedAt = nil
	next.Version = cur.Version + 1
	r.tx.items[item.ID] = next
	item.Version = next.Version
	return nil
}

// UpdateQuantity compare-and-set sobre la cantidad.
func (r *itemRepo) UpdateQuantity(ctx context.Context, id string, from, to decimal.Decimal, at time.Time) error {
	if r.tx == nil {
		return r.autocommit(ctx, func(tx *itemRepo) error { return tx.UpdateQuantity(ctx, id, from, to, at) })
	}
	if err := r.tx.acquire(ctx, id); err != nil {
		return err
	}
	cur := r.get(id)
	if cur == nil || cur.Archived() || !cur.Quantity.Equal(from) {
		return domain.ErrConflict
	}
	cur.Quantity = to
	cur.UpdatedAt = at
	r.tx.items[id] = cur
	return nil
}

func (r *itemRepo) Archive(ctx context.Context, id string, version int64, at time.Time) error {
	if r.tx == nil {
		return r.autocommit(ctx, func(tx *itemRepo) error { return tx.Archive(ctx, id, version, at) })
	}
	if err := r.tx.acquire(ctx, id); err != nil {
		return err
	}
	cur := r.get(id)
	if cur == nil || cur.Archived() || cur.Version != version {
		return domain.ErrConflict
	}
	cur.DeletedAt = &at
	cur.UpdatedAt = at
	cur.Version++
	r.tx.items[id] = cur
	return nil
}

func (r *itemRepo) Delete(ctx context.Context, id string) error {
	if r.tx == nil {
		return r.autocommit(ctx, func(tx *itemRepo) error { return tx.Delete(ctx, id) })
	}
	if err := r.tx.acquire(ctx, id); err != nil {
		return err
	}
	if r.get(id) == nil {
		return domain.ErrNotFound
	}
	r.tx.items[id] = nil
	return nil
}

// List ordena por nombre sin acentos ni mayúsculas, como la consulta SQL.
func (r *itemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]*entity.StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var all map[string]*entity.StockItem
	if r.tx != nil {
		all = r.tx.view()
	} else {
		all = r.s.committedItems()
	}
	out := make([]*entity.StockItem, 0, len(all))
	for _, it := range all {
		if !filter.IncludeArchived && it.Archived() {
			continue
		}
		if filter.Category != "" && it.Category != filter.Category {
			continue
		}
		if filter.Search != "" {
			barcode := ""
			if it.Barcode != nil {
				barcode = *it.Barcode
			}
			if !domainstock.Matches(filter.Search, it.Name, barcode, it.Supplier) {
				continue
			}
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := domainstock.Fold(out[i].Name), domainstock.Fold(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
