package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// tx escrituras pendientes de una transacción. Cada artículo escrito queda
// bloqueado hasta release, así nadie más puede modificarlo antes del commit.
type tx struct {
	s        *Store
	readOnly bool
	held     map[string]chan struct{}
	items    map[string]*entity.StockItem // nil = borrado en esta transacción
	movs     []*entity.Movement
}

func newTx(s *Store, readOnly bool) *tx {
	return &tx{
		s:        s,
		readOnly: readOnly,
		held:     make(map[string]chan struct{}),
		items:    make(map[string]*entity.StockItem),
	}
}

func (t *tx) acquire(ctx context.Context, id string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if _, ok := t.held[id]; ok {
		return nil
	}
	l, err := t.s.lock(ctx, id)
	if err != nil {
		return err
	}
	t.held[id] = l
	return nil
}

func (t *tx) release() {
	for id, l := range t.held {
		<-l
		delete(t.held, id)
	}
}

// item lectura con las escrituras propias visibles.
func (t *tx) item(id string) *entity.StockItem {
	if it, ok := t.items[id]; ok {
		return it.Clone()
	}
	return t.s.committedItem(id)
}

// view catálogo completo con las escrituras propias aplicadas.
func (t *tx) view() map[string]*entity.StockItem {
	all := t.s.committedItems()
	for id, it := range t.items {
		if it == nil {
			delete(all, id)
			continue
		}
		all[id] = it.Clone()
	}
	return all
}

func (t *tx) movements() []*entity.Movement {
	all := t.s.committedMovements()
	for _, m := range t.movs {
		c := *m
		all = append(all, &c)
	}
	return all
}

// commit aplica las escrituras. La unicidad del código de barras entre artículos
// activos se verifica aquí contra el estado confirmado, igual que el índice parcial en PostgreSQL.
func (t *tx) commit() error {
	if len(t.items) == 0 && len(t.movs) == 0 {
		return nil
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	owner := make(map[string]string)
	for id, it := range t.s.items {
		if _, touched := t.items[id]; touched {
			continue
		}
		if it.Barcode != nil && !it.Archived() {
			owner[*it.Barcode] = id
		}
	}
	for id, it := range t.items {
		if it == nil || it.Barcode == nil || it.Archived() {
			continue
		}
		if other, dup := owner[*it.Barcode]; dup && other != id {
			return domain.ErrDuplicate
		}
		owner[*it.Barcode] = id
	}

	for id, it := range t.items {
		if it == nil {
			delete(t.s.items, id)
			continue
		}
		t.s.items[id] = it
	}
	t.s.insertMovements(t.movs)
	return nil
}
