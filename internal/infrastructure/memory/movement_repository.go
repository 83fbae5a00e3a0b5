package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	domainstock "github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

var _ repository.MovementRepository = (*movementRepo)(nil)

type movementRepo struct {
	s  *Store
	tx *tx
}

// Create asigna Seq al crear (como bigserial: una transacción revertida deja un hueco).
func (r *movementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if r.tx == nil {
		return r.s.run(ctx, false, func(t *tx) error {
			return (&movementRepo{s: r.s, tx: t}).Create(ctx, m)
		})
	}
	if r.tx.readOnly {
		return ErrReadOnly
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.Seq = r.s.seq.Add(1)
	c := *m
	r.tx.movs = append(r.tx.movs, &c)
	return nil
}

func (r *movementRepo) all() []*entity.Movement {
	if r.tx != nil {
		return r.tx.movements()
	}
	return r.s.committedMovements()
}

func (r *movementRepo) names() map[string]string {
	var items map[string]*entity.StockItem
	if r.tx != nil {
		items = r.tx.view()
	} else {
		items = r.s.committedItems()
	}
	out := make(map[string]string, len(items))
	for id, it := range items {
		out[id] = it.Name
	}
	return out
}

// List del más reciente al más antiguo (created_at DESC, seq DESC). ItemName es el
// nombre actual del artículo.
func (r *movementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	names := r.names()
	matched := make([]*entity.Movement, 0)
	for _, m := range r.all() {
		if n, ok := names[m.ItemID]; ok {
			m.ItemName = n
		}
		if !matches(m, f) {
			continue
		}
		matched = append(matched, m)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Seq > b.Seq
	})
	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[f.Offset:]
		}
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func matches(m *entity.Movement, f repository.MovementFilter) bool {
	if f.ItemID != "" && m.ItemID != f.ItemID {
		return false
	}
	switch f.Kind {
	case "":
	case entity.MovementFilterExitOrConsumption:
		if m.Kind != entity.MovementExit && m.Kind != entity.MovementConsumption {
			return false
		}
	default:
		if m.Kind != f.Kind {
			return false
		}
	}
	if f.ExitKind != "" && m.ExitKind != f.ExitKind {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !m.CreatedAt.Before(*f.To) {
		return false
	}
	if f.Search != "" && !domainstock.Matches(f.Search, m.ItemName) {
		return false
	}
	return true
}

func (r *movementRepo) ListByItemAsc(ctx context.Context, itemID string) ([]*entity.Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*entity.Movement, 0)
	for _, m := range r.all() {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *movementRepo) CountByItem(ctx context.Context, itemID string) (int, error) {
	list, err := r.ListByItemAsc(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}
