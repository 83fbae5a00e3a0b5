// Package memory implementa los puertos de persistencia en memoria del proceso.
// Se usa con STORAGE_DRIVER=memory (modo local sin base de datos) y en los tests
// de casos de uso. Reproduce las garantías del adaptador PostgreSQL: bloqueo por
// artículo hasta el fin de la transacción, escrituras confirmadas de forma atómica
// y lectura consistente para respaldos.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ stock.TxRunner = (*Store)(nil)

// ErrReadOnly escritura dentro de un Snapshot.
var ErrReadOnly = errors.New("memory: transacción de solo lectura")

// Store datos confirmados más los bloqueos por artículo.
type Store struct {
	// gate: las transacciones toman RLock; Snapshot toma Lock para ver un estado sin escrituras en curso.
	gate sync.RWMutex

	mu        sync.RWMutex
	items     map[string]*entity.StockItem
	movements []*entity.Movement // Seq ascendente

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	seq atomic.Int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		items: make(map[string]*entity.StockItem),
		locks: make(map[string]chan struct{}),
	}
}

// Items repositorio de catálogo fuera de transacción (cada escritura se confirma sola).
func (s *Store) Items() repository.StockItemRepository { return &itemRepo{s: s} }

// Movements repositorio del libro fuera de transacción.
func (s *Store) Movements() repository.MovementRepository { return &movementRepo{s: s} }

// Run ejecuta fn en una transacción. Si fn devuelve error no se aplica ninguna escritura.
func (s *Store) Run(ctx context.Context, fn func(
	items repository.StockItemRepository,
	movements repository.MovementRepository,
) error) error {
	return s.run(ctx, false, func(t *tx) error {
		return fn(&itemRepo{s: s, tx: t}, &movementRepo{s: s, tx: t})
	})
}

// Snapshot ejecuta fn con acceso exclusivo de lectura: espera a que terminen las
// transacciones en curso y bloquea nuevas hasta que fn retorna.
func (s *Store) Snapshot(ctx context.Context, fn func(
	items repository.StockItemRepository,
	movements repository.MovementRepository,
) error) error {
	return s.run(ctx, true, func(t *tx) error {
		return fn(&itemRepo{s: s, tx: t}, &movementRepo{s: s, tx: t})
	})
}

func (s *Store) run(ctx context.Context, readOnly bool, fn func(t *tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if readOnly {
		s.gate.Lock()
		defer s.gate.Unlock()
	} else {
		s.gate.RLock()
		defer s.gate.RUnlock()
	}
	t := newTx(s, readOnly)
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	if readOnly {
		return nil
	}
	return t.commit()
}

// lock adquiere el bloqueo del artículo id respetando la cancelación del contexto.
func (s *Store) lock(ctx context.Context, id string) (chan struct{}, error) {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	s.locksMu.Unlock()
	select {
	case l <- struct{}{}:
		return l, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) committedItem(id string) *entity.StockItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if it, ok := s.items[id]; ok {
		return it.Clone()
	}
	return nil
}

func (s *Store) committedItems() map[string]*entity.StockItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*entity.StockItem, len(s.items))
	for id, it := range s.items {
		out[id] = it.Clone()
	}
	return out
}

func (s *Store) committedMovements() []*entity.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Movement, len(s.movements))
	for i, m := range s.movements {
		c := *m
		out[i] = &c
	}
	return out
}

// insertMovements agrega manteniendo el orden por Seq (s.mu tomado).
func (s *Store) insertMovements(ms []*entity.Movement) {
	if len(ms) == 0 {
		return
	}
	s.movements = append(s.movements, ms...)
	sort.SliceStable(s.movements, func(i, j int) bool { return s.movements[i].Seq < s.movements[j].Seq })
}
