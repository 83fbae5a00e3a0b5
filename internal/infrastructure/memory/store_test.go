package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newItem(id, name string, qty int64) *entity.StockItem {
	return &entity.StockItem{
		ID:        id,
		Name:      name,
		Category:  entity.CategoryGrains,
		Unit:      "kg",
		Quantity:  decimal.NewFromInt(qty),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStore_RollbackNoAplicaEscrituras(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(items repository.StockItemRepository, movs repository.MovementRepository) error {
		require.NoError(t, items.Create(ctx, newItem("a", "Arroz", 5)))
		require.NoError(t, movs.Create(ctx, &entity.Movement{ItemID: "a", Kind: entity.MovementAddition, Delta: decimal.NewFromInt(5), BalanceAfter: decimal.NewFromInt(5), CreatedAt: now}))

		got, err := items.GetByID(ctx, "a")
		require.NoError(t, err)
		require.NotNil(t, got, "la transacción ve sus propias escrituras")
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Items().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
	n, err := s.Movements().CountByItem(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_UpdateQuantityCompareAndSet(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, s.Items().Create(ctx, newItem("a", "Arroz", 5)))

	err := s.Items().UpdateQuantity(ctx, "a", decimal.NewFromInt(4), decimal.NewFromInt(1), now)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, s.Items().UpdateQuantity(ctx, "a", decimal.NewFromInt(5), decimal.NewFromInt(2), now))
	got, err := s.Items().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(2)))
}

func TestStore_UpdateSoloAtributosYVersion(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, s.Items().Create(ctx, newItem("a", "Arroz", 5)))

	edit := newItem("a", "Arroz largo", 999)
	require.NoError(t, s.Items().Update(ctx, edit))
	assert.Equal(t, int64(2), edit.Version)

	got, err := s.Items().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Arroz largo", got.Name)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(5)), "Update no modifica la cantidad")

	stale := newItem("a", "Otro", 0)
	assert.ErrorIs(t, s.Items().Update(ctx, stale), domain.ErrConflict)
}

func TestStore_ArchiveYDelete(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, s.Items().Create(ctx, newItem("a", "Arroz", 5)))
	require.NoError(t, s.Items().Create(ctx, newItem("b", "Sal", 0)))

	assert.ErrorIs(t, s.Items().Archive(ctx, "a", 7, now), domain.ErrConflict)
	require.NoError(t, s.Items().Archive(ctx, "a", 1, now))
	require.NoError(t, s.Items().Delete(ctx, "b"))
	assert.ErrorIs(t, s.Items().Delete(ctx, "b"), domain.ErrNotFound)

	active, err := s.Items().List(ctx, repository.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := s.Items().List(ctx, repository.ItemFilter{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Archived())
	assert.ErrorIs(t, s.Items().UpdateQuantity(ctx, "a", decimal.NewFromInt(5), decimal.NewFromInt(4), now), domain.ErrConflict)
}

func TestStore_CodigoDeBarrasUnicoAlConfirmar(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	code := "7790001"
	a := newItem("a", "Leche", 1)
	a.Barcode = &code
	require.NoError(t, s.Items().Create(ctx, a))

	b := newItem("b", "Leche 2", 1)
	b.Barcode = &code
	assert.ErrorIs(t, s.Items().Create(ctx, b), domain.ErrDuplicate)

	got, err := s.Items().GetByBarcode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}

func TestStore_ArchivadoLiberaCodigoDeBarras(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	code := "7790001"
	a := newItem("a", "Leche", 1)
	a.Barcode = &code
	require.NoError(t, s.Items().Create(ctx, a))
	require.NoError(t, s.Items().Archive(ctx, "a", 1, now))

	got, err := s.Items().GetByBarcode(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, got)

	b := newItem("b", "Leche nueva", 1)
	b.Barcode = &code
	require.NoError(t, s.Items().Create(ctx, b))
	got, err = s.Items().GetByBarcode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
}

func TestStore_GetForUpdateBloqueaHastaElFin(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, s.Items().Create(ctx, newItem("a", "Arroz", 5)))

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(items repository.StockItemRepository, _ repository.MovementRepository) error {
			_, err := items.GetForUpdate(ctx, "a")
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := s.Run(waitCtx, func(items repository.StockItemRepository, _ repository.MovementRepository) error {
		_, err := items.GetForUpdate(waitCtx, "a")
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, s.Run(ctx, func(items repository.StockItemRepository, _ repository.MovementRepository) error {
		_, err := items.GetForUpdate(ctx, "a")
		return err
	}), "el bloqueo se libera al terminar la transacción")
}

func TestStore_MovimientosOrdenYFiltros(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, s.Items().Create(ctx, newItem("a", "Azúcar", 0)))
	mk := func(kind, exit string, delta int64, at time.Time) *entity.Movement {
		return &entity.Movement{ItemID: "a", Kind: kind, ExitKind: exit, Delta: decimal.NewFromInt(delta), CreatedAt: at}
	}
	// Dos movimientos con el mismo instante: desempata Seq.
	require.NoError(t, s.Movements().Create(ctx, mk(entity.MovementAddition, "", 10, now)))
	require.NoError(t, s.Movements().Create(ctx, mk(entity.MovementConsumption, "", -2, now)))
	require.NoError(t, s.Movements().Create(ctx, mk(entity.MovementExit, entity.ExitLoss, -1, now.Add(time.Hour))))

	list, total, err := s.Movements().List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, entity.MovementExit, list[0].Kind)
	assert.Equal(t, entity.MovementConsumption, list[1].Kind)
	assert.Equal(t, entity.MovementAddition, list[2].Kind)
	assert.Equal(t, "Azúcar", list[0].ItemName)

	list, total, err = s.Movements().List(ctx, repository.MovementFilter{Search: "azucar", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, entity.MovementConsumption, list[0].Kind)

	to := now.Add(time.Hour)
	_, total, err = s.Movements().List(ctx, repository.MovementFilter{To: &to})
	require.NoError(t, err)
	assert.Equal(t, 2, total, "To es exclusivo")

	asc, err := s.Movements().ListByItemAsc(ctx, "a")
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Less(t, asc[0].Seq, asc[1].Seq)
	assert.Less(t, asc[1].Seq, asc[2].Seq)
}

func TestStore_SnapshotEsDeSoloLectura(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, s.Items().Create(ctx, newItem("a", "Arroz", 5)))

	err := s.Snapshot(ctx, func(items repository.StockItemRepository, _ repository.MovementRepository) error {
		list, err := items.List(ctx, repository.ItemFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 1)
		return items.UpdateQuantity(ctx, "a", decimal.NewFromInt(5), decimal.NewFromInt(1), now)
	})
	assert.ErrorIs(t, err, memory.ErrReadOnly)
}
