package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// MovementFilter criterios del historial. Kind acepta además el filtro combinado
// entity.MovementFilterExitOrConsumption. From es inclusivo y To exclusivo.
// Limit <= 0 significa sin límite.
type MovementFilter struct {
	ItemID   string
	Kind     string
	ExitKind string
	Search   string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// MovementRepository define el puerto del libro de movimientos: solo inserción y lectura.
// No existe Update ni Delete.
type MovementRepository interface {
	// Create persiste el movimiento y le asigna Seq (y ID si viene vacío).
	Create(ctx context.Context, m *entity.Movement) error
	// List devuelve movimientos del más reciente al más antiguo y el total sin paginar.
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, int, error)
	// ListByItemAsc devuelve todos los movimientos de un artículo en orden de aplicación (Seq ascendente).
	ListByItemAsc(ctx context.Context, itemID string) ([]*entity.Movement, error)
	CountByItem(ctx context.Context, itemID string) (int, error)
}
