package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// Ensure TxRunner implements stock.TxRunner.
var _ stock.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	db TxBeginner
}

// NewTxRunner construye el runner con el pool (o un mock que implemente TxBeginner).
func NewTxRunner(db TxBeginner) *TxRunner {
	return &TxRunner{db: db}
}

type txFunc = func(items repository.StockItemRepository, movements repository.MovementRepository) error

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn txFunc) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	return finish(ctx, tx, fn)
}

// Snapshot ejecuta fn en una transacción REPEATABLE READ de solo lectura:
// catálogo y libro se leen desde la misma instantánea.
func (r *TxRunner) Snapshot(ctx context.Context, fn txFunc) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	return finish(ctx, tx, fn)
}

func finish(ctx context.Context, tx pgx.Tx, fn txFunc) error {
	if err := fn(NewStockItemRepository(tx), NewMovementRepository(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		// Un fallo de serialización al confirmar se reporta como conflicto reintentable.
		return mapError("commit transaction", err)
	}
	return nil
}
