package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

type RepositoryTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	items     *StockItemRepo
	movements *MovementRepo
	runner    *TxRunner
	itemID    string
	context   context.Context
}

func (suite *RepositoryTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.items = NewStockItemRepository(mock)
	suite.movements = NewMovementRepository(mock)
	suite.runner = NewTxRunner(mock)
	suite.itemID = uuid.New().String()
	suite.context = context.Background()
}

func (suite *RepositoryTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func anyArgs(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = pgxmock.AnyArg()
	}
	return out
}

func (suite *RepositoryTestSuite) TestGetByID_IDInvalidoNoConsulta() {
	it, err := suite.items.GetByID(suite.context, "no-es-uuid")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), it)
}

func (suite *RepositoryTestSuite) TestGetByID_NoExiste() {
	suite.mock.ExpectQuery(`SELECT .+ FROM stock_items WHERE id = \$1`).
		WithArgs(suite.itemID).
		WillReturnError(pgx.ErrNoRows)

	it, err := suite.items.GetByID(suite.context, suite.itemID)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), it)
}

func (suite *RepositoryTestSuite) TestGetForUpdate_LockTimeoutEsConflicto() {
	suite.mock.ExpectQuery(`SELECT .+ FROM stock_items WHERE id = \$1 FOR UPDATE`).
		WithArgs(suite.itemID).
		WillReturnError(&pgconn.PgError{Code: codeLockNotAvailable})

	_, err := suite.items.GetForUpdate(suite.context, suite.itemID)
	assert.ErrorIs(suite.T(), err, domain.ErrConflict)
}

func (suite *RepositoryTestSuite) TestCreate_BarcodeDuplicado() {
	barcode := "7790001"
	item := &entity.StockItem{
		ID: suite.itemID, Name: "Arroz", Category: entity.CategoryGrains, Unit: "kg",
		Barcode: &barcode, Version: 1,
	}
	suite.mock.ExpectExec(`INSERT INTO stock_items`).
		WithArgs(anyArgs(18)...).
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})

	err := suite.items.Create(suite.context, item)
	assert.ErrorIs(suite.T(), err, domain.ErrDuplicate)
}

func (suite *RepositoryTestSuite) TestGetByBarcode_SoloActivos() {
	suite.mock.ExpectQuery(`SELECT .+ FROM stock_items WHERE barcode = \$1 AND deleted_at IS NULL`).
		WithArgs("7790001").
		WillReturnError(pgx.ErrNoRows)

	it, err := suite.items.GetByBarcode(suite.context, "7790001")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), it)
}

func (suite *RepositoryTestSuite) TestUpdate_DevuelveNuevaVersion() {
	item := &entity.StockItem{ID: suite.itemID, Name: "Arroz largo", Category: entity.CategoryGrains, Unit: "kg", Version: 3}
	suite.mock.ExpectQuery(`UPDATE stock_items SET name = \$3`).
		WithArgs(anyArgs(16)...).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(int64(4)))

	err := suite.items.Update(suite.context, item)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(4), item.Version)
}

func (suite *RepositoryTestSuite) TestUpdate_VersionObsoleta() {
	item := &entity.StockItem{ID: suite.itemID, Name: "Arroz", Version: 1}
	suite.mock.ExpectQuery(`UPDATE stock_items SET name = \$3`).
		WithArgs(anyArgs(16)...).
		WillReturnError(pgx.ErrNoRows)

	err := suite.items.Update(suite.context, item)
	assert.ErrorIs(suite.T(), err, domain.ErrConflict)
	assert.Equal(suite.T(), int64(1), item.Version)
}

func (suite *RepositoryTestSuite) TestUpdateQuantity_CompareAndSet() {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	suite.mock.ExpectExec(`UPDATE stock_items SET quantity = \$3, updated_at = \$4`).
		WithArgs(suite.itemID, pgxmock.AnyArg(), pgxmock.AnyArg(), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`UPDATE stock_items SET quantity = \$3, updated_at = \$4`).
		WithArgs(suite.itemID, pgxmock.AnyArg(), pgxmock.AnyArg(), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.items.UpdateQuantity(suite.context, suite.itemID, decimal.NewFromInt(10), decimal.NewFromInt(7), at)
	assert.NoError(suite.T(), err)

	err = suite.items.UpdateQuantity(suite.context, suite.itemID, decimal.NewFromInt(10), decimal.NewFromInt(4), at)
	assert.ErrorIs(suite.T(), err, domain.ErrConflict)
}

func (suite *RepositoryTestSuite) TestArchive_SinFilasEsConflicto() {
	at := time.Now().UTC()
	suite.mock.ExpectExec(`UPDATE stock_items SET deleted_at = \$3`).
		WithArgs(suite.itemID, int64(2), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.items.Archive(suite.context, suite.itemID, 2, at)
	assert.ErrorIs(suite.T(), err, domain.ErrConflict)
}

func (suite *RepositoryTestSuite) TestDelete() {
	suite.mock.ExpectExec(`DELETE FROM stock_items WHERE id = \$1`).
		WithArgs(suite.itemID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectExec(`DELETE FROM stock_items WHERE id = \$1`).
		WithArgs(suite.itemID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(suite.T(), suite.items.Delete(suite.context, suite.itemID))
	assert.ErrorIs(suite.T(), suite.items.Delete(suite.context, suite.itemID), domain.ErrNotFound)
	assert.ErrorIs(suite.T(), suite.items.Delete(suite.context, "x"), domain.ErrNotFound)
}

func (suite *RepositoryTestSuite) TestMovementCreate_AsignaSeqEID() {
	m := &entity.Movement{
		ItemID: suite.itemID, Kind: entity.MovementConsumption,
		Delta: decimal.NewFromInt(-3), BalanceAfter: decimal.NewFromInt(7),
		ActorID: "u1", CreatedAt: time.Now().UTC(),
	}
	suite.mock.ExpectQuery(`INSERT INTO stock_movements .+ RETURNING seq`).
		WithArgs(anyArgs(10)...).
		WillReturnRows(pgxmock.NewRows([]string{"seq"}).AddRow(int64(42)))

	err := suite.movements.Create(suite.context, m)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(42), m.Seq)
	_, perr := uuid.Parse(m.ID)
	assert.NoError(suite.T(), perr)
}

func (suite *RepositoryTestSuite) TestCountByItem() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM stock_movements WHERE item_id = \$1`).
		WithArgs(suite.itemID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	n, err := suite.movements.CountByItem(suite.context, suite.itemID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, n)
}

func (suite *RepositoryTestSuite) TestMovementList_PaginaVaciaConTotal() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM stock_movements m JOIN stock_items i`).
		WithArgs(suite.itemID, entity.ExitDonation).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))
	suite.mock.ExpectQuery(`ORDER BY m.created_at DESC, m.seq DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(suite.itemID, entity.ExitDonation, 5, 15).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "seq", "item_id", "name", "kind", "exit_kind", "delta", "balance_after",
			"destination", "reason", "actor_id", "created_at",
		}))

	list, total, err := suite.movements.List(suite.context, repository.MovementFilter{
		ItemID: suite.itemID, Kind: entity.MovementFilterExitOrConsumption, ExitKind: entity.ExitDonation,
		Limit: 5, Offset: 15,
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 12, total)
	assert.Empty(suite.T(), list)
}

func (suite *RepositoryTestSuite) TestTxRunner_CommitYRollback() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`DELETE FROM stock_items`).
		WithArgs(suite.itemID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectCommit()

	err := suite.runner.Run(suite.context, func(items repository.StockItemRepository, _ repository.MovementRepository) error {
		return items.Delete(suite.context, suite.itemID)
	})
	assert.NoError(suite.T(), err)

	boom := errors.New("boom")
	suite.mock.ExpectBegin()
	suite.mock.ExpectRollback()
	err = suite.runner.Run(suite.context, func(repository.StockItemRepository, repository.MovementRepository) error {
		return boom
	})
	assert.ErrorIs(suite.T(), err, boom)
}

func (suite *RepositoryTestSuite) TestTxRunner_CommitSerializacionEsConflicto() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: codeSerializationFailure})

	err := suite.runner.Run(suite.context, func(repository.StockItemRepository, repository.MovementRepository) error {
		return nil
	})
	assert.ErrorIs(suite.T(), err, domain.ErrConflict)
}

func (suite *RepositoryTestSuite) TestTxRunner_SnapshotSoloLectura() {
	suite.mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	suite.mock.ExpectCommit()

	err := suite.runner.Snapshot(suite.context, func(repository.StockItemRepository, repository.MovementRepository) error {
		return nil
	})
	assert.NoError(suite.T(), err)
}

func (suite *RepositoryTestSuite) TestMigrate() {
	suite.mock.ExpectExec(`CREATE TABLE IF NOT EXISTS stock_items`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(suite.T(), Migrate(suite.context, suite.mock))
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("op", nil))
	assert.ErrorIs(t, mapError("op", &pgconn.PgError{Code: codeDeadlockDetected}), domain.ErrConflict)
	assert.ErrorIs(t, mapError("op", &pgconn.PgError{Code: codeUniqueViolation}), domain.ErrDuplicate)
	other := errors.New("conexión cerrada")
	assert.ErrorIs(t, mapError("op", other), other)
}

func TestLikePattern_EscapaComodines(t *testing.T) {
	assert.Equal(t, `%lentilles epicees%`, likePattern("  Lentilles Épicées "))
	assert.Equal(t, `%50\% off\_x%`, likePattern("50% OFF_x"))
}
