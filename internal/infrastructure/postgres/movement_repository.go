package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `m.id, m.seq, m.item_id, i.name, m.kind, m.exit_kind, m.delta, m.balance_after,
	m.destination, m.reason, m.actor_id, m.created_at`

// MovementRepo libro de movimientos sobre PostgreSQL. La tabla rechaza UPDATE y DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador del libro. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta el movimiento; seq la asigna la secuencia de la tabla.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, item_id, kind, exit_kind, delta, balance_after,
			destination, reason, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ItemID, m.Kind, m.ExitKind, m.Delta, m.BalanceAfter,
		m.Destination, m.Reason, m.ActorID, m.CreatedAt,
	).Scan(&m.Seq)
	return mapError("create movement", err)
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(
		&m.ID, &m.Seq, &m.ItemID, &m.ItemName, &m.Kind, &m.ExitKind, &m.Delta, &m.BalanceAfter,
		&m.Destination, &m.Reason, &m.ActorID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// movementWhere traduce el filtro a condiciones SQL con sus argumentos posicionales.
func movementWhere(f repository.MovementFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ItemID != "" {
		add("m.item_id = $%d", f.ItemID)
	}
	switch f.Kind {
	case "":
	case entity.MovementFilterExitOrConsumption:
		conds = append(conds, fmt.Sprintf("m.kind IN ('%s', '%s')", entity.MovementExit, entity.MovementConsumption))
	default:
		add("m.kind = $%d", f.Kind)
	}
	if f.ExitKind != "" {
		add("m.exit_kind = $%d", f.ExitKind)
	}
	if f.From != nil {
		add("m.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("m.created_at < $%d", *f.To)
	}
	if strings.TrimSpace(f.Search) != "" {
		add("i.name_key LIKE $%d", likePattern(f.Search))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List devuelve la página pedida (created_at DESC, seq DESC) y el total filtrado.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	if f.ItemID != "" && !validID(f.ItemID) {
		return []*entity.Movement{}, 0, nil
	}
	where, args := movementWhere(f)
	from := ` FROM stock_movements m JOIN stock_items i ON i.id = m.item_id`

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError("count movements", err)
	}

	query := `SELECT ` + movementColumns + from + where + ` ORDER BY m.created_at DESC, m.seq DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	list, err := r.query(ctx, "list movements", query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByItemAsc todos los movimientos del artículo en orden de aplicación.
func (r *MovementRepo) ListByItemAsc(ctx context.Context, itemID string) ([]*entity.Movement, error) {
	if !validID(itemID) {
		return []*entity.Movement{}, nil
	}
	query := `SELECT ` + movementColumns + `
		FROM stock_movements m JOIN stock_items i ON i.id = m.item_id
		WHERE m.item_id = $1 ORDER BY m.seq`
	return r.query(ctx, "list item movements", query, itemID)
}

func (r *MovementRepo) CountByItem(ctx context.Context, itemID string) (int, error) {
	if !validID(itemID) {
		return 0, nil
	}
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements WHERE item_id = $1`, itemID).Scan(&n)
	if err != nil {
		return 0, mapError("count item movements", err)
	}
	return n, nil
}

func (r *MovementRepo) query(ctx context.Context, op, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()
	out := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
