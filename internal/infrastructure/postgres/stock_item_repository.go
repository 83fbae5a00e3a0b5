package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	domainstock "github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

const itemColumns = `id, name, category, unit, unit_price, quantity, critical_threshold,
	purchase_date, expiration_date, supplier, location, barcode, notes, version,
	created_at, updated_at, deleted_at`

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador del catálogo. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

// validID los ids son UUID; cualquier otro valor no puede existir en la tabla.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// searchKey concatena los campos buscables ya normalizados.
func searchKey(item *entity.StockItem) string {
	parts := []string{domainstock.Fold(item.Name), domainstock.Fold(item.Supplier)}
	if item.Barcode != nil {
		parts = append(parts, domainstock.Fold(*item.Barcode))
	}
	return strings.Join(parts, " ")
}

// likePattern arma un patrón "contiene" escapando los comodines de LIKE.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(domainstock.Fold(search)) + "%"
}

func scanItem(row pgx.Row) (*entity.StockItem, error) {
	var it entity.StockItem
	err := row.Scan(
		&it.ID, &it.Name, &it.Category, &it.Unit, &it.UnitPrice, &it.Quantity, &it.CriticalThreshold,
		&it.PurchaseDate, &it.ExpirationDate, &it.Supplier, &it.Location, &it.Barcode, &it.Notes, &it.Version,
		&it.CreatedAt, &it.UpdatedAt, &it.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Create inserta un artículo nuevo.
func (r *StockItemRepo) Create(ctx context.Context, item *entity.StockItem) error {
	query := `
		INSERT INTO stock_items (id, name, name_key, search_key, category, unit, unit_price, quantity,
			critical_threshold, purchase_date, expiration_date, supplier, location, barcode, notes,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.Name, domainstock.Fold(item.Name), searchKey(item), item.Category, item.Unit,
		item.UnitPrice, item.Quantity, item.CriticalThreshold, item.PurchaseDate, item.ExpirationDate,
		item.Supplier, item.Location, item.Barcode, item.Notes, item.Version, item.CreatedAt, item.UpdatedAt,
	)
	return mapError("create stock item", err)
}

func (r *StockItemRepo) getOne(ctx context.Context, op, where string, args ...any) (*entity.StockItem, error) {
	query := `SELECT ` + itemColumns + ` FROM stock_items WHERE ` + where
	it, err := scanItem(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return it, nil
}

// GetByID obtiene un artículo por ID (incluye archivados). Devuelve (nil, nil) si no existe.
func (r *StockItemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, "get stock item", `id = $1`, id)
}

// GetForUpdate obtiene el artículo y bloquea la fila (SELECT FOR UPDATE).
// La espera está acotada por lock_timeout; al vencer se devuelve ErrConflict.
func (r *StockItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, "get stock item for update", `id = $1 FOR UPDATE`, id)
}

// GetByBarcode busca entre los artículos activos; los archivados no reservan el código.
func (r *StockItemRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.StockItem, error) {
	return r.getOne(ctx, "get stock item by barcode", `barcode = $1 AND deleted_at IS NULL`, barcode)
}

// Update modifica atributos de catálogo con bloqueo optimista sobre version.
// La cantidad no se toca: solo cambia vía UpdateQuantity.
func (r *StockItemRepo) Update(ctx context.Context, item *entity.StockItem) error {
	if !validID(item.ID) {
		return domain.ErrConflict
	}
	query := `
		UPDATE stock_items SET name = $3, name_key = $4, search_key = $5, category = $6, unit = $7,
			unit_price = $8, critical_threshold = $9, purchase_date = $10, expiration_date = $11,
			supplier = $12, location = $13, barcode = $14, notes = $15, updated_at = $16,
			version = version + 1
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL
		RETURNING version`
	var version int64
	err := r.q.QueryRow(ctx, query,
		item.ID, item.Version, item.Name, domainstock.Fold(item.Name), searchKey(item), item.Category,
		item.Unit, item.UnitPrice, item.CriticalThreshold, item.PurchaseDate, item.ExpirationDate,
		item.Supplier, item.Location, item.Barcode, item.Notes, item.UpdatedAt,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrConflict
		}
		return mapError("update stock item", err)
	}
	item.Version = version
	return nil
}

// UpdateQuantity compare-and-set: solo actualiza si la cantidad almacenada sigue siendo from.
func (r *StockItemRepo) UpdateQuantity(ctx context.Context, id string, from, to decimal.Decimal, at time.Time) error {
	if !validID(id) {
		return domain.ErrConflict
	}
	query := `
		UPDATE stock_items SET quantity = $3, updated_at = $4
		WHERE id = $1 AND quantity = $2 AND deleted_at IS NULL`
	tag, err := r.q.Exec(ctx, query, id, from, to, at)
	if err != nil {
		return mapError("update stock quantity", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// Archive aplica el borrado lógico; la fila y sus movimientos se conservan.
func (r *StockItemRepo) Archive(ctx context.Context, id string, version int64, at time.Time) error {
	if !validID(id) {
		return domain.ErrConflict
	}
	query := `
		UPDATE stock_items SET deleted_at = $3, updated_at = $3, version = version + 1
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL`
	tag, err := r.q.Exec(ctx, query, id, version, at)
	if err != nil {
		return mapError("archive stock item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// Delete elimina físicamente un artículo sin movimientos.
func (r *StockItemRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_items WHERE id = $1`, id)
	if err != nil {
		return mapError("delete stock item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List filtra por categoría y búsqueda normalizada; ordena por nombre normalizado.
func (r *StockItemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]*entity.StockItem, error) {
	var (
		conds []string
		args  []any
	)
	if !filter.IncludeArchived {
		conds = append(conds, "deleted_at IS NULL")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if strings.TrimSpace(filter.Search) != "" {
		args = append(args, likePattern(filter.Search))
		conds = append(conds, fmt.Sprintf("search_key LIKE $%d", len(args)))
	}
	query := `SELECT ` + itemColumns + ` FROM stock_items`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY name_key, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list stock items", err)
	}
	defer rows.Close()
	out := make([]*entity.StockItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
