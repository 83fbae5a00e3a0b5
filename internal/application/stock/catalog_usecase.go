package stock

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	domainstock "github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// Resultados de Delete.
const (
	DeleteResultDeleted  = "deleted"
	DeleteResultArchived = "archived"
)

// CatalogUseCase CRUD del catálogo. La cantidad solo cambia vía LedgerUseCase;
// la existencia inicial de un alta se registra como movimiento addition.
type CatalogUseCase struct {
	txRunner  TxRunner
	items     repository.StockItemRepository
	movements repository.MovementRepository
	cfg       Config
	now       Clock
	log       zerolog.Logger
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(
	txRunner TxRunner,
	items repository.StockItemRepository,
	movements repository.MovementRepository,
	cfg Config,
	log zerolog.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		txRunner:  txRunner,
		items:     items,
		movements: movements,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
		log:       log.With().Str("component", "catalog").Logger(),
	}
}

// WithClock reemplaza la fuente de tiempo (tests).
func (uc *CatalogUseCase) WithClock(c Clock) *CatalogUseCase {
	uc.now = c
	return uc
}

// Create da de alta un artículo. Si Quantity > 0 se registra un movimiento addition
// en la misma transacción para que el libro reproduzca la cantidad desde cero.
func (uc *CatalogUseCase) Create(ctx context.Context, actorID string, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if in.PurchaseDate != nil && in.ExpirationDate != nil && in.ExpirationDate.Before(in.PurchaseDate.Time) {
		return nil, domain.NewValidationError("expiration_date", "gtefield=purchase_date")
	}
	now := uc.now()
	item := &entity.StockItem{
		ID:                uuid.New().String(),
		Name:              strings.TrimSpace(in.Name),
		Category:          in.Category,
		Unit:              in.Unit,
		UnitPrice:         in.UnitPrice,
		Quantity:          in.Quantity,
		CriticalThreshold: in.CriticalThreshold,
		PurchaseDate:      in.PurchaseDate.Ptr(),
		ExpirationDate:    in.ExpirationDate.Ptr(),
		Supplier:          strings.TrimSpace(in.Supplier),
		Location:          strings.TrimSpace(in.Location),
		Barcode:           barcodePtr(in.Barcode),
		Notes:             in.Notes,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := uc.txRunner.Run(ctx, func(items repository.StockItemRepository, movements repository.MovementRepository) error {
		if item.Barcode != nil {
			existing, err := items.GetByBarcode(ctx, *item.Barcode)
			if err != nil {
				return err
			}
			if existing != nil {
				return domain.ErrDuplicate
			}
		}
		if err := items.Create(ctx, item); err != nil {
			return err
		}
		if item.Quantity.IsPositive() {
			return movements.Create(ctx, &entity.Movement{
				ID:           uuid.New().String(),
				ItemID:       item.ID,
				ItemName:     item.Name,
				Kind:         entity.MovementAddition,
				Delta:        item.Quantity,
				BalanceAfter: item.Quantity,
				Reason:       "existencia inicial",
				ActorID:      actorID,
				CreatedAt:    now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("item_id", item.ID).Str("name", item.Name).Str("quantity", item.Quantity.String()).Msg("artículo creado")
	r := toItemResponse(item, now, uc.cfg.policy())
	return &r, nil
}

// Import crea varios artículos; cada fila se procesa de forma independiente.
func (uc *CatalogUseCase) Import(ctx context.Context, actorID string, in dto.ImportItemsRequest) (*dto.ImportResult, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if len(in.Items) > uc.cfg.BatchMaxItems {
		return nil, domain.NewValidationError("items", "max="+strconv.Itoa(uc.cfg.BatchMaxItems))
	}
	res := &dto.ImportResult{Created: []dto.ItemResponse{}, Failed: []dto.ImportFailure{}}
	for i, row := range in.Items {
		created, err := uc.Create(ctx, actorID, row)
		if err != nil {
			res.Failed = append(res.Failed, dto.ImportFailure{Index: i, Name: row.Name, Code: domain.Code(err), Message: err.Error()})
			continue
		}
		res.Created = append(res.Created, *created)
	}
	res.Successful = len(res.Created)
	uc.log.Info().Int("created", res.Successful).Int("failed", len(res.Failed)).Msg("importación de catálogo")
	return res, nil
}

// Get obtiene un artículo activo.
func (uc *CatalogUseCase) Get(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.active(ctx, id)
	if err != nil {
		return nil, err
	}
	r := toItemResponse(item, uc.now(), uc.cfg.policy())
	return &r, nil
}

// GetByBarcode obtiene un artículo activo por código de barras.
func (uc *CatalogUseCase) GetByBarcode(ctx context.Context, barcode string) (*dto.ItemResponse, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.NewValidationError("barcode", "required")
	}
	item, err := uc.items.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Archived() {
		return nil, domain.ErrNotFound
	}
	r := toItemResponse(item, uc.now(), uc.cfg.policy())
	return &r, nil
}

// Update modifica atributos del catálogo. No toca la cantidad ni requiere el bloqueo del libro;
// el control de versión evita pisar una edición o un borrado concurrente.
func (uc *CatalogUseCase) Update(ctx context.Context, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	item, err := uc.active(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Version != nil && *in.Version != item.Version {
		return nil, domain.ErrConflict
	}
	if in.Name != nil {
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		item.Category = *in.Category
	}
	if in.Unit != nil {
		item.Unit = *in.Unit
	}
	if in.UnitPrice != nil {
		item.UnitPrice = *in.UnitPrice
	}
	if in.CriticalThreshold != nil {
		item.CriticalThreshold = *in.CriticalThreshold
	}
	if in.PurchaseDate != nil {
		item.PurchaseDate = in.PurchaseDate.Ptr()
	}
	if in.ExpirationDate != nil {
		item.ExpirationDate = in.ExpirationDate.Ptr()
	}
	if in.Supplier != nil {
		item.Supplier = strings.TrimSpace(*in.Supplier)
	}
	if in.Location != nil {
		item.Location = strings.TrimSpace(*in.Location)
	}
	if in.Notes != nil {
		item.Notes = *in.Notes
	}
	if in.Barcode != nil {
		item.Barcode = barcodePtr(*in.Barcode)
		if item.Barcode != nil {
			other, err := uc.items.GetByBarcode(ctx, *item.Barcode)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != item.ID {
				return nil, domain.ErrDuplicate
			}
		}
	}
	if item.PurchaseDate != nil && item.ExpirationDate != nil && item.ExpirationDate.Before(*item.PurchaseDate) {
		return nil, domain.NewValidationError("expiration_date", "gtefield=purchase_date")
	}
	item.UpdatedAt = uc.now()
	if err := uc.items.Update(ctx, item); err != nil {
		return nil, err
	}
	r := toItemResponse(item, item.UpdatedAt, uc.cfg.policy())
	return &r, nil
}

// Delete aplica la política de borrado: un artículo sin movimientos se elimina;
// uno con movimientos se archiva (se oculta del catálogo, rechaza nuevos movimientos
// y conserva su historial). Los movimientos nunca se borran.
func (uc *CatalogUseCase) Delete(ctx context.Context, id string) (*dto.DeleteItemResponse, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "required")
	}
	result := ""
	err := uc.txRunner.Run(ctx, func(items repository.StockItemRepository, movements repository.MovementRepository) error {
		// Bloquea la fila: ningún movimiento puede confirmarse durante el borrado.
		item, err := items.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil || item.Archived() {
			return domain.ErrNotFound
		}
		n, err := movements.CountByItem(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			result = DeleteResultDeleted
			return items.Delete(ctx, id)
		}
		result = DeleteResultArchived
		return items.Archive(ctx, id, item.Version, uc.now())
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("item_id", id).Str("result", result).Msg("artículo dado de baja")
	return &dto.DeleteItemResponse{ID: id, Result: result}, nil
}

// List consulta el stock actual filtrando por estado derivado, categoría y texto libre.
// El estado se calcula en cada lectura, por eso la paginación se aplica después del filtro.
func (uc *CatalogUseCase) List(ctx context.Context, q dto.ItemQuery) (*dto.ItemListResponse, error) {
	ve := &domain.ValidationError{}
	if q.Status != "" && !domainstock.IsValidStatus(q.Status) {
		ve.Add("status", "oneof=available expiring-soon low expired critical")
	}
	if q.Category != "" && !entity.IsValidCategory(q.Category) {
		ve.Add("category", "category")
	}
	size := uc.cfg.PageSize
	if q.Page < 0 {
		ve.Add("page", "min=1")
	}
	if q.Page > dto.MaxPage(size) {
		ve.Add("page", "max="+strconv.Itoa(dto.MaxPage(size)))
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	page := q.Page
	if page == 0 {
		page = 1
	}
	list, err := uc.items.List(ctx, repository.ItemFilter{Category: q.Category, Search: q.Search})
	if err != nil {
		return nil, err
	}
	now := uc.now()
	policy := uc.cfg.policy()
	all := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		r := toItemResponse(it, now, policy)
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		all = append(all, r)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return domainstock.Fold(all[i].Name) < domainstock.Fold(all[j].Name)
	})
	start := (page - 1) * size
	end := start + size
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return &dto.ItemListResponse{
		Items: all[start:end],
		Page:  dto.NewPageResponse(page, size, len(all)),
	}, nil
}

func (uc *CatalogUseCase) active(ctx context.Context, id string) (*entity.StockItem, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "required")
	}
	item, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Archived() {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func barcodePtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
