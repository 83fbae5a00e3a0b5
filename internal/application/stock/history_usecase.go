package stock

import (
	"context"
	"strconv"
	"strings"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// HistoryUseCase consulta el libro de movimientos.
type HistoryUseCase struct {
	items     repository.StockItemRepository
	movements repository.MovementRepository
	pageSize  int
}

// NewHistoryUseCase construye el caso de uso.
func NewHistoryUseCase(items repository.StockItemRepository, movements repository.MovementRepository, cfg Config) *HistoryUseCase {
	return &HistoryUseCase{items: items, movements: movements, pageSize: cfg.withDefaults().PageSize}
}

// Global devuelve el historial de todos los artículos, del más reciente al más antiguo.
func (uc *HistoryUseCase) Global(ctx context.Context, q dto.HistoryQuery) (*dto.MovementListResponse, error) {
	return uc.list(ctx, "", q)
}

// ForItem devuelve el historial de un artículo. Los artículos archivados conservan su historial.
func (uc *HistoryUseCase) ForItem(ctx context.Context, itemID string, q dto.HistoryQuery) (*dto.MovementListResponse, error) {
	if itemID == "" {
		return nil, domain.NewValidationError("id", "required")
	}
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return uc.list(ctx, itemID, q)
}

func (uc *HistoryUseCase) list(ctx context.Context, itemID string, q dto.HistoryQuery) (*dto.MovementListResponse, error) {
	filter, page, err := uc.filter(itemID, q)
	if err != nil {
		return nil, err
	}
	list, total, err := uc.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Items: toMovementResponses(list),
		Page:  dto.NewPageResponse(page, uc.pageSize, total),
	}, nil
}

// filter traduce la consulta HTTP. "to" es una fecha inclusiva: se convierte en el
// inicio del día siguiente para el límite exclusivo del repositorio.
func (uc *HistoryUseCase) filter(itemID string, q dto.HistoryQuery) (repository.MovementFilter, int, error) {
	ve := &domain.ValidationError{}
	kind := strings.TrimSpace(q.Kind)
	if kind != "" && kind != entity.MovementFilterExitOrConsumption && !entity.IsValidMovementKind(kind) {
		ve.Add("kind", "oneof=addition consumption exit correction exit+consumption")
	}
	exitKind := strings.TrimSpace(q.ExitKind)
	if exitKind != "" && !entity.IsValidExitKind(exitKind) {
		ve.Add("exit_kind", "exit_kind")
	}
	f := repository.MovementFilter{ItemID: itemID, Kind: kind, ExitKind: exitKind, Search: strings.TrimSpace(q.Search)}
	if q.From != "" {
		t, err := dto.ParseDate(q.From)
		if err != nil {
			ve.Add("from", "date")
		} else {
			f.From = &t
		}
	}
	if q.To != "" {
		t, err := dto.ParseDate(q.To)
		if err != nil {
			ve.Add("to", "date")
		} else {
			end := t.AddDate(0, 0, 1)
			f.To = &end
		}
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		ve.Add("to", "gtefield=from")
	}
	if q.Page < 0 {
		ve.Add("page", "min=1")
	}
	if q.Page > dto.MaxPage(uc.pageSize) {
		ve.Add("page", "max="+strconv.Itoa(dto.MaxPage(uc.pageSize)))
	}
	if err := ve.OrNil(); err != nil {
		return f, 0, err
	}
	page := q.Page
	if page == 0 {
		page = 1
	}
	f.Limit = uc.pageSize
	f.Offset = (page - 1) * uc.pageSize
	return f, page, nil
}
