package stock

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// ReconcileUseCase concilia conteos físicos contra el libro.
type ReconcileUseCase struct {
	ledger   *LedgerUseCase
	maxItems int
	log      zerolog.Logger
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(ledger *LedgerUseCase, cfg Config, log zerolog.Logger) *ReconcileUseCase {
	return &ReconcileUseCase{
		ledger:   ledger,
		maxItems: cfg.withDefaults().BatchMaxItems,
		log:      log.With().Str("component", "reconcile").Logger(),
	}
}

// Reconcile registra una corrección por cada entrada cuyo conteo difiere de la cantidad actual.
// Cada entrada es independiente; un artículo repetido en el mismo conteo se rechaza
// (solo la primera aparición se aplica).
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, actorID string, in dto.InventoryCountRequest) (*dto.InventoryCountResult, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if len(in.Counts) > uc.maxItems {
		return nil, domain.NewValidationError("counts", "max="+strconv.Itoa(uc.maxItems))
	}
	res := &dto.InventoryCountResult{Failed: []dto.BatchFailure{}}
	seen := make(map[string]struct{}, len(in.Counts))
	for _, c := range in.Counts {
		err := uc.apply(ctx, actorID, c, seen, res)
		if err != nil {
			res.Failed = append(res.Failed, dto.BatchFailure{ItemID: c.ItemID, Code: domain.Code(err), Message: err.Error()})
			continue
		}
		res.Successful++
	}
	uc.log.Info().
		Str("actor_id", actorID).
		Int("counted", len(in.Counts)).
		Int("with_difference", res.WithDifference).
		Int("failed", len(res.Failed)).
		Msg("inventario físico conciliado")
	return res, nil
}

func (uc *ReconcileUseCase) apply(ctx context.Context, actorID string, c dto.CountEntry, seen map[string]struct{}, res *dto.InventoryCountResult) error {
	if c.ItemID != "" {
		if _, dup := seen[c.ItemID]; dup {
			return domain.ErrDuplicate
		}
		seen[c.ItemID] = struct{}{}
	}
	mov, err := uc.ledger.ApplyCount(ctx, actorID, c.ItemID, c.PhysicalQuantity, c.Note)
	if err != nil {
		return err
	}
	if mov != nil {
		res.WithDifference++
	}
	return nil
}
