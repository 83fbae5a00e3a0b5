package stock

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// Acciones de lote.
const (
	BatchConsume = "consume"
	BatchExit    = "exit"
	BatchDelete  = "delete"
)

// BatchUseCase expande un lote en operaciones independientes, una por entrada.
// Un fallo no revierte las demás entradas.
type BatchUseCase struct {
	ledger   *LedgerUseCase
	catalog  *CatalogUseCase
	workers  int
	maxItems int
	log      zerolog.Logger
}

// NewBatchUseCase construye el ejecutor de lotes.
func NewBatchUseCase(ledger *LedgerUseCase, catalog *CatalogUseCase, cfg Config, log zerolog.Logger) *BatchUseCase {
	cfg = cfg.withDefaults()
	return &BatchUseCase{
		ledger:   ledger,
		catalog:  catalog,
		workers:  cfg.BatchWorkers,
		maxItems: cfg.BatchMaxItems,
		log:      log.With().Str("component", "batch").Logger(),
	}
}

// Execute valida la estructura del lote (si falla, se rechaza completo) y procesa cada
// entrada en paralelo con un máximo de workers. Los fallos se informan en el orden enviado.
func (uc *BatchUseCase) Execute(ctx context.Context, actorID, action string, in dto.BatchRequest) (*dto.BatchResult, error) {
	if err := uc.validate(action, in); err != nil {
		return nil, err
	}
	errs := make([]error, len(in.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, entry := range in.Items {
		g.Go(func() error {
			// Los errores por entrada no cancelan el grupo.
			errs[i] = uc.apply(gctx, actorID, action, entry, in)
			return nil
		})
	}
	_ = g.Wait()

	res := &dto.BatchResult{Action: action, Failed: []dto.BatchFailure{}}
	for i, err := range errs {
		if err == nil {
			res.Successful++
			continue
		}
		res.Failed = append(res.Failed, dto.BatchFailure{
			ItemID:  in.Items[i].ID,
			Code:    domain.Code(err),
			Message: err.Error(),
		})
	}
	uc.log.Info().
		Str("action", action).
		Str("actor_id", actorID).
		Int("successful", res.Successful).
		Int("failed", len(res.Failed)).
		Msg("lote procesado")
	return res, nil
}

func (uc *BatchUseCase) validate(action string, in dto.BatchRequest) error {
	switch action {
	case BatchConsume, BatchExit, BatchDelete:
	default:
		return domain.NewValidationError("action", "oneof=consume exit delete")
	}
	if err := dto.Validate(in); err != nil {
		return err
	}
	ve := &domain.ValidationError{}
	if len(in.Items) > uc.maxItems {
		ve.Add("items", "max="+strconv.Itoa(uc.maxItems))
	}
	if action == BatchExit {
		if in.ExitKind == "" {
			ve.Add("exit_kind", "required")
		}
		if in.ExitKind == entity.ExitTransfer && in.Destination == "" {
			ve.Add("destination", "required_for_transfer")
		}
		if in.ExitKind == entity.ExitOther && in.Reason == "" {
			ve.Add("reason", "required_for_other")
		}
	} else if in.ExitKind != "" {
		ve.Add("exit_kind", "only_for_exit")
	}
	return ve.OrNil()
}

func (uc *BatchUseCase) apply(ctx context.Context, actorID, action string, entry dto.BatchItem, in dto.BatchRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.ID == "" {
		return domain.NewValidationError("id", "required")
	}
	switch action {
	case BatchDelete:
		_, err := uc.catalog.Delete(ctx, entry.ID)
		return err
	case BatchConsume:
		if !entry.Quantity.IsPositive() {
			return domain.NewValidationError("quantity", "gt=0")
		}
		_, err := uc.ledger.ApplyMovement(ctx, MovementInput{
			ItemID:  entry.ID,
			ActorID: actorID,
			Kind:    entity.MovementConsumption,
			Delta:   entry.Quantity.Neg(),
			Reason:  in.Reason,
		})
		return err
	default:
		if !entry.Quantity.IsPositive() {
			return domain.NewValidationError("quantity", "gt=0")
		}
		_, err := uc.ledger.ApplyMovement(ctx, MovementInput{
			ItemID:      entry.ID,
			ActorID:     actorID,
			Kind:        entity.MovementExit,
			ExitKind:    in.ExitKind,
			Delta:       entry.Quantity.Neg(),
			Destination: in.Destination,
			Reason:      in.Reason,
		})
		return err
	}
}
