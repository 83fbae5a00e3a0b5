package stock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// maxConflictAttempts intentos ante un compare-and-set fallido sobre la cantidad.
const maxConflictAttempts = 3

// LedgerUseCase es el único camino para cambiar la cantidad de un artículo.
// Cada cambio bloquea la fila del artículo (SELECT FOR UPDATE), valida, actualiza
// la cantidad en caché y agrega el movimiento en la misma transacción.
type LedgerUseCase struct {
	txRunner  TxRunner
	items     repository.StockItemRepository
	movements repository.MovementRepository
	alerts    *AlertUseCase
	now       Clock
	log       zerolog.Logger
}

// NewLedgerUseCase construye el caso de uso. alerts puede ser nil (sin re-evaluación).
func NewLedgerUseCase(
	txRunner TxRunner,
	items repository.StockItemRepository,
	movements repository.MovementRepository,
	alerts *AlertUseCase,
	log zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:  txRunner,
		items:     items,
		movements: movements,
		alerts:    alerts,
		now:       time.Now,
		log:       log.With().Str("component", "ledger").Logger(),
	}
}

// WithClock reemplaza la fuente de tiempo (tests).
func (uc *LedgerUseCase) WithClock(c Clock) *LedgerUseCase {
	uc.now = c
	return uc
}

// MovementInput entrada genérica de ApplyMovement. Delta lleva el signo.
type MovementInput struct {
	ItemID      string
	ActorID     string
	Kind        string
	ExitKind    string
	Delta       decimal.Decimal
	Destination string
	Reason      string
}

func (in MovementInput) validate() error {
	ve := &domain.ValidationError{}
	if in.ItemID == "" {
		ve.Add("item_id", "required")
	}
	switch in.Kind {
	case entity.MovementAddition:
		if in.Delta.Sign() <= 0 {
			ve.Add("delta", "gt=0")
		}
	case entity.MovementConsumption:
		if in.Delta.Sign() >= 0 {
			ve.Add("delta", "lt=0")
		}
	case entity.MovementExit:
		if in.Delta.Sign() >= 0 {
			ve.Add("delta", "lt=0")
		}
		if !entity.IsValidExitKind(in.ExitKind) {
			ve.Add("exit_kind", "exit_kind")
		}
		if in.ExitKind == entity.ExitTransfer && in.Destination == "" {
			ve.Add("destination", "required_for_transfer")
		}
		if in.ExitKind == entity.ExitOther && in.Reason == "" {
			ve.Add("reason", "required_for_other")
		}
	case entity.MovementCorrection:
		if in.Delta.IsZero() {
			ve.Add("delta", "ne=0")
		}
	default:
		ve.Add("kind", "oneof=addition consumption exit correction")
	}
	if !entity.FitsScale(in.Delta) {
		ve.Add("delta", "scale=4")
	}
	if in.Kind != entity.MovementExit && in.ExitKind != "" {
		ve.Add("exit_kind", "only_for_exit")
	}
	return ve.OrNil()
}

// CurrentQuantity devuelve la cantidad en caché del artículo.
func (uc *LedgerUseCase) CurrentQuantity(ctx context.Context, itemID string) (decimal.Decimal, error) {
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	if item == nil || item.Archived() {
		return decimal.Zero, domain.ErrNotFound
	}
	return item.Quantity, nil
}

// ApplyMovement valida y registra un movimiento. Rechaza con ErrInsufficientStock
// (sin escribir nada) si la cantidad resultante sería negativa.
func (uc *LedgerUseCase) ApplyMovement(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return uc.mutate(ctx, in.ItemID, func(_ *entity.StockItem) (*entity.Movement, error) {
		return &entity.Movement{
			Kind:        in.Kind,
			ExitKind:    in.ExitKind,
			Delta:       in.Delta,
			Destination: in.Destination,
			Reason:      in.Reason,
			ActorID:     in.ActorID,
		}, nil
	})
}

// ApplyCount lleva la cantidad al conteo físico con un movimiento correction.
// La diferencia se calcula con la fila bloqueada; si es cero no se registra nada y devuelve nil.
func (uc *LedgerUseCase) ApplyCount(ctx context.Context, actorID, itemID string, physical decimal.Decimal, note string) (*entity.Movement, error) {
	if itemID == "" {
		return nil, domain.NewValidationError("item_id", "required")
	}
	if physical.IsNegative() {
		return nil, domain.NewValidationError("physical_quantity", "gte=0")
	}
	if !entity.FitsScale(physical) {
		return nil, domain.NewValidationError("physical_quantity", "scale=4")
	}
	if note == "" {
		note = "inventario físico"
	}
	return uc.mutate(ctx, itemID, func(item *entity.StockItem) (*entity.Movement, error) {
		delta := physical.Sub(item.Quantity)
		if delta.IsZero() {
			return nil, nil
		}
		return &entity.Movement{
			Kind:    entity.MovementCorrection,
			Delta:   delta,
			Reason:  note,
			ActorID: actorID,
		}, nil
	})
}

// Adjust suma (addition) o resta (correction) una cantidad indicada por el usuario.
func (uc *LedgerUseCase) Adjust(ctx context.Context, actorID, itemID string, in dto.AdjustRequest) (*dto.MovementResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	mi := MovementInput{ItemID: itemID, ActorID: actorID, Kind: entity.MovementAddition, Delta: in.Delta, Reason: in.Reason}
	if in.Direction == "remove" {
		mi.Kind = entity.MovementCorrection
		mi.Delta = in.Delta.Neg()
	}
	return uc.respond(uc.ApplyMovement(ctx, mi))
}

// Consume registra un consumo (delta negativo, nunca mayor que la existencia).
func (uc *LedgerUseCase) Consume(ctx context.Context, actorID, itemID string, in dto.ConsumeRequest) (*dto.MovementResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	return uc.respond(uc.ApplyMovement(ctx, MovementInput{
		ItemID:  itemID,
		ActorID: actorID,
		Kind:    entity.MovementConsumption,
		Delta:   in.Quantity.Neg(),
		Reason:  in.Reason,
	}))
}

// RecordExit registra una salida (donación, traslado, pérdida, descarte por vencimiento,
// devolución a proveedor u otra).
func (uc *LedgerUseCase) RecordExit(ctx context.Context, actorID, itemID string, in dto.ExitRequest) (*dto.MovementResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	return uc.respond(uc.ApplyMovement(ctx, MovementInput{
		ItemID:      itemID,
		ActorID:     actorID,
		Kind:        entity.MovementExit,
		ExitKind:    in.ExitKind,
		Delta:       in.Quantity.Neg(),
		Destination: in.Destination,
		Reason:      in.Reason,
	}))
}

func (uc *LedgerUseCase) respond(m *entity.Movement, err error) (*dto.MovementResponse, error) {
	if err != nil {
		return nil, err
	}
	r := toMovementResponse(m)
	return &r, nil
}

// Verify reproduce el libro del artículo y lo compara con la cantidad en caché.
func (uc *LedgerUseCase) Verify(ctx context.Context, itemID string) (*dto.VerificationResponse, error) {
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	movs, err := uc.movements.ListByItemAsc(ctx, itemID)
	if err != nil {
		return nil, err
	}
	v := Replay(item, movs)
	return &v, nil
}

// VerifyAll verifica todos los artículos, incluidos los archivados.
func (uc *LedgerUseCase) VerifyAll(ctx context.Context) ([]dto.VerificationResponse, error) {
	items, err := uc.items.List(ctx, repository.ItemFilter{IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	out := make([]dto.VerificationResponse, 0, len(items))
	for _, it := range items {
		movs, err := uc.movements.ListByItemAsc(ctx, it.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Replay(it, movs))
	}
	return out, nil
}

// Replay suma los deltas en orden de Seq y verifica la cadena balance_after.
// movs debe contener solo movimientos del artículo, en orden ascendente.
func Replay(item *entity.StockItem, movs []*entity.Movement) dto.VerificationResponse {
	balance := decimal.Zero
	var broken *int64
	for _, m := range movs {
		balance = balance.Add(m.Delta)
		if broken == nil && !balance.Equal(m.BalanceAfter) {
			seq := m.Seq
			broken = &seq
		}
	}
	return dto.VerificationResponse{
		ItemID:           item.ID,
		Quantity:         item.Quantity,
		ReplayedQuantity: balance,
		Movements:        len(movs),
		Consistent:       broken == nil && balance.Equal(item.Quantity),
		BrokenAtSeq:      broken,
	}
}

// mutate bloquea el artículo, obtiene el borrador del movimiento de plan y lo confirma
// junto con la nueva cantidad. plan puede devolver nil para no registrar nada.
func (uc *LedgerUseCase) mutate(
	ctx context.Context,
	itemID string,
	plan func(item *entity.StockItem) (*entity.Movement, error),
) (*entity.Movement, error) {
	var (
		mov    *entity.Movement
		before *entity.StockItem
	)
	err := withConflictRetry(ctx, maxConflictAttempts, func() error {
		mov, before = nil, nil
		return uc.txRunner.Run(ctx, func(
			items repository.StockItemRepository,
			movements repository.MovementRepository,
		) error {
			item, err := items.GetForUpdate(ctx, itemID)
			if err != nil {
				return err
			}
			if item == nil || item.Archived() {
				return domain.ErrNotFound
			}
			draft, err := plan(item)
			if err != nil || draft == nil {
				return err
			}
			next := item.Quantity.Add(draft.Delta)
			if next.IsNegative() {
				return &domain.StockError{ItemID: item.ID, Available: item.Quantity, Requested: draft.Delta.Neg()}
			}
			now := uc.now()
			if err := items.UpdateQuantity(ctx, item.ID, item.Quantity, next, now); err != nil {
				return err
			}
			if draft.ID == "" {
				draft.ID = uuid.New().String()
			}
			draft.ItemID = item.ID
			draft.ItemName = item.Name
			draft.BalanceAfter = next
			draft.CreatedAt = now
			if err := movements.Create(ctx, draft); err != nil {
				return err
			}
			mov, before = draft, item
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidInput) && !errors.Is(err, domain.ErrNotFound) &&
			!errors.Is(err, domain.ErrInsufficientStock) {
			uc.log.Error().Err(err).Str("item_id", itemID).Msg("movimiento no registrado")
		}
		return nil, err
	}
	if mov == nil {
		return nil, nil
	}
	uc.log.Info().
		Str("item_id", mov.ItemID).
		Str("kind", mov.Kind).
		Str("exit_kind", mov.ExitKind).
		Str("delta", mov.Delta.String()).
		Str("balance", mov.BalanceAfter.String()).
		Int64("seq", mov.Seq).
		Msg("movimiento registrado")

	if uc.alerts != nil {
		after := before.Clone()
		after.Quantity = mov.BalanceAfter
		uc.alerts.Recheck(ctx, before, after)
	}
	return mov, nil
}

// withConflictRetry reintenta fn mientras devuelva ErrConflict, hasta attempts veces.
func withConflictRetry(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
