package stock

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	domainstock "github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// AlertUseCase evalúa el estado de los artículos. No guarda estado: cada lectura recalcula.
type AlertUseCase struct {
	items    repository.StockItemRepository
	notifier Notifier
	policy   domainstock.Policy
	now      Clock
	log      zerolog.Logger
}

// NewAlertUseCase construye el evaluador. notifier puede ser nil.
func NewAlertUseCase(items repository.StockItemRepository, notifier Notifier, cfg Config, log zerolog.Logger) *AlertUseCase {
	return &AlertUseCase{
		items:    items,
		notifier: notifier,
		policy:   cfg.withDefaults().policy(),
		now:      time.Now,
		log:      log.With().Str("component", "alerts").Logger(),
	}
}

// WithClock reemplaza la fuente de tiempo (tests).
func (uc *AlertUseCase) WithClock(c Clock) *AlertUseCase {
	uc.now = c
	return uc
}

// List devuelve los artículos activos con estado distinto de available, del más grave al menos grave.
func (uc *AlertUseCase) List(ctx context.Context) (*dto.AlertListResponse, error) {
	items, err := uc.items.List(ctx, repository.ItemFilter{})
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := &dto.AlertListResponse{Counts: map[string]int{}, Alerts: []dto.AlertDTO{}}
	for _, it := range items {
		st := domainstock.Evaluate(it, now, uc.policy)
		if !domainstock.IsAlert(st) {
			continue
		}
		a := dto.AlertDTO{
			ItemID:            it.ID,
			Name:              it.Name,
			Category:          it.Category,
			Unit:              it.Unit,
			Status:            string(st),
			Quantity:          it.Quantity,
			CriticalThreshold: it.CriticalThreshold,
			ExpirationDate:    dto.NewDate(it.ExpirationDate),
		}
		if days, ok := domainstock.DaysToExpiration(it, now); ok {
			a.DaysToExpiration = &days
		}
		out.Alerts = append(out.Alerts, a)
		out.Counts[a.Status]++
	}
	sort.SliceStable(out.Alerts, func(i, j int) bool {
		a, b := out.Alerts[i], out.Alerts[j]
		sa, sb := domainstock.Severity(domainstock.Status(a.Status)), domainstock.Severity(domainstock.Status(b.Status))
		if sa != sb {
			return sa < sb
		}
		return a.Name < b.Name
	})
	out.Total = len(out.Alerts)
	return out, nil
}

// Recheck compara el estado antes y después de un movimiento y notifica si el artículo
// entró en un estado de atención distinto. Los errores del notificador solo se registran.
func (uc *AlertUseCase) Recheck(ctx context.Context, before, after *entity.StockItem) {
	now := uc.now()
	prev := domainstock.Evaluate(before, now, uc.policy)
	curr := domainstock.Evaluate(after, now, uc.policy)
	if prev == curr || !domainstock.IsAlert(curr) {
		return
	}
	uc.notify(ctx, after, curr, prev, now)
}

// Sweep notifica todas las alertas vigentes (tarea programada). Devuelve cuántas se enviaron.
func (uc *AlertUseCase) Sweep(ctx context.Context) (int, error) {
	items, err := uc.items.List(ctx, repository.ItemFilter{})
	if err != nil {
		return 0, err
	}
	now := uc.now()
	sent := 0
	for _, it := range items {
		st := domainstock.Evaluate(it, now, uc.policy)
		if !domainstock.IsAlert(st) {
			continue
		}
		if uc.notify(ctx, it, st, "", now) {
			sent++
		}
	}
	uc.log.Info().Int("alerts", sent).Msg("barrido de alertas completado")
	return sent, nil
}

func (uc *AlertUseCase) notify(ctx context.Context, it *entity.StockItem, st, prev domainstock.Status, now time.Time) bool {
	if uc.notifier == nil {
		return false
	}
	alert := Alert{
		ItemID:         it.ID,
		ItemName:       it.Name,
		Status:         st,
		Previous:       prev,
		Quantity:       it.Quantity,
		Threshold:      it.CriticalThreshold,
		ExpirationDate: it.ExpirationDate,
		At:             now,
	}
	if err := uc.notifier.Notify(ctx, alert); err != nil {
		uc.log.Warn().Err(err).Str("item_id", it.ID).Str("status", string(st)).Msg("no se pudo notificar alerta")
		return false
	}
	return true
}
