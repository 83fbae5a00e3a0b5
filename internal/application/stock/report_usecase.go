package stock

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	domainstock "github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

const (
	// DefaultExpirationHorizonDays horizonte por defecto del calendario de vencimientos.
	DefaultExpirationHorizonDays = 90
	maxExpirationHorizonDays     = 730
	usageWindowDays              = 30
)

// ReportUseCase proyecciones de solo lectura sobre el catálogo y el libro.
type ReportUseCase struct {
	items     repository.StockItemRepository
	movements repository.MovementRepository
	policy    domainstock.Policy
	now       Clock
}

// NewReportUseCase construye el caso de uso de reportes.
func NewReportUseCase(items repository.StockItemRepository, movements repository.MovementRepository, cfg Config) *ReportUseCase {
	return &ReportUseCase{
		items:     items,
		movements: movements,
		policy:    cfg.withDefaults().policy(),
		now:       time.Now,
	}
}

// WithClock reemplaza la fuente de tiempo (tests).
func (uc *ReportUseCase) WithClock(c Clock) *ReportUseCase {
	uc.now = c
	return uc
}

// Summary totales del almacén: artículos, valor y desglose por estado.
func (uc *ReportUseCase) Summary(ctx context.Context) (*dto.StockSummaryDTO, error) {
	items, err := uc.items.List(ctx, repository.ItemFilter{})
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := &dto.StockSummaryDTO{
		GeneratedAt: now,
		TotalValue:  decimal.Zero,
		ByStatus:    make(map[string]dto.StatusTotalsDTO, len(domainstock.Statuses)),
	}
	for _, st := range domainstock.Statuses {
		out.ByStatus[string(st)] = dto.StatusTotalsDTO{Value: decimal.Zero}
	}
	for _, it := range items {
		st := string(domainstock.Evaluate(it, now, uc.policy))
		v := it.Value()
		t := out.ByStatus[st]
		t.Items++
		t.Value = t.Value.Add(v)
		out.ByStatus[st] = t
		out.TotalItems++
		out.TotalValue = out.TotalValue.Add(v)
	}
	return out, nil
}

// Categories desglose por categoría ordenado por valor descendente.
// Las cantidades se agrupan por unidad: no se suman kilos con litros.
func (uc *ReportUseCase) Categories(ctx context.Context) ([]dto.CategoryBreakdownDTO, error) {
	items, err := uc.items.List(ctx, repository.ItemFilter{})
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	byCat := make(map[string]*dto.CategoryBreakdownDTO)
	for _, it := range items {
		c, ok := byCat[it.Category]
		if !ok {
			c = &dto.CategoryBreakdownDTO{Category: it.Category, Value: decimal.Zero, QuantityByUnit: map[string]decimal.Decimal{}}
			byCat[it.Category] = c
		}
		c.Items++
		c.Value = c.Value.Add(it.Value())
		c.QuantityByUnit[it.Unit] = c.QuantityByUnit[it.Unit].Add(it.Quantity)
		total = total.Add(it.Value())
	}
	hundred := decimal.NewFromInt(100)
	out := make([]dto.CategoryBreakdownDTO, 0, len(byCat))
	for _, c := range byCat {
		if total.IsPositive() {
			c.ValuePct = c.Value.Div(total).Mul(hundred).Round(2)
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Value.Equal(out[j].Value) {
			return out[i].Value.GreaterThan(out[j].Value)
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// Reorder sugiere reposición para los artículos con umbral crítico y cantidad en o bajo él.
// Cantidad ideal = umbral × 1,5. La prioridad ordena por días de cobertura al ritmo
// de consumo de los últimos 30 días (sin consumo va al final), luego por déficit.
func (uc *ReportUseCase) Reorder(ctx context.Context) ([]dto.ReorderSuggestionDTO, error) {
	items, err := uc.items.List(ctx, repository.ItemFilter{})
	if err != nil {
		return nil, err
	}
	now := uc.now()
	from := now.AddDate(0, 0, -usageWindowDays)
	used, err := uc.outflowByItem(ctx, repository.MovementFilter{Kind: entity.MovementFilterExitOrConsumption, From: &from})
	if err != nil {
		return nil, err
	}

	ratio := decimal.NewFromFloat(1.5)
	window := decimal.NewFromInt(usageWindowDays)
	out := []dto.ReorderSuggestionDTO{}
	for _, it := range items {
		if !it.CriticalThreshold.IsPositive() || it.Quantity.GreaterThan(it.CriticalThreshold) {
			continue
		}
		ideal := it.CriticalThreshold.Mul(ratio)
		suggested := ideal.Sub(it.Quantity)
		if suggested.IsNegative() {
			suggested = decimal.Zero
		}
		s := dto.ReorderSuggestionDTO{
			ItemID:            it.ID,
			Name:              it.Name,
			Category:          it.Category,
			Unit:              it.Unit,
			Supplier:          it.Supplier,
			CurrentQuantity:   it.Quantity,
			CriticalThreshold: it.CriticalThreshold,
			IdealQuantity:     ideal,
			SuggestedQuantity: suggested,
			UnitPrice:         it.UnitPrice,
			EstimatedCost:     suggested.Mul(it.UnitPrice),
			UsedLast30Days:    used[it.ID].total,
		}
		if u := used[it.ID].total; u.IsPositive() {
			days := int(it.Quantity.Div(u.Div(window)).IntPart())
			s.DaysOfCover = &days
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.DaysOfCover == nil) != (b.DaysOfCover == nil) {
			return a.DaysOfCover != nil
		}
		if a.DaysOfCover != nil && *a.DaysOfCover != *b.DaysOfCover {
			return *a.DaysOfCover < *b.DaysOfCover
		}
		// Déficit relativo respecto al umbral.
		ra := a.CriticalThreshold.Sub(a.CurrentQuantity).Div(a.CriticalThreshold)
		rb := b.CriticalThreshold.Sub(b.CurrentQuantity).Div(b.CriticalThreshold)
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		return a.Name < b.Name
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}

// Expirations agrupa por día los artículos con fecha de vencimiento dentro del horizonte,
// incluidos los ya vencidos con existencia. horizonDays <= 0 usa el valor por defecto.
func (uc *ReportUseCase) Expirations(ctx context.Context, horizonDays int) (*dto.ExpirationCalendarDTO, error) {
	if horizonDays > maxExpirationHorizonDays {
		return nil, domain.NewValidationError("days", "max=730")
	}
	if horizonDays <= 0 {
		horizonDays = DefaultExpirationHorizonDays
	}
	items, err := uc.items.List(ctx, repository.ItemFilter{})
	if err != nil {
		return nil, err
	}
	now := uc.now()
	byDay := make(map[int]*dto.ExpirationDayDTO)
	for _, it := range items {
		days, ok := domainstock.DaysToExpiration(it, now)
		if !ok || days > horizonDays {
			continue
		}
		if days < 0 && it.Quantity.IsZero() {
			continue
		}
		d, ok := byDay[days]
		if !ok {
			d = &dto.ExpirationDayDTO{
				Date:             dto.Date{Time: it.ExpirationDate.UTC()},
				DaysToExpiration: days,
				Items:            []dto.ExpirationEntryDTO{},
			}
			byDay[days] = d
		}
		d.Items = append(d.Items, dto.ExpirationEntryDTO{
			ItemID:   it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Unit:     it.Unit,
			Value:    it.Value(),
			Status:   string(domainstock.Evaluate(it, now, uc.policy)),
		})
	}
	out := &dto.ExpirationCalendarDTO{HorizonDays: horizonDays, Days: make([]dto.ExpirationDayDTO, 0, len(byDay))}
	for _, d := range byDay {
		sort.SliceStable(d.Items, func(i, j int) bool { return d.Items[i].Name < d.Items[j].Name })
		out.Days = append(out.Days, *d)
	}
	sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].DaysToExpiration < out.Days[j].DaysToExpiration })
	return out, nil
}

// Consumption suma consumo y salidas por artículo en [from, to] (fechas inclusivas).
// Sin fechas cubre los últimos 30 días.
func (uc *ReportUseCase) Consumption(ctx context.Context, from, to string) (*dto.ConsumptionReportDTO, error) {
	now := uc.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start, end := today.AddDate(0, 0, -usageWindowDays), today
	ve := &domain.ValidationError{}
	if from != "" {
		t, err := dto.ParseDate(from)
		if err != nil {
			ve.Add("from", "date")
		}
		start = t
	}
	if to != "" {
		t, err := dto.ParseDate(to)
		if err != nil {
			ve.Add("to", "date")
		}
		end = t
	}
	if ve.Empty() && end.Before(start) {
		ve.Add("to", "gtefield=from")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	until := end.AddDate(0, 0, 1)
	byItem, err := uc.outflowByItem(ctx, repository.MovementFilter{
		Kind: entity.MovementFilterExitOrConsumption,
		From: &start,
		To:   &until,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.ConsumptionReportDTO{From: dto.Date{Time: start}, To: dto.Date{Time: end}, Lines: make([]dto.ConsumptionLineDTO, 0, len(byItem))}
	for _, o := range byItem {
		out.Lines = append(out.Lines, o.line)
	}
	sort.SliceStable(out.Lines, func(i, j int) bool {
		if !out.Lines[i].Total.Equal(out.Lines[j].Total) {
			return out.Lines[i].Total.GreaterThan(out.Lines[j].Total)
		}
		return out.Lines[i].Name < out.Lines[j].Name
	})
	return out, nil
}

type outflow struct {
	total decimal.Decimal
	line  dto.ConsumptionLineDTO
}

// outflowByItem agrega las salidas y consumos (como cantidades positivas) por artículo.
func (uc *ReportUseCase) outflowByItem(ctx context.Context, f repository.MovementFilter) (map[string]outflow, error) {
	movs, _, err := uc.movements.List(ctx, f)
	if err != nil {
		return nil, err
	}
	units := make(map[string]string)
	items, err := uc.items.List(ctx, repository.ItemFilter{IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		units[it.ID] = it.Unit
	}
	out := make(map[string]outflow)
	for _, m := range movs {
		o, ok := out[m.ItemID]
		if !ok {
			o = outflow{total: decimal.Zero, line: dto.ConsumptionLineDTO{
				ItemID:   m.ItemID,
				Name:     m.ItemName,
				Unit:     units[m.ItemID],
				Consumed: decimal.Zero,
				Exits:    map[string]decimal.Decimal{},
				Total:    decimal.Zero,
			}}
		}
		qty := m.Delta.Neg()
		if m.Kind == entity.MovementConsumption {
			o.line.Consumed = o.line.Consumed.Add(qty)
		} else {
			o.line.Exits[m.ExitKind] = o.line.Exits[m.ExitKind].Add(qty)
		}
		o.total = o.total.Add(qty)
		o.line.Total = o.total
		out[m.ItemID] = o
	}
	return out, nil
}
