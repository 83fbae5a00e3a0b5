package stock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

const testActor = "00000000-0000-0000-0000-0000000000aa"

// 2026-03-10 12:00 UTC; cada lectura del reloj avanza un segundo.
var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// recordingNotifier guarda las alertas recibidas.
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []stock.Alert
}

func (n *recordingNotifier) Notify(_ context.Context, a stock.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return nil
}

func (n *recordingNotifier) All() []stock.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]stock.Alert(nil), n.alerts...)
}

// fakeBackupStore guarda los objetos subidos.
type fakeBackupStore struct {
	objects map[string][]byte
}

func (f *fakeBackupStore) Put(_ context.Context, object string, data []byte) (string, error) {
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[object] = data
	return "stock-backups", nil
}

type fixture struct {
	store     *memory.Store
	clock     *tickClock
	notifier  *recordingNotifier
	alerts    *stock.AlertUseCase
	ledger    *stock.LedgerUseCase
	catalog   *stock.CatalogUseCase
	history   *stock.HistoryUseCase
	batch     *stock.BatchUseCase
	reconcile *stock.ReconcileUseCase
	reports   *stock.ReportUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := stock.DefaultConfig()
	cfg.PageSize = 5
	return newFixtureWithConfig(t, cfg)
}

func newFixtureWithConfig(t *testing.T, cfg stock.Config) *fixture {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	clock := &tickClock{now: baseTime}
	notifier := &recordingNotifier{}

	alerts := stock.NewAlertUseCase(store.Items(), notifier, cfg, log).WithClock(clock.Now)
	ledger := stock.NewLedgerUseCase(store, store.Items(), store.Movements(), alerts, log).WithClock(clock.Now)
	catalog := stock.NewCatalogUseCase(store, store.Items(), store.Movements(), cfg, log).WithClock(clock.Now)
	return &fixture{
		store:     store,
		clock:     clock,
		notifier:  notifier,
		alerts:    alerts,
		ledger:    ledger,
		catalog:   catalog,
		history:   stock.NewHistoryUseCase(store.Items(), store.Movements(), cfg),
		batch:     stock.NewBatchUseCase(ledger, catalog, cfg, log),
		reconcile: stock.NewReconcileUseCase(ledger, cfg, log),
		reports:   stock.NewReportUseCase(store.Items(), store.Movements(), cfg).WithClock(clock.Now),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newItem crea un artículo con la cantidad y el umbral dados.
func (f *fixture) newItem(t *testing.T, name, qty, threshold string) *dto.ItemResponse {
	t.Helper()
	return f.createItem(t, dto.CreateItemRequest{
		Name:              name,
		Category:          entity.CategoryGrains,
		Unit:              "kg",
		UnitPrice:         dec("2.50"),
		Quantity:          dec(qty),
		CriticalThreshold: dec(threshold),
	})
}

func (f *fixture) createItem(t *testing.T, req dto.CreateItemRequest) *dto.ItemResponse {
	t.Helper()
	it, err := f.catalog.Create(context.Background(), testActor, req)
	require.NoError(t, err)
	return it
}

func (f *fixture) quantity(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	q, err := f.ledger.CurrentQuantity(context.Background(), id)
	require.NoError(t, err)
	return q
}

func datePtr(t time.Time) *dto.Date { return &dto.Date{Time: t} }
