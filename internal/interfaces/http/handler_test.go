package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
)

// buildStockApp arma la API completa sobre el store en memoria, sin almacenamiento de respaldos.
func buildStockApp(t *testing.T) *fiber.App {
	t.Helper()
	log := zerolog.Nop()
	cfg := stock.DefaultConfig()
	store := memory.NewStore()

	alerts := stock.NewAlertUseCase(store.Items(), nil, cfg, log)
	ledger := stock.NewLedgerUseCase(store, store.Items(), store.Movements(), alerts, log)
	catalog := stock.NewCatalogUseCase(store, store.Items(), store.Movements(), cfg, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Catalog:   catalog,
		Ledger:    ledger,
		History:   stock.NewHistoryUseCase(store.Items(), store.Movements(), cfg),
		Batch:     stock.NewBatchUseCase(ledger, catalog, cfg, log),
		Reconcile: stock.NewReconcileUseCase(ledger, cfg, log),
		Alerts:    alerts,
		Reports:   stock.NewReportUseCase(store.Items(), store.Movements(), cfg),
		Backup:    stock.NewBackupUseCase(store, nil, cfg, log),
		JWTSecret: testJWTSecret,
		Log:       log,
	})
	return app
}

type apiResponse struct {
	status int
	header http.Header
	body   map[string]any
}

func call(t *testing.T, app *fiber.App, role, method, path, body string) apiResponse {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := apiResponse{status: resp.StatusCode, header: resp.Header, body: map[string]any{}}
	_ = json.NewDecoder(resp.Body).Decode(&out.body)
	return out
}

func createRice(t *testing.T, app *fiber.App, qty string) string {
	t.Helper()
	resp := call(t, app, "volunteer", http.MethodPost, "/api/stock/items",
		`{"name":"Arroz","category":"grains","unit":"kg","unit_price":"1.20","quantity":"`+qty+`","critical_threshold":"5"}`)
	require.Equal(t, http.StatusCreated, resp.status, resp.body)
	id, _ := resp.body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestItems_CrearYConsumir(t *testing.T) {
	app := buildStockApp(t)
	id := createRice(t, app, "10")

	resp := call(t, app, "volunteer", http.MethodPost, "/api/stock/items/"+id+"/consume", `{"quantity":3,"reason":"almuerzo"}`)
	assert.Equal(t, http.StatusCreated, resp.status)
	assert.Equal(t, "consumption", resp.body["kind"])
	assert.Equal(t, "7", resp.body["balance_after"])
	assert.Equal(t, testUserID, resp.body["actor_id"])

	resp = call(t, app, "volunteer", http.MethodPost, "/api/stock/items/"+id+"/consume", `{"quantity":8}`)
	assert.Equal(t, http.StatusConflict, resp.status)
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.body["code"])

	resp = call(t, app, "volunteer", http.MethodGet, "/api/stock/items/"+id, "")
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "7", resp.body["quantity"])

	resp = call(t, app, "volunteer", http.MethodGet, "/api/stock/items/"+id+"/history", "")
	assert.Equal(t, http.StatusOK, resp.status)
	items, _ := resp.body["items"].([]any)
	assert.Len(t, items, 2, "existencia inicial + consumo")

	resp = call(t, app, "volunteer", http.MethodGet, "/api/stock/items/"+id+"/verify", "")
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, true, resp.body["consistent"])
}

func TestItems_BodyEstricto(t *testing.T) {
	app := buildStockApp(t)

	resp := call(t, app, "volunteer", http.MethodPost, "/api/stock/items",
		`{"name":"Arroz","category":"grains","unit":"kg","color":"blanco"}`)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "VALIDATION", resp.body["code"])
	fields, _ := resp.body["fields"].(map[string]any)
	assert.Contains(t, fields["body"], "unknown field")

	resp = call(t, app, "volunteer", http.MethodPost, "/api/stock/items",
		`{"name":"Arroz","category":"grains","unit":"kg"}{"x":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = call(t, app, "volunteer", http.MethodPost, "/api/stock/items",
		`{"name":"","category":"juguetes","unit":"kg"}`)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	fields, _ = resp.body["fields"].(map[string]any)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "category")
}

func TestItems_NoEncontrado(t *testing.T) {
	app := buildStockApp(t)
	resp := call(t, app, "volunteer", http.MethodGet, "/api/stock/items/no-existe", "")
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "NOT_FOUND", resp.body["code"])
}

func TestItems_BorrarRequiereRol(t *testing.T) {
	app := buildStockApp(t)
	id := createRice(t, app, "0")

	resp := call(t, app, "volunteer", http.MethodDelete, "/api/stock/items/"+id, "")
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = call(t, app, "storekeeper", http.MethodDelete, "/api/stock/items/"+id, "")
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "deleted", resp.body["result"])
}

func TestBatch_ExitoParcial(t *testing.T) {
	app := buildStockApp(t)
	id := createRice(t, app, "10")

	resp := call(t, app, "volunteer", http.MethodPost, "/api/stock/batch/exit",
		`{"items":[{"id":"`+id+`","quantity":4},{"id":"desconocido","quantity":1}],"exit_kind":"donation"}`)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(1), resp.body["successful"])
	failed, _ := resp.body["failed"].([]any)
	require.Len(t, failed, 1)
	assert.Equal(t, "NOT_FOUND", failed[0].(map[string]any)["code"])

	resp = call(t, app, "volunteer", http.MethodPost, "/api/stock/batch/exit",
		`{"items":[{"id":"`+id+`","quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.status, "salida sin exit_kind rechaza el lote completo")

	resp = call(t, app, "volunteer", http.MethodPost, "/api/stock/batch/delete", `{"items":[{"id":"`+id+`"}]}`)
	assert.Equal(t, http.StatusForbidden, resp.status)
}

func TestInventoryCount(t *testing.T) {
	app := buildStockApp(t)
	id := createRice(t, app, "10")

	resp := call(t, app, "storekeeper", http.MethodPost, "/api/stock/inventory-counts",
		`{"counts":[{"item_id":"`+id+`","physical_quantity":"8"}]}`)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(1), resp.body["successful"])
	assert.Equal(t, float64(1), resp.body["with_difference"])

	resp = call(t, app, "volunteer", http.MethodGet, "/api/stock/movements?kind=correction", "")
	assert.Equal(t, http.StatusOK, resp.status)
	page, _ := resp.body["page"].(map[string]any)
	assert.Equal(t, float64(1), page["total"])
}

func TestReports(t *testing.T) {
	app := buildStockApp(t)
	createRice(t, app, "4")

	resp := call(t, app, "volunteer", http.MethodGet, "/api/stock/reports/reorder", "")
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(1), resp.body["total"])

	resp = call(t, app, "volunteer", http.MethodGet, "/api/stock/alerts", "")
	assert.Equal(t, http.StatusOK, resp.status)

	resp = call(t, app, "volunteer", http.MethodGet, "/api/stock/reports/expirations?days=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = call(t, app, "volunteer", http.MethodGet, "/api/stock/reports/consumption?from=2026-03-10&to=2026-03-01", "")
	assert.Equal(t, http.StatusBadRequest, resp.status)
}

func TestBackup(t *testing.T) {
	app := buildStockApp(t)
	createRice(t, app, "3")

	resp := call(t, app, "storekeeper", http.MethodGet, "/api/stock/backup", "")
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = call(t, app, "admin", http.MethodGet, "/api/stock/backup", "")
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.header.Get("Content-Disposition"), "attachment")
	assert.Equal(t, "true", resp.header.Get("X-Ledger-Consistent"))
	assert.Len(t, resp.body["movements"], 1)

	resp = call(t, app, "admin", http.MethodPost, "/api/stock/backup", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.status)
	assert.Equal(t, "BACKUP_DISABLED", resp.body["code"])
}

func TestSinToken(t *testing.T) {
	app := buildStockApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/stock/items", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
