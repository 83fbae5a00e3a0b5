package stock_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

var now = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func item(qty, threshold int64, expiresInDays *int) *entity.StockItem {
	it := &entity.StockItem{
		ID:                "it-1",
		Quantity:          decimal.NewFromInt(qty),
		CriticalThreshold: decimal.NewFromInt(threshold),
	}
	if expiresInDays != nil {
		exp := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, *expiresInDays)
		it.ExpirationDate = &exp
	}
	return it
}

func days(n int) *int { return &n }

func TestEvaluate_Precedence(t *testing.T) {
	p := stock.DefaultPolicy()
	cases := []struct {
		name string
		item *entity.StockItem
		want stock.Status
	}{
		{"sin stock gana sobre vencido", item(0, 5, days(-3)), stock.StatusCritical},
		{"sin stock sin vencimiento", item(0, 0, nil), stock.StatusCritical},
		{"vence hoy", item(10, 0, days(0)), stock.StatusExpired},
		{"vencido gana sobre bajo", item(2, 5, days(-1)), stock.StatusExpired},
		{"bajo umbral gana sobre próximo a vencer", item(3, 5, days(10)), stock.StatusLow},
		{"igual al umbral es bajo", item(5, 5, nil), stock.StatusLow},
		{"próximo a vencer", item(20, 5, days(29)), stock.StatusExpiringSoon},
		{"límite de ventana", item(20, 5, days(30)), stock.StatusAvailable},
		{"umbral cero no marca bajo", item(1, 0, nil), stock.StatusAvailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stock.Evaluate(tc.item, now, p))
		})
	}
}

func TestEvaluate_VentanaConfigurable(t *testing.T) {
	it := item(20, 0, days(45))
	assert.Equal(t, stock.StatusAvailable, stock.Evaluate(it, now, stock.Policy{ExpiringWindowDays: 30}))
	assert.Equal(t, stock.StatusExpiringSoon, stock.Evaluate(it, now, stock.Policy{ExpiringWindowDays: 60}))
}

func TestDaysToExpiration(t *testing.T) {
	d, ok := stock.DaysToExpiration(item(1, 0, days(7)), now)
	assert.True(t, ok)
	assert.Equal(t, 7, d)

	_, ok = stock.DaysToExpiration(item(1, 0, nil), now)
	assert.False(t, ok)
}

// Un servidor al oeste de UTC no debe adelantar el vencimiento un día.
func TestDaysToExpiration_RelojFueraDeUTC(t *testing.T) {
	bogota := time.FixedZone("UTC-5", -5*60*60)
	exp := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	it := &entity.StockItem{Quantity: decimal.NewFromInt(5), ExpirationDate: &exp}

	evening := time.Date(2026, 3, 10, 20, 0, 0, 0, bogota)
	d, ok := stock.DaysToExpiration(it, evening)
	assert.True(t, ok)
	assert.Equal(t, 1, d)
	assert.Equal(t, stock.StatusExpiringSoon, stock.Evaluate(it, evening, stock.DefaultPolicy()))

	d, _ = stock.DaysToExpiration(it, time.Date(2026, 3, 11, 23, 59, 0, 0, bogota))
	assert.Equal(t, 0, d)

	tokyo := time.FixedZone("UTC+9", 9*60*60)
	d, _ = stock.DaysToExpiration(it, time.Date(2026, 3, 11, 1, 0, 0, 0, tokyo))
	assert.Equal(t, 0, d, "el día local ya es el del vencimiento")
}

// El cambio de horario de verano no acorta la cuenta de días.
func TestDaysToExpiration_CambioDeHorario(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skip("zona horaria no disponible")
	}
	exp := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)
	it := &entity.StockItem{Quantity: decimal.NewFromInt(5), ExpirationDate: &exp}
	d, _ := stock.DaysToExpiration(it, time.Date(2026, 3, 28, 23, 30, 0, 0, madrid))
	assert.Equal(t, 2, d)
}

func TestSeverityOrder(t *testing.T) {
	assert.Less(t, stock.Severity(stock.StatusCritical), stock.Severity(stock.StatusExpired))
	assert.Less(t, stock.Severity(stock.StatusLow), stock.Severity(stock.StatusExpiringSoon))
	assert.False(t, stock.IsAlert(stock.StatusAvailable))
	assert.True(t, stock.IsValidStatus("expiring-soon"))
	assert.False(t, stock.IsValidStatus("unknown"))
}

func TestMatches_IgnoraAcentosYMayusculas(t *testing.T) {
	assert.True(t, stock.Matches("epicees", "Lentilles Épicées"))
	assert.True(t, stock.Matches("RIZ", "riz basmati"))
	assert.True(t, stock.Matches("", "cualquiera"))
	assert.True(t, stock.Matches("4006", "Harina", "4006381333931"))
	assert.False(t, stock.Matches("azúcar", "Harina", "Molino SA"))
}
