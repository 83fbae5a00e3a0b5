package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	domainstock "github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

type fakePublisher struct {
	channel string
	message any
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	p.channel = channel
	p.message = message
	return redis.NewIntResult(1, p.err)
}

func sampleAlert() stock.Alert {
	return stock.Alert{
		ItemID:    "it-1",
		ItemName:  "Leche en polvo",
		Status:    domainstock.StatusCritical,
		Previous:  domainstock.StatusLow,
		Quantity:  decimal.NewFromInt(2),
		Threshold: decimal.NewFromInt(10),
		At:        time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisNotifier_PublicaJSON(t *testing.T) {
	pub := &fakePublisher{}
	n := NewRedisNotifier(pub, "stock:alerts", zerolog.Nop())

	require.NoError(t, n.Notify(context.Background(), sampleAlert()))
	assert.Equal(t, "stock:alerts", pub.channel)

	data, ok := pub.message.([]byte)
	require.True(t, ok)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "it-1", got["item_id"])
	assert.Equal(t, "critical", got["status"])
	assert.Equal(t, "low", got["previous"])
}

func TestRedisNotifier_PropagaError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	n := NewRedisNotifier(pub, "stock:alerts", zerolog.Nop())

	err := n.Notify(context.Background(), sampleAlert())
	assert.ErrorContains(t, err, "connection refused")
}

func TestLogNotifier_RegistraCampos(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	require.NoError(t, n.Notify(context.Background(), sampleAlert()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "Leche en polvo", got["item_name"])
	assert.Equal(t, "2", got["quantity"])
	assert.Equal(t, "alerta de stock", got["message"])
}
