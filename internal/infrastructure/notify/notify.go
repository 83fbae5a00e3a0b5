// Package notify entrega alertas de stock: al log estructurado o a un canal Redis.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
)

var (
	_ stock.Notifier = (*LogNotifier)(nil)
	_ stock.Notifier = (*RedisNotifier)(nil)
)

// LogNotifier registra cada alerta como evento de nivel warn.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, a stock.Alert) error {
	ev := n.log.Warn().
		Str("item_id", a.ItemID).
		Str("item_name", a.ItemName).
		Str("status", string(a.Status)).
		Str("quantity", a.Quantity.String()).
		Str("critical_threshold", a.Threshold.String())
	if a.Previous != "" {
		ev = ev.Str("previous", string(a.Previous))
	}
	if a.ExpirationDate != nil {
		ev = ev.Time("expiration_date", *a.ExpirationDate)
	}
	ev.Msg("alerta de stock")
	return nil
}

// Publisher subconjunto de *redis.Client usado para publicar.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publica la alerta en JSON sobre un canal pub/sub.
type RedisNotifier struct {
	rdb     Publisher
	channel string
	log     zerolog.Logger
}

func NewRedisNotifier(rdb Publisher, channel string, log zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel, log: log}
}

func (n *RedisNotifier) Notify(ctx context.Context, a stock.Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("serializar alerta: %w", err)
	}
	receivers, err := n.rdb.Publish(ctx, n.channel, data).Result()
	if err != nil {
		return fmt.Errorf("publicar alerta en %s: %w", n.channel, err)
	}
	n.log.Debug().Str("channel", n.channel).Str("item_id", a.ItemID).Int64("receivers", receivers).Msg("alerta publicada")
	return nil
}

// NewRedisClient crea el cliente y valida la conexión al arrancar.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
