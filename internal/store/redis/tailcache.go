package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
)

// Tails are immutable once the session they belong to has closed, so a
// day of TTL comfortably covers any same-session restart.
const defaultTailTTL = 24 * time.Hour

// Config configures the Redis tail cache.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// TailCache stores previous-day tail windows so a mid-session restart
// does not repeat the paced historical fetches.
type TailCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// Client returns the underlying Redis client for health checks.
func (c *TailCache) Client() *goredis.Client { return c.client }

// New creates a TailCache and pings the server.
func New(cfg Config) (*TailCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &TailCache{client: client, ttl: defaultTailTTL}, nil
}

// Load returns the cached tail for symbol on date, if present.
func (c *TailCache) Load(ctx context.Context, symbol string, date time.Time) ([]model.Candle, bool) {
	raw, err := c.client.Get(ctx, tailKey(symbol, date)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			log.Printf("[redis] [%s] tail load failed: %v", symbol, err)
		}
		return nil, false
	}

	var tail []model.Candle
	if err := json.Unmarshal(raw, &tail); err != nil {
		log.Printf("[redis] [%s] cached tail corrupt, ignoring: %v", symbol, err)
		return nil, false
	}
	return tail, true
}

// Save caches the tail for symbol on date. Failures only log; the cache
// is an optimization, not a source of truth.
func (c *TailCache) Save(ctx context.Context, symbol string, date time.Time, candles []model.Candle) {
	raw, err := json.Marshal(candles)
	if err != nil {
		log.Printf("[redis] [%s] tail marshal failed: %v", symbol, err)
		return
	}
	if err := c.client.Set(ctx, tailKey(symbol, date), raw, c.ttl).Err(); err != nil {
		log.Printf("[redis] [%s] tail save failed: %v", symbol, err)
	}
}

// Close releases the underlying client.
func (c *TailCache) Close() error { return c.client.Close() }

func tailKey(symbol string, date time.Time) string {
	return "tail:5m:" + symbol + ":" + date.Format("20060102")
}
