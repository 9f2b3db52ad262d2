// Package redis adaptadores sobre Redis: caché de lectura de snapshots y stream de auditoría.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/redis/go-redis/v9"
)

const stockKeyPrefix = "stock-ledger:snapshot:"

var _ inventory.StockCache = (*StockCache)(nil)

// setIfNewerScript escribe el snapshot solo si es más reciente que el guardado (marca en microsegundos).
// Dos escrituras post-commit que llegan desordenadas nunca dejan un valor viejo en la caché.
var setIfNewerScript = redis.NewScript(`
local key = KEYS[1]
local qty = ARGV[1]
local ts = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local current = redis.call('HGET', key, 'ts')
if current and tonumber(current) >= ts then
	return 0
end

redis.call('HSET', key, 'qty', qty, 'ts', ARGV[2])
if ttl > 0 then
	redis.call('PEXPIRE', key, ARGV[3])
end
return 1
`)

// StockCache caché de snapshots. La fuente de verdad sigue siendo la BD.
type StockCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStockCache construye la caché. ttl <= 0 deja las claves sin expiración.
func NewStockCache(client *redis.Client, ttl time.Duration) *StockCache {
	return &StockCache{client: client, ttl: ttl}
}

// Get devuelve el snapshot cacheado o nil, nil si no hay entrada.
func (c *StockCache) Get(ctx context.Context, itemID string) (*entity.Snapshot, error) {
	vals, err := c.client.HMGet(ctx, stockKeyPrefix+itemID, "qty", "ts").Result()
	if err != nil {
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, nil
	}
	qty, err := strconv.ParseInt(fmt.Sprint(vals[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis snapshot qty: %w", err)
	}
	ts, err := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis snapshot ts: %w", err)
	}
	return &entity.Snapshot{ItemID: itemID, Quantity: qty, UpdatedAt: time.UnixMicro(ts)}, nil
}

// Set guarda el snapshot si es más nuevo que el cacheado.
func (c *StockCache) Set(ctx context.Context, s entity.Snapshot) error {
	err := setIfNewerScript.Run(ctx, c.client,
		[]string{stockKeyPrefix + s.ItemID},
		s.Quantity, s.UpdatedAt.UnixMicro(), c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

// Invalidate borra la entrada de un ítem.
func (c *StockCache) Invalidate(ctx context.Context, itemID string) error {
	return c.client.Del(ctx, stockKeyPrefix+itemID).Err()
}
