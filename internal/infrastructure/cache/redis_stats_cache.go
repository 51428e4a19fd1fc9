// Package cache implementa la caché de estadísticas de traslados sobre Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Traslados-api/internal/application/dto"
	"github.com/jhoicas/Traslados-api/internal/application/transfer"
	"github.com/jhoicas/Traslados-api/pkg/config"
)

var _ transfer.StatsCache = (*RedisStatsCache)(nil)

const keyPrefix = "traslados:stats"

// RedisStatsCache guarda la proyección de estadísticas como JSON, una clave por organización+tienda
// y versión. La versión vive en su propia clave sin TTL.
type RedisStatsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStatsCache construye la caché. ttl <= 0 usa 5 minutos.
func NewRedisStatsCache(client redis.UniversalClient, ttl time.Duration) *RedisStatsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStatsCache{client: client, ttl: ttl}
}

// NewRedisClient abre el cliente y verifica la conexión con PING.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func versionKey(organizationID, storeID string) string {
	return keyPrefix + ":ver:" + organizationID + ":" + storeID
}

func statsKey(organizationID, storeID string, version int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", keyPrefix, organizationID, storeID, version)
}

// Get lee la versión de la tienda (0 si nunca se invalidó) y la entrada de esa versión.
// Sin entrada devuelve (nil, version, false, nil).
func (c *RedisStatsCache) Get(ctx context.Context, organizationID, storeID string) (*dto.TransferStatistics, int64, bool, error) {
	version, err := c.client.Get(ctx, versionKey(organizationID, storeID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("redis get version: %w", err)
	}
	raw, err := c.client.Get(ctx, statsKey(organizationID, storeID, version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, version, false, nil
		}
		return nil, 0, false, fmt.Errorf("redis get: %w", err)
	}
	var stats dto.TransferStatistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, 0, false, fmt.Errorf("decode stats: %w", err)
	}
	return &stats, version, true, nil
}

// Set guarda bajo la versión leída en Get. Si entretanto hubo una invalidación la entrada
// queda en una clave que ya no se lee y expira con el TTL.
func (c *RedisStatsCache) Set(ctx context.Context, organizationID, storeID string, version int64, stats *dto.TransferStatistics) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(organizationID, storeID, version), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate avanza la versión de las tiendas indicadas.
func (c *RedisStatsCache) Invalidate(ctx context.Context, organizationID string, storeIDs ...string) error {
	if len(storeIDs) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range storeIDs {
			p.Incr(ctx, versionKey(organizationID, id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	return nil
}
