package accounting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryVersionKey = "accounting:summary:version"

// SummaryCache caché en Redis con invalidación por versión global.
// Un *SummaryCache nil (o sin cliente) desactiva el caché y siempre ejecuta el loader.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache crea el caché.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

// Version devuelve la versión vigente, inicializándola si no existe.
func (c *SummaryCache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, summaryVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return c.initVersion(ctx)
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// initVersion crea la versión en 1 solo si la llave sigue sin existir; un Bump concurrente gana.
func (c *SummaryCache) initVersion(ctx context.Context) (int64, error) {
	created, err := c.client.SetNX(ctx, summaryVersionKey, 1, 0).Result()
	if err != nil {
		return 0, err
	}
	if created {
		return 1, nil
	}
	return c.client.Get(ctx, summaryVersionKey).Int64()
}

// BuildKey agrega la versión vigente a la llave base.
func (c *SummaryCache) BuildKey(ctx context.Context, base string) (string, error) {
	if c == nil || c.client == nil {
		return base, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", base, ver), nil
}

// FetchJSON lee la llave o la puebla con loader.
func (c *SummaryCache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader requerido")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalida todas las llaves incrementando la versión.
func (c *SummaryCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, summaryVersionKey).Err()
}
