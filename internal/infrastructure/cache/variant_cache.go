package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/ventas-sync/internal/application/ingest"
	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/pkg/config"
)

const (
	variantKeyPrefix  = "bsale:variante"
	defaultVariantTTL = 24 * time.Hour
)

var (
	_ ingest.VariantCache = (*redisVariantCache)(nil)
	_ ingest.VariantCache = (*noopVariantCache)(nil)
)

type redisVariantCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopVariantCache struct{}

// NewVariantCache devuelve la cache Redis si está habilitada, o una noop en caso contrario.
// El cierre de la conexión queda a cargo de la función devuelta.
func NewVariantCache(cfg config.CacheConfig) (ingest.VariantCache, func() error, error) {
	if !cfg.Enabled {
		return &noopVariantCache{}, func() error { return nil }, nil
	}
	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultVariantTTL
	}
	return &redisVariantCache{client: client, ttl: ttl}, client.Close, nil
}

// NewNoopVariantCache cache que nunca encuentra nada.
func NewNoopVariantCache() ingest.VariantCache {
	return &noopVariantCache{}
}

func (c *redisVariantCache) Get(ctx context.Context, token string, variantID int64) (entity.VariantData, bool, error) {
	payload, err := c.client.Get(ctx, variantKey(token, variantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.VariantData{}, false, nil
	}
	if err != nil {
		return entity.VariantData{}, false, fmt.Errorf("redis get failed: %w", err)
	}
	data, err := decodeVariant(payload)
	if err != nil {
		return entity.VariantData{}, false, err
	}
	return data, true, nil
}

func (c *redisVariantCache) Set(ctx context.Context, token string, variantID int64, data entity.VariantData, ttl time.Duration) error {
	payload, err := encodeVariant(data)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.client.Set(ctx, variantKey(token, variantID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (noopVariantCache) Get(context.Context, string, int64) (entity.VariantData, bool, error) {
	return entity.VariantData{}, false, nil
}

func (noopVariantCache) Set(context.Context, string, int64, entity.VariantData, time.Duration) error {
	return nil
}

// variantKey el token nunca se guarda en claro: se usa un hash corto que separa cuentas.
func variantKey(token string, variantID int64) string {
	sum := sha1.Sum([]byte(token))
	return variantKeyPrefix + ":" + hex.EncodeToString(sum[:6]) + ":" + strconv.FormatInt(variantID, 10)
}

type variantRecord struct {
	Product     string `json:"product"`
	ProductType string `json:"product_type"`
	AverageCost string `json:"average_cost,omitempty"` // vacío = sin costo
}

func encodeVariant(d entity.VariantData) ([]byte, error) {
	rec := variantRecord{Product: d.Info.ProductName, ProductType: d.Info.ProductTypeName}
	if d.AverageCost.Valid {
		rec.AverageCost = d.AverageCost.Decimal.String()
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode variant cache: %w", err)
	}
	return payload, nil
}

func decodeVariant(payload []byte) (entity.VariantData, error) {
	var rec variantRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return entity.VariantData{}, fmt.Errorf("decode variant cache: %w", err)
	}
	d := entity.VariantData{
		Info:      entity.VariantInfo{ProductName: rec.Product, ProductTypeName: rec.ProductType},
		ProductOK: true,
		CostOK:    true,
	}
	if rec.AverageCost != "" {
		if err := d.AverageCost.Scan(rec.AverageCost); err != nil {
			return entity.VariantData{}, fmt.Errorf("decode variant cache cost: %w", err)
		}
	}
	return d, nil
}
