// Package cache кэширует выдачу свободных слотов в Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// keyPrefix пространство ключей кэша доступности
	keyPrefix = "office_scheduler:availability:"
	// generationKey счётчик поколений, вне keyPrefix, чтобы Invalidate его не удалял
	generationKey = "office_scheduler:availability_generation"
)

var errStaleGeneration = errors.New("availability cache generation changed")

// AvailabilityCache read-through кэш выдачи свободных слотов.
// Любое изменение слотов поднимает поколение и сбрасывает весь кэш.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// Connect разбирает URL, создаёт клиента и проверяет соединение
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl, logger: logger}
}

func namespaceKey(key string) string {
	return keyPrefix + key
}

// Get возвращает закэшированные слоты. Промах и ошибка Redis одинаково дают false.
func (c *AvailabilityCache) Get(ctx context.Context, key string) ([]*model.Slot, bool) {
	val, err := c.client.Get(ctx, namespaceKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Availability cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	slots, err := decodeSlots(val)
	if err != nil {
		c.logger.Warn("Availability cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return slots, true
}

// Generation текущее поколение кэша. Отсутствующий счётчик означает поколение 0.
func (c *AvailabilityCache) Generation(ctx context.Context) (int64, bool) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.logger.Warn("Availability cache generation read failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

// Set пишет выдачу, только если поколение не менялось с момента чтения.
// WATCH на счётчике отменяет запись при конкурентном Invalidate.
func (c *AvailabilityCache) Set(ctx context.Context, key string, generation int64, slots []*model.Slot) {
	val, err := encodeSlots(slots)
	if err != nil {
		c.logger.Warn("Availability cache encode failed", zap.Error(err))
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, namespaceKey(key), val, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("Availability cache write skipped, slots changed", zap.String("key", key))
	default:
		c.logger.Warn("Availability cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate поднимает поколение и удаляет все ключи кэша доступности
func (c *AvailabilityCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Warn("Availability cache generation bump failed", zap.Error(err))
	}

	var keys []string
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Availability cache scan failed", zap.Error(err))
		return
	}

	if len(keys) == 0 {
		return
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Availability cache invalidation failed", zap.Int("keys", len(keys)), zap.Error(err))
	}
}

func encodeSlots(slots []*model.Slot) ([]byte, error) {
	if slots == nil {
		slots = []*model.Slot{}
	}
	return json.Marshal(slots)
}

func decodeSlots(b []byte) ([]*model.Slot, error) {
	var slots []*model.Slot
	if err := json.Unmarshal(b, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}
