package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/util"

	"github.com/redis/go-redis/v9"
)

type CacheRepository struct {
	client *config.RedisClient
	ttl    time.Duration
}

func NewCacheRepository(rdb *config.RedisClient, ttl time.Duration) *CacheRepository {
	return &CacheRepository{rdb, ttl}
}

// SetAppraisal кэширует оценку, чтобы не ходить в vision-сервис повторно
func (r *CacheRepository) SetAppraisal(ctx context.Context, appraisal *model.Appraisal) error {
	data, err := json.Marshal(appraisal)
	if err != nil {
		return util.LogError("ошибка сериализации оценки", err)
	}

	cmd := r.client.Client.Set(ctx, r.key(appraisal.ListingUUID), data, r.ttl)
	if err = cmd.Err(); err != nil {
		return util.LogError("ошибка сохранения в Redis", err)
	}
	if cmd.Val() != "OK" {
		return fmt.Errorf("неожиданный ответ Redis: %s", cmd.Val())
	}

	return nil
}

func (r *CacheRepository) GetAppraisal(ctx context.Context, listingUUID string) (*model.Appraisal, error) {
	val, err := r.client.Client.Get(ctx, r.key(listingUUID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // нет в кэше
	} else if err != nil {
		return nil, util.LogError("ошибка получения оценки из Redis", err)
	}

	var appraisal model.Appraisal
	if err := json.Unmarshal([]byte(val), &appraisal); err != nil {
		return nil, util.LogError("ошибка десериализации оценки из кэша", err)
	}
	return &appraisal, nil
}

func (r *CacheRepository) DeleteAppraisal(ctx context.Context, listingUUID string) error {
	if err := r.client.Client.Del(ctx, r.key(listingUUID)).Err(); err != nil {
		return util.LogError("ошибка удаления оценки из Redis", err)
	}
	return nil
}

func (r *CacheRepository) key(listingUUID string) string {
	return fmt.Sprintf("appraisal:%s", listingUUID)
}
