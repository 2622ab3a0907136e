package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/security"
	"resale-pricing-server/internal/util"

	"github.com/redis/go-redis/v9"
)

// LoginAttemptRepository считает неудачные попытки входа в Redis.
// TTL ключа обновляется при каждой неудаче, поэтому окно блокировки
// скользит от последней неудачи, а не от первой.
type LoginAttemptRepository struct {
	client      *config.RedisClient
	maxAttempts int
	window      time.Duration
}

func NewLoginAttemptRepository(rdb *config.RedisClient, maxAttempts int, window time.Duration) *LoginAttemptRepository {
	return &LoginAttemptRepository{rdb, maxAttempts, window}
}

// Check проверяет, разрешён ли вход для идентификатора.
// При активной блокировке возвращает AccountLockedError с оставшимся
// временем из TTL ключа
func (r *LoginAttemptRepository) Check(ctx context.Context, identifier string) (*model.LoginAttemptState, error) {
	key := r.key(identifier)

	count, err := r.client.Client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return &model.LoginAttemptState{
			Identifier:        normalizeIdentifier(identifier),
			FailureCount:      0,
			RemainingAttempts: r.maxAttempts,
		}, nil
	} else if err != nil {
		return nil, util.LogError("ошибка чтения счётчика попыток из Redis", err)
	}

	if count >= r.maxAttempts {
		ttl, err := r.client.Client.TTL(ctx, key).Result()
		if err != nil {
			return nil, util.LogError("ошибка чтения TTL счётчика попыток", err)
		}
		if ttl < 0 {
			ttl = r.window
		}
		return nil, &security.AccountLockedError{RetryAfter: ttl}
	}

	return &model.LoginAttemptState{
		Identifier:        normalizeIdentifier(identifier),
		FailureCount:      count,
		RemainingAttempts: r.maxAttempts - count,
	}, nil
}

// RecordFailure увеличивает счётчик и сдвигает окно блокировки
func (r *LoginAttemptRepository) RecordFailure(ctx context.Context, identifier string) error {
	key := r.key(identifier)

	if err := r.client.Client.Incr(ctx, key).Err(); err != nil {
		return util.LogError("ошибка увеличения счётчика попыток в Redis", err)
	}

	if err := r.client.Client.Expire(ctx, key, r.window).Err(); err != nil {
		return util.LogError("ошибка установки TTL счётчика попыток", err)
	}

	return nil
}

// Clear сбрасывает счётчик после успешной аутентификации
func (r *LoginAttemptRepository) Clear(ctx context.Context, identifier string) error {
	if err := r.client.Client.Del(ctx, r.key(identifier)).Err(); err != nil {
		return util.LogError("ошибка сброса счётчика попыток в Redis", err)
	}
	return nil
}

func (r *LoginAttemptRepository) key(identifier string) string {
	return fmt.Sprintf("login_attempts:%s", normalizeIdentifier(identifier))
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
