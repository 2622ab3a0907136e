package service_test

import (
	"context"
	"testing"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/security"
	"resale-pricing-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Сквозной сценарий жизненного цикла refresh-токена на настоящих
// JWT- и ротационном сервисах поверх in-memory хранилища.
// Подменяются только пользователи и счётчик попыток входа.
func newLifecycleAuthService() (*service.AuthenticationService, *memoryTokenStore, *MockUserRepository, *MockAttemptLimiter) {
	store := newMemoryTokenStore()
	mockUserRepo := new(MockUserRepository)
	mockLimiter := new(MockAttemptLimiter)

	cfg := &config.AppConfig{
		JWT: config.JWTConfig{
			AccessSecret:    "lifecycle-access-secret",
			RefreshSecret:   "lifecycle-refresh-secret",
			AccessTokenTTL:  "15m",
			RefreshTokenTTL: "168h",
			Issuer:          "resale-pricing-server",
			AccessAudience:  "resale-api",
			RefreshAudience: "resale-refresh",
		},
		Auth: config.AuthConfig{MaxSessionsPerUser: 5, BcryptCost: 4},
	}

	jwtService := security.NewJWTService(&cfg.JWT)
	rotation := service.NewRotationService(store, "")

	svc := service.NewAuthenticationService(store, cfg, jwtService, mockUserRepo, mockLimiter, rotation)
	return svc, store, mockUserRepo, mockLimiter
}

func TestTokenLifecycle_ReplayKillsFamily(t *testing.T) {
	svc, store, mockUserRepo, mockLimiter := newLifecycleAuthService()
	ctx := context.Background()

	hash, err := security.HashPassword("goodpass", 4)
	require.NoError(t, err)
	user := &model.User{UUID: "u1", Login: "user1", PasswordHash: hash}

	mockLimiter.On("Check", ctx, "user1").Return(openAttempts(), nil)
	mockUserRepo.On("FindByLogin", ctx, "user1").Return(user, nil)
	mockLimiter.On("Clear", ctx, "user1").Return(nil)

	// Вход: первая пара, новая семья
	first, err := svc.Login(ctx, "user1", "goodpass", "agent", "127.0.0.1", "")
	require.NoError(t, err)

	firstRecord, err := store.FindByTokenHash(ctx, security.HashToken(first.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, firstRecord)
	family := firstRecord.FamilyUUID
	require.NotEmpty(t, family)

	// Обычный обмен: вторая пара в той же семье, первый токен погашен
	second, err := svc.Refresh(ctx, first.RefreshToken, "agent", "127.0.0.1", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	secondRecord, err := store.FindByTokenHash(ctx, security.HashToken(second.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, secondRecord)
	assert.Equal(t, family, secondRecord.FamilyUUID)

	// Повтор первого токена: кража обнаружена, семья отозвана
	_, err = svc.Refresh(ctx, first.RefreshToken, "agent", "127.0.0.1", "")
	assert.ErrorIs(t, err, security.ErrTokenReuseDetected)

	// Второй токен ещё не использован, но семья мертва целиком
	_, err = svc.Refresh(ctx, second.RefreshToken, "agent", "127.0.0.1", "")
	assert.ErrorIs(t, err, security.ErrInvalidRefreshToken)
}

func TestTokenLifecycle_ChainedRefreshKeepsFamily(t *testing.T) {
	svc, store, mockUserRepo, mockLimiter := newLifecycleAuthService()
	ctx := context.Background()

	hash, err := security.HashPassword("goodpass", 4)
	require.NoError(t, err)
	user := &model.User{UUID: "u1", Login: "user1", PasswordHash: hash}

	mockLimiter.On("Check", ctx, "user1").Return(openAttempts(), nil)
	mockUserRepo.On("FindByLogin", ctx, "user1").Return(user, nil)
	mockLimiter.On("Clear", ctx, "user1").Return(nil)

	tokens, err := svc.Login(ctx, "user1", "goodpass", "agent", "127.0.0.1", "")
	require.NoError(t, err)

	record, err := store.FindByTokenHash(ctx, security.HashToken(tokens.RefreshToken))
	require.NoError(t, err)
	family := record.FamilyUUID

	// Цепочка из нескольких обменов остаётся в исходной семье
	for i := 0; i < 3; i++ {
		tokens, err = svc.Refresh(ctx, tokens.RefreshToken, "agent", "127.0.0.1", "")
		require.NoError(t, err)

		record, err = store.FindByTokenHash(ctx, security.HashToken(tokens.RefreshToken))
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, family, record.FamilyUUID)
	}
}

func TestTokenLifecycle_SeparateLoginsSeparateFamilies(t *testing.T) {
	svc, store, mockUserRepo, mockLimiter := newLifecycleAuthService()
	ctx := context.Background()

	hash, err := security.HashPassword("goodpass", 4)
	require.NoError(t, err)
	user := &model.User{UUID: "u1", Login: "user1", PasswordHash: hash}

	mockLimiter.On("Check", ctx, "user1").Return(openAttempts(), nil)
	mockUserRepo.On("FindByLogin", ctx, "user1").Return(user, nil)
	mockLimiter.On("Clear", ctx, "user1").Return(nil)

	desktop, err := svc.Login(ctx, "user1", "goodpass", "desktop-agent", "127.0.0.1", "")
	require.NoError(t, err)
	mobile, err := svc.Login(ctx, "user1", "goodpass", "mobile-agent", "10.0.0.1", "")
	require.NoError(t, err)

	desktopRecord, err := store.FindByTokenHash(ctx, security.HashToken(desktop.RefreshToken))
	require.NoError(t, err)
	mobileRecord, err := store.FindByTokenHash(ctx, security.HashToken(mobile.RefreshToken))
	require.NoError(t, err)
	require.NotEqual(t, desktopRecord.FamilyUUID, mobileRecord.FamilyUUID)

	// Повтор украденного токена одной сессии не трогает другую
	_, err = svc.Refresh(ctx, desktop.RefreshToken, "desktop-agent", "127.0.0.1", "")
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, desktop.RefreshToken, "desktop-agent", "127.0.0.1", "")
	require.ErrorIs(t, err, security.ErrTokenReuseDetected)

	_, err = svc.Refresh(ctx, mobile.RefreshToken, "mobile-agent", "10.0.0.1", "")
	assert.NoError(t, err)
}

func TestTokenLifecycle_LogoutAllEndsEverySession(t *testing.T) {
	svc, _, mockUserRepo, mockLimiter := newLifecycleAuthService()
	ctx := context.Background()

	hash, err := security.HashPassword("goodpass", 4)
	require.NoError(t, err)
	user := &model.User{UUID: "u1", Login: "user1", PasswordHash: hash}

	mockLimiter.On("Check", ctx, "user1").Return(openAttempts(), nil)
	mockUserRepo.On("FindByLogin", ctx, "user1").Return(user, nil)
	mockLimiter.On("Clear", ctx, "user1").Return(nil)

	first, err := svc.Login(ctx, "user1", "goodpass", "agent", "127.0.0.1", "")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "user1", "goodpass", "agent", "127.0.0.1", "")
	require.NoError(t, err)

	revoked, err := svc.LogoutAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), revoked)

	_, err = svc.Refresh(ctx, first.RefreshToken, "agent", "127.0.0.1", "")
	assert.ErrorIs(t, err, security.ErrInvalidRefreshToken)
	_, err = svc.Refresh(ctx, second.RefreshToken, "agent", "127.0.0.1", "")
	assert.ErrorIs(t, err, security.ErrInvalidRefreshToken)
}
