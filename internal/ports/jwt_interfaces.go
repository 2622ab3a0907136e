package ports

import (
	"context"

	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/security"
)

type RefreshTokenRepositoryInterface interface {
	SaveRefreshToken(ctx context.Context, token *model.RefreshToken, maxSessions int) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	// MarkUsedByTokenHash атомарно переводит запись из used=false в used=true.
	// Возвращает false, если запись отсутствует или уже была использована.
	MarkUsedByTokenHash(ctx context.Context, tokenHash string) (bool, error)
	RevokeFamily(ctx context.Context, familyUUID string) (int64, error)
	RevokeUser(ctx context.Context, userUUID string) (int64, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type JWTServiceInterface interface {
	GenerateTokensPair(userUUID string, login string) (*model.TokensPair, *model.RefreshToken, error)
	VerifyAccess(tokenString string) (*security.Claims, error)
	VerifyRefresh(tokenString string) (*security.Claims, error)
}
