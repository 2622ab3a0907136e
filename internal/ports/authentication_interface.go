package ports

import (
	"context"

	"resale-pricing-server/internal/model"
)

type AuthenticationService interface {
	Login(ctx context.Context, login, password, userAgent, ipAddress, fingerprint string) (*model.TokensPair, error)
	Refresh(ctx context.Context, refreshToken, userAgent, ipAddress, fingerprint string) (*model.TokensPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userUUID string) (int64, error)
}

// RotationProtocol проверяет предъявленный refresh-токен, обнаруживает
// повторное использование и разрешает выпуск следующей пары в семье
type RotationProtocol interface {
	Rotate(ctx context.Context, presentedToken string, fingerprint string) (*model.RotationResult, error)
}

type LoginAttemptLimiter interface {
	Check(ctx context.Context, identifier string) (*model.LoginAttemptState, error)
	RecordFailure(ctx context.Context, identifier string) error
	Clear(ctx context.Context, identifier string) error
}
