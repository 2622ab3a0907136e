package service

import (
	"context"
	"fmt"
	"log"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/ports"
	"resale-pricing-server/internal/security"
	"resale-pricing-server/internal/util"

	"github.com/google/uuid"
)

type AuthenticationService struct {
	refreshTokenRepository ports.RefreshTokenRepositoryInterface
	*config.AppConfig
	jwtServiceInterface ports.JWTServiceInterface
	userRepository      ports.UserRepository
	attemptLimiter      ports.LoginAttemptLimiter
	rotation            ports.RotationProtocol
}

func NewAuthenticationService(
	repo ports.RefreshTokenRepositoryInterface,
	cfg *config.AppConfig,
	jwtService ports.JWTServiceInterface,
	userRepository ports.UserRepository,
	attemptLimiter ports.LoginAttemptLimiter,
	rotation ports.RotationProtocol,
) *AuthenticationService {
	return &AuthenticationService{
		repo,
		cfg,
		jwtService,
		userRepository,
		attemptLimiter,
		rotation,
	}
}

// Login аутентифицирует пользователя и выдаёт пару токенов.
// Порядок фиксированный: сначала счётчик неудачных попыток, затем проверка
// пароля. Несуществующий логин и неверный пароль неразличимы для клиента.
// Refresh-токен получает новую семью: каждая сессия — своя цепочка ротации.
func (s *AuthenticationService) Login(ctx context.Context, login, password, userAgent, ipAddress, fingerprint string) (*model.TokensPair, error) {
	state, err := s.attemptLimiter.Check(ctx, login)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.FindByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		if err := s.attemptLimiter.RecordFailure(ctx, login); err != nil {
			log.Printf("не удалось записать неудачную попытку входа: %v", err)
		}
		log.Printf("неудачный вход для %s, осталось попыток: %d", login, state.RemainingAttempts-1)
		return nil, security.ErrInvalidCredentials
	}

	if err := s.attemptLimiter.Clear(ctx, login); err != nil {
		log.Printf("не удалось сбросить счётчик попыток: %v", err)
	}

	return s.issuePair(ctx, user.UUID, user.Login, uuid.New().String(), userAgent, ipAddress, fingerprint)
}

// Refresh обменивает refresh-токен на новую пару.
// Сначала проверяется подпись, срок, issuer, audience и тип предъявленного
// токена, затем протокол ротации читает и атомарно помечает серверную запись.
// Новая пара остаётся в той же семье, цепочка продолжается.
func (s *AuthenticationService) Refresh(ctx context.Context, refreshToken, userAgent, ipAddress, fingerprint string) (*model.TokensPair, error) {
	claims, err := s.jwtServiceInterface.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	result, err := s.rotation.Rotate(ctx, refreshToken, fingerprint)
	if err != nil {
		return nil, err
	}

	return s.issuePair(ctx, result.UserUUID, claims.Login, result.FamilyUUID, userAgent, ipAddress, fingerprint)
}

// Logout удаляет одну запись refresh-токена.
// Остальная история семьи не затрагивается
func (s *AuthenticationService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return security.ErrNoToken
	}

	if err := s.refreshTokenRepository.DeleteByTokenHash(ctx, security.HashToken(refreshToken)); err != nil {
		return fmt.Errorf("не удалось завершить сессию: %w", err)
	}
	return nil
}

// LogoutAll удаляет все refresh-токены пользователя во всех семьях.
// Возвращает число завершённых сессий
func (s *AuthenticationService) LogoutAll(ctx context.Context, userUUID string) (int64, error) {
	revoked, err := s.refreshTokenRepository.RevokeUser(ctx, userUUID)
	if err != nil {
		return 0, fmt.Errorf("не удалось завершить сессии пользователя: %w", err)
	}
	return revoked, nil
}

// issuePair выпускает пару токенов и сохраняет запись refresh-токена
// с метаданными сессии в заданной семье
func (s *AuthenticationService) issuePair(ctx context.Context, userUUID, login, familyUUID, userAgent, ipAddress, fingerprint string) (*model.TokensPair, error) {
	tokens, record, err := s.jwtServiceInterface.GenerateTokensPair(userUUID, login)
	if err != nil {
		return nil, util.LogError("ошибка генерации токенов", err)
	}

	record.FamilyUUID = familyUUID
	record.UserAgent = userAgent
	record.IpAddress = ipAddress
	if fingerprint != "" {
		record.Fingerprint = &fingerprint
	}

	if err := s.refreshTokenRepository.SaveRefreshToken(ctx, record, s.AppConfig.Auth.MaxSessionsPerUser); err != nil {
		return nil, util.LogError("не удалось сохранить refresh токен", err)
	}

	return tokens, nil
}
