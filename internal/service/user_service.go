package service

import (
	"context"
	"fmt"
	"unicode"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/ports"
	"resale-pricing-server/internal/security"

	"github.com/google/uuid"
)

type UserService struct {
	userRepository ports.UserRepository
	authentication ports.AuthenticationService
	authConfig     *config.AuthConfig
}

func NewUserService(
	userRepository ports.UserRepository,
	authentication ports.AuthenticationService,
	authConfig *config.AuthConfig,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		authentication: authentication,
		authConfig:     authConfig,
	}
}

// Register создаёт пользователя и сразу аутентифицирует его
func (s *UserService) Register(ctx context.Context, login, password, userAgent, ipAddress, fingerprint string) (*model.User, *model.TokensPair, error) {
	if len(login) < 8 {
		return nil, nil, fmt.Errorf("[UserService] логин должен быть не меньше 8 символов")
	}
	for _, c := range login {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return nil, nil, fmt.Errorf("[UserService] логин должен содержать только латинские буквы и цифры")
		}
	}

	if err := validatePassword(password); err != nil {
		return nil, nil, fmt.Errorf("[UserService] %w", err)
	}

	exists, err := s.userRepository.Exists(ctx, login)
	if err != nil {
		return nil, nil, fmt.Errorf("[UserService] ошибка проверки логина: %w", err)
	}
	if exists {
		return nil, nil, fmt.Errorf("[UserService] логин уже занят")
	}

	hash, err := security.HashPassword(password, s.authConfig.BcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	user := &model.User{
		UUID:         uuid.New().String(),
		Login:        login,
		PasswordHash: hash,
	}

	created, err := s.userRepository.CreateUser(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("[UserService] ошибка создания пользователя: %w", err)
	}

	tokens, err := s.authentication.Login(ctx, login, password, userAgent, ipAddress, fingerprint)
	if err != nil {
		return nil, nil, fmt.Errorf("[UserService] не удалось аутентифицировать нового пользователя: %w", err)
	}

	return created, tokens, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("пароль должен содержать минимум 8 символов")
	}

	var upperCount, lowerCount, digitCount int

	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upperCount++
		case unicode.IsLower(c):
			lowerCount++
		case unicode.IsDigit(c):
			digitCount++
		}
	}

	if upperCount == 0 || lowerCount == 0 || digitCount == 0 {
		return fmt.Errorf("пароль должен содержать заглавные и строчные буквы и цифры")
	}

	return nil
}
