package service_test

import (
	"context"
	"testing"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== MOCKS =====

// MockAuthenticationService
type MockAuthenticationService struct {
	mock.Mock
}

func (m *MockAuthenticationService) Login(ctx context.Context, login, password, userAgent, ipAddress, fingerprint string) (*model.TokensPair, error) {
	args := m.Called(ctx, login, password, userAgent, ipAddress, fingerprint)
	if tokens, ok := args.Get(0).(*model.TokensPair); ok {
		return tokens, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticationService) Refresh(ctx context.Context, refreshToken, userAgent, ipAddress, fingerprint string) (*model.TokensPair, error) {
	args := m.Called(ctx, refreshToken, userAgent, ipAddress, fingerprint)
	if tokens, ok := args.Get(0).(*model.TokensPair); ok {
		return tokens, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticationService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthenticationService) LogoutAll(ctx context.Context, userUUID string) (int64, error) {
	args := m.Called(ctx, userUUID)
	return args.Get(0).(int64), args.Error(1)
}

// ===== HELPERS =====

func newTestUserService() (*service.UserService, *MockUserRepository, *MockAuthenticationService) {
	mockUserRepo := new(MockUserRepository)
	mockAuth := new(MockAuthenticationService)

	svc := service.NewUserService(mockUserRepo, mockAuth, &config.AuthConfig{BcryptCost: 4})
	return svc, mockUserRepo, mockAuth
}

// ===== TESTS =====

// 1. Короткий логин
func TestRegister_ShortLogin(t *testing.T) {
	svc, _, _ := newTestUserService()

	_, _, err := svc.Register(context.Background(), "user", "GoodPass1", "agent", "127.0.0.1", "")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "не меньше 8 символов")
}

// 2. Логин с недопустимыми символами
func TestRegister_InvalidLoginCharacters(t *testing.T) {
	svc, _, _ := newTestUserService()

	_, _, err := svc.Register(context.Background(), "user@name!", "GoodPass1", "agent", "127.0.0.1", "")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "только латинские буквы и цифры")
}

// 3. Слабый пароль
func TestRegister_WeakPassword(t *testing.T) {
	svc, _, _ := newTestUserService()

	cases := []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"}
	for _, password := range cases {
		_, _, err := svc.Register(context.Background(), "gooduser1", password, "agent", "127.0.0.1", "")
		assert.Error(t, err, "пароль %q должен быть отклонён", password)
	}
}

// 4. Занятый логин
func TestRegister_LoginTaken(t *testing.T) {
	svc, mockUserRepo, _ := newTestUserService()
	ctx := context.Background()

	mockUserRepo.On("Exists", ctx, "gooduser1").Return(true, nil)

	_, _, err := svc.Register(ctx, "gooduser1", "GoodPass1", "agent", "127.0.0.1", "")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "логин уже занят")
	mockUserRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

// 5. Успешная регистрация сразу выдаёт пару токенов
func TestRegister_Success(t *testing.T) {
	svc, mockUserRepo, mockAuth := newTestUserService()
	ctx := context.Background()

	tokens := &model.TokensPair{AccessToken: "acc", RefreshToken: "ref"}

	mockUserRepo.On("Exists", ctx, "gooduser1").Return(false, nil)
	mockUserRepo.On("CreateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.Login == "gooduser1" && u.UUID != "" && u.PasswordHash != "GoodPass1"
	})).Return(&model.User{UUID: "u1", Login: "gooduser1"}, nil)
	mockAuth.On("Login", ctx, "gooduser1", "GoodPass1", "agent", "127.0.0.1", "fp-1").
		Return(tokens, nil)

	user, pair, err := svc.Register(ctx, "gooduser1", "GoodPass1", "agent", "127.0.0.1", "fp-1")

	require.NoError(t, err)
	assert.Equal(t, "u1", user.UUID)
	assert.Equal(t, tokens, pair)
	mockUserRepo.AssertExpectations(t)
	mockAuth.AssertExpectations(t)
}
