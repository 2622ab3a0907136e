package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/security"
	"resale-pricing-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== MOCKS =====

// MockRefreshTokenRepo
type MockRefreshTokenRepo struct {
	mock.Mock
}

func (m *MockRefreshTokenRepo) SaveRefreshToken(ctx context.Context, token *model.RefreshToken, maxSessions int) error {
	args := m.Called(ctx, token, maxSessions)
	return args.Error(0)
}

func (m *MockRefreshTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if token, ok := args.Get(0).(*model.RefreshToken); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRefreshTokenRepo) MarkUsedByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	args := m.Called(ctx, tokenHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshTokenRepo) RevokeFamily(ctx context.Context, familyUUID string) (int64, error) {
	args := m.Called(ctx, familyUUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenRepo) RevokeUser(ctx context.Context, userUUID string) (int64, error) {
	args := m.Called(ctx, userUUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockRefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// ===== HELPERS =====

func liveTokenRecord(presentedToken string) *model.RefreshToken {
	return &model.RefreshToken{
		UUID:       "r1",
		UserUUID:   "u1",
		FamilyUUID: "f1",
		TokenHash:  security.HashToken(presentedToken),
		Used:       false,
		ExpireAt:   time.Now().UTC().Add(time.Hour),
	}
}

// ===== TESTS =====

// 1. Неизвестный токен
func TestRotate_UnknownToken(t *testing.T) {
	mockRepo := new(MockRefreshTokenRepo)
	svc := service.NewRotationService(mockRepo, "")

	mockRepo.On("FindByTokenHash", mock.Anything, security.HashToken("ghost")).Return(nil, nil)

	result, err := svc.Rotate(context.Background(), "ghost", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, security.ErrInvalidRefreshToken)
	mockRepo.AssertExpectations(t)
}

// 2. Отозванный токен неотличим от неизвестного
func TestRotate_RevokedToken(t *testing.T) {
	mockRepo := new(MockRefreshTokenRepo)
	svc := service.NewRotationService(mockRepo, "")

	revokedAt := time.Now().UTC()
	record := liveTokenRecord("token")
	record.RevokedAt = &revokedAt

	mockRepo.On("FindByTokenHash", mock.Anything, record.TokenHash).Return(record, nil)

	result, err := svc.Rotate(context.Background(), "token", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, security.ErrInvalidRefreshToken)
}

// 3. Повторное предъявление использованного токена отзывает всю семью
func TestRotate_ReuseRevokesFamily(t *testing.T) {
	mockRepo := new(MockRefreshTokenRepo)
	svc := service.NewRotationService(mockRepo, "")

	record := liveTokenRecord("stolen")
	record.Used = true

	mockRepo.On("FindByTokenHash", mock.Anything, record.TokenHash).Return(record, nil)
	mockRepo.On("RevokeFamily", mock.Anything, "f1").Return(int64(2), nil)

	result, err := svc.Rotate(context.Background(), "stolen", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, security.ErrTokenReuseDetected)
	mockRepo.AssertExpectations(t)
}

// 4. Просроченный токен удаляется при предъявлении
func TestRotate_ExpiredToken(t *testing.T) {
	mockRepo := new(MockRefreshTokenRepo)
	svc := service.NewRotationService(mockRepo, "")

	record := liveTokenRecord("old")
	record.ExpireAt = time.Now().UTC().Add(-time.Minute)

	mockRepo.On("FindByTokenHash", mock.Anything, record.TokenHash).Return(record, nil)
	mockRepo.On("DeleteByTokenHash", mock.Anything, record.TokenHash).Return(nil)

	result, err := svc.Rotate(context.Background(), "old", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, security.ErrRefreshTokenExpired)
	mockRepo.AssertExpectations(t)
}

// 5. Несовпадение отпечатков: отказ без пометки токена
func TestRotate_FingerprintMismatch(t *testing.T) {
	mockRepo := new(MockRefreshTokenRepo)
	svc := service.NewRotationService(mockRepo, "")

	stored := security.DeriveFingerprint("Mozilla/5.0", "10.0.0.1:443", "ru-RU", "gzip")
	record := liveTokenRecord("token")
	record.Fingerprint = &stored

	mockRepo.On("FindByTokenHash", mock.Anything, record.TokenHash).Return(record, nil)

	presented := security.DeriveFingerprint("curl/8.0", "10.0.0.2:443", "en-US", "br")
	result, err := svc.Rotate(context.Background(), "token", presented)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, security.ErrFingerprintMismatch)
	mockRepo.AssertNotCalled(t, "MarkUsedByTokenHash", mock.Anything, mock.Anything)
}

// 6. Привязка мягкая: отсутствие отпечатка с любой стороны не мешает обмену
func TestRotate_FingerprintSoftBinding(t *testing.T) {
	cases := []struct {
		name      string
		stored    *string
		presented string
	}{
		{"нет сохранённого", nil, "some-fingerprint"},
		{"нет предъявленного", ptr("stored-fingerprint"), ""},
		{"нет обоих", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := new(MockRefreshTokenRepo)
			svc := service.NewRotationService(mockRepo, "")

			record := liveTokenRecord("token")
			record.Fingerprint = tc.stored

			mockRepo.On("FindByTokenHash", mock.Anything, record.TokenHash).Return(record, nil)
			mockRepo.On("MarkUsedByTokenHash", mock.Anything, record.TokenHash).Return(true, nil)

			result, err := svc.Rotate(context.Background(), "token", tc.presented)

			require.NoError(t, err)
			assert.Equal(t, "u1", result.UserUUID)
			assert.Equal(t, "f1", result.FamilyUUID)
		})
	}
}

// 7. Проигравший гонку за UPDATE обрабатывается как повторное использование
func TestRotate_RaceLoserTreatedAsReuse(t *testing.T) {
	mockRepo := new(MockRefreshTokenRepo)
	svc := service.NewRotationService(mockRepo, "")

	record := liveTokenRecord("token")

	mockRepo.On("FindByTokenHash", mock.Anything, record.TokenHash).Return(record, nil)
	mockRepo.On("MarkUsedByTokenHash", mock.Anything, record.TokenHash).Return(false, nil)
	mockRepo.On("RevokeFamily", mock.Anything, "f1").Return(int64(1), nil)

	result, err := svc.Rotate(context.Background(), "token", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, security.ErrTokenReuseDetected)
	mockRepo.AssertExpectations(t)
}

func ptr(s string) *string { return &s }

// ===== IN-MEMORY STORE ДЛЯ ТЕСТА ГОНКИ =====

// memoryTokenStore повторяет семантику условного UPDATE из БД:
// пометка использованным атомарна под мьютексом
type memoryTokenStore struct {
	mu      sync.Mutex
	records map[string]*model.RefreshToken
	revoked map[string]bool
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{
		records: make(map[string]*model.RefreshToken),
		revoked: make(map[string]bool),
	}
}

func (s *memoryTokenStore) SaveRefreshToken(ctx context.Context, token *model.RefreshToken, maxSessions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.records[token.TokenHash] = &copied
	return nil
}

func (s *memoryTokenStore) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[tokenHash]
	if !ok {
		return nil, nil
	}
	copied := *record
	if s.revoked[record.FamilyUUID] && copied.RevokedAt == nil {
		now := time.Now().UTC()
		copied.RevokedAt = &now
	}
	return &copied, nil
}

func (s *memoryTokenStore) MarkUsedByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[tokenHash]
	if !ok || record.Used || s.revoked[record.FamilyUUID] {
		return false, nil
	}
	record.Used = true
	return true, nil
}

func (s *memoryTokenStore) RevokeFamily(ctx context.Context, familyUUID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[familyUUID] = true
	return 1, nil
}

func (s *memoryTokenStore) RevokeUser(ctx context.Context, userUUID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for hash, record := range s.records {
		if record.UserUUID == userUUID {
			delete(s.records, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (s *memoryTokenStore) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, tokenHash)
	return nil
}

func (s *memoryTokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	now := time.Now().UTC()
	for hash, record := range s.records {
		if now.After(record.ExpireAt) {
			delete(s.records, hash)
			deleted++
		}
	}
	return deleted, nil
}

// 8. Конкурентный обмен одного токена: ровно один победитель.
// Проигравшие получают отказ: либо как повторное использование,
// либо как невалидный токен, если семью уже успели отозвать
func TestRotate_ConcurrentExchange(t *testing.T) {
	store := newMemoryTokenStore()
	svc := service.NewRotationService(store, "")

	record := liveTokenRecord("shared-token")
	require.NoError(t, store.SaveRefreshToken(context.Background(), record, 5))

	const workers = 8
	results := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Rotate(context.Background(), "shared-token", "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var winners, losers int
	for err := range results {
		if err == nil {
			winners++
			continue
		}
		rejected := errors.Is(err, security.ErrTokenReuseDetected) || errors.Is(err, security.ErrInvalidRefreshToken)
		assert.True(t, rejected, "неожиданная ошибка: %v", err)
		losers++
	}

	assert.Equal(t, 1, winners)
	assert.Equal(t, workers-1, losers)
}
