package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/notifier"
	"resale-pricing-server/internal/ports"
	"resale-pricing-server/internal/security"
	"resale-pricing-server/internal/util"
)

// RotationService реализует протокол ротации refresh-токенов.
// Токен одноразовый: повторное предъявление уже обменянного токена
// означает кражу или багнутый клиент, и в обоих случаях отзывается
// вся семья токенов, принуждая к повторной аутентификации везде.
type RotationService struct {
	refreshTokenRepository ports.RefreshTokenRepositoryInterface
	webhookURL             string
}

func NewRotationService(repo ports.RefreshTokenRepositoryInterface, webhookURL string) *RotationService {
	return &RotationService{
		refreshTokenRepository: repo,
		webhookURL:             webhookURL,
	}
}

// Rotate проверяет предъявленный refresh-токен и помечает его использованным.
// Проверка и пометка атомарны: сама пометка выполняется условным UPDATE,
// и проигравший гонку конкурентный обмен того же токена получает отказ,
// а не вторую валидную пару.
//
// Возвращает:
//   - model.RotationResult с UUID пользователя и семьи для выпуска новой пары
//   - одну из ошибок security.ErrInvalidRefreshToken, security.ErrTokenReuseDetected,
//     security.ErrRefreshTokenExpired, security.ErrFingerprintMismatch
func (s *RotationService) Rotate(ctx context.Context, presentedToken string, fingerprint string) (*model.RotationResult, error) {
	tokenHash := security.HashToken(presentedToken)

	record, err := s.refreshTokenRepository.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения refresh токена: %w", err)
	}
	if record == nil || record.RevokedAt != nil {
		return nil, security.ErrInvalidRefreshToken
	}

	if record.Used {
		return nil, s.handleReuse(ctx, record)
	}

	if time.Now().UTC().After(record.ExpireAt) {
		if err := s.refreshTokenRepository.DeleteByTokenHash(ctx, tokenHash); err != nil {
			log.Printf("не удалось удалить просроченный токен: %v", err)
		}
		return nil, security.ErrRefreshTokenExpired
	}

	// Мягкая привязка к сессии: отказ только когда отпечаток записан
	// и предъявлен новый, и они различаются. Отсутствие отпечатка
	// с любой стороны несовпадением не считается.
	if record.Fingerprint != nil && *record.Fingerprint != "" && fingerprint != "" && *record.Fingerprint != fingerprint {
		log.Printf("отпечаток сессии не совпал для токена семьи %s", record.FamilyUUID)
		return nil, security.ErrFingerprintMismatch
	}

	marked, err := s.refreshTokenRepository.MarkUsedByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("не удалось использовать токен: %w", err)
	}
	if marked == false {
		// Гонка: между чтением и UPDATE токен обменял кто-то другой
		return nil, s.handleReuse(ctx, record)
	}

	return &model.RotationResult{
		UserUUID:   record.UserUUID,
		FamilyUUID: record.FamilyUUID,
	}, nil
}

// handleReuse отзывает семью токенов и пишет security-audit запись
func (s *RotationService) handleReuse(ctx context.Context, record *model.RefreshToken) error {
	revoked, err := s.refreshTokenRepository.RevokeFamily(ctx, record.FamilyUUID)
	if err != nil {
		log.Printf("не удалось отозвать семью токенов %s: %v", record.FamilyUUID, err)
	} else {
		log.Printf("отозвано %d токенов семьи %s", revoked, record.FamilyUUID)
	}

	util.LogSecurityEvent("повторное использование refresh токена", record.UserUUID, record.FamilyUUID)

	go func() {
		if err := notifier.NotifyTokenReuse(s.webhookURL, record.UserUUID, record.FamilyUUID, record.IpAddress); err != nil {
			log.Printf("ошибка отправки webhook: %v", err)
		}
	}()

	return security.ErrTokenReuseDetected
}
