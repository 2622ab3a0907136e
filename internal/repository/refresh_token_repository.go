package repository

import (
	"context"
	"database/sql"
	"errors"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/util"
)

type RefreshTokenRepository struct {
	*config.Database
}

func NewRefreshTokenRepository(database *config.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{database}
}

// SaveRefreshToken сохраняет запись о refresh-токене и вытесняет самые старые
// живые записи пользователя сверх лимита maxSessions.
// Возвращает ошибку, если операция не удалась
func (r *RefreshTokenRepository) SaveRefreshToken(ctx context.Context, refreshToken *model.RefreshToken, maxSessions int) error {
	query := `INSERT INTO refresh_tokens (uuid, user_uuid, family_uuid, token_hash, fingerprint, used, user_agent, ip_address, created_at, expire_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.DB.ExecContext(ctx, query,
		refreshToken.UUID,
		refreshToken.UserUUID,
		refreshToken.FamilyUUID,
		refreshToken.TokenHash,
		refreshToken.Fingerprint,
		refreshToken.Used,
		refreshToken.UserAgent,
		refreshToken.IpAddress,
		refreshToken.CreatedAt,
		refreshToken.ExpireAt,
	)

	if err != nil {
		return util.LogError("ошибка вставки данных в БД", err)
	}

	evictQuery := `DELETE FROM refresh_tokens
		WHERE uuid IN (
			SELECT uuid FROM refresh_tokens
			WHERE user_uuid = $1 AND used = FALSE AND revoked_at IS NULL
			ORDER BY created_at DESC
			OFFSET $2
		)`

	if _, err := r.DB.ExecContext(ctx, evictQuery, refreshToken.UserUUID, maxSessions); err != nil {
		return util.LogError("не удалось вытеснить старые refresh токены", err)
	}

	return nil
}

// FindByTokenHash ищет запись по хэшу предъявленного токена.
// Возвращает nil без ошибки, если записи нет
func (r *RefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	query := `SELECT uuid, user_uuid, family_uuid, token_hash, fingerprint, used, user_agent, ip_address, created_at, expire_at, revoked_at
				FROM refresh_tokens WHERE token_hash = $1`

	refreshToken := &model.RefreshToken{}

	err := r.DB.QueryRowContext(ctx, query, tokenHash).Scan(
		&refreshToken.UUID,
		&refreshToken.UserUUID,
		&refreshToken.FamilyUUID,
		&refreshToken.TokenHash,
		&refreshToken.Fingerprint,
		&refreshToken.Used,
		&refreshToken.UserAgent,
		&refreshToken.IpAddress,
		&refreshToken.CreatedAt,
		&refreshToken.ExpireAt,
		&refreshToken.RevokedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, util.LogError("ошибка при выполнении запроса", err)
	}

	return refreshToken, nil
}

// MarkUsedByTokenHash атомарно помечает запись использованной.
// Условие used = FALSE в самом UPDATE: два конкурентных обмена одного токена
// не могут оба увидеть живую запись, победитель определяется в БД.
// Возвращает false, если запись отсутствует, отозвана или уже использована
func (r *RefreshTokenRepository) MarkUsedByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	query := `UPDATE refresh_tokens SET used = TRUE WHERE token_hash = $1 AND used = FALSE AND revoked_at IS NULL`

	result, err := r.DB.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return false, util.LogError("не удалось обновить refresh токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("не удалось проверить, обновлён ли токен", err)
	}

	return rowsAffected > 0, nil
}

// RevokeFamily отзывает все токены семьи.
// Возвращает число отозванных записей
func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, familyUUID string) (int64, error) {
	query := `UPDATE refresh_tokens SET revoked_at = NOW() WHERE family_uuid = $1 AND revoked_at IS NULL`

	result, err := r.DB.ExecContext(ctx, query, familyUUID)
	if err != nil {
		return 0, util.LogError("не удалось отозвать семью токенов", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("не удалось получить число отозванных токенов", err)
	}

	return rowsAffected, nil
}

// RevokeUser удаляет все refresh токены пользователя во всех семьях.
// Возвращает число удалённых записей
func (r *RefreshTokenRepository) RevokeUser(ctx context.Context, userUUID string) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE user_uuid = $1`

	result, err := r.DB.ExecContext(ctx, query, userUUID)
	if err != nil {
		return 0, util.LogError("не удалось удалить токены пользователя", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("не удалось получить число удалённых токенов", err)
	}

	return rowsAffected, nil
}

// DeleteByTokenHash удаляет одну запись по хэшу токена
func (r *RefreshTokenRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	query := `DELETE FROM refresh_tokens WHERE token_hash = $1`

	if _, err := r.DB.ExecContext(ctx, query, tokenHash); err != nil {
		return util.LogError("не удалось удалить refresh токен", err)
	}

	return nil
}

// DeleteExpired удаляет все просроченные записи.
// Запускается по таймеру независимо от обработки запросов
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expire_at < NOW()`

	result, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, util.LogError("не удалось удалить просроченные токены", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("не удалось получить число удалённых токенов", err)
	}

	return rowsAffected, nil
}
