package model

import "time"

// RefreshToken : серверная запись о выданном refresh-токене.
// Сам токен в БД не хранится, только его SHA-256 хэш.
// FamilyUUID объединяет всю цепочку токенов, выданных от одного входа:
// при обнаружении повторного использования отзывается вся семья.
type RefreshToken struct {
	UUID        string     `db:"uuid"`
	UserUUID    string     `db:"user_uuid"`
	FamilyUUID  string     `db:"family_uuid"`
	TokenHash   string     `db:"token_hash"`
	Fingerprint *string    `db:"fingerprint"`
	Used        bool       `db:"used"`
	UserAgent   string     `db:"user_agent"`
	IpAddress   string     `db:"ip_address"`
	CreatedAt   time.Time  `db:"created_at"`
	ExpireAt    time.Time  `db:"expire_at"`
	RevokedAt   *time.Time `db:"revoked_at"`
}

// TokensPair содержит пару access и refresh токенов
// swagger:model
type TokensPair struct {
	// Access токен (JWT)
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"accessToken"`

	// Refresh токен (для получения новой пары)
	// example: eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9...
	RefreshToken string `json:"refreshToken"`
}

// RotationResult : результат успешной ротации refresh-токена.
// FamilyUUID возвращается вызывающему, чтобы новая пара осталась в той же семье.
type RotationResult struct {
	UserUUID   string
	FamilyUUID string
}
