package security

import (
	"errors"
	"fmt"
	"time"
)

// Закрытый набор ожидаемых ошибок аутентификации.
// Обработчики сопоставляют их с HTTP-статусами через errors.Is,
// а не через сравнение строк. Ошибки хранилища (недоступна БД/Redis)
// в этот набор не входят и возвращаются как обычные обёрнутые ошибки.
var (
	ErrInvalidCredentials = errors.New("неверный логин или пароль")
	ErrAccountLocked      = errors.New("аккаунт временно заблокирован")
	ErrNoToken            = errors.New("токен не передан")
	ErrTokenInvalid       = errors.New("невалидный токен")
	ErrTokenExpired       = errors.New("токен просрочен")
	ErrTokenTypeMismatch  = errors.New("неверный тип токена")

	ErrInvalidRefreshToken = errors.New("невалидный refresh токен")
	ErrRefreshTokenExpired = errors.New("refresh токен просрочен")
	// ErrTokenReuseDetected — повторное использование уже обменянного
	// refresh-токена. Единственная ошибка, по которой отзывается вся семья
	// токенов и пишется security-audit запись.
	ErrTokenReuseDetected  = errors.New("обнаружено повторное использование refresh токена")
	ErrFingerprintMismatch = errors.New("отпечаток сессии не совпадает")
)

// AccountLockedError несёт оставшееся время блокировки для заголовка Retry-After
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("%v, повторите через %d с", ErrAccountLocked, int(e.RetryAfter.Seconds()))
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
