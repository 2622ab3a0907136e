package security

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// DeriveFingerprint вычисляет детерминированный отпечаток сессии
// по метаданным соединения. Поля разделяются переводом строки,
// чтобы разные комбинации значений не склеивались в один и тот же вход.
// Отпечаток — мягкая привязка: ротация отклоняется только когда отпечаток
// записан у токена и предъявлен новый, и они различаются.
func DeriveFingerprint(userAgent, networkAddress, acceptLanguage, acceptEncoding string) string {
	payload := strings.Join([]string{userAgent, networkAddress, acceptLanguage, acceptEncoding}, "\n")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// FingerprintFromRequest собирает отпечаток из HTTP-запроса
func FingerprintFromRequest(request *http.Request) string {
	return DeriveFingerprint(
		request.UserAgent(),
		request.RemoteAddr,
		request.Header.Get("Accept-Language"),
		request.Header.Get("Accept-Encoding"),
	)
}
