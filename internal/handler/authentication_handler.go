package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model/requestresponse"
	"resale-pricing-server/internal/ports"
	"resale-pricing-server/internal/security"
	"resale-pricing-server/internal/util"
)

const refreshCookieName = "refresh_token"

type AuthenticationHandler struct {
	ports.AuthenticationService
	jwtConfig *config.JWTConfig
}

func NewAuthenticationHandler(
	authenticationService ports.AuthenticationService,
	jwtConfig *config.JWTConfig,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		authenticationService,
		jwtConfig,
	}
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Получение пары токенов по логину и паролю. Refresh токен дополнительно устанавливается в HttpOnly cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.LoginResponse "Успешная аутентификация"
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный логин или пароль"
// @Failure 429 {object} requestresponse.ErrorResponse "Аккаунт временно заблокирован"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		util.HandleError(w, "login и password обязательны", http.StatusBadRequest)
		return
	}

	tokens, err := h.AuthenticationService.Login(ctx, req.Login, req.Password, r.UserAgent(), r.RemoteAddr, security.FingerprintFromRequest(r))
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken)

	resp := requestresponse.LoginResponse{}
	resp.Response.AccessToken = tokens.AccessToken
	resp.Response.RefreshToken = tokens.RefreshToken

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// RefreshToken godoc
// @Summary Обновление токенов
// @Description Обменивает одноразовый refresh токен на новую пару. Токен берётся из cookie или из тела запроса
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest false "Тело запроса (для небраузерных клиентов)"
// @Success 200 {object} requestresponse.RefreshTokenResponse "Новые access и refresh токены"
// @Failure 401 {object} requestresponse.ErrorResponse "Невалидный, просроченный или повторно использованный токен"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	refreshToken := h.extractRefreshToken(r)
	if refreshToken == "" {
		util.HandleError(w, "refresh токен не передан", http.StatusUnauthorized)
		return
	}

	tokens, err := h.AuthenticationService.Refresh(ctx, refreshToken, r.UserAgent(), r.RemoteAddr, security.FingerprintFromRequest(r))
	if err != nil {
		if errors.Is(err, security.ErrTokenReuseDetected) {
			// Обязательный побочный эффект: cookie сессии очищается,
			// клиент не должен повторять этот запрос
			h.clearRefreshCookie(w)
		}
		h.writeAuthError(w, err)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken)

	resp := requestresponse.RefreshTokenResponse{}
	resp.Response.AccessToken = tokens.AccessToken
	resp.Response.RefreshToken = tokens.RefreshToken

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Logout godoc
// @Summary Завершение текущей сессии
// @Description Удаляет запись предъявленного refresh токена и очищает cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.LogoutResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	refreshToken := h.extractRefreshToken(r)

	if err := h.AuthenticationService.Logout(ctx, refreshToken); err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.clearRefreshCookie(w)

	resp := requestresponse.LogoutResponse{}
	resp.Response.LoggedOut = true

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Println("ошибка кодирования ответа:", err)
	}
}

// LogoutAll godoc
// @Summary Завершение всех сессий пользователя
// @Description Удаляет все refresh токены текущего пользователя во всех семьях
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.LogoutAllResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/logout-all [post]
func (h *AuthenticationHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	revoked, err := h.AuthenticationService.LogoutAll(ctx, claims.UserUUID)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.clearRefreshCookie(w)

	resp := requestresponse.LogoutAllResponse{}
	resp.Response.RevokedSessions = revoked

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// GetCurrentUsersUUID godoc
// @Summary Получение UUID текущего пользователя
// @Description Возвращает UUID пользователя, который авторизован в системе
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) GetCurrentUsersUUID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	resp := requestresponse.CurrentUserResponse{}
	resp.Response.UserUUID = claims.UserUUID

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// extractRefreshToken берёт refresh токен из cookie (браузерные клиенты)
// или из тела запроса (остальные)
func (h *AuthenticationHandler) extractRefreshToken(r *http.Request) string {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req requestresponse.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}

	return ""
}

func (h *AuthenticationHandler) setRefreshCookie(w http.ResponseWriter, refreshToken string) {
	maxAge := 7 * 24 * time.Hour
	if parsed, err := time.ParseDuration(h.jwtConfig.RefreshTokenTTL); err == nil {
		maxAge = parsed
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/api/auth",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthenticationHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// writeAuthError переводит закрытый набор ошибок аутентификации
// в HTTP-статусы. Ошибки хранилища отдаются как 500 и не считаются
// security-событиями
func (h *AuthenticationHandler) writeAuthError(w http.ResponseWriter, err error) {
	log.Println(err)

	var locked *security.AccountLockedError
	if errors.As(err, &locked) {
		w.Header().Set("Retry-After", strconv.Itoa(int(locked.RetryAfter.Seconds())))
		util.HandleError(w, "аккаунт временно заблокирован", http.StatusTooManyRequests)
		return
	}

	switch {
	case errors.Is(err, security.ErrInvalidCredentials):
		util.HandleError(w, "неверный логин или пароль", http.StatusUnauthorized)
	case errors.Is(err, security.ErrAccountLocked):
		util.HandleError(w, "аккаунт временно заблокирован", http.StatusTooManyRequests)
	case errors.Is(err, security.ErrNoToken),
		errors.Is(err, security.ErrTokenInvalid),
		errors.Is(err, security.ErrTokenExpired),
		errors.Is(err, security.ErrTokenTypeMismatch),
		errors.Is(err, security.ErrInvalidRefreshToken),
		errors.Is(err, security.ErrRefreshTokenExpired),
		errors.Is(err, security.ErrTokenReuseDetected),
		errors.Is(err, security.ErrFingerprintMismatch):
		util.HandleError(w, "не удалось авторизовать пользователя", http.StatusUnauthorized)
	default:
		util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}
