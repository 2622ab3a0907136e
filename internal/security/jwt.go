package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Claims struct {
	UserUUID  string `json:"user_uuid"`
	Login     string `json:"login,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type JWTService struct {
	*config.JWTConfig
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{cfg}
}

// GenerateTokensPair выпускает пару access/refresh токенов для пользователя.
// Каждый токен подписывается своим секретом и получает свою audience,
// поэтому подменить один другим нельзя. Возвращаемая запись RefreshToken
// содержит хэш refresh-токена и срок его жизни; семью, отпечаток и метаданные
// сессии заполняет вызывающий перед сохранением.
func (service *JWTService) GenerateTokensPair(userUUID string, login string) (*model.TokensPair, *model.RefreshToken, error) {
	now := time.Now().UTC()

	accessTTL, err := time.ParseDuration(service.AccessTokenTTL)
	if err != nil {
		return nil, nil, util.LogError("ошибка парсинга access_token_ttl", err)
	}
	refreshTTL, err := time.ParseDuration(service.RefreshTokenTTL)
	if err != nil {
		return nil, nil, util.LogError("ошибка парсинга refresh_token_ttl", err)
	}

	accessToken, err := service.signToken(userUUID, login, TokenTypeAccess, service.AccessAudience, service.AccessSecret, now, accessTTL)
	if err != nil {
		return nil, nil, util.LogError("ошибка подписи access токена", err)
	}

	refreshToken, err := service.signToken(userUUID, login, TokenTypeRefresh, service.RefreshAudience, service.RefreshSecret, now, refreshTTL)
	if err != nil {
		return nil, nil, util.LogError("ошибка подписи refresh токена", err)
	}

	record := &model.RefreshToken{
		UUID:      uuid.New().String(),
		UserUUID:  userUUID,
		TokenHash: HashToken(refreshToken),
		Used:      false,
		CreatedAt: now,
		ExpireAt:  now.Add(refreshTTL),
	}

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, record, nil
}

func (service *JWTService) signToken(userUUID, login, tokenType, audience, secret string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserUUID:  userUUID,
		Login:     login,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUUID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    service.Issuer,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.New().String(),
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return jwtToken.SignedString([]byte(secret))
}

// VerifyAccess проверяет access токен
func (service *JWTService) VerifyAccess(jwtTokenStr string) (*Claims, error) {
	return service.verify(jwtTokenStr, TokenTypeAccess, service.AccessAudience, []byte(service.AccessSecret))
}

// VerifyRefresh проверяет refresh токен
func (service *JWTService) VerifyRefresh(jwtTokenStr string) (*Claims, error) {
	return service.verify(jwtTokenStr, TokenTypeRefresh, service.RefreshAudience, []byte(service.RefreshSecret))
}

// verify выполняет полную проверку токена: подпись, срок, issuer, audience
// и дискриминатор типа. Тип проверяется до подписи: токены разных назначений
// подписаны разными секретами, и без этого подмена access/refresh выглядела
// бы как битая подпись, а не как ошибка типа.
func (service *JWTService) verify(jwtTokenStr string, wantType string, audience string, secretKey []byte) (*Claims, error) {
	if jwtTokenStr == "" {
		return nil, ErrNoToken
	}

	unverified := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(jwtTokenStr, unverified); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if unverified.TokenType != wantType {
		return nil, ErrTokenTypeMismatch
	}

	var claims = &Claims{}
	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if jwtToken.Valid == false {
		return nil, ErrTokenInvalid
	}

	// Недостаточно валидной подписи: токен с верным секретом,
	// но чужим issuer или audience тоже отклоняется.
	if claims.Issuer != service.Issuer {
		return nil, fmt.Errorf("%w: неверный issuer", ErrTokenInvalid)
	}
	audienceOk := false
	for _, a := range claims.Audience {
		if a == audience {
			audienceOk = true
		}
	}
	if audienceOk == false {
		return nil, fmt.Errorf("%w: неверная audience", ErrTokenInvalid)
	}

	return claims, nil
}

// HashToken возвращает SHA-256 хэш токена в hex.
// В БД хранится только хэш, запись ищется по хэшу предъявленного токена.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ExtractAccessToken достаёт access токен из запроса.
// Порядок источников фиксированный: заголовок Authorization,
// затем cookie, затем query-параметр.
func ExtractAccessToken(request *http.Request) string {
	authorizationHeader := request.Header.Get("Authorization")
	if strings.HasPrefix(authorizationHeader, "Bearer ") {
		return strings.TrimPrefix(authorizationHeader, "Bearer ")
	}

	if cookie, err := request.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return request.URL.Query().Get("access_token")
}

func JWTMiddleware(jwtService *JWTService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token := ExtractAccessToken(request)
			if token == "" {
				http.Error(writer, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.VerifyAccess(token)
			if err != nil {
				util.LogError("невалидный access токен", err)
				http.Error(writer, "unauthorized", http.StatusUnauthorized)
				return
			}

			req := request.WithContext(context.WithValue(request.Context(), UserContextKey, claims))
			next.ServeHTTP(writer, req)
		})
	}
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("пользователь не авторизован")
	}
	return claims, nil
}
