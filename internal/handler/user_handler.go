package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"resale-pricing-server/internal/model/requestresponse"
	"resale-pricing-server/internal/ports"
	"resale-pricing-server/internal/security"
	"resale-pricing-server/internal/util"
)

type UserHandler struct {
	ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService}
}

// RegisterUser godoc
// @Summary Регистрация нового пользователя
// @Description Создаёт пользователя и возвращает пару токенов
// @Tags Users
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} requestresponse.RegisterResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный логин или пароль"
// @Failure 409 {object} requestresponse.ErrorResponse "Логин уже занят"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/register [post]
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}

	user, tokens, err := h.UserService.Register(ctx, req.Login, req.Password, r.UserAgent(), r.RemoteAddr, security.FingerprintFromRequest(r))
	if err != nil {
		log.Println(err)
		switch {
		case strings.Contains(err.Error(), "логин уже занят"):
			util.HandleError(w, "логин уже занят", http.StatusConflict)
		case strings.Contains(err.Error(), "логин должен"),
			strings.Contains(err.Error(), "пароль должен"):
			util.HandleError(w, err.Error(), http.StatusBadRequest)
		default:
			util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		}
		return
	}

	resp := requestresponse.RegisterResponse{}
	resp.Response.UserUUID = user.UUID
	resp.Response.AccessToken = tokens.AccessToken
	resp.Response.RefreshToken = tokens.RefreshToken

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}
