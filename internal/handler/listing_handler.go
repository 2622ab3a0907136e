package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"resale-pricing-server/internal/model/requestresponse"
	"resale-pricing-server/internal/ports"
	"resale-pricing-server/internal/security"
	"resale-pricing-server/internal/util"

	"github.com/go-chi/chi/v5"
)

type ListingHandler struct {
	ports.ListingService
}

func NewListingHandler(listingService ports.ListingService) *ListingHandler {
	return &ListingHandler{listingService}
}

// CreateListing godoc
// @Summary Создание объявления
// @Description Создаёт объявление и возвращает pre-signed URL для загрузки фотографии товара
// @Tags Listings
// @Accept json
// @Produce json
// @Param body body requestresponse.CreateListingRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.CreateListingResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/listings [post]
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	var req requestresponse.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}

	listing, uploadURL, err := h.ListingService.CreateListing(ctx, claims.UserUUID, req.Title, req.Filename)
	if err != nil {
		log.Println(err)
		if strings.Contains(err.Error(), "не может быть пустым") {
			util.HandleError(w, err.Error(), http.StatusBadRequest)
		} else {
			util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		}
		return
	}

	resp := requestresponse.CreateListingResponse{}
	resp.Response.ListingUUID = listing.UUID
	resp.Response.UploadURL = uploadURL

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// GetListing godoc
// @Summary Получение объявления
// @Tags Listings
// @Produce json
// @Param listing_id path string true "UUID объявления"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.GetListingResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/listings/{listing_id} [get]
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	listing, err := h.ListingService.GetListing(ctx, chi.URLParam(r, "listing_id"), claims.UserUUID)
	if err != nil {
		log.Println(err)
		if strings.Contains(err.Error(), "не найдено") {
			util.HandleError(w, "объявление не найдено", http.StatusNotFound)
		} else {
			util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		}
		return
	}

	resp := requestresponse.GetListingResponse{Response: *listing}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// ListListings godoc
// @Summary Список объявлений пользователя
// @Tags Listings
// @Produce json
// @Param cursor query string false "Курсор пагинации"
// @Param limit query int false "Размер страницы"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.ListListingsResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/listings [get]
func (h *ListingHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	listings, nextCursor, err := h.ListingService.ListListings(ctx, claims.UserUUID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		log.Println(err)
		util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	resp := requestresponse.ListListingsResponse{}
	resp.Response.Listings = listings
	resp.Response.NextCursor = nextCursor

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// RequestAppraisal godoc
// @Summary Оценка стоимости товара по фотографии
// @Description Запрашивает у vision-сервиса оценку стоимости товара на фотографии объявления
// @Tags Listings
// @Produce json
// @Param listing_id path string true "UUID объявления"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} model.Appraisal
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 502 {object} requestresponse.ErrorResponse "Сервис оценки недоступен"
// @Security ApiKeyAuth
// @Router /api/listings/{listing_id}/appraise [post]
func (h *ListingHandler) RequestAppraisal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	claims, err := security.GetClaimsFromContext(ctx)
	if err != nil {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}

	appraisal, err := h.ListingService.RequestAppraisal(ctx, chi.URLParam(r, "listing_id"), claims.UserUUID)
	if err != nil {
		log.Println(err)
		switch {
		case strings.Contains(err.Error(), "не найдено"):
			util.HandleError(w, "объявление не найдено", http.StatusNotFound)
		case strings.Contains(err.Error(), "ошибка оценки"):
			util.HandleError(w, "сервис оценки недоступен", http.StatusBadGateway)
		default:
			util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(appraisal)
}
