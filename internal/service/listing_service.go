package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/ports"
	"resale-pricing-server/internal/util"

	"github.com/google/uuid"
)

type ListingService struct {
	listingRepository ports.ListingRepository
	cacheRepository   ports.CacheRepository
	storageInterface  ports.S3Storage
	visionClient      ports.VisionClient
	ttl               time.Duration
}

func NewListingService(
	listingRepository ports.ListingRepository,
	cacheRepository ports.CacheRepository,
	storageInterface ports.S3Storage,
	visionClient ports.VisionClient,
	ttl time.Duration,
) *ListingService {
	return &ListingService{
		listingRepository: listingRepository,
		cacheRepository:   cacheRepository,
		storageInterface:  storageInterface,
		visionClient:      visionClient,
		ttl:               ttl,
	}
}

// CreateListing : создаёт объявление и возвращает pre-signed PUT URL
// для загрузки фотографии товара
func (s *ListingService) CreateListing(ctx context.Context, ownerUUID, title, filename string) (*model.Listing, string, error) {
	if title == "" {
		return nil, "", fmt.Errorf("[ListingService] название не может быть пустым")
	}

	listing := &model.Listing{
		UUID:      uuid.New().String(),
		OwnerUUID: ownerUUID,
		Title:     title,
		Status:    model.ListingStatusPending,
		Currency:  "RUB",
	}
	listing.PhotoKey = fmt.Sprintf("listings/%s/%s%s", ownerUUID, listing.UUID, filepath.Ext(filename))

	putURL, err := s.storageInterface.GeneratePresignedPutURL(ctx, listing.PhotoKey, s.ttl)
	if err != nil {
		return nil, "", util.LogError("[ListingService] не удалось сгенерировать URL", err)
	}

	if err := s.listingRepository.Create(ctx, listing); err != nil {
		return nil, "", util.LogError("[ListingService] не удалось сохранить объявление в БД", err)
	}

	log.Printf("[ListingService] объявление %s успешно создано", listing.UUID)

	return listing, putURL, nil
}

// GetListing : возвращает объявление владельца
func (s *ListingService) GetListing(ctx context.Context, listingUUID string, ownerUUID string) (*model.Listing, error) {
	listing, err := s.listingRepository.GetByUUID(ctx, listingUUID, ownerUUID)
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// ListListings : список объявлений владельца с cursor-пагинацией
func (s *ListingService) ListListings(ctx context.Context, ownerUUID string, cursor string, limit int) ([]model.Listing, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.listingRepository.ListByOwner(ctx, ownerUUID, cursor, limit)
}

// RequestAppraisal : запрашивает у vision-сервиса оценку стоимости товара.
// Готовая оценка берётся из кэша, новая кэшируется и сохраняется в объявлении
func (s *ListingService) RequestAppraisal(ctx context.Context, listingUUID string, ownerUUID string) (*model.Appraisal, error) {
	listing, err := s.listingRepository.GetByUUID(ctx, listingUUID, ownerUUID)
	if err != nil {
		return nil, err
	}

	cached, err := s.cacheRepository.GetAppraisal(ctx, listingUUID)
	if err != nil {
		log.Printf("[ListingService] кэш недоступен: %v", err)
	}
	if cached != nil {
		return cached, nil
	}

	photoURL, err := s.storageInterface.GeneratePresignedGetURL(ctx, listing.PhotoKey, s.ttl)
	if err != nil {
		return nil, util.LogError("[ListingService] не удалось сгенерировать URL фотографии", err)
	}

	appraisal, err := s.visionClient.AppraisePhoto(ctx, listingUUID, photoURL)
	if err != nil {
		return nil, util.LogError("[ListingService] ошибка оценки фотографии", err)
	}

	if err := s.listingRepository.UpdateAppraisal(ctx, listingUUID, appraisal.EstimatedPrice, appraisal.Currency); err != nil {
		return nil, util.LogError("[ListingService] не удалось сохранить оценку", err)
	}

	if err := s.cacheRepository.SetAppraisal(ctx, appraisal); err != nil {
		log.Printf("[ListingService] не удалось закэшировать оценку: %v", err)
	}

	return appraisal, nil
}
