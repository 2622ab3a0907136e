package ports

import (
	"context"

	"resale-pricing-server/internal/model"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByUUID(ctx context.Context, listingUUID string, ownerUUID string) (*model.Listing, error)
	ListByOwner(ctx context.Context, ownerUUID string, cursor string, limit int) ([]model.Listing, string, error)
	UpdateAppraisal(ctx context.Context, listingUUID string, price int64, currency string) error
	Delete(ctx context.Context, listingUUID string, ownerUUID string) error
}

type ListingService interface {
	CreateListing(ctx context.Context, ownerUUID, title, filename string) (*model.Listing, string, error)
	GetListing(ctx context.Context, listingUUID string, ownerUUID string) (*model.Listing, error)
	ListListings(ctx context.Context, ownerUUID string, cursor string, limit int) ([]model.Listing, string, error)
	RequestAppraisal(ctx context.Context, listingUUID string, ownerUUID string) (*model.Appraisal, error)
}

// VisionClient : внешний сервис оценки стоимости товара по фотографии
type VisionClient interface {
	AppraisePhoto(ctx context.Context, listingUUID string, photoURL string) (*model.Appraisal, error)
}
