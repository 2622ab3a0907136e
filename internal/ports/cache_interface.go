package ports

import (
	"context"

	"resale-pricing-server/internal/model"
)

type CacheRepository interface {
	SetAppraisal(ctx context.Context, appraisal *model.Appraisal) error
	GetAppraisal(ctx context.Context, listingUUID string) (*model.Appraisal, error)
	DeleteAppraisal(ctx context.Context, listingUUID string) error
}
