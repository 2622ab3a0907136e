package ports

import (
	"context"
	"time"
)

type S3Storage interface {
	GeneratePresignedPutURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	GeneratePresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
}
