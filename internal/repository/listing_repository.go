package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/util"

	"github.com/jmoiron/sqlx"
)

type ListingRepository struct {
	*config.Database
}

func NewListingRepository(database *config.Database) *ListingRepository {
	return &ListingRepository{database}
}

// Create : сохраняет новое объявление
func (r *ListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	query := `
		INSERT INTO listings (uuid, owner_uuid, title, photo_key, status, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		listing.UUID,
		listing.OwnerUUID,
		listing.Title,
		listing.PhotoKey,
		listing.Status,
		listing.Currency,
	)

	if err != nil {
		return util.LogError("[ListingRepo] ошибка вставки данных в БД", err)
	}
	return nil
}

// GetByUUID : возвращает объявление владельца
func (r *ListingRepository) GetByUUID(ctx context.Context, listingUUID string, ownerUUID string) (*model.Listing, error) {
	query := `
		SELECT uuid, owner_uuid, title, photo_key, status, estimated_price, currency, created_at, updated_at, deleted_at
		FROM listings
		WHERE uuid = $1 AND owner_uuid = $2 AND deleted_at IS NULL
	`

	var listing model.Listing
	err := sqlx.GetContext(ctx, r.DB, &listing, query, listingUUID, ownerUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("объявление не найдено")
		}
		return nil, util.LogError("[ListingRepo] ошибка при выполнении запроса", err)
	}

	return &listing, nil
}

// ListByOwner : выдаёт список объявлений владельца (cursor по created_at)
// cursor хранит created_at последнего объявления из предыдущей выборки
func (r *ListingRepository) ListByOwner(ctx context.Context, ownerUUID string, cursor string, limit int) ([]model.Listing, string, error) {
	query := `
		SELECT uuid, owner_uuid, title, photo_key, status, estimated_price, currency, created_at, updated_at, deleted_at
		FROM listings
		WHERE owner_uuid = $1 AND deleted_at IS NULL AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	cursorTime := time.Now().UTC()
	if cursor != "" {
		parsed, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor format: %w", err)
		}
		cursorTime = parsed
	}

	var listings []model.Listing
	err := sqlx.SelectContext(ctx, r.DB, &listings, query, ownerUUID, cursorTime, limit+1) // +1 для проверки наличия следующей страницы
	if err != nil {
		return nil, "", util.LogError("[ListingRepo] не удалось получить список объявлений", err)
	}

	var nextCursor string
	if len(listings) > limit {
		listings = listings[:limit]
		nextCursor = listings[len(listings)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	return listings, nextCursor, nil
}

// UpdateAppraisal : записывает полученную оценку стоимости
func (r *ListingRepository) UpdateAppraisal(ctx context.Context, listingUUID string, price int64, currency string) error {
	query := `
		UPDATE listings
		SET estimated_price = $2, currency = $3, status = $4, updated_at = NOW()
		WHERE uuid = $1 AND deleted_at IS NULL
	`
	_, err := r.DB.ExecContext(ctx, query, listingUUID, price, currency, model.ListingStatusAppraised)
	if err != nil {
		return util.LogError("[ListingRepo] не удалось сохранить оценку", err)
	}
	return nil
}

// Delete : мягко удаляет объявление владельца
func (r *ListingRepository) Delete(ctx context.Context, listingUUID string, ownerUUID string) error {
	query := `UPDATE listings SET deleted_at = NOW() WHERE uuid = $1 AND owner_uuid = $2 AND deleted_at IS NULL`

	result, err := r.DB.ExecContext(ctx, query, listingUUID, ownerUUID)
	if err != nil {
		return util.LogError("[ListingRepo] не удалось удалить объявление", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[ListingRepo] не удалось проверить удаление", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("объявление не найдено")
	}

	return nil
}
