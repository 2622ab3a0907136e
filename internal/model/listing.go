package model

import "time"

// Listing : объявление о продаже с фотографией товара
type Listing struct {
	UUID           string     `db:"uuid" json:"uuid"`
	OwnerUUID      string     `db:"owner_uuid" json:"owner_uuid"`
	Title          string     `db:"title" json:"title"`
	PhotoKey       string     `db:"photo_key" json:"photo_key"`
	Status         string     `db:"status" json:"status"`
	EstimatedPrice *int64     `db:"estimated_price" json:"estimated_price,omitempty"`
	Currency       string     `db:"currency" json:"currency"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Статусы объявления: фото загружается -> оценка запрошена -> оценка получена
const (
	ListingStatusPending    = "pending_upload"
	ListingStatusAppraising = "appraising"
	ListingStatusAppraised  = "appraised"
)

// Appraisal : ответ внешнего vision-сервиса по фотографии товара
type Appraisal struct {
	ListingUUID    string  `json:"listing_uuid"`
	EstimatedPrice int64   `json:"estimated_price"`
	Currency       string  `json:"currency"`
	Confidence     float64 `json:"confidence"`
}
