package requestresponse

import "resale-pricing-server/internal/model"

// CreateListingRequest : запрос на создание объявления с фотографией
type CreateListingRequest struct {
	Title    string `json:"title" example:"Кроссовки Nike Air Max 90"`
	Filename string `json:"filename" example:"photo.jpg"`
}

// CreateListingResponse : созданное объявление и pre-signed URL для загрузки фото
type CreateListingResponse struct {
	Response struct {
		ListingUUID string `json:"listing_uuid" example:"1f0e7c52-88d2-4b09-9c35-0987654321ab"`
		UploadURL   string `json:"upload_url" example:"https://s3.example.com/bucket/key?X-Amz-..."`
	} `json:"response"`
}

// GetListingResponse : объявление с текущей оценкой
type GetListingResponse struct {
	Response model.Listing `json:"response"`
}

// ListListingsResponse : список объявлений владельца
type ListListingsResponse struct {
	Response struct {
		Listings   []model.Listing `json:"listings"`
		NextCursor string          `json:"next_cursor,omitempty"`
	} `json:"response"`
}
