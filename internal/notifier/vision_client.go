package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/util"
)

// VisionClient вызывает внешний сервис оценки стоимости товара по фотографии
type VisionClient struct {
	url    string
	client *http.Client
}

func NewVisionClient(cfg *config.VisionConfig) (*VisionClient, error) {
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("некорректный таймаут vision-сервиса: %w", err)
		}
		timeout = parsed
	}

	return &VisionClient{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type appraiseRequest struct {
	ListingUUID string `json:"listing_uuid"`
	PhotoURL    string `json:"photo_url"`
}

// AppraisePhoto отправляет фотографию на оценку и возвращает результат
func (c *VisionClient) AppraisePhoto(ctx context.Context, listingUUID string, photoURL string) (*model.Appraisal, error) {
	body, err := json.Marshal(appraiseRequest{
		ListingUUID: listingUUID,
		PhotoURL:    photoURL,
	})
	if err != nil {
		return nil, util.LogError("[VisionClient] ошибка сериализации запроса", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, util.LogError("[VisionClient] ошибка создания запроса", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, util.LogError("[VisionClient] ошибка выполнения запроса", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[VisionClient] сервис оценки вернул статус %d", resp.StatusCode)
	}

	var appraisal model.Appraisal
	if err := json.NewDecoder(resp.Body).Decode(&appraisal); err != nil {
		return nil, util.LogError("[VisionClient] ошибка десериализации ответа", err)
	}
	appraisal.ListingUUID = listingUUID

	return &appraisal, nil
}
