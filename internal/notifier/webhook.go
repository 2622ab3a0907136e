package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type reuseAlert struct {
	Event      string `json:"event"`
	UserUUID   string `json:"user_uuid"`
	FamilyUUID string `json:"family_uuid"`
	IpAddress  string `json:"ip_address"`
	DetectedAt string `json:"detected_at"`
}

// NotifyTokenReuse отправляет POST-запрос на webhook при обнаружении
// повторного использования refresh-токена. Отправка не блокирует
// обработку запроса и не влияет на ответ клиенту
func NotifyTokenReuse(webhookURL string, userUUID string, familyUUID string, ipAddress string) error {
	if webhookURL == "" {
		return nil
	}

	alert := reuseAlert{
		Event:      "refresh_token_reuse",
		UserUUID:   userUUID,
		FamilyUUID: familyUUID,
		IpAddress:  ipAddress,
		DetectedAt: time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("ошибка сериализации webhook: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ошибка отправки webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook вернул статус %d", resp.StatusCode)
	}

	return nil
}
