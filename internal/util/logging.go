package util

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

func LogError(message string, err error) error {
	log.Printf("%s: %v", message, err)
	return fmt.Errorf("%s: %w", message, err)
}

// LogSecurityEvent пишет security-audit запись.
// Используется только для событий возможной компрометации
// (повторное использование refresh-токена), не для обычных ошибок входа.
func LogSecurityEvent(event string, userUUID string, familyUUID string) {
	log.Printf("[SECURITY] %s: пользователь=%s семья=%s", event, userUUID, familyUUID)
}

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	}{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	json.NewEncoder(w).Encode(errorResponse)
}
