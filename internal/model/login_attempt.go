package model

// LoginAttemptState : текущее состояние счётчика неудачных входов
// для нормализованного идентификатора (login в нижнем регистре).
type LoginAttemptState struct {
	Identifier        string
	FailureCount      int
	RemainingAttempts int
}
