package requestresponse

// RegisterRequest : запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Login    string `json:"login" example:"user1234"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// RegisterResponse : ответ на успешную регистрацию
type RegisterResponse struct {
	Response struct {
		UserUUID     string `json:"user_uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
		AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
		RefreshToken string `json:"refresh_token,omitempty" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
	} `json:"response"`
}
