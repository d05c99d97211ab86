package dto

type TokenResponse struct {
	Success   bool   `json:"success" example:"true"`
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiJ9..."`
	ExpiresAt string `json:"expires_at" example:"2024-01-15T11:30:00Z"`
}
