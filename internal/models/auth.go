package models

// LoginRequest is the admin console login payload
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the admin bearer token
type LoginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
