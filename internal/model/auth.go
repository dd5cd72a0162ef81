package model

// LoginRequest carries patient credentials. Passwords are compared against
// the stored bcrypt hash and never echoed back.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
