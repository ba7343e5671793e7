package http

// MessageResponse is the body of every auth endpoint response.
type MessageResponse struct {
	Message string `json:"message" example:"Login successful."`
}

type RegisterRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"p1"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"p1"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" example:"alice@example.com"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" example:"3f1c0e5b9a7d4c2e8b6f1a0d9c8e7b6a5f4e3d2c1b0a9f8e7d6c5b4a3f2e1d0c"`
	NewPassword string `json:"newPassword" example:"p2"`
}

// ChangePasswordRequest lets a user who knows their password replace it.
type ChangePasswordRequest struct {
	Email           string `json:"email" example:"alice@example.com"`
	CurrentPassword string `json:"currentPassword" example:"p1"`
	NewPassword     string `json:"newPassword" example:"p2"`
}
