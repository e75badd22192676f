package dto

import (
	"time"

	"github.com/spec-kit/loan-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

// ChallengeResponse acknowledges an issued verification challenge.
type ChallengeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	Message     string    `json:"message"`
}

// VerifyOTPRequest payload for registration and login verification.
type VerifyOTPRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

// ResendOTPRequest payload.
type ResendOTPRequest struct {
	ChallengeID string `json:"challenge_id"`
}

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse carries an issued access token and its subject.
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public account shape.
type UserResponse struct {
	ID               string      `json:"id"`
	Username         string      `json:"username"`
	Email            string      `json:"email"`
	Role             domain.Role `json:"role"`
	ProfileCompleted bool        `json:"profile_completed"`
	CreatedAt        time.Time   `json:"created_at"`
}

// ForgotPasswordRequest payload.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyResetOTPRequest payload.
type VerifyResetOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetTokenResponse carries the second-stage reset token.
type ResetTokenResponse struct {
	ResetToken string    `json:"reset_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}
