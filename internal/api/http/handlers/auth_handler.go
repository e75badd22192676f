package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/loan-service/internal/api/dto"
	"github.com/spec-kit/loan-service/internal/auth"
	"github.com/spec-kit/loan-service/internal/domain"
	"github.com/spec-kit/loan-service/internal/service"
	apperrors "github.com/spec-kit/loan-service/pkg/util"
)

// AuthHandler manages registration, login, and password reset endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	resets *service.PasswordResetService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, resetService *service.PasswordResetService) *AuthHandler {
	return &AuthHandler{auth: authService, resets: resetService}
}

// Register POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	challenge, err := h.auth.BeginRegistration(c.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ChallengeResponse{
		ChallengeID: challenge.ID,
		ExpiresAt:   challenge.ExpiresAt,
		Message:     "verification code sent to your email",
	}})
}

// VerifyOTP POST /api/auth/verify-otp.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ChallengeID == "" || req.Code == "" {
		return apperrors.NewValidationError("challenge_id and code required", nil)
	}
	user, session, err := h.auth.VerifyRegistration(c.Context(), req.ChallengeID, req.Code)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": sessionResponse(user, session)})
}

// ResendOTP POST /api/auth/resend-otp.
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req dto.ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ChallengeID == "" {
		return apperrors.NewValidationError("challenge_id required", nil)
	}
	challenge, err := h.auth.ResendRegistrationCode(c.Context(), req.ChallengeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ChallengeResponse{
		ChallengeID: challenge.ID,
		ExpiresAt:   challenge.ExpiresAt,
		Message:     "a new verification code was sent",
	}})
}

// Login POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	challenge, err := h.auth.BeginLogin(c.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ChallengeResponse{
		ChallengeID: challenge.ID,
		ExpiresAt:   challenge.ExpiresAt,
		Message:     "verification code sent to your email",
	}})
}

// VerifyLoginOTP POST /api/auth/verify-login-otp.
func (h *AuthHandler) VerifyLoginOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ChallengeID == "" || req.Code == "" {
		return apperrors.NewValidationError("challenge_id and code required", nil)
	}
	user, session, err := h.auth.VerifyLogin(c.Context(), req.ChallengeID, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(user, session)})
}

// ResendLoginOTP POST /api/auth/resend-login-otp.
func (h *AuthHandler) ResendLoginOTP(c *fiber.Ctx) error {
	var req dto.ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ChallengeID == "" {
		return apperrors.NewValidationError("challenge_id required", nil)
	}
	challenge, err := h.auth.ResendLoginCode(c.Context(), req.ChallengeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ChallengeResponse{
		ChallengeID: challenge.ID,
		ExpiresAt:   challenge.ExpiresAt,
		Message:     "a new verification code was sent",
	}})
}

// AdminLogin POST /api/auth/admin/login.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, session, err := h.auth.AdminLogin(c.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(user, session)})
}

// ForgotPassword POST /api/auth/forgot-password. The response is identical
// whether or not the address matches an account.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.resets.Request(c.Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"message": "if the email exists, a verification code was sent",
	}})
}

// VerifyResetOTP POST /api/auth/verify-reset-otp.
func (h *AuthHandler) VerifyResetOTP(c *fiber.Ctx) error {
	var req dto.VerifyResetOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Code == "" {
		return apperrors.NewValidationError("email and code required", nil)
	}
	token, err := h.resets.VerifyCode(c.Context(), req.Email, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ResetTokenResponse{
		ResetToken: token.Token,
		ExpiresAt:  token.ExpiresAt,
	}})
}

// ResetPassword POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.resets.Redeem(c.Context(), req.ResetToken, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"message": "password has been reset",
	}})
}

// Me GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func sessionResponse(user *domain.User, session *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      userResponse(user),
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		Role:             user.Role,
		ProfileCompleted: user.ProfileCompleted,
		CreatedAt:        user.CreatedAt,
	}
}
