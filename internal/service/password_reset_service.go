package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/loan-service/internal/auth"
	"github.com/spec-kit/loan-service/internal/clock"
	"github.com/spec-kit/loan-service/internal/config"
	"github.com/spec-kit/loan-service/internal/domain"
	"github.com/spec-kit/loan-service/internal/events"
	"github.com/spec-kit/loan-service/internal/repository"
	apperrors "github.com/spec-kit/loan-service/pkg/util"
)

// PasswordResetService runs the two-stage forgot-password flow: an emailed
// OTP, then a short-lived single-use reset token redeemed with the new
// password.
type PasswordResetService struct {
	users       repository.UserRepository
	resets      repository.PasswordResetRepository
	dispatcher  events.Dispatcher
	clock       clock.Clock
	bcryptCost  int
	otpTTL      time.Duration
	tokenTTL    time.Duration
	maxAttempts int
}

// PasswordResetDependencies encapsulates requirements for the service.
type PasswordResetDependencies struct {
	UserRepo   repository.UserRepository
	ResetRepo  repository.PasswordResetRepository
	Dispatcher events.Dispatcher
	Clock      clock.Clock
}

// NewPasswordResetService builds the service.
func NewPasswordResetService(cfg config.Config, deps PasswordResetDependencies) *PasswordResetService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &PasswordResetService{
		users:       deps.UserRepo,
		resets:      deps.ResetRepo,
		dispatcher:  deps.Dispatcher,
		clock:       clk,
		bcryptCost:  cfg.Auth.BcryptCost,
		otpTTL:      cfg.Verification.OTPTTL(),
		tokenTTL:    cfg.Verification.ResetTokenTTL(),
		maxAttempts: cfg.Verification.MaxResetAttempts,
	}
}

// Request issues a reset challenge for the account behind the address. The
// return is identical whether or not the email exists so the endpoint cannot
// be used to enumerate accounts.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return err
	}
	challenge := &domain.PasswordResetChallenge{
		UserID:      user.ID,
		Email:       user.Email,
		Code:        code,
		ExpiresAt:   s.clock.Now().Add(s.otpTTL),
		Attempts:    0,
		MaxAttempts: s.maxAttempts,
	}
	if err := s.resets.Replace(ctx, challenge); err != nil {
		return err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventChallengeIssued,
			Timestamp: s.clock.Now(),
			Payload: events.ChallengeIssuedPayload{
				ChallengeID: challenge.ID,
				Kind:        domain.ChallengePasswordReset,
				Address:     user.Email,
				DisplayName: user.Username,
				Code:        code,
				ExpiresAt:   challenge.ExpiresAt,
			},
		})
	}
	return nil
}

// ResetToken is the second-stage artifact unlocked by a correct OTP.
type ResetToken struct {
	Token     string
	ExpiresAt time.Time
}

// VerifyCode checks the OTP for the latest reset challenge on the address.
// The attempt cap is enforced before the comparison; a wrong code burns an
// attempt and reports how many remain.
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) (*ResetToken, error) {
	challenge, err := s.resets.GetLiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reset challenge", nil)
		}
		return nil, err
	}
	if challenge.Expired(s.clock.Now()) {
		return nil, apperrors.NewExpired("verification code has expired")
	}
	if challenge.AttemptsExhausted() {
		return nil, apperrors.NewAttemptsExhausted()
	}
	if !auth.CodeEqual(code, challenge.Code) {
		attempts, err := s.resets.IncrementAttempts(ctx, challenge.ID)
		if err != nil {
			return nil, err
		}
		remaining := challenge.MaxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		return nil, apperrors.NewInvalidCode(remaining)
	}

	token := auth.GenerateResetToken()
	expiresAt := s.clock.Now().Add(s.tokenTTL)
	if err := s.resets.SetResetToken(ctx, challenge.ID, token, expiresAt); err != nil {
		return nil, err
	}
	return &ResetToken{Token: token, ExpiresAt: expiresAt}, nil
}

// Redeem performs the guarded credential change. The token is single-use;
// every other outstanding reset challenge for the account is removed so a
// concurrent reset cannot follow through.
func (s *PasswordResetService) Redeem(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return apperrors.NewValidationError("token and new password are required", nil)
	}

	challenge, err := s.resets.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewInvalidOrExpiredToken()
		}
		return err
	}
	if !challenge.ResetTokenValid(s.clock.Now()) {
		return apperrors.NewInvalidOrExpiredToken()
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, challenge.UserID, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	if err := s.resets.MarkTokenUsed(ctx, challenge.ID); err != nil {
		return err
	}
	return s.resets.DeleteOthersForUser(ctx, challenge.UserID, challenge.ID)
}
