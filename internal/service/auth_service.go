package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/loan-service/internal/auth"
	"github.com/spec-kit/loan-service/internal/clock"
	"github.com/spec-kit/loan-service/internal/config"
	"github.com/spec-kit/loan-service/internal/domain"
	"github.com/spec-kit/loan-service/internal/events"
	"github.com/spec-kit/loan-service/internal/repository"
	apperrors "github.com/spec-kit/loan-service/pkg/util"
)

// Session bundles an issued access token with its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates the OTP-gated registration and login flows.
type AuthService struct {
	users         repository.UserRepository
	registrations repository.RegistrationChallengeRepository
	logins        repository.LoginChallengeRepository
	tokenMgr      *auth.TokenManager
	dispatcher    events.Dispatcher
	clock         clock.Clock
	bcryptCost    int
	otpTTL        time.Duration
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	RegistrationRepo repository.RegistrationChallengeRepository
	LoginRepo        repository.LoginChallengeRepository
	Dispatcher       events.Dispatcher
	Clock            clock.Clock
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &AuthService{
		users:         deps.UserRepo,
		registrations: deps.RegistrationRepo,
		logins:        deps.LoginRepo,
		tokenMgr:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		dispatcher:    deps.Dispatcher,
		clock:         clk,
		bcryptCost:    cfg.Auth.BcryptCost,
		otpTTL:        cfg.Verification.OTPTTL(),
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// BeginRegistration stores unconfirmed account details behind an emailed code.
// Any prior pending registration for the same username or email is replaced.
func (s *AuthService) BeginRegistration(ctx context.Context, username, email, password string, role domain.Role) (*domain.RegistrationChallenge, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("username, email, and password are required", nil)
	}
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewDuplicateIdentity("username already exists")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewDuplicateIdentity("email already exists")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	code, err := auth.GenerateCode()
	if err != nil {
		return nil, err
	}

	challenge := &domain.RegistrationChallenge{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Code:         code,
		ExpiresAt:    s.clock.Now().Add(s.otpTTL),
	}
	if err := s.registrations.Replace(ctx, challenge); err != nil {
		return nil, err
	}

	s.publishChallengeIssued(ctx, challenge.ID, domain.ChallengeRegistration, email, username, code, challenge.ExpiresAt)
	return challenge, nil
}

// VerifyRegistration validates the code and, on success, creates the account
// and issues a session. The challenge is consumed either way once matched.
func (s *AuthService) VerifyRegistration(ctx context.Context, challengeID, code string) (*domain.User, *Session, error) {
	challenge, err := s.registrations.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("registration challenge", nil)
		}
		return nil, nil, err
	}
	if challenge.Expired(s.clock.Now()) {
		return nil, nil, apperrors.NewExpired("verification code has expired")
	}
	if !auth.CodeEqual(code, challenge.Code) {
		return nil, nil, apperrors.NewInvalidCode(-1)
	}

	// Consuming first serializes concurrent verifications: only the deleter
	// proceeds to create the account.
	consumed, err := s.registrations.Consume(ctx, challenge.ID)
	if err != nil {
		return nil, nil, err
	}
	if !consumed {
		return nil, nil, apperrors.NewNotFound("registration challenge", nil)
	}

	user := &domain.User{
		Username:     challenge.Username,
		Email:        challenge.Email,
		PasswordHash: challenge.PasswordHash,
		Role:         challenge.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Uniqueness re-checked at commit time; the challenge is already
		// discarded, so the caller must start over.
		return nil, nil, err
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// ResendRegistrationCode regenerates the code and expiry on an existing
// pending registration.
func (s *AuthService) ResendRegistrationCode(ctx context.Context, challengeID string) (*domain.RegistrationChallenge, error) {
	challenge, err := s.registrations.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("registration challenge", nil)
		}
		return nil, err
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return nil, err
	}
	expiresAt := s.clock.Now().Add(s.otpTTL)
	if err := s.registrations.UpdateCode(ctx, challenge.ID, code, expiresAt); err != nil {
		return nil, err
	}
	challenge.Code = code
	challenge.ExpiresAt = expiresAt

	s.publishChallengeIssued(ctx, challenge.ID, domain.ChallengeRegistration, challenge.Email, challenge.Username, code, expiresAt)
	return challenge, nil
}

// BeginLogin checks credentials and issues a login challenge. Admin accounts
// must use AdminLogin instead.
func (s *AuthService) BeginLogin(ctx context.Context, username, password string) (*domain.LoginChallenge, error) {
	user, err := s.credentialCheck(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return nil, apperrors.NewForbidden("admins must use the admin login endpoint")
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return nil, err
	}
	challenge := &domain.LoginChallenge{
		UserID:    user.ID,
		Email:     user.Email,
		Code:      code,
		ExpiresAt: s.clock.Now().Add(s.otpTTL),
	}
	if err := s.logins.Replace(ctx, challenge); err != nil {
		return nil, err
	}

	s.publishChallengeIssued(ctx, challenge.ID, domain.ChallengeLogin, user.Email, user.Username, code, challenge.ExpiresAt)
	return challenge, nil
}

// VerifyLogin validates the code and issues a session.
func (s *AuthService) VerifyLogin(ctx context.Context, challengeID, code string) (*domain.User, *Session, error) {
	challenge, err := s.logins.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("login challenge", nil)
		}
		return nil, nil, err
	}
	if challenge.Expired(s.clock.Now()) {
		return nil, nil, apperrors.NewExpired("verification code has expired")
	}
	if !auth.CodeEqual(code, challenge.Code) {
		return nil, nil, apperrors.NewInvalidCode(-1)
	}

	consumed, err := s.logins.Consume(ctx, challenge.ID)
	if err != nil {
		return nil, nil, err
	}
	if !consumed {
		return nil, nil, apperrors.NewNotFound("login challenge", nil)
	}

	user, err := s.users.GetByID(ctx, challenge.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("user", nil)
		}
		return nil, nil, err
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// ResendLoginCode regenerates the code and expiry on an existing pending login.
func (s *AuthService) ResendLoginCode(ctx context.Context, challengeID string) (*domain.LoginChallenge, error) {
	challenge, err := s.logins.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("login challenge", nil)
		}
		return nil, err
	}
	user, err := s.users.GetByID(ctx, challenge.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return nil, err
	}
	expiresAt := s.clock.Now().Add(s.otpTTL)
	if err := s.logins.UpdateCode(ctx, challenge.ID, code, expiresAt); err != nil {
		return nil, err
	}
	challenge.Code = code
	challenge.ExpiresAt = expiresAt

	s.publishChallengeIssued(ctx, challenge.ID, domain.ChallengeLogin, challenge.Email, user.Username, code, expiresAt)
	return challenge, nil
}

// AdminLogin authenticates an admin account directly, without an OTP step.
func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (*domain.User, *Session, error) {
	user, err := s.credentialCheck(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsAdmin() {
		return nil, nil, apperrors.NewForbidden("this endpoint is for administrators only")
	}
	session, err := s.issueSession(user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (s *AuthService) credentialCheck(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("username and password are required", nil)
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid username or password")
		}
		return nil, err
	}
	if auth.ComparePassword(user.PasswordHash, password) != nil {
		return nil, apperrors.NewUnauthorized("invalid username or password")
	}
	return user, nil
}

func (s *AuthService) issueSession(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) publishChallengeIssued(ctx context.Context, id string, kind domain.ChallengeKind, address, displayName, code string, expiresAt time.Time) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventChallengeIssued,
		Timestamp: s.clock.Now(),
		Payload: events.ChallengeIssuedPayload{
			ChallengeID: id,
			Kind:        kind,
			Address:     address,
			DisplayName: displayName,
			Code:        code,
			ExpiresAt:   expiresAt,
		},
	})
}
