package domain

import "time"

// ChallengeKind distinguishes the three verification flows.
type ChallengeKind string

const (
	ChallengeRegistration  ChallengeKind = "registration"
	ChallengeLogin         ChallengeKind = "login"
	ChallengePasswordReset ChallengeKind = "password_reset"
)

// RegistrationChallenge holds unconfirmed account details until the emailed
// code is verified. At most one live challenge per username+email pair.
type RegistrationChallenge struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Code         string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the code window has passed.
func (c *RegistrationChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// LoginChallenge gates session issuance for an existing account.
type LoginChallenge struct {
	ID        string
	UserID    string
	Email     string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (c *LoginChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// PasswordResetChallenge is attempt-limited and carries a second-stage reset
// token once the code has been verified.
type PasswordResetChallenge struct {
	ID                  string
	UserID              string
	Email               string
	Code                string
	ExpiresAt           time.Time
	Attempts            int
	MaxAttempts         int
	ResetToken          *string
	ResetTokenExpiresAt *time.Time
	ResetTokenUsed      bool
	CreatedAt           time.Time
}

func (c *PasswordResetChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// AttemptsExhausted reports whether the retry budget has been spent.
func (c *PasswordResetChallenge) AttemptsExhausted() bool {
	return c.Attempts >= c.MaxAttempts
}

// ResetTokenValid reports whether the second-stage token can still be redeemed.
func (c *PasswordResetChallenge) ResetTokenValid(now time.Time) bool {
	if c.ResetToken == nil || c.ResetTokenUsed {
		return false
	}
	return c.ResetTokenExpiresAt != nil && now.Before(*c.ResetTokenExpiresAt)
}
