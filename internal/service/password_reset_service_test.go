package service

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/loan-service/internal/auth"
	"github.com/spec-kit/loan-service/internal/clock"
	"github.com/spec-kit/loan-service/internal/domain"
	"github.com/spec-kit/loan-service/internal/events"
)

type resetFixture struct {
	service    *PasswordResetService
	users      *fakeUserRepo
	resets     *fakeResetRepo
	dispatcher *recordingDispatcher
	clk        *clock.Fixed
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	now := clk.Now
	users := newFakeUserRepo(now)
	resets := newFakeResetRepo(now)
	dispatcher := &recordingDispatcher{}
	svc := NewPasswordResetService(testConfig(), PasswordResetDependencies{
		UserRepo:   users,
		ResetRepo:  resets,
		Dispatcher: dispatcher,
		Clock:      clk,
	})
	return &resetFixture{service: svc, users: users, resets: resets, dispatcher: dispatcher, clk: clk}
}

func (f *resetFixture) seedUser(t *testing.T, username, email, password string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &domain.User{Username: username, Email: email, PasswordHash: hash, Role: domain.RoleUser}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (f *resetFixture) issuedCode(t *testing.T) string {
	t.Helper()
	issued := f.dispatcher.byType(events.EventChallengeIssued)
	if len(issued) == 0 {
		t.Fatal("no challenge_issued event published")
	}
	payload, ok := issued[len(issued)-1].Payload.(events.ChallengeIssuedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", issued[len(issued)-1].Payload)
	}
	return payload.Code
}

func TestResetRequestIsEnumerationSafe(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", "a@x.com", "hunter22")

	if err := f.service.Request(ctx, "a@x.com"); err != nil {
		t.Fatalf("request for known email: %v", err)
	}
	if err := f.service.Request(ctx, "ghost@x.com"); err != nil {
		t.Fatalf("request for unknown email must not error: %v", err)
	}
	// Only the real account produced a challenge.
	if got := len(f.dispatcher.byType(events.EventChallengeIssued)); got != 1 {
		t.Errorf("expected 1 issued challenge, got %d", got)
	}
}

func TestResetFullFlow(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "a@x.com", "oldpassword")

	if err := f.service.Request(ctx, "a@x.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := f.issuedCode(t)

	token, err := f.service.VerifyCode(ctx, "a@x.com", code)
	if err != nil {
		t.Fatalf("verify code: %v", err)
	}
	if token.Token == "" {
		t.Fatal("expected a reset token")
	}
	if !token.ExpiresAt.Equal(f.clk.Now().Add(15 * time.Minute)) {
		t.Errorf("unexpected token expiry %v", token.ExpiresAt)
	}

	if err := f.service.Redeem(ctx, token.Token, "newpassword"); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	updated, err := f.users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if auth.ComparePassword(updated.PasswordHash, "newpassword") != nil {
		t.Error("password was not updated")
	}
	if auth.ComparePassword(updated.PasswordHash, "oldpassword") == nil {
		t.Error("old password still valid")
	}

	// Single use.
	if err := f.service.Redeem(ctx, token.Token, "another"); domainCode(t, err) != "INVALID_OR_EXPIRED_TOKEN" {
		t.Errorf("expected token single-use, got %v", err)
	}
}

func TestResetAttemptCap(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", "a@x.com", "hunter22")

	if err := f.service.Request(ctx, "a@x.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := f.issuedCode(t)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 1; i <= 5; i++ {
		_, err := f.service.VerifyCode(ctx, "a@x.com", wrong)
		if domainCode(t, err) != "INVALID_CODE" {
			t.Fatalf("attempt %d: expected INVALID_CODE, got %v", i, err)
		}
	}

	// Sixth attempt is refused even with the correct code.
	if _, err := f.service.VerifyCode(ctx, "a@x.com", code); domainCode(t, err) != "ATTEMPTS_EXHAUSTED" {
		t.Errorf("expected ATTEMPTS_EXHAUSTED, got %v", err)
	}

	// A fresh request resets the counter.
	if err := f.service.Request(ctx, "a@x.com"); err != nil {
		t.Fatalf("second request: %v", err)
	}
	if _, err := f.service.VerifyCode(ctx, "a@x.com", f.issuedCode(t)); err != nil {
		t.Fatalf("verify on fresh challenge: %v", err)
	}
}

func TestResetAttemptsRemainingReported(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", "a@x.com", "hunter22")
	if err := f.service.Request(ctx, "a@x.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := f.issuedCode(t)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err := f.service.VerifyCode(ctx, "a@x.com", wrong)
	domainErr := mustDomainError(t, err)
	if domainErr.Details["attempts_remaining"] != 4 {
		t.Errorf("expected 4 attempts remaining, got %v", domainErr.Details["attempts_remaining"])
	}
}

func TestResetExpiredCode(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", "a@x.com", "hunter22")
	if err := f.service.Request(ctx, "a@x.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := f.issuedCode(t)

	f.clk.Advance(10*time.Minute + time.Second)
	if _, err := f.service.VerifyCode(ctx, "a@x.com", code); domainCode(t, err) != "EXPIRED" {
		t.Errorf("expected EXPIRED, got %v", err)
	}
}

func TestResetTokenExpiry(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", "a@x.com", "hunter22")
	if err := f.service.Request(ctx, "a@x.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	token, err := f.service.VerifyCode(ctx, "a@x.com", f.issuedCode(t))
	if err != nil {
		t.Fatalf("verify code: %v", err)
	}

	f.clk.Advance(15*time.Minute + time.Second)
	if err := f.service.Redeem(ctx, token.Token, "newpassword"); domainCode(t, err) != "INVALID_OR_EXPIRED_TOKEN" {
		t.Errorf("expected expired token refused, got %v", err)
	}
}

func TestResetUnknownToken(t *testing.T) {
	f := newResetFixture(t)
	if err := f.service.Redeem(context.Background(), "bogus", "newpassword"); domainCode(t, err) != "INVALID_OR_EXPIRED_TOKEN" {
		t.Errorf("expected INVALID_OR_EXPIRED_TOKEN, got %v", err)
	}
}
