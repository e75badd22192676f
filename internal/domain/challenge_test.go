package domain

import (
	"testing"
	"time"
)

func TestChallengeExpiry(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expiry := issued.Add(10 * time.Minute)

	c := &RegistrationChallenge{ExpiresAt: expiry}
	if c.Expired(issued) {
		t.Error("fresh challenge reported expired")
	}
	if c.Expired(expiry) {
		t.Error("challenge at exact expiry should still be valid")
	}
	if !c.Expired(expiry.Add(time.Second)) {
		t.Error("challenge past expiry reported valid")
	}
}

func TestResetChallengeAttempts(t *testing.T) {
	c := &PasswordResetChallenge{Attempts: 4, MaxAttempts: 5}
	if c.AttemptsExhausted() {
		t.Error("budget not yet spent")
	}
	c.Attempts = 5
	if !c.AttemptsExhausted() {
		t.Error("budget spent but not reported")
	}
}

func TestResetTokenValid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	token := "abc"
	future := now.Add(15 * time.Minute)
	past := now.Add(-time.Second)

	c := &PasswordResetChallenge{}
	if c.ResetTokenValid(now) {
		t.Error("no token should never be valid")
	}

	c.ResetToken = &token
	c.ResetTokenExpiresAt = &future
	if !c.ResetTokenValid(now) {
		t.Error("live token reported invalid")
	}

	c.ResetTokenUsed = true
	if c.ResetTokenValid(now) {
		t.Error("used token reported valid")
	}

	c.ResetTokenUsed = false
	c.ResetTokenExpiresAt = &past
	if c.ResetTokenValid(now) {
		t.Error("expired token reported valid")
	}
}
