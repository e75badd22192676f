package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/loan-service/internal/clock"
	"github.com/spec-kit/loan-service/internal/domain"
)

func newProfileFixture(t *testing.T) (*ProfileService, *fakeUserRepo) {
	t.Helper()
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	users := newFakeUserRepo(clk.Now)
	profiles := newFakeProfileRepo(clk.Now)
	return NewProfileService(users, profiles), users
}

func validProfileInput() ProfileInput {
	return ProfileInput{
		FirstName:        "Alice",
		LastName:         "Smith",
		Phone:            "+15550100",
		Address:          "1 Main St",
		DateOfBirth:      "1990-04-12",
		EmploymentStatus: "employed",
		AnnualIncome:     52000,
	}
}

func TestSaveProfileMarksComplete(t *testing.T) {
	svc, users := newProfileFixture(t)
	ctx := context.Background()
	user := &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "x", Role: domain.RoleUser}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("seed: %v", err)
	}

	profile, err := svc.Save(ctx, user, validProfileInput())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !profile.DateOfBirth.Equal(time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("dob parsed wrong: %v", profile.DateOfBirth)
	}
	if !user.ProfileCompleted {
		t.Error("user not marked profile_completed")
	}
	reloaded, err := users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.ProfileCompleted {
		t.Error("completion not persisted")
	}
}

func TestSaveProfileValidation(t *testing.T) {
	svc, users := newProfileFixture(t)
	ctx := context.Background()
	user := &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "x", Role: domain.RoleUser}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("seed: %v", err)
	}

	missing := validProfileInput()
	missing.Phone = "  "
	if _, err := svc.Save(ctx, user, missing); domainCode(t, err) != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED for blank field, got %v", err)
	}

	badDate := validProfileInput()
	badDate.DateOfBirth = "12/04/1990"
	if _, err := svc.Save(ctx, user, badDate); domainCode(t, err) != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED for bad date, got %v", err)
	}

	negative := validProfileInput()
	negative.AnnualIncome = -1
	if _, err := svc.Save(ctx, user, negative); domainCode(t, err) != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED for negative income, got %v", err)
	}

	if user.ProfileCompleted {
		t.Error("failed saves must not mark the profile complete")
	}
}

func TestGetProfileAbsent(t *testing.T) {
	svc, users := newProfileFixture(t)
	ctx := context.Background()
	user := &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "x", Role: domain.RoleUser}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("seed: %v", err)
	}

	profile, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if profile != nil {
		t.Error("expected nil profile before first save")
	}
}

func TestSaveProfileUpdates(t *testing.T) {
	svc, users := newProfileFixture(t)
	ctx := context.Background()
	user := &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "x", Role: domain.RoleUser}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Save(ctx, user, validProfileInput()); err != nil {
		t.Fatalf("first save: %v", err)
	}
	update := validProfileInput()
	update.AnnualIncome = 60000
	if _, err := svc.Save(ctx, user, update); err != nil {
		t.Fatalf("second save: %v", err)
	}

	profile, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if profile.AnnualIncome != 60000 {
		t.Errorf("update not applied, income %v", profile.AnnualIncome)
	}
}
