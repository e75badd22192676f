package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/loan-service/internal/domain"
	"github.com/spec-kit/loan-service/internal/repository"
	apperrors "github.com/spec-kit/loan-service/pkg/util"
)

// ProfileService manages applicant profiles. Saving a profile requires every
// field at once; completion is what unlocks loan submission.
type ProfileService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
}

// NewProfileService constructs the service.
func NewProfileService(users repository.UserRepository, profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{users: users, profiles: profiles}
}

// Get returns the caller's profile, or nil if not yet populated.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

// ProfileInput carries the full set of required profile fields.
type ProfileInput struct {
	FirstName        string
	LastName         string
	Phone            string
	Address          string
	DateOfBirth      string
	EmploymentStatus string
	AnnualIncome     float64
}

// Save creates or updates the profile and marks the account complete.
func (s *ProfileService) Save(ctx context.Context, user *domain.User, input ProfileInput) (*domain.Profile, error) {
	missing := []string{}
	for field, value := range map[string]string{
		"first_name":        input.FirstName,
		"last_name":         input.LastName,
		"phone":             input.Phone,
		"address":           input.Address,
		"date_of_birth":     input.DateOfBirth,
		"employment_status": input.EmploymentStatus,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	if input.AnnualIncome < 0 {
		return nil, apperrors.NewValidationError("annual income must not be negative", nil)
	}

	dob, err := time.Parse("2006-01-02", input.DateOfBirth)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date of birth, expected YYYY-MM-DD", nil)
	}

	profile := &domain.Profile{
		UserID:           user.ID,
		FirstName:        strings.TrimSpace(input.FirstName),
		LastName:         strings.TrimSpace(input.LastName),
		Phone:            strings.TrimSpace(input.Phone),
		Address:          strings.TrimSpace(input.Address),
		DateOfBirth:      dob,
		EmploymentStatus: strings.TrimSpace(input.EmploymentStatus),
		AnnualIncome:     input.AnnualIncome,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	if !user.ProfileCompleted {
		if err := s.users.SetProfileCompleted(ctx, user.ID, true); err != nil {
			return nil, err
		}
		user.ProfileCompleted = true
	}
	return profile, nil
}
