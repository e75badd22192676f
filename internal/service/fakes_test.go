package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/loan-service/internal/domain"
	"github.com/spec-kit/loan-service/internal/events"
	"github.com/spec-kit/loan-service/internal/repository"
	apperrors "github.com/spec-kit/loan-service/pkg/util"
)

// In-memory repository fakes mirroring the Postgres implementations closely
// enough to exercise the service flows, including the one-winner delete and
// conditional-update semantics.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	now   func() time.Time
}

func newFakeUserRepo(now func() time.Time) *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User), now: now}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == user.Username || strings.EqualFold(existing.Email, user.Email) {
			return errDuplicate()
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = f.now()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) SetProfileCompleted(_ context.Context, id string, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.ProfileCompleted = completed
	return nil
}

type fakeRegistrationRepo struct {
	mu         sync.Mutex
	challenges map[string]*domain.RegistrationChallenge
	now        func() time.Time
}

func newFakeRegistrationRepo(now func() time.Time) *fakeRegistrationRepo {
	return &fakeRegistrationRepo{challenges: make(map[string]*domain.RegistrationChallenge), now: now}
}

func (f *fakeRegistrationRepo) Replace(_ context.Context, challenge *domain.RegistrationChallenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.challenges {
		if strings.EqualFold(existing.Email, challenge.Email) || existing.Username == challenge.Username {
			delete(f.challenges, id)
		}
	}
	challenge.ID = uuid.NewString()
	challenge.CreatedAt = f.now()
	stored := *challenge
	f.challenges[challenge.ID] = &stored
	return nil
}

func (f *fakeRegistrationRepo) GetByID(_ context.Context, id string) (*domain.RegistrationChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if challenge, ok := f.challenges[id]; ok {
		copied := *challenge
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRegistrationRepo) UpdateCode(_ context.Context, id, code string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge, ok := f.challenges[id]
	if !ok {
		return pgx.ErrNoRows
	}
	challenge.Code = code
	challenge.ExpiresAt = expiresAt
	return nil
}

func (f *fakeRegistrationRepo) Consume(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.challenges[id]; !ok {
		return false, nil
	}
	delete(f.challenges, id)
	return true, nil
}

type fakeLoginRepo struct {
	mu         sync.Mutex
	challenges map[string]*domain.LoginChallenge
	now        func() time.Time
}

func newFakeLoginRepo(now func() time.Time) *fakeLoginRepo {
	return &fakeLoginRepo{challenges: make(map[string]*domain.LoginChallenge), now: now}
}

func (f *fakeLoginRepo) Replace(_ context.Context, challenge *domain.LoginChallenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.challenges {
		if existing.UserID == challenge.UserID {
			delete(f.challenges, id)
		}
	}
	challenge.ID = uuid.NewString()
	challenge.CreatedAt = f.now()
	stored := *challenge
	f.challenges[challenge.ID] = &stored
	return nil
}

func (f *fakeLoginRepo) GetByID(_ context.Context, id string) (*domain.LoginChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if challenge, ok := f.challenges[id]; ok {
		copied := *challenge
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLoginRepo) UpdateCode(_ context.Context, id, code string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge, ok := f.challenges[id]
	if !ok {
		return pgx.ErrNoRows
	}
	challenge.Code = code
	challenge.ExpiresAt = expiresAt
	return nil
}

func (f *fakeLoginRepo) Consume(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.challenges[id]; !ok {
		return false, nil
	}
	delete(f.challenges, id)
	return true, nil
}

type fakeResetRepo struct {
	mu         sync.Mutex
	challenges map[string]*domain.PasswordResetChallenge
	now        func() time.Time
}

func newFakeResetRepo(now func() time.Time) *fakeResetRepo {
	return &fakeResetRepo{challenges: make(map[string]*domain.PasswordResetChallenge), now: now}
}

func (f *fakeResetRepo) Replace(_ context.Context, challenge *domain.PasswordResetChallenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.challenges {
		if existing.UserID == challenge.UserID {
			delete(f.challenges, id)
		}
	}
	challenge.ID = uuid.NewString()
	challenge.CreatedAt = f.now()
	stored := *challenge
	f.challenges[challenge.ID] = &stored
	return nil
}

func (f *fakeResetRepo) GetLiveByEmail(_ context.Context, email string) (*domain.PasswordResetChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.PasswordResetChallenge
	for _, challenge := range f.challenges {
		if !strings.EqualFold(challenge.Email, email) {
			continue
		}
		if latest == nil || challenge.CreatedAt.After(latest.CreatedAt) {
			latest = challenge
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeResetRepo) IncrementAttempts(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge, ok := f.challenges[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	challenge.Attempts++
	return challenge.Attempts, nil
}

func (f *fakeResetRepo) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge, ok := f.challenges[id]
	if !ok {
		return pgx.ErrNoRows
	}
	challenge.ResetToken = &token
	challenge.ResetTokenExpiresAt = &expiresAt
	challenge.ResetTokenUsed = false
	return nil
}

func (f *fakeResetRepo) GetByResetToken(_ context.Context, token string) (*domain.PasswordResetChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, challenge := range f.challenges {
		if challenge.ResetToken != nil && *challenge.ResetToken == token {
			copied := *challenge
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeResetRepo) MarkTokenUsed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge, ok := f.challenges[id]
	if !ok {
		return pgx.ErrNoRows
	}
	challenge.ResetTokenUsed = true
	return nil
}

func (f *fakeResetRepo) DeleteOthersForUser(_ context.Context, userID, keepID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, challenge := range f.challenges {
		if challenge.UserID == userID && id != keepID {
			delete(f.challenges, id)
		}
	}
	return nil
}

type fakeLoanRepo struct {
	mu    sync.Mutex
	loans map[string]*domain.Loan
	now   func() time.Time
}

func newFakeLoanRepo(now func() time.Time) *fakeLoanRepo {
	return &fakeLoanRepo{loans: make(map[string]*domain.Loan), now: now}
}

func (f *fakeLoanRepo) Create(_ context.Context, loan *domain.Loan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	loan.ID = uuid.NewString()
	loan.CreatedAt = f.now()
	loan.UpdatedAt = loan.CreatedAt
	stored := *loan
	f.loans[loan.ID] = &stored
	return nil
}

func (f *fakeLoanRepo) GetByID(_ context.Context, id string) (*domain.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if loan, ok := f.loans[id]; ok {
		copied := *loan
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeLoanRepo) ListByUser(_ context.Context, userID string) ([]domain.Loan, error) {
	return f.list(func(l *domain.Loan) bool { return l.UserID == userID }, false), nil
}

func (f *fakeLoanRepo) ListAll(_ context.Context) ([]domain.Loan, error) {
	return f.list(func(*domain.Loan) bool { return true }, false), nil
}

func (f *fakeLoanRepo) ListPending(_ context.Context) ([]domain.Loan, error) {
	return f.list(func(l *domain.Loan) bool { return l.Status == domain.LoanStatusPending }, true), nil
}

func (f *fakeLoanRepo) ListStalePending(_ context.Context, cutoff time.Time) ([]domain.Loan, error) {
	return f.list(func(l *domain.Loan) bool {
		return l.Status == domain.LoanStatusPending && !l.CreatedAt.After(cutoff)
	}, true), nil
}

func (f *fakeLoanRepo) Decide(_ context.Context, decision repository.LoanDecision) (*domain.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loan, ok := f.loans[decision.LoanID]
	if !ok || loan.Status != domain.LoanStatusPending {
		return nil, pgx.ErrNoRows
	}
	loan.Status = decision.Status
	loan.RejectionReason = decision.RejectionReason
	loan.AdminNotes = decision.AdminNotes
	loan.ReviewedBy = decision.ReviewedBy
	reviewedAt := decision.ReviewedAt
	loan.ReviewedAt = &reviewedAt
	loan.UpdatedAt = f.now()
	copied := *loan
	return &copied, nil
}

func (f *fakeLoanRepo) list(match func(*domain.Loan) bool, ascending bool) []domain.Loan {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Loan
	for _, loan := range f.loans {
		if match(loan) {
			result = append(result, *loan)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if ascending {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	now      func() time.Time
}

func newFakeProfileRepo(now func() time.Time) *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*domain.Profile), now: now}
}

func (f *fakeProfileRepo) GetByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if profile, ok := f.profiles[userID]; ok {
		copied := *profile
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeProfileRepo) Upsert(_ context.Context, profile *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.profiles[profile.UserID]; ok {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.ID = uuid.NewString()
		profile.CreatedAt = f.now()
	}
	profile.UpdatedAt = f.now()
	stored := *profile
	f.profiles[profile.UserID] = &stored
	return nil
}

// recordingDispatcher captures every published event.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, event := range d.events {
		if event.Type == t {
			matched = append(matched, event)
		}
	}
	return matched
}

func errDuplicate() error {
	return apperrors.NewDuplicateIdentity("username or email already exists")
}
