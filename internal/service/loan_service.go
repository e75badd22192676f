package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/loan-service/internal/clock"
	"github.com/spec-kit/loan-service/internal/domain"
	"github.com/spec-kit/loan-service/internal/events"
	"github.com/spec-kit/loan-service/internal/repository"
	apperrors "github.com/spec-kit/loan-service/pkg/util"
)

// LoanService coordinates loan submission and review.
type LoanService struct {
	loans      repository.LoanRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	clock      clock.Clock
}

// LoanDependencies bundles requirements for the loan service.
type LoanDependencies struct {
	LoanRepo   repository.LoanRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Clock      clock.Clock
}

// NewLoanService constructs the service.
func NewLoanService(deps LoanDependencies) *LoanService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &LoanService{
		loans:      deps.LoanRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		clock:      clk,
	}
}

// Submit creates a pending loan for the account.
func (s *LoanService) Submit(ctx context.Context, user *domain.User, amount float64, purpose string) (*domain.Loan, error) {
	if !user.ProfileCompleted {
		return nil, apperrors.NewProfileIncomplete()
	}
	if amount <= 0 {
		return nil, apperrors.NewInvalidAmount("amount must be greater than 0")
	}
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return nil, apperrors.NewValidationError("purpose is required", nil)
	}

	loan := &domain.Loan{
		UserID:  user.ID,
		Amount:  amount,
		Purpose: purpose,
		Status:  domain.LoanStatusPending,
	}
	if err := s.loans.Create(ctx, loan); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type: events.EventLoanSubmitted,
		Payload: events.LoanSubmittedPayload{
			LoanID:  loan.ID,
			UserID:  loan.UserID,
			Amount:  loan.Amount,
			Purpose: loan.Purpose,
		},
	})
	return loan, nil
}

// List returns loans visible to the caller: admins see every loan, account
// holders see their own (and must have a completed profile, matching the
// submission gate).
func (s *LoanService) List(ctx context.Context, user *domain.User) ([]domain.Loan, error) {
	if user.IsAdmin() {
		return s.loans.ListAll(ctx)
	}
	if !user.ProfileCompleted {
		return nil, apperrors.NewProfileIncomplete()
	}
	return s.loans.ListByUser(ctx, user.ID)
}

// Get returns a single loan, enforcing ownership for non-admins.
func (s *LoanService) Get(ctx context.Context, user *domain.User, loanID string) (*domain.Loan, error) {
	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("loan", nil)
		}
		return nil, err
	}
	if !user.IsAdmin() && loan.UserID != user.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return loan, nil
}

// PendingQueue returns the review queue, oldest first. Reviewer must be admin.
func (s *LoanService) PendingQueue(ctx context.Context, reviewer *domain.User) ([]domain.Loan, error) {
	if !reviewer.IsAdmin() {
		return nil, apperrors.NewForbidden("admin access required")
	}
	return s.loans.ListPending(ctx)
}

// Approve transitions a pending loan to approved.
func (s *LoanService) Approve(ctx context.Context, reviewer *domain.User, loanID, notes string) (*domain.Loan, error) {
	if !reviewer.IsAdmin() {
		return nil, apperrors.NewForbidden("admin access required")
	}
	return s.decide(ctx, repository.LoanDecision{
		LoanID:     loanID,
		Status:     domain.LoanStatusApproved,
		AdminNotes: optionalString(notes),
		ReviewedBy: &reviewer.ID,
		ReviewedAt: s.clock.Now(),
	})
}

// Reject transitions a pending loan to rejected with one of the manual reason
// codes. AUTO_REJECTED is reserved for the sweep and refused here.
func (s *LoanService) Reject(ctx context.Context, reviewer *domain.User, loanID string, reason domain.RejectionReason, notes string) (*domain.Loan, error) {
	if !reviewer.IsAdmin() {
		return nil, apperrors.NewForbidden("admin access required")
	}
	if !domain.ValidManualReason(reason) {
		return nil, apperrors.NewInvalidReasonCode("invalid rejection reason code")
	}
	return s.decide(ctx, repository.LoanDecision{
		LoanID:          loanID,
		Status:          domain.LoanStatusRejected,
		RejectionReason: &reason,
		AdminNotes:      optionalString(notes),
		ReviewedBy:      &reviewer.ID,
		ReviewedAt:      s.clock.Now(),
	})
}

// RejectionReasonInfo pairs a reason code with its display label.
type RejectionReasonInfo struct {
	Code  domain.RejectionReason `json:"code"`
	Label string                 `json:"label"`
}

// RejectionReasons lists the manually assignable reason codes.
func (s *LoanService) RejectionReasons() []RejectionReasonInfo {
	reasons := domain.ManualRejectionReasons()
	out := make([]RejectionReasonInfo, 0, len(reasons))
	for _, r := range reasons {
		out = append(out, RejectionReasonInfo{Code: r, Label: domain.ReasonLabel(r)})
	}
	return out
}

func (s *LoanService) decide(ctx context.Context, decision repository.LoanDecision) (*domain.Loan, error) {
	// Existence first so an absent loan reports NotFound rather than the
	// precondition failure.
	if _, err := s.loans.GetByID(ctx, decision.LoanID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("loan", nil)
		}
		return nil, err
	}

	loan, err := s.loans.Decide(ctx, decision)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotPending()
		}
		return nil, err
	}

	s.notifyDecision(ctx, loan)
	return loan, nil
}

// notifyDecision publishes the owner notification after the transition has
// committed. Failures here never surface to the reviewer.
func (s *LoanService) notifyDecision(ctx context.Context, loan *domain.Loan) {
	if s.dispatcher == nil {
		return
	}
	owner, err := s.users.GetByID(ctx, loan.UserID)
	if err != nil {
		return
	}
	s.publish(ctx, events.Event{
		Type: events.EventLoanDecided,
		Payload: events.LoanDecidedPayload{
			LoanID:      loan.ID,
			Address:     owner.Email,
			DisplayName: owner.Username,
			Decision:    loan.Status,
			Reason:      loan.RejectionReason,
			Notes:       loan.AdminNotes,
			Amount:      loan.Amount,
			Purpose:     loan.Purpose,
			SubmittedAt: loan.CreatedAt,
			ReviewedAt:  loan.ReviewedAt,
		},
	})
}

func (s *LoanService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
