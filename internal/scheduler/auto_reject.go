package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/loan-service/internal/clock"
	"github.com/spec-kit/loan-service/internal/domain"
	"github.com/spec-kit/loan-service/internal/events"
	"github.com/spec-kit/loan-service/internal/observability"
	"github.com/spec-kit/loan-service/internal/repository"
)

const autoRejectNotes = "automatically rejected after 5 days of no action"

// SweepLock gates a sweep run so only one replica performs it. Release is best
// effort; the TTL bounds how long a crashed holder blocks others.
type SweepLock interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context)
}

// AutoRejectScheduler periodically rejects loans that sat pending past the
// stale cutoff. Reviewer attribution is left empty on these transitions.
type AutoRejectScheduler struct {
	loans      repository.LoanRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	lock       SweepLock
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      clock.Clock

	interval   time.Duration
	staleAfter time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Options bundles scheduler dependencies.
type Options struct {
	LoanRepo   repository.LoanRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Lock       SweepLock
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      clock.Clock
	Interval   time.Duration
	StaleAfter time.Duration
}

// NewAutoRejectScheduler builds the scheduler.
func NewAutoRejectScheduler(opts Options) *AutoRejectScheduler {
	clk := opts.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &AutoRejectScheduler{
		loans:      opts.LoanRepo,
		users:      opts.UserRepo,
		dispatcher: opts.Dispatcher,
		lock:       opts.Lock,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		clock:      clk,
		interval:   opts.Interval,
		staleAfter: opts.StaleAfter,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start launches the sweep loop. The first sweep runs immediately so restarts
// do not extend the grace period.
func (s *AutoRejectScheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.doneCh)

		s.sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *AutoRejectScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

func (s *AutoRejectScheduler) sweep(ctx context.Context) {
	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx, s.interval)
		if err != nil {
			// Redis being unreachable degrades to every replica sweeping,
			// which is safe: the conditional update picks one winner per loan.
			s.logger.Warn("sweep lock unavailable, continuing without it", zap.Error(err))
		} else if !ok {
			s.logger.Debug("sweep skipped, another replica holds the lock")
			return
		} else {
			defer s.lock.Release(ctx)
		}
	}

	rejected, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("auto-reject sweep failed", zap.Error(err))
		return
	}
	if rejected > 0 {
		s.logger.Info("auto-reject sweep finished", zap.Int("rejected", rejected))
	}
}

// RunOnce performs a single sweep pass and returns how many loans it rejected.
// Individual loan failures are logged and skipped so one bad row cannot stall
// the rest of the batch.
func (s *AutoRejectScheduler) RunOnce(ctx context.Context) (int, error) {
	now := s.clock.Now()
	cutoff := now.Add(-s.staleAfter)

	stale, err := s.loans.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	reason := domain.ReasonAutoRejected
	notes := autoRejectNotes
	rejected := 0
	for i := range stale {
		loan, err := s.loans.Decide(ctx, repository.LoanDecision{
			LoanID:          stale[i].ID,
			Status:          domain.LoanStatusRejected,
			RejectionReason: &reason,
			AdminNotes:      &notes,
			ReviewedAt:      now,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// A reviewer decided it between the listing and here.
				continue
			}
			s.logger.Error("auto-reject transition failed",
				zap.String("loan_id", stale[i].ID),
				zap.Error(err),
			)
			continue
		}
		rejected++
		s.notify(ctx, loan)
	}

	s.metrics.RecordSweep(rejected)
	return rejected, nil
}

func (s *AutoRejectScheduler) notify(ctx context.Context, loan *domain.Loan) {
	if s.dispatcher == nil {
		return
	}
	owner, err := s.users.GetByID(ctx, loan.UserID)
	if err != nil {
		s.logger.Warn("auto-reject notification skipped, owner lookup failed",
			zap.String("loan_id", loan.ID),
			zap.Error(err),
		)
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLoanDecided,
		Timestamp: s.clock.Now(),
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
