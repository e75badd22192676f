package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/loan-service/internal/domain"
)

// LoanDecision captures a single terminal transition of a pending loan.
// ReviewedBy is nil for scheduler-driven rejections.
type LoanDecision struct {
	LoanID          string
	Status          domain.LoanStatus
	RejectionReason *domain.RejectionReason
	AdminNotes      *string
	ReviewedBy      *string
	ReviewedAt      time.Time
}

// LoanRepository encapsulates loan persistence.
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Loan, error)
	ListAll(ctx context.Context) ([]domain.Loan, error)
	ListPending(ctx context.Context) ([]domain.Loan, error)
	ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.Loan, error)
	// Decide applies the transition only while the loan is still pending.
	// Returns pgx.ErrNoRows when another reviewer or the sweep already won.
	Decide(ctx context.Context, decision LoanDecision) (*domain.Loan, error)
}

type loanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository instantiates the repository.
func NewLoanRepository(pool *pgxpool.Pool) LoanRepository {
	return &loanRepository{pool: pool}
}

const loanColumns = `id, user_id, amount, purpose, status, rejection_reason, admin_notes,
               created_at, updated_at, reviewed_at, reviewed_by`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	const query = `
        INSERT INTO loans (user_id, amount, purpose, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		loan.UserID,
		loan.Amount,
		loan.Purpose,
		loan.Status,
	).Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *loanRepository) ListByUser(ctx context.Context, userID string) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

func (r *loanRepository) ListAll(ctx context.Context) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

// ListPending returns the review queue, oldest first.
func (r *loanRepository) ListPending(ctx context.Context) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, domain.LoanStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

func (r *loanRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status=$1 AND created_at <= $2 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, domain.LoanStatusPending, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

func (r *loanRepository) Decide(ctx context.Context, decision LoanDecision) (*domain.Loan, error) {
	// The status precondition in the WHERE clause makes concurrent reviews
	// (or a racing sweep) resolve to exactly one winner.
	query := `
        UPDATE loans
        SET status=$1, rejection_reason=$2, admin_notes=$3, reviewed_at=$4, reviewed_by=$5, updated_at=NOW()
        WHERE id=$6 AND status=$7
        RETURNING ` + loanColumns
	return r.fetchDecision(ctx, query, decision)
}

func (r *loanRepository) fetchDecision(ctx context.Context, query string, d LoanDecision) (*domain.Loan, error) {
	var loan domain.Loan
	if err := r.pool.QueryRow(ctx, query,
		d.Status,
		d.RejectionReason,
		d.AdminNotes,
		d.ReviewedAt,
		d.ReviewedBy,
		d.LoanID,
		domain.LoanStatusPending,
	).Scan(
		&loan.ID,
		&loan.UserID,
		&loan.Amount,
		&loan.Purpose,
		&loan.Status,
		&loan.RejectionReason,
		&loan.AdminNotes,
		&loan.CreatedAt,
		&loan.UpdatedAt,
		&loan.ReviewedAt,
		&loan.ReviewedBy,
	); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Loan, error) {
	var loan domain.Loan
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&loan.ID,
		&loan.UserID,
		&loan.Amount,
		&loan.Purpose,
		&loan.Status,
		&loan.RejectionReason,
		&loan.AdminNotes,
		&loan.CreatedAt,
		&loan.UpdatedAt,
		&loan.ReviewedAt,
		&loan.ReviewedBy,
	); err != nil {
		return nil, err
	}
	return &loan, nil
}

func scanLoans(rows pgx.Rows) ([]domain.Loan, error) {
	var result []domain.Loan
	for rows.Next() {
		var loan domain.Loan
		if err := rows.Scan(
			&loan.ID,
			&loan.UserID,
			&loan.Amount,
			&loan.Purpose,
			&loan.Status,
			&loan.RejectionReason,
			&loan.AdminNotes,
			&loan.CreatedAt,
			&loan.UpdatedAt,
			&loan.ReviewedAt,
			&loan.ReviewedBy,
		); err != nil {
			return nil, err
		}
		result = append(result, loan)
	}
	return result, rows.Err()
}
