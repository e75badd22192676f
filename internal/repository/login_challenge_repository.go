package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/loan-service/internal/domain"
)

func errNoRows() error { return pgx.ErrNoRows }

// LoginChallengeRepository manages pending login rows.
type LoginChallengeRepository interface {
	// Replace deletes any prior challenge for the same account and inserts the
	// new one in a single transaction.
	Replace(ctx context.Context, challenge *domain.LoginChallenge) error
	GetByID(ctx context.Context, id string) (*domain.LoginChallenge, error)
	UpdateCode(ctx context.Context, id, code string, expiresAt time.Time) error
	// Consume deletes the challenge; false means a concurrent caller won.
	Consume(ctx context.Context, id string) (bool, error)
}

type loginChallengeRepository struct {
	pool *pgxpool.Pool
}

// NewLoginChallengeRepository constructs the repository.
func NewLoginChallengeRepository(pool *pgxpool.Pool) LoginChallengeRepository {
	return &loginChallengeRepository{pool: pool}
}

func (r *loginChallengeRepository) Replace(ctx context.Context, challenge *domain.LoginChallenge) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM pending_logins WHERE user_id=$1`, challenge.UserID,
	); err != nil {
		return err
	}

	const insert = `
        INSERT INTO pending_logins (user_id, email, otp_code, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		challenge.UserID,
		challenge.Email,
		challenge.Code,
		challenge.ExpiresAt,
	).Scan(&challenge.ID, &challenge.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *loginChallengeRepository) GetByID(ctx context.Context, id string) (*domain.LoginChallenge, error) {
	const query = `
        SELECT id, user_id, email, otp_code, expires_at, created_at
        FROM pending_logins WHERE id=$1`

	var challenge domain.LoginChallenge
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&challenge.ID,
		&challenge.UserID,
		&challenge.Email,
		&challenge.Code,
		&challenge.ExpiresAt,
		&challenge.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *loginChallengeRepository) UpdateCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	const query = `UPDATE pending_logins SET otp_code=$1, expires_at=$2 WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, code, expiresAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *loginChallengeRepository) Consume(ctx context.Context, id string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM pending_logins WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
