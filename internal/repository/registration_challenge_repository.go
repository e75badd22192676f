package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/loan-service/internal/domain"
)

// RegistrationChallengeRepository manages pending registration rows.
type RegistrationChallengeRepository interface {
	// Replace deletes any prior challenge for the same username or email and
	// inserts the new one in a single transaction.
	Replace(ctx context.Context, challenge *domain.RegistrationChallenge) error
	GetByID(ctx context.Context, id string) (*domain.RegistrationChallenge, error)
	UpdateCode(ctx context.Context, id, code string, expiresAt time.Time) error
	// Consume deletes the challenge. Returns false when it was already gone,
	// which serializes concurrent verifications to one winner.
	Consume(ctx context.Context, id string) (bool, error)
}

type registrationChallengeRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationChallengeRepository constructs the repository.
func NewRegistrationChallengeRepository(pool *pgxpool.Pool) RegistrationChallengeRepository {
	return &registrationChallengeRepository{pool: pool}
}

func (r *registrationChallengeRepository) Replace(ctx context.Context, challenge *domain.RegistrationChallenge) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM pending_registrations WHERE email=$1 OR username=$2`,
		challenge.Email, challenge.Username,
	); err != nil {
		return err
	}

	const insert = `
        INSERT INTO pending_registrations (username, email, password_hash, role, otp_code, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		challenge.Username,
		challenge.Email,
		challenge.PasswordHash,
		challenge.Role,
		challenge.Code,
		challenge.ExpiresAt,
	).Scan(&challenge.ID, &challenge.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *registrationChallengeRepository) GetByID(ctx context.Context, id string) (*domain.RegistrationChallenge, error) {
	const query = `
        SELECT id, username, email, password_hash, role, otp_code, expires_at, created_at
        FROM pending_registrations WHERE id=$1`

	var challenge domain.RegistrationChallenge
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&challenge.ID,
		&challenge.Username,
		&challenge.Email,
		&challenge.PasswordHash,
		&challenge.Role,
		&challenge.Code,
		&challenge.ExpiresAt,
		&challenge.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *registrationChallengeRepository) UpdateCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	const query = `UPDATE pending_registrations SET otp_code=$1, expires_at=$2 WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, code, expiresAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *registrationChallengeRepository) Consume(ctx context.Context, id string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM pending_registrations WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
