package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/loan-service/internal/domain"
)

// PasswordResetRepository manages reset challenges and their second-stage tokens.
type PasswordResetRepository interface {
	// Replace deletes any prior reset challenge for the account and inserts
	// the new one (attempt counter back at zero) in a single transaction.
	Replace(ctx context.Context, challenge *domain.PasswordResetChallenge) error
	GetLiveByEmail(ctx context.Context, email string) (*domain.PasswordResetChallenge, error)
	// IncrementAttempts bumps the counter and returns the new value.
	IncrementAttempts(ctx context.Context, id string) (int, error)
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	GetByResetToken(ctx context.Context, token string) (*domain.PasswordResetChallenge, error)
	MarkTokenUsed(ctx context.Context, id string) error
	// DeleteOthersForUser removes every other reset challenge for the account,
	// closing the window for concurrent resets.
	DeleteOthersForUser(ctx context.Context, userID, keepID string) error
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository constructs the repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

const resetColumns = `id, user_id, email, otp_code, expires_at, otp_attempts, max_otp_attempts,
               reset_token, reset_token_expires_at, reset_token_used, created_at`

func (r *passwordResetRepository) Replace(ctx context.Context, challenge *domain.PasswordResetChallenge) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM password_resets WHERE user_id=$1`, challenge.UserID,
	); err != nil {
		return err
	}

	const insert = `
        INSERT INTO password_resets (user_id, email, otp_code, expires_at, otp_attempts, max_otp_attempts)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		challenge.UserID,
		challenge.Email,
		challenge.Code,
		challenge.ExpiresAt,
		challenge.Attempts,
		challenge.MaxAttempts,
	).Scan(&challenge.ID, &challenge.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *passwordResetRepository) GetLiveByEmail(ctx context.Context, email string) (*domain.PasswordResetChallenge, error) {
	query := `SELECT ` + resetColumns + `
        FROM password_resets WHERE LOWER(email)=LOWER($1)
        ORDER BY created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, email)
}

func (r *passwordResetRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	const query = `UPDATE password_resets SET otp_attempts = otp_attempts + 1 WHERE id=$1 RETURNING otp_attempts`
	var attempts int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *passwordResetRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	const query = `
        UPDATE password_resets
        SET reset_token=$1, reset_token_expires_at=$2, reset_token_used=FALSE
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, token, expiresAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *passwordResetRepository) GetByResetToken(ctx context.Context, token string) (*domain.PasswordResetChallenge, error) {
	query := `SELECT ` + resetColumns + ` FROM password_resets WHERE reset_token=$1`
	return r.fetchSingle(ctx, query, token)
}

func (r *passwordResetRepository) MarkTokenUsed(ctx context.Context, id string) error {
	const query = `UPDATE password_resets SET reset_token_used=TRUE WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *passwordResetRepository) DeleteOthersForUser(ctx context.Context, userID, keepID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM password_resets WHERE user_id=$1 AND id<>$2`, userID, keepID)
	return err
}

func (r *passwordResetRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.PasswordResetChallenge, error) {
	var challenge domain.PasswordResetChallenge
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&challenge.ID,
		&challenge.UserID,
		&challenge.Email,
		&challenge.Code,
		&challenge.ExpiresAt,
		&challenge.Attempts,
		&challenge.MaxAttempts,
		&challenge.ResetToken,
		&challenge.ResetTokenExpiresAt,
		&challenge.ResetTokenUsed,
		&challenge.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &challenge, nil
}
