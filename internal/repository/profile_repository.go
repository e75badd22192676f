package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/loan-service/internal/domain"
)

// ProfileRepository manages applicant profile persistence.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `
        SELECT id, user_id, first_name, last_name, phone, address, date_of_birth,
               employment_status, annual_income, created_at, updated_at
        FROM profiles WHERE user_id=$1`

	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FirstName,
		&profile.LastName,
		&profile.Phone,
		&profile.Address,
		&profile.DateOfBirth,
		&profile.EmploymentStatus,
		&profile.AnnualIncome,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (user_id, first_name, last_name, phone, address, date_of_birth, employment_status, annual_income)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (user_id) DO UPDATE SET
            first_name=EXCLUDED.first_name,
            last_name=EXCLUDED.last_name,
            phone=EXCLUDED.phone,
            address=EXCLUDED.address,
            date_of_birth=EXCLUDED.date_of_birth,
            employment_status=EXCLUDED.employment_status,
            annual_income=EXCLUDED.annual_income,
            updated_at=NOW()
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		profile.UserID,
		profile.FirstName,
		profile.LastName,
		profile.Phone,
		profile.Address,
		profile.DateOfBirth,
		profile.EmploymentStatus,
		profile.AnnualIncome,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}
