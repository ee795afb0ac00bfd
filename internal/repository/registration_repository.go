package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/automation-hub/internal/domain"
)

// RegistrationRepository stores self-service signup requests.
type RegistrationRepository interface {
	Create(ctx context.Context, request *domain.RegistrationRequest) error
	Update(ctx context.Context, request *domain.RegistrationRequest) error
	GetByID(ctx context.Context, id int64) (*domain.RegistrationRequest, error)
	List(ctx context.Context) ([]domain.RegistrationRequest, error)
	FindPendingByEmail(ctx context.Context, email string) (*domain.RegistrationRequest, error)
	ClearReviewer(ctx context.Context, reviewerID int64) error
}

type registrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository instantiates the repository.
func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &registrationRepository{pool: pool}
}

const registrationColumns = `id, name, email, password_hash, status, company_title, created_at, reviewed_by, reviewed_at`

func (r *registrationRepository) Create(ctx context.Context, request *domain.RegistrationRequest) error {
	const query = `
        INSERT INTO registration_requests (name, email, password_hash, status, company_title, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		request.Name,
		request.Email,
		request.PasswordHash,
		request.Status,
		request.CompanyTitle,
		request.CreatedAt,
	).Scan(&request.ID)
}

func (r *registrationRepository) Update(ctx context.Context, request *domain.RegistrationRequest) error {
	const query = `
        UPDATE registration_requests SET status=$1, reviewed_by=$2, reviewed_at=$3
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		request.Status,
		request.ReviewedBy,
		request.ReviewedAt,
		request.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *registrationRepository) ClearReviewer(ctx context.Context, reviewerID int64) error {
	const query = `UPDATE registration_requests SET reviewed_by=NULL WHERE reviewed_by=$1`
	_, err := r.pool.Exec(ctx, query, reviewerID)
	return err
}

func (r *registrationRepository) GetByID(ctx context.Context, id int64) (*domain.RegistrationRequest, error) {
	query := `SELECT ` + registrationColumns + ` FROM registration_requests WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *registrationRepository) FindPendingByEmail(ctx context.Context, email string) (*domain.RegistrationRequest, error) {
	query := `SELECT ` + registrationColumns + ` FROM registration_requests
        WHERE email=$1 AND status=$2 LIMIT 1`
	return r.fetchSingle(ctx, query, email, domain.RegistrationStatusPending)
}

func (r *registrationRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.RegistrationRequest, error) {
	var request domain.RegistrationRequest
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&request.ID,
		&request.Name,
		&request.Email,
		&request.PasswordHash,
		&request.Status,
		&request.CompanyTitle,
		&request.CreatedAt,
		&request.ReviewedBy,
		&request.ReviewedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *registrationRepository) List(ctx context.Context) ([]domain.RegistrationRequest, error) {
	query := `SELECT ` + registrationColumns + ` FROM registration_requests ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RegistrationRequest
	for rows.Next() {
		var request domain.RegistrationRequest
		if err := rows.Scan(
			&request.ID,
			&request.Name,
			&request.Email,
			&request.PasswordHash,
			&request.Status,
			&request.CompanyTitle,
			&request.CreatedAt,
			&request.ReviewedBy,
			&request.ReviewedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
