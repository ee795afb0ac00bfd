package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/automation-hub/internal/domain"
)

// RequestFilter captures list query parameters. Search matches
// case-insensitively against title and requester name.
type RequestFilter struct {
	RequesterID *int64
	Status      *domain.RequestStatus
	Priority    *domain.RequestPriority
	Project     *string
	Search      *string
	SortAsc     bool
}

// RequestRepository encapsulates automation request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.AutomationRequest) error
	Update(ctx context.Context, request *domain.AutomationRequest) error
	GetByID(ctx context.Context, id int64) (*domain.AutomationRequest, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.AutomationRequest, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.AutomationRequest, error)
	ListIDsByRequester(ctx context.Context, requesterID int64) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates the repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, title, description, status, priority, project_name, revit_version,
               requester_id, requester_name, created_at, updated_at, due_date,
               result_script, result_file_name, ai_analysis, developer_notes`

func (r *requestRepository) Create(ctx context.Context, request *domain.AutomationRequest) error {
	const query = `
        INSERT INTO requests (title, description, status, priority, project_name, revit_version,
            requester_id, requester_name, created_at, updated_at, due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		request.Title,
		request.Description,
		request.Status,
		request.Priority,
		request.ProjectName,
		request.RevitVersion,
		request.RequesterID,
		request.RequesterName,
		request.CreatedAt,
		request.UpdatedAt,
		request.DueDate,
	).Scan(&request.ID)
}

func (r *requestRepository) Update(ctx context.Context, request *domain.AutomationRequest) error {
	const query = `
        UPDATE requests SET title=$1, description=$2, status=$3, priority=$4, project_name=$5,
            revit_version=$6, due_date=$7, result_script=$8, result_file_name=$9,
            ai_analysis=$10, developer_notes=$11, updated_at=$12
        WHERE id=$13`
	cmd, err := r.pool.Exec(ctx, query,
		request.Title,
		request.Description,
		request.Status,
		request.Priority,
		request.ProjectName,
		request.RevitVersion,
		request.DueDate,
		request.ResultScript,
		request.ResultFileName,
		request.AIAnalysis,
		request.DeveloperNotes,
		request.UpdatedAt,
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

func (r *requestRepository) GetByID(ctx context.Context, id int64) (*domain.AutomationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id=$1`
	var request domain.AutomationRequest
	if err := r.pool.QueryRow(ctx, query, id).Scan(requestFields(&request)...); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.AutomationRequest, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Project != nil {
		args = append(args, *filter.Project)
		clauses = append(clauses, fmt.Sprintf("project_name=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(requester_name) LIKE %s)", placeholder, placeholder))
	}

	order := "created_at DESC, id DESC"
	if filter.SortAsc {
		order = "created_at ASC, id ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM requests WHERE %s ORDER BY %s`,
		requestColumns, strings.Join(clauses, " AND "), order)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *requestRepository) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.AutomationRequest, error) {
	return r.ListWithFilter(ctx, RequestFilter{Status: &status})
}

func (r *requestRepository) ListIDsByRequester(ctx context.Context, requesterID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM requests WHERE requester_id=$1`, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *requestRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func requestFields(request *domain.AutomationRequest) []any {
	return []any{
		&request.ID,
		&request.Title,
		&request.Description,
		&request.Status,
		&request.Priority,
		&request.ProjectName,
		&request.RevitVersion,
		&request.RequesterID,
		&request.RequesterName,
		&request.CreatedAt,
		&request.UpdatedAt,
		&request.DueDate,
		&request.ResultScript,
		&request.ResultFileName,
		&request.AIAnalysis,
		&request.DeveloperNotes,
	}
}

func scanRequests(rows pgx.Rows) ([]domain.AutomationRequest, error) {
	var result []domain.AutomationRequest
	for rows.Next() {
		var request domain.AutomationRequest
		if err := rows.Scan(requestFields(&request)...); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
