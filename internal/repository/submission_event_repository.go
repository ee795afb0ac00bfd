package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/automation-hub/internal/domain"
)

// SubmissionEventRepository stores the append-only submission audit trail.
type SubmissionEventRepository interface {
	Create(ctx context.Context, event *domain.SubmissionEvent) error
	ListByRequest(ctx context.Context, requestID int64) ([]domain.SubmissionEvent, error)
	MapByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]domain.SubmissionEvent, error)
	CountByRequest(ctx context.Context, requestID int64) (int, error)
}

type submissionEventRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionEventRepository instantiates the repository.
func NewSubmissionEventRepository(pool *pgxpool.Pool) SubmissionEventRepository {
	return &submissionEventRepository{pool: pool}
}

func (r *submissionEventRepository) Create(ctx context.Context, event *domain.SubmissionEvent) error {
	const query = `
        INSERT INTO submission_events (request_id, event_type, created_at, added_files)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		event.RequestID,
		event.EventType,
		event.CreatedAt,
		event.AddedFiles,
	).Scan(&event.ID)
}

func (r *submissionEventRepository) ListByRequest(ctx context.Context, requestID int64) ([]domain.SubmissionEvent, error) {
	const query = `
        SELECT id, request_id, event_type, created_at, added_files
        FROM submission_events WHERE request_id=$1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissionEvents(rows)
}

func (r *submissionEventRepository) MapByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]domain.SubmissionEvent, error) {
	result := make(map[int64][]domain.SubmissionEvent)
	if len(requestIDs) == 0 {
		return result, nil
	}

	const query = `
        SELECT id, request_id, event_type, created_at, added_files
        FROM submission_events WHERE request_id = ANY($1) ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, requestIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events, err := scanSubmissionEvents(rows)
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		result[event.RequestID] = append(result[event.RequestID], event)
	}
	return result, nil
}

func (r *submissionEventRepository) CountByRequest(ctx context.Context, requestID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submission_events WHERE request_id=$1`, requestID).Scan(&count)
	return count, err
}

func scanSubmissionEvents(rows pgx.Rows) ([]domain.SubmissionEvent, error) {
	var result []domain.SubmissionEvent
	for rows.Next() {
		var event domain.SubmissionEvent
		if err := rows.Scan(&event.ID, &event.RequestID, &event.EventType, &event.CreatedAt, &event.AddedFiles); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
