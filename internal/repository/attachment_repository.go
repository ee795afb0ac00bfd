package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/automation-hub/internal/domain"
)

// AttachmentRepository stores requester-supplied input files.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByRequest(ctx context.Context, requestID int64) ([]domain.Attachment, error)
	MapByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository instantiates the repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (request_id, name, type, data)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		attachment.RequestID,
		attachment.Name,
		attachment.Type,
		attachment.Data,
	).Scan(&attachment.ID)
}

func (r *attachmentRepository) ListByRequest(ctx context.Context, requestID int64) ([]domain.Attachment, error) {
	const query = `
        SELECT id, request_id, name, type, data
        FROM attachments WHERE request_id=$1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.ID, &att.RequestID, &att.Name, &att.Type, &att.Data); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) MapByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]domain.Attachment, error) {
	result := make(map[int64][]domain.Attachment)
	if len(requestIDs) == 0 {
		return result, nil
	}

	const query = `
        SELECT id, request_id, name, type, data
        FROM attachments WHERE request_id = ANY($1) ORDER BY id`

	rows, err := r.pool.Query(ctx, query, requestIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.ID, &att.RequestID, &att.Name, &att.Type, &att.Data); err != nil {
			return nil, err
		}
		result[att.RequestID] = append(result[att.RequestID], att)
	}
	return result, rows.Err()
}
