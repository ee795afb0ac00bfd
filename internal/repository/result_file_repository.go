package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/automation-hub/internal/domain"
)

// ResultFileRepository stores developer-supplied output files.
type ResultFileRepository interface {
	Create(ctx context.Context, file *domain.ResultFile) error
	ListByRequest(ctx context.Context, requestID int64) ([]domain.ResultFile, error)
	MapByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]domain.ResultFile, error)
	Delete(ctx context.Context, id int64) error
}

type resultFileRepository struct {
	pool *pgxpool.Pool
}

// NewResultFileRepository instantiates the repository.
func NewResultFileRepository(pool *pgxpool.Pool) ResultFileRepository {
	return &resultFileRepository{pool: pool}
}

func (r *resultFileRepository) Create(ctx context.Context, file *domain.ResultFile) error {
	const query = `
        INSERT INTO result_files (request_id, name, type, data)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		file.RequestID,
		file.Name,
		file.Type,
		file.Data,
	).Scan(&file.ID)
}

func (r *resultFileRepository) ListByRequest(ctx context.Context, requestID int64) ([]domain.ResultFile, error) {
	const query = `
        SELECT id, request_id, name, type, data
        FROM result_files WHERE request_id=$1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResultFiles(rows)
}

func (r *resultFileRepository) MapByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]domain.ResultFile, error) {
	result := make(map[int64][]domain.ResultFile)
	if len(requestIDs) == 0 {
		return result, nil
	}

	const query = `
        SELECT id, request_id, name, type, data
        FROM result_files WHERE request_id = ANY($1) ORDER BY id`

	rows, err := r.pool.Query(ctx, query, requestIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files, err := scanResultFiles(rows)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		result[file.RequestID] = append(result[file.RequestID], file)
	}
	return result, nil
}

func (r *resultFileRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM result_files WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanResultFiles(rows pgx.Rows) ([]domain.ResultFile, error) {
	var result []domain.ResultFile
	for rows.Next() {
		var file domain.ResultFile
		if err := rows.Scan(&file.ID, &file.RequestID, &file.Name, &file.Type, &file.Data); err != nil {
			return nil, err
		}
		result = append(result, file)
	}
	return result, rows.Err()
}
