package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/automation-hub/internal/domain"
)

// ScriptNodeRepository stores the script library tree.
type ScriptNodeRepository interface {
	Create(ctx context.Context, node *domain.ScriptNode) error
	Update(ctx context.Context, node *domain.ScriptNode) error
	GetByID(ctx context.Context, id int64) (*domain.ScriptNode, error)
	GetRoot(ctx context.Context) (*domain.ScriptNode, error)
	ListAll(ctx context.Context) ([]domain.ScriptNode, error)
	ListChildren(ctx context.Context, parentID int64) ([]domain.ScriptNode, error)
	FindChildFolderByName(ctx context.Context, parentID int64, name string) (*domain.ScriptNode, error)
	FindFolderByRequest(ctx context.Context, requestID int64) (*domain.ScriptNode, error)
	FindFileInFolder(ctx context.Context, parentID, requestID int64) (*domain.ScriptNode, error)
	ListByRequest(ctx context.Context, requestID int64) ([]domain.ScriptNode, error)
	Delete(ctx context.Context, id int64) error
}

type scriptNodeRepository struct {
	pool *pgxpool.Pool
}

// NewScriptNodeRepository instantiates the repository.
func NewScriptNodeRepository(pool *pgxpool.Pool) ScriptNodeRepository {
	return &scriptNodeRepository{pool: pool}
}

const scriptNodeColumns = `id, name, type, parent_id, request_id, created_by, created_at, updated_at`

func (r *scriptNodeRepository) Create(ctx context.Context, node *domain.ScriptNode) error {
	const query = `
        INSERT INTO script_nodes (name, type, parent_id, request_id, created_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		node.Name,
		node.Type,
		node.ParentID,
		node.RequestID,
		node.CreatedBy,
		node.CreatedAt,
		node.UpdatedAt,
	).Scan(&node.ID)
}

func (r *scriptNodeRepository) Update(ctx context.Context, node *domain.ScriptNode) error {
	const query = `
        UPDATE script_nodes SET name=$1, parent_id=$2, updated_at=$3
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, node.Name, node.ParentID, node.UpdatedAt, node.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *scriptNodeRepository) GetByID(ctx context.Context, id int64) (*domain.ScriptNode, error) {
	query := `SELECT ` + scriptNodeColumns + ` FROM script_nodes WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *scriptNodeRepository) GetRoot(ctx context.Context) (*domain.ScriptNode, error) {
	query := `SELECT ` + scriptNodeColumns + ` FROM script_nodes WHERE parent_id IS NULL LIMIT 1`
	var node domain.ScriptNode
	if err := r.pool.QueryRow(ctx, query).Scan(scriptNodeFields(&node)...); err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *scriptNodeRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.ScriptNode, error) {
	var node domain.ScriptNode
	if err := r.pool.QueryRow(ctx, query, args...).Scan(scriptNodeFields(&node)...); err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *scriptNodeRepository) ListAll(ctx context.Context) ([]domain.ScriptNode, error) {
	query := `SELECT ` + scriptNodeColumns + ` FROM script_nodes ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScriptNodes(rows)
}

func (r *scriptNodeRepository) ListChildren(ctx context.Context, parentID int64) ([]domain.ScriptNode, error) {
	query := `SELECT ` + scriptNodeColumns + ` FROM script_nodes WHERE parent_id=$1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScriptNodes(rows)
}

func (r *scriptNodeRepository) FindChildFolderByName(ctx context.Context, parentID int64, name string) (*domain.ScriptNode, error) {
	query := `SELECT ` + scriptNodeColumns + ` FROM script_nodes
        WHERE parent_id=$1 AND type=$2 AND name=$3 LIMIT 1`
	return r.fetchSingle(ctx, query, parentID, domain.NodeTypeFolder, name)
}

func (r *scriptNodeRepository) FindFolderByRequest(ctx context.Context, requestID int64) (*domain.ScriptNode, error) {
	query := `SELECT ` + scriptNodeColumns + ` FROM script_nodes
        WHERE type=$1 AND request_id=$2 LIMIT 1`
	return r.fetchSingle(ctx, query, domain.NodeTypeFolder, requestID)
}

func (r *scriptNodeRepository) FindFileInFolder(ctx context.Context, parentID, requestID int64) (*domain.ScriptNode, error) {
	query := `SELECT ` + scriptNodeColumns + ` FROM script_nodes
        WHERE type=$1 AND parent_id=$2 AND request_id=$3 LIMIT 1`
	return r.fetchSingle(ctx, query, domain.NodeTypeFile, parentID, requestID)
}

func (r *scriptNodeRepository) ListByRequest(ctx context.Context, requestID int64) ([]domain.ScriptNode, error) {
	query := `SELECT ` + scriptNodeColumns + ` FROM script_nodes WHERE request_id=$1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScriptNodes(rows)
}

func (r *scriptNodeRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM script_nodes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scriptNodeFields(node *domain.ScriptNode) []any {
	return []any{
		&node.ID,
		&node.Name,
		&node.Type,
		&node.ParentID,
		&node.RequestID,
		&node.CreatedBy,
		&node.CreatedAt,
		&node.UpdatedAt,
	}
}

func scanScriptNodes(rows pgx.Rows) ([]domain.ScriptNode, error) {
	var result []domain.ScriptNode
	for rows.Next() {
		var node domain.ScriptNode
		if err := rows.Scan(scriptNodeFields(&node)...); err != nil {
			return nil, err
		}
		result = append(result, node)
	}
	return result, rows.Err()
}
