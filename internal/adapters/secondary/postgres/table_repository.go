package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/restovia/resto-realtime/internal/core/domain"
	apperrors "github.com/restovia/resto-realtime/internal/core/errors"
	"github.com/restovia/resto-realtime/internal/core/ports"
)

// TableRepository is the secondary adapter for table persistence.
type TableRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TableRepository = (*TableRepository)(nil)

// NewTableRepository creates a new table repository.
func NewTableRepository(pool *pgxpool.Pool) *TableRepository {
	return &TableRepository{pool: pool}
}

// UpdateStatus commits the status change and returns the updated table.
func (r *TableRepository) UpdateStatus(ctx context.Context, tableID string, status domain.TableStatus) (*domain.Table, error) {
	const query = `
		UPDATE tables
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, number, branch_id, status, updated_at`

	table := &domain.Table{}
	err := r.pool.QueryRow(ctx, query, tableID, string(status)).Scan(
		&table.ID,
		&table.Number,
		&table.BranchID,
		&table.Status,
		&table.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTableNotFound
		}
		return nil, err
	}

	return table, nil
}
