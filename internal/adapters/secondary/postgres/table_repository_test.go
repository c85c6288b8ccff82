package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restovia/resto-realtime/internal/core/domain"
	apperrors "github.com/restovia/resto-realtime/internal/core/errors"
)

func seedTable(t *testing.T, table *domain.Table) {
	t.Helper()

	_, err := testPool.Exec(context.Background(),
		`INSERT INTO tables (id, number, branch_id, status, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		table.ID, table.Number, table.BranchID, string(table.Status), table.UpdatedAt,
	)
	require.NoError(t, err, "Failed to seed table")
}

func TestTableRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")
	repo := NewTableRepository(testPool)

	table := &domain.Table{
		ID:        uuid.NewString(),
		Number:    12,
		BranchID:  uuid.NewString(),
		Status:    domain.TableAvailable,
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	seedTable(t, table)

	updated, err := repo.UpdateStatus(ctx, table.ID, domain.TableOccupied)
	require.NoError(t, err)

	assert.Equal(t, table.ID, updated.ID)
	assert.Equal(t, 12, updated.Number)
	assert.Equal(t, table.BranchID, updated.BranchID)
	assert.Equal(t, domain.TableOccupied, updated.Status)
	assert.True(t, updated.UpdatedAt.After(table.UpdatedAt), "updated_at should advance")
}

func TestTableRepository_UpdateStatus_NotFound(t *testing.T) {
	ctx := context.Background()
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")
	repo := NewTableRepository(testPool)

	_, err := repo.UpdateStatus(ctx, uuid.NewString(), domain.TableCleaning)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTableNotFound)
}
