package ports

import (
	"context"

	"github.com/restovia/resto-realtime/internal/core/domain"
)

// OrderRepository is the seam to the order CRUD layer. The gateway
// delegates the actual mutation here and only broadcasts after the
// returned order reflects the committed state.
type OrderRepository interface {
	// UpdateStatus commits the status change and returns the updated
	// order with its branch, number and line items populated.
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)

	// ListActive returns the branch's orders that have not reached a
	// terminal status. Consumed by polling clients to re-derive the
	// event stream while disconnected.
	ListActive(ctx context.Context, branchID string) ([]*domain.Order, error)
}

// TableRepository is the seam to the table CRUD layer.
type TableRepository interface {
	UpdateStatus(ctx context.Context, tableID string, status domain.TableStatus) (*domain.Table, error)
}
