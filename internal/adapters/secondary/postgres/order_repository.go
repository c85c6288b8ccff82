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

// OrderRepository is the secondary adapter for order persistence.
type OrderRepository struct {
	pool *pgxpool.Pool
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository creates a new order repository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// UpdateStatus commits the status change and returns the updated order
// with its line items, ready to be broadcast.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	const query = `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, number, branch_id, table_number, status, updated_at`

	order := &domain.Order{}
	err := r.pool.QueryRow(ctx, query, orderID, string(status)).Scan(
		&order.ID,
		&order.Number,
		&order.BranchID,
		&order.TableNumber,
		&order.Status,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// ListActive returns the branch's orders that have not reached a
// terminal status, oldest first.
func (r *OrderRepository) ListActive(ctx context.Context, branchID string) ([]*domain.Order, error) {
	const query = `
		SELECT id, number, branch_id, table_number, status, updated_at
		FROM orders
		WHERE branch_id = $1 AND status NOT IN ('PAID', 'CANCELLED')
		ORDER BY updated_at ASC`

	rows, err := r.pool.Query(ctx, query, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order := &domain.Order{}
		if err := rows.Scan(
			&order.ID,
			&order.Number,
			&order.BranchID,
			&order.TableNumber,
			&order.Status,
			&order.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const query = `
		SELECT id, name, quantity, notes
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.Notes); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
