package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/merchantloop/adyen-reconciler/internal/models"
	"github.com/merchantloop/adyen-reconciler/internal/utils"
)

// OrderRepository handles data access for orders and their status history.
// It writes against the host platform's existing order tables.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GetByIncrementID loads an order by its human-facing increment id.
func (r *OrderRepository) GetByIncrementID(ctx context.Context, incrementID string) (*models.Order, error) {
	const q = `
        SELECT entity_id, increment_id, quote_id, state, status, cancel_requested, created_at, updated_at
        FROM orders
        WHERE increment_id = $1`

	var order models.Order
	if err := r.db.GetContext(ctx, &order, q, incrementID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order %s: %w", incrementID, err)
	}
	return &order, nil
}

// Save persists the order row and any status-history comments added since
// the last save, in a single transaction.
func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order save: %w", err)
	}
	defer tx.Rollback()

	const q = `
        UPDATE orders SET
            state = $2,
            status = $3,
            cancel_requested = $4,
            updated_at = NOW()
        WHERE entity_id = $1`

	res, err := tx.ExecContext(ctx, q, order.EntityID, order.State, order.Status, order.CancelRequested)
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.IncrementID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return utils.ErrOrderNotFound
	}

	const hq = `
        INSERT INTO order_status_history (order_id, comment, created_at)
        VALUES ($1, $2, $3)`

	for i := range order.History {
		if order.History[i].Saved {
			continue
		}
		if _, err := tx.ExecContext(ctx, hq, order.EntityID, order.History[i].Comment, order.History[i].CreatedAt); err != nil {
			return fmt.Errorf("insert status history for order %s: %w", order.IncrementID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order save: %w", err)
	}

	// Mark comments as written only after the transaction committed.
	for i := range order.History {
		order.History[i].Saved = true
	}
	return nil
}
