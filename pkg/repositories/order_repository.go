package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/craftline/aps-engine/pkg/apperrors"
	"github.com/craftline/aps-engine/pkg/database"
	"github.com/craftline/aps-engine/pkg/models"
)

// OrderRepository provides data access for customer orders and their items.
type OrderRepository interface {
	// Create inserts the order and all of its items in one transaction.
	// Item numbers are assigned from the slice order (1-based).
	Create(ctx context.Context, order *models.Order) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context) ([]*models.Order, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Order, error)

	// ListSchedulable returns pending and confirmed orders, the ones a
	// scheduling run picks up.
	ListSchedulable(ctx context.Context) ([]*models.Order, error)
}

type orderRepository struct {
	db *database.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *database.DB) OrderRepository {
	return &orderRepository{db: db}
}

var _ OrderRepository = (*orderRepository)(nil)

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	now := time.Now()

	query := `
		INSERT INTO aps_orders (
			order_no, customer_name, due_date, priority, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		order.OrderNo,
		order.CustomerName,
		order.DueDate,
		order.Priority,
		order.Status,
		nullString(order.Notes),
		now,
		now,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		// Check for unique constraint violation (PostgreSQL error code 23505)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO aps_order_items (order_id, item_no, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		item.ItemNo = i + 1

		err = tx.QueryRow(ctx, itemQuery,
			item.OrderID,
			item.ItemNo,
			item.ProductID,
			item.Quantity,
			now,
			now,
		).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			// Foreign key violation (PostgreSQL error code 23503) means the
			// item references a product that does not exist.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return fmt.Errorf("%w: order item references unknown product %s",
					apperrors.ErrValidation, item.ProductID)
			}
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `
		SELECT id, order_no, customer_name, due_date, priority, status, notes,
		       created_at, updated_at
		FROM aps_orders
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	order, err := scanOrder(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]*models.Order, error) {
	query := `
		SELECT id, order_no, customer_name, due_date, priority, status, notes,
		       created_at, updated_at
		FROM aps_orders
		ORDER BY due_date, order_no`

	return r.queryOrders(ctx, query)
}

func (r *orderRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, order_no, customer_name, due_date, priority, status, notes,
		       created_at, updated_at
		FROM aps_orders
		WHERE id = ANY($1)
		ORDER BY due_date, order_no`

	return r.queryOrders(ctx, query, ids)
}

func (r *orderRepository) ListSchedulable(ctx context.Context) ([]*models.Order, error) {
	query := `
		SELECT id, order_no, customer_name, due_date, priority, status, notes,
		       created_at, updated_at
		FROM aps_orders
		WHERE status IN ('pending', 'confirmed')
		ORDER BY due_date, order_no`

	return r.queryOrders(ctx, query)
}

// ============================================================================
// Helper Functions
// ============================================================================

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.Items = items[order.ID]
	}

	return orders, nil
}

// loadItems fetches the items of the given orders in one query, keyed by
// order ID and sorted by item number.
func (r *orderRepository) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	query := `
		SELECT id, order_id, item_no, product_id, quantity, created_at, updated_at
		FROM aps_order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, item_no`

	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]models.OrderItem)
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ItemNo,
			&item.ProductID,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var notes *string

	err := row.Scan(
		&o.ID,
		&o.OrderNo,
		&o.CustomerName,
		&o.DueDate,
		&o.Priority,
		&o.Status,
		&notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	if notes != nil {
		o.Notes = *notes
	}

	return &o, nil
}
