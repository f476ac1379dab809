package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/apperrors"
)

// OrderStatus represents the lifecycle state of a customer order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ValidOrderStatuses contains all valid order status values.
var ValidOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// IsValidOrderStatus checks if the given status is valid.
func IsValidOrderStatus(s OrderStatus) bool {
	return slices.Contains(ValidOrderStatuses, s)
}

// Priority bounds. 1 is the most urgent.
const (
	PriorityHighest = 1
	PriorityLowest  = 5
	DefaultPriority = 5
)

// Order is a customer order awaiting production.
type Order struct {
	ID           uuid.UUID   `json:"id"`
	OrderNo      string      `json:"order_no"`
	CustomerName string      `json:"customer_name"`
	DueDate      time.Time   `json:"due_date"`
	Priority     int         `json:"priority"` // 1=highest, 5=lowest
	Status       OrderStatus `json:"status"`
	Notes        string      `json:"notes,omitempty"`
	Items        []OrderItem `json:"items,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// OrderItem is one product position of an order. ItemNo numbers the items
// within their order (1-based, assigned on insert).
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ItemNo    int       `json:"item_no"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsSchedulable reports whether the order should be picked up by a scheduling
// run. In-progress orders are not re-planned automatically.
func (o *Order) IsSchedulable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// Validate rejects malformed orders.
func (o *Order) Validate() error {
	if o.OrderNo == "" {
		return fmt.Errorf("%w: order_no is required", apperrors.ErrValidation)
	}
	if o.CustomerName == "" {
		return fmt.Errorf("%w: customer_name is required", apperrors.ErrValidation)
	}
	if o.DueDate.IsZero() {
		return fmt.Errorf("%w: due_date is required", apperrors.ErrValidation)
	}
	if o.Priority < PriorityHighest || o.Priority > PriorityLowest {
		return fmt.Errorf("%w: priority must be between %d and %d, got %d",
			apperrors.ErrValidation, PriorityHighest, PriorityLowest, o.Priority)
	}
	if !IsValidOrderStatus(o.Status) {
		return fmt.Errorf("%w: invalid order status %q", apperrors.ErrValidation, o.Status)
	}
	for i := range o.Items {
		if err := o.Items[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects malformed order items.
func (i *OrderItem) Validate() error {
	if i.ProductID == uuid.Nil {
		return fmt.Errorf("%w: order item product_id is required", apperrors.ErrValidation)
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("%w: order item quantity must be positive, got %d", apperrors.ErrValidation, i.Quantity)
	}
	return nil
}
