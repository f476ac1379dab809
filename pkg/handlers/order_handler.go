package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/models"
	"github.com/craftline/aps-engine/pkg/repositories"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// OrderListResponse for GET /api/v1/orders
type OrderListResponse struct {
	Orders []*models.Order `json:"orders"`
	Total  int             `json:"total"`
}

// CreateOrderItemRequest is one product position of a new order.
type CreateOrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CreateOrderRequest for POST /api/v1/orders
type CreateOrderRequest struct {
	OrderNo      string                   `json:"order_no"`
	CustomerName string                   `json:"customer_name"`
	DueDate      time.Time                `json:"due_date"`
	Priority     int                      `json:"priority,omitempty"`
	Notes        string                   `json:"notes,omitempty"`
	Items        []CreateOrderItemRequest `json:"items,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// OrderHandler handles order HTTP requests.
type OrderHandler struct {
	orders repositories.OrderRepository
	logger *zap.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders repositories.OrderRepository, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// RegisterRoutes registers the order handler's routes on the given mux.
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/orders", h.List)
	mux.HandleFunc("POST /api/v1/orders", h.Create)
	mux.HandleFunc("GET /api/v1/orders/{id}", h.Get)
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		RespondError(w, h.logger, err, "list_orders_failed")
		return
	}

	response := OrderListResponse{
		Orders: orders,
		Total:  len(orders),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	order := &models.Order{
		OrderNo:      req.OrderNo,
		CustomerName: req.CustomerName,
		DueDate:      req.DueDate,
		Priority:     req.Priority,
		Status:       models.OrderStatusPending,
		Notes:        req.Notes,
	}
	if order.Priority == 0 {
		order.Priority = models.DefaultPriority
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := order.Validate(); err != nil {
		RespondError(w, h.logger, err, "create_order_failed")
		return
	}

	if err := h.orders.Create(r.Context(), order); err != nil {
		h.logger.Error("Failed to create order",
			zap.String("order_no", req.OrderNo),
			zap.Error(err))
		RespondError(w, h.logger, err, "create_order_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: order}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := ParseOrderID(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		h.logger.Error("Failed to get order",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
		RespondError(w, h.logger, err, "get_order_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: order}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
