package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/planning"
	"github.com/craftline/aps-engine/pkg/services"
)

// ============================================================================
// Request Types
// ============================================================================

// RushOrderRequest for POST /api/v1/simulate/rush-order
type RushOrderRequest struct {
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int       `json:"quantity"`
	TargetDate time.Time `json:"target_date"`
	Priority   int       `json:"priority,omitempty"`
}

// DeliveryEstimateRequest for POST /api/v1/simulate/delivery
type DeliveryEstimateRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// ============================================================================
// Handler
// ============================================================================

// SimulationHandler handles what-if simulation HTTP requests.
type SimulationHandler struct {
	simulationService services.SimulationService
	logger            *zap.Logger
}

// NewSimulationHandler creates a new simulation handler.
func NewSimulationHandler(simulationService services.SimulationService, logger *zap.Logger) *SimulationHandler {
	return &SimulationHandler{
		simulationService: simulationService,
		logger:            logger,
	}
}

// RegisterRoutes registers the simulation handler's routes on the given mux.
func (h *SimulationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/simulate/rush-order", h.RushOrder)
	mux.HandleFunc("POST /api/v1/simulate/delivery", h.Delivery)
}

// RushOrder handles POST /api/v1/simulate/rush-order
func (h *SimulationHandler) RushOrder(w http.ResponseWriter, r *http.Request) {
	var req RushOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	sim, err := h.simulationService.SimulateRushOrder(r.Context(), planning.RushOrderInput{
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		TargetDate: req.TargetDate,
		Priority:   req.Priority,
	})
	if err != nil {
		h.logger.Error("Failed to simulate rush order",
			zap.String("product_id", req.ProductID.String()),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		RespondError(w, h.logger, err, "simulate_rush_order_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: sim}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delivery handles POST /api/v1/simulate/delivery
func (h *SimulationHandler) Delivery(w http.ResponseWriter, r *http.Request) {
	var req DeliveryEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	estimate, err := h.simulationService.EstimateDelivery(r.Context(), planning.DeliveryQuery{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.logger.Error("Failed to estimate delivery",
			zap.String("product_id", req.ProductID.String()),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		RespondError(w, h.logger, err, "estimate_delivery_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: estimate}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
