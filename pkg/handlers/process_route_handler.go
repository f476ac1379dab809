package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/models"
	"github.com/craftline/aps-engine/pkg/repositories"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// ProcessRouteListResponse for GET /api/v1/process-routes
type ProcessRouteListResponse struct {
	Routes []*models.ProcessRoute `json:"routes"`
	Total  int                    `json:"total"`
}

// CreateProcessRouteRequest for POST /api/v1/process-routes. The new route
// becomes the product's active version; version numbers are assigned by the
// store, not the client.
type CreateProcessRouteRequest struct {
	ProductID  uuid.UUID          `json:"product_id"`
	Steps      []models.RouteStep `json:"steps"`
	Source     string             `json:"source,omitempty"`
	SourceFile string             `json:"source_file,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// ProcessRouteHandler handles process route HTTP requests.
type ProcessRouteHandler struct {
	routes   repositories.ProcessRouteRepository
	products repositories.ProductRepository
	logger   *zap.Logger
}

// NewProcessRouteHandler creates a new process route handler.
func NewProcessRouteHandler(
	routes repositories.ProcessRouteRepository,
	products repositories.ProductRepository,
	logger *zap.Logger,
) *ProcessRouteHandler {
	return &ProcessRouteHandler{
		routes:   routes,
		products: products,
		logger:   logger,
	}
}

// RegisterRoutes registers the process route handler's routes on the given mux.
func (h *ProcessRouteHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/process-routes", h.List)
	mux.HandleFunc("POST /api/v1/process-routes", h.Create)
}

// List handles GET /api/v1/process-routes. With product_id it returns every
// version for that product, newest first; without it, the active route of
// each product.
func (h *ProcessRouteHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseUUIDQuery(w, r, "product_id", h.logger)
	if !ok {
		return
	}

	var (
		routes []*models.ProcessRoute
		err    error
	)
	if productID != uuid.Nil {
		routes, err = h.routes.ListByProduct(r.Context(), productID)
	} else {
		routes, err = h.routes.ListActive(r.Context())
	}
	if err != nil {
		h.logger.Error("Failed to list process routes", zap.Error(err))
		RespondError(w, h.logger, err, "list_process_routes_failed")
		return
	}

	response := ProcessRouteListResponse{
		Routes: routes,
		Total:  len(routes),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/v1/process-routes
func (h *ProcessRouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProcessRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	// The referenced product must exist.
	if _, err := h.products.GetByID(r.Context(), req.ProductID); err != nil {
		h.logger.Error("Failed to get product",
			zap.String("product_id", req.ProductID.String()),
			zap.Error(err))
		RespondError(w, h.logger, err, "create_process_route_failed")
		return
	}

	// Version is a placeholder; CreateVersion assigns the real one.
	route := &models.ProcessRoute{
		ProductID:  req.ProductID,
		Version:    1,
		Steps:      req.Steps,
		Source:     models.RouteSourceManual,
		SourceFile: req.SourceFile,
	}
	if req.Source != "" {
		route.Source = models.RouteSource(req.Source)
	}

	if err := route.Validate(); err != nil {
		RespondError(w, h.logger, err, "create_process_route_failed")
		return
	}

	if err := h.routes.CreateVersion(r.Context(), route); err != nil {
		h.logger.Error("Failed to create process route",
			zap.String("product_id", req.ProductID.String()),
			zap.Error(err))
		RespondError(w, h.logger, err, "create_process_route_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: route}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
