package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/models"
	"github.com/craftline/aps-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// LineCapabilityListResponse for GET /api/v1/line-capabilities
type LineCapabilityListResponse struct {
	Capabilities []*models.LineCapability `json:"capabilities"`
	Total        int                      `json:"total"`
}

// CreateLineCapabilityRequest for POST /api/v1/line-capabilities
type CreateLineCapabilityRequest struct {
	ProductionLineID uuid.UUID               `json:"production_line_id"`
	EquipmentType    string                  `json:"equipment_type"`
	CapabilityParams map[string]any          `json:"capability_params,omitempty"`
	ThroughputRange  *models.ThroughputRange `json:"throughput_range,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// CapabilityHandler handles line capability and product matching HTTP requests.
type CapabilityHandler struct {
	capabilityService services.CapabilityService
	logger            *zap.Logger
}

// NewCapabilityHandler creates a new capability handler.
func NewCapabilityHandler(capabilityService services.CapabilityService, logger *zap.Logger) *CapabilityHandler {
	return &CapabilityHandler{
		capabilityService: capabilityService,
		logger:            logger,
	}
}

// RegisterRoutes registers the capability handler's routes on the given mux.
func (h *CapabilityHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/line-capabilities", h.List)
	mux.HandleFunc("POST /api/v1/line-capabilities", h.Create)
	mux.HandleFunc("GET /api/v1/line-capabilities/{id}", h.Get)
	mux.HandleFunc("DELETE /api/v1/line-capabilities/{id}", h.Delete)
	mux.HandleFunc("GET /api/v1/matching/product-lines", h.MatchProductLines)
}

// List handles GET /api/v1/line-capabilities
func (h *CapabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	lineID, ok := ParseUUIDQuery(w, r, "production_line_id", h.logger)
	if !ok {
		return
	}

	capabilities, err := h.capabilityService.List(r.Context(), lineID)
	if err != nil {
		h.logger.Error("Failed to list line capabilities", zap.Error(err))
		RespondError(w, h.logger, err, "list_line_capabilities_failed")
		return
	}

	response := LineCapabilityListResponse{
		Capabilities: capabilities,
		Total:        len(capabilities),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/v1/line-capabilities
func (h *CapabilityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLineCapabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	capability := &models.LineCapability{
		ProductionLineID: req.ProductionLineID,
		EquipmentType:    req.EquipmentType,
		CapabilityParams: req.CapabilityParams,
		ThroughputRange:  req.ThroughputRange,
	}
	if capability.CapabilityParams == nil {
		capability.CapabilityParams = map[string]any{}
	}

	if err := h.capabilityService.Create(r.Context(), capability); err != nil {
		h.logger.Error("Failed to create line capability",
			zap.String("production_line_id", req.ProductionLineID.String()),
			zap.String("equipment_type", req.EquipmentType),
			zap.Error(err))
		RespondError(w, h.logger, err, "create_line_capability_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: capability}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/v1/line-capabilities/{id}
func (h *CapabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	capabilityID, ok := ParseCapabilityID(w, r, h.logger)
	if !ok {
		return
	}

	capability, err := h.capabilityService.Get(r.Context(), capabilityID)
	if err != nil {
		h.logger.Error("Failed to get line capability",
			zap.String("capability_id", capabilityID.String()),
			zap.Error(err))
		RespondError(w, h.logger, err, "get_line_capability_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: capability}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/v1/line-capabilities/{id}
func (h *CapabilityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	capabilityID, ok := ParseCapabilityID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.capabilityService.Delete(r.Context(), capabilityID); err != nil {
		h.logger.Error("Failed to delete line capability",
			zap.String("capability_id", capabilityID.String()),
			zap.Error(err))
		RespondError(w, h.logger, err, "delete_line_capability_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// MatchProductLines handles GET /api/v1/matching/product-lines.
// equipment_types is a comma-separated list; when omitted, the types come
// from the product's active process route.
func (h *CapabilityHandler) MatchProductLines(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseUUIDQuery(w, r, "product_id", h.logger)
	if !ok {
		return
	}
	if productID == uuid.Nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_product_id", "product_id is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var equipmentTypes []string
	if raw := r.URL.Query().Get("equipment_types"); raw != "" {
		equipmentTypes = strings.Split(raw, ",")
	}

	matches, err := h.capabilityService.MatchProductToLines(r.Context(), productID, equipmentTypes)
	if err != nil {
		h.logger.Error("Failed to match product to lines",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		RespondError(w, h.logger, err, "match_product_lines_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: matches}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
