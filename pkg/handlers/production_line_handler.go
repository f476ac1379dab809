package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/models"
	"github.com/craftline/aps-engine/pkg/repositories"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// ProductionLineListResponse for GET /api/v1/production-lines
type ProductionLineListResponse struct {
	Lines []*models.ProductionLine `json:"lines"`
	Total int                      `json:"total"`
}

// CreateProductionLineRequest for POST /api/v1/production-lines
type CreateProductionLineRequest struct {
	Name             string             `json:"name"`
	Description      string             `json:"description,omitempty"`
	CapacityPerHour  float64            `json:"capacity_per_hour"`
	EfficiencyFactor *float64           `json:"efficiency_factor,omitempty"`
	Status           string             `json:"status,omitempty"`
	AllowedProducts  []string           `json:"allowed_products,omitempty"`
	ChangeoverMatrix map[string]float64 `json:"changeover_matrix,omitempty"`
}

// StationListResponse for GET /api/v1/production-lines/{id}/stations
type StationListResponse struct {
	Stations []*models.ProcessStation `json:"stations"`
	Total    int                      `json:"total"`
}

// CreateStationRequest for POST /api/v1/production-lines/{id}/stations
type CreateStationRequest struct {
	Name              string         `json:"name"`
	StationOrder      int            `json:"station_order"`
	EquipmentType     string         `json:"equipment_type"`
	StandardCycleTime float64        `json:"standard_cycle_time"`
	ActualCycleTime   *float64       `json:"actual_cycle_time,omitempty"`
	Capabilities      map[string]any `json:"capabilities,omitempty"`
	Status            string         `json:"status,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// ProductionLineHandler handles production line and station HTTP requests.
type ProductionLineHandler struct {
	lines    repositories.ProductionLineRepository
	stations repositories.ProcessStationRepository
	logger   *zap.Logger
}

// NewProductionLineHandler creates a new production line handler.
func NewProductionLineHandler(
	lines repositories.ProductionLineRepository,
	stations repositories.ProcessStationRepository,
	logger *zap.Logger,
) *ProductionLineHandler {
	return &ProductionLineHandler{
		lines:    lines,
		stations: stations,
		logger:   logger,
	}
}

// RegisterRoutes registers the production line handler's routes on the given mux.
func (h *ProductionLineHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/production-lines", h.List)
	mux.HandleFunc("POST /api/v1/production-lines", h.Create)
	mux.HandleFunc("GET /api/v1/production-lines/{id}", h.Get)
	mux.HandleFunc("GET /api/v1/production-lines/{id}/stations", h.ListStations)
	mux.HandleFunc("POST /api/v1/production-lines/{id}/stations", h.CreateStation)
}

// List handles GET /api/v1/production-lines
func (h *ProductionLineHandler) List(w http.ResponseWriter, r *http.Request) {
	lines, err := h.lines.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list production lines", zap.Error(err))
		RespondError(w, h.logger, err, "list_production_lines_failed")
		return
	}

	response := ProductionLineListResponse{
		Lines: lines,
		Total: len(lines),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/v1/production-lines
func (h *ProductionLineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductionLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	line := &models.ProductionLine{
		Name:             req.Name,
		Description:      req.Description,
		CapacityPerHour:  req.CapacityPerHour,
		EfficiencyFactor: models.DefaultEfficiencyFactor,
		Status:           models.LineStatusActive,
		AllowedProducts:  req.AllowedProducts,
		ChangeoverMatrix: req.ChangeoverMatrix,
	}
	if req.EfficiencyFactor != nil {
		line.EfficiencyFactor = *req.EfficiencyFactor
	}
	if req.Status != "" {
		line.Status = models.LineStatus(req.Status)
	}

	if err := line.Validate(); err != nil {
		RespondError(w, h.logger, err, "create_production_line_failed")
		return
	}

	if err := h.lines.Create(r.Context(), line); err != nil {
		h.logger.Error("Failed to create production line",
			zap.String("name", req.Name),
			zap.Error(err))
		RespondError(w, h.logger, err, "create_production_line_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: line}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/v1/production-lines/{id}
func (h *ProductionLineHandler) Get(w http.ResponseWriter, r *http.Request) {
	lineID, ok := ParseLineID(w, r, h.logger)
	if !ok {
		return
	}

	line, err := h.lines.GetByID(r.Context(), lineID)
	if err != nil {
		h.logger.Error("Failed to get production line",
			zap.String("production_line_id", lineID.String()),
			zap.Error(err))
		RespondError(w, h.logger, err, "get_production_line_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: line}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListStations handles GET /api/v1/production-lines/{id}/stations
func (h *ProductionLineHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	lineID, ok := ParseLineID(w, r, h.logger)
	if !ok {
		return
	}

	stations, err := h.stations.ListByLine(r.Context(), lineID)
	if err != nil {
		h.logger.Error("Failed to list stations",
			zap.String("production_line_id", lineID.String()),
			zap.Error(err))
		RespondError(w, h.logger, err, "list_stations_failed")
		return
	}

	response := StationListResponse{
		Stations: stations,
		Total:    len(stations),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreateStation handles POST /api/v1/production-lines/{id}/stations
func (h *ProductionLineHandler) CreateStation(w http.ResponseWriter, r *http.Request) {
	lineID, ok := ParseLineID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	// The parent line must exist before the station is attached.
	if _, err := h.lines.GetByID(r.Context(), lineID); err != nil {
		h.logger.Error("Failed to get production line",
			zap.String("production_line_id", lineID.String()),
			zap.Error(err))
		RespondError(w, h.logger, err, "create_station_failed")
		return
	}

	station := &models.ProcessStation{
		ProductionLineID:  lineID,
		Name:              req.Name,
		StationOrder:      req.StationOrder,
		EquipmentType:     req.EquipmentType,
		StandardCycleTime: req.StandardCycleTime,
		ActualCycleTime:   req.ActualCycleTime,
		Capabilities:      req.Capabilities,
		Status:            models.StationStatusActive,
	}
	if req.Status != "" {
		station.Status = models.StationStatus(req.Status)
	}

	if err := station.Validate(); err != nil {
		RespondError(w, h.logger, err, "create_station_failed")
		return
	}

	if err := h.stations.Create(r.Context(), station); err != nil {
		h.logger.Error("Failed to create station",
			zap.String("production_line_id", lineID.String()),
			zap.String("name", req.Name),
			zap.Error(err))
		RespondError(w, h.logger, err, "create_station_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: station}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
