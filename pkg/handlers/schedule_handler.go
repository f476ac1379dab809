package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/models"
	"github.com/craftline/aps-engine/pkg/planning"
	"github.com/craftline/aps-engine/pkg/repositories"
	"github.com/craftline/aps-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// GenerateScheduleRequest for POST /api/v1/schedule/generate
type GenerateScheduleRequest struct {
	OrderIDs         []uuid.UUID `json:"order_ids,omitempty"`
	HorizonDays      int         `json:"horizon_days,omitempty"`
	Strategy         string      `json:"strategy,omitempty"`
	ProductionLineID *uuid.UUID  `json:"production_line_id,omitempty"`
}

// ScheduleListResponse for GET /api/v1/schedule/current
type ScheduleListResponse struct {
	Jobs  []*models.ScheduledJob `json:"jobs"`
	Total int                    `json:"total"`
}

// ============================================================================
// Handler
// ============================================================================

// ScheduleHandler handles schedule HTTP requests.
type ScheduleHandler struct {
	scheduleService services.ScheduleService
	logger          *zap.Logger
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(scheduleService services.ScheduleService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		logger:          logger,
	}
}

// RegisterRoutes registers the schedule handler's routes on the given mux.
func (h *ScheduleHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/schedule/generate", h.Generate)
	mux.HandleFunc("GET /api/v1/schedule/current", h.Current)
}

// Generate handles POST /api/v1/schedule/generate
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.scheduleService.Generate(r.Context(), services.GenerateRequest{
		OrderIDs:         req.OrderIDs,
		HorizonDays:      req.HorizonDays,
		Strategy:         planning.Strategy(req.Strategy),
		ProductionLineID: req.ProductionLineID,
	})
	if err != nil {
		h.logger.Error("Failed to generate schedule",
			zap.String("strategy", req.Strategy),
			zap.Int("horizon_days", req.HorizonDays),
			zap.Error(err))
		RespondError(w, h.logger, err, "generate_schedule_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Current handles GET /api/v1/schedule/current
func (h *ScheduleHandler) Current(w http.ResponseWriter, r *http.Request) {
	lineID, ok := ParseUUIDQuery(w, r, "production_line_id", h.logger)
	if !ok {
		return
	}
	limit, ok := ParseIntQuery(w, r, "limit", 0, h.logger)
	if !ok {
		return
	}
	offset, ok := ParseIntQuery(w, r, "offset", 0, h.logger)
	if !ok {
		return
	}

	filter := repositories.ScheduleFilter{
		Status:           models.JobStatus(r.URL.Query().Get("status")),
		ProductionLineID: lineID,
		Limit:            limit,
		Offset:           offset,
	}

	jobs, err := h.scheduleService.Current(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to get current schedule", zap.Error(err))
		RespondError(w, h.logger, err, "get_current_schedule_failed")
		return
	}

	response := ScheduleListResponse{
		Jobs:  jobs,
		Total: len(jobs),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
