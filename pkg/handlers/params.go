package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseProductID extracts and validates the product ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: id
func ParseProductID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_product_id", "Invalid product ID format", logger)
}

// ParseLineID extracts and validates the production line ID from the request
// path. Returns the parsed UUID and true on success, or uuid.Nil and false on
// error (after writing an error response).
// Expects path parameter: id
func ParseLineID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_production_line_id", "Invalid production line ID format", logger)
}

// ParseOrderID extracts and validates the order ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: id
func ParseOrderID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_order_id", "Invalid order ID format", logger)
}

// ParseCapabilityID extracts and validates the line capability ID from the
// request path. Returns the parsed UUID and true on success, or uuid.Nil and
// false on error (after writing an error response).
// Expects path parameter: id
func ParseCapabilityID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_capability_id", "Invalid line capability ID format", logger)
}

// ParseUUIDQuery parses an optional UUID query parameter. Returns uuid.Nil
// when the parameter is absent, and false after writing an error response
// when it is present but malformed.
func ParseUUIDQuery(w http.ResponseWriter, r *http.Request, param string, logger *zap.Logger) (uuid.UUID, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(value)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_"+param, "Invalid "+param+" format"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// ParseIntQuery parses an optional non-negative integer query parameter,
// falling back to def when absent. Returns false after writing an error
// response when the value is malformed or negative.
func ParseIntQuery(w http.ResponseWriter, r *http.Request, param string, def int, logger *zap.Logger) (int, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return def, true
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_"+param, "Invalid "+param+" value"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return n, true
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
