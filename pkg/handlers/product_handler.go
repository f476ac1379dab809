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

// ProductListResponse for GET /api/v1/products
type ProductListResponse struct {
	Products []*models.Product `json:"products"`
	Total    int               `json:"total"`
}

// CreateProductRequest for POST /api/v1/products
type CreateProductRequest struct {
	SKU               string   `json:"sku"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	StandardCycleTime float64  `json:"standard_cycle_time"`
	SetupTime         *float64 `json:"setup_time,omitempty"`
	YieldRate         float64  `json:"yield_rate,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// ProductHandler handles product HTTP requests.
type ProductHandler struct {
	products repositories.ProductRepository
	logger   *zap.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products repositories.ProductRepository, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// RegisterRoutes registers the product handler's routes on the given mux.
func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/products", h.List)
	mux.HandleFunc("POST /api/v1/products", h.Create)
	mux.HandleFunc("GET /api/v1/products/{id}", h.Get)
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		RespondError(w, h.logger, err, "list_products_failed")
		return
	}

	response := ProductListResponse{
		Products: products,
		Total:    len(products),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	product := &models.Product{
		SKU:               req.SKU,
		Name:              req.Name,
		Description:       req.Description,
		StandardCycleTime: req.StandardCycleTime,
		SetupTime:         models.DefaultSetupTimeMinutes,
		YieldRate:         req.YieldRate,
	}
	if req.SetupTime != nil {
		product.SetupTime = *req.SetupTime
	}
	if req.YieldRate == 0 {
		product.YieldRate = models.DefaultYieldRate
	}

	if err := product.Validate(); err != nil {
		RespondError(w, h.logger, err, "create_product_failed")
		return
	}

	if err := h.products.Create(r.Context(), product); err != nil {
		h.logger.Error("Failed to create product",
			zap.String("sku", req.SKU),
			zap.Error(err))
		RespondError(w, h.logger, err, "create_product_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: product}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, ok := ParseProductID(w, r, h.logger)
	if !ok {
		return
	}

	product, err := h.products.GetByID(r.Context(), productID)
	if err != nil {
		h.logger.Error("Failed to get product",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		RespondError(w, h.logger, err, "get_product_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: product}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
