package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/apperrors"
	"github.com/craftline/aps-engine/pkg/models"
)

func TestProductHandler_Create(t *testing.T) {
	repo := &mockProductRepo{}
	handler := NewProductHandler(repo, zap.NewNop())

	body, err := json.Marshal(CreateProductRequest{
		SKU:               "PCB-A100",
		Name:              "Controller Board",
		StandardCycleTime: 0.5,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var product models.Product
	require.NoError(t, json.Unmarshal(dataBytes, &product))
	assert.NotEqual(t, uuid.Nil, product.ID)
	assert.Equal(t, "PCB-A100", product.SKU)
	assert.Equal(t, models.DefaultSetupTimeMinutes, product.SetupTime)
	assert.Equal(t, models.DefaultYieldRate, product.YieldRate)
}

func TestProductHandler_Create_InvalidBody(t *testing.T) {
	handler := NewProductHandler(&mockProductRepo{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "invalid_request", errResp["error"])
}

func TestProductHandler_Create_ValidationError(t *testing.T) {
	repo := &mockProductRepo{}
	handler := NewProductHandler(repo, zap.NewNop())

	body, err := json.Marshal(CreateProductRequest{
		SKU:  "PCB-A100",
		Name: "Controller Board",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, repo.products)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "validation_error", errResp["error"])
	assert.Contains(t, errResp["message"], "standard_cycle_time")
}

func TestProductHandler_Create_DuplicateSKU(t *testing.T) {
	repo := &mockProductRepo{createErr: apperrors.ErrConflict}
	handler := NewProductHandler(repo, zap.NewNop())

	body, err := json.Marshal(CreateProductRequest{
		SKU:               "PCB-A100",
		Name:              "Controller Board",
		StandardCycleTime: 0.5,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "conflict", errResp["error"])
}

func TestProductHandler_List(t *testing.T) {
	repo := &mockProductRepo{products: []*models.Product{
		{ID: uuid.New(), SKU: "PCB-A100", Name: "Controller Board", StandardCycleTime: 0.5, YieldRate: 0.95},
		{ID: uuid.New(), SKU: "PSU-300", Name: "Power Supply", StandardCycleTime: 1.2, YieldRate: 0.9},
	}}
	handler := NewProductHandler(repo, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var listResponse ProductListResponse
	require.NoError(t, json.Unmarshal(dataBytes, &listResponse))
	assert.Equal(t, 2, listResponse.Total)
	require.Len(t, listResponse.Products, 2)
}

func TestProductHandler_Get_NotFound(t *testing.T) {
	handler := NewProductHandler(&mockProductRepo{}, zap.NewNop())

	missing := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+missing.String(), nil)
	req.SetPathValue("id", missing.String())
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "not_found", errResp["error"])
}

func TestProductHandler_Get_InvalidID(t *testing.T) {
	handler := NewProductHandler(&mockProductRepo{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "invalid_product_id", errResp["error"])
}
