package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/models"
)

func TestProductionLineHandler_Create_Defaults(t *testing.T) {
	lines := &mockLineRepo{}
	handler := NewProductionLineHandler(lines, &mockStationRepo{}, zap.NewNop())

	body, err := json.Marshal(CreateProductionLineRequest{
		Name:            "SMT-1",
		CapacityPerHour: 120,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/production-lines", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var line models.ProductionLine
	require.NoError(t, json.Unmarshal(dataBytes, &line))
	assert.Equal(t, models.DefaultEfficiencyFactor, line.EfficiencyFactor)
	assert.Equal(t, models.LineStatusActive, line.Status)
}

func TestProductionLineHandler_Create_BadStatus(t *testing.T) {
	handler := NewProductionLineHandler(&mockLineRepo{}, &mockStationRepo{}, zap.NewNop())

	body, err := json.Marshal(CreateProductionLineRequest{
		Name:            "SMT-1",
		CapacityPerHour: 120,
		Status:          "retired",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/production-lines", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "validation_error", errResp["error"])
}

func TestProductionLineHandler_ListStations(t *testing.T) {
	lines := &mockLineRepo{}
	stations := &mockStationRepo{}
	handler := NewProductionLineHandler(lines, stations, zap.NewNop())

	line := &models.ProductionLine{Name: "SMT-1", CapacityPerHour: 100, EfficiencyFactor: 1.0, Status: models.LineStatusActive}
	require.NoError(t, lines.Create(context.Background(), line))
	require.NoError(t, stations.Create(context.Background(), &models.ProcessStation{
		ProductionLineID: line.ID, Name: "solder_paste", StationOrder: 1,
		EquipmentType: "solder_paste", StandardCycleTime: 10, Status: models.StationStatusActive,
	}))
	require.NoError(t, stations.Create(context.Background(), &models.ProcessStation{
		ProductionLineID: uuid.New(), Name: "other-line", StationOrder: 1,
		EquipmentType: "reflow_oven", StandardCycleTime: 40, Status: models.StationStatusActive,
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/production-lines/"+line.ID.String()+"/stations", nil)
	req.SetPathValue("id", line.ID.String())
	rec := httptest.NewRecorder()

	handler.ListStations(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var listResponse StationListResponse
	require.NoError(t, json.Unmarshal(dataBytes, &listResponse))
	assert.Equal(t, 1, listResponse.Total)
	require.Len(t, listResponse.Stations, 1)
	assert.Equal(t, "solder_paste", listResponse.Stations[0].Name)
}

func TestProductionLineHandler_CreateStation(t *testing.T) {
	lines := &mockLineRepo{}
	stations := &mockStationRepo{}
	handler := NewProductionLineHandler(lines, stations, zap.NewNop())

	line := &models.ProductionLine{Name: "SMT-1", CapacityPerHour: 100, EfficiencyFactor: 1.0, Status: models.LineStatusActive}
	require.NoError(t, lines.Create(context.Background(), line))

	body, err := json.Marshal(CreateStationRequest{
		Name:              "pick_place",
		StationOrder:      1,
		EquipmentType:     "pick_place",
		StandardCycleTime: 12,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/production-lines/"+line.ID.String()+"/stations", bytes.NewReader(body))
	req.SetPathValue("id", line.ID.String())
	rec := httptest.NewRecorder()

	handler.CreateStation(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, stations.stations, 1)
	assert.Equal(t, line.ID, stations.stations[0].ProductionLineID)
	assert.Equal(t, models.StationStatusActive, stations.stations[0].Status)
}

func TestProductionLineHandler_CreateStation_UnknownLine(t *testing.T) {
	handler := NewProductionLineHandler(&mockLineRepo{}, &mockStationRepo{}, zap.NewNop())

	missing := uuid.New()
	body, err := json.Marshal(CreateStationRequest{
		Name:              "pick_place",
		StationOrder:      1,
		EquipmentType:     "pick_place",
		StandardCycleTime: 12,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/production-lines/"+missing.String()+"/stations", bytes.NewReader(body))
	req.SetPathValue("id", missing.String())
	rec := httptest.NewRecorder()

	handler.CreateStation(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
