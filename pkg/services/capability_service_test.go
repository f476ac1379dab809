package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/apperrors"
	"github.com/craftline/aps-engine/pkg/models"
)

type capabilityFixture struct {
	capabilities *mockCapabilityRepo
	lines        *mockLineRepo
	routes       *mockRouteRepo
	products     *mockProductRepo
	svc          CapabilityService
}

func newCapabilityFixture() *capabilityFixture {
	f := &capabilityFixture{
		capabilities: &mockCapabilityRepo{},
		lines:        &mockLineRepo{},
		routes:       &mockRouteRepo{},
		products:     &mockProductRepo{},
	}
	f.svc = NewCapabilityService(f.capabilities, f.lines, f.routes, f.products, zap.NewNop())
	return f
}

func (f *capabilityFixture) addLine(t *testing.T, name string, status models.LineStatus, types ...string) *models.ProductionLine {
	t.Helper()
	line := &models.ProductionLine{Name: name, CapacityPerHour: 100, EfficiencyFactor: 1.0, Status: status}
	require.NoError(t, f.lines.Create(context.Background(), line))
	for _, et := range types {
		require.NoError(t, f.capabilities.Create(context.Background(), &models.LineCapability{
			ProductionLineID: line.ID,
			EquipmentType:    et,
			CapabilityParams: map[string]any{},
		}))
	}
	return line
}

func (f *capabilityFixture) addProduct(t *testing.T, sku string) *models.Product {
	t.Helper()
	product := &models.Product{SKU: sku, Name: sku, StandardCycleTime: 0.5, YieldRate: 0.95}
	require.NoError(t, f.products.Create(context.Background(), product))
	return product
}

// ============================================================================
// CRUD Tests
// ============================================================================

func TestCapabilityService_Create(t *testing.T) {
	f := newCapabilityFixture()
	line := f.addLine(t, "SMT-1", models.LineStatusActive)

	capability := &models.LineCapability{
		ProductionLineID: line.ID,
		EquipmentType:    "solder_paste",
		CapabilityParams: map[string]any{"min_pitch_mm": 0.3},
	}
	require.NoError(t, f.svc.Create(context.Background(), capability))
	assert.NotEqual(t, uuid.Nil, capability.ID)
}

func TestCapabilityService_Create_UnknownLine(t *testing.T) {
	f := newCapabilityFixture()

	err := f.svc.Create(context.Background(), &models.LineCapability{
		ProductionLineID: uuid.New(),
		EquipmentType:    "solder_paste",
		CapabilityParams: map[string]any{},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Empty(t, f.capabilities.entries)
}

func TestCapabilityService_Create_MissingEquipmentType(t *testing.T) {
	f := newCapabilityFixture()
	line := f.addLine(t, "SMT-1", models.LineStatusActive)

	err := f.svc.Create(context.Background(), &models.LineCapability{
		ProductionLineID: line.ID,
		CapabilityParams: map[string]any{},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestCapabilityService_Delete_Missing(t *testing.T) {
	f := newCapabilityFixture()

	err := f.svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// ============================================================================
// Matching Tests
// ============================================================================

func TestCapabilityService_Match_ExplicitTypes(t *testing.T) {
	f := newCapabilityFixture()
	product := f.addProduct(t, "PCB-A100")
	full := f.addLine(t, "SMT-1", models.LineStatusActive, "smt", "reflow", "aoi")
	f.addLine(t, "SMT-2", models.LineStatusActive, "smt")
	f.addLine(t, "SMT-3", models.LineStatusMaintenance, "smt", "reflow")

	matches, err := f.svc.MatchProductToLines(context.Background(), product.ID, []string{"reflow", "smt"})
	require.NoError(t, err)

	assert.Equal(t, product.ID, matches.ProductID)
	assert.Equal(t, []string{"reflow", "smt"}, matches.EquipmentTypes)
	require.Len(t, matches.Lines, 1)
	assert.Equal(t, full.ID, matches.Lines[0].ProductionLineID)
	assert.Equal(t, "SMT-1", matches.Lines[0].ProductionLineName)
	assert.Equal(t, []string{"reflow", "smt"}, matches.Lines[0].MatchedTypes)
	assert.Equal(t, []string{"aoi", "reflow", "smt"}, matches.Lines[0].AllTypes)
}

func TestCapabilityService_Match_TypesFromRoute(t *testing.T) {
	f := newCapabilityFixture()
	product := f.addProduct(t, "PCB-A100")
	line := f.addLine(t, "SMT-1", models.LineStatusActive, "smt", "aoi")

	require.NoError(t, f.routes.CreateVersion(context.Background(), &models.ProcessRoute{
		ProductID: product.ID,
		Steps: []models.RouteStep{
			{StepOrder: 1, EquipmentType: "smt", EstimatedCycleTime: 12},
			{StepOrder: 2, EquipmentType: "aoi", EstimatedCycleTime: 5},
		},
		Source: models.RouteSourceManual,
	}))

	matches, err := f.svc.MatchProductToLines(context.Background(), product.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"aoi", "smt"}, matches.EquipmentTypes)
	require.Len(t, matches.Lines, 1)
	assert.Equal(t, line.ID, matches.Lines[0].ProductionLineID)
}

func TestCapabilityService_Match_NoRouteNoTypes(t *testing.T) {
	f := newCapabilityFixture()
	product := f.addProduct(t, "PCB-A100")

	_, err := f.svc.MatchProductToLines(context.Background(), product.ID, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestCapabilityService_Match_UnknownProduct(t *testing.T) {
	f := newCapabilityFixture()

	_, err := f.svc.MatchProductToLines(context.Background(), uuid.New(), []string{"smt"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
