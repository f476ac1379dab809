//go:build integration

package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/apperrors"
	"github.com/craftline/aps-engine/pkg/models"
	"github.com/craftline/aps-engine/pkg/testhelpers"
)

// routeTestContext holds test dependencies for process route repository tests.
type routeTestContext struct {
	t        *testing.T
	schedDB  *testhelpers.SchedulerDB
	repo     ProcessRouteRepository
	products ProductRepository
}

// setupRouteTest initializes the test context with the shared testcontainer.
func setupRouteTest(t *testing.T) *routeTestContext {
	schedDB := testhelpers.GetSchedulerDB(t)
	return &routeTestContext{
		t:        t,
		schedDB:  schedDB,
		repo:     NewProcessRouteRepository(schedDB.DB),
		products: NewProductRepository(schedDB.DB),
	}
}

// cleanup removes products created by this test file; routes cascade.
func (tc *routeTestContext) cleanup() {
	tc.t.Helper()
	ctx := context.Background()
	_, _ = tc.schedDB.DB.Exec(ctx, `DELETE FROM aps_products WHERE sku LIKE 'RTP-%'`)
}

// createTestProduct creates a product for hanging routes off.
func (tc *routeTestContext) createTestProduct(ctx context.Context, sku string) *models.Product {
	tc.t.Helper()
	product := &models.Product{
		SKU:               sku,
		Name:              "Routed Product " + sku,
		StandardCycleTime: 0.6,
		YieldRate:         0.95,
	}
	if err := tc.products.Create(ctx, product); err != nil {
		tc.t.Fatalf("failed to create test product: %v", err)
	}
	return product
}

// testSteps builds a minimal two-step route.
func testSteps(cycleTime float64) []models.RouteStep {
	return []models.RouteStep{
		{
			StepOrder:          1,
			EquipmentType:      "solder_paste",
			RequiredParams:     map[string]any{"stencil_thickness_um": 120.0},
			EstimatedCycleTime: cycleTime,
		},
		{
			StepOrder:          2,
			EquipmentType:      "reflow_oven",
			RequiredParams:     map[string]any{"max_temp_c": 250.0},
			EstimatedCycleTime: cycleTime + 4,
			QualityCheckpoints: []string{"profile_check"},
		},
	}
}

// ============================================================================
// CreateVersion Tests
// ============================================================================

func TestProcessRouteRepository_CreateVersion_First(t *testing.T) {
	tc := setupRouteTest(t)
	tc.cleanup()
	ctx := context.Background()

	product := tc.createTestProduct(ctx, "RTP-A100")

	route := &models.ProcessRoute{
		ProductID: product.ID,
		Steps:     testSteps(8),
		Source:    models.RouteSourceManual,
	}

	err := tc.repo.CreateVersion(ctx, route)
	if err != nil {
		t.Fatalf("CreateVersion failed: %v", err)
	}

	if route.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if route.Version != 1 {
		t.Errorf("expected version 1, got %d", route.Version)
	}
	if !route.IsActive {
		t.Error("expected route to be active")
	}

	// Verify by fetching
	retrieved, err := tc.repo.GetActiveByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetActiveByProduct failed: %v", err)
	}
	if len(retrieved.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(retrieved.Steps))
	}
	if retrieved.Steps[1].EquipmentType != "reflow_oven" {
		t.Errorf("expected step 2 equipment 'reflow_oven', got %q", retrieved.Steps[1].EquipmentType)
	}
	if retrieved.Steps[1].RequiredParams["max_temp_c"] != 250.0 {
		t.Errorf("expected max_temp_c 250, got %v", retrieved.Steps[1].RequiredParams)
	}
	if retrieved.Source != models.RouteSourceManual {
		t.Errorf("expected source 'manual', got %q", retrieved.Source)
	}
}

func TestProcessRouteRepository_CreateVersion_DeactivatesPrior(t *testing.T) {
	tc := setupRouteTest(t)
	tc.cleanup()
	ctx := context.Background()

	product := tc.createTestProduct(ctx, "RTP-B200")

	v1 := &models.ProcessRoute{
		ProductID: product.ID,
		Steps:     testSteps(8),
		Source:    models.RouteSourceManual,
	}
	if err := tc.repo.CreateVersion(ctx, v1); err != nil {
		t.Fatalf("CreateVersion v1 failed: %v", err)
	}

	v2 := &models.ProcessRoute{
		ProductID:  product.ID,
		Steps:      testSteps(6),
		Source:     models.RouteSourceImported,
		SourceFile: "routes/b200_rev2.xlsx",
	}
	if err := tc.repo.CreateVersion(ctx, v2); err != nil {
		t.Fatalf("CreateVersion v2 failed: %v", err)
	}

	if v2.Version != 2 {
		t.Errorf("expected version 2, got %d", v2.Version)
	}

	// The active route is now v2
	active, err := tc.repo.GetActiveByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetActiveByProduct failed: %v", err)
	}
	if active.Version != 2 {
		t.Errorf("expected active version 2, got %d", active.Version)
	}
	if active.SourceFile != "routes/b200_rev2.xlsx" {
		t.Errorf("expected source file, got %q", active.SourceFile)
	}

	// Both versions remain listed, newest first
	all, err := tc.repo.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("ListByProduct failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(all))
	}
	if all[0].Version != 2 || all[1].Version != 1 {
		t.Errorf("expected versions [2 1], got [%d %d]", all[0].Version, all[1].Version)
	}
	if all[0].IsActive != true || all[1].IsActive != false {
		t.Errorf("expected only the newest version active, got [%v %v]", all[0].IsActive, all[1].IsActive)
	}
}

// ============================================================================
// Get and List Tests
// ============================================================================

func TestProcessRouteRepository_GetActiveByProduct_NotFound(t *testing.T) {
	tc := setupRouteTest(t)
	tc.cleanup()
	ctx := context.Background()

	product := tc.createTestProduct(ctx, "RTP-NOROUTE")

	_, err := tc.repo.GetActiveByProduct(ctx, product.ID)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProcessRouteRepository_ListActive_OnePerProduct(t *testing.T) {
	tc := setupRouteTest(t)
	tc.cleanup()
	ctx := context.Background()

	productA := tc.createTestProduct(ctx, "RTP-C1")
	productB := tc.createTestProduct(ctx, "RTP-C2")

	for _, p := range []*models.Product{productA, productB} {
		for i := 0; i < 2; i++ {
			route := &models.ProcessRoute{
				ProductID: p.ID,
				Steps:     testSteps(10),
				Source:    models.RouteSourceManual,
			}
			if err := tc.repo.CreateVersion(ctx, route); err != nil {
				t.Fatalf("CreateVersion failed: %v", err)
			}
		}
	}

	routes, err := tc.repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}

	byProduct := make(map[uuid.UUID]int)
	for _, r := range routes {
		if r.ProductID == productA.ID || r.ProductID == productB.ID {
			byProduct[r.ProductID]++
			if r.Version != 2 {
				t.Errorf("expected active version 2 for %s, got %d", r.ProductID, r.Version)
			}
		}
	}
	if byProduct[productA.ID] != 1 || byProduct[productB.ID] != 1 {
		t.Errorf("expected exactly one active route per product, got %v", byProduct)
	}
}
