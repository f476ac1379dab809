package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/apperrors"
	"github.com/craftline/aps-engine/pkg/models"
	"github.com/craftline/aps-engine/pkg/planning"
	"github.com/craftline/aps-engine/pkg/repositories"
	"github.com/craftline/aps-engine/pkg/services"
)

// ============================================================================
// Repository mocks
// ============================================================================

// mockProductRepo implements repositories.ProductRepository for handler tests.
type mockProductRepo struct {
	products  []*models.Product
	createErr error
	listErr   error
}

func (m *mockProductRepo) Create(_ context.Context, product *models.Product) error {
	if m.createErr != nil {
		return m.createErr
	}
	product.ID = uuid.New()
	m.products = append(m.products, product)
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockProductRepo) GetBySKU(_ context.Context, sku string) (*models.Product, error) {
	for _, p := range m.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockProductRepo) List(_ context.Context) ([]*models.Product, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.products, nil
}

// mockLineRepo implements repositories.ProductionLineRepository for handler tests.
type mockLineRepo struct {
	lines []*models.ProductionLine
}

func (m *mockLineRepo) Create(_ context.Context, line *models.ProductionLine) error {
	line.ID = uuid.New()
	m.lines = append(m.lines, line)
	return nil
}

func (m *mockLineRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ProductionLine, error) {
	for _, l := range m.lines {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockLineRepo) List(_ context.Context) ([]*models.ProductionLine, error) {
	return m.lines, nil
}

// mockStationRepo implements repositories.ProcessStationRepository for handler tests.
type mockStationRepo struct {
	stations []*models.ProcessStation
}

func (m *mockStationRepo) Create(_ context.Context, station *models.ProcessStation) error {
	station.ID = uuid.New()
	m.stations = append(m.stations, station)
	return nil
}

func (m *mockStationRepo) ListByLine(_ context.Context, lineID uuid.UUID) ([]*models.ProcessStation, error) {
	var out []*models.ProcessStation
	for _, s := range m.stations {
		if s.ProductionLineID == lineID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStationRepo) ListAll(_ context.Context) ([]*models.ProcessStation, error) {
	return m.stations, nil
}

// mockRouteRepo implements repositories.ProcessRouteRepository for handler tests.
type mockRouteRepo struct {
	routes []*models.ProcessRoute
}

func (m *mockRouteRepo) CreateVersion(_ context.Context, route *models.ProcessRoute) error {
	version := 0
	for _, r := range m.routes {
		if r.ProductID == route.ProductID {
			r.IsActive = false
			if r.Version > version {
				version = r.Version
			}
		}
	}
	route.ID = uuid.New()
	route.Version = version + 1
	route.IsActive = true
	m.routes = append(m.routes, route)
	return nil
}

func (m *mockRouteRepo) GetActiveByProduct(_ context.Context, productID uuid.UUID) (*models.ProcessRoute, error) {
	for _, r := range m.routes {
		if r.ProductID == productID && r.IsActive {
			return r, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockRouteRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]*models.ProcessRoute, error) {
	var out []*models.ProcessRoute
	for _, r := range m.routes {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRouteRepo) ListActive(_ context.Context) ([]*models.ProcessRoute, error) {
	var out []*models.ProcessRoute
	for _, r := range m.routes {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

// mockOrderRepo implements repositories.OrderRepository for handler tests.
type mockOrderRepo struct {
	orders []*models.Order
}

func (m *mockOrderRepo) Create(_ context.Context, order *models.Order) error {
	order.ID = uuid.New()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
		order.Items[i].ItemNo = i + 1
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockOrderRepo) List(_ context.Context) ([]*models.Order, error) {
	return m.orders, nil
}

func (m *mockOrderRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range m.orders {
		for _, id := range ids {
			if o.ID == id {
				out = append(out, o)
			}
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListSchedulable(_ context.Context) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range m.orders {
		if o.IsSchedulable() {
			out = append(out, o)
		}
	}
	return out, nil
}

// ============================================================================
// Service mocks
// ============================================================================

// mockScheduleService implements services.ScheduleService for handler tests.
type mockScheduleService struct {
	result      *planning.ScheduleResult
	jobs        []*models.ScheduledJob
	generateErr error
	currentErr  error
	lastReq     services.GenerateRequest
	lastFilter  repositories.ScheduleFilter
}

func (m *mockScheduleService) Generate(_ context.Context, req services.GenerateRequest) (*planning.ScheduleResult, error) {
	m.lastReq = req
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return m.result, nil
}

func (m *mockScheduleService) Current(_ context.Context, filter repositories.ScheduleFilter) ([]*models.ScheduledJob, error) {
	m.lastFilter = filter
	if m.currentErr != nil {
		return nil, m.currentErr
	}
	return m.jobs, nil
}

// mockSimulationService implements services.SimulationService for handler tests.
type mockSimulationService struct {
	sim         *planning.RushSimulation
	estimate    *planning.DeliveryEstimate
	rushErr     error
	deliveryErr error
	lastInput   planning.RushOrderInput
	lastQuery   planning.DeliveryQuery
}

func (m *mockSimulationService) SimulateRushOrder(_ context.Context, input planning.RushOrderInput) (*planning.RushSimulation, error) {
	m.lastInput = input
	if m.rushErr != nil {
		return nil, m.rushErr
	}
	return m.sim, nil
}

func (m *mockSimulationService) EstimateDelivery(_ context.Context, query planning.DeliveryQuery) (*planning.DeliveryEstimate, error) {
	m.lastQuery = query
	if m.deliveryErr != nil {
		return nil, m.deliveryErr
	}
	return m.estimate, nil
}

// mockCapabilityService implements services.CapabilityService for handler tests.
type mockCapabilityService struct {
	entries   []*models.LineCapability
	matches   *services.ProductLineMatches
	createErr error
	deleteErr error
	matchErr  error
}

func (m *mockCapabilityService) Create(_ context.Context, capability *models.LineCapability) error {
	if m.createErr != nil {
		return m.createErr
	}
	capability.ID = uuid.New()
	m.entries = append(m.entries, capability)
	return nil
}

func (m *mockCapabilityService) Get(_ context.Context, id uuid.UUID) (*models.LineCapability, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockCapabilityService) List(_ context.Context, lineID uuid.UUID) ([]*models.LineCapability, error) {
	if lineID == uuid.Nil {
		return m.entries, nil
	}
	var out []*models.LineCapability
	for _, e := range m.entries {
		if e.ProductionLineID == lineID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockCapabilityService) Delete(_ context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockCapabilityService) MatchProductToLines(_ context.Context, productID uuid.UUID, equipmentTypes []string) (*services.ProductLineMatches, error) {
	if m.matchErr != nil {
		return nil, m.matchErr
	}
	return m.matches, nil
}
