package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/models"
	"github.com/craftline/aps-engine/pkg/planning"
	"github.com/craftline/aps-engine/pkg/repositories"
)

// SnapshotLoader assembles the immutable planning.Snapshot a scheduling or
// simulation run works on.
type SnapshotLoader interface {
	// Load builds a snapshot of the current plant state. When orderIDs is
	// non-empty the backlog is restricted to those orders; otherwise every
	// schedulable order is included.
	Load(ctx context.Context, orderIDs []uuid.UUID) (*planning.Snapshot, error)
}

type snapshotLoader struct {
	products     repositories.ProductRepository
	lines        repositories.ProductionLineRepository
	stations     repositories.ProcessStationRepository
	routes       repositories.ProcessRouteRepository
	capabilities repositories.LineCapabilityRepository
	orders       repositories.OrderRepository
	schedule     repositories.ScheduleRepository
	logger       *zap.Logger
}

// NewSnapshotLoader creates a new SnapshotLoader.
func NewSnapshotLoader(
	products repositories.ProductRepository,
	lines repositories.ProductionLineRepository,
	stations repositories.ProcessStationRepository,
	routes repositories.ProcessRouteRepository,
	capabilities repositories.LineCapabilityRepository,
	orders repositories.OrderRepository,
	schedule repositories.ScheduleRepository,
	logger *zap.Logger,
) SnapshotLoader {
	return &snapshotLoader{
		products:     products,
		lines:        lines,
		stations:     stations,
		routes:       routes,
		capabilities: capabilities,
		orders:       orders,
		schedule:     schedule,
		logger:       logger.Named("snapshot-loader"),
	}
}

var _ SnapshotLoader = (*snapshotLoader)(nil)

func (l *snapshotLoader) Load(ctx context.Context, orderIDs []uuid.UUID) (*planning.Snapshot, error) {
	products, err := l.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	lines, err := l.lines.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load production lines: %w", err)
	}

	stations, err := l.stations.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}

	routes, err := l.routes.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active routes: %w", err)
	}

	capabilities, err := l.capabilities.List(ctx, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("load line capabilities: %w", err)
	}

	var orders []*models.Order
	if len(orderIDs) > 0 {
		orders, err = l.orders.ListByIDs(ctx, orderIDs)
	} else {
		orders, err = l.orders.ListSchedulable(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	jobs, err := l.schedule.ListActivePlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active plan: %w", err)
	}

	snap := &planning.Snapshot{
		Products:     deref(products),
		Lines:        deref(lines),
		Stations:     make(map[uuid.UUID][]models.ProcessStation),
		Routes:       make(map[uuid.UUID]*models.ProcessRoute, len(routes)),
		Capabilities: make(map[uuid.UUID][]models.LineCapability),
		Orders:       deref(orders),
		Jobs:         deref(jobs),
	}
	// ListAll returns stations ordered by line and station order, so the
	// per-line slices stay in station order.
	for _, st := range stations {
		snap.Stations[st.ProductionLineID] = append(snap.Stations[st.ProductionLineID], *st)
	}
	for _, r := range routes {
		snap.Routes[r.ProductID] = r
	}
	for _, c := range capabilities {
		snap.Capabilities[c.ProductionLineID] = append(snap.Capabilities[c.ProductionLineID], *c)
	}

	l.logger.Debug("Loaded planning snapshot",
		zap.Int("products", len(snap.Products)),
		zap.Int("lines", len(snap.Lines)),
		zap.Int("orders", len(snap.Orders)),
		zap.Int("active_jobs", len(snap.Jobs)))

	return snap, nil
}

// deref flattens a repository result into the value slice the snapshot holds.
func deref[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out
}
