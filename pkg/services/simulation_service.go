package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/planning"
)

// SimulationService runs what-if analyses against the current schedule.
// Nothing is persisted; callers decide what to do with the scenarios.
type SimulationService interface {
	SimulateRushOrder(ctx context.Context, input planning.RushOrderInput) (*planning.RushSimulation, error)
	EstimateDelivery(ctx context.Context, query planning.DeliveryQuery) (*planning.DeliveryEstimate, error)
}

type simulationService struct {
	loader SnapshotLoader
	params planning.Params
	logger *zap.Logger
}

// NewSimulationService creates a new SimulationService.
func NewSimulationService(loader SnapshotLoader, params planning.Params, logger *zap.Logger) SimulationService {
	return &simulationService{
		loader: loader,
		params: params,
		logger: logger.Named("simulation-service"),
	}
}

var _ SimulationService = (*simulationService)(nil)

func (s *simulationService) SimulateRushOrder(ctx context.Context, input planning.RushOrderInput) (*planning.RushSimulation, error) {
	snap, err := s.loader.Load(ctx, nil)
	if err != nil {
		s.logger.Error("Failed to load planning snapshot", zap.Error(err))
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	sim, err := planning.NewSimulator(snap, s.params).SimulateRushOrder(input)
	if err != nil {
		return nil, fmt.Errorf("simulate rush order: %w", err)
	}

	s.logger.Info("Simulated rush order",
		zap.String("product_id", input.ProductID.String()),
		zap.Int("quantity", input.Quantity),
		zap.Int("scenarios", sim.TotalScenarios),
		zap.String("recommended", sim.RecommendedScenario))

	return sim, nil
}

func (s *simulationService) EstimateDelivery(ctx context.Context, query planning.DeliveryQuery) (*planning.DeliveryEstimate, error) {
	snap, err := s.loader.Load(ctx, nil)
	if err != nil {
		s.logger.Error("Failed to load planning snapshot", zap.Error(err))
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	estimate, err := planning.NewSimulator(snap, s.params).EstimateDelivery(query)
	if err != nil {
		return nil, fmt.Errorf("estimate delivery: %w", err)
	}

	s.logger.Info("Estimated delivery",
		zap.String("product_id", query.ProductID.String()),
		zap.Int("quantity", query.Quantity),
		zap.Time("estimated_completion", estimate.EstimatedCompletion),
		zap.Float64("confidence", estimate.Confidence))

	return estimate, nil
}
