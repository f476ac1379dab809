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

// GenerateRequest describes one schedule generation call.
type GenerateRequest struct {
	// OrderIDs restricts the run to specific orders; empty means every
	// schedulable order.
	OrderIDs []uuid.UUID

	// HorizonDays defaults to the configured horizon when zero.
	HorizonDays int

	Strategy planning.Strategy

	// ProductionLineID restricts the run to one line when set.
	ProductionLineID *uuid.UUID
}

// ScheduleService orchestrates scheduling runs: snapshot load, engine run,
// atomic plan persistence, cache invalidation.
type ScheduleService interface {
	// Generate runs the scheduling engine over the current plant state and
	// commits the resulting plan.
	Generate(ctx context.Context, req GenerateRequest) (*planning.ScheduleResult, error)

	// Current returns the persisted schedule view. The unfiltered default
	// view is served through the cache.
	Current(ctx context.Context, filter repositories.ScheduleFilter) ([]*models.ScheduledJob, error)
}

type scheduleService struct {
	loader             SnapshotLoader
	schedule           repositories.ScheduleRepository
	cache              ScheduleCache
	params             planning.Params
	defaultHorizonDays int
	logger             *zap.Logger
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(
	loader SnapshotLoader,
	schedule repositories.ScheduleRepository,
	cache ScheduleCache,
	params planning.Params,
	defaultHorizonDays int,
	logger *zap.Logger,
) ScheduleService {
	return &scheduleService{
		loader:             loader,
		schedule:           schedule,
		cache:              cache,
		params:             params,
		defaultHorizonDays: defaultHorizonDays,
		logger:             logger.Named("schedule-service"),
	}
}

var _ ScheduleService = (*scheduleService)(nil)

func (s *scheduleService) Generate(ctx context.Context, req GenerateRequest) (*planning.ScheduleResult, error) {
	if req.HorizonDays == 0 {
		req.HorizonDays = s.defaultHorizonDays
	}

	snap, err := s.loader.Load(ctx, req.OrderIDs)
	if err != nil {
		s.logger.Error("Failed to load planning snapshot", zap.Error(err))
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	engine := planning.NewEngine(snap, s.params)
	result, err := engine.Run(planning.ScheduleConfig{
		Strategy:    req.Strategy,
		HorizonDays: req.HorizonDays,
		LineID:      req.ProductionLineID,
	})
	if err != nil {
		return nil, fmt.Errorf("run scheduling engine: %w", err)
	}

	// Persisting through pointers into the result hands the database-assigned
	// IDs back to the caller.
	jobs := make([]*models.ScheduledJob, len(result.Jobs))
	for i := range result.Jobs {
		jobs[i] = &result.Jobs[i]
	}
	if err := s.schedule.ReplacePlan(ctx, jobs); err != nil {
		s.logger.Error("Failed to persist schedule", zap.Error(err))
		return nil, fmt.Errorf("persist schedule: %w", err)
	}

	s.cache.Invalidate(ctx)

	s.logger.Info("Generated schedule",
		zap.String("strategy", string(result.Strategy)),
		zap.Int("horizon_days", result.HorizonDays),
		zap.Int("jobs", result.TotalJobs),
		zap.Int("warnings", len(result.Warnings)),
		zap.Float64("confidence", result.ConfidenceScore))

	return result, nil
}

func (s *scheduleService) Current(ctx context.Context, filter repositories.ScheduleFilter) ([]*models.ScheduledJob, error) {
	cacheable := filter == (repositories.ScheduleFilter{})
	if cacheable {
		if jobs, ok := s.cache.Get(ctx); ok {
			return jobs, nil
		}
	}

	jobs, err := s.schedule.ListCurrent(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list current schedule", zap.Error(err))
		return nil, fmt.Errorf("list current schedule: %w", err)
	}

	if cacheable {
		s.cache.Set(ctx, jobs)
	}

	return jobs, nil
}
