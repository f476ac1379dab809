package models

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/apperrors"
)

// RouteSource records where a process route came from.
type RouteSource string

const (
	RouteSourceManual   RouteSource = "manual"   // entered by a process engineer
	RouteSourceImported RouteSource = "imported" // parsed from an uploaded process document
	RouteSourceLearned  RouteSource = "learned"  // derived from MES execution history
)

// ValidRouteSources contains all valid route source values.
var ValidRouteSources = []RouteSource{
	RouteSourceManual,
	RouteSourceImported,
	RouteSourceLearned,
}

// IsValidRouteSource checks if the given source is valid.
func IsValidRouteSource(s RouteSource) bool {
	return slices.Contains(ValidRouteSources, s)
}

// RouteStep is one stage of a process route. EquipmentType names the kind of
// station that performs it; RequiredParams are the process parameters a
// station's capabilities must satisfy.
type RouteStep struct {
	StepOrder          int            `json:"step_order"`
	EquipmentType      string         `json:"equipment_type"`
	RequiredParams     map[string]any `json:"required_params,omitempty"`
	EstimatedCycleTime float64        `json:"estimated_cycle_time"` // seconds per unit
	QualityCheckpoints []string       `json:"quality_checkpoints,omitempty"`
}

// ProcessRoute is a versioned, ordered sequence of steps a product passes
// through. At most one version per product is active at a time.
type ProcessRoute struct {
	ID         uuid.UUID   `json:"id"`
	ProductID  uuid.UUID   `json:"product_id"`
	Version    int         `json:"version"`
	IsActive   bool        `json:"is_active"`
	Steps      []RouteStep `json:"steps"`
	Source     RouteSource `json:"source"`
	SourceFile string      `json:"source_file,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// StepsInOrder returns a copy of the route's steps sorted by StepOrder.
func (r *ProcessRoute) StepsInOrder() []RouteStep {
	sorted := slices.Clone(r.Steps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StepOrder < sorted[j].StepOrder
	})
	return sorted
}

// Validate rejects malformed routes. A route with no steps is invalid: callers
// must fall back to legacy product-level estimates instead of constructing one.
func (r *ProcessRoute) Validate() error {
	if r.ProductID == uuid.Nil {
		return fmt.Errorf("%w: route product_id is required", apperrors.ErrValidation)
	}
	if r.Version < 1 {
		return fmt.Errorf("%w: route version must be >= 1, got %d", apperrors.ErrValidation, r.Version)
	}
	if len(r.Steps) == 0 {
		return fmt.Errorf("%w: route must have at least one step", apperrors.ErrValidation)
	}
	if !IsValidRouteSource(r.Source) {
		return fmt.Errorf("%w: invalid route source %q", apperrors.ErrValidation, r.Source)
	}
	orders := make([]int, len(r.Steps))
	for i, step := range r.Steps {
		if step.EquipmentType == "" {
			return fmt.Errorf("%w: step %d has no equipment_type", apperrors.ErrValidation, step.StepOrder)
		}
		if step.EstimatedCycleTime <= 0 {
			return fmt.Errorf("%w: step %d estimated_cycle_time must be positive, got %g",
				apperrors.ErrValidation, step.StepOrder, step.EstimatedCycleTime)
		}
		orders[i] = step.StepOrder
	}
	sort.Ints(orders)
	for i, o := range orders {
		if o != i+1 {
			return fmt.Errorf("%w: step order must be contiguous from 1, got %v", apperrors.ErrValidation, orders)
		}
	}
	return nil
}
