package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/apperrors"
)

// JobStatus represents the lifecycle state of a scheduled job.
//
// The scheduler emits jobs as "scheduled"; a later run that re-plans the same
// order items marks the old jobs "superseded". The remaining transitions are
// reported from the shop floor.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
	JobStatusSuperseded JobStatus = "superseded"
)

// ValidJobStatuses contains all valid job status values.
var ValidJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusScheduled,
	JobStatusInProgress,
	JobStatusCompleted,
	JobStatusCancelled,
	JobStatusSuperseded,
}

// IsValidJobStatus checks if the given status is valid.
func IsValidJobStatus(s JobStatus) bool {
	return slices.Contains(ValidJobStatuses, s)
}

// ActivePlanStatuses are the statuses that make up the current schedule view.
var ActivePlanStatuses = []JobStatus{JobStatusScheduled, JobStatusInProgress}

// ScheduledJob is one time-boxed production run of an order item on a line.
type ScheduledJob struct {
	ID               uuid.UUID `json:"id"`
	OrderItemID      uuid.UUID `json:"order_item_id"`
	ProductionLineID uuid.UUID `json:"production_line_id"`
	ProductID        uuid.UUID `json:"product_id"`
	PlannedStart     time.Time `json:"planned_start"`
	PlannedEnd       time.Time `json:"planned_end"`
	Quantity         int       `json:"quantity"`
	ChangeoverTime   float64   `json:"changeover_time"` // minutes
	Status           JobStatus `json:"status"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DurationHours is the planned wall-clock production duration.
func (j *ScheduledJob) DurationHours() float64 {
	return j.PlannedEnd.Sub(j.PlannedStart).Hours()
}

// IsActivePlan reports whether the job is part of the current schedule.
func (j *ScheduledJob) IsActivePlan() bool {
	return slices.Contains(ActivePlanStatuses, j.Status)
}

// Validate rejects malformed jobs.
func (j *ScheduledJob) Validate() error {
	if j.OrderItemID == uuid.Nil {
		return fmt.Errorf("%w: job order_item_id is required", apperrors.ErrValidation)
	}
	if j.ProductionLineID == uuid.Nil {
		return fmt.Errorf("%w: job production_line_id is required", apperrors.ErrValidation)
	}
	if j.ProductID == uuid.Nil {
		return fmt.Errorf("%w: job product_id is required", apperrors.ErrValidation)
	}
	if !j.PlannedEnd.After(j.PlannedStart) {
		return fmt.Errorf("%w: planned_end must be after planned_start", apperrors.ErrValidation)
	}
	if j.Quantity <= 0 {
		return fmt.Errorf("%w: job quantity must be positive, got %d", apperrors.ErrValidation, j.Quantity)
	}
	if j.ChangeoverTime < 0 {
		return fmt.Errorf("%w: changeover_time cannot be negative, got %g", apperrors.ErrValidation, j.ChangeoverTime)
	}
	if !IsValidJobStatus(j.Status) {
		return fmt.Errorf("%w: invalid job status %q", apperrors.ErrValidation, j.Status)
	}
	return nil
}
