package models

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/apperrors"
)

// StationStatus represents the operational state of a process station.
type StationStatus string

const (
	StationStatusActive      StationStatus = "active"
	StationStatusMaintenance StationStatus = "maintenance"
	StationStatusInactive    StationStatus = "inactive"
)

// ValidStationStatuses contains all valid station status values.
var ValidStationStatuses = []StationStatus{
	StationStatusActive,
	StationStatusMaintenance,
	StationStatusInactive,
}

// IsValidStationStatus checks if the given status is valid.
func IsValidStationStatus(s StationStatus) bool {
	return slices.Contains(ValidStationStatuses, s)
}

// ProcessStation is one stage of a production line. StationOrder positions it
// within the line (1-based, contiguous per line); EquipmentType links it to
// route steps. ActualCycleTime, when measured, overrides the standard value.
type ProcessStation struct {
	ID                uuid.UUID      `json:"id"`
	ProductionLineID  uuid.UUID      `json:"production_line_id"`
	Name              string         `json:"name"`
	StationOrder      int            `json:"station_order"`
	EquipmentType     string         `json:"equipment_type"`
	StandardCycleTime float64        `json:"standard_cycle_time"` // seconds per unit
	ActualCycleTime   *float64       `json:"actual_cycle_time,omitempty"`
	Capabilities      map[string]any `json:"capabilities,omitempty"`
	Status            StationStatus  `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// CycleTimeSeconds returns the measured cycle time when present, otherwise the
// standard one.
func (s *ProcessStation) CycleTimeSeconds() float64 {
	if s.ActualCycleTime != nil && *s.ActualCycleTime > 0 {
		return *s.ActualCycleTime
	}
	return s.StandardCycleTime
}

// Validate rejects stations that would poison scheduling math.
func (s *ProcessStation) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: station name is required", apperrors.ErrValidation)
	}
	if s.StationOrder < 1 {
		return fmt.Errorf("%w: station_order must be >= 1, got %d", apperrors.ErrValidation, s.StationOrder)
	}
	if s.EquipmentType == "" {
		return fmt.Errorf("%w: station equipment_type is required", apperrors.ErrValidation)
	}
	if s.StandardCycleTime <= 0 {
		return fmt.Errorf("%w: standard_cycle_time must be positive, got %g", apperrors.ErrValidation, s.StandardCycleTime)
	}
	if s.ActualCycleTime != nil && *s.ActualCycleTime <= 0 {
		return fmt.Errorf("%w: actual_cycle_time must be positive when set, got %g", apperrors.ErrValidation, *s.ActualCycleTime)
	}
	if !IsValidStationStatus(s.Status) {
		return fmt.Errorf("%w: invalid station status %q", apperrors.ErrValidation, s.Status)
	}
	return nil
}

// ValidateStationSequence checks that the stations of one line, sorted by
// StationOrder, form exactly 1..N with no gaps or duplicates.
func ValidateStationSequence(stations []ProcessStation) error {
	orders := make([]int, len(stations))
	for i, s := range stations {
		orders[i] = s.StationOrder
	}
	sort.Ints(orders)
	for i, o := range orders {
		if o != i+1 {
			return fmt.Errorf("%w: station order must be contiguous from 1, got %v", apperrors.ErrValidation, orders)
		}
	}
	return nil
}

// StationsInOrder returns a copy of stations sorted by StationOrder.
func StationsInOrder(stations []ProcessStation) []ProcessStation {
	sorted := slices.Clone(stations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StationOrder < sorted[j].StationOrder
	})
	return sorted
}
