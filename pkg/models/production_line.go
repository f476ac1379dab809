package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/apperrors"
)

// LineStatus represents the operational state of a production line.
type LineStatus string

const (
	LineStatusActive      LineStatus = "active"
	LineStatusMaintenance LineStatus = "maintenance"
	LineStatusInactive    LineStatus = "inactive"
)

// ValidLineStatuses contains all valid line status values.
var ValidLineStatuses = []LineStatus{
	LineStatusActive,
	LineStatusMaintenance,
	LineStatusInactive,
}

// IsValidLineStatus checks if the given status is valid.
func IsValidLineStatus(s LineStatus) bool {
	return slices.Contains(ValidLineStatuses, s)
}

// DefaultEfficiencyFactor is assumed for lines created without one.
const DefaultEfficiencyFactor = 1.0

// ProductionLine represents a physical line on the shop floor.
//
// AllowedProducts and ChangeoverMatrix are legacy planning inputs kept for
// lines that have no station/capability data yet: an empty AllowedProducts
// means the line accepts any product, and the matrix maps "FROM->TO" SKU
// pairs to changeover minutes (with an optional "default" key).
type ProductionLine struct {
	ID               uuid.UUID          `json:"id"`
	Name             string             `json:"name"`
	Description      string             `json:"description,omitempty"`
	CapacityPerHour  float64            `json:"capacity_per_hour"`
	EfficiencyFactor float64            `json:"efficiency_factor"` // (0, 1]
	Status           LineStatus         `json:"status"`
	AllowedProducts  []string           `json:"allowed_products,omitempty"`
	ChangeoverMatrix map[string]float64 `json:"changeover_matrix,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// IsActive reports whether the line can take new work.
func (l *ProductionLine) IsActive() bool {
	return l.Status == LineStatusActive
}

// AllowsProduct applies the legacy allow-list: empty means unrestricted.
func (l *ProductionLine) AllowsProduct(sku string) bool {
	if len(l.AllowedProducts) == 0 {
		return true
	}
	return slices.Contains(l.AllowedProducts, sku)
}

// Validate rejects lines that would poison scheduling math.
func (l *ProductionLine) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: production line name is required", apperrors.ErrValidation)
	}
	if l.CapacityPerHour <= 0 {
		return fmt.Errorf("%w: capacity_per_hour must be positive, got %g", apperrors.ErrValidation, l.CapacityPerHour)
	}
	if l.EfficiencyFactor <= 0 || l.EfficiencyFactor > 1 {
		return fmt.Errorf("%w: efficiency_factor must be in (0, 1], got %g", apperrors.ErrValidation, l.EfficiencyFactor)
	}
	if !IsValidLineStatus(l.Status) {
		return fmt.Errorf("%w: invalid line status %q", apperrors.ErrValidation, l.Status)
	}
	return nil
}
