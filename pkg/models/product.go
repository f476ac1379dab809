// Package models contains domain types for aps-engine.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/apperrors"
)

// Defaults applied when a product is created without explicit values.
const (
	DefaultSetupTimeMinutes = 30.0
	DefaultYieldRate        = 0.95
)

// Product represents a manufacturable item. Cycle and setup times drive
// scheduling estimates; LearnedCycleTime is written by an external feedback
// process once enough completed jobs exist and overrides the standard value.
type Product struct {
	ID                uuid.UUID `json:"id"`
	SKU               string    `json:"sku"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	StandardCycleTime float64   `json:"standard_cycle_time"` // minutes per unit
	SetupTime         float64   `json:"setup_time"`          // minutes per changeover-independent setup
	YieldRate         float64   `json:"yield_rate"`          // (0, 1]
	LearnedCycleTime  *float64  `json:"learned_cycle_time,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CycleTimeMinutes returns the learned cycle time when present, otherwise the
// standard one.
func (p *Product) CycleTimeMinutes() float64 {
	if p.LearnedCycleTime != nil && *p.LearnedCycleTime > 0 {
		return *p.LearnedCycleTime
	}
	return p.StandardCycleTime
}

// HasLearnedCycleTime reports whether historical data has refined the cycle time.
func (p *Product) HasLearnedCycleTime() bool {
	return p.LearnedCycleTime != nil && *p.LearnedCycleTime > 0
}

// Validate rejects products that would poison scheduling math.
func (p *Product) Validate() error {
	if p.SKU == "" {
		return fmt.Errorf("%w: product sku is required", apperrors.ErrValidation)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", apperrors.ErrValidation)
	}
	if p.StandardCycleTime <= 0 {
		return fmt.Errorf("%w: standard_cycle_time must be positive, got %g", apperrors.ErrValidation, p.StandardCycleTime)
	}
	if p.SetupTime < 0 {
		return fmt.Errorf("%w: setup_time cannot be negative, got %g", apperrors.ErrValidation, p.SetupTime)
	}
	if p.YieldRate <= 0 || p.YieldRate > 1 {
		return fmt.Errorf("%w: yield_rate must be in (0, 1], got %g", apperrors.ErrValidation, p.YieldRate)
	}
	if p.LearnedCycleTime != nil && *p.LearnedCycleTime <= 0 {
		return fmt.Errorf("%w: learned_cycle_time must be positive when set, got %g", apperrors.ErrValidation, *p.LearnedCycleTime)
	}
	return nil
}
