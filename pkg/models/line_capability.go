package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/apperrors"
)

// ThroughputRange bounds the rate an equipment type can sustain on a line.
type ThroughputRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit,omitempty"` // e.g. "units/hour"
}

// LineCapability is one entry of a line's capability matrix: what one hosted
// equipment type on that line can physically handle. CapabilityParams holds
// scalar limits (max_temp_c: 260) and ranges (temperature_range: [180, 300])
// that route step requirements are matched against.
type LineCapability struct {
	ID               uuid.UUID        `json:"id"`
	ProductionLineID uuid.UUID        `json:"production_line_id"`
	EquipmentType    string           `json:"equipment_type"`
	CapabilityParams map[string]any   `json:"capability_params"`
	ThroughputRange  *ThroughputRange `json:"throughput_range,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Validate rejects malformed capability entries.
func (c *LineCapability) Validate() error {
	if c.ProductionLineID == uuid.Nil {
		return fmt.Errorf("%w: capability production_line_id is required", apperrors.ErrValidation)
	}
	if c.EquipmentType == "" {
		return fmt.Errorf("%w: capability equipment_type is required", apperrors.ErrValidation)
	}
	if c.ThroughputRange != nil && c.ThroughputRange.Max < c.ThroughputRange.Min {
		return fmt.Errorf("%w: throughput_range max %g is below min %g",
			apperrors.ErrValidation, c.ThroughputRange.Max, c.ThroughputRange.Min)
	}
	return nil
}
