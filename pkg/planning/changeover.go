package planning

import (
	"fmt"

	"github.com/craftline/aps-engine/pkg/models"
)

// Changeover returns the minutes lost switching a line from one product to
// another. Starting fresh or staying on the same product costs nothing.
// Lookup order in the line's matrix: "FROM->TO", the reverse pair, then the
// matrix's "default" entry, then the configured fallback.
func (p Params) Changeover(line *models.ProductionLine, fromSKU, toSKU string) float64 {
	if fromSKU == "" || fromSKU == toSKU {
		return 0
	}

	matrix := line.ChangeoverMatrix
	if len(matrix) > 0 {
		if minutes, ok := matrix[fmt.Sprintf("%s->%s", fromSKU, toSKU)]; ok {
			return minutes
		}
		if minutes, ok := matrix[fmt.Sprintf("%s->%s", toSKU, fromSKU)]; ok {
			return minutes
		}
		if minutes, ok := matrix["default"]; ok {
			return minutes
		}
	}

	return p.DefaultChangeoverMinutes
}
