package planning

import (
	"fmt"

	"github.com/craftline/aps-engine/pkg/apperrors"
	"github.com/craftline/aps-engine/pkg/models"
)

// RouteEstimate is the output of the bottleneck estimator.
type RouteEstimate struct {
	// Hours is the total wall-clock production duration including setup.
	Hours float64 `json:"hours"`
	// BottleneckSeconds is the slowest cycle time across the route's steps.
	BottleneckSeconds float64 `json:"bottleneck_seconds"`
	// Warnings lists steps that fell back to the route's estimated cycle
	// time because no station covers their equipment type.
	Warnings []string `json:"warnings,omitempty"`
}

// EstimateRoute computes production hours for a route on a set of stations.
//
// Each step samples the cycle time of the first station matching its
// equipment type, preferring the station's learned actual cycle time and
// falling back to the step's estimate. The slowest sample is the bottleneck
// and gates the whole route. Yield losses inflate the quantity that has to
// pass through the line.
func EstimateRoute(steps []models.RouteStep, stations []models.ProcessStation, quantity int, yieldRate, setupMinutes float64) (RouteEstimate, error) {
	if quantity <= 0 {
		return RouteEstimate{}, fmt.Errorf("%w: quantity must be positive, got %d", apperrors.ErrValidation, quantity)
	}
	if setupMinutes < 0 {
		return RouteEstimate{}, fmt.Errorf("%w: setup minutes must not be negative, got %g", apperrors.ErrValidation, setupMinutes)
	}

	setupHours := setupMinutes / 60.0
	if len(steps) == 0 {
		return RouteEstimate{Hours: setupHours}, nil
	}

	actualByType := make(map[string]*float64, len(stations))
	for i := range stations {
		st := &stations[i]
		if _, seen := actualByType[st.EquipmentType]; !seen {
			actualByType[st.EquipmentType] = st.ActualCycleTime
		}
	}

	est := RouteEstimate{}
	for _, step := range steps {
		sample := step.EstimatedCycleTime
		actual, hasStation := actualByType[step.EquipmentType]
		switch {
		case !hasStation:
			est.Warnings = append(est.Warnings,
				fmt.Sprintf("step %d: no station for equipment type %q, using route estimate", step.StepOrder, step.EquipmentType))
		case actual != nil && *actual > 0:
			sample = *actual
		}
		if sample > est.BottleneckSeconds {
			est.BottleneckSeconds = sample
		}
	}

	effectiveQty := float64(quantity) / max(yieldRate, 0.01)
	est.Hours = effectiveQty*est.BottleneckSeconds/3600.0 + setupHours
	return est, nil
}

// EstimateForLine estimates hours for producing quantity units of product on
// a specific line, scaling the production portion by the line's efficiency
// factor. Setup time is unaffected by efficiency.
func EstimateForLine(route *models.ProcessRoute, stations []models.ProcessStation, line *models.ProductionLine, product *models.Product, quantity int) (RouteEstimate, error) {
	est, err := EstimateRoute(route.StepsInOrder(), stations, quantity, product.YieldRate, product.SetupTime)
	if err != nil {
		return RouteEstimate{}, err
	}

	efficiency := line.EfficiencyFactor
	if efficiency <= 0 {
		efficiency = models.DefaultEfficiencyFactor
	}
	setupHours := product.SetupTime / 60.0
	est.Hours = (est.Hours-setupHours)/efficiency + setupHours
	return est, nil
}

// LegacyEstimateHours is the product-minutes formula used when a product has
// no active process route. Quantity is assumed positive; callers validate at
// the boundary.
func LegacyEstimateHours(product *models.Product, quantity int) float64 {
	effectiveQty := float64(quantity) / max(product.YieldRate, 0.01)
	return effectiveQty*product.CycleTimeMinutes()/60.0 + product.SetupTime/60.0
}
