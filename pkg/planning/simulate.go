package planning

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/apperrors"
	"github.com/craftline/aps-engine/pkg/models"
)

// RushOrderInput describes a hypothetical urgent order to test against the
// current schedule.
type RushOrderInput struct {
	ProductID  uuid.UUID
	Quantity   int
	TargetDate time.Time
	// Priority defaults to the highest when zero.
	Priority int
	// Now anchors the simulation; the zero value means the current wall clock.
	Now time.Time
}

// Validate rejects malformed inputs.
func (in *RushOrderInput) Validate() error {
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", apperrors.ErrValidation, in.Quantity)
	}
	if in.TargetDate.IsZero() {
		return fmt.Errorf("%w: target date is required", apperrors.ErrValidation)
	}
	if in.Priority < models.PriorityHighest || in.Priority > models.PriorityLowest {
		return fmt.Errorf("%w: priority must be between %d and %d", apperrors.ErrValidation, models.PriorityHighest, models.PriorityLowest)
	}
	return nil
}

// AffectedOrder is an existing job pushed back by a rush insertion.
type AffectedOrder struct {
	OrderItemID  uuid.UUID `json:"order_item_id"`
	OriginalEnd  time.Time `json:"original_end"`
	NewEnd       time.Time `json:"new_end"`
	DelayMinutes float64   `json:"delay_minutes"`
}

// Scenario is one feasible way to place a rush order.
type Scenario struct {
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	ProductionLineID   uuid.UUID       `json:"production_line_id"`
	ProductionLineName string          `json:"production_line_name"`
	CompletionTime     time.Time       `json:"completion_time"`
	ChangeoverTime     float64         `json:"changeover_time"`
	ProductionHours    float64         `json:"production_hours"`
	AffectedOrders     []AffectedOrder `json:"affected_orders"`
	OvertimeHours      float64         `json:"overtime_hours"`
	AdditionalCost     float64         `json:"additional_cost"`
	MeetsTarget        bool            `json:"meets_target"`
	Recommendation     bool            `json:"recommendation"`
	Warnings           []string        `json:"warnings"`
}

// RushOrderSummary echoes the simulated order back to the caller.
type RushOrderSummary struct {
	ProductID                uuid.UUID `json:"product_id"`
	ProductSKU               string    `json:"product_sku"`
	ProductName              string    `json:"product_name"`
	Quantity                 int       `json:"quantity"`
	TargetDate               time.Time `json:"target_date"`
	EstimatedProductionHours float64   `json:"estimated_production_hours"`
}

// RushSimulation is the outcome of a rush-order what-if run.
type RushSimulation struct {
	Scenarios           []Scenario       `json:"scenarios"`
	RushOrder           RushOrderSummary `json:"rush_order"`
	RecommendedScenario string           `json:"recommended_scenario,omitempty"`
	TotalScenarios      int              `json:"total_scenarios"`
}

// DeliveryQuery asks when a quantity of a product could be delivered.
type DeliveryQuery struct {
	ProductID uuid.UUID
	Quantity  int
	// Now anchors the estimate; the zero value means the current wall clock.
	Now time.Time
}

// DeliveryEstimate is a read-only delivery projection against the current
// schedule.
type DeliveryEstimate struct {
	ProductID           uuid.UUID `json:"product_id"`
	ProductSKU          string    `json:"product_sku"`
	Quantity            int       `json:"quantity"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
	Earliest            time.Time `json:"earliest"`
	Latest              time.Time `json:"latest"`
	Confidence          float64   `json:"confidence"`
	Notes               []string  `json:"notes"`
}

// Simulator runs what-if analyses against a snapshot of the current
// schedule. Nothing is persisted; callers decide what to do with the
// scenarios.
type Simulator struct {
	snap   *Snapshot
	params Params
	policy *AllocationPolicy
}

func NewSimulator(snap *Snapshot, params Params) *Simulator {
	return &Simulator{
		snap:   snap,
		params: params,
		policy: NewAllocationPolicy(snap, params),
	}
}

// SimulateRushOrder builds up to three placement scenarios for a rush order
// and marks one as recommended.
func (s *Simulator) SimulateRushOrder(input RushOrderInput) (*RushSimulation, error) {
	if input.Priority == 0 {
		input.Priority = models.PriorityHighest
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	product := s.snap.ProductByID(input.ProductID)
	if product == nil {
		return nil, fmt.Errorf("%w: product %s", apperrors.ErrNotFound, input.ProductID)
	}

	lines := s.snap.ActiveLines()
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no active production lines available", apperrors.ErrValidation)
	}

	productionHours := LegacyEstimateHours(product, input.Quantity)

	candidates, err := s.policy.EligibleLines(product, input.Quantity, lines, nil)
	if err != nil {
		return nil, err
	}

	var scenarios []Scenario
	for _, cand := range candidates {
		scenarios = append(scenarios,
			s.simulateAppend(product, cand.Line, productionHours, now, input.TargetDate),
			s.simulateInsert(product, cand.Line, productionHours, now, input.TargetDate),
		)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("%w: no feasible scenarios found, all production lines are either at capacity or incompatible with the requested product", apperrors.ErrValidation)
	}

	scenarios = selectScenarios(scenarios, input.TargetDate)

	result := &RushSimulation{
		Scenarios: scenarios,
		RushOrder: RushOrderSummary{
			ProductID:                product.ID,
			ProductSKU:               product.SKU,
			ProductName:              product.Name,
			Quantity:                 input.Quantity,
			TargetDate:               input.TargetDate,
			EstimatedProductionHours: round2(productionHours),
		},
		TotalScenarios: len(scenarios),
	}
	if idx := recommendIndex(scenarios); idx >= 0 {
		scenarios[idx].Recommendation = true
		result.RecommendedScenario = scenarios[idx].Name
	}
	return result, nil
}

// simulateAppend places the rush order after all existing jobs on a line.
// Nothing else moves.
func (s *Simulator) simulateAppend(product *models.Product, line *models.ProductionLine, hours float64, now, target time.Time) Scenario {
	jobs := s.snap.JobsOnLine(line.ID)

	startAfter := now
	lastSKU := ""
	if len(jobs) > 0 {
		last := &jobs[0]
		for i := 1; i < len(jobs); i++ {
			if jobs[i].PlannedEnd.After(last.PlannedEnd) {
				last = &jobs[i]
			}
		}
		startAfter = last.PlannedEnd
		lastSKU = s.snap.JobSKU(last)
	}

	startTime := s.params.Calendar.AlignToWorkStart(startAfter)
	changeover := s.params.Changeover(line, lastSKU, product.SKU)
	jobStart := startTime.Add(minutesDuration(changeover))
	jobEnd := s.params.Calendar.AdvanceWorkHours(jobStart, hours)
	overtime := s.params.Calendar.JobOvertimeHours(jobStart, jobEnd)

	scenario := Scenario{
		Name: fmt.Sprintf("Append to %s", line.Name),
		Description: fmt.Sprintf(
			"Add rush order after all existing jobs on %s. No existing orders are affected.", line.Name),
		ProductionLineID:   line.ID,
		ProductionLineName: line.Name,
		CompletionTime:     jobEnd,
		ChangeoverTime:     changeover,
		ProductionHours:    round2(hours),
		AffectedOrders:     []AffectedOrder{},
		OvertimeHours:      round2(overtime),
		AdditionalCost:     round2(overtime * s.params.OvertimeCostPerHour),
		MeetsTarget:        !jobEnd.After(target),
		Warnings:           []string{},
	}
	if overtime > s.params.Calendar.MaxOvertimeHours {
		scenario.Warnings = append(scenario.Warnings,
			fmt.Sprintf("Requires %.1fh overtime (max %gh).", overtime, s.params.Calendar.MaxOvertimeHours))
	}
	return scenario
}

// simulateInsert places the rush order at the earliest open position on a
// line and cascades the displaced jobs behind it.
func (s *Simulator) simulateInsert(product *models.Product, line *models.ProductionLine, hours float64, now, target time.Time) Scenario {
	jobs := s.snap.JobsOnLine(line.ID)

	insertIdx := len(jobs)
	for i := range jobs {
		if jobs[i].PlannedStart.After(now) {
			insertIdx = i
			break
		}
	}

	insertTime := s.params.Calendar.AlignToWorkStart(now)
	prevSKU := ""
	if insertIdx > 0 {
		prev := &jobs[insertIdx-1]
		insertTime = s.params.Calendar.AlignToWorkStart(prev.PlannedEnd)
		prevSKU = s.snap.JobSKU(prev)
	}

	changeoverIn := s.params.Changeover(line, prevSKU, product.SKU)
	rushStart := insertTime.Add(minutesDuration(changeoverIn))
	rushEnd := s.params.Calendar.AdvanceWorkHours(rushStart, hours)

	affected := []AffectedOrder{}
	cascade := rushEnd
	for i := insertIdx; i < len(jobs); i++ {
		job := &jobs[i]
		changeoverOut := s.params.Changeover(line, product.SKU, s.snap.JobSKU(job))
		newStart := s.params.Calendar.AlignToWorkStart(cascade.Add(minutesDuration(changeoverOut)))
		newEnd := s.params.Calendar.AdvanceWorkHours(newStart, job.DurationHours())

		if delay := newEnd.Sub(job.PlannedEnd).Minutes(); delay > 0 {
			affected = append(affected, AffectedOrder{
				OrderItemID:  job.OrderItemID,
				OriginalEnd:  job.PlannedEnd,
				NewEnd:       newEnd,
				DelayMinutes: round1(delay),
			})
		}
		cascade = newEnd
	}

	overtime := s.params.Calendar.JobOvertimeHours(rushStart, rushEnd)
	for _, ao := range affected {
		overtime += s.params.Calendar.JobOvertimeHours(ao.NewEnd.Add(-time.Hour), ao.NewEnd)
	}

	scenario := Scenario{
		Name: fmt.Sprintf("Insert into %s", line.Name),
		Description: fmt.Sprintf("Insert rush order at earliest slot on %s, pushing back %d existing %s.",
			line.Name, len(affected), countNoun(len(affected), "job")),
		ProductionLineID:   line.ID,
		ProductionLineName: line.Name,
		CompletionTime:     rushEnd,
		ChangeoverTime:     changeoverIn,
		ProductionHours:    round2(hours),
		AffectedOrders:     affected,
		OvertimeHours:      round2(overtime),
		AdditionalCost:     round2(overtime * s.params.OvertimeCostPerHour),
		MeetsTarget:        !rushEnd.After(target),
		Warnings:           []string{},
	}
	if len(affected) > 0 {
		maxDelay := 0.0
		for _, ao := range affected {
			if ao.DelayMinutes > maxDelay {
				maxDelay = ao.DelayMinutes
			}
		}
		scenario.Warnings = append(scenario.Warnings,
			fmt.Sprintf("Maximum delay to existing orders: %.0f minutes.", maxDelay))
	}
	if overtime > s.params.Calendar.MaxOvertimeHours {
		scenario.Warnings = append(scenario.Warnings,
			fmt.Sprintf("Requires %.1fh overtime (max %gh).", overtime, s.params.Calendar.MaxOvertimeHours))
	}
	return scenario
}

// selectScenarios keeps at most three scenarios. Small sets pass through
// untouched; larger ones are scored on lateness, displacement, and cost.
func selectScenarios(scenarios []Scenario, target time.Time) []Scenario {
	if len(scenarios) <= 3 {
		return scenarios
	}

	scored := make([]Scenario, len(scenarios))
	copy(scored, scenarios)
	sort.SliceStable(scored, func(i, j int) bool {
		return scenarioScore(&scored[i], target) < scenarioScore(&scored[j], target)
	})

	selected := make([]Scenario, 0, 3)
	seen := make(map[string]bool)
	for _, s := range scored {
		if len(selected) >= 3 {
			break
		}
		if !seen[s.Name] {
			selected = append(selected, s)
			seen[s.Name] = true
		}
	}
	return selected
}

func scenarioScore(s *Scenario, target time.Time) float64 {
	score := 0.0
	if !s.MeetsTarget {
		score += s.CompletionTime.Sub(target).Hours() * 10.0
	}
	score += float64(len(s.AffectedOrders)) * 5.0
	for _, ao := range s.AffectedOrders {
		score += ao.DelayMinutes / 60.0
	}
	score += s.AdditionalCost / 1000.0
	return score
}

// recommendIndex picks the scenario to recommend: the cheapest one that
// meets the target, else the one finishing soonest. Earlier scenarios win
// ties.
func recommendIndex(scenarios []Scenario) int {
	if len(scenarios) == 0 {
		return -1
	}

	best := -1
	for i := range scenarios {
		if !scenarios[i].MeetsTarget {
			continue
		}
		if best < 0 || scenarios[i].AdditionalCost < scenarios[best].AdditionalCost {
			best = i
		}
	}
	if best >= 0 {
		return best
	}

	best = 0
	for i := 1; i < len(scenarios); i++ {
		if scenarios[i].CompletionTime.Before(scenarios[best].CompletionTime) {
			best = i
		}
	}
	return best
}

// EstimateDelivery projects completion dates for a quantity of a product
// against the current schedule without changing anything.
func (s *Simulator) EstimateDelivery(q DeliveryQuery) (*DeliveryEstimate, error) {
	if q.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", apperrors.ErrValidation, q.Quantity)
	}
	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	product := s.snap.ProductByID(q.ProductID)
	if product == nil {
		return nil, fmt.Errorf("%w: product %s", apperrors.ErrNotFound, q.ProductID)
	}

	lines := s.snap.ActiveLines()
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no active production lines available", apperrors.ErrValidation)
	}

	candidates, err := s.policy.EligibleLines(product, q.Quantity, lines, nil)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no production line can produce product %s", apperrors.ErrValidation, product.SKU)
	}

	// The first line to free up wins; candidate rank breaks ties.
	chosen := candidates[0]
	earliestStart := s.snap.LineTail(chosen.LineID, now)
	for _, cand := range candidates[1:] {
		if tail := s.snap.LineTail(cand.LineID, now); tail.Before(earliestStart) {
			chosen = cand
			earliestStart = tail
		}
	}

	productionHours := LegacyEstimateHours(product, q.Quantity)
	alignedStart := s.params.Calendar.AlignToWorkStart(earliestStart)
	estimatedEnd := s.params.Calendar.AdvanceWorkHours(alignedStart, productionHours)

	optimisticStart := s.params.Calendar.AlignToWorkStart(now)
	earliestEnd := s.params.Calendar.AdvanceWorkHours(optimisticStart, productionHours*0.9)
	latestEnd := s.params.Calendar.AdvanceWorkHours(alignedStart, productionHours*1.3)

	confidence := 0.75
	var notes []string
	if product.HasLearnedCycleTime() {
		confidence += 0.15
		notes = append(notes, "Using learned cycle time from historical data")
	} else {
		notes = append(notes, "Using standard cycle time (no historical data yet)")
	}
	confidence += 0.10 * chosen.Match.MeanHeadroom()
	confidence = min(max(confidence, 0.0), 0.98)

	return &DeliveryEstimate{
		ProductID:           product.ID,
		ProductSKU:          product.SKU,
		Quantity:            q.Quantity,
		EstimatedCompletion: estimatedEnd,
		Earliest:            earliestEnd,
		Latest:              latestEnd,
		Confidence:          round2(confidence),
		Notes:               notes,
	}, nil
}
