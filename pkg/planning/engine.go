package planning

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"

	"github.com/craftline/aps-engine/pkg/apperrors"
	"github.com/craftline/aps-engine/pkg/models"
)

// Strategy biases backlog ordering and optimization tie-breaks.
type Strategy string

const (
	// StrategyBalanced weighs priority first and spreads load evenly.
	StrategyBalanced Strategy = "balanced"
	// StrategyRush lets due dates dominate priority.
	StrategyRush Strategy = "rush"
	// StrategyEfficiency minimizes changeover minutes above all else.
	StrategyEfficiency Strategy = "efficiency"
)

// ValidStrategies contains all valid scheduling strategies.
var ValidStrategies = []Strategy{StrategyBalanced, StrategyRush, StrategyEfficiency}

// IsValidStrategy checks if the given strategy is valid.
func IsValidStrategy(s Strategy) bool {
	return slices.Contains(ValidStrategies, s)
}

// ScheduleConfig configures one scheduling run.
type ScheduleConfig struct {
	Strategy    Strategy
	HorizonDays int
	// LineID restricts the run to a single production line when set.
	LineID *uuid.UUID
	// Now anchors the run; the zero value means the current wall clock.
	Now time.Time
}

// Validate rejects malformed configurations.
func (c *ScheduleConfig) Validate() error {
	if !IsValidStrategy(c.Strategy) {
		return fmt.Errorf("%w: invalid strategy %q", apperrors.ErrValidation, c.Strategy)
	}
	if c.HorizonDays <= 0 {
		return fmt.Errorf("%w: horizon days must be positive, got %d", apperrors.ErrValidation, c.HorizonDays)
	}
	return nil
}

// ScheduleMetrics summarizes schedule quality.
type ScheduleMetrics struct {
	OnTimeDeliveryRate float64 `json:"on_time_delivery_rate"`
	UtilizationPct     float64 `json:"utilization_pct"`
	OvertimeHours      float64 `json:"overtime_hours"`
}

// OptimizationSummary reports what the local optimization pass did.
type OptimizationSummary struct {
	Applied                bool    `json:"applied"`
	MovesEvaluated         int     `json:"moves_evaluated"`
	MovesApplied           int     `json:"moves_applied"`
	ChangeoverMinutesSaved float64 `json:"changeover_minutes_saved"`
}

// ScheduleResult is the outcome of a scheduling run. Jobs carry no IDs;
// persistence assigns them.
type ScheduleResult struct {
	Jobs                   []models.ScheduledJob `json:"jobs"`
	TotalJobs              int                   `json:"total_jobs"`
	TotalChangeoverMinutes float64               `json:"total_changeover_minutes"`
	Metrics                ScheduleMetrics       `json:"metrics"`
	ConfidenceScore        float64               `json:"confidence_score"`
	Strategy               Strategy              `json:"strategy"`
	HorizonDays            int                   `json:"horizon_days"`
	Optimization           OptimizationSummary   `json:"optimization"`
	Warnings               []string              `json:"warnings"`
	GeneratedAt            time.Time             `json:"generated_at"`
}

// Engine turns a backlog of order items into time-boxed jobs on lines.
//
// A run walks three phases: a rule-based sort of the backlog, greedy
// constraint satisfaction against line capacity and changeover, and a
// bounded single-sweep local optimization. Every phase is deterministic;
// two runs over the same snapshot and config produce identical jobs.
type Engine struct {
	snap   *Snapshot
	params Params
	policy *AllocationPolicy
}

func NewEngine(snap *Snapshot, params Params) *Engine {
	return &Engine{
		snap:   snap,
		params: params,
		policy: NewAllocationPolicy(snap, params),
	}
}

// Run executes a full scheduling run over the engine's snapshot.
func (e *Engine) Run(cfg ScheduleConfig) (*ScheduleResult, error) {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyBalanced
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result := &ScheduleResult{
		Strategy:    cfg.Strategy,
		HorizonDays: cfg.HorizonDays,
		Warnings:    []string{},
		GeneratedAt: now,
	}

	lines := e.snap.ActiveLines()
	if cfg.LineID != nil {
		lines = slices.DeleteFunc(lines, func(l *models.ProductionLine) bool {
			return l.ID != *cfg.LineID
		})
		if len(lines) == 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Requested production line %s is not active.", cfg.LineID))
			return result, nil
		}
	}
	if len(lines) == 0 {
		result.Warnings = append(result.Warnings,
			"No active production lines configured. Please set up lines before scheduling.")
		return result, nil
	}
	if len(e.snap.Orders) == 0 {
		result.Warnings = append(result.Warnings, "No pending orders found to schedule.")
		return result, nil
	}

	tasks, taskWarnings := e.buildTasks()
	result.Warnings = append(result.Warnings, taskWarnings...)
	if len(tasks) == 0 {
		result.Warnings = append(result.Warnings, "No schedulable order items found.")
		return result, nil
	}

	for i := range e.snap.Lines {
		if e.snap.Lines[i].Status == models.LineStatusMaintenance {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Line %s is under maintenance and was excluded from scheduling.", e.snap.Lines[i].Name))
		}
	}

	sorted := phase1Sort(tasks, cfg.Strategy)

	workStart := e.params.Calendar.AlignToWorkStart(now)
	horizonEnd := now.Add(time.Duration(cfg.HorizonDays) * 24 * time.Hour)

	jobs, scheduled, phase2Warnings, err := e.phase2Assign(sorted, lines, workStart, horizonEnd)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, phase2Warnings...)

	summary, err := e.phase3Optimize(jobs, scheduled, lines, workStart, horizonEnd, cfg.Strategy)
	if err != nil {
		return nil, err
	}
	result.Optimization = summary

	if jobs == nil {
		jobs = []models.ScheduledJob{}
	}
	result.Jobs = jobs
	result.TotalJobs = len(jobs)
	for i := range jobs {
		result.TotalChangeoverMinutes += jobs[i].ChangeoverTime
	}
	result.Metrics = e.calculateMetrics(jobs, lines, now, horizonEnd, tasks)
	result.ConfidenceScore = calculateConfidence(jobs, tasks)
	return result, nil
}

// ================================================================
// Phase 1: rule-based sort
// ================================================================

// task is one schedulable order item flattened for the run.
type task struct {
	orderItemID uuid.UUID
	orderID     uuid.UUID
	productID   uuid.UUID
	sku         string
	quantity    int
	dueDate     time.Time
	priority    int
	hasLearned  bool
}

func (e *Engine) buildTasks() ([]task, []string) {
	var tasks []task
	var warnings []string
	for oi := range e.snap.Orders {
		order := &e.snap.Orders[oi]
		if !order.IsSchedulable() {
			continue
		}
		for ii := range order.Items {
			item := &order.Items[ii]
			product := e.snap.ProductByID(item.ProductID)
			if product == nil {
				warnings = append(warnings,
					fmt.Sprintf("Order item %s references unknown product %s and was skipped.", item.ID, item.ProductID))
				continue
			}
			tasks = append(tasks, task{
				orderItemID: item.ID,
				orderID:     order.ID,
				productID:   product.ID,
				sku:         product.SKU,
				quantity:    item.Quantity,
				dueDate:     order.DueDate,
				priority:    order.Priority,
				hasLearned:  product.HasLearnedCycleTime(),
			})
		}
	}
	return tasks, warnings
}

// phase1Sort orders the backlog. Balanced and efficiency runs sort by
// priority then due date; rush runs let the due date dominate. Order and
// item IDs break remaining ties so the ordering is total.
func phase1Sort(tasks []task, strategy Strategy) []task {
	sorted := slices.Clone(tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if strategy == StrategyRush {
			if !a.dueDate.Equal(b.dueDate) {
				return a.dueDate.Before(b.dueDate)
			}
			if a.priority != b.priority {
				return a.priority < b.priority
			}
		} else {
			if a.priority != b.priority {
				return a.priority < b.priority
			}
			if !a.dueDate.Equal(b.dueDate) {
				return a.dueDate.Before(b.dueDate)
			}
		}
		if a.orderID != b.orderID {
			return a.orderID.String() < b.orderID.String()
		}
		return a.orderItemID.String() < b.orderItemID.String()
	})
	return sorted
}

// ================================================================
// Phase 2: constraint satisfaction
// ================================================================

// lineState tracks a line's tail during assignment.
type lineState struct {
	line    *models.ProductionLine
	current time.Time
	lastSKU string
}

// phase2Assign walks the sorted backlog and greedily places each task on
// the best-ranked eligible line that can still finish it within the horizon
// plus the overtime allowance. Returns the jobs and the tasks that produced
// them, index-aligned.
func (e *Engine) phase2Assign(tasks []task, lines []*models.ProductionLine, workStart, horizonEnd time.Time) ([]models.ScheduledJob, []task, []string, error) {
	var warnings []string

	states := make(map[uuid.UUID]*lineState, len(lines))
	for _, line := range lines {
		states[line.ID] = &lineState{line: line, current: workStart}
	}

	maxEnd := horizonEnd.Add(time.Duration(e.params.Calendar.MaxOvertimeHours * float64(time.Hour)))

	var jobs []models.ScheduledJob
	var scheduled []task
	unscheduled := 0

	for _, t := range tasks {
		product := e.snap.ProductByID(t.productID)

		trailing := make(map[uuid.UUID]string, len(states))
		for id, st := range states {
			trailing[id] = st.lastSKU
		}

		candidates, err := e.policy.EligibleLines(product, t.quantity, lines, trailing)
		if err != nil {
			return nil, nil, nil, err
		}

		placed := false
		for _, cand := range candidates {
			st := states[cand.LineID]
			jobStart := st.current.Add(minutesDuration(cand.ChangeoverMinutes))
			jobEnd := jobStart.Add(hoursDuration(cand.EstimatedHours))
			if jobEnd.After(maxEnd) {
				continue
			}

			if jobEnd.After(horizonEnd) {
				warnings = append(warnings,
					fmt.Sprintf("Order item %s extends beyond planning horizon.", t.orderItemID))
			}
			overtime := e.params.Calendar.JobOvertimeHours(jobStart, jobEnd)
			if overtime > e.params.Calendar.MaxOvertimeHours {
				warnings = append(warnings,
					fmt.Sprintf("Order item %s requires %.1fh overtime (max %gh).",
						t.orderItemID, overtime, e.params.Calendar.MaxOvertimeHours))
			}
			if jobEnd.After(t.dueDate) {
				warnings = append(warnings,
					fmt.Sprintf("Order item %s is projected to finish after due date.", t.orderItemID))
			}

			jobs = append(jobs, models.ScheduledJob{
				OrderItemID:      t.orderItemID,
				ProductionLineID: cand.LineID,
				ProductID:        t.productID,
				PlannedStart:     jobStart,
				PlannedEnd:       jobEnd,
				Quantity:         t.quantity,
				ChangeoverTime:   cand.ChangeoverMinutes,
				Status:           models.JobStatusScheduled,
			})
			scheduled = append(scheduled, t)

			st.current = jobEnd
			st.lastSKU = t.sku
			placed = true
			break
		}
		if !placed {
			unscheduled++
		}
	}

	if unscheduled > 0 {
		warnings = append(warnings,
			fmt.Sprintf("%d order %s could not be scheduled within the planning horizon due to capacity constraints.",
				unscheduled, countNoun(unscheduled, "item")))
	}
	return jobs, scheduled, warnings, nil
}

// ================================================================
// Phase 3: bounded local optimization
// ================================================================

type jobTiming struct {
	start      time.Time
	end        time.Time
	changeover float64
}

// phase3Optimize makes a single deterministic sweep over the scheduled jobs
// and tries to move each one to the tail of another eligible line. A move is
// kept when it helps under the run's strategy and never pushes a job that
// was on time past its due date. Jobs are updated in place.
func (e *Engine) phase3Optimize(jobs []models.ScheduledJob, tasks []task, lines []*models.ProductionLine, workStart, horizonEnd time.Time, strategy Strategy) (OptimizationSummary, error) {
	summary := OptimizationSummary{}
	if len(jobs) < 2 || len(lines) < 2 {
		return summary, nil
	}

	maxEnd := horizonEnd.Add(time.Duration(e.params.Calendar.MaxOvertimeHours * float64(time.Hour)))

	// Hours per (item, line) pair do not depend on sequencing, so compute
	// them once up front.
	type pairKey struct{ item, line uuid.UUID }
	hoursFor := make(map[pairKey]float64)
	eligibleLines := make(map[uuid.UUID][]uuid.UUID, len(tasks))
	for _, t := range tasks {
		if _, done := eligibleLines[t.orderItemID]; done {
			continue
		}
		product := e.snap.ProductByID(t.productID)
		candidates, err := e.policy.EligibleLines(product, t.quantity, lines, nil)
		if err != nil {
			return summary, err
		}
		ids := make([]uuid.UUID, 0, len(candidates))
		for _, cand := range candidates {
			ids = append(ids, cand.LineID)
			hoursFor[pairKey{t.orderItemID, cand.LineID}] = cand.EstimatedHours
		}
		eligibleLines[t.orderItemID] = ids
	}

	sequences := make(map[uuid.UUID][]int, len(lines))
	for i := range jobs {
		lineID := jobs[i].ProductionLineID
		sequences[lineID] = append(sequences[lineID], i)
	}

	lineByID := make(map[uuid.UUID]*models.ProductionLine, len(lines))
	for _, line := range lines {
		lineByID[line.ID] = line
	}

	// rebuild computes the timeline of seq on a line from the work start.
	rebuild := func(line *models.ProductionLine, seq []int) ([]jobTiming, bool) {
		timings := make([]jobTiming, 0, len(seq))
		current := workStart
		lastSKU := ""
		for _, idx := range seq {
			t := tasks[idx]
			cho := e.params.Changeover(line, lastSKU, t.sku)
			hours, ok := hoursFor[pairKey{t.orderItemID, line.ID}]
			if !ok {
				return nil, false
			}
			start := current.Add(minutesDuration(cho))
			end := start.Add(hoursDuration(hours))
			if end.After(maxEnd) {
				return nil, false
			}
			timings = append(timings, jobTiming{start: start, end: end, changeover: cho})
			current = end
			lastSKU = t.sku
		}
		return timings, true
	}

	changeoverSum := func(timings []jobTiming) float64 {
		total := 0.0
		for _, tm := range timings {
			total += tm.changeover
		}
		return total
	}
	lateMinutes := func(seq []int, timings []jobTiming) float64 {
		total := 0.0
		for i, idx := range seq {
			if late := timings[i].end.Sub(tasks[idx].dueDate); late > 0 {
				total += late.Minutes()
			}
		}
		return total
	}
	tailEnd := func(timings []jobTiming) time.Time {
		if len(timings) == 0 {
			return workStart
		}
		return timings[len(timings)-1].end
	}

	const eps = 1e-9

	for idx := 0; idx < len(jobs); idx++ {
		t := tasks[idx]
		fromID := jobs[idx].ProductionLineID
		fromSeq := sequences[fromID]
		pos := slices.Index(fromSeq, idx)
		if pos < 0 {
			continue
		}

		for _, toID := range eligibleLines[t.orderItemID] {
			if toID == fromID {
				continue
			}
			summary.MovesEvaluated++

			newFrom := slices.Concat(fromSeq[:pos], fromSeq[pos+1:])
			newTo := append(slices.Clone(sequences[toID]), idx)

			fromTimings, ok := rebuild(lineByID[fromID], newFrom)
			if !ok {
				continue
			}
			toTimings, ok := rebuild(lineByID[toID], newTo)
			if !ok {
				continue
			}

			// A job that currently meets its due date must keep meeting it.
			compliant := true
			checkSeq := func(seq []int, timings []jobTiming) {
				for i, jobIdx := range seq {
					wasOnTime := !jobs[jobIdx].PlannedEnd.After(tasks[jobIdx].dueDate)
					if wasOnTime && timings[i].end.After(tasks[jobIdx].dueDate) {
						compliant = false
						return
					}
				}
			}
			checkSeq(newFrom, fromTimings)
			checkSeq(newTo, toTimings)
			if !compliant {
				continue
			}

			oldCho := 0.0
			oldLate := 0.0
			affected := slices.Concat(fromSeq, sequences[toID])
			for _, jobIdx := range affected {
				oldCho += jobs[jobIdx].ChangeoverTime
				if late := jobs[jobIdx].PlannedEnd.Sub(tasks[jobIdx].dueDate); late > 0 {
					oldLate += late.Minutes()
				}
			}
			newCho := changeoverSum(fromTimings) + changeoverSum(toTimings)
			newLate := lateMinutes(newFrom, fromTimings) + lateMinutes(newTo, toTimings)

			oldMakespan := workStart
			newMakespan := workStart
			for _, line := range lines {
				seq := sequences[line.ID]
				tail := workStart
				if len(seq) > 0 {
					tail = jobs[seq[len(seq)-1]].PlannedEnd
				}
				if tail.After(oldMakespan) {
					oldMakespan = tail
				}
				if line.ID == fromID {
					tail = tailEnd(fromTimings)
				} else if line.ID == toID {
					tail = tailEnd(toTimings)
				}
				if tail.After(newMakespan) {
					newMakespan = tail
				}
			}

			dCho := newCho - oldCho
			dLate := newLate - oldLate
			dMakespan := newMakespan.Sub(oldMakespan)
			if !acceptMove(strategy, dCho, dLate, dMakespan, eps) {
				continue
			}

			apply := func(line uuid.UUID, seq []int, timings []jobTiming) {
				for i, jobIdx := range seq {
					jobs[jobIdx].ProductionLineID = line
					jobs[jobIdx].PlannedStart = timings[i].start
					jobs[jobIdx].PlannedEnd = timings[i].end
					jobs[jobIdx].ChangeoverTime = timings[i].changeover
				}
			}
			apply(fromID, newFrom, fromTimings)
			apply(toID, newTo, toTimings)
			sequences[fromID] = newFrom
			sequences[toID] = newTo

			summary.MovesApplied++
			if dCho < 0 {
				summary.ChangeoverMinutesSaved += -dCho
			}
			break
		}
	}

	summary.Applied = summary.MovesApplied > 0
	summary.ChangeoverMinutesSaved = round1(summary.ChangeoverMinutesSaved)
	return summary, nil
}

// acceptMove applies the per-strategy improvement rule.
func acceptMove(strategy Strategy, dCho, dLateMinutes float64, dMakespan time.Duration, eps float64) bool {
	switch strategy {
	case StrategyRush:
		return dLateMinutes < -eps || (math.Abs(dLateMinutes) <= eps && dCho < -eps)
	case StrategyEfficiency:
		return dCho < -eps
	default:
		return dCho < -eps || (math.Abs(dCho) <= eps && dMakespan < 0)
	}
}

// ================================================================
// Metrics
// ================================================================

func (e *Engine) calculateMetrics(jobs []models.ScheduledJob, lines []*models.ProductionLine, startTime, horizonEnd time.Time, tasks []task) ScheduleMetrics {
	if len(jobs) == 0 {
		return ScheduleMetrics{}
	}

	dueByItem := make(map[uuid.UUID]time.Time, len(tasks))
	for _, t := range tasks {
		dueByItem[t.orderItemID] = t.dueDate
	}

	onTime := 0
	busyHours := 0.0
	overtime := 0.0
	for i := range jobs {
		if due, ok := dueByItem[jobs[i].OrderItemID]; ok && !jobs[i].PlannedEnd.After(due) {
			onTime++
		}
		busyHours += jobs[i].DurationHours()
		overtime += e.params.Calendar.JobOvertimeHours(jobs[i].PlannedStart, jobs[i].PlannedEnd)
	}

	horizonHours := horizonEnd.Sub(startTime).Hours()
	availableHours := horizonHours * float64(len(lines))
	utilization := 0.0
	if availableHours > 0 {
		utilization = busyHours / availableHours * 100.0
	}

	return ScheduleMetrics{
		OnTimeDeliveryRate: round1(float64(onTime) / float64(len(jobs)) * 100.0),
		UtilizationPct:     round1(math.Min(utilization, 100.0)),
		OvertimeHours:      round1(overtime),
	}
}

// calculateConfidence scores how trustworthy a schedule is, in [0, 1].
// Learned cycle-time coverage, the on-time ratio, and backlog coverage are
// weighted 0.2/0.5/0.3.
func calculateConfidence(jobs []models.ScheduledJob, tasks []task) float64 {
	if len(jobs) == 0 || len(tasks) == 0 {
		return 0.0
	}

	learned := 0
	for _, t := range tasks {
		if t.hasLearned {
			learned++
		}
	}
	dataScore := float64(learned) / float64(len(tasks))

	dueByItem := make(map[uuid.UUID]time.Time, len(tasks))
	for _, t := range tasks {
		dueByItem[t.orderItemID] = t.dueDate
	}
	onTime := 0
	for i := range jobs {
		if due, ok := dueByItem[jobs[i].OrderItemID]; ok && !jobs[i].PlannedEnd.After(due) {
			onTime++
		}
	}
	onTimeScore := float64(onTime) / float64(len(jobs))

	coverageScore := float64(len(jobs)) / float64(len(tasks))

	confidence := 0.2*dataScore + 0.5*onTimeScore + 0.3*coverageScore
	return round3(math.Min(math.Max(confidence, 0.0), 1.0))
}

// ================================================================
// Helpers
// ================================================================

func minutesDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}

func hoursDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func countNoun(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return inflection.Plural(noun)
}
