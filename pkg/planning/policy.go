package planning

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/apperrors"
	"github.com/craftline/aps-engine/pkg/models"
)

// AllocationMode says which eligibility rule admitted a line.
type AllocationMode string

const (
	// AllocationCapability matches route step requirements against the
	// line's capability matrix.
	AllocationCapability AllocationMode = "capability"
	// AllocationLegacy falls back to the line's allowed-products list.
	AllocationLegacy AllocationMode = "legacy"
)

// Candidate is one eligible production line for an order item, together
// with the evidence that admitted it.
type Candidate struct {
	Line              *models.ProductionLine `json:"-"`
	LineID            uuid.UUID              `json:"production_line_id"`
	LineName          string                 `json:"line_name"`
	Mode              AllocationMode         `json:"mode"`
	Match             MatchResult            `json:"match"`
	EstimatedHours    float64                `json:"estimated_hours"`
	ChangeoverMinutes float64                `json:"changeover_minutes"`
	Warnings          []string               `json:"warnings,omitempty"`
}

// AllocationPolicy decides which production lines may produce a product and
// ranks them. Resolution between the capability matrix and the legacy
// allowed-products list happens once per line.
type AllocationPolicy struct {
	snap   *Snapshot
	params Params
}

func NewAllocationPolicy(snap *Snapshot, params Params) *AllocationPolicy {
	return &AllocationPolicy{snap: snap, params: params}
}

// EligibleLines returns the lines that may produce quantity units of
// product, ranked best first. trailing maps line ID to the SKU currently at
// the line's tail and feeds the changeover ranking criterion.
func (p *AllocationPolicy) EligibleLines(product *models.Product, quantity int, lines []*models.ProductionLine, trailing map[uuid.UUID]string) ([]Candidate, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", apperrors.ErrValidation, quantity)
	}

	candidates := make([]Candidate, 0, len(lines))
	for _, line := range lines {
		cand, eligible, err := p.evaluateLine(product, quantity, line, trailing[line.ID])
		if err != nil {
			return nil, err
		}
		if eligible {
			candidates = append(candidates, cand)
		}
	}
	rankCandidates(candidates)
	return candidates, nil
}

// MatchProductToLine reports how a line qualifies for a product without
// estimating hours. Used by the matching endpoints.
func (p *AllocationPolicy) MatchProductToLine(product *models.Product, line *models.ProductionLine) (AllocationMode, MatchResult) {
	route := p.snap.ActiveRoute(product.ID)
	caps := p.snap.CapabilitiesByType(line.ID)
	if route != nil && len(caps) > 0 {
		return AllocationCapability, matchRouteToMatrix(route, caps)
	}

	result := MatchResult{IsMatch: true}
	if !line.AllowsProduct(product.SKU) {
		result.IsMatch = false
		result.Reasons = []string{fmt.Sprintf("product %s is not in the line's allowed products", product.SKU)}
	}
	return AllocationLegacy, result
}

func (p *AllocationPolicy) evaluateLine(product *models.Product, quantity int, line *models.ProductionLine, trailingSKU string) (Candidate, bool, error) {
	cand := Candidate{
		Line:              line,
		LineID:            line.ID,
		LineName:          line.Name,
		ChangeoverMinutes: p.params.Changeover(line, trailingSKU, product.SKU),
	}

	route := p.snap.ActiveRoute(product.ID)
	caps := p.snap.CapabilitiesByType(line.ID)
	if route != nil && len(caps) > 0 {
		cand.Mode = AllocationCapability
		cand.Match = matchRouteToMatrix(route, caps)
		if !cand.Match.IsMatch {
			return Candidate{}, false, nil
		}
		est, err := EstimateForLine(route, p.snap.StationsFor(line.ID), line, product, quantity)
		if err != nil {
			return Candidate{}, false, err
		}
		cand.EstimatedHours = est.Hours
		cand.Warnings = est.Warnings
		return cand, true, nil
	}

	cand.Mode = AllocationLegacy
	cand.Match = MatchResult{IsMatch: true}
	if !line.AllowsProduct(product.SKU) {
		return Candidate{}, false, nil
	}
	cand.EstimatedHours = LegacyEstimateHours(product, quantity)
	return cand, true, nil
}

// matchRouteToMatrix checks every route step against the capability entry
// for its equipment type and merges the per-step results.
func matchRouteToMatrix(route *models.ProcessRoute, caps map[string]models.LineCapability) MatchResult {
	merged := MatchResult{IsMatch: true}
	for _, step := range route.StepsInOrder() {
		entry, ok := caps[step.EquipmentType]
		if !ok {
			merged.IsMatch = false
			merged.Reasons = append(merged.Reasons,
				fmt.Sprintf("step %d: line has no capability entry for equipment type %q", step.StepOrder, step.EquipmentType))
			continue
		}

		res := Match(step.RequiredParams, entry.CapabilityParams)
		if !res.IsMatch {
			merged.IsMatch = false
			for _, reason := range res.Reasons {
				merged.Reasons = append(merged.Reasons,
					fmt.Sprintf("step %d (%s): %s", step.StepOrder, step.EquipmentType, reason))
			}
		}
		for param, margin := range res.Headroom {
			if existing, seen := merged.Headroom[param]; !seen || margin < existing {
				if merged.Headroom == nil {
					merged.Headroom = make(map[string]float64)
				}
				merged.Headroom[param] = margin
			}
		}
	}
	return merged
}

// rankCandidates orders candidates best first: capability matches ahead of
// legacy ones, then fewer estimated hours, then more headroom, then cheaper
// changeover. Line ID breaks remaining ties so runs are deterministic.
func rankCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ra, rb := modeRank(a.Mode), modeRank(b.Mode); ra != rb {
			return ra < rb
		}
		if a.EstimatedHours != b.EstimatedHours {
			return a.EstimatedHours < b.EstimatedHours
		}
		if ha, hb := a.Match.MeanHeadroom(), b.Match.MeanHeadroom(); ha != hb {
			return ha > hb
		}
		if a.ChangeoverMinutes != b.ChangeoverMinutes {
			return a.ChangeoverMinutes < b.ChangeoverMinutes
		}
		return a.LineID.String() < b.LineID.String()
	})
}

func modeRank(mode AllocationMode) int {
	if mode == AllocationCapability {
		return 0
	}
	return 1
}
