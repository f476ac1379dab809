// Package planning implements the scheduling core: capability matching,
// bottleneck estimation, line allocation, the three-phase scheduling engine,
// and the rush-order simulator. Everything here is pure computation over an
// immutable Snapshot; persistence and transport live elsewhere.
package planning

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/craftline/aps-engine/pkg/models"
)

// Snapshot is the immutable input to a scheduling or simulation run. Reference
// data is loaded once per run; engines never mutate it, so one snapshot can
// serve concurrent simulations without locking.
type Snapshot struct {
	Products     []models.Product
	Lines        []models.ProductionLine
	Stations     map[uuid.UUID][]models.ProcessStation // by line ID, in station order
	Routes       map[uuid.UUID]*models.ProcessRoute    // active route by product ID
	Capabilities map[uuid.UUID][]models.LineCapability // by line ID
	Orders       []models.Order                        // schedulable orders with items
	Jobs         []models.ScheduledJob                 // current active plan
}

// ProductByID returns the product with the given ID, or nil.
func (s *Snapshot) ProductByID(id uuid.UUID) *models.Product {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return &s.Products[i]
		}
	}
	return nil
}

// LineByID returns the production line with the given ID, or nil.
func (s *Snapshot) LineByID(id uuid.UUID) *models.ProductionLine {
	for i := range s.Lines {
		if s.Lines[i].ID == id {
			return &s.Lines[i]
		}
	}
	return nil
}

// ActiveLines returns the lines that can take new work.
func (s *Snapshot) ActiveLines() []*models.ProductionLine {
	var active []*models.ProductionLine
	for i := range s.Lines {
		if s.Lines[i].IsActive() {
			active = append(active, &s.Lines[i])
		}
	}
	return active
}

// ActiveRoute returns the active process route for a product, or nil when the
// product is scheduled with legacy product-level estimates.
func (s *Snapshot) ActiveRoute(productID uuid.UUID) *models.ProcessRoute {
	return s.Routes[productID]
}

// StationsFor returns the stations of a line in station order.
func (s *Snapshot) StationsFor(lineID uuid.UUID) []models.ProcessStation {
	return s.Stations[lineID]
}

// CapabilitiesByType indexes a line's capability matrix by equipment type.
func (s *Snapshot) CapabilitiesByType(lineID uuid.UUID) map[string]models.LineCapability {
	entries := s.Capabilities[lineID]
	if len(entries) == 0 {
		return nil
	}
	byType := make(map[string]models.LineCapability, len(entries))
	for _, e := range entries {
		byType[e.EquipmentType] = e
	}
	return byType
}

// JobsOnLine returns the active-plan jobs on a line sorted by planned start.
func (s *Snapshot) JobsOnLine(lineID uuid.UUID) []models.ScheduledJob {
	var jobs []models.ScheduledJob
	for _, j := range s.Jobs {
		if j.ProductionLineID == lineID {
			jobs = append(jobs, j)
		}
	}
	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].PlannedStart.Equal(jobs[k].PlannedStart) {
			return jobs[i].ID.String() < jobs[k].ID.String()
		}
		return jobs[i].PlannedStart.Before(jobs[k].PlannedStart)
	})
	return jobs
}

// JobSKU resolves the SKU of the product a job produces, or "".
func (s *Snapshot) JobSKU(job *models.ScheduledJob) string {
	if p := s.ProductByID(job.ProductID); p != nil {
		return p.SKU
	}
	return ""
}

// LineTail returns when a line becomes free: the latest planned end among its
// active-plan jobs, or fallback when the line is idle.
func (s *Snapshot) LineTail(lineID uuid.UUID, fallback time.Time) time.Time {
	tail := fallback
	for _, j := range s.Jobs {
		if j.ProductionLineID == lineID && j.PlannedEnd.After(tail) {
			tail = j.PlannedEnd
		}
	}
	return tail
}
