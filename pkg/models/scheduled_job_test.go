package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validJob() ScheduledJob {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	return ScheduledJob{
		ID:               uuid.New(),
		OrderItemID:      uuid.New(),
		ProductionLineID: uuid.New(),
		ProductID:        uuid.New(),
		PlannedStart:     start,
		PlannedEnd:       start.Add(2 * time.Hour),
		Quantity:         100,
		ChangeoverTime:   25,
		Status:           JobStatusScheduled,
	}
}

func TestScheduledJob_Validate_OK(t *testing.T) {
	j := validJob()
	assert.NoError(t, j.Validate())
}

func TestScheduledJob_Validate_EndBeforeStart(t *testing.T) {
	j := validJob()
	j.PlannedEnd = j.PlannedStart.Add(-time.Minute)
	assert.Error(t, j.Validate())

	j.PlannedEnd = j.PlannedStart
	assert.Error(t, j.Validate())
}

func TestScheduledJob_Validate_Quantity(t *testing.T) {
	j := validJob()
	j.Quantity = 0
	assert.Error(t, j.Validate())
}

func TestScheduledJob_DurationHours(t *testing.T) {
	j := validJob()
	assert.InDelta(t, 2.0, j.DurationHours(), 1e-9)
}

func TestScheduledJob_IsActivePlan(t *testing.T) {
	j := validJob()
	assert.True(t, j.IsActivePlan())

	j.Status = JobStatusInProgress
	assert.True(t, j.IsActivePlan())

	j.Status = JobStatusSuperseded
	assert.False(t, j.IsActivePlan())

	j.Status = JobStatusCompleted
	assert.False(t, j.IsActivePlan())
}

func TestOrder_IsSchedulable(t *testing.T) {
	o := Order{Status: OrderStatusPending}
	assert.True(t, o.IsSchedulable())

	o.Status = OrderStatusConfirmed
	assert.True(t, o.IsSchedulable())

	o.Status = OrderStatusInProgress
	assert.False(t, o.IsSchedulable())

	o.Status = OrderStatusCancelled
	assert.False(t, o.IsSchedulable())
}

func TestOrder_Validate_PriorityBounds(t *testing.T) {
	o := Order{OrderNo: "ORD-1", CustomerName: "Acme", DueDate: time.Now(), Priority: 0, Status: OrderStatusPending}
	assert.Error(t, o.Validate())

	o.Priority = 6
	assert.Error(t, o.Validate())

	o.Priority = 1
	assert.NoError(t, o.Validate())
}

func TestOrderItem_Validate_Quantity(t *testing.T) {
	i := OrderItem{ProductID: uuid.New(), Quantity: -5}
	assert.Error(t, i.Validate())

	i.Quantity = 10
	assert.NoError(t, i.Validate())
}
