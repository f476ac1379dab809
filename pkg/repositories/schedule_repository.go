package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/craftline/aps-engine/pkg/database"
	"github.com/craftline/aps-engine/pkg/models"
)

// ScheduleFilter narrows the current-schedule view.
type ScheduleFilter struct {
	Status           models.JobStatus // empty means the active plan statuses
	ProductionLineID uuid.UUID        // uuid.Nil means all lines
	Limit            int              // <= 0 means no limit
	Offset           int
}

// ScheduleRepository provides data access for scheduled jobs.
type ScheduleRepository interface {
	// ReplacePlan atomically commits a scheduling run: prior scheduled jobs
	// for the affected order items are marked superseded and the new jobs
	// inserted, all in one transaction. In-progress jobs are left untouched.
	ReplacePlan(ctx context.Context, jobs []*models.ScheduledJob) error

	ListCurrent(ctx context.Context, filter ScheduleFilter) ([]*models.ScheduledJob, error)

	// ListActivePlan returns every scheduled and in-progress job, the job
	// snapshot a planning run starts from.
	ListActivePlan(ctx context.Context) ([]*models.ScheduledJob, error)
}

type scheduleRepository struct {
	db *database.DB
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(db *database.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

var _ ScheduleRepository = (*scheduleRepository)(nil)

// ============================================================================
// Plan Operations
// ============================================================================

func (r *scheduleRepository) ReplacePlan(ctx context.Context, jobs []*models.ScheduledJob) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	now := time.Now()

	seen := make(map[uuid.UUID]bool)
	var itemIDs []uuid.UUID
	for _, job := range jobs {
		if !seen[job.OrderItemID] {
			seen[job.OrderItemID] = true
			itemIDs = append(itemIDs, job.OrderItemID)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE aps_scheduled_jobs
		SET status = 'superseded', updated_at = $2
		WHERE order_item_id = ANY($1) AND status = 'scheduled'`,
		itemIDs, now,
	)
	if err != nil {
		return fmt.Errorf("failed to supersede prior jobs: %w", err)
	}

	query := `
		INSERT INTO aps_scheduled_jobs (
			order_item_id, production_line_id, product_id, planned_start,
			planned_end, quantity, changeover_time, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	for _, job := range jobs {
		err = tx.QueryRow(ctx, query,
			job.OrderItemID,
			job.ProductionLineID,
			job.ProductID,
			job.PlannedStart,
			job.PlannedEnd,
			job.Quantity,
			job.ChangeoverTime,
			job.Status,
			nullString(job.Notes),
			now,
			now,
		).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert scheduled job: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *scheduleRepository) ListCurrent(ctx context.Context, filter ScheduleFilter) ([]*models.ScheduledJob, error) {
	statuses := make([]string, 0, len(models.ActivePlanStatuses))
	if filter.Status != "" {
		statuses = append(statuses, string(filter.Status))
	} else {
		for _, s := range models.ActivePlanStatuses {
			statuses = append(statuses, string(s))
		}
	}

	query := `
		SELECT id, order_item_id, production_line_id, product_id, planned_start,
		       planned_end, quantity, changeover_time, status, notes,
		       created_at, updated_at
		FROM aps_scheduled_jobs
		WHERE status = ANY($1)`

	args := []any{statuses}
	argIdx := 2

	if filter.ProductionLineID != uuid.Nil {
		query += fmt.Sprintf(` AND production_line_id = $%d`, argIdx)
		args = append(args, filter.ProductionLineID)
		argIdx++
	}

	query += ` ORDER BY planned_start, id`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

func (r *scheduleRepository) ListActivePlan(ctx context.Context) ([]*models.ScheduledJob, error) {
	statuses := make([]string, len(models.ActivePlanStatuses))
	for i, s := range models.ActivePlanStatuses {
		statuses[i] = string(s)
	}

	query := `
		SELECT id, order_item_id, production_line_id, product_id, planned_start,
		       planned_end, quantity, changeover_time, status, notes,
		       created_at, updated_at
		FROM aps_scheduled_jobs
		WHERE status = ANY($1)
		ORDER BY production_line_id, planned_start`

	rows, err := r.db.Query(ctx, query, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ============================================================================
// Helper Functions
// ============================================================================

func collectJobs(rows pgx.Rows) ([]*models.ScheduledJob, error) {
	var jobs []*models.ScheduledJob
	for rows.Next() {
		job, err := scanScheduledJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled jobs: %w", err)
	}

	return jobs, nil
}

func scanScheduledJob(row pgx.Row) (*models.ScheduledJob, error) {
	var j models.ScheduledJob
	var notes *string

	err := row.Scan(
		&j.ID,
		&j.OrderItemID,
		&j.ProductionLineID,
		&j.ProductID,
		&j.PlannedStart,
		&j.PlannedEnd,
		&j.Quantity,
		&j.ChangeoverTime,
		&j.Status,
		&notes,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan scheduled job: %w", err)
	}

	if notes != nil {
		j.Notes = *notes
	}

	return &j, nil
}
