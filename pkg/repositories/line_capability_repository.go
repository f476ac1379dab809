package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/craftline/aps-engine/pkg/apperrors"
	"github.com/craftline/aps-engine/pkg/database"
	"github.com/craftline/aps-engine/pkg/models"
)

// LineCapabilityRepository provides data access for line capability entries.
type LineCapabilityRepository interface {
	Create(ctx context.Context, capability *models.LineCapability) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LineCapability, error)

	// List returns capability entries, filtered to one line when lineID is
	// non-nil (uuid.Nil lists all lines).
	List(ctx context.Context, lineID uuid.UUID) ([]*models.LineCapability, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

type lineCapabilityRepository struct {
	db *database.DB
}

// NewLineCapabilityRepository creates a new LineCapabilityRepository.
func NewLineCapabilityRepository(db *database.DB) LineCapabilityRepository {
	return &lineCapabilityRepository{db: db}
}

var _ LineCapabilityRepository = (*lineCapabilityRepository)(nil)

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *lineCapabilityRepository) Create(ctx context.Context, capability *models.LineCapability) error {
	now := time.Now()

	query := `
		INSERT INTO aps_line_capabilities (
			production_line_id, equipment_type, capability_params,
			throughput_range, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		capability.ProductionLineID,
		capability.EquipmentType,
		capability.CapabilityParams,
		jsonbValue(capability.ThroughputRange),
		now,
		now,
	).Scan(&capability.ID, &capability.CreatedAt, &capability.UpdatedAt)
	if err != nil {
		// Check for unique constraint violation (PostgreSQL error code 23505)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create line capability: %w", err)
	}

	return nil
}

func (r *lineCapabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LineCapability, error) {
	query := `
		SELECT id, production_line_id, equipment_type, capability_params,
		       throughput_range, created_at, updated_at
		FROM aps_line_capabilities
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	capability, err := scanLineCapability(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return capability, nil
}

func (r *lineCapabilityRepository) List(ctx context.Context, lineID uuid.UUID) ([]*models.LineCapability, error) {
	query := `
		SELECT id, production_line_id, equipment_type, capability_params,
		       throughput_range, created_at, updated_at
		FROM aps_line_capabilities`

	var args []any
	if lineID != uuid.Nil {
		query += ` WHERE production_line_id = $1`
		args = append(args, lineID)
	}
	query += ` ORDER BY production_line_id, equipment_type`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query line capabilities: %w", err)
	}
	defer rows.Close()

	var capabilities []*models.LineCapability
	for rows.Next() {
		capability, err := scanLineCapability(rows)
		if err != nil {
			return nil, err
		}
		capabilities = append(capabilities, capability)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line capabilities: %w", err)
	}

	return capabilities, nil
}

func (r *lineCapabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM aps_line_capabilities WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete line capability: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func scanLineCapability(row pgx.Row) (*models.LineCapability, error) {
	var c models.LineCapability
	var params, throughput []byte

	err := row.Scan(
		&c.ID,
		&c.ProductionLineID,
		&c.EquipmentType,
		&params,
		&throughput,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan line capability: %w", err)
	}

	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, &c.CapabilityParams); err != nil {
			return nil, fmt.Errorf("failed to unmarshal capability_params: %w", err)
		}
	}
	if len(throughput) > 0 && string(throughput) != "null" {
		if err := json.Unmarshal(throughput, &c.ThroughputRange); err != nil {
			return nil, fmt.Errorf("failed to unmarshal throughput_range: %w", err)
		}
	}

	return &c, nil
}
