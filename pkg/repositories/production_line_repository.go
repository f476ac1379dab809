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

// ProductionLineRepository provides data access for production lines.
type ProductionLineRepository interface {
	Create(ctx context.Context, line *models.ProductionLine) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProductionLine, error)
	List(ctx context.Context) ([]*models.ProductionLine, error)
}

type productionLineRepository struct {
	db *database.DB
}

// NewProductionLineRepository creates a new ProductionLineRepository.
func NewProductionLineRepository(db *database.DB) ProductionLineRepository {
	return &productionLineRepository{db: db}
}

var _ ProductionLineRepository = (*productionLineRepository)(nil)

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *productionLineRepository) Create(ctx context.Context, line *models.ProductionLine) error {
	now := time.Now()

	query := `
		INSERT INTO aps_production_lines (
			name, description, capacity_per_hour, efficiency_factor,
			status, allowed_products, changeover_matrix, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		line.Name,
		nullString(line.Description),
		line.CapacityPerHour,
		line.EfficiencyFactor,
		line.Status,
		jsonbValue(line.AllowedProducts),
		jsonbValue(line.ChangeoverMatrix),
		now,
		now,
	).Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		// Check for unique constraint violation (PostgreSQL error code 23505)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create production line: %w", err)
	}

	return nil
}

func (r *productionLineRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProductionLine, error) {
	query := `
		SELECT id, name, description, capacity_per_hour, efficiency_factor,
		       status, allowed_products, changeover_matrix, created_at, updated_at
		FROM aps_production_lines
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	line, err := scanProductionLine(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return line, nil
}

func (r *productionLineRepository) List(ctx context.Context) ([]*models.ProductionLine, error) {
	query := `
		SELECT id, name, description, capacity_per_hour, efficiency_factor,
		       status, allowed_products, changeover_matrix, created_at, updated_at
		FROM aps_production_lines
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query production lines: %w", err)
	}
	defer rows.Close()

	var lines []*models.ProductionLine
	for rows.Next() {
		line, err := scanProductionLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating production lines: %w", err)
	}

	return lines, nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func scanProductionLine(row pgx.Row) (*models.ProductionLine, error) {
	var l models.ProductionLine
	var description *string
	var allowedProducts, changeoverMatrix []byte

	err := row.Scan(
		&l.ID,
		&l.Name,
		&description,
		&l.CapacityPerHour,
		&l.EfficiencyFactor,
		&l.Status,
		&allowedProducts,
		&changeoverMatrix,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan production line: %w", err)
	}

	if description != nil {
		l.Description = *description
	}

	// Unmarshal JSONB fields
	if len(allowedProducts) > 0 && string(allowedProducts) != "null" {
		if err := json.Unmarshal(allowedProducts, &l.AllowedProducts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal allowed_products: %w", err)
		}
	}
	if len(changeoverMatrix) > 0 && string(changeoverMatrix) != "null" {
		if err := json.Unmarshal(changeoverMatrix, &l.ChangeoverMatrix); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changeover_matrix: %w", err)
		}
	}

	return &l, nil
}

// jsonbValue converts a value to JSONB format for database insertion.
// Returns nil for nil/empty collections to store NULL in the database.
func jsonbValue(v any) any {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return nil
		}
		return val
	case map[string]float64:
		if len(val) == 0 {
			return nil
		}
		return val
	case map[string]any:
		if len(val) == 0 {
			return nil
		}
		return val
	case *models.ThroughputRange:
		if val == nil {
			return nil
		}
		return val
	default:
		return v
	}
}
