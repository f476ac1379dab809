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

// ProcessRouteRepository provides data access for versioned process routes.
type ProcessRouteRepository interface {
	// CreateVersion inserts the route as the next version for its product and
	// deactivates the previously active version in the same transaction. The
	// route's Version and IsActive fields are overwritten.
	CreateVersion(ctx context.Context, route *models.ProcessRoute) error

	GetActiveByProduct(ctx context.Context, productID uuid.UUID) (*models.ProcessRoute, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.ProcessRoute, error)
	ListActive(ctx context.Context) ([]*models.ProcessRoute, error)
}

type processRouteRepository struct {
	db *database.DB
}

// NewProcessRouteRepository creates a new ProcessRouteRepository.
func NewProcessRouteRepository(db *database.DB) ProcessRouteRepository {
	return &processRouteRepository{db: db}
}

var _ ProcessRouteRepository = (*processRouteRepository)(nil)

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *processRouteRepository) CreateVersion(ctx context.Context, route *models.ProcessRoute) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	now := time.Now()

	var nextVersion int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM aps_process_routes WHERE product_id = $1`,
		route.ProductID,
	).Scan(&nextVersion)
	if err != nil {
		return fmt.Errorf("failed to determine next route version: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE aps_process_routes SET is_active = false, updated_at = $2 WHERE product_id = $1 AND is_active`,
		route.ProductID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate prior route version: %w", err)
	}

	query := `
		INSERT INTO aps_process_routes (
			product_id, version, is_active, steps, source, source_file,
			created_at, updated_at
		) VALUES ($1, $2, true, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		route.ProductID,
		nextVersion,
		route.Steps,
		route.Source,
		nullString(route.SourceFile),
		now,
		now,
	).Scan(&route.ID, &route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		// Check for unique constraint violation (PostgreSQL error code 23505):
		// a concurrent CreateVersion for the same product raced this one.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create process route: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	route.Version = nextVersion
	route.IsActive = true

	return nil
}

func (r *processRouteRepository) GetActiveByProduct(ctx context.Context, productID uuid.UUID) (*models.ProcessRoute, error) {
	query := `
		SELECT id, product_id, version, is_active, steps, source, source_file,
		       created_at, updated_at
		FROM aps_process_routes
		WHERE product_id = $1 AND is_active`

	row := r.db.QueryRow(ctx, query, productID)
	route, err := scanProcessRoute(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return route, nil
}

func (r *processRouteRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.ProcessRoute, error) {
	query := `
		SELECT id, product_id, version, is_active, steps, source, source_file,
		       created_at, updated_at
		FROM aps_process_routes
		WHERE product_id = $1
		ORDER BY version DESC`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query process routes: %w", err)
	}
	defer rows.Close()

	return collectRoutes(rows)
}

func (r *processRouteRepository) ListActive(ctx context.Context) ([]*models.ProcessRoute, error) {
	query := `
		SELECT id, product_id, version, is_active, steps, source, source_file,
		       created_at, updated_at
		FROM aps_process_routes
		WHERE is_active
		ORDER BY product_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query process routes: %w", err)
	}
	defer rows.Close()

	return collectRoutes(rows)
}

// ============================================================================
// Helper Functions
// ============================================================================

func collectRoutes(rows pgx.Rows) ([]*models.ProcessRoute, error) {
	var routes []*models.ProcessRoute
	for rows.Next() {
		route, err := scanProcessRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating process routes: %w", err)
	}

	return routes, nil
}

func scanProcessRoute(row pgx.Row) (*models.ProcessRoute, error) {
	var rt models.ProcessRoute
	var steps []byte
	var sourceFile *string

	err := row.Scan(
		&rt.ID,
		&rt.ProductID,
		&rt.Version,
		&rt.IsActive,
		&steps,
		&rt.Source,
		&sourceFile,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan process route: %w", err)
	}

	if sourceFile != nil {
		rt.SourceFile = *sourceFile
	}

	if len(steps) > 0 && string(steps) != "null" {
		if err := json.Unmarshal(steps, &rt.Steps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal route steps: %w", err)
		}
	}

	return &rt, nil
}
