// Package repositories implements PostgreSQL data access for the scheduling
// domain. All repositories share the injected connection pool and translate
// pgx.ErrNoRows into apperrors.ErrNotFound and unique violations into
// apperrors.ErrConflict.
package repositories

import (
	"context"
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

// ProductRepository provides data access for products.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
}

type productRepository struct {
	db *database.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *database.DB) ProductRepository {
	return &productRepository{db: db}
}

var _ ProductRepository = (*productRepository)(nil)

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now()

	query := `
		INSERT INTO aps_products (
			sku, name, description, standard_cycle_time, setup_time,
			yield_rate, learned_cycle_time, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		product.SKU,
		product.Name,
		nullString(product.Description),
		product.StandardCycleTime,
		product.SetupTime,
		product.YieldRate,
		product.LearnedCycleTime,
		now,
		now,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		// Check for unique constraint violation (PostgreSQL error code 23505)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `
		SELECT id, sku, name, description, standard_cycle_time, setup_time,
		       yield_rate, learned_cycle_time, created_at, updated_at
		FROM aps_products
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	product, err := scanProduct(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return product, nil
}

func (r *productRepository) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	query := `
		SELECT id, sku, name, description, standard_cycle_time, setup_time,
		       yield_rate, learned_cycle_time, created_at, updated_at
		FROM aps_products
		WHERE sku = $1`

	row := r.db.QueryRow(ctx, query, sku)
	product, err := scanProduct(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return product, nil
}

func (r *productRepository) List(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT id, sku, name, description, standard_cycle_time, setup_time,
		       yield_rate, learned_cycle_time, created_at, updated_at
		FROM aps_products
		ORDER BY sku`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	var description *string

	err := row.Scan(
		&p.ID,
		&p.SKU,
		&p.Name,
		&description,
		&p.StandardCycleTime,
		&p.SetupTime,
		&p.YieldRate,
		&p.LearnedCycleTime,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if description != nil {
		p.Description = *description
	}

	return &p, nil
}

// nullString returns nil if the string is empty, otherwise returns the string pointer.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
