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

// ProcessStationRepository provides data access for process stations.
type ProcessStationRepository interface {
	Create(ctx context.Context, station *models.ProcessStation) error
	ListByLine(ctx context.Context, lineID uuid.UUID) ([]*models.ProcessStation, error)
	ListAll(ctx context.Context) ([]*models.ProcessStation, error)
}

type processStationRepository struct {
	db *database.DB
}

// NewProcessStationRepository creates a new ProcessStationRepository.
func NewProcessStationRepository(db *database.DB) ProcessStationRepository {
	return &processStationRepository{db: db}
}

var _ ProcessStationRepository = (*processStationRepository)(nil)

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *processStationRepository) Create(ctx context.Context, station *models.ProcessStation) error {
	now := time.Now()

	query := `
		INSERT INTO aps_process_stations (
			production_line_id, name, station_order, equipment_type,
			standard_cycle_time, actual_cycle_time, capabilities, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		station.ProductionLineID,
		station.Name,
		station.StationOrder,
		station.EquipmentType,
		station.StandardCycleTime,
		station.ActualCycleTime,
		jsonbValue(station.Capabilities),
		station.Status,
		now,
		now,
	).Scan(&station.ID, &station.CreatedAt, &station.UpdatedAt)
	if err != nil {
		// Check for unique constraint violation (PostgreSQL error code 23505)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create process station: %w", err)
	}

	return nil
}

func (r *processStationRepository) ListByLine(ctx context.Context, lineID uuid.UUID) ([]*models.ProcessStation, error) {
	query := `
		SELECT id, production_line_id, name, station_order, equipment_type,
		       standard_cycle_time, actual_cycle_time, capabilities, status,
		       created_at, updated_at
		FROM aps_process_stations
		WHERE production_line_id = $1
		ORDER BY station_order`

	rows, err := r.db.Query(ctx, query, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to query process stations: %w", err)
	}
	defer rows.Close()

	return collectStations(rows)
}

func (r *processStationRepository) ListAll(ctx context.Context) ([]*models.ProcessStation, error) {
	query := `
		SELECT id, production_line_id, name, station_order, equipment_type,
		       standard_cycle_time, actual_cycle_time, capabilities, status,
		       created_at, updated_at
		FROM aps_process_stations
		ORDER BY production_line_id, station_order`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query process stations: %w", err)
	}
	defer rows.Close()

	return collectStations(rows)
}

// ============================================================================
// Helper Functions
// ============================================================================

func collectStations(rows pgx.Rows) ([]*models.ProcessStation, error) {
	var stations []*models.ProcessStation
	for rows.Next() {
		station, err := scanProcessStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating process stations: %w", err)
	}

	return stations, nil
}

func scanProcessStation(row pgx.Row) (*models.ProcessStation, error) {
	var s models.ProcessStation
	var capabilities []byte

	err := row.Scan(
		&s.ID,
		&s.ProductionLineID,
		&s.Name,
		&s.StationOrder,
		&s.EquipmentType,
		&s.StandardCycleTime,
		&s.ActualCycleTime,
		&capabilities,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan process station: %w", err)
	}

	if len(capabilities) > 0 && string(capabilities) != "null" {
		if err := json.Unmarshal(capabilities, &s.Capabilities); err != nil {
			return nil, fmt.Errorf("failed to unmarshal capabilities: %w", err)
		}
	}

	return &s, nil
}
