package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/apperrors"
	"github.com/craftline/aps-engine/pkg/models"
	"github.com/craftline/aps-engine/pkg/repositories"
)

// LineMatch reports one active production line that covers every required
// equipment type.
type LineMatch struct {
	ProductionLineID   uuid.UUID `json:"production_line_id"`
	ProductionLineName string    `json:"production_line_name"`
	MatchedTypes       []string  `json:"matched_types"`
	AllTypes           []string  `json:"all_types"`
}

// ProductLineMatches is the result of a product-to-line matching query.
type ProductLineMatches struct {
	ProductID      uuid.UUID   `json:"product_id"`
	EquipmentTypes []string    `json:"equipment_types"`
	Lines          []LineMatch `json:"lines"`
}

// CapabilityService manages the per-line capability matrix and answers
// product-to-line matching queries.
type CapabilityService interface {
	Create(ctx context.Context, capability *models.LineCapability) error
	Get(ctx context.Context, id uuid.UUID) (*models.LineCapability, error)

	// List returns capability entries, all lines when lineID is uuid.Nil.
	List(ctx context.Context, lineID uuid.UUID) ([]*models.LineCapability, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// MatchProductToLines returns the active lines whose capability entries
	// cover every required equipment type. When equipmentTypes is empty the
	// types are derived from the product's active process route.
	MatchProductToLines(ctx context.Context, productID uuid.UUID, equipmentTypes []string) (*ProductLineMatches, error)
}

type capabilityService struct {
	capabilities repositories.LineCapabilityRepository
	lines        repositories.ProductionLineRepository
	routes       repositories.ProcessRouteRepository
	products     repositories.ProductRepository
	logger       *zap.Logger
}

// NewCapabilityService creates a new CapabilityService.
func NewCapabilityService(
	capabilities repositories.LineCapabilityRepository,
	lines repositories.ProductionLineRepository,
	routes repositories.ProcessRouteRepository,
	products repositories.ProductRepository,
	logger *zap.Logger,
) CapabilityService {
	return &capabilityService{
		capabilities: capabilities,
		lines:        lines,
		routes:       routes,
		products:     products,
		logger:       logger.Named("capability-service"),
	}
}

var _ CapabilityService = (*capabilityService)(nil)

func (s *capabilityService) Create(ctx context.Context, capability *models.LineCapability) error {
	if err := capability.Validate(); err != nil {
		return err
	}

	// The referenced line must exist.
	if _, err := s.lines.GetByID(ctx, capability.ProductionLineID); err != nil {
		return fmt.Errorf("get production line: %w", err)
	}

	if err := s.capabilities.Create(ctx, capability); err != nil {
		s.logger.Error("Failed to create line capability",
			zap.String("production_line_id", capability.ProductionLineID.String()),
			zap.String("equipment_type", capability.EquipmentType),
			zap.Error(err))
		return fmt.Errorf("create line capability: %w", err)
	}

	s.logger.Info("Created line capability",
		zap.String("capability_id", capability.ID.String()),
		zap.String("production_line_id", capability.ProductionLineID.String()),
		zap.String("equipment_type", capability.EquipmentType))

	return nil
}

func (s *capabilityService) Get(ctx context.Context, id uuid.UUID) (*models.LineCapability, error) {
	capability, err := s.capabilities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get line capability: %w", err)
	}
	return capability, nil
}

func (s *capabilityService) List(ctx context.Context, lineID uuid.UUID) ([]*models.LineCapability, error) {
	entries, err := s.capabilities.List(ctx, lineID)
	if err != nil {
		s.logger.Error("Failed to list line capabilities", zap.Error(err))
		return nil, fmt.Errorf("list line capabilities: %w", err)
	}
	return entries, nil
}

func (s *capabilityService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.capabilities.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete line capability: %w", err)
	}

	s.logger.Info("Deleted line capability", zap.String("capability_id", id.String()))
	return nil
}

func (s *capabilityService) MatchProductToLines(ctx context.Context, productID uuid.UUID, equipmentTypes []string) (*ProductLineMatches, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	required := normalizeEquipmentTypes(equipmentTypes)
	if len(required) == 0 {
		route, err := s.routes.GetActiveByProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %s has no active process route; pass equipment_types explicitly", apperrors.ErrValidation, productID)
			}
			return nil, fmt.Errorf("get active route: %w", err)
		}
		required = routeEquipmentTypes(route)
	}

	lines, err := s.lines.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list production lines: %w", err)
	}

	entries, err := s.capabilities.List(ctx, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("list line capabilities: %w", err)
	}
	typesByLine := make(map[uuid.UUID][]string)
	for _, e := range entries {
		typesByLine[e.ProductionLineID] = append(typesByLine[e.ProductionLineID], e.EquipmentType)
	}

	result := &ProductLineMatches{
		ProductID:      productID,
		EquipmentTypes: required,
		Lines:          []LineMatch{},
	}
	for _, line := range lines {
		if !line.IsActive() {
			continue
		}
		available := typesByLine[line.ID]
		if !coversAll(available, required) {
			continue
		}
		sort.Strings(available)
		result.Lines = append(result.Lines, LineMatch{
			ProductionLineID:   line.ID,
			ProductionLineName: line.Name,
			MatchedTypes:       required,
			AllTypes:           available,
		})
	}

	s.logger.Debug("Matched product to lines",
		zap.String("product_id", productID.String()),
		zap.Strings("equipment_types", required),
		zap.Int("matches", len(result.Lines)))

	return result, nil
}

// normalizeEquipmentTypes trims, deduplicates, and sorts the requested types.
func normalizeEquipmentTypes(types []string) []string {
	seen := make(map[string]bool, len(types))
	var out []string
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// routeEquipmentTypes collects the distinct equipment types a route visits.
func routeEquipmentTypes(route *models.ProcessRoute) []string {
	var types []string
	for _, step := range route.StepsInOrder() {
		types = append(types, step.EquipmentType)
	}
	return normalizeEquipmentTypes(types)
}

func coversAll(available, required []string) bool {
	have := make(map[string]bool, len(available))
	for _, t := range available {
		have[t] = true
	}
	for _, t := range required {
		if !have[t] {
			return false
		}
	}
	return true
}
