// Package seed loads an embedded demo dataset through the regular
// repositories, so every row passes the same validation as API input. The
// dataset models a small electronics plant: two SMT lines, two assembly
// lines, six products with routes, and ten open orders.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/craftline/aps-engine/pkg/models"
	"github.com/craftline/aps-engine/pkg/repositories"
)

//go:embed demo_data.yaml
var demoDataYAML []byte

type demoData struct {
	Products        []productEntry `yaml:"products"`
	ProductionLines []lineEntry    `yaml:"production_lines"`
	ProcessRoutes   []routeEntry   `yaml:"process_routes"`
	Orders          []orderEntry   `yaml:"orders"`
}

type productEntry struct {
	SKU               string  `yaml:"sku"`
	Name              string  `yaml:"name"`
	Description       string  `yaml:"description"`
	StandardCycleTime float64 `yaml:"standard_cycle_time"`
	SetupTime         float64 `yaml:"setup_time"`
	YieldRate         float64 `yaml:"yield_rate"`
}

type lineEntry struct {
	Name             string             `yaml:"name"`
	Description      string             `yaml:"description"`
	CapacityPerHour  float64            `yaml:"capacity_per_hour"`
	EfficiencyFactor float64            `yaml:"efficiency_factor"`
	Status           string             `yaml:"status"`
	AllowedProducts  []string           `yaml:"allowed_products"`
	ChangeoverMatrix map[string]float64 `yaml:"changeover_matrix"`
	Stations         []stationEntry     `yaml:"stations"`
	Capabilities     []capabilityEntry  `yaml:"capabilities"`
}

type stationEntry struct {
	Name              string  `yaml:"name"`
	StationOrder      int     `yaml:"station_order"`
	EquipmentType     string  `yaml:"equipment_type"`
	StandardCycleTime float64 `yaml:"standard_cycle_time"`
}

type capabilityEntry struct {
	EquipmentType    string         `yaml:"equipment_type"`
	CapabilityParams map[string]any `yaml:"capability_params"`
}

type routeEntry struct {
	SKU   string      `yaml:"sku"`
	Steps []stepEntry `yaml:"steps"`
}

type stepEntry struct {
	StepOrder          int     `yaml:"step_order"`
	EquipmentType      string  `yaml:"equipment_type"`
	EstimatedCycleTime float64 `yaml:"estimated_cycle_time"`
}

type orderEntry struct {
	OrderNo      string      `yaml:"order_no"`
	CustomerName string      `yaml:"customer_name"`
	DueInDays    int         `yaml:"due_in_days"`
	Priority     int         `yaml:"priority"`
	Status       string      `yaml:"status"`
	Notes        string      `yaml:"notes"`
	Items        []itemEntry `yaml:"items"`
}

type itemEntry struct {
	SKU      string `yaml:"sku"`
	Quantity int    `yaml:"quantity"`
}

// Counts reports how many rows of each kind a load inserted.
type Counts struct {
	Products         int `json:"products"`
	ProductionLines  int `json:"production_lines"`
	ProcessStations  int `json:"process_stations"`
	LineCapabilities int `json:"line_capabilities"`
	ProcessRoutes    int `json:"process_routes"`
	Orders           int `json:"orders"`
	OrderItems       int `json:"order_items"`
}

// Loader inserts the demo dataset.
type Loader struct {
	products     repositories.ProductRepository
	lines        repositories.ProductionLineRepository
	stations     repositories.ProcessStationRepository
	routes       repositories.ProcessRouteRepository
	capabilities repositories.LineCapabilityRepository
	orders       repositories.OrderRepository
	logger       *zap.Logger
}

// NewLoader creates a Loader over the given repositories.
func NewLoader(
	products repositories.ProductRepository,
	lines repositories.ProductionLineRepository,
	stations repositories.ProcessStationRepository,
	routes repositories.ProcessRouteRepository,
	capabilities repositories.LineCapabilityRepository,
	orders repositories.OrderRepository,
	logger *zap.Logger,
) *Loader {
	return &Loader{
		products:     products,
		lines:        lines,
		stations:     stations,
		routes:       routes,
		capabilities: capabilities,
		orders:       orders,
		logger:       logger,
	}
}

// LoadIfEmpty loads the demo dataset unless products already exist. It
// returns nil counts when the database already holds data.
func (l *Loader) LoadIfEmpty(ctx context.Context, now time.Time) (*Counts, error) {
	existing, err := l.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking for existing products: %w", err)
	}
	if len(existing) > 0 {
		l.logger.Info("Demo data load skipped, products already present",
			zap.Int("existing_products", len(existing)))
		return nil, nil
	}
	return l.Load(ctx, now)
}

// Load inserts the full demo dataset. Order due dates are materialized
// relative to now. The load is not transactional across entities; it is
// meant for a fresh database.
func (l *Loader) Load(ctx context.Context, now time.Time) (*Counts, error) {
	var data demoData
	if err := yaml.Unmarshal(demoDataYAML, &data); err != nil {
		return nil, fmt.Errorf("parsing embedded demo data: %w", err)
	}

	counts := &Counts{}

	productIDs, err := l.loadProducts(ctx, data.Products, counts)
	if err != nil {
		return counts, err
	}
	if err := l.loadProductionLines(ctx, data.ProductionLines, counts); err != nil {
		return counts, err
	}
	if err := l.loadProcessRoutes(ctx, data.ProcessRoutes, productIDs, counts); err != nil {
		return counts, err
	}
	if err := l.loadOrders(ctx, data.Orders, productIDs, now, counts); err != nil {
		return counts, err
	}

	l.logger.Info("Demo data loaded",
		zap.Int("products", counts.Products),
		zap.Int("production_lines", counts.ProductionLines),
		zap.Int("process_stations", counts.ProcessStations),
		zap.Int("line_capabilities", counts.LineCapabilities),
		zap.Int("process_routes", counts.ProcessRoutes),
		zap.Int("orders", counts.Orders),
		zap.Int("order_items", counts.OrderItems))
	return counts, nil
}

func (l *Loader) loadProducts(ctx context.Context, entries []productEntry, counts *Counts) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID, len(entries))
	for _, entry := range entries {
		product := &models.Product{
			SKU:               entry.SKU,
			Name:              entry.Name,
			Description:       entry.Description,
			StandardCycleTime: entry.StandardCycleTime,
			SetupTime:         entry.SetupTime,
			YieldRate:         entry.YieldRate,
		}
		if err := product.Validate(); err != nil {
			return nil, fmt.Errorf("product %s: %w", entry.SKU, err)
		}
		if err := l.products.Create(ctx, product); err != nil {
			return nil, fmt.Errorf("creating product %s: %w", entry.SKU, err)
		}
		ids[entry.SKU] = product.ID
		counts.Products++
	}
	return ids, nil
}

func (l *Loader) loadProductionLines(ctx context.Context, entries []lineEntry, counts *Counts) error {
	for _, entry := range entries {
		status := models.LineStatus(entry.Status)
		if entry.Status == "" {
			status = models.LineStatusActive
		}
		line := &models.ProductionLine{
			Name:             entry.Name,
			Description:      entry.Description,
			CapacityPerHour:  entry.CapacityPerHour,
			EfficiencyFactor: entry.EfficiencyFactor,
			Status:           status,
			AllowedProducts:  entry.AllowedProducts,
			ChangeoverMatrix: entry.ChangeoverMatrix,
		}
		if err := line.Validate(); err != nil {
			return fmt.Errorf("production line %s: %w", entry.Name, err)
		}
		if err := l.lines.Create(ctx, line); err != nil {
			return fmt.Errorf("creating production line %s: %w", entry.Name, err)
		}
		counts.ProductionLines++

		stations := make([]models.ProcessStation, len(entry.Stations))
		for i, se := range entry.Stations {
			stations[i] = models.ProcessStation{
				ProductionLineID:  line.ID,
				Name:              se.Name,
				StationOrder:      se.StationOrder,
				EquipmentType:     se.EquipmentType,
				StandardCycleTime: se.StandardCycleTime,
				Status:            models.StationStatusActive,
			}
			if err := stations[i].Validate(); err != nil {
				return fmt.Errorf("station %s on %s: %w", se.Name, entry.Name, err)
			}
		}
		if err := models.ValidateStationSequence(stations); err != nil {
			return fmt.Errorf("stations on %s: %w", entry.Name, err)
		}
		for i := range stations {
			if err := l.stations.Create(ctx, &stations[i]); err != nil {
				return fmt.Errorf("creating station %s on %s: %w", stations[i].Name, entry.Name, err)
			}
			counts.ProcessStations++
		}

		for _, ce := range entry.Capabilities {
			capability := &models.LineCapability{
				ProductionLineID: line.ID,
				EquipmentType:    ce.EquipmentType,
				CapabilityParams: ce.CapabilityParams,
			}
			if err := capability.Validate(); err != nil {
				return fmt.Errorf("capability %s on %s: %w", ce.EquipmentType, entry.Name, err)
			}
			if err := l.capabilities.Create(ctx, capability); err != nil {
				return fmt.Errorf("creating capability %s on %s: %w", ce.EquipmentType, entry.Name, err)
			}
			counts.LineCapabilities++
		}
	}
	return nil
}

func (l *Loader) loadProcessRoutes(ctx context.Context, entries []routeEntry, productIDs map[string]uuid.UUID, counts *Counts) error {
	for _, entry := range entries {
		productID, ok := productIDs[entry.SKU]
		if !ok {
			return fmt.Errorf("route references unknown product sku %q", entry.SKU)
		}
		steps := make([]models.RouteStep, len(entry.Steps))
		for i, se := range entry.Steps {
			steps[i] = models.RouteStep{
				StepOrder:          se.StepOrder,
				EquipmentType:      se.EquipmentType,
				EstimatedCycleTime: se.EstimatedCycleTime,
			}
		}
		route := &models.ProcessRoute{
			ProductID: productID,
			Version:   1, // CreateVersion assigns the real version
			Steps:     steps,
			Source:    models.RouteSourceManual,
		}
		if err := route.Validate(); err != nil {
			return fmt.Errorf("route for %s: %w", entry.SKU, err)
		}
		if err := l.routes.CreateVersion(ctx, route); err != nil {
			return fmt.Errorf("creating route for %s: %w", entry.SKU, err)
		}
		counts.ProcessRoutes++
	}
	return nil
}

func (l *Loader) loadOrders(ctx context.Context, entries []orderEntry, productIDs map[string]uuid.UUID, now time.Time, counts *Counts) error {
	for _, entry := range entries {
		items := make([]models.OrderItem, len(entry.Items))
		for i, ie := range entry.Items {
			productID, ok := productIDs[ie.SKU]
			if !ok {
				return fmt.Errorf("order %s references unknown product sku %q", entry.OrderNo, ie.SKU)
			}
			items[i] = models.OrderItem{
				ProductID: productID,
				Quantity:  ie.Quantity,
			}
		}

		priority := entry.Priority
		if priority == 0 {
			priority = models.DefaultPriority
		}
		status := models.OrderStatus(entry.Status)
		if entry.Status == "" {
			status = models.OrderStatusPending
		}

		order := &models.Order{
			OrderNo:      entry.OrderNo,
			CustomerName: entry.CustomerName,
			DueDate:      now.AddDate(0, 0, entry.DueInDays),
			Priority:     priority,
			Status:       status,
			Notes:        entry.Notes,
			Items:        items,
		}
		if err := order.Validate(); err != nil {
			return fmt.Errorf("order %s: %w", entry.OrderNo, err)
		}
		if err := l.orders.Create(ctx, order); err != nil {
			return fmt.Errorf("creating order %s: %w", entry.OrderNo, err)
		}
		counts.Orders++
		counts.OrderItems += len(items)
	}
	return nil
}
