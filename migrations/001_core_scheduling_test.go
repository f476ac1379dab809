//go:build integration

package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftline/aps-engine/pkg/testhelpers"
)

// Test_001_CoreScheduling verifies migration 001 creates the core scheduling tables correctly
func Test_001_CoreScheduling(t *testing.T) {
	schedDB := testhelpers.GetSchedulerDB(t)
	ctx := context.Background()

	// Verify all core tables exist
	tables := []string{
		"aps_products",
		"aps_production_lines",
		"aps_orders",
		"aps_order_items",
		"aps_scheduled_jobs",
	}

	for _, table := range tables {
		var tableExists bool
		err := schedDB.DB.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public'
				AND table_name = $1
			)
		`, table).Scan(&tableExists)
		require.NoError(t, err)
		assert.True(t, tableExists, "%s table should exist", table)
	}

	// Verify key product columns exist with correct types
	productColumns := map[string]string{
		"id":                  "uuid",
		"sku":                 "text",
		"name":                "text",
		"standard_cycle_time": "double precision",
		"setup_time":          "double precision",
		"yield_rate":          "double precision",
		"learned_cycle_time":  "double precision",
		"created_at":          "timestamp with time zone",
		"updated_at":          "timestamp with time zone",
	}

	for colName, expectedType := range productColumns {
		var dataType string
		err := schedDB.DB.QueryRow(ctx, `
			SELECT data_type
			FROM information_schema.columns
			WHERE table_name = 'aps_products'
			AND column_name = $1
		`, colName).Scan(&dataType)
		require.NoError(t, err, "Column %s should exist", colName)
		assert.Equal(t, expectedType, dataType, "Column %s should have type %s", colName, expectedType)
	}

	// Verify the line compatibility columns are jsonb
	lineColumns := map[string]string{
		"allowed_products":  "jsonb",
		"changeover_matrix": "jsonb",
		"capacity_per_hour": "double precision",
		"efficiency_factor": "double precision",
		"status":            "text",
	}

	for colName, expectedType := range lineColumns {
		var dataType string
		err := schedDB.DB.QueryRow(ctx, `
			SELECT data_type
			FROM information_schema.columns
			WHERE table_name = 'aps_production_lines'
			AND column_name = $1
		`, colName).Scan(&dataType)
		require.NoError(t, err, "Column %s should exist", colName)
		assert.Equal(t, expectedType, dataType, "Column %s should have type %s", colName, expectedType)
	}

	// Verify item columns
	itemColumns := map[string]string{
		"order_id":   "uuid",
		"product_id": "uuid",
		"item_no":    "integer",
		"quantity":   "integer",
	}

	for colName, expectedType := range itemColumns {
		var dataType string
		err := schedDB.DB.QueryRow(ctx, `
			SELECT data_type
			FROM information_schema.columns
			WHERE table_name = 'aps_order_items'
			AND column_name = $1
		`, colName).Scan(&dataType)
		require.NoError(t, err, "Column %s should exist", colName)
		assert.Equal(t, expectedType, dataType, "Column %s should have type %s", colName, expectedType)
	}

	// Verify job window columns
	jobColumns := map[string]string{
		"order_item_id":      "uuid",
		"production_line_id": "uuid",
		"product_id":         "uuid",
		"planned_start":      "timestamp with time zone",
		"planned_end":        "timestamp with time zone",
		"quantity":           "integer",
		"changeover_time":    "double precision",
		"status":             "text",
	}

	for colName, expectedType := range jobColumns {
		var dataType string
		err := schedDB.DB.QueryRow(ctx, `
			SELECT data_type
			FROM information_schema.columns
			WHERE table_name = 'aps_scheduled_jobs'
			AND column_name = $1
		`, colName).Scan(&dataType)
		require.NoError(t, err, "Column %s should exist", colName)
		assert.Equal(t, expectedType, dataType, "Column %s should have type %s", colName, expectedType)
	}

	// Verify order priority defaults to lowest (5)
	var priorityDefault string
	err := schedDB.DB.QueryRow(ctx, `
		SELECT column_default
		FROM information_schema.columns
		WHERE table_name = 'aps_orders'
		AND column_name = 'priority'
	`).Scan(&priorityDefault)
	require.NoError(t, err)
	assert.Contains(t, priorityDefault, "5", "Priority column should default to 5")

	// Verify job status defaults to 'scheduled'
	var statusDefault string
	err = schedDB.DB.QueryRow(ctx, `
		SELECT column_default
		FROM information_schema.columns
		WHERE table_name = 'aps_scheduled_jobs'
		AND column_name = 'status'
	`).Scan(&statusDefault)
	require.NoError(t, err)
	assert.Contains(t, statusDefault, "scheduled", "Job status should default to 'scheduled'")

	// Verify the plan lookup indexes exist
	indexes := []struct {
		table string
		name  string
	}{
		{"aps_orders", "idx_orders_status_due"},
		{"aps_order_items", "idx_order_items_order"},
		{"aps_order_items", "idx_order_items_product"},
		{"aps_scheduled_jobs", "idx_scheduled_jobs_line_start"},
		{"aps_scheduled_jobs", "idx_scheduled_jobs_item"},
		{"aps_scheduled_jobs", "idx_scheduled_jobs_status"},
	}

	for _, idx := range indexes {
		var indexExists bool
		err := schedDB.DB.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT FROM pg_indexes
				WHERE tablename = $1
				AND indexname = $2
			)
		`, idx.table, idx.name).Scan(&indexExists)
		require.NoError(t, err)
		assert.True(t, indexExists, "Index %s should exist", idx.name)
	}

	// Verify unique constraints on sku and order_no
	for _, table := range []string{"aps_products", "aps_orders"} {
		var uniqueExists bool
		err := schedDB.DB.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT FROM pg_constraint c
				JOIN pg_class t ON c.conrelid = t.oid
				WHERE t.relname = $1
				AND c.contype = 'u'
			)
		`, table).Scan(&uniqueExists)
		require.NoError(t, err)
		assert.True(t, uniqueExists, "Unique constraint on %s should exist", table)
	}
}
