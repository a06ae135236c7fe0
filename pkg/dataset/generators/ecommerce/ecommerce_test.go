package ecommerce

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/models"
	"github.com/ajitpratap0/lakegen/pkg/partition"
)

func smallConfig() Config {
	return Config{
		Seed:           7,
		NCustomers:     50,
		NProducts:      20,
		OrdersPerDay:   25,
		OrderItemsMean: 2.0,
		StartDate:      partition.Date(2023, time.January, 1),
		EndDate:        partition.Date(2023, time.January, 3),
		FileRowsTarget: 10,
	}
}

func collect(t *testing.T, g *Generator, table string) []*models.Batch {
	t.Helper()
	stream, err := g.Batches(context.Background(), table)
	require.NoError(t, err)
	var out []*models.Batch
	for b := range stream.Batches {
		out = append(out, b)
	}
	require.NoError(t, <-stream.Errors)
	return out
}

func allRecords(batches []*models.Batch) []*models.Record {
	var out []*models.Record
	for _, b := range batches {
		out = append(out, b.Records...)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative customers", func(c *Config) { c.NCustomers = -1 }},
		{"negative products", func(c *Config) { c.NProducts = -1 }},
		{"inverted date range", func(c *Config) {
			c.StartDate = partition.Date(2023, time.February, 1)
			c.EndDate = partition.Date(2023, time.January, 1)
		}},
		{"non-positive items mean", func(c *Config) { c.OrderItemsMean = -0.5 }},
		{"bad partitioning", func(c *Config) { c.Partitioning = "weekly" }},
		{"bad orders mode", func(c *Config) { c.OrdersMode = "burst" }},
		{"negative floor", func(c *Config) { c.OrdersFloor = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}

	t.Run("range mode bounds ordered", func(t *testing.T) {
		cfg := smallConfig()
		cfg.OrdersMode = OrdersModeRange
		lo, hi := 30, 20
		cfg.OrdersMin, cfg.OrdersMax = &lo, &hi
		_, err := New(cfg)
		assert.Error(t, err)
	})
}

func TestTables(t *testing.T) {
	g, err := New(smallConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "products", "orders", "order_items"}, g.Tables())
}

func TestPartitionSpec(t *testing.T) {
	g, err := New(smallConfig())
	require.NoError(t, err)

	assert.Nil(t, g.PartitionSpec("customers"))
	assert.Nil(t, g.PartitionSpec("products"))
	require.NotNil(t, g.PartitionSpec("orders"))
	require.NotNil(t, g.PartitionSpec("order_items"))

	// Default layout is year/month.
	assert.Equal(t,
		[]partition.Column{partition.ColumnYear, partition.ColumnMonth},
		g.PartitionSpec("orders").Columns)
}

func TestPartitioningModes(t *testing.T) {
	tests := []struct {
		mode Partitioning
		want []partition.Column
	}{
		{PartitioningYMD, []partition.Column{partition.ColumnYear, partition.ColumnMonth, partition.ColumnDay}},
		{PartitioningYM, []partition.Column{partition.ColumnYear, partition.ColumnMonth}},
		{PartitioningYearMonth, []partition.Column{partition.ColumnYearMonth}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := smallConfig()
			cfg.Partitioning = tt.mode
			g, err := New(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.PartitionSpec("orders").Columns)

			sch, err := g.Schema("orders")
			require.NoError(t, err)
			for _, c := range tt.want {
				_, ok := sch.Field(string(c))
				assert.True(t, ok, string(c))
			}
		})
	}
}

func TestMasterTablesSingleBatch(t *testing.T) {
	g, err := New(smallConfig())
	require.NoError(t, err)

	customers := collect(t, g, "customers")
	require.Len(t, customers, 1)
	assert.Equal(t, 50, customers[0].Rows())

	products := collect(t, g, "products")
	require.Len(t, products, 1)
	assert.Equal(t, 20, products[0].Rows())

	sch, err := g.Schema("customers")
	require.NoError(t, err)
	assert.NoError(t, sch.Validate(customers[0]))
}

func TestOrdersFixedMode(t *testing.T) {
	g, err := New(smallConfig())
	require.NoError(t, err)

	batches := collect(t, g, "orders")
	records := allRecords(batches)
	// 25 orders per day over 3 days.
	assert.Len(t, records, 75)

	// File rows target of 10 splits each day into 10+10+5.
	require.Len(t, batches, 9)
	assert.Equal(t, 10, batches[0].Rows())
	assert.Equal(t, 5, batches[2].Rows())

	sch, err := g.Schema("orders")
	require.NoError(t, err)
	for _, b := range batches {
		require.NoError(t, sch.Validate(b))
	}

	t.Run("order ids are dense and increasing", func(t *testing.T) {
		for i, rec := range records {
			id, ok := rec.Int("order_id")
			require.True(t, ok)
			assert.Equal(t, int64(i+1), id)
		}
	})

	t.Run("customer ids reference master rows", func(t *testing.T) {
		for _, rec := range records {
			id, _ := rec.Int("customer_id")
			assert.GreaterOrEqual(t, id, int64(1))
			assert.LessOrEqual(t, id, int64(50))
		}
	})

	t.Run("amounts respect minimum", func(t *testing.T) {
		for _, rec := range records {
			amount, ok := rec.Get("amount")
			require.True(t, ok)
			assert.GreaterOrEqual(t, amount.(float64), 5.0)
		}
	})
}

func TestOrdersRangeMode(t *testing.T) {
	cfg := smallConfig()
	cfg.OrdersMode = OrdersModeRange
	lo, hi := 10, 20
	cfg.OrdersMin, cfg.OrdersMax = &lo, &hi
	g, err := New(cfg)
	require.NoError(t, err)

	for _, n := range g.dailyCounts {
		assert.GreaterOrEqual(t, n, 10)
		assert.LessOrEqual(t, n, 20)
	}
}

func TestOrdersNormalMode(t *testing.T) {
	cfg := smallConfig()
	cfg.OrdersMode = OrdersModeNormal
	cfg.OrdersFloor = 24
	g, err := New(cfg)
	require.NoError(t, err)

	// Floor binds even when the normal draw lands below it.
	for _, n := range g.dailyCounts {
		assert.GreaterOrEqual(t, n, 24)
	}
}

func TestOrderItemsJoinOrders(t *testing.T) {
	g, err := New(smallConfig())
	require.NoError(t, err)

	orderIDs := map[int64]bool{}
	for _, rec := range allRecords(collect(t, g, "orders")) {
		id, _ := rec.Int("order_id")
		orderIDs[id] = true
	}

	items := allRecords(collect(t, g, "order_items"))
	require.NotEmpty(t, items)

	referenced := map[int64]bool{}
	for i, rec := range items {
		orderID, ok := rec.Int("order_id")
		require.True(t, ok)
		assert.True(t, orderIDs[orderID], "order_id %d not in orders", orderID)
		referenced[orderID] = true

		itemID, _ := rec.Int("order_item_id")
		assert.Equal(t, int64(i+1), itemID)

		qty, _ := rec.Int("qty")
		assert.GreaterOrEqual(t, qty, int64(1))
		assert.LessOrEqual(t, qty, int64(5))
	}

	// Every order has at least one line item.
	assert.Len(t, referenced, len(orderIDs))
}

func TestOrderItemsCarryPartitionColumns(t *testing.T) {
	cfg := smallConfig()
	cfg.Partitioning = PartitioningYMD
	g, err := New(cfg)
	require.NoError(t, err)

	sch, err := g.Schema("order_items")
	require.NoError(t, err)
	for _, b := range collect(t, g, "order_items") {
		require.NoError(t, sch.Validate(b))
	}
}

func TestDeterminism(t *testing.T) {
	a, err := New(smallConfig())
	require.NoError(t, err)
	b, err := New(smallConfig())
	require.NoError(t, err)

	for _, table := range a.Tables() {
		ra := allRecords(collect(t, a, table))
		rb := allRecords(collect(t, b, table))
		require.Equal(t, len(ra), len(rb), table)
		for i := range ra {
			require.Equal(t, ra[i].Data, rb[i].Data, "%s row %d", table, i)
		}
	}
}

func TestFromOptions(t *testing.T) {
	t.Run("defaults survive empty options", func(t *testing.T) {
		gen, err := FromOptions(nil)
		require.NoError(t, err)
		g := gen.(*Generator)
		assert.Equal(t, int64(42), g.cfg.Seed)
		assert.Equal(t, 1_000_000, g.cfg.NCustomers)
		assert.Equal(t, OrdersModeFixed, g.cfg.OrdersMode)
	})

	t.Run("option overrides", func(t *testing.T) {
		gen, err := FromOptions(map[string]interface{}{
			"seed":           7,
			"n_customers":    100,
			"orders_mode":    "range",
			"orders_min":     5,
			"orders_max":     9,
			"start_date":     "2024-01-01",
			"end_date":       "2024-01-05",
			"orders_per_day": 8,
		})
		require.NoError(t, err)
		g := gen.(*Generator)
		assert.Equal(t, 100, g.cfg.NCustomers)
		assert.Equal(t, OrdersModeRange, g.cfg.OrdersMode)
		require.NotNil(t, g.cfg.OrdersMin)
		assert.Equal(t, 5, *g.cfg.OrdersMin)
	})

	t.Run("invalid option type", func(t *testing.T) {
		_, err := FromOptions(map[string]interface{}{"n_customers": "many"})
		assert.Error(t, err)
	})

	t.Run("explicit seed zero kept", func(t *testing.T) {
		gen, err := FromOptions(map[string]interface{}{
			"seed":        0,
			"n_customers": 20,
			"n_products":  10,
		})
		require.NoError(t, err)
		g := gen.(*Generator)
		assert.Equal(t, int64(0), g.cfg.Seed)

		// Seed 0 is a stream of its own, not an alias for the default.
		def, err := FromOptions(map[string]interface{}{
			"n_customers": 20,
			"n_products":  10,
		})
		require.NoError(t, err)
		zeroRows := allRecords(collect(t, g, "customers"))
		defRows := allRecords(collect(t, def.(*Generator), "customers"))
		signups := func(recs []*models.Record) []interface{} {
			out := make([]interface{}, len(recs))
			for i, r := range recs {
				out[i] = r.Data["signup_date"]
			}
			return out
		}
		assert.NotEqual(t, signups(zeroRows), signups(defRows))
	})
}

func TestUnknownTable(t *testing.T) {
	g, err := New(smallConfig())
	require.NoError(t, err)

	_, err = g.Schema("invoices")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	_, err = g.Batches(context.Background(), "invoices")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}
