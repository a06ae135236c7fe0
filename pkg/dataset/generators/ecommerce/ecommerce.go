// Package ecommerce generates a synthetic multi-table transactional
// e-commerce dataset: customers and products master tables plus orders and
// order_items transactional tables with controllable volumes and partition
// layout.
package ecommerce

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/dataset/core"
	"github.com/ajitpratap0/lakegen/pkg/dataset/generators"
	"github.com/ajitpratap0/lakegen/pkg/dataset/generators/dist"
	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/models"
	"github.com/ajitpratap0/lakegen/pkg/partition"
	"github.com/ajitpratap0/lakegen/pkg/schema"
)

// Name is the registered generator name.
const Name = "ecommerce"

// Seed offsets derive independent sub-streams per table, so changing the
// draw count of one table never perturbs another.
const (
	seedOffsetCustomers   = 101
	seedOffsetProducts    = 202
	seedOffsetOrders      = 303
	seedOffsetOrderItems  = 404
	seedOffsetDailyCounts = 505
)

var (
	categories = []string{
		"apparel", "electronics", "home", "beauty", "sports",
		"toys", "books", "groceries", "pet", "auto",
	}
	countries = []string{"DE", "AT", "CH", "FR", "NL", "BE", "IT", "ES", "PL", "SE"}
	statuses  = []string{"completed", "returned", "cancelled"}
	// Order volume by hour of day, normalized at use.
	hourWeights = []float64{
		0.02, 0.01, 0.01, 0.01, 0.02, 0.03, 0.04, 0.05,
		0.06, 0.06, 0.05, 0.05, 0.04, 0.04, 0.05, 0.06,
		0.07, 0.08, 0.09, 0.08, 0.05, 0.04, 0.03, 0.02,
	}
	statusWeights = []float64{0.90, 0.06, 0.04}
)

// OrdersMode selects how daily order counts are sampled.
type OrdersMode string

const (
	// OrdersModeFixed emits exactly OrdersPerDay orders every day. This is
	// the default: deterministic volumes are what most downstream size
	// planning wants.
	OrdersModeFixed OrdersMode = "fixed"
	// OrdersModeRange draws a uniform count in [OrdersMin, OrdersMax].
	OrdersModeRange OrdersMode = "range"
	// OrdersModeNormal draws a rounded normal count with OrdersMean and
	// OrdersStd.
	OrdersModeNormal OrdersMode = "normal"
)

// Partitioning selects the partition columns for the orders and
// order_items tables.
type Partitioning string

const (
	PartitioningYMD       Partitioning = "ymd"
	PartitioningYM        Partitioning = "ym"
	PartitioningYearMonth Partitioning = "yearmonth"
)

// Config holds the generator parameters. Zero values other than Seed are
// filled with defaults by New; seed 0 is a valid seed.
type Config struct {
	Seed           int64
	NCustomers     int
	NProducts      int
	OrdersPerDay   int
	OrderItemsMean float64
	StartDate      time.Time
	EndDate        time.Time
	FileRowsTarget int
	Partitioning   Partitioning
	OrdersMode     OrdersMode
	// OrdersMin/OrdersMax bound the range mode; when unset they derive
	// from OrdersPerDay as 0.7x and 1.3x.
	OrdersMin *int
	OrdersMax *int
	// OrdersMean/OrdersStd parameterize the normal mode; when unset they
	// derive from OrdersPerDay as the mean and max(1, 0.1x).
	OrdersMean *float64
	OrdersStd  *float64
	// OrdersFloor is the minimum daily count enforced after sampling.
	OrdersFloor int
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{
		Seed:           42,
		NCustomers:     1_000_000,
		NProducts:      50_000,
		OrdersPerDay:   200_000,
		OrderItemsMean: 2.6,
		StartDate:      partition.Date(2023, time.January, 1),
		EndDate:        partition.Date(2023, time.March, 31),
		FileRowsTarget: config.DefaultFileRowsTarget,
		Partitioning:   PartitioningYM,
		OrdersMode:     OrdersModeFixed,
	}
}

// Generator produces the customers, products, orders and order_items
// tables.
type Generator struct {
	cfg         Config
	spec        partition.Spec
	dailyCounts []int
}

// New creates an e-commerce generator. The configuration is validated
// eagerly; daily order counts are precomputed from the daily-counts
// sub-stream so orders and order_items see the same totals.
func New(cfg Config) (*Generator, error) {
	applyDefaults(&cfg)
	g := &Generator{cfg: cfg}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	spec, err := partition.New(cfg.StartDate, cfg.EndDate, partitionColumns(cfg.Partitioning)...)
	if err != nil {
		return nil, err
	}
	g.spec = spec
	g.dailyCounts = g.computeDailyCounts()
	return g, nil
}

// FromOptions builds a generator from a registry option map.
func FromOptions(opts generators.Options) (core.Generator, error) {
	cfg := DefaultConfig()
	var err error
	if cfg.Seed, err = optInt64(opts, "seed", cfg.Seed); err != nil {
		return nil, err
	}
	if cfg.NCustomers, err = opts.Int("n_customers", cfg.NCustomers); err != nil {
		return nil, err
	}
	if cfg.NProducts, err = opts.Int("n_products", cfg.NProducts); err != nil {
		return nil, err
	}
	if cfg.OrdersPerDay, err = opts.Int("orders_per_day", cfg.OrdersPerDay); err != nil {
		return nil, err
	}
	if cfg.OrderItemsMean, err = opts.Float("order_items_mean", cfg.OrderItemsMean); err != nil {
		return nil, err
	}
	if cfg.StartDate, err = opts.Date("start_date", cfg.StartDate); err != nil {
		return nil, err
	}
	if cfg.EndDate, err = opts.Date("end_date", cfg.EndDate); err != nil {
		return nil, err
	}
	if cfg.FileRowsTarget, err = opts.Int("file_rows_target", cfg.FileRowsTarget); err != nil {
		return nil, err
	}
	p, err := opts.String("orders_partitioning", string(cfg.Partitioning))
	if err != nil {
		return nil, err
	}
	cfg.Partitioning = Partitioning(p)
	m, err := opts.String("orders_mode", string(cfg.OrdersMode))
	if err != nil {
		return nil, err
	}
	cfg.OrdersMode = OrdersMode(m)
	if v, ok := opts["orders_min"]; ok && v != nil {
		n, err := opts.Int("orders_min", 0)
		if err != nil {
			return nil, err
		}
		cfg.OrdersMin = &n
	}
	if v, ok := opts["orders_max"]; ok && v != nil {
		n, err := opts.Int("orders_max", 0)
		if err != nil {
			return nil, err
		}
		cfg.OrdersMax = &n
	}
	if v, ok := opts["orders_mean"]; ok && v != nil {
		f, err := opts.Float("orders_mean", 0)
		if err != nil {
			return nil, err
		}
		cfg.OrdersMean = &f
	}
	if v, ok := opts["orders_std"]; ok && v != nil {
		f, err := opts.Float("orders_std", 0)
		if err != nil {
			return nil, err
		}
		cfg.OrdersStd = &f
	}
	if cfg.OrdersFloor, err = opts.Int("orders_floor", cfg.OrdersFloor); err != nil {
		return nil, err
	}
	return New(cfg)
}

// applyDefaults fills unset fields. Seed is left alone: 0 is a valid seed
// and FromOptions already starts from DefaultConfig.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.StartDate.IsZero() {
		cfg.StartDate = def.StartDate
	}
	if cfg.EndDate.IsZero() {
		cfg.EndDate = def.EndDate
	}
	if cfg.FileRowsTarget == 0 {
		cfg.FileRowsTarget = def.FileRowsTarget
	}
	if cfg.Partitioning == "" {
		cfg.Partitioning = def.Partitioning
	}
	if cfg.OrdersMode == "" {
		cfg.OrdersMode = def.OrdersMode
	}
	if cfg.OrderItemsMean == 0 {
		cfg.OrderItemsMean = def.OrderItemsMean
	}
}

// Name returns the generator name.
func (g *Generator) Name() string { return Name }

// Tables returns the produced tables, master tables first.
func (g *Generator) Tables() []string {
	return []string{"customers", "products", "orders", "order_items"}
}

// Validate checks the configuration and resolves mode-derived bounds.
func (g *Generator) Validate() error {
	cfg := &g.cfg
	if cfg.NCustomers < 0 {
		return errors.New(errors.ErrorTypeConfig, "n_customers must be non-negative")
	}
	if cfg.NProducts < 0 {
		return errors.New(errors.ErrorTypeConfig, "n_products must be non-negative")
	}
	if cfg.StartDate.After(cfg.EndDate) {
		return errors.New(errors.ErrorTypeConfig, "start_date must be <= end_date")
	}
	if cfg.OrderItemsMean <= 0 {
		return errors.New(errors.ErrorTypeConfig, "order_items_mean must be positive")
	}
	if cfg.FileRowsTarget <= 0 {
		return errors.New(errors.ErrorTypeConfig, "file_rows_target must be positive")
	}
	if cfg.OrdersFloor < 0 {
		return errors.New(errors.ErrorTypeConfig, "orders_floor must be >= 0")
	}

	switch cfg.Partitioning {
	case PartitioningYMD, PartitioningYM, PartitioningYearMonth:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported orders_partitioning %q", string(cfg.Partitioning))
	}

	switch cfg.OrdersMode {
	case OrdersModeFixed:
		if cfg.OrdersPerDay < 0 {
			return errors.New(errors.ErrorTypeConfig, "orders_per_day must be non-negative")
		}
	case OrdersModeRange:
		if cfg.OrdersMin == nil {
			v := max(cfg.OrdersFloor, int(float64(cfg.OrdersPerDay)*0.7))
			cfg.OrdersMin = &v
		}
		if cfg.OrdersMax == nil {
			v := max(*cfg.OrdersMin, int(float64(cfg.OrdersPerDay)*1.3))
			cfg.OrdersMax = &v
		}
		if *cfg.OrdersMin < 0 || *cfg.OrdersMax < 0 {
			return errors.New(errors.ErrorTypeConfig, "orders_min/orders_max must be non-negative")
		}
		if *cfg.OrdersMin > *cfg.OrdersMax {
			return errors.New(errors.ErrorTypeConfig, "orders_min must be <= orders_max")
		}
	case OrdersModeNormal:
		if cfg.OrdersMean == nil {
			v := float64(cfg.OrdersPerDay)
			cfg.OrdersMean = &v
		}
		if cfg.OrdersStd == nil {
			v := math.Max(1.0, float64(cfg.OrdersPerDay)*0.1)
			cfg.OrdersStd = &v
		}
		if *cfg.OrdersStd < 0 {
			return errors.New(errors.ErrorTypeConfig, "orders_std must be non-negative")
		}
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported orders_mode %q", string(cfg.OrdersMode))
	}
	return nil
}

// Schema returns the declared schema for a table. Transactional tables
// carry the partition value columns after the base columns.
func (g *Generator) Schema(table string) (*schema.Schema, error) {
	switch table {
	case "customers":
		return schema.New("customers",
			schema.Field{Name: "customer_id", Type: schema.FieldTypeInt},
			schema.Field{Name: "name", Type: schema.FieldTypeString},
			schema.Field{Name: "email", Type: schema.FieldTypeString},
			schema.Field{Name: "signup_date", Type: schema.FieldTypeDate},
			schema.Field{Name: "country", Type: schema.FieldTypeString},
			schema.Field{Name: "is_vip", Type: schema.FieldTypeBool},
		), nil
	case "products":
		return schema.New("products",
			schema.Field{Name: "product_id", Type: schema.FieldTypeInt},
			schema.Field{Name: "sku", Type: schema.FieldTypeString},
			schema.Field{Name: "category", Type: schema.FieldTypeString},
			schema.Field{Name: "price", Type: schema.FieldTypeFloat},
			schema.Field{Name: "discount", Type: schema.FieldTypeFloat},
			schema.Field{Name: "active", Type: schema.FieldTypeBool},
		), nil
	case "orders":
		base := schema.New("orders",
			schema.Field{Name: "order_id", Type: schema.FieldTypeInt},
			schema.Field{Name: "customer_id", Type: schema.FieldTypeInt},
			schema.Field{Name: "order_date", Type: schema.FieldTypeDate},
			schema.Field{Name: "hour_of_day", Type: schema.FieldTypeInt},
			schema.Field{Name: "status", Type: schema.FieldTypeString},
			schema.Field{Name: "amount", Type: schema.FieldTypeFloat},
		)
		return base.WithFields(g.spec.Fields()...), nil
	case "order_items":
		base := schema.New("order_items",
			schema.Field{Name: "order_item_id", Type: schema.FieldTypeInt},
			schema.Field{Name: "order_id", Type: schema.FieldTypeInt},
			schema.Field{Name: "product_id", Type: schema.FieldTypeInt},
			schema.Field{Name: "qty", Type: schema.FieldTypeInt},
		)
		return base.WithFields(g.spec.Fields()...), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown table %q", table)
	}
}

// PartitionSpec returns the layout for orders and order_items and nil for
// the master tables.
func (g *Generator) PartitionSpec(table string) *partition.Spec {
	if table == "orders" || table == "order_items" {
		spec := g.spec
		return &spec
	}
	return nil
}

// Batches streams the table's rows.
func (g *Generator) Batches(ctx context.Context, table string) (*core.BatchStream, error) {
	switch table {
	case "customers":
		return core.Produce(ctx, g.customerBatches), nil
	case "products":
		return core.Produce(ctx, g.productBatches), nil
	case "orders":
		return core.Produce(ctx, g.orderBatches), nil
	case "order_items":
		return core.Produce(ctx, g.orderItemBatches), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown table %q", table)
	}
}

func partitionColumns(p Partitioning) []partition.Column {
	switch p {
	case PartitioningYMD:
		return []partition.Column{partition.ColumnYear, partition.ColumnMonth, partition.ColumnDay}
	case PartitioningYearMonth:
		return []partition.Column{partition.ColumnYearMonth}
	default:
		return []partition.Column{partition.ColumnYear, partition.ColumnMonth}
	}
}

// computeDailyCounts samples one order count per day from a dedicated
// sub-stream. Both orders and order_items iterate this same slice, which
// keeps their row totals consistent.
func (g *Generator) computeDailyCounts() []int {
	rng := dist.Sub(g.cfg.Seed, seedOffsetDailyCounts)
	days := g.spec.Days()
	counts := make([]int, len(days))
	for i := range days {
		counts[i] = g.sampleOrdersForDay(rng)
	}
	return counts
}

func (g *Generator) sampleOrdersForDay(rng *dist.RNG) int {
	switch g.cfg.OrdersMode {
	case OrdersModeRange:
		return max(g.cfg.OrdersFloor, rng.IntBetween(*g.cfg.OrdersMin, *g.cfg.OrdersMax))
	case OrdersModeNormal:
		return max(g.cfg.OrdersFloor, int(math.Round(rng.Normal(*g.cfg.OrdersMean, *g.cfg.OrdersStd))))
	default:
		return max(g.cfg.OrdersFloor, g.cfg.OrdersPerDay)
	}
}

// customerBatches emits the customers master table as a single batch.
// Master tables are written whole: a second write for the same table in
// one run overwrites the first.
func (g *Generator) customerBatches(ctx context.Context, emit func(*models.Batch) error) error {
	rng := dist.Sub(g.cfg.Seed, seedOffsetCustomers)
	signupEpoch := partition.Date(2020, time.January, 1)

	batch := models.NewBatch("customers", g.cfg.NCustomers)
	for id := 1; id <= g.cfg.NCustomers; id++ {
		rec := models.NewRecord().
			Set("customer_id", int64(id)).
			Set("name", fmt.Sprintf("cust_%d", id)).
			Set("email", fmt.Sprintf("user%d@example.com", id)).
			Set("signup_date", signupEpoch.AddDate(0, 0, rng.IntN(365*4))).
			Set("country", dist.Choice(rng, countries)).
			Set("is_vip", rng.Float64() < 0.05)
		batch.Append(rec)
	}
	return emit(batch)
}

func (g *Generator) productBatches(ctx context.Context, emit func(*models.Batch) error) error {
	rng := dist.Sub(g.cfg.Seed, seedOffsetProducts)

	batch := models.NewBatch("products", g.cfg.NProducts)
	for id := 1; id <= g.cfg.NProducts; id++ {
		rec := models.NewRecord().
			Set("product_id", int64(id)).
			Set("sku", fmt.Sprintf("SKU-%08d", id)).
			Set("category", dist.Choice(rng, categories)).
			Set("price", dist.Round2(rng.LogNormal(3.0, 0.5))).
			Set("discount", dist.Round2(dist.Clip(rng.Normal(0.05, 0.08), 0.0, 0.6))).
			Set("active", rng.Float64() > 0.02)
		batch.Append(rec)
	}
	return emit(batch)
}

func (g *Generator) orderBatches(ctx context.Context, emit func(*models.Batch) error) error {
	rng := dist.Sub(g.cfg.Seed, seedOffsetOrders)
	orderID := int64(1)
	for i, day := range g.spec.Days() {
		remaining := g.dailyCounts[i]
		for remaining > 0 {
			n := min(remaining, g.cfg.FileRowsTarget)
			batch := g.orderBatch(rng, day, orderID, n)
			orderID += int64(n)
			remaining -= n
			if err := emit(batch); err != nil {
				return err
			}
		}
	}
	return nil
}

// orderItemBatches re-derives the order stream with the same sub-seed used
// by orderBatches, so line items join to exactly the orders the orders
// table emitted.
func (g *Generator) orderItemBatches(ctx context.Context, emit func(*models.Batch) error) error {
	orderRNG := dist.Sub(g.cfg.Seed, seedOffsetOrders)
	itemRNG := dist.Sub(g.cfg.Seed, seedOffsetOrderItems)
	orderID := int64(1)
	itemID := int64(1)
	for i, day := range g.spec.Days() {
		remaining := g.dailyCounts[i]
		for remaining > 0 {
			n := min(remaining, g.cfg.FileRowsTarget)
			orders := g.orderBatch(orderRNG, day, orderID, n)
			orderID += int64(n)
			remaining -= n

			items := g.orderItemsForOrders(itemRNG, orders, &itemID)
			if err := emit(items); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Generator) orderBatch(rng *dist.RNG, day time.Time, startID int64, n int) *models.Batch {
	hours := make([]int64, 24)
	for i := range hours {
		hours[i] = int64(i)
	}

	batch := models.NewBatch("orders", n)
	for i := 0; i < n; i++ {
		rec := models.NewRecord().
			Set("order_id", startID+int64(i)).
			Set("customer_id", int64(rng.IntBetween(1, g.cfg.NCustomers))).
			Set("order_date", day).
			Set("hour_of_day", dist.WeightedChoice(rng, hours, hourWeights)).
			Set("status", dist.WeightedChoice(rng, statuses, statusWeights)).
			Set("amount", dist.Round2(math.Max(5.0, rng.Gamma(3.0, 20.0))))
		g.spec.SetValues(rec, day)
		batch.Append(rec)
	}
	return batch
}

func (g *Generator) orderItemsForOrders(rng *dist.RNG, orders *models.Batch, itemID *int64) *models.Batch {
	batch := models.NewBatch("order_items", orders.Rows()*2)
	for _, order := range orders.Records {
		orderID, _ := order.Int("order_id")
		nItems := max(1, rng.Poisson(g.cfg.OrderItemsMean))
		for j := 0; j < nItems; j++ {
			rec := models.NewRecord().
				Set("order_item_id", *itemID).
				Set("order_id", orderID).
				Set("product_id", int64(rng.IntBetween(1, g.cfg.NProducts))).
				Set("qty", int64(rng.IntBetween(1, 5)))
			for _, c := range g.spec.Columns {
				v, _ := order.Get(string(c))
				rec.Set(string(c), v)
			}
			batch.Append(rec)
			*itemID++
		}
	}
	return batch
}

func optInt64(opts generators.Options, key string, def int64) (int64, error) {
	n, err := opts.Int(key, int(def))
	return int64(n), err
}
