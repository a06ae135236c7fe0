package market

import (
	"context"
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

// QuotesName is the registered name of the quote stream generator.
const QuotesName = "market_quotes"

// QuotesConfig holds the quote generator parameters. Symbols is required.
type QuotesConfig struct {
	Symbols         []string
	QuotesPerMinute int
	StartDate       time.Time
	EndDate         time.Time
	Mu              float64
	Sigma           float64
	BasePrice       float64
	BasePrices      map[string]float64
	// SpreadBpsMean/SpreadBpsSigma parameterize the log-normal spread in
	// basis points.
	SpreadBpsMean  float64
	SpreadBpsSigma float64
	SizeMean       float64
	SizeSigma      float64
	TradingHours   [2]int
	Seed           int64
	FileRowsTarget int
}

// DefaultQuotesConfig returns the quote generator defaults. Symbols must
// be set by the caller.
func DefaultQuotesConfig() QuotesConfig {
	return QuotesConfig{
		QuotesPerMinute: 5,
		StartDate:       partition.Date(2023, time.January, 1),
		EndDate:         partition.Date(2023, time.January, 31),
		Mu:              0.0,
		Sigma:           0.03,
		BasePrice:       100.0,
		SpreadBpsMean:   1.0,
		SpreadBpsSigma:  0.3,
		SizeMean:        200.0,
		SizeSigma:       60.0,
		TradingHours:    [2]int{9, 17},
		Seed:            321,
		FileRowsTarget:  config.DefaultFileRowsTarget,
	}
}

// QuotesGenerator produces the quotes table.
type QuotesGenerator struct {
	cfg  QuotesConfig
	spec partition.Spec
}

// NewQuotes creates a quote stream generator.
func NewQuotes(cfg QuotesConfig) (*QuotesGenerator, error) {
	def := DefaultQuotesConfig()
	if cfg.QuotesPerMinute == 0 {
		cfg.QuotesPerMinute = def.QuotesPerMinute
	}
	if cfg.StartDate.IsZero() {
		cfg.StartDate = def.StartDate
	}
	if cfg.EndDate.IsZero() {
		cfg.EndDate = def.EndDate
	}
	if cfg.Sigma == 0 {
		cfg.Sigma = def.Sigma
	}
	if cfg.BasePrice == 0 {
		cfg.BasePrice = def.BasePrice
	}
	if cfg.SpreadBpsMean == 0 {
		cfg.SpreadBpsMean = def.SpreadBpsMean
	}
	if cfg.SpreadBpsSigma == 0 {
		cfg.SpreadBpsSigma = def.SpreadBpsSigma
	}
	if cfg.SizeMean == 0 {
		cfg.SizeMean = def.SizeMean
	}
	if cfg.SizeSigma == 0 {
		cfg.SizeSigma = def.SizeSigma
	}
	if cfg.TradingHours == [2]int{} {
		cfg.TradingHours = def.TradingHours
	}
	if cfg.FileRowsTarget == 0 {
		cfg.FileRowsTarget = def.FileRowsTarget
	}

	g := &QuotesGenerator{cfg: cfg}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	spec, err := partition.New(cfg.StartDate, cfg.EndDate,
		partition.ColumnYear, partition.ColumnMonth, partition.ColumnDay, partition.ColumnHour)
	if err != nil {
		return nil, err
	}
	g.spec = spec
	return g, nil
}

// QuotesFromOptions builds a quote generator from a registry option map.
func QuotesFromOptions(opts generators.Options) (core.Generator, error) {
	cfg := DefaultQuotesConfig()
	var err error
	if cfg.Symbols, err = opts.Strings("symbols", nil); err != nil {
		return nil, err
	}
	if cfg.QuotesPerMinute, err = opts.Int("quotes_per_minute", cfg.QuotesPerMinute); err != nil {
		return nil, err
	}
	if cfg.StartDate, err = opts.Date("start_date", cfg.StartDate); err != nil {
		return nil, err
	}
	if cfg.EndDate, err = opts.Date("end_date", cfg.EndDate); err != nil {
		return nil, err
	}
	if cfg.Mu, err = opts.Float("mu", cfg.Mu); err != nil {
		return nil, err
	}
	if cfg.Sigma, err = opts.Float("sigma", cfg.Sigma); err != nil {
		return nil, err
	}
	if cfg.BasePrice, err = opts.Float("base_price", cfg.BasePrice); err != nil {
		return nil, err
	}
	if cfg.BasePrices, err = opts.FloatMap("base_prices"); err != nil {
		return nil, err
	}
	if cfg.SpreadBpsMean, err = opts.Float("spread_bps_mean", cfg.SpreadBpsMean); err != nil {
		return nil, err
	}
	if cfg.SpreadBpsSigma, err = opts.Float("spread_bps_sigma", cfg.SpreadBpsSigma); err != nil {
		return nil, err
	}
	if cfg.SizeMean, err = opts.Float("size_mean", cfg.SizeMean); err != nil {
		return nil, err
	}
	if cfg.SizeSigma, err = opts.Float("size_sigma", cfg.SizeSigma); err != nil {
		return nil, err
	}
	seed, err := opts.Int("seed", int(cfg.Seed))
	if err != nil {
		return nil, err
	}
	cfg.Seed = int64(seed)
	if cfg.FileRowsTarget, err = opts.Int("file_rows_target", cfg.FileRowsTarget); err != nil {
		return nil, err
	}
	return NewQuotes(cfg)
}

// Name returns the generator name.
func (g *QuotesGenerator) Name() string { return QuotesName }

// Tables returns the produced tables.
func (g *QuotesGenerator) Tables() []string { return []string{"quotes"} }

// Validate checks the configuration.
func (g *QuotesGenerator) Validate() error {
	if len(g.cfg.Symbols) == 0 {
		return errors.New(errors.ErrorTypeConfig, "symbols must not be empty")
	}
	if g.cfg.QuotesPerMinute <= 0 {
		return errors.New(errors.ErrorTypeConfig, "quotes_per_minute must be > 0")
	}
	if g.cfg.StartDate.After(g.cfg.EndDate) {
		return errors.New(errors.ErrorTypeConfig, "start_date must be <= end_date")
	}
	if g.cfg.FileRowsTarget <= 0 {
		return errors.New(errors.ErrorTypeConfig, "file_rows_target must be positive")
	}
	return nil
}

// Schema returns the declared schema for a table.
func (g *QuotesGenerator) Schema(table string) (*schema.Schema, error) {
	if table != "quotes" {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown table %q", table)
	}
	base := schema.New("quotes",
		schema.Field{Name: "timestamp", Type: schema.FieldTypeDatetime},
		schema.Field{Name: "symbol", Type: schema.FieldTypeString},
		schema.Field{Name: "bid_price", Type: schema.FieldTypeFloat},
		schema.Field{Name: "ask_price", Type: schema.FieldTypeFloat},
		schema.Field{Name: "bid_size", Type: schema.FieldTypeInt},
		schema.Field{Name: "ask_size", Type: schema.FieldTypeInt},
		schema.Field{Name: "spread_bps", Type: schema.FieldTypeFloat},
		schema.Field{Name: "sequence", Type: schema.FieldTypeInt},
	)
	return base.WithFields(g.spec.Fields()...), nil
}

// PartitionSpec returns the hourly layout for quotes.
func (g *QuotesGenerator) PartitionSpec(table string) *partition.Spec {
	if table != "quotes" {
		return nil
	}
	spec := g.spec
	return &spec
}

// Batches streams the table's rows. The sequence column increases
// monotonically across the whole run.
func (g *QuotesGenerator) Batches(ctx context.Context, table string) (*core.BatchStream, error) {
	if table != "quotes" {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown table %q", table)
	}
	return core.Produce(ctx, g.quoteBatches), nil
}

func (g *QuotesGenerator) quoteBatches(ctx context.Context, emit func(*models.Batch) error) error {
	rng := dist.New(g.cfg.Seed)

	lastMid := make(map[string]float64, len(g.cfg.Symbols))
	for _, sym := range g.cfg.Symbols {
		if p, ok := g.cfg.BasePrices[sym]; ok {
			lastMid[sym] = p
		} else {
			lastMid[sym] = g.cfg.BasePrice
		}
	}

	// Approximate US trading day in minutes.
	dtFraction := 1 / (6.5 * 60)
	muDt := g.cfg.Mu * dtFraction
	sigmaDt := g.cfg.Sigma * math.Sqrt(dtFraction)

	sequence := int64(1)
	batch := models.NewBatch("quotes", g.cfg.FileRowsTarget)
	for _, day := range g.spec.Days() {
		for _, sym := range g.cfg.Symbols {
			prevMid := lastMid[sym]
			for _, minuteTS := range g.minuteTimestamps(day) {
				for q := 0; q < g.cfg.QuotesPerMinute; q++ {
					mid := math.Max(0.01, prevMid*math.Exp(rng.Normal(muDt, sigmaDt)))
					spreadBps := math.Max(0.1, rng.LogNormal(g.cfg.SpreadBpsMean, g.cfg.SpreadBpsSigma))
					spread := mid * spreadBps / 10_000.0
					bid := math.Max(0.01, mid-spread/2)
					ask := bid + spread
					bidSize := int64(math.Max(1, rng.Normal(g.cfg.SizeMean, g.cfg.SizeSigma)))
					askSize := int64(math.Max(1, rng.Normal(g.cfg.SizeMean, g.cfg.SizeSigma)))
					ts := minuteTS.Add(time.Duration(rng.IntN(60)) * time.Second)

					rec := models.NewRecord().
						Set("timestamp", ts).
						Set("symbol", sym).
						Set("bid_price", bid).
						Set("ask_price", ask).
						Set("bid_size", bidSize).
						Set("ask_size", askSize).
						Set("spread_bps", spreadBps).
						Set("sequence", sequence)
					g.spec.SetValues(rec, ts)
					batch.Append(rec)
					prevMid = mid
					sequence++

					if batch.Rows() >= g.cfg.FileRowsTarget {
						if err := emit(batch); err != nil {
							return err
						}
						batch = models.NewBatch("quotes", g.cfg.FileRowsTarget)
					}
				}
			}
			lastMid[sym] = prevMid
		}
	}
	if batch.Rows() > 0 {
		return emit(batch)
	}
	return nil
}

func (g *QuotesGenerator) minuteTimestamps(day time.Time) []time.Time {
	start := day.Add(time.Duration(g.cfg.TradingHours[0]) * time.Hour)
	end := day.Add(time.Duration(g.cfg.TradingHours[1]) * time.Hour)
	var out []time.Time
	for ts := start; ts.Before(end); ts = ts.Add(time.Minute) {
		out = append(out, ts)
	}
	return out
}
