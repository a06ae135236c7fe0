// Package market generates synthetic market data: OHLCV bars driven by a
// geometric Brownian motion mid-price and a high-frequency quote stream
// with microstructure noise.
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

// OHLCVName is the registered name of the bar generator.
const OHLCVName = "market_ohlcv"

var stepMinutes = map[string]int{
	"1m": 1, "5m": 5, "15m": 15, "1h": 60, "1d": 1440,
}

// OHLCVConfig holds the bar generator parameters. Symbols is required.
type OHLCVConfig struct {
	Symbols    []string
	Freq       string
	StartDate  time.Time
	EndDate    time.Time
	Mu         float64
	Sigma      float64
	BasePrice  float64
	BasePrices map[string]float64
	// VolumeMean/VolumeSigma parameterize the log-normal volume draw.
	VolumeMean     float64
	VolumeSigma    float64
	TradingHours   [2]int
	Seed           int64
	FileRowsTarget int
}

// DefaultOHLCVConfig returns the bar generator defaults. Symbols must be
// set by the caller.
func DefaultOHLCVConfig() OHLCVConfig {
	return OHLCVConfig{
		Freq:           "1m",
		StartDate:      partition.Date(2023, time.January, 1),
		EndDate:        partition.Date(2023, time.January, 31),
		Mu:             0.0,
		Sigma:          0.02,
		BasePrice:      100.0,
		VolumeMean:     12.0,
		VolumeSigma:    0.8,
		TradingHours:   [2]int{9, 17},
		Seed:           123,
		FileRowsTarget: config.DefaultFileRowsTarget,
	}
}

// OHLCVGenerator produces the ohlcv table.
type OHLCVGenerator struct {
	cfg  OHLCVConfig
	spec partition.Spec
	step int
}

// NewOHLCV creates a bar generator.
func NewOHLCV(cfg OHLCVConfig) (*OHLCVGenerator, error) {
	def := DefaultOHLCVConfig()
	if cfg.Freq == "" {
		cfg.Freq = def.Freq
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
	if cfg.VolumeMean == 0 {
		cfg.VolumeMean = def.VolumeMean
	}
	if cfg.VolumeSigma == 0 {
		cfg.VolumeSigma = def.VolumeSigma
	}
	if cfg.TradingHours == [2]int{} {
		cfg.TradingHours = def.TradingHours
	}
	if cfg.FileRowsTarget == 0 {
		cfg.FileRowsTarget = def.FileRowsTarget
	}

	g := &OHLCVGenerator{cfg: cfg}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.step = stepMinutes[cfg.Freq]

	cols := []partition.Column{partition.ColumnYear, partition.ColumnMonth, partition.ColumnDay, partition.ColumnHour}
	if cfg.Freq == "1d" {
		cols = []partition.Column{partition.ColumnYear, partition.ColumnMonth}
	}
	spec, err := partition.New(cfg.StartDate, cfg.EndDate, cols...)
	if err != nil {
		return nil, err
	}
	g.spec = spec
	return g, nil
}

// OHLCVFromOptions builds a bar generator from a registry option map.
func OHLCVFromOptions(opts generators.Options) (core.Generator, error) {
	cfg := DefaultOHLCVConfig()
	var err error
	if cfg.Symbols, err = opts.Strings("symbols", nil); err != nil {
		return nil, err
	}
	if cfg.Freq, err = opts.String("freq", cfg.Freq); err != nil {
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
	if cfg.VolumeMean, err = opts.Float("volume_mean", cfg.VolumeMean); err != nil {
		return nil, err
	}
	if cfg.VolumeSigma, err = opts.Float("volume_sigma", cfg.VolumeSigma); err != nil {
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
	return NewOHLCV(cfg)
}

// Name returns the generator name.
func (g *OHLCVGenerator) Name() string { return OHLCVName }

// Tables returns the produced tables.
func (g *OHLCVGenerator) Tables() []string { return []string{"ohlcv"} }

// Validate checks the configuration.
func (g *OHLCVGenerator) Validate() error {
	if len(g.cfg.Symbols) == 0 {
		return errors.New(errors.ErrorTypeConfig, "symbols must not be empty")
	}
	if _, ok := stepMinutes[g.cfg.Freq]; !ok {
		return errors.Newf(errors.ErrorTypeConfig, "unsupported frequency %q", g.cfg.Freq)
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
func (g *OHLCVGenerator) Schema(table string) (*schema.Schema, error) {
	if table != "ohlcv" {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown table %q", table)
	}
	base := schema.New("ohlcv",
		schema.Field{Name: "timestamp", Type: schema.FieldTypeDatetime},
		schema.Field{Name: "symbol", Type: schema.FieldTypeString},
		schema.Field{Name: "open", Type: schema.FieldTypeFloat},
		schema.Field{Name: "high", Type: schema.FieldTypeFloat},
		schema.Field{Name: "low", Type: schema.FieldTypeFloat},
		schema.Field{Name: "close", Type: schema.FieldTypeFloat},
		schema.Field{Name: "volume", Type: schema.FieldTypeInt},
	)
	return base.WithFields(g.spec.Fields()...), nil
}

// PartitionSpec returns the layout: year/month for daily bars, hourly for
// intraday frequencies.
func (g *OHLCVGenerator) PartitionSpec(table string) *partition.Spec {
	if table != "ohlcv" {
		return nil
	}
	spec := g.spec
	return &spec
}

// Batches streams the table's rows.
func (g *OHLCVGenerator) Batches(ctx context.Context, table string) (*core.BatchStream, error) {
	if table != "ohlcv" {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown table %q", table)
	}
	return core.Produce(ctx, g.barBatches), nil
}

func (g *OHLCVGenerator) barBatches(ctx context.Context, emit func(*models.Batch) error) error {
	rng := dist.New(g.cfg.Seed)

	lastClose := make(map[string]float64, len(g.cfg.Symbols))
	for _, sym := range g.cfg.Symbols {
		if p, ok := g.cfg.BasePrices[sym]; ok {
			lastClose[sym] = p
		} else {
			lastClose[sym] = g.cfg.BasePrice
		}
	}

	dtFraction := float64(g.step) / 1440.0
	muDt := g.cfg.Mu * dtFraction
	sigmaDt := g.cfg.Sigma * math.Sqrt(dtFraction)

	batch := models.NewBatch("ohlcv", g.cfg.FileRowsTarget)
	for _, day := range g.spec.Days() {
		timestamps := g.timestampsForDay(day)
		for _, sym := range g.cfg.Symbols {
			prevClose := lastClose[sym]
			for _, ts := range timestamps {
				open := prevClose
				closePrice := math.Max(0.01, open*math.Exp(rng.Normal(muDt, sigmaDt)))
				high := math.Max(open, closePrice) * (1 + math.Abs(rng.Normal(0, 0.002)))
				low := math.Min(open, closePrice) * (1 - math.Abs(rng.Normal(0, 0.002)))
				volume := int64(math.Max(1, rng.LogNormal(g.cfg.VolumeMean, g.cfg.VolumeSigma)))

				rec := models.NewRecord().
					Set("timestamp", ts).
					Set("symbol", sym).
					Set("open", open).
					Set("high", high).
					Set("low", low).
					Set("close", closePrice).
					Set("volume", volume)
				g.spec.SetValues(rec, ts)
				batch.Append(rec)
				prevClose = closePrice

				if batch.Rows() >= g.cfg.FileRowsTarget {
					if err := emit(batch); err != nil {
						return err
					}
					batch = models.NewBatch("ohlcv", g.cfg.FileRowsTarget)
				}
			}
			lastClose[sym] = prevClose
		}
	}
	if batch.Rows() > 0 {
		return emit(batch)
	}
	return nil
}

func (g *OHLCVGenerator) timestampsForDay(day time.Time) []time.Time {
	if g.cfg.Freq == "1d" {
		return []time.Time{day}
	}
	start := day.Add(time.Duration(g.cfg.TradingHours[0]) * time.Hour)
	end := day.Add(time.Duration(g.cfg.TradingHours[1]) * time.Hour)
	step := time.Duration(g.step) * time.Minute
	var out []time.Time
	for ts := start; ts.Before(end); ts = ts.Add(step) {
		out = append(out, ts)
	}
	return out
}
