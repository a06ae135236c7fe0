// Package weather generates hourly and daily weather observations for a
// set of locations using a seasonal plus diurnal temperature model with
// stochastic precipitation.
package weather

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

// Name is the registered generator name.
const Name = "weather"

// The daily table draws from an independent sub-stream so hourly and daily
// values do not interleave.
const seedOffsetDaily = 10_000

// Location is one observation site.
type Location struct {
	ID        int64
	Name      string
	Latitude  float64
	Longitude float64
}

// DefaultLocations are the sites used when the caller configures none.
var DefaultLocations = []Location{
	{ID: 1, Name: "Berlin", Latitude: 52.52, Longitude: 13.40},
	{ID: 2, Name: "Madrid", Latitude: 40.42, Longitude: -3.70},
	{ID: 3, Name: "Helsinki", Latitude: 60.17, Longitude: 24.94},
}

// Config holds the generator parameters.
type Config struct {
	Locations         []Location
	StartDate         time.Time
	EndDate           time.Time
	SeasonalAmplitude float64
	DiurnalAmplitude  float64
	StormRate         float64
	Seed              int64
	FileRowsTarget    int
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{
		Locations:         DefaultLocations,
		StartDate:         partition.Date(2023, time.January, 1),
		EndDate:           partition.Date(2023, time.January, 31),
		SeasonalAmplitude: 12.0,
		DiurnalAmplitude:  3.0,
		StormRate:         0.1,
		Seed:              2024,
		FileRowsTarget:    config.DefaultFileRowsTarget,
	}
}

// Generator produces the weather_hourly and weather_daily tables.
type Generator struct {
	cfg        Config
	hourlySpec partition.Spec
	dailySpec  partition.Spec
}

// New creates a weather generator.
func New(cfg Config) (*Generator, error) {
	def := DefaultConfig()
	if cfg.Locations == nil {
		cfg.Locations = def.Locations
	}
	if cfg.StartDate.IsZero() {
		cfg.StartDate = def.StartDate
	}
	if cfg.EndDate.IsZero() {
		cfg.EndDate = def.EndDate
	}
	if cfg.SeasonalAmplitude == 0 {
		cfg.SeasonalAmplitude = def.SeasonalAmplitude
	}
	if cfg.DiurnalAmplitude == 0 {
		cfg.DiurnalAmplitude = def.DiurnalAmplitude
	}
	if cfg.StormRate == 0 {
		cfg.StormRate = def.StormRate
	}
	if cfg.FileRowsTarget == 0 {
		cfg.FileRowsTarget = def.FileRowsTarget
	}

	g := &Generator{cfg: cfg}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	hourly, err := partition.New(cfg.StartDate, cfg.EndDate,
		partition.ColumnYear, partition.ColumnMonth, partition.ColumnDay, partition.ColumnHour)
	if err != nil {
		return nil, err
	}
	daily, err := partition.New(cfg.StartDate, cfg.EndDate,
		partition.ColumnYear, partition.ColumnMonth)
	if err != nil {
		return nil, err
	}
	g.hourlySpec = hourly
	g.dailySpec = daily
	return g, nil
}

// FromOptions builds a generator from a registry option map.
func FromOptions(opts generators.Options) (core.Generator, error) {
	cfg := DefaultConfig()
	var err error
	if cfg.StartDate, err = opts.Date("start_date", cfg.StartDate); err != nil {
		return nil, err
	}
	if cfg.EndDate, err = opts.Date("end_date", cfg.EndDate); err != nil {
		return nil, err
	}
	if cfg.SeasonalAmplitude, err = opts.Float("seasonal_amplitude", cfg.SeasonalAmplitude); err != nil {
		return nil, err
	}
	if cfg.DiurnalAmplitude, err = opts.Float("diurnal_amplitude", cfg.DiurnalAmplitude); err != nil {
		return nil, err
	}
	if cfg.StormRate, err = opts.Float("storm_rate", cfg.StormRate); err != nil {
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
	return New(cfg)
}

// Name returns the generator name.
func (g *Generator) Name() string { return Name }

// Tables returns the produced tables.
func (g *Generator) Tables() []string {
	return []string{"weather_hourly", "weather_daily"}
}

// Validate checks the configuration.
func (g *Generator) Validate() error {
	if len(g.cfg.Locations) == 0 {
		return errors.New(errors.ErrorTypeConfig, "locations must not be empty")
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
func (g *Generator) Schema(table string) (*schema.Schema, error) {
	switch table {
	case "weather_hourly":
		base := schema.New("weather_hourly",
			schema.Field{Name: "timestamp", Type: schema.FieldTypeDatetime},
			schema.Field{Name: "location_id", Type: schema.FieldTypeInt},
			schema.Field{Name: "temperature_c", Type: schema.FieldTypeFloat},
			schema.Field{Name: "humidity_pct", Type: schema.FieldTypeFloat},
			schema.Field{Name: "wind_kph", Type: schema.FieldTypeFloat},
			schema.Field{Name: "pressure_hpa", Type: schema.FieldTypeFloat},
			schema.Field{Name: "precip_mm", Type: schema.FieldTypeFloat},
			schema.Field{Name: "condition", Type: schema.FieldTypeString},
		)
		return base.WithFields(g.hourlySpec.Fields()...), nil
	case "weather_daily":
		base := schema.New("weather_daily",
			schema.Field{Name: "date", Type: schema.FieldTypeDate},
			schema.Field{Name: "location_id", Type: schema.FieldTypeInt},
			schema.Field{Name: "tmin_c", Type: schema.FieldTypeFloat},
			schema.Field{Name: "tmax_c", Type: schema.FieldTypeFloat},
			schema.Field{Name: "precip_mm", Type: schema.FieldTypeFloat},
			schema.Field{Name: "snow_mm", Type: schema.FieldTypeFloat},
			schema.Field{Name: "condition", Type: schema.FieldTypeString},
		)
		return base.WithFields(g.dailySpec.Fields()...), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown table %q", table)
	}
}

// PartitionSpec returns the layout for each table. Both tables are
// transactional.
func (g *Generator) PartitionSpec(table string) *partition.Spec {
	switch table {
	case "weather_hourly":
		spec := g.hourlySpec
		return &spec
	case "weather_daily":
		spec := g.dailySpec
		return &spec
	default:
		return nil
	}
}

// Batches streams the table's rows.
func (g *Generator) Batches(ctx context.Context, table string) (*core.BatchStream, error) {
	switch table {
	case "weather_hourly":
		return core.Produce(ctx, g.hourlyBatches), nil
	case "weather_daily":
		return core.Produce(ctx, g.dailyBatches), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown table %q", table)
	}
}

func (g *Generator) hourlyBatches(ctx context.Context, emit func(*models.Batch) error) error {
	rng := dist.New(g.cfg.Seed)
	batch := models.NewBatch("weather_hourly", g.cfg.FileRowsTarget)
	for _, day := range g.hourlySpec.Days() {
		dayOfYear := day.YearDay()
		for hour := 0; hour < 24; hour++ {
			ts := day.Add(time.Duration(hour) * time.Hour)
			for _, loc := range g.cfg.Locations {
				batch.Append(g.hourlyRow(loc, ts, dayOfYear, hour, rng))
				if batch.Rows() >= g.cfg.FileRowsTarget {
					if err := emit(batch); err != nil {
						return err
					}
					batch = models.NewBatch("weather_hourly", g.cfg.FileRowsTarget)
				}
			}
		}
	}
	if batch.Rows() > 0 {
		return emit(batch)
	}
	return nil
}

func (g *Generator) hourlyRow(loc Location, ts time.Time, dayOfYear, hour int, rng *dist.RNG) *models.Record {
	latFactor := math.Cos(loc.Latitude * math.Pi / 180)
	seasonal := g.cfg.SeasonalAmplitude * math.Sin(2*math.Pi*float64(dayOfYear)/365.0+latFactor)
	diurnal := g.cfg.DiurnalAmplitude * math.Sin(2*math.Pi*float64(hour)/24.0)
	baseTemp := 15 - loc.Latitude*0.1
	temperature := baseTemp + seasonal + diurnal + rng.Normal(0, 1.0)

	humidity := dist.Clip(70-0.6*(temperature-20)+rng.Normal(0, 3), 20, 100)
	wind := math.Abs(rng.Normal(15, 5))
	pressure := 1013 + rng.Normal(0, 6)
	precipChance := g.cfg.StormRate + math.Max(0, 0.02*(humidity-70))
	precip := 0.0
	if rng.Float64() < precipChance {
		precip = rng.Gamma(1.5, 1.0)
	}

	condition := "cloudy"
	switch {
	case precip > 3:
		condition = "rain"
	case temperature < 0 && precip > 0.2:
		condition = "snow"
	case temperature > 25 && humidity < 40:
		condition = "sunny"
	}

	rec := models.NewRecord().
		Set("timestamp", ts).
		Set("location_id", loc.ID).
		Set("temperature_c", temperature).
		Set("humidity_pct", humidity).
		Set("wind_kph", wind).
		Set("pressure_hpa", pressure).
		Set("precip_mm", precip).
		Set("condition", condition)
	g.hourlySpec.SetValues(rec, ts)
	return rec
}

func (g *Generator) dailyBatches(ctx context.Context, emit func(*models.Batch) error) error {
	rng := dist.Sub(g.cfg.Seed, seedOffsetDaily)
	batch := models.NewBatch("weather_daily", g.cfg.FileRowsTarget)
	for _, day := range g.dailySpec.Days() {
		dayOfYear := day.YearDay()
		for _, loc := range g.cfg.Locations {
			batch.Append(g.dailyRow(loc, day, dayOfYear, rng))
			if batch.Rows() >= g.cfg.FileRowsTarget {
				if err := emit(batch); err != nil {
					return err
				}
				batch = models.NewBatch("weather_daily", g.cfg.FileRowsTarget)
			}
		}
	}
	if batch.Rows() > 0 {
		return emit(batch)
	}
	return nil
}

func (g *Generator) dailyRow(loc Location, day time.Time, dayOfYear int, rng *dist.RNG) *models.Record {
	latFactor := math.Cos(loc.Latitude * math.Pi / 180)
	seasonal := g.cfg.SeasonalAmplitude * math.Sin(2*math.Pi*float64(dayOfYear)/365.0+latFactor)
	baseTemp := 15 - loc.Latitude*0.1
	avgTemp := baseTemp + seasonal + rng.Normal(0, 1.5)
	spread := math.Abs(rng.Normal(8, 2))
	tmax := avgTemp + spread/2
	tmin := avgTemp - spread/2
	precip := math.Max(0.0, rng.Gamma(1.2, 1.5)-0.5)
	snow := 0.0
	if tmax < 0 {
		snow = precip * rng.FloatBetween(0.3, 0.8)
	}

	condition := "mild"
	switch {
	case precip > 5:
		condition = "storm"
	case snow > 1:
		condition = "snow"
	case tmax > 27:
		condition = "hot"
	case tmin < -5:
		condition = "freezing"
	}

	rec := models.NewRecord().
		Set("date", day).
		Set("location_id", loc.ID).
		Set("tmin_c", tmin).
		Set("tmax_c", tmax).
		Set("precip_mm", precip).
		Set("snow_mm", snow).
		Set("condition", condition)
	g.dailySpec.SetValues(rec, day)
	return rec
}
