// Package sensors generates multi-metric IoT sensor readings with
// measurement noise, linear drift, dropped readings and anomaly spikes.
package sensors

import (
	"context"
	"hash/fnv"
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
const Name = "sensors"

// Per-device offsets come from a sub-stream seeded with the device id
// scaled by this factor, so adding devices never shifts existing ones.
const deviceSeedFactor = 101

// Config holds the generator parameters.
type Config struct {
	NDevices                int
	Metrics                 []string
	StartDate               time.Time
	EndDate                 time.Time
	SamplingIntervalMinutes int
	NoiseSigma              float64
	DriftPerHour            float64
	MissingProbability      float64
	AnomalyProbability      float64
	AnomalyScale            float64
	Seed                    int64
	FileRowsTarget          int
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{
		NDevices:                100,
		Metrics:                 []string{"temperature", "vibration", "pressure"},
		StartDate:               partition.Date(2023, time.January, 1),
		EndDate:                 partition.Date(2023, time.January, 7),
		SamplingIntervalMinutes: 5,
		NoiseSigma:              0.2,
		DriftPerHour:            0.05,
		MissingProbability:      0.01,
		AnomalyProbability:      0.002,
		AnomalyScale:            5.0,
		Seed:                    999,
		FileRowsTarget:          config.DefaultFileRowsTarget,
	}
}

// Generator produces the sensor_readings table.
type Generator struct {
	cfg  Config
	spec partition.Spec
}

// New creates a sensors generator.
func New(cfg Config) (*Generator, error) {
	def := DefaultConfig()
	if cfg.NDevices == 0 {
		cfg.NDevices = def.NDevices
	}
	if cfg.Metrics == nil {
		cfg.Metrics = def.Metrics
	}
	if cfg.StartDate.IsZero() {
		cfg.StartDate = def.StartDate
	}
	if cfg.EndDate.IsZero() {
		cfg.EndDate = def.EndDate
	}
	if cfg.SamplingIntervalMinutes == 0 {
		cfg.SamplingIntervalMinutes = def.SamplingIntervalMinutes
	}
	if cfg.NoiseSigma == 0 {
		cfg.NoiseSigma = def.NoiseSigma
	}
	if cfg.DriftPerHour == 0 {
		cfg.DriftPerHour = def.DriftPerHour
	}
	if cfg.MissingProbability == 0 {
		cfg.MissingProbability = def.MissingProbability
	}
	if cfg.AnomalyProbability == 0 {
		cfg.AnomalyProbability = def.AnomalyProbability
	}
	if cfg.AnomalyScale == 0 {
		cfg.AnomalyScale = def.AnomalyScale
	}
	if cfg.FileRowsTarget == 0 {
		cfg.FileRowsTarget = def.FileRowsTarget
	}

	g := &Generator{cfg: cfg}
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

// FromOptions builds a generator from a registry option map.
func FromOptions(opts generators.Options) (core.Generator, error) {
	cfg := DefaultConfig()
	var err error
	if cfg.NDevices, err = opts.Int("n_devices", cfg.NDevices); err != nil {
		return nil, err
	}
	if cfg.Metrics, err = opts.Strings("metrics", cfg.Metrics); err != nil {
		return nil, err
	}
	if cfg.StartDate, err = opts.Date("start_date", cfg.StartDate); err != nil {
		return nil, err
	}
	if cfg.EndDate, err = opts.Date("end_date", cfg.EndDate); err != nil {
		return nil, err
	}
	if cfg.SamplingIntervalMinutes, err = opts.Int("sampling_interval_minutes", cfg.SamplingIntervalMinutes); err != nil {
		return nil, err
	}
	if cfg.NoiseSigma, err = opts.Float("noise_sigma", cfg.NoiseSigma); err != nil {
		return nil, err
	}
	if cfg.DriftPerHour, err = opts.Float("drift_per_hour", cfg.DriftPerHour); err != nil {
		return nil, err
	}
	if cfg.MissingProbability, err = opts.Float("missing_probability", cfg.MissingProbability); err != nil {
		return nil, err
	}
	if cfg.AnomalyProbability, err = opts.Float("anomaly_probability", cfg.AnomalyProbability); err != nil {
		return nil, err
	}
	if cfg.AnomalyScale, err = opts.Float("anomaly_scale", cfg.AnomalyScale); err != nil {
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
func (g *Generator) Tables() []string { return []string{"sensor_readings"} }

// Validate checks the configuration.
func (g *Generator) Validate() error {
	if g.cfg.NDevices < 0 {
		return errors.New(errors.ErrorTypeConfig, "n_devices must be non-negative")
	}
	if len(g.cfg.Metrics) == 0 {
		return errors.New(errors.ErrorTypeConfig, "metrics must not be empty")
	}
	if g.cfg.StartDate.After(g.cfg.EndDate) {
		return errors.New(errors.ErrorTypeConfig, "start_date must be <= end_date")
	}
	if g.cfg.SamplingIntervalMinutes <= 0 {
		return errors.New(errors.ErrorTypeConfig, "sampling_interval_minutes must be positive")
	}
	if g.cfg.FileRowsTarget <= 0 {
		return errors.New(errors.ErrorTypeConfig, "file_rows_target must be positive")
	}
	return nil
}

// Schema returns the declared schema for a table. The value column is
// nullable: missing readings carry nil.
func (g *Generator) Schema(table string) (*schema.Schema, error) {
	if table != "sensor_readings" {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown table %q", table)
	}
	base := schema.New("sensor_readings",
		schema.Field{Name: "timestamp", Type: schema.FieldTypeDatetime},
		schema.Field{Name: "device_id", Type: schema.FieldTypeInt},
		schema.Field{Name: "metric", Type: schema.FieldTypeString},
		schema.Field{Name: "value", Type: schema.FieldTypeFloat, Nullable: true},
		schema.Field{Name: "is_anomaly", Type: schema.FieldTypeBool},
		schema.Field{Name: "is_missing", Type: schema.FieldTypeBool},
	)
	return base.WithFields(g.spec.Fields()...), nil
}

// PartitionSpec returns the hourly layout for sensor_readings.
func (g *Generator) PartitionSpec(table string) *partition.Spec {
	if table != "sensor_readings" {
		return nil
	}
	spec := g.spec
	return &spec
}

// Batches streams the table's rows.
func (g *Generator) Batches(ctx context.Context, table string) (*core.BatchStream, error) {
	if table != "sensor_readings" {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "unknown table %q", table)
	}
	return core.Produce(ctx, g.readingBatches), nil
}

func (g *Generator) readingBatches(ctx context.Context, emit func(*models.Batch) error) error {
	rng := dist.New(g.cfg.Seed)
	timestamps := g.timestamps()

	batch := models.NewBatch("sensor_readings", g.cfg.FileRowsTarget)
	for deviceID := 1; deviceID <= g.cfg.NDevices; deviceID++ {
		deviceRNG := dist.New(g.cfg.Seed + int64(deviceID)*deviceSeedFactor)
		deviceOffset := deviceRNG.Normal(0.0, 0.5)
		for _, metric := range g.cfg.Metrics {
			phase := metricPhase(metric)
			for _, ts := range timestamps {
				hourOfDay := float64(ts.Hour()) + float64(ts.Minute())/60
				base := 10*math.Sin(2*math.Pi*float64(ts.YearDay())/365+phase) +
					g.cfg.DriftPerHour*hourOfDay + deviceOffset
				value := base + rng.Normal(0.0, g.cfg.NoiseSigma)

				isAnomaly := rng.Float64() < g.cfg.AnomalyProbability
				adjustment := rng.Normal(0, g.cfg.AnomalyScale)
				if isAnomaly {
					value += adjustment
				}
				isMissing := rng.Float64() < g.cfg.MissingProbability

				rec := models.NewRecord().
					Set("timestamp", ts).
					Set("device_id", int64(deviceID)).
					Set("metric", metric).
					Set("is_anomaly", isAnomaly).
					Set("is_missing", isMissing)
				if isMissing {
					rec.Set("value", nil)
				} else {
					rec.Set("value", value)
				}
				g.spec.SetValues(rec, ts)
				batch.Append(rec)
				if batch.Rows() >= g.cfg.FileRowsTarget {
					if err := emit(batch); err != nil {
						return err
					}
					batch = models.NewBatch("sensor_readings", g.cfg.FileRowsTarget)
				}
			}
		}
	}
	if batch.Rows() > 0 {
		return emit(batch)
	}
	return nil
}

func (g *Generator) timestamps() []time.Time {
	interval := time.Duration(g.cfg.SamplingIntervalMinutes) * time.Minute
	var out []time.Time
	for _, day := range g.spec.Days() {
		end := day.AddDate(0, 0, 1)
		for ts := day; ts.Before(end); ts = ts.Add(interval) {
			out = append(out, ts)
		}
	}
	return out
}

// metricPhase derives a stable per-metric phase shift so different metrics
// follow distinct but reproducible seasonal curves.
func metricPhase(metric string) float64 {
	h := fnv.New32a()
	h.Write([]byte(metric))
	return float64(h.Sum32()%997) / 997
}
