// Package lakegen generates deterministic synthetic datasets and lands them
// in lakehouse table formats.
//
// LakeGen produces realistic, reproducible data for four domains: an
// e-commerce star schema (customers, products, orders, order items),
// weather observations (hourly readings and daily summaries), IoT sensor
// telemetry, and market data (OHLCV bars and bid/ask quotes). Output is
// written as Parquet, Delta Lake, Iceberg, DuckLake, or JSONL against local
// disk or S3-compatible object storage.
//
// # Determinism
//
// Every generator derives its streams from a single seed, so a given
// (dataset, seed, options) triple always produces byte-identical data.
// Each table and each day draws from its own derived sub-stream, which
// keeps master tables stable when date ranges change and keeps per-device
// or per-symbol streams stable when the population grows.
//
// # Architecture
//
// Generators implement core.Generator and register themselves with
// the dataset registry; writers implement core.Writer and do the same.
// The pipeline package connects one of each:
//
//	import (
//	    "context"
//
//	    "github.com/ajitpratap0/lakegen/internal/pipeline"
//	    "github.com/ajitpratap0/lakegen/pkg/config"
//	    "github.com/ajitpratap0/lakegen/pkg/dataset/registry"
//
//	    _ "github.com/ajitpratap0/lakegen/pkg/dataset/generators/ecommerce"
//	    _ "github.com/ajitpratap0/lakegen/pkg/dataset/writers"
//	)
//
//	gen, err := registry.CreateGenerator("ecommerce", map[string]interface{}{
//	    "seed":           int64(42),
//	    "n_customers":    10_000,
//	    "orders_per_day": 5_000,
//	})
//	if err != nil {
//	    return err
//	}
//
//	cfg := config.NewWriterConfig()
//	w, err := registry.CreateWriter(context.Background(), "parquet", "./lake", &cfg)
//	if err != nil {
//	    return err
//	}
//
//	result, err := pipeline.WriteDataset(context.Background(), gen, w)
//
// Transactional tables are hive-partitioned (year=YYYY/month=MM/...) and
// split into part files near a configurable row target; master tables are
// rewritten whole on each run.
//
// # CLI
//
// The lakegen binary exposes the same capabilities:
//
//	lakegen list
//	lakegen info ecommerce
//	lakegen generate ecommerce --format delta -o ./lake --seed 7
//	lakegen generate market_ohlcv --symbols AAPL,MSFT --freq 1m \
//	    --format parquet -o s3://bucket/market
//
// See the generate command flags for per-dataset knobs (order volume
// models, date ranges, sensor fleets, trading sessions) and for S3 and
// catalog configuration.
package lakegen
