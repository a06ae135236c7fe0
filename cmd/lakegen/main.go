package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lakegen/internal/pipeline"
	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/dataset/registry"
	"github.com/ajitpratap0/lakegen/pkg/logger"

	// Import all generators and writers to register them
	_ "github.com/ajitpratap0/lakegen/pkg/dataset/generators/ecommerce"
	_ "github.com/ajitpratap0/lakegen/pkg/dataset/generators/market"
	_ "github.com/ajitpratap0/lakegen/pkg/dataset/generators/sensors"
	_ "github.com/ajitpratap0/lakegen/pkg/dataset/generators/weather"
	_ "github.com/ajitpratap0/lakegen/pkg/dataset/writers"
)

var version = "0.1.0"

func main() {
	viper.SetEnvPrefix("LAKEGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	root := &cobra.Command{
		Use:   "lakegen",
		Short: "LakeGen - Synthetic lakehouse dataset generator",
		Long: `LakeGen generates reproducible synthetic datasets (e-commerce, weather,
sensors, market data) and writes them as Parquet, Delta Lake, Iceberg,
DuckLake or JSONL tables to local or S3-compatible storage.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("LakeGen v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available dataset generators and output formats",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available Datasets:")
			for _, name := range registry.ListGenerators() {
				fmt.Printf("  - %s\n", name)
			}
			fmt.Println("\nAvailable Formats:")
			for _, name := range registry.ListWriters() {
				fmt.Printf("  - %s\n", name)
			}
		},
	})

	root.AddCommand(newInfoCmd())
	root.AddCommand(newGenerateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newInfoCmd() *cobra.Command {
	var symbols []string
	cmd := &cobra.Command{
		Use:   "info <dataset>",
		Short: "Print the schema and partitioning metadata for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := map[string]interface{}{}
			if len(symbols) > 0 {
				opts["symbols"] = symbols
			}
			gen, err := registry.CreateGenerator(args[0], opts)
			if err != nil {
				return err
			}

			fmt.Printf("Dataset: %s\n", gen.Name())
			fmt.Println("Tables:")
			for _, table := range gen.Tables() {
				fmt.Printf("  - %s\n", table)
				sch, err := gen.Schema(table)
				if err != nil {
					return err
				}
				fmt.Println("    columns:")
				for _, f := range sch.Fields {
					nullable := ""
					if f.Nullable {
						nullable = " (nullable)"
					}
					fmt.Printf("      %s: %s%s\n", f.Name, f.Type, nullable)
				}
				if spec := gen.PartitionSpec(table); spec != nil {
					cols := make([]string, len(spec.Columns))
					for i, c := range spec.Columns {
						cols[i] = string(c)
					}
					fmt.Printf("    partition_by: [%s]\n", strings.Join(cols, ", "))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "Symbols for the market generators")
	return cmd
}

type generateFlags struct {
	format         string
	output         string
	writerConfig   string
	seed           int
	nCustomers     int
	nProducts      int
	ordersPerDay   int
	orderItemsMean float64
	startDate      string
	endDate        string
	fileRowsTarget int
	compression    string

	ordersPartitioning string
	ordersMode         string
	ordersMin          int
	ordersMax          int
	ordersMean         float64
	ordersStd          float64
	ordersFloor        int

	symbols []string
	freq    string
	tables  []string

	s3URI       string
	s3Key       string
	s3Secret    string
	s3Endpoint  string
	s3Region    string
	s3PathStyle bool

	catalogKind      string
	catalogURI       string
	catalogNamespace string

	progressEvery int
}

func newGenerateCmd() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate <dataset>",
		Short: "Generate a dataset with the requested writer and configuration",
		Long: `Generate a dataset using a registered generator and persist it with the
selected format writer.

Example:
  lakegen generate ecommerce --format parquet --output ./out --seed 7 \
    --n-customers 10000 --orders-per-day 500 --start-date 2024-01-01 --end-date 2024-01-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], &f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.format, "format", "parquet", "Output format (see 'lakegen list')")
	fl.StringVarP(&f.output, "output", "o", "", "Target path or URI (required)")
	_ = cmd.MarkFlagRequired("output")
	fl.StringVar(&f.writerConfig, "writer-config", "", "Path to a YAML writer configuration file (optional)")

	fl.IntVar(&f.seed, "seed", 42, "Random seed")
	fl.IntVar(&f.nCustomers, "n-customers", 1_000_000, "Number of customers (ecommerce)")
	fl.IntVar(&f.nProducts, "n-products", 50_000, "Number of products (ecommerce)")
	fl.IntVar(&f.ordersPerDay, "orders-per-day", 200_000, "Orders per day (ecommerce)")
	fl.Float64Var(&f.orderItemsMean, "order-items-mean", 2.6, "Average items per order (ecommerce)")
	fl.StringVar(&f.startDate, "start-date", "", "Start date YYYY-MM-DD")
	fl.StringVar(&f.endDate, "end-date", "", "End date YYYY-MM-DD")
	fl.IntVar(&f.fileRowsTarget, "file-rows-target", config.DefaultFileRowsTarget, "Rows per output file")
	fl.StringVar(&f.compression, "compression", config.DefaultCompression, "Compression codec (snappy, zstd, gzip, none)")

	fl.StringVar(&f.ordersPartitioning, "orders-partitioning", "ym", "Orders partitioning for ecommerce (ymd, ym, yearmonth)")
	fl.StringVar(&f.ordersMode, "orders-mode", "fixed", "Daily order mode for ecommerce (fixed, range, normal)")
	fl.IntVar(&f.ordersMin, "orders-min", 0, "Minimum orders per day when mode=range")
	fl.IntVar(&f.ordersMax, "orders-max", 0, "Maximum orders per day when mode=range")
	fl.Float64Var(&f.ordersMean, "orders-mean", 0, "Mean orders per day when mode=normal")
	fl.Float64Var(&f.ordersStd, "orders-std", 0, "Std dev for orders per day when mode=normal")
	fl.IntVar(&f.ordersFloor, "orders-floor", 0, "Minimum floor after sampling orders per day")

	fl.StringSliceVar(&f.symbols, "symbols", nil, "Symbols for the market generators")
	fl.StringVar(&f.freq, "freq", "", "Bar frequency for market_ohlcv (1m, 5m, 15m, 1h, 1d)")
	fl.StringSliceVar(&f.tables, "tables", nil, "Restrict the run to a subset of the dataset's tables")

	fl.StringVar(&f.s3URI, "s3-uri", "", "Base S3 URI")
	fl.StringVar(&f.s3Key, "s3-key", "", "S3 access key (env: LAKEGEN_S3_KEY)")
	fl.StringVar(&f.s3Secret, "s3-secret", "", "S3 secret key (env: LAKEGEN_S3_SECRET)")
	fl.StringVar(&f.s3Endpoint, "s3-endpoint", "", "S3 endpoint URL")
	fl.StringVar(&f.s3Region, "s3-region", "us-east-1", "S3 region")
	fl.BoolVar(&f.s3PathStyle, "s3-path-style", false, "Force path-style S3 addressing")

	fl.StringVar(&f.catalogKind, "catalog-kind", "", "Catalog kind (postgres)")
	fl.StringVar(&f.catalogURI, "catalog-uri", "", "Catalog connection URI (env: LAKEGEN_CATALOG_URI)")
	fl.StringVar(&f.catalogNamespace, "catalog-namespace", "", "Catalog namespace")

	fl.IntVar(&f.progressEvery, "progress-every", 10, "Log progress every N batches (0 disables)")

	return cmd
}

func runGenerate(cmd *cobra.Command, dataset string, f *generateFlags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	genOpts := generatorOptions(cmd, f)
	gen, err := registry.CreateGenerator(dataset, genOpts)
	if err != nil {
		return err
	}

	writerCfg, err := buildWriterConfig(f)
	if err != nil {
		return err
	}

	writer, err := registry.CreateWriter(ctx, f.format, f.output, writerCfg)
	if err != nil {
		return err
	}

	log := logger.Get().With(zap.String("component", "lakegen-cli"))
	opts := []pipeline.Option{}
	if len(f.tables) > 0 {
		opts = append(opts, pipeline.WithTables(f.tables...))
	}
	if f.progressEvery > 0 {
		every := int64(f.progressEvery)
		opts = append(opts, pipeline.WithProgress(func(p pipeline.Progress) {
			if p.TableBatches%every == 0 {
				log.Info("progress",
					zap.String("table", p.Table),
					zap.Int64("rows", p.TableRows),
					zap.Int64("total_rows", p.TotalRows))
			}
		}))
	}

	result, err := pipeline.WriteDataset(ctx, gen, writer, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("Generation complete: %d rows\n", result.TotalRows)
	for _, table := range gen.Tables() {
		if rows, ok := result.RowsByTable[table]; ok {
			fmt.Printf("  %s: %d rows\n", table, rows)
		}
	}
	return nil
}

// generatorOptions collects only the flags the user actually set, so each
// generator's own defaults apply to everything else.
func generatorOptions(cmd *cobra.Command, f *generateFlags) map[string]interface{} {
	opts := map[string]interface{}{}
	set := func(flag, key string, value interface{}) {
		if cmd.Flags().Changed(flag) {
			opts[key] = value
		}
	}

	set("seed", "seed", f.seed)
	set("n-customers", "n_customers", f.nCustomers)
	set("n-products", "n_products", f.nProducts)
	set("orders-per-day", "orders_per_day", f.ordersPerDay)
	set("order-items-mean", "order_items_mean", f.orderItemsMean)
	set("start-date", "start_date", f.startDate)
	set("end-date", "end_date", f.endDate)
	set("file-rows-target", "file_rows_target", f.fileRowsTarget)
	set("orders-partitioning", "orders_partitioning", strings.ToLower(f.ordersPartitioning))
	set("orders-mode", "orders_mode", strings.ToLower(f.ordersMode))
	set("orders-min", "orders_min", f.ordersMin)
	set("orders-max", "orders_max", f.ordersMax)
	set("orders-mean", "orders_mean", f.ordersMean)
	set("orders-std", "orders_std", f.ordersStd)
	set("orders-floor", "orders_floor", f.ordersFloor)
	set("freq", "freq", f.freq)
	if len(f.symbols) > 0 {
		opts["symbols"] = f.symbols
	}
	return opts
}

// buildWriterConfig assembles the writer configuration from an optional
// YAML file, flags and LAKEGEN_* environment variables, in increasing
// precedence for the credential fields.
func buildWriterConfig(f *generateFlags) (*config.WriterConfig, error) {
	cfg := config.NewWriterConfig()
	if f.writerConfig != "" {
		if err := config.Load(f.writerConfig, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.Options.FileRowsTarget = f.fileRowsTarget
	cfg.Options.Compression = f.compression

	s3Key := firstNonEmpty(f.s3Key, viper.GetString("s3_key"))
	s3Secret := firstNonEmpty(f.s3Secret, viper.GetString("s3_secret"))
	if f.s3URI != "" || strings.HasPrefix(f.output, "s3://") {
		uri := firstNonEmpty(f.s3URI, f.output)
		cfg.S3 = &config.S3Config{
			URI:          uri,
			Key:          s3Key,
			Secret:       s3Secret,
			Endpoint:     f.s3Endpoint,
			Region:       f.s3Region,
			UsePathStyle: f.s3PathStyle,
		}
	}

	catalogURI := firstNonEmpty(f.catalogURI, viper.GetString("catalog_uri"))
	if f.catalogKind != "" || catalogURI != "" {
		cfg.Catalog = &config.CatalogConfig{
			Kind:      f.catalogKind,
			URI:       catalogURI,
			Namespace: f.catalogNamespace,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
