package writers

import (
	"context"

	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/dataset/core"
	"github.com/ajitpratap0/lakegen/pkg/dataset/registry"
)

func init() {
	registry.RegisterWriter(ParquetName, func(ctx context.Context, outputURI string, cfg *config.WriterConfig) (core.Writer, error) {
		return NewParquet(ctx, outputURI, cfg)
	})
	registry.RegisterWriter(DeltaName, func(ctx context.Context, outputURI string, cfg *config.WriterConfig) (core.Writer, error) {
		return NewDelta(ctx, outputURI, cfg)
	})
	registry.RegisterWriter(IcebergName, func(ctx context.Context, outputURI string, cfg *config.WriterConfig) (core.Writer, error) {
		return NewIceberg(ctx, outputURI, cfg)
	})
	registry.RegisterWriter(DuckLakeName, func(ctx context.Context, outputURI string, cfg *config.WriterConfig) (core.Writer, error) {
		return NewDuckLake(ctx, outputURI, cfg)
	})
	registry.RegisterWriter(JSONLName, func(ctx context.Context, outputURI string, cfg *config.WriterConfig) (core.Writer, error) {
		return NewJSONL(ctx, outputURI, cfg)
	})
}
