package market

import (
	"github.com/ajitpratap0/lakegen/pkg/dataset/core"
	"github.com/ajitpratap0/lakegen/pkg/dataset/generators"
	"github.com/ajitpratap0/lakegen/pkg/dataset/registry"
)

func init() {
	registry.RegisterGenerator(OHLCVName, func(opts map[string]interface{}) (core.Generator, error) {
		return OHLCVFromOptions(generators.Options(opts))
	})
	registry.RegisterGenerator(QuotesName, func(opts map[string]interface{}) (core.Generator, error) {
		return QuotesFromOptions(generators.Options(opts))
	})
}
