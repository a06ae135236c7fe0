package sensors

import (
	"github.com/ajitpratap0/lakegen/pkg/dataset/core"
	"github.com/ajitpratap0/lakegen/pkg/dataset/generators"
	"github.com/ajitpratap0/lakegen/pkg/dataset/registry"
)

func init() {
	registry.RegisterGenerator(Name, func(opts map[string]interface{}) (core.Generator, error) {
		return FromOptions(generators.Options(opts))
	})
}
