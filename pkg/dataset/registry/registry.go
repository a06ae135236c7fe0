// Package registry manages dataset generator and table writer registration
// and instantiation. Implementations register themselves by name from
// init() in their own packages; callers create instances through the
// global registry.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/dataset/core"
	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/logger"
)

// GeneratorFactory creates a generator instance from free-form options.
// Unknown option keys are rejected by the generator's own constructor.
type GeneratorFactory func(opts map[string]interface{}) (core.Generator, error)

// WriterFactory creates a writer instance for an output root. The writer
// config carries file sizing, compression, storage and catalog settings.
type WriterFactory func(ctx context.Context, outputURI string, cfg *config.WriterConfig) (core.Writer, error)

// Registry holds named generator and writer factories.
type Registry struct {
	generators map[string]GeneratorFactory
	writers    map[string]WriterFactory
	mu         sync.RWMutex
	logger     *zap.Logger
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]GeneratorFactory),
		writers:    make(map[string]WriterFactory),
		logger:     logger.Get().With(zap.String("component", "dataset_registry")),
	}
}

// RegisterGenerator registers a generator factory under name.
func (r *Registry) RegisterGenerator(name string, factory GeneratorFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("generator %s already registered", name))
	}

	r.generators[name] = factory
	r.logger.Info("generator registered", zap.String("name", name))
	return nil
}

// RegisterWriter registers a writer factory under its format name.
func (r *Registry) RegisterWriter(name string, factory WriterFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.writers[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("writer %s already registered", name))
	}

	r.writers[name] = factory
	r.logger.Info("writer registered", zap.String("name", name))
	return nil
}

// CreateGenerator instantiates a registered generator. Unknown names fail
// with a not-found error whose message lists the registered names.
func (r *Registry) CreateGenerator(name string, opts map[string]interface{}) (core.Generator, error) {
	r.mu.RLock()
	factory, exists := r.generators[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeNotFound,
			fmt.Sprintf("unknown generator %q, registered generators: %s", name, strings.Join(r.ListGenerators(), ", ")))
	}

	gen, err := factory(opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create generator %s", name))
	}

	return gen, nil
}

// CreateWriter instantiates a registered writer for an output root.
func (r *Registry) CreateWriter(ctx context.Context, name, outputURI string, cfg *config.WriterConfig) (core.Writer, error) {
	r.mu.RLock()
	factory, exists := r.writers[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeNotFound,
			fmt.Sprintf("unknown writer %q, registered writers: %s", name, strings.Join(r.ListWriters(), ", ")))
	}

	w, err := factory(ctx, outputURI, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create writer %s", name))
	}

	return w, nil
}

// ListGenerators returns registered generator names, sorted.
func (r *Registry) ListGenerators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListWriters returns registered writer format names, sorted.
func (r *Registry) ListWriters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.writers))
	for name := range r.writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasGenerator reports whether a generator name is registered.
func (r *Registry) HasGenerator(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.generators[name]
	return exists
}

// HasWriter reports whether a writer format is registered.
func (r *Registry) HasWriter(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.writers[name]
	return exists
}

// Clear removes all registrations. Tests use it to isolate registries.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators = make(map[string]GeneratorFactory)
	r.writers = make(map[string]WriterFactory)
}

// Package-level helpers operating on the global registry.

// RegisterGenerator registers a generator factory globally. Panics on
// duplicate registration since that is a programming error at init time.
func RegisterGenerator(name string, factory GeneratorFactory) {
	if err := globalRegistry.RegisterGenerator(name, factory); err != nil {
		panic(err)
	}
}

// RegisterWriter registers a writer factory globally. Panics on duplicate
// registration.
func RegisterWriter(name string, factory WriterFactory) {
	if err := globalRegistry.RegisterWriter(name, factory); err != nil {
		panic(err)
	}
}

// CreateGenerator instantiates a generator from the global registry.
func CreateGenerator(name string, opts map[string]interface{}) (core.Generator, error) {
	return globalRegistry.CreateGenerator(name, opts)
}

// CreateWriter instantiates a writer from the global registry.
func CreateWriter(ctx context.Context, name, outputURI string, cfg *config.WriterConfig) (core.Writer, error) {
	return globalRegistry.CreateWriter(ctx, name, outputURI, cfg)
}

// ListGenerators returns the globally registered generator names, sorted.
func ListGenerators() []string { return globalRegistry.ListGenerators() }

// ListWriters returns the globally registered writer format names, sorted.
func ListWriters() []string { return globalRegistry.ListWriters() }

// HasGenerator reports whether name is globally registered.
func HasGenerator(name string) bool { return globalRegistry.HasGenerator(name) }

// HasWriter reports whether name is globally registered.
func HasWriter(name string) bool { return globalRegistry.HasWriter(name) }
