package params

import (
	"log/slog"
	"slices"
	"sync"

	"go.uber.org/atomic"
)

// Configuration answers resolved parameter queries over a Store. The stored
// parameters are never modified by resolution; resolved values come back as
// new Parameter values.
type Configuration struct {
	store    *Store
	resolver *Resolver
	cfg      config
	logger   *slog.Logger
	opts     []Option
	stats    stats

	evalOnce  sync.Once
	evaluator Evaluator
}

// Stats is a point-in-time copy of the configuration counters.
type Stats struct {
	Lookups     int64
	Resolutions int64
	Failures    int64
}

type stats struct {
	lookups     atomic.Int64
	resolutions atomic.Int64
	failures    atomic.Int64
}

// NewConfiguration creates a configuration over a fresh store built with the
// same options.
func NewConfiguration(opts ...Option) *Configuration {
	return FromStore(NewStore(opts...), opts...)
}

// FromStore wraps an existing store. A nil store is replaced by an empty one.
func FromStore(store *Store, opts ...Option) *Configuration {
	if store == nil {
		store = NewStore(opts...)
	}
	cfg := applyOptions(opts)
	return &Configuration{
		store:    store,
		resolver: NewResolver(store, opts...),
		cfg:      cfg,
		logger:   cfg.logger,
		opts:     slices.Clone(opts),
	}
}

// Store returns the backing store.
func (c *Configuration) Store() *Store {
	return c.store
}

// Name returns the backing store's label.
func (c *Configuration) Name() string {
	return c.store.Name()
}

// AddParameter stores p in the backing store.
func (c *Configuration) AddParameter(p *Parameter) {
	c.store.AddParameter(p)
}

// Set is shorthand for AddParameter(NewParameter(name, values...)).
func (c *Configuration) Set(name string, values ...string) {
	c.store.AddParameter(NewParameter(name, values...))
}

// AddDefault registers a default in the backing store.
func (c *Configuration) AddDefault(name, value string) {
	c.store.AddDefault(name, value)
}

// ParamRaw returns the effective parameter for name without expanding
// placeholders.
func (c *Configuration) ParamRaw(name string) (*Parameter, bool) {
	c.stats.lookups.Inc()
	return c.store.Lookup(name)
}

// ScopedParamRaw is ParamRaw over prefix.name then name.
func (c *Configuration) ScopedParamRaw(prefix, name string) (*Parameter, bool) {
	c.stats.lookups.Inc()
	return c.store.LookupScoped(prefix, name)
}

// Param returns the effective parameter for name with placeholders expanded.
// It returns nil and no error when name is unknown. A parameter with several
// values fails with ErrMultiValue; use ParamRaw and ResolveAll for lists.
func (c *Configuration) Param(name string) (*Parameter, error) {
	p, ok := c.ParamRaw(name)
	if !ok {
		return nil, nil
	}
	return c.resolveParameter("", p)
}

// ScopedParam is Param over prefix.name then name. Once a candidate is found
// its resolution result is final; a failure does not fall through to the
// unscoped name.
func (c *Configuration) ScopedParam(prefix, name string) (*Parameter, error) {
	p, ok := c.ScopedParamRaw(prefix, name)
	if !ok {
		return nil, nil
	}
	return c.resolveParameter(prefix, p)
}

// Resolve expands the placeholders in value.
func (c *Configuration) Resolve(value string) (string, error) {
	c.stats.resolutions.Inc()
	out, err := c.resolver.Resolve(value)
	if err != nil {
		c.stats.failures.Inc()
	}
	return out, err
}

// ResolveAll expands each value in order, failing fast.
func (c *Configuration) ResolveAll(values []string) ([]string, error) {
	c.stats.resolutions.Inc()
	out, err := c.resolver.ResolveAll(values)
	if err != nil {
		c.stats.failures.Inc()
	}
	return out, err
}

// Stats returns the current counters.
func (c *Configuration) Stats() Stats {
	return Stats{
		Lookups:     c.stats.lookups.Load(),
		Resolutions: c.stats.resolutions.Load(),
		Failures:    c.stats.failures.Load(),
	}
}

// Clone returns a configuration over a deep copy of the store. Counters start
// from zero.
func (c *Configuration) Clone(opts ...Option) *Configuration {
	merged := append(slices.Clone(c.opts), opts...)
	return FromStore(c.store.Clone(opts...), merged...)
}

func (c *Configuration) resolveParameter(prefix string, p *Parameter) (*Parameter, error) {
	c.stats.resolutions.Inc()
	value, ok, err := p.SingleValue()
	if err != nil {
		c.stats.failures.Inc()
		return nil, wrapResolutionError(ErrMultiValue, p.Name(), "", nil, err)
	}
	if !ok || value == "" {
		return p, nil
	}
	resolved, err := c.resolver.resolveNamed(prefix, p.Name(), value)
	if err != nil {
		c.stats.failures.Inc()
		return nil, err
	}
	if resolved == value {
		return p, nil
	}
	return NewParameter(p.Name(), resolved), nil
}
