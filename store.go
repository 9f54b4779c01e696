package params

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/goliatone/go-params/layering"
	"github.com/goliatone/go-params/pkg/activity"
)

// Store keeps actual parameters and fallback defaults in two independent
// maps keyed by name. A Store is not safe for concurrent mutation; concurrent
// reads after population are fine.
type Store struct {
	name     string
	actorID  string
	tenantID string
	params   map[string]*Parameter
	defaults map[string]string
	emitter  *activity.Emitter
	logger   *slog.Logger
	opts     []Option
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	cfg := applyOptions(opts)
	return &Store{
		name:     cfg.name,
		actorID:  cfg.actorID,
		tenantID: cfg.tenantID,
		params:   make(map[string]*Parameter),
		defaults: make(map[string]string),
		emitter:  activity.NewEmitter(cfg.hooks, cfg.activity),
		logger:   cfg.logger,
		opts:     slices.Clone(opts),
	}
}

// Name returns the label the store was created with.
func (s *Store) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// AddParameter stores p under its name. Replacing an existing entry is
// reported to the activity hooks with both the old and new parameter. Nil
// parameters are ignored.
func (s *Store) AddParameter(p *Parameter) {
	if p == nil {
		return
	}
	if old, ok := s.params[p.name]; ok {
		s.emit(activity.BuildParameterOverwrittenEvent(activity.ChangeInput{
			Key:      p.name,
			Layer:    s.name,
			Value:    p.String(),
			OldValue: old.String(),
			ActorID:  s.actorID,
			TenantID: s.tenantID,
		}))
	}
	s.params[p.name] = p
}

// AddDefault records value as the fallback for name. Replacing an existing
// default is reported to the activity hooks.
func (s *Store) AddDefault(name, value string) {
	if old, ok := s.defaults[name]; ok {
		s.emit(activity.BuildDefaultOverwrittenEvent(activity.ChangeInput{
			Key:      name,
			Layer:    s.name,
			Value:    value,
			OldValue: old,
			ActorID:  s.actorID,
			TenantID: s.tenantID,
		}))
	}
	s.defaults[name] = value
}

// Lookup returns the effective raw parameter for name: the stored parameter
// when its first value is non-empty, otherwise a synthesized single-value
// parameter built from the default, otherwise nothing.
func (s *Store) Lookup(name string) (*Parameter, bool) {
	if s == nil {
		return nil, false
	}
	if p, ok := s.params[name]; ok && p.usable() {
		return p, true
	}
	if value, ok := s.defaults[name]; ok {
		return NewParameter(name, value), true
	}
	return nil, false
}

// LookupScoped tries prefix.name first and then name, each with the Lookup
// precedence. An empty prefix only consults name.
func (s *Store) LookupScoped(prefix, name string) (*Parameter, bool) {
	for _, key := range layering.Candidates(prefix, name) {
		if p, ok := s.Lookup(key); ok {
			return p, true
		}
	}
	return nil, false
}

// SingleValue returns the first value of the effective parameter for name,
// failing with ErrMultiValue when it holds several.
func (s *Store) SingleValue(name string) (string, bool, error) {
	p, ok := s.Lookup(name)
	if !ok {
		return "", false, nil
	}
	return p.SingleValue()
}

// Parameter returns the stored parameter for name without default fallback.
func (s *Store) Parameter(name string) (*Parameter, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.params[name]
	return p, ok
}

// Default returns the default registered for name.
func (s *Store) Default(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	value, ok := s.defaults[name]
	return value, ok
}

// Parameters returns the stored parameters sorted by name.
func (s *Store) Parameters() []*Parameter {
	if s == nil {
		return nil
	}
	keys := slices.Sorted(maps.Keys(s.params))
	out := make([]*Parameter, 0, len(keys))
	for _, key := range keys {
		out = append(out, s.params[key])
	}
	return out
}

// Defaults returns a copy of the defaults map.
func (s *Store) Defaults() map[string]string {
	if s == nil {
		return nil
	}
	return maps.Clone(s.defaults)
}

// Names returns every name known as a parameter or a default, sorted.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(s.params)+len(s.defaults))
	for key := range s.params {
		seen[key] = struct{}{}
	}
	for key := range s.defaults {
		seen[key] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Len returns the number of distinct names in the store.
func (s *Store) Len() int {
	return len(s.Names())
}

// Clone returns a deep copy of s. The copy keeps the original options; extra
// opts are applied on top.
func (s *Store) Clone(opts ...Option) *Store {
	if s == nil {
		return nil
	}
	out := NewStore(append(slices.Clone(s.opts), opts...)...)
	for key, p := range s.params {
		out.params[key] = p.Clone()
	}
	maps.Copy(out.defaults, s.defaults)
	return out
}

func (s *Store) emit(event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(context.Background(), event); err != nil {
		s.logger.Warn("params activity hook failed",
			"store", s.name,
			"verb", event.Verb,
			"key", event.ObjectID,
			"error", err,
		)
	}
}
