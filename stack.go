package params

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
)

// Scope names a precedence bucket (system, site, user, ...). Higher priority
// values are stronger.
type Scope struct {
	Name     string
	Label    string
	Priority int
	Metadata map[string]any
}

// ScopeOption configures a Scope on creation.
type ScopeOption func(*Scope)

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(s *Scope) {
		s.Label = label
	}
}

// WithScopeMetadata attaches a copy of metadata to the scope.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(s *Scope) {
		if len(metadata) == 0 {
			return
		}
		s.Metadata = maps.Clone(metadata)
	}
}

// NewScope builds a Scope. Validation happens when the scope joins a Stack.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	scope := Scope{Name: name, Priority: priority}
	for _, opt := range opts {
		if opt != nil {
			opt(&scope)
		}
	}
	return scope
}

// DisplayName returns the label, falling back to the name.
func (s Scope) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

func (s Scope) clone() Scope {
	s.Metadata = maps.Clone(s.Metadata)
	return s
}

// Layer pairs a scope with the store holding that scope's parameters.
type Layer struct {
	Scope Scope
	Store *Store
}

// NewLayer constructs a Layer.
func NewLayer(scope Scope, store *Store) Layer {
	return Layer{Scope: scope.clone(), Store: store}
}

var (
	// ErrScopeNameRequired indicates a missing scope name.
	ErrScopeNameRequired = errors.New("scope: name must be provided")
	// ErrDuplicateScopeName indicates two layers share a scope name.
	ErrDuplicateScopeName = errors.New("scope: names must be unique")
	// ErrPriorityOrder indicates two layers share a priority.
	ErrPriorityOrder = errors.New("scope: priorities must be strictly ordered")
	// ErrEmptyStack indicates a merge over a stack without layers.
	ErrEmptyStack = errors.New("scope: stack must include at least one layer")
)

// Stack orders layers from strongest to weakest.
type Stack struct {
	layers []Layer
}

// NewStack validates the layers and sorts them strongest first.
func NewStack(layers ...Layer) (*Stack, error) {
	stack := &Stack{}
	for _, layer := range layers {
		if err := stack.validate(layer); err != nil {
			return nil, err
		}
		stack.layers = append(stack.layers, NewLayer(layer.Scope, layer.Store))
	}
	stack.sort()
	return stack, nil
}

// Push adds layer at the position its priority dictates.
func (s *Stack) Push(layer Layer) error {
	if err := s.validate(layer); err != nil {
		return err
	}
	s.layers = append(s.layers, NewLayer(layer.Scope, layer.Store))
	s.sort()
	return nil
}

// Pop removes and returns the strongest layer.
func (s *Stack) Pop() (Layer, bool) {
	if s == nil || len(s.layers) == 0 {
		return Layer{}, false
	}
	top := s.layers[0]
	s.layers = slices.Delete(s.layers, 0, 1)
	return top, true
}

// Peek returns the strongest layer without removing it.
func (s *Stack) Peek() (Layer, bool) {
	if s == nil || len(s.layers) == 0 {
		return Layer{}, false
	}
	return s.layers[0], true
}

// Layers returns a copy of the layers, strongest first. Stores are shared.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i, layer := range s.layers {
		out[i] = NewLayer(layer.Scope, layer.Store)
	}
	return out
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Merge folds every layer, strongest first, into a fresh store through
// InheritAndOverride and wraps it in a Configuration built with opts. Layer
// stores are left untouched. Merge events carry the scope names as labels.
func (s *Stack) Merge(opts ...Option) (*Configuration, error) {
	if s.Len() == 0 {
		return nil, ErrEmptyStack
	}
	cfg := applyOptions(opts)
	if cfg.name == "" {
		opts = append(slices.Clone(opts), WithName("merged"))
	}
	merged := NewStore(opts...)
	for _, layer := range s.layers {
		err := InheritAndOverride(merged, layer.Store,
			WithLayerLabels(merged.Name(), layer.Scope.Name),
			WithMergePrefix(layer.Scope.DisplayName()),
		)
		if err != nil {
			return nil, fmt.Errorf("scope %s: %w", layer.Scope.Name, err)
		}
	}
	return FromStore(merged, opts...), nil
}

func (s *Stack) validate(layer Layer) error {
	if layer.Scope.Name == "" {
		return ErrScopeNameRequired
	}
	if layer.Store == nil {
		return fmt.Errorf("%w: scope %s", ErrNilStore, layer.Scope.Name)
	}
	for _, existing := range s.layers {
		if existing.Scope.Name == layer.Scope.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		if existing.Scope.Priority == layer.Scope.Priority {
			return fmt.Errorf("%w: %d", ErrPriorityOrder, layer.Scope.Priority)
		}
	}
	return nil
}

func (s *Stack) sort() {
	sort.SliceStable(s.layers, func(i, j int) bool {
		return s.layers[i].Scope.Priority > s.layers[j].Scope.Priority
	})
}
