package params

import (
	"slices"
	"strings"
	"time"
)

// Placeholder markers. A placeholder reads {$name}.
const (
	VariableStart = "{$"
	VariableEnd   = "}"
)

// Lookuper provides raw parameters for placeholder resolution. *Store
// satisfies it.
type Lookuper interface {
	Lookup(name string) (*Parameter, bool)
}

// Resolver expands {$name} placeholders against a Lookuper.
type Resolver struct {
	source           Lookuper
	maxSubstitutions int
	logger           ResolutionLogger
}

// NewResolver creates a resolver reading placeholder values from source.
func NewResolver(source Lookuper, opts ...Option) *Resolver {
	cfg := applyOptions(opts)
	return &Resolver{
		source:           source,
		maxSubstitutions: cfg.maxSubstitutions,
		logger:           cfg.resolutionLog(),
	}
}

// Resolve substitutes every placeholder in value. The leftmost placeholder is
// resolved first and all of its occurrences are replaced before scanning
// again. Values produced by a substitution are themselves resolved.
func (r *Resolver) Resolve(value string) (string, error) {
	return r.resolveNamed("", "", value)
}

// ResolveAll resolves each value in order and fails on the first error
// without returning partial results.
func (r *Resolver) ResolveAll(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, value := range values {
		resolved, err := r.Resolve(value)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// resolveNamed resolves value on behalf of the parameter name, which seeds
// the cycle chain so self references are caught immediately.
func (r *Resolver) resolveNamed(prefix, name, value string) (string, error) {
	start := time.Now()
	run := &resolution{
		input:    value,
		budget:   r.maxSubstitutions,
		expanded: make(map[string]string),
	}
	var chain []string
	if name != "" {
		chain = []string{name}
	}
	out, err := r.expand(value, chain, run)
	r.logger.LogResolution(ResolutionLogEvent{
		Name:          name,
		Prefix:        prefix,
		Input:         value,
		Output:        out,
		Substitutions: run.substitutions,
		Duration:      time.Since(start),
		Err:           err,
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// resolution is the state of one top-level Resolve call. expanded holds the
// fully expanded value of every variable resolved so far, so shared
// references are expanded once per run.
type resolution struct {
	input         string
	budget        int
	substitutions int
	expanded      map[string]string
}

func (r *Resolver) expand(value string, chain []string, run *resolution) (string, error) {
	current := value
	for {
		start := strings.Index(current, VariableStart)
		if start < 0 {
			return current, nil
		}
		nameStart := start + len(VariableStart)
		length := strings.Index(current[nameStart:], VariableEnd)
		if length < 0 {
			return "", &ResolutionError{Kind: ErrMalformedVariable, Value: run.input, Chain: slices.Clone(chain)}
		}
		name := current[nameStart : nameStart+length]
		placeholder := current[start : nameStart+length+len(VariableEnd)]

		if slices.Contains(chain, name) {
			return "", &ResolutionError{Kind: ErrCyclicVariable, Name: name, Value: run.input, Chain: append(slices.Clone(chain), name)}
		}
		replacement, ok := run.expanded[name]
		if !ok {
			run.substitutions++
			if run.budget > 0 && run.substitutions > run.budget {
				return "", &ResolutionError{Kind: ErrSubstitutionLimit, Name: name, Value: run.input, Chain: slices.Clone(chain)}
			}
			raw, err := r.variable(name, run.input, chain)
			if err != nil {
				return "", err
			}
			replacement, err = r.expand(raw, append(slices.Clone(chain), name), run)
			if err != nil {
				return "", err
			}
			run.expanded[name] = replacement
		}
		current = strings.ReplaceAll(current, placeholder, replacement)
	}
}

// variable returns the raw single value that name stands for. original is
// the top-level input, reported in errors.
func (r *Resolver) variable(name, original string, chain []string) (string, error) {
	if r.source == nil {
		return "", &ResolutionError{Kind: ErrUndefinedVariable, Name: name, Value: original, Chain: slices.Clone(chain)}
	}
	p, ok := r.source.Lookup(name)
	if !ok {
		return "", &ResolutionError{Kind: ErrUndefinedVariable, Name: name, Value: original, Chain: slices.Clone(chain)}
	}
	raw, ok, err := p.SingleValue()
	if err != nil {
		return "", wrapResolutionError(ErrMultiValue, name, original, chain, err)
	}
	if !ok || raw == "" {
		return "", &ResolutionError{Kind: ErrUndefinedVariable, Name: name, Value: original, Chain: slices.Clone(chain)}
	}
	return raw, nil
}
