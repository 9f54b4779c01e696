// Package params stores named, multi-valued configuration parameters with
// per-name defaults, resolves {$name} placeholders across them, and merges
// layered stores so a child keeps its own entries and inherits the rest.
package params

import (
	"fmt"
	"slices"
	"strings"
)

// Parameter is a named configuration entry holding an ordered sequence of
// string values. A nil *Parameter means "absent" throughout this package.
//
// Values are only ever replaced wholesale; accessors hand out copies so the
// owning store cannot be corrupted through a returned slice.
type Parameter struct {
	name   string
	values []string
}

// NewParameter builds a parameter with the given values. Passing no values
// yields a parameter that is indistinguishable from "no value" for lookups.
func NewParameter(name string, values ...string) *Parameter {
	return &Parameter{
		name:   name,
		values: slices.Clone(values),
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

// Values returns a copy of the stored values.
func (p *Parameter) Values() []string {
	if p == nil || len(p.values) == 0 {
		return nil
	}
	return slices.Clone(p.values)
}

// Len returns the number of values.
func (p *Parameter) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}

// FirstValue returns the first value, if any.
func (p *Parameter) FirstValue() (string, bool) {
	if !p.HasAnyValue() {
		return "", false
	}
	return p.values[0], true
}

// SingleValue returns the only value of p. A parameter without values reports
// ok=false and no error; one with several values fails with ErrMultiValue,
// which callers should treat as an authoring mistake rather than take the
// first value silently.
func (p *Parameter) SingleValue() (value string, ok bool, err error) {
	if p.HasMultipleValues() {
		return "", false, fmt.Errorf("%w: parameter %q has %d values but only one is requested",
			ErrMultiValue, p.name, len(p.values))
	}
	value, ok = p.FirstValue()
	return value, ok, nil
}

// HasAnyValue reports whether p holds at least one value.
func (p *Parameter) HasAnyValue() bool {
	return p != nil && len(p.values) > 0
}

// HasMultipleValues reports whether p holds more than one value.
func (p *Parameter) HasMultipleValues() bool {
	return p != nil && len(p.values) > 1
}

// SetValues replaces every value of p.
func (p *Parameter) SetValues(values ...string) {
	p.values = slices.Clone(values)
}

// SetValue replaces every value of p with value.
func (p *Parameter) SetValue(value string) {
	p.values = []string{value}
}

// Clone returns a deep copy of p.
func (p *Parameter) Clone() *Parameter {
	if p == nil {
		return nil
	}
	return NewParameter(p.name, p.values...)
}

// Equal reports whether p and other carry the same name and values.
func (p *Parameter) Equal(other *Parameter) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.name == other.name && slices.Equal(p.values, other.values)
}

// usable reports whether p has a non-empty first value. An explicitly empty
// value behaves like an unset one so that it cannot mask a default.
func (p *Parameter) usable() bool {
	value, ok := p.FirstValue()
	return ok && value != ""
}

func (p *Parameter) String() string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s=[%s]", p.name, strings.Join(p.values, ", "))
}
