package params

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInconsistentData reports a usage contract violation, such as asking
	// for the single value of a parameter that holds several.
	ErrInconsistentData = errors.New("params: inconsistent data")
	// ErrMultiValue reports that an operation requiring one value found more
	// than one. It matches ErrInconsistentData through errors.Is.
	ErrMultiValue error = &kindError{msg: "params: multiple values where one is required", parent: ErrInconsistentData}
	// ErrMalformedVariable reports a "{$" start marker without a closing "}".
	ErrMalformedVariable = errors.New("params: variable is not properly terminated")
	// ErrUndefinedVariable reports a placeholder whose name has no usable value.
	ErrUndefinedVariable = errors.New("params: variable is not defined")
	// ErrCyclicVariable reports a placeholder that references itself, directly
	// or transitively.
	ErrCyclicVariable = errors.New("params: variable references itself")
	// ErrSubstitutionLimit reports a resolution that needed more distinct
	// variable expansions than its budget allows.
	ErrSubstitutionLimit = errors.New("params: substitution limit exceeded")
	// ErrNilStore reports a merge or stack operation given a nil store.
	ErrNilStore = errors.New("params: store must not be nil")
	// ErrRuleFailed reports a configuration rule that did not evaluate to true.
	ErrRuleFailed = errors.New("params: rule failed")
)

// kindError is a sentinel that also matches a broader parent sentinel.
type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool {
	return target == e.parent
}

// ResolutionError captures the parameter and value being resolved alongside
// the failure kind. Kind is one of the sentinel errors above and is matched by
// errors.Is.
type ResolutionError struct {
	Kind  error
	Name  string
	Value string
	Chain []string
	Err   error
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("params: resolution failed")
	}
	if e.Name != "" {
		fmt.Fprintf(&b, " name=%q", e.Name)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value=%q", e.Value)
	}
	if len(e.Chain) > 0 {
		fmt.Fprintf(&b, " chain=%s", strings.Join(e.Chain, "->"))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ResolutionError) Is(target error) bool {
	if e == nil || e.Kind == nil {
		return false
	}
	return errors.Is(e.Kind, target)
}

func (e *ResolutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// wrapResolutionError attaches kind, name and value to err. An existing
// ResolutionError is completed rather than wrapped again so the innermost
// context survives.
func wrapResolutionError(kind error, name, value string, chain []string, err error) error {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		if resErr.Kind == nil {
			resErr.Kind = kind
		}
		if resErr.Name == "" {
			resErr.Name = name
		}
		if resErr.Value == "" {
			resErr.Value = value
		}
		if len(resErr.Chain) == 0 && len(chain) > 0 {
			resErr.Chain = append([]string(nil), chain...)
		}
		return resErr
	}
	out := &ResolutionError{
		Kind:  kind,
		Name:  name,
		Value: value,
		Err:   err,
	}
	if len(chain) > 0 {
		out.Chain = append([]string(nil), chain...)
	}
	return out
}

// ConversionError reports a resolved value that could not be parsed into the
// requested type.
type ConversionError struct {
	Name  string
	Value string
	Type  string
	Err   error
}

func (e *ConversionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: cannot parse %q with value %q as %s: %v", e.Name, e.Value, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
