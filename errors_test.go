package params

import (
	"errors"
	"strings"
	"testing"
)

func TestResolutionErrorMatchesKind(t *testing.T) {
	err := error(&ResolutionError{Kind: ErrMultiValue, Name: "list"})
	if !errors.Is(err, ErrMultiValue) || !errors.Is(err, ErrInconsistentData) {
		t.Fatalf("expected kind and parent kind to match")
	}
	if errors.Is(err, ErrUndefinedVariable) {
		t.Fatalf("unrelated kind must not match")
	}
	if !strings.Contains(err.Error(), `name="list"`) {
		t.Fatalf("expected name in message, got %q", err.Error())
	}
}

func TestWrapResolutionErrorCompletesExisting(t *testing.T) {
	existing := &ResolutionError{Kind: ErrUndefinedVariable, Name: "inner"}
	err := wrapResolutionError(ErrMultiValue, "outer", "value", []string{"a"}, existing)
	if err != existing {
		t.Fatalf("expected the existing error to be completed in place")
	}
	if existing.Kind != ErrUndefinedVariable || existing.Name != "inner" {
		t.Fatalf("existing fields must not be overwritten, got %+v", existing)
	}
	if existing.Value != "value" || len(existing.Chain) != 1 {
		t.Fatalf("missing fields should be filled, got %+v", existing)
	}

	base := errors.New("boom")
	wrapped := wrapResolutionError(ErrCyclicVariable, "x", "", nil, base)
	if !errors.Is(wrapped, base) || !errors.Is(wrapped, ErrCyclicVariable) {
		t.Fatalf("expected wrapped error to match base and kind, got %v", wrapped)
	}
}

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "flag && missing", "svc", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" || evalErr.Expr != "flag && missing" || evalErr.Prefix != "svc" {
		t.Fatalf("unexpected metadata %+v", evalErr)
	}
	if !errors.Is(evalErr, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	existing := &EvaluationError{Engine: "expr", Err: errors.New("compile failure")}
	if err := wrapEvaluationError("cel", "rule", "db", existing); err != existing {
		t.Fatalf("expected existing error back")
	}
	if existing.Engine != "expr" || existing.Expr != "rule" || existing.Prefix != "db" {
		t.Fatalf("unexpected augmentation %+v", existing)
	}
}

func TestRuleErrorMessage(t *testing.T) {
	err := &RuleError{Rule: "port", Expr: "port > 1", Result: false}
	if !errors.Is(err, ErrRuleFailed) {
		t.Fatalf("expected ErrRuleFailed")
	}
	if !strings.Contains(err.Error(), "evaluated to false") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestConversionErrorUnwraps(t *testing.T) {
	base := errors.New("bad syntax")
	err := &ConversionError{Name: "port", Value: "x", Type: "int", Err: base}
	if !errors.Is(err, base) {
		t.Fatalf("expected unwrap to base")
	}
}
