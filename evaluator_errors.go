package params

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError captures the engine, expression and prefix of a failed rule
// evaluation.
type EvaluationError struct {
	Engine string
	Expr   string
	Prefix string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: %s evaluator %s prefix=%s: %v", e.Engine, describeExpression(e.Expr), e.Prefix, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "params:") {
		return err
	}
	return fmt.Errorf("params: %s evaluator: %w", engine, err)
}

// wrapEvaluationError completes an existing EvaluationError instead of
// nesting a second one.
func wrapEvaluationError(engine, expr, prefix string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Prefix == "" {
			evalErr.Prefix = prefix
		}
		return evalErr
	}
	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Prefix: prefix,
		Err:    err,
	}
}

// RuleError reports a rule that failed to evaluate or did not yield true. It
// matches ErrRuleFailed through errors.Is.
type RuleError struct {
	Rule   string
	Expr   string
	Result any
	Err    error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrRuleFailed, e.Rule, e.Err)
	}
	return fmt.Sprintf("%v: %s: %s evaluated to %v", ErrRuleFailed, e.Rule, describeExpression(e.Expr), e.Result)
}

func (e *RuleError) Is(target error) bool {
	return target == ErrRuleFailed
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
