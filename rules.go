package params

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/goliatone/go-params/layering"
)

// ErrNoEvaluator reports that no rule engine could be configured.
var ErrNoEvaluator = errors.New("params: evaluator not configured")

// Rule is a named boolean expression over the resolved parameters.
type Rule struct {
	Name   string `json:"name" yaml:"name" toml:"name"`
	Expr   string `json:"expr" yaml:"expr" toml:"expr"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" toml:"prefix,omitempty"`
}

func (r Rule) label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Expr
}

// Snapshot resolves every known name. Single-valued parameters map to their
// resolved string and multi-valued ones to the resolved []string. The first
// resolution failure aborts the snapshot.
func (c *Configuration) Snapshot() (map[string]any, error) {
	names := c.store.Names()
	out := make(map[string]any, len(names))
	for _, name := range names {
		p, ok := c.store.Lookup(name)
		if !ok {
			continue
		}
		if p.HasMultipleValues() {
			values, err := c.ResolveAll(p.Values())
			if err != nil {
				return nil, wrapResolutionError(nil, name, "", nil, err)
			}
			out[name] = values
			continue
		}
		resolved, err := c.Param(name)
		if err != nil {
			return nil, err
		}
		value, _ := resolved.FirstValue()
		out[name] = value
	}
	return out, nil
}

// RuleContext builds the evaluation context for prefix. Names under
// prefix+"." are also bound without the prefix, overriding unscoped names the
// same way ScopedParam does.
func (c *Configuration) RuleContext(prefix string) (RuleContext, error) {
	snapshot, err := c.Snapshot()
	if err != nil {
		return RuleContext{}, err
	}
	view := snapshot
	if prefix != "" {
		view = maps.Clone(snapshot)
		scope := prefix + layering.Separator
		for name, value := range snapshot {
			if rest, ok := strings.CutPrefix(name, scope); ok && rest != "" {
				view[rest] = value
			}
		}
	}
	now := time.Now()
	return RuleContext{
		Params: nestValues(view),
		Flat:   view,
		Prefix: prefix,
		Now:    &now,
	}, nil
}

// Evaluate runs expr against the resolved parameters.
func (c *Configuration) Evaluate(expr string) (any, error) {
	return c.evaluate(Rule{Expr: expr})
}

// CheckRules evaluates every rule and joins the failures. A rule passes only
// when it evaluates to boolean true.
func (c *Configuration) CheckRules(rules ...Rule) error {
	var errs []error
	for _, rule := range rules {
		result, err := c.evaluate(rule)
		if err != nil {
			errs = append(errs, &RuleError{Rule: rule.label(), Expr: rule.Expr, Err: err})
			continue
		}
		if ok, isBool := result.(bool); !isBool || !ok {
			errs = append(errs, &RuleError{Rule: rule.label(), Expr: rule.Expr, Result: result})
		}
	}
	return errors.Join(errs...)
}

func (c *Configuration) evaluate(rule Rule) (any, error) {
	if rule.Expr == "" {
		return nil, fmt.Errorf("params: expression must not be empty")
	}
	evaluator, err := c.ruleEvaluator()
	if err != nil {
		return nil, err
	}
	ctx, err := c.RuleContext(rule.Prefix)
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, rule.Expr)
	evalErr = wrapEvaluationError(engine, rule.Expr, ctx.prefixLabel(), evalErr)
	c.cfg.evaluatorLog().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Rule:     rule.Name,
		Expr:     rule.Expr,
		Prefix:   rule.Prefix,
		Duration: time.Since(start),
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (c *Configuration) ruleEvaluator() (Evaluator, error) {
	c.evalOnce.Do(func() {
		if c.cfg.evaluator != nil {
			c.evaluator = c.cfg.evaluator
			return
		}
		var opts []EvaluatorOption
		if c.cfg.programCache != nil {
			opts = append(opts, EvaluatorProgramCache(c.cfg.programCache))
		}
		if c.cfg.functions != nil {
			opts = append(opts, EvaluatorFunctions(c.cfg.functions))
		}
		c.evaluator = NewExprEvaluator(opts...)
	})
	if c.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return c.evaluator, nil
}
