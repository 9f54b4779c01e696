//go:build js_eval

package params

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cfg evaluatorConfig
}

// NewJSEvaluator constructs an Evaluator backed by goja. Each evaluation runs
// in a fresh runtime.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	return &jsEvaluator{cfg: applyEvaluatorOptions(opts)}
}

func (e *jsEvaluator) Engine() string { return "js" }

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("js", fmt.Errorf("expression must not be empty"))
	}
	key := "js:" + expression
	if cached, ok := e.cfg.lookup(key); ok {
		if program, ok := cached.(*goja.Program); ok {
			return &jsCompiledRule{evaluator: e, expression: expression, program: program}, nil
		}
	}
	program, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, "", err)
	}
	e.cfg.store(key, program)
	return &jsCompiledRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *jsEvaluator) inject(vm *goja.Runtime, ctx RuleContext) error {
	for key, value := range ctx.bindings() {
		if err := vm.Set(key, value); err != nil {
			return err
		}
	}
	if e.cfg.registry == nil {
		return nil
	}
	if err := vm.Set("call", e.cfg.callFunc()); err != nil {
		return err
	}
	for name, fn := range e.cfg.functionBindings() {
		if err := vm.Set(name, fn); err != nil {
			return err
		}
	}
	return nil
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	vm := goja.New()
	if err := r.evaluator.inject(vm, ctx); err != nil {
		return nil, wrapEvaluationError("js", r.expression, ctx.prefixLabel(), err)
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, wrapEvaluationError("js", r.expression, ctx.prefixLabel(), err)
	}
	return value.Export(), nil
}

// JSEvaluatorAvailable reports whether the binary was built with goja support.
func JSEvaluatorAvailable() bool {
	return true
}
