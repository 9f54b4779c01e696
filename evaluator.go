package params

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/goliatone/go-params/layering"
)

// RuleContext carries the values a rule expression can see. Params holds the
// resolved parameters nested by their dotted names ("db.host" becomes
// params["db"]["host"]); Flat holds the same values keyed by full name.
type RuleContext struct {
	Params map[string]any
	Flat   map[string]any
	Prefix string
	Now    *time.Time
	Args   map[string]any
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Params == nil {
		ctx.Params = map[string]any{}
	}
	if ctx.Flat == nil {
		ctx.Flat = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) prefixLabel() string {
	if ctx.Prefix == "" {
		return "-"
	}
	return ctx.Prefix
}

var reservedBindings = []string{"now", "args", "params", "prefix", "call"}

// bindings returns the variables exposed to expressions. Top-level parameter
// segments are bound directly unless they collide with a reserved name, in
// which case they stay reachable through params.
func (ctx RuleContext) bindings() map[string]any {
	env := map[string]any{
		"now":    *ctx.Now,
		"args":   ctx.Args,
		"params": ctx.Flat,
		"prefix": ctx.Prefix,
	}
	for key, value := range ctx.Params {
		if slices.Contains(reservedBindings, key) {
			continue
		}
		env[key] = value
	}
	return env
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// ProgramCache stores compiled programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// NewProgramCache returns an unbounded in-memory ProgramCache that is safe
// for concurrent use.
func NewProgramCache() ProgramCache {
	return &memoryProgramCache{programs: make(map[string]any)}
}

type memoryProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

func (c *memoryProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

func (c *memoryProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs[key] = value
}

// EvaluatorOption configures any of the bundled evaluators.
type EvaluatorOption func(*evaluatorConfig)

type evaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// EvaluatorProgramCache makes the evaluator reuse compiled programs.
func EvaluatorProgramCache(cache ProgramCache) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.cache = cache
	}
}

// EvaluatorFunctions exposes registry functions to expressions, both by name
// and through call(name, args...).
func EvaluatorFunctions(registry *FunctionRegistry) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyEvaluatorOptions(opts []EvaluatorOption) evaluatorConfig {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg evaluatorConfig) lookup(key string) (any, bool) {
	if cfg.cache == nil {
		return nil, false
	}
	return cfg.cache.Get(key)
}

func (cfg evaluatorConfig) store(key string, program any) {
	if cfg.cache != nil {
		cfg.cache.Set(key, program)
	}
}

// callFunc is bound as call(name, args...) when a registry is configured.
func (cfg evaluatorConfig) callFunc() func(string, ...any) (any, error) {
	return func(name string, arguments ...any) (any, error) {
		return cfg.registry.Call(name, arguments...)
	}
}

// functionBindings returns one binding per registered function.
func (cfg evaluatorConfig) functionBindings() map[string]Function {
	if cfg.registry == nil {
		return nil
	}
	out := make(map[string]Function)
	for _, name := range cfg.registry.Names() {
		fn := name
		out[fn] = func(arguments ...any) (any, error) {
			return cfg.registry.Call(fn, arguments...)
		}
	}
	return out
}

type engineNamer interface {
	Engine() string
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(engineNamer); ok {
		return named.Engine()
	}
	return "custom"
}

// nestValues expands dotted names into nested maps. A name whose path runs
// through an existing scalar is left out of the nested view.
func nestValues(flat map[string]any) map[string]any {
	root := make(map[string]any, len(flat))
	for _, name := range slices.Sorted(maps.Keys(flat)) {
		segments := layering.Segments(name)
		if len(segments) == 0 {
			continue
		}
		node := root
		placed := true
		for _, segment := range segments[:len(segments)-1] {
			next, exists := node[segment]
			if !exists {
				child := map[string]any{}
				node[segment] = child
				node = child
				continue
			}
			child, ok := next.(map[string]any)
			if !ok {
				placed = false
				break
			}
			node = child
		}
		leaf := segments[len(segments)-1]
		if !placed {
			continue
		}
		if _, exists := node[leaf]; exists {
			continue
		}
		node[leaf] = flat[name]
	}
	return root
}
