package params

import (
	"log/slog"

	"github.com/goliatone/go-params/pkg/activity"
)

// DefaultMaxSubstitutions caps the distinct variable expansions performed by
// one top-level resolution.
const DefaultMaxSubstitutions = 1024

// Option configures a Store, Resolver or Configuration. Options irrelevant to
// the value being built are ignored, so one option set can be shared.
type Option func(*config)

type config struct {
	name             string
	actorID          string
	tenantID         string
	hooks            activity.Hooks
	activity         activity.Config
	activitySet      bool
	logger           *slog.Logger
	resolutionLogger ResolutionLogger
	evaluatorLogger  EvaluatorLogger
	maxSubstitutions int
	evaluator        Evaluator
	programCache     ProgramCache
	functions        *FunctionRegistry
}

func applyOptions(opts []Option) config {
	cfg := config{
		maxSubstitutions: DefaultMaxSubstitutions,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if !cfg.activitySet {
		cfg.activity = activity.Config{Enabled: true}
	}
	return cfg
}

// WithName labels the store. The label is used in observation events and
// merge diagnostics only.
func WithName(name string) Option {
	return func(cfg *config) {
		cfg.name = name
	}
}

// WithActor stamps every observation event of the store with the actor and
// tenant responsible for it. Sinks such as usersink.Hook expect UUID strings.
func WithActor(actorID, tenantID string) Option {
	return func(cfg *config) {
		cfg.actorID = actorID
		cfg.tenantID = tenantID
	}
}

// WithHooks attaches activity hooks that observe overwrites and merge
// decisions. Nil hooks are dropped.
func WithHooks(hooks ...activity.ActivityHook) Option {
	normalized := activity.Hooks(hooks).Clone()
	return func(cfg *config) {
		cfg.hooks = append(cfg.hooks, normalized...)
	}
}

// WithActivityConfig overrides the emitter configuration, e.g. to disable
// emission or change the default channel.
func WithActivityConfig(ac activity.Config) Option {
	return func(cfg *config) {
		cfg.activity = ac
		cfg.activitySet = true
	}
}

// WithLogger sets the logger used for internal diagnostics such as failing
// hooks or unparsable typed values. Observation events are routed through
// hooks; see activity.LogHook.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithResolutionLogger records one event per top-level variable resolution.
func WithResolutionLogger(logger ResolutionLogger) Option {
	return func(cfg *config) {
		cfg.resolutionLogger = logger
	}
}

// WithEvaluatorLogger records one event per rule evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *config) {
		cfg.evaluatorLogger = logger
	}
}

// WithMaxSubstitutions bounds the distinct variable expansions a single
// resolution may perform before failing with ErrSubstitutionLimit. Values
// below one keep the default.
func WithMaxSubstitutions(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxSubstitutions = n
		}
	}
}

// WithEvaluator configures the evaluator used for configuration rules.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.programCache = cache
	}
}

// WithFunctionRegistry exposes registry functions to rule expressions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for rule expressions.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *config) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

func (cfg config) resolutionLog() ResolutionLogger {
	if cfg.resolutionLogger != nil {
		return cfg.resolutionLogger
	}
	return noopResolutionLogger{}
}

func (cfg config) evaluatorLog() EvaluatorLogger {
	if cfg.evaluatorLogger != nil {
		return cfg.evaluatorLogger
	}
	return noopEvaluatorLogger{}
}
