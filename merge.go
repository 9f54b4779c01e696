package params

import (
	"context"
	"strings"

	"github.com/goliatone/go-params/layering"
	"github.com/goliatone/go-params/pkg/activity"
)

// MergeOption configures InheritAndOverride.
type MergeOption func(*mergeConfig)

type mergeConfig struct {
	prefix      string
	childLabel  string
	parentLabel string
	hooks       activity.Hooks
}

// WithMergePrefix tags every merge event with prefix, which log hooks print
// in front of their messages.
func WithMergePrefix(prefix string) MergeOption {
	return func(cfg *mergeConfig) {
		cfg.prefix = prefix
	}
}

// WithLayerLabels overrides the labels reported for the child and parent
// layers. By default the store names are used.
func WithLayerLabels(child, parent string) MergeOption {
	return func(cfg *mergeConfig) {
		cfg.childLabel = child
		cfg.parentLabel = parent
	}
}

// WithMergeHooks adds hooks that observe this merge only, in addition to the
// child store's own hooks.
func WithMergeHooks(hooks ...activity.ActivityHook) MergeOption {
	normalized := activity.Hooks(hooks).Clone()
	return func(cfg *mergeConfig) {
		cfg.hooks = append(cfg.hooks, normalized...)
	}
}

// InheritAndOverride merges parent into child. Defaults and parameters are
// merged independently: entries the child already has are kept and reported
// as overridden, missing entries are copied from the parent and reported as
// inherited. The parent is never modified and running the merge twice has no
// further effect on the child.
func InheritAndOverride(child, parent *Store, opts ...MergeOption) error {
	if child == nil || parent == nil {
		return ErrNilStore
	}
	cfg := mergeConfig{
		childLabel:  labelOr(child.Name(), "child"),
		parentLabel: labelOr(parent.Name(), "parent"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	for _, outcome := range layering.InheritMissing(child.defaults, parent.defaults, nil) {
		input := cfg.input(child, outcome.Key)
		if outcome.Inherited {
			input.Value = outcome.Value
			cfg.emit(child, activity.BuildInheritedEvent(activity.ObjectDefault, input))
			continue
		}
		cfg.emit(child, activity.BuildOverriddenEvent(activity.ObjectDefault, input))
	}

	for _, outcome := range layering.InheritMissing(child.params, parent.params, (*Parameter).Clone) {
		input := cfg.input(child, outcome.Key)
		if outcome.Inherited {
			input.Value = strings.Join(outcome.Value.Values(), ",")
			cfg.emit(child, activity.BuildInheritedEvent(activity.ObjectParameter, input))
			continue
		}
		cfg.emit(child, activity.BuildOverriddenEvent(activity.ObjectParameter, input))
	}
	return nil
}

// input attributes merge events to the child store's actor.
func (cfg mergeConfig) input(child *Store, key string) activity.ChangeInput {
	return activity.ChangeInput{
		Key:      key,
		Layer:    cfg.childLabel,
		Source:   cfg.parentLabel,
		Prefix:   cfg.prefix,
		ActorID:  child.actorID,
		TenantID: child.tenantID,
	}
}

func (cfg mergeConfig) emit(child *Store, event activity.Event) {
	child.emit(event)
	if !cfg.hooks.Enabled() {
		return
	}
	if event.Channel == "" {
		event.Channel = child.emitter.Config().Channel
	}
	if err := cfg.hooks.Notify(context.Background(), event); err != nil {
		child.logger.Warn("params merge hook failed",
			"store", child.name,
			"verb", event.Verb,
			"key", event.ObjectID,
			"error", err,
		)
	}
}

func labelOr(label, fallback string) string {
	if strings.TrimSpace(label) == "" {
		return fallback
	}
	return label
}

// InheritFrom merges parent's store into c's store with InheritAndOverride.
func (c *Configuration) InheritFrom(parent *Configuration, opts ...MergeOption) error {
	if parent == nil {
		return ErrNilStore
	}
	return InheritAndOverride(c.store, parent.store, opts...)
}
