package activity

import (
	"context"
	"log/slog"
	"strings"
)

// LogHook forwards events to a slog logger. Overwrites are reported at WARN
// since they usually point at an authoring mistake; merge decisions are
// routine and go to DEBUG.
type LogHook struct {
	Logger *slog.Logger
}

// Notify writes one log record per event.
func (h LogHook) Notify(ctx context.Context, event Event) error {
	if h.Logger == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	attrs := []slog.Attr{
		slog.String("verb", event.Verb),
		slog.String("object_type", event.ObjectType),
		slog.String("key", event.ObjectID),
	}
	if event.Layer != "" {
		attrs = append(attrs, slog.String("layer", event.Layer))
	}
	if event.Source != "" {
		attrs = append(attrs, slog.String("source", event.Source))
	}
	if event.Value != "" {
		attrs = append(attrs, slog.String("value", event.Value))
	}
	if event.OldValue != "" {
		attrs = append(attrs, slog.String("old_value", event.OldValue))
	}
	if event.Channel != "" {
		attrs = append(attrs, slog.String("channel", event.Channel))
	}
	if prefix, ok := event.Metadata["prefix"].(string); ok && prefix != "" {
		attrs = append(attrs, slog.String("prefix", prefix))
	}

	h.Logger.LogAttrs(ctx, levelFor(event.Verb), messageFor(event), attrs...)
	return nil
}

func levelFor(verb string) slog.Level {
	if strings.HasSuffix(verb, ".overwritten") {
		return slog.LevelWarn
	}
	return slog.LevelDebug
}

func messageFor(event Event) string {
	switch event.Verb {
	case VerbParameterOverwritten:
		return "parameter overwrote already existing parameter"
	case VerbDefaultOverwritten:
		return "default value overwrote already existing default value"
	case VerbOverridden:
		return "value in current layer overrides value from parent layer"
	case VerbInherited:
		return "value inherited from parent layer"
	default:
		return event.Verb
	}
}
