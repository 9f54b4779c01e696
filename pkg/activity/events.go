package activity

import (
	"strings"
	"time"
)

// Verbs emitted while a configuration is assembled.
const (
	VerbParameterOverwritten = "params.parameter.overwritten"
	VerbDefaultOverwritten   = "params.default.overwritten"
	VerbOverridden           = "params.layer.overridden"
	VerbInherited            = "params.layer.inherited"
)

// Object types identify which map of a store an event refers to.
const (
	ObjectParameter = "parameter"
	ObjectDefault   = "default"
)

// ChangeInput describes the common fields for configuration change events.
type ChangeInput struct {
	Key        string
	Layer      string
	Source     string
	Value      string
	OldValue   string
	Prefix     string
	ActorID    string
	TenantID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildParameterOverwrittenEvent reports that adding a parameter replaced an
// existing one with the same name.
func BuildParameterOverwrittenEvent(input ChangeInput) Event {
	return buildChangeEvent(VerbParameterOverwritten, ObjectParameter, input)
}

// BuildDefaultOverwrittenEvent reports that adding a default value replaced an
// existing default with the same name.
func BuildDefaultOverwrittenEvent(input ChangeInput) Event {
	return buildChangeEvent(VerbDefaultOverwritten, ObjectDefault, input)
}

// BuildOverriddenEvent reports that a key already present in the override
// layer was kept during a merge. objectType is ObjectParameter or ObjectDefault.
func BuildOverriddenEvent(objectType string, input ChangeInput) Event {
	return buildChangeEvent(VerbOverridden, objectType, input)
}

// BuildInheritedEvent reports that a key was copied from the source layer
// into the override layer during a merge.
func BuildInheritedEvent(objectType string, input ChangeInput) Event {
	return buildChangeEvent(VerbInherited, objectType, input)
}

func buildChangeEvent(verb, objectType string, input ChangeInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Prefix != "" {
		metadata = ensureMetadata(metadata)
		metadata["prefix"] = input.Prefix
	}

	objectID := strings.TrimSpace(input.Key)
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		Layer:      strings.TrimSpace(input.Layer),
		Source:     strings.TrimSpace(input.Source),
		Value:      input.Value,
		OldValue:   input.OldValue,
		Channel:    strings.TrimSpace(input.Channel),
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
