package layering

import "sort"

// Outcome records the decision taken for one source key while inheriting.
// Value is the value kept in the target when Inherited is false and the value
// copied from the source otherwise.
type Outcome[V any] struct {
	Key       string
	Value     V
	Inherited bool
}

// InheritMissing copies every entry of source whose key is not present in
// target, leaving existing target entries untouched. clone, when non-nil, is
// applied to copied values so target never aliases source state. Keys are
// visited in sorted order, which makes the returned outcomes deterministic.
func InheritMissing[V any](target, source map[string]V, clone func(V) V) []Outcome[V] {
	if target == nil || len(source) == 0 {
		return nil
	}

	keys := make([]string, 0, len(source))
	for key := range source {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	outcomes := make([]Outcome[V], 0, len(keys))
	for _, key := range keys {
		if existing, ok := target[key]; ok {
			outcomes = append(outcomes, Outcome[V]{Key: key, Value: existing})
			continue
		}
		value := source[key]
		if clone != nil {
			value = clone(value)
		}
		target[key] = value
		outcomes = append(outcomes, Outcome[V]{Key: key, Value: value, Inherited: true})
	}
	return outcomes
}
