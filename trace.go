package params

import (
	"encoding/json"

	"github.com/goliatone/go-params/layering"
)

// Tier identifies one step of the lookup chain.
type Tier string

const (
	TierScopedParameter Tier = "scoped_parameter"
	TierScopedDefault   Tier = "scoped_default"
	TierParameter       Tier = "parameter"
	TierDefault         Tier = "default"
)

// Trace records how a scoped lookup was decided, tier by tier.
type Trace struct {
	Store  string       `json:"store,omitempty"`
	Prefix string       `json:"prefix,omitempty"`
	Name   string       `json:"name"`
	Winner Tier         `json:"winner,omitempty"`
	Values []string     `json:"values,omitempty"`
	Tiers  []Provenance `json:"tiers"`
}

// Provenance details one tier consulted by a lookup. Present reports whether
// the key exists in that map at all; Found reports whether it was usable.
type Provenance struct {
	Tier    Tier     `json:"tier"`
	Key     string   `json:"key"`
	Values  []string `json:"values,omitempty"`
	Present bool     `json:"present"`
	Found   bool     `json:"found"`
}

// Found reports whether any tier supplied a value.
func (t Trace) Found() bool {
	return t.Winner != ""
}

// ToJSON serialises the trace for logging or transport.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON decodes a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// Trace reports every tier LookupScoped consults for prefix and name, in
// order, and which one wins.
func (s *Store) Trace(prefix, name string) Trace {
	trace := Trace{Store: s.Name(), Prefix: prefix, Name: name}
	for _, key := range layering.Candidates(prefix, name) {
		paramTier, defaultTier := TierParameter, TierDefault
		if key != name {
			paramTier, defaultTier = TierScopedParameter, TierScopedDefault
		}

		p, present := s.Parameter(key)
		pv := Provenance{Tier: paramTier, Key: key, Values: p.Values(), Present: present, Found: present && p.usable()}
		trace.record(pv)

		value, present := s.Default(key)
		dv := Provenance{Tier: defaultTier, Key: key, Present: present, Found: present}
		if present {
			dv.Values = []string{value}
		}
		trace.record(dv)
	}
	return trace
}

func (t *Trace) record(p Provenance) {
	t.Tiers = append(t.Tiers, p)
	if p.Found && t.Winner == "" {
		t.Winner = p.Tier
		t.Values = p.Values
	}
}

// Trace reports the lookup tiers for prefix and name in the backing store.
func (c *Configuration) Trace(prefix, name string) Trace {
	return c.store.Trace(prefix, name)
}

// Source names where an effective value came from.
type Source string

const (
	SourceParameter Source = "parameter"
	SourceDefault   Source = "default"
)

// Entry is one effective raw value of a store.
type Entry struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
	Source Source   `json:"source"`
}

// Flatten lists the effective raw value of every name, sorted by name. Names
// whose parameter is empty and that have no default are left out.
func (s *Store) Flatten() []Entry {
	names := s.Names()
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		if p, ok := s.params[name]; ok && p.usable() {
			out = append(out, Entry{Name: name, Values: p.Values(), Source: SourceParameter})
			continue
		}
		if value, ok := s.defaults[name]; ok {
			out = append(out, Entry{Name: name, Values: []string{value}, Source: SourceDefault})
		}
	}
	return out
}

// Flatten lists the raw effective entries of the underlying store.
func (c *Configuration) Flatten() []Entry {
	return c.store.Flatten()
}
