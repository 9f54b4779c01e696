package layering

import "strings"

// Separator joins a prefix and a parameter name into a scoped key.
const Separator = "."

// Qualify returns the scoped key for name under prefix. There is no escaping:
// the result is the literal concatenation prefix + "." + name. An empty prefix
// yields name unchanged.
func Qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + Separator + name
}

// Candidates lists the keys consulted, strongest first, when looking up name
// under prefix: the scoped key and then the unscoped one.
func Candidates(prefix, name string) []string {
	if prefix == "" {
		return []string{name}
	}
	return []string{Qualify(prefix, name), name}
}

// Segments breaks key into all of its separator-delimited parts.
func Segments(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, Separator)
}
