package params

import (
	"strconv"
	"time"
)

// String returns the resolved single value of name.
func (c *Configuration) String(name string) (string, bool, error) {
	return scopedAs(c, "", name, "string", func(s string) (string, error) { return s, nil })
}

// Int returns the resolved value of name parsed as a base-10 int.
func (c *Configuration) Int(name string) (int, bool, error) {
	return scopedAs(c, "", name, "int", strconv.Atoi)
}

// Int64 returns the resolved value of name parsed as a base-10 int64.
func (c *Configuration) Int64(name string) (int64, bool, error) {
	return scopedAs(c, "", name, "int64", parseInt64)
}

// Bool returns the resolved value of name parsed by strconv.ParseBool.
func (c *Configuration) Bool(name string) (bool, bool, error) {
	return scopedAs(c, "", name, "bool", strconv.ParseBool)
}

// Duration returns the resolved value of name parsed by time.ParseDuration.
func (c *Configuration) Duration(name string) (time.Duration, bool, error) {
	return scopedAs(c, "", name, "duration", time.ParseDuration)
}

// ScopedString is String over prefix.name then name.
func (c *Configuration) ScopedString(prefix, name string) (string, bool, error) {
	return scopedAs(c, prefix, name, "string", func(s string) (string, error) { return s, nil })
}

// ScopedInt is Int over prefix.name then name.
func (c *Configuration) ScopedInt(prefix, name string) (int, bool, error) {
	return scopedAs(c, prefix, name, "int", strconv.Atoi)
}

// ScopedInt64 is Int64 over prefix.name then name.
func (c *Configuration) ScopedInt64(prefix, name string) (int64, bool, error) {
	return scopedAs(c, prefix, name, "int64", parseInt64)
}

// ScopedBool is Bool over prefix.name then name.
func (c *Configuration) ScopedBool(prefix, name string) (bool, bool, error) {
	return scopedAs(c, prefix, name, "bool", strconv.ParseBool)
}

// ScopedDuration is Duration over prefix.name then name.
func (c *Configuration) ScopedDuration(prefix, name string) (time.Duration, bool, error) {
	return scopedAs(c, prefix, name, "duration", time.ParseDuration)
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func scopedAs[T any](c *Configuration, prefix, name, typ string, parse func(string) (T, error)) (T, bool, error) {
	var zero T
	p, err := c.ScopedParam(prefix, name)
	if err != nil {
		return zero, false, err
	}
	value, ok := p.FirstValue()
	if !ok {
		return zero, false, nil
	}
	out, err := parse(value)
	if err != nil {
		convErr := &ConversionError{Name: p.Name(), Value: value, Type: typ, Err: err}
		c.logger.Error("params conversion failed",
			"name", convErr.Name,
			"value", convErr.Value,
			"type", typ,
			"error", err,
		)
		return zero, false, convErr
	}
	return out, true, nil
}
