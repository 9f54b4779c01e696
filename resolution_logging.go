package params

import "time"

// ResolutionLogEvent describes one top-level placeholder resolution.
type ResolutionLogEvent struct {
	Name          string
	Prefix        string
	Input         string
	Output        string
	Substitutions int
	Duration      time.Duration
	Err           error
}

// ResolutionLogger records resolution events.
type ResolutionLogger interface {
	LogResolution(ResolutionLogEvent)
}

// ResolutionLoggerFunc adapts a function to ResolutionLogger.
type ResolutionLoggerFunc func(ResolutionLogEvent)

// LogResolution implements ResolutionLogger.
func (f ResolutionLoggerFunc) LogResolution(event ResolutionLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopResolutionLogger struct{}

func (noopResolutionLogger) LogResolution(ResolutionLogEvent) {}
