package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff Level = iota
	LevelError
	LevelPhase
	LevelDetail
	LevelDebug
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a string to a Level, case-insensitively.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
}

// Allows reports whether an event should be recorded at this level.
// Error events pass at any level above off; heartbeats whenever spans do.
func (l Level) Allows(ev *Event) bool {
	switch {
	case l == LevelOff:
		return false
	case ev.Kind == KindError:
		return true
	case ev.Kind == KindHeartbeat:
		return l >= LevelPhase
	}
	return l.ShouldEmit(ev.Scope)
}

// ShouldEmit reports whether spans of scope are recorded at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopeDriver
	case LevelDetail:
		return scope <= ScopeTarget
	case LevelDebug:
		return true
	}
	return false
}
