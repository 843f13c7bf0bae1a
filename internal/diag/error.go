package diag

import (
	"fmt"
	"strings"
)

// ConfigError is a build-configuration error referencing offending targets and fields.
type ConfigError struct {
	Diagnostics []Diagnostic
	// Dropped counts errors that did not fit the diagnostics limit.
	Dropped int
}

func (e *ConfigError) Error() string {
	var sb strings.Builder
	total := len(e.Diagnostics) + e.Dropped
	fmt.Fprintf(&sb, "invalid build configuration (%d problem", total)
	if total != 1 {
		sb.WriteString("s")
	}
	sb.WriteString(")")
	for _, d := range e.Diagnostics {
		sb.WriteString("\n  ")
		sb.WriteString(d.Location())
		sb.WriteString(": ")
		sb.WriteString(d.Message)
		sb.WriteString(" [")
		sb.WriteString(d.Code.String())
		sb.WriteString("]")
	}
	if e.Dropped > 0 {
		fmt.Fprintf(&sb, "\n  ... and %d more", e.Dropped)
	}
	return sb.String()
}
