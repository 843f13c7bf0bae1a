package diag

// Severity orders diagnostics; only SevError blocks a build.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// Blocking reports whether a diagnostic of this severity fails the build.
func (s Severity) Blocking() bool { return s >= SevError }
