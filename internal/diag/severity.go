package diag

import "strings"

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning marks unsupported constructs that were skipped or replaced.
	SevWarning
	// SevError aborts emission of the current program.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseSeverity accepts the lower- or upper-case names produced by String.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return SevInfo, true
	case "WARNING", "WARN":
		return SevWarning, true
	case "ERROR":
		return SevError, true
	}
	return SevInfo, false
}
