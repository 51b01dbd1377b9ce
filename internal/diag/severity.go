package diag

// Severity orders diagnostics; a script fails on any SevError.
type Severity uint8

const (
	// SevInfo notes something worth knowing, such as a shadowed binding.
	SevInfo Severity = iota
	// SevWarning marks a script that still evaluates but likely has a mistake.
	SevWarning
	SevError
)

var severityNames = [...]string{SevInfo: "INFO", SevWarning: "WARNING", SevError: "ERROR"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}
