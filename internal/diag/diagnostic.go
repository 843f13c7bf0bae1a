package diag

import "strings"

// Diagnostic is one construction-time finding.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Target   string // адрес цели; пусто для проблем манифеста
	Field    string // ключ поля; пусто для проблем цели
	Message  string
}

// Location returns "target/field", "target" or "manifest".
func (d Diagnostic) Location() string {
	switch {
	case d.Target == "" && d.Field == "":
		return "manifest"
	case d.Field == "":
		return d.Target
	case d.Target == "":
		return d.Field
	}
	return d.Target + "/" + d.Field
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(d.Severity.String())
	sb.WriteString(" ")
	sb.WriteString(d.Code.String())
	sb.WriteString(" ")
	sb.WriteString(d.Location())
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	return sb.String()
}
