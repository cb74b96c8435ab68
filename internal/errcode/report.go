package errcode

import (
	"encoding/json"
	"errors"
)

// Report is the canonical structured error/warning record produced by
// every phase. Diagnostics bus sinks render it to stderr (compilation),
// forward it as an LSP protocol record (analysis), or drop it (null
// sink).
type Report struct {
	Schema   string         `json:"schema"` // always "emlang.diag/v1"
	Code     string         `json:"code"`
	Phase    string         `json:"phase"`
	Severity string         `json:"severity"` // "error" | "warning" | "note"
	Message  string         `json:"message"`
	Path     string         `json:"path,omitempty"`
	Line     int            `json:"line,omitempty"`   // 1-based
	Column   int            `json:"column,omitempty"` // 1-based, UTF-8
	Data     map[string]any `json:"data,omitempty"`
}

// ReportError wraps a Report as an error so it survives errors.As
// unwrapping through ordinary Go error-handling code.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown diagnostic"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a *Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// Wrap wraps a Report as an error.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders the report deterministically (sorted keys, via
// encoding/json's native map ordering) for the LSP/analysis sink.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// New builds a Report for the given code, severity, and formatted
// message. Phase is derived from the code's registry entry.
func New(code, severity, message string) *Report {
	return &Report{
		Schema:   "emlang.diag/v1",
		Code:     code,
		Phase:    Phase(code),
		Severity: severity,
		Message:  message,
		Data:     map[string]any{},
	}
}
