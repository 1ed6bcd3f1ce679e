package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatForUser returns a user-friendly error message.
// If debug is true, includes additional technical details.
func FormatForUser(err error, debug bool) string {
	if err == nil {
		return ""
	}

	te, ok := err.(*TSBError)
	if !ok {
		// Standard error - just return message
		return err.Error()
	}

	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(te.Message)
	sb.WriteString("\n")

	if te.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(te.Suggestion)
		sb.WriteString("\n")
	}

	if debug {
		if te.Cause != nil {
			sb.WriteString(fmt.Sprintf("\nCause: %v\n", te.Cause))
		}
		for k, v := range te.Details {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, v))
		}
	}

	// Error code for reference
	sb.WriteString(fmt.Sprintf("\n[%s]", te.Code))

	return sb.String()
}

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	te, ok := err.(*TSBError)
	if !ok {
		// Wrap standard error
		te = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Error: %s\n", te.Message))

	if te.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", te.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("  Code: %s\n", te.Code))

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Category    string            `json:"category"`
	Severity    string            `json:"severity"`
	Details     map[string]string `json:"details,omitempty"`
	Suggestion  string            `json:"suggestion,omitempty"`
	Cause       string            `json:"cause,omitempty"`
	Recoverable bool              `json:"recoverable"`
}

// FormatJSON returns a JSON representation of the error.
// Suitable for machine consumption and structured logging.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	te, ok := err.(*TSBError)
	if !ok {
		te = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:        te.Code,
		Message:     te.Message,
		Category:    string(te.Category),
		Severity:    string(te.Severity),
		Details:     te.Details,
		Suggestion:  te.Suggestion,
		Recoverable: te.Recoverable,
	}

	if te.Cause != nil {
		je.Cause = te.Cause.Error()
	}

	return json.Marshal(je)
}

// FormatForLog formats an error for structured logging.
// Returns key-value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	te, ok := err.(*TSBError)
	if !ok {
		return map[string]any{"error": err.Error()}
	}

	attrs := map[string]any{
		"error_code":     te.Code,
		"error_message":  te.Message,
		"error_category": string(te.Category),
		"error_severity": string(te.Severity),
	}
	if te.Cause != nil {
		attrs["error_cause"] = te.Cause.Error()
	}
	for k, v := range te.Details {
		attrs["detail_"+k] = v
	}
	return attrs
}
