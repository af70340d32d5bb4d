package errors

import (
	"encoding/json"
	"sort"
	"strings"
)

// FormatForCLI renders err for terminal output: a message line followed by
// any details, sorted by key for stable output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	e, ok := err.(*Error)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(e.Message)
	sb.WriteString(" (")
	sb.WriteString(string(e.Kind))
	sb.WriteString(")\n")

	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString("  ")
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(e.Details[k])
		sb.WriteString("\n")
	}
	return sb.String()
}

// rpcError is the JSON-RPC 2.0 error object shape.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// rpcErrorData carries the structured fields callers may want to inspect
// programmatically, alongside the plain-text message.
type rpcErrorData struct {
	Kind    string            `json:"kind"`
	Details map[string]string `json:"details,omitempty"`
}

// ToJSONRPC converts err into a JSON-RPC error object: invalid-params
// (-32602) or internal-error (-32603) depending on Kind, with Details
// attached as structured data.
func ToJSONRPC(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}
	e, ok := err.(*Error)
	if !ok {
		e = Wrap(KindCancelled, err.Error(), err)
	}

	return json.Marshal(rpcError{
		Code:    e.Kind.JSONRPCCode(),
		Message: e.Message,
		Data: rpcErrorData{
			Kind:    string(e.Kind),
			Details: e.Details,
		},
	})
}

// FormatForLog returns slog-friendly key/value attributes for err.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}
	e, ok := err.(*Error)
	if !ok {
		return map[string]any{"error": err.Error()}
	}

	result := map[string]any{
		"kind":    string(e.Kind),
		"message": e.Message,
	}
	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}
	for k, v := range e.Details {
		result["detail_"+k] = v
	}
	return result
}
