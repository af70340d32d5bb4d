package mcp

import (
	"fmt"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
)

// MCPError is a JSON-RPC 2.0 error: code plus a human-readable message.
// Returning one from a tool handler tells the SDK to encode it as the
// response's error object instead of a successful result.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// MapError converts a component error into an MCPError, using the
// errors.Kind taxonomy's own invalid-params/internal-error routing
// instead of a duplicate domain-specific code table.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}
	if kind, ok := codeerrors.KindOf(err); ok {
		return &MCPError{Code: kind.JSONRPCCode(), Message: err.Error()}
	}
	return &MCPError{Code: -32603, Message: err.Error()}
}

// invalidParams builds an MCPError for a request the caller must fix,
// independent of the internal errors.Kind taxonomy (used for facade-level
// validation such as an unrecognized code_lookup mode).
func invalidParams(message string) *MCPError {
	return &MCPError{Code: -32602, Message: message}
}
