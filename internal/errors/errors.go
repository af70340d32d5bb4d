package errors

import "fmt"

// Error is the structured error type threaded through every component. It
// carries enough context for the facade to render either an invalid-params
// or an internal-error JSON-RPC response without re-deriving it from a
// message string.
type Error struct {
	// Kind classifies the failure for routing and presentation.
	Kind Kind

	// Message is the human-readable description.
	Message string

	// Details carries named identifiers the caller needs back: the
	// offending pattern, the missing path, the model name, and so on.
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s %v", e.Kind, e.Message, e.Details)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an Error of the given kind with no details.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind around an existing error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithDetail adds a key-value detail and returns the error for chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// InvalidRoot reports a root that cannot be resolved or is not a directory.
func InvalidRoot(root string, cause error) *Error {
	return Wrap(KindInvalidRoot, "workspace root is invalid", cause).WithDetail("root", root)
}

// GlobPattern reports a single malformed include/exclude pattern.
func GlobPattern(pattern string, cause error) *Error {
	return Wrap(KindGlobPattern, "malformed glob pattern", cause).WithDetail("pattern", pattern)
}

// GlobSet reports a failure compiling an include/exclude set as a whole.
func GlobSet(cause error) *Error {
	return Wrap(KindGlobSet, "failed to compile glob set", cause)
}

// Database reports a store-layer failure; path is the database file.
func Database(path string, cause error) *Error {
	return Wrap(KindDatabase, "database operation failed", cause).WithDetail("path", path)
}

// Embedding reports an encoder initialization or inference failure.
func Embedding(model string, cause error) *Error {
	return Wrap(KindEmbedding, "embedding operation failed", cause).WithDetail("model", model)
}

// IO reports a file-level I/O failure.
func IO(path string, cause error) *Error {
	return Wrap(KindIO, "I/O operation failed", cause).WithDetail("path", path)
}

// NotFound reports a missing file, chunk, or commit.
func NotFound(identifier string) *Error {
	return New(KindNotFound, "not found").WithDetail("identifier", identifier)
}

// Ambiguous reports a selector matching more than one row.
func Ambiguous(descriptor string) *Error {
	return New(KindAmbiguous, "selector is ambiguous").WithDetail("descriptor", descriptor)
}

// NotAGitRepository reports that a timeline operation was attempted against
// a root with no discoverable git metadata.
func NotAGitRepository(root string) *Error {
	return New(KindNotAGitRepository, "not a git repository").WithDetail("root", root)
}

// Cancelled reports that a background worker was torn down mid-operation.
func Cancelled(cause error) *Error {
	return Wrap(KindCancelled, "operation cancelled", cause)
}

// KindOf extracts the Kind from err, returning false if err is not an *Error.
func KindOf(err error) (Kind, bool) {
	e, ok := err.(*Error)
	if !ok {
		return "", false
	}
	return e.Kind, true
}
