// Package errors provides the structured error taxonomy shared by every
// component. A Kind classifies what went wrong; the facade layer uses it to
// decide between an invalid-params and an internal-error JSON-RPC response.
package errors

// Kind classifies an error for routing and presentation purposes.
type Kind string

const (
	// KindInvalidRoot means a workspace root could not be resolved or is
	// not a directory.
	KindInvalidRoot Kind = "InvalidRoot"
	// KindGlobPattern means a single include/exclude pattern is malformed.
	KindGlobPattern Kind = "GlobPattern"
	// KindGlobSet means pattern compilation failed for the set as a whole.
	KindGlobSet Kind = "GlobSet"
	// KindDatabase covers store open, migrate, query, and commit failures.
	KindDatabase Kind = "Database"
	// KindEmbedding covers encoder initialization or inference failure.
	KindEmbedding Kind = "Embedding"
	// KindIO covers missing files, unreadable files, unwritable directories.
	KindIO Kind = "Io"
	// KindNotFound means a requested file or commit is not present in the index.
	KindNotFound Kind = "NotFound"
	// KindAmbiguous means a selector matched multiple rows and could not
	// be disambiguated.
	KindAmbiguous Kind = "Ambiguous"
	// KindNotAGitRepository is returned by timeline operations against a
	// root with no git metadata.
	KindNotAGitRepository Kind = "NotAGitRepository"
	// KindCancelled means a background worker was torn down.
	KindCancelled Kind = "Cancelled"
)

// Disposition says whether a Kind should be surfaced as invalid-params or
// as an internal error at the facade boundary.
type Disposition string

const (
	// DispositionInvalidParams maps to JSON-RPC code -32602.
	DispositionInvalidParams Disposition = "invalid_params"
	// DispositionInternal maps to JSON-RPC code -32603.
	DispositionInternal Disposition = "internal_error"
)

// dispositionOf implements the routing table from the error handling design:
// root, pattern, not-found, and ambiguity errors are caller mistakes;
// everything else is the server's problem.
func dispositionOf(k Kind) Disposition {
	switch k {
	case KindInvalidRoot, KindGlobPattern, KindGlobSet, KindNotFound, KindAmbiguous, KindNotAGitRepository:
		return DispositionInvalidParams
	default:
		return DispositionInternal
	}
}

// JSONRPCCode returns the JSON-RPC 2.0 error code for a Kind's disposition.
func (k Kind) JSONRPCCode() int {
	if dispositionOf(k) == DispositionInvalidParams {
		return -32602
	}
	return -32603
}

// Retryable reports whether the underlying condition may clear on its own
// (currently only cancellation, which callers may retry after restart).
func (k Kind) Retryable() bool {
	return k == KindCancelled
}
