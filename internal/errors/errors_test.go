package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := errors.New("original error")
	wrapped := Wrap(KindIO, "could not read file", originalErr)

	require.NotNil(t, wrapped)
	assert.Equal(t, originalErr, errors.Unwrap(wrapped))
	assert.True(t, errors.Is(wrapped, originalErr))
}

func TestError_Error_IncludesKindAndMessage(t *testing.T) {
	err := New(KindNotFound, "not found").WithDetail("identifier", "src/a.go")
	assert.Contains(t, err.Error(), "NotFound")
	assert.Contains(t, err.Error(), "not found")
}

func TestError_Is_MatchesByKind(t *testing.T) {
	err1 := NotFound("a.go")
	err2 := NotFound("b.go")
	assert.True(t, errors.Is(err1, err2))

	err3 := Ambiguous("a.go")
	assert.False(t, errors.Is(err1, err3))
}

func TestWithDetail_AddsContext(t *testing.T) {
	err := New(KindIO, "read failed")
	err = err.WithDetail("path", "/foo/bar.go")
	err = err.WithDetail("size", "1024")

	assert.Equal(t, "/foo/bar.go", err.Details["path"])
	assert.Equal(t, "1024", err.Details["size"])
}

func TestJSONRPCCode_RoutesByKind(t *testing.T) {
	tests := []struct {
		kind Kind
		code int
	}{
		{KindInvalidRoot, -32602},
		{KindGlobPattern, -32602},
		{KindGlobSet, -32602},
		{KindNotFound, -32602},
		{KindAmbiguous, -32602},
		{KindNotAGitRepository, -32602},
		{KindDatabase, -32603},
		{KindEmbedding, -32603},
		{KindIO, -32603},
		{KindCancelled, -32603},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.kind.JSONRPCCode())
		})
	}
}

func TestCancelled_IsRetryable(t *testing.T) {
	assert.True(t, KindCancelled.Retryable())
	assert.False(t, KindNotFound.Retryable())
}

func TestConstructors_SetExpectedDetails(t *testing.T) {
	root := InvalidRoot("/does/not/exist", nil)
	assert.Equal(t, "/does/not/exist", root.Details["root"])
	assert.Equal(t, KindInvalidRoot, root.Kind)

	pat := GlobPattern("[", nil)
	assert.Equal(t, "[", pat.Details["pattern"])

	db := Database("/idx/.codeindex.db", nil)
	assert.Equal(t, "/idx/.codeindex.db", db.Details["path"])

	emb := Embedding("minilm-l6-v2", nil)
	assert.Equal(t, "minilm-l6-v2", emb.Details["model"])

	notFound := NotFound("src/a.go")
	assert.Equal(t, "src/a.go", notFound.Details["identifier"])

	amb := Ambiguous("a.go")
	assert.Equal(t, "a.go", amb.Details["descriptor"])

	repo := NotAGitRepository("/tmp/ws")
	assert.Equal(t, "/tmp/ws", repo.Details["root"])
}

func TestKindOf_ExtractsKindFromStructuredError(t *testing.T) {
	kind, ok := KindOf(NotFound("a.go"))
	require.True(t, ok)
	assert.Equal(t, KindNotFound, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
