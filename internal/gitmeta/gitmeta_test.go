package gitmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHead_NonRepoReturnsFalse(t *testing.T) {
	_, ok := Head(t.TempDir())
	assert.False(t, ok)
}

func TestSnapshot_NonRepoReturnsFalse(t *testing.T) {
	_, ok := Snapshot(t.TempDir())
	assert.False(t, ok)
}
