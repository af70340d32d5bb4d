package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainBatch(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_CreateThenModifyCoalescesToCreate(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.go", Operation: OpCreate})
	d.Add(FileEvent{Path: "a.go", Operation: OpModify})

	batch := drainBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpCreate, batch[0].Operation)
}

func TestDebouncer_CreateThenDeleteCancelsOut(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.go", Operation: OpCreate})
	d.Add(FileEvent{Path: "a.go", Operation: OpDelete})

	select {
	case batch := <-d.Output():
		t.Fatalf("expected no batch, got %v", batch)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncer_ModifyThenDeleteCoalescesToDelete(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.go", Operation: OpModify})
	d.Add(FileEvent{Path: "a.go", Operation: OpDelete})

	batch := drainBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpDelete, batch[0].Operation)
}

func TestDebouncer_DeleteThenCreateCoalescesToModify(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.go", Operation: OpDelete})
	d.Add(FileEvent{Path: "a.go", Operation: OpCreate})

	batch := drainBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_DistinctPathsEmitSeparately(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.go", Operation: OpCreate})
	d.Add(FileEvent{Path: "b.go", Operation: OpModify})

	batch := drainBatch(t, d)
	assert.Len(t, batch, 2)
}
