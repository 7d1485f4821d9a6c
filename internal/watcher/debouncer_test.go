package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "test.go", Operation: OpAdd, Timestamp: time.Now()})

	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, "test.go", events[0].Path)
		assert.Equal(t, OpAdd, events[0].Operation)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_MultipleEventsForSameFile_Coalesces(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Add(FileEvent{Path: "test.go", Operation: OpChange, Timestamp: time.Now()})
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, "test.go", events[0].Path)
		assert.Equal(t, OpChange, events[0].Operation)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for debounced events")
	}
}

func TestDebouncer_AddThenUnlink_NoEvent(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "temp.go", Operation: OpAdd, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "temp.go", Operation: OpUnlink, Timestamp: time.Now()})

	select {
	case events := <-d.Output():
		assert.Empty(t, events)
	case <-time.After(200 * time.Millisecond):
		// No event is also acceptable
	}
}

func TestDebouncer_ChangeThenUnlink_UnlinkOnly(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "existing.go", Operation: OpChange, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "existing.go", Operation: OpUnlink, Timestamp: time.Now()})

	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, OpUnlink, events[0].Operation)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_UnlinkThenAdd_ChangeEvent(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "replaced.go", Operation: OpUnlink, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "replaced.go", Operation: OpAdd, Timestamp: time.Now()})

	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, OpChange, events[0].Operation)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_DifferentFiles_IndependentEvents(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.go", Operation: OpAdd, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "b.go", Operation: OpChange, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "c.go", Operation: OpUnlink, Timestamp: time.Now()})

	select {
	case events := <-d.Output():
		require.Len(t, events, 3)

		paths := make(map[string]Operation)
		for _, e := range events {
			paths[e.Path] = e.Operation
		}
		assert.Equal(t, OpAdd, paths["a.go"])
		assert.Equal(t, OpChange, paths["b.go"])
		assert.Equal(t, OpUnlink, paths["c.go"])
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced events")
	}
}

func TestDebouncer_Stop_ClosesOutput(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	d.Stop()

	select {
	case _, ok := <-d.Output():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestDebouncer_AddThenChange_AddOnly(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "new.go", Operation: OpAdd, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "new.go", Operation: OpChange, Timestamp: time.Now()})

	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, OpAdd, events[0].Operation)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}
