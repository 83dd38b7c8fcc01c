// internal/storage/window.go
package storage

import (
	"sync"

	"live-temp-dashboard/internal/data"
)

// Window is a fixed-capacity, oldest-first history of readings. Appending
// past capacity evicts the oldest entry first.
type Window struct {
	mu       sync.RWMutex
	buffer   []data.Reading
	capacity int
}

// NewWindow returns an empty window. Capacities below one are raised to one.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		buffer:   make([]data.Reading, 0, capacity),
		capacity: capacity,
	}
}

func (w *Window) Capacity() int { return w.capacity }

// Append adds r as the newest entry and returns a snapshot of the window
// taken under the same lock.
func (w *Window) Append(r data.Reading) data.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buffer) >= w.capacity {
		// Shift in place so the backing array never grows past capacity.
		copy(w.buffer, w.buffer[1:])
		w.buffer = w.buffer[:len(w.buffer)-1]
	}
	w.buffer = append(w.buffer, r)
	return w.snapshotLocked()
}

// Snapshot copies the whole window.
func (w *Window) Snapshot() data.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

func (w *Window) snapshotLocked() data.Snapshot {
	readings := make([]data.Reading, len(w.buffer))
	copy(readings, w.buffer)
	return data.Snapshot{Readings: readings}
}
