// internal/telemetry/feed.go
package telemetry

import (
	"sync/atomic"

	"live-temp-dashboard/internal/data"
	"live-temp-dashboard/internal/storage"
)

// Frame is the result of one tick. It is shared by every observer of that
// tick and must not be modified.
type Frame struct {
	Seq      uint64        `json:"seq"`
	Reading  data.Reading  `json:"reading"`
	Snapshot data.Snapshot `json:"snapshot"`
}

// Feed couples a generator with the rolling window it fills. Tick is the
// only writer; everything else reads the last published Frame.
type Feed struct {
	gen    *Generator
	window *storage.Window
	seq    uint64
	frame  atomic.Pointer[Frame]
}

func NewFeed(gen *Generator, window *storage.Window) *Feed {
	return &Feed{gen: gen, window: window}
}

// Tick produces one reading, appends it to the window and publishes the
// resulting frame. Tick must not be called concurrently with itself.
func (f *Feed) Tick() *Frame {
	r := f.gen.Next()
	snap := f.window.Append(r)
	f.seq++
	frame := &Frame{Seq: f.seq, Reading: r, Snapshot: snap}
	f.frame.Store(frame)
	return frame
}

// Current returns the frame of the last tick.
func (f *Feed) Current() (*Frame, bool) {
	frame := f.frame.Load()
	return frame, frame != nil
}

// Latest returns the reading of the last tick.
func (f *Feed) Latest() (data.Reading, bool) {
	frame, ok := f.Current()
	if !ok {
		return data.Reading{}, false
	}
	return frame.Reading, true
}

// Snapshot returns the window as of the last tick; empty before the first.
func (f *Feed) Snapshot() data.Snapshot {
	frame, ok := f.Current()
	if !ok {
		return data.Snapshot{}
	}
	return frame.Snapshot
}

func (f *Feed) Capacity() int { return f.window.Capacity() }

func (f *Feed) Range() Range { return f.gen.Range() }
