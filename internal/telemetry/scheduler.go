// internal/telemetry/scheduler.go
package telemetry

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observers reports how many consumers currently watch a feed.
type Observers interface {
	ObserverCount() int
}

// Sink receives every frame the scheduler produces.
type Sink interface {
	Publish(frame *Frame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(frame *Frame)

func (f SinkFunc) Publish(frame *Frame) { f(frame) }

// Scheduler ticks a feed on a fixed interval.
type Scheduler struct {
	feed        *Feed
	interval    time.Duration
	observers   Observers
	suspendIdle bool
	sinks       []Sink
	onSkip      func()
	wake        chan struct{}
	running     atomic.Bool
	log         *slog.Logger
}

type SchedulerOption func(*Scheduler)

// WithObservers lets the scheduler skip ticks while nobody is watching.
func WithObservers(o Observers, suspendIdle bool) SchedulerOption {
	return func(s *Scheduler) {
		s.observers = o
		s.suspendIdle = suspendIdle
	}
}

func WithSinks(sinks ...Sink) SchedulerOption {
	return func(s *Scheduler) { s.sinks = append(s.sinks, sinks...) }
}

// WithSkipHook is called for every tick suspended for lack of observers.
func WithSkipHook(fn func()) SchedulerOption {
	return func(s *Scheduler) { s.onSkip = fn }
}

// WithLogger sets a logger already scoped to the dashboard.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.log = l }
}

func NewScheduler(name string, feed *Feed, interval time.Duration, opts ...SchedulerOption) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	s := &Scheduler{feed: feed, interval: interval, wake: make(chan struct{}, 1)}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default().With("dashboard", name)
	}
	return s
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

// Step runs one scheduling decision: tick and publish, or skip when idle.
// It reports whether a tick happened.
func (s *Scheduler) Step() (*Frame, bool) {
	if s.suspendIdle && s.observers != nil && s.observers.ObserverCount() == 0 {
		if s.onSkip != nil {
			s.onSkip()
		}
		return nil, false
	}
	return s.tick(), true
}

func (s *Scheduler) tick() *Frame {
	frame := s.feed.Tick()
	for _, sink := range s.sinks {
		sink.Publish(frame)
	}
	return frame
}

// Wake asks a running scheduler for one extra tick, taken even while idle.
// It reports false when Run is not active.
func (s *Scheduler) Wake() bool {
	if !s.running.Load() {
		return false
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Run ticks immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.running.Store(true)
	defer s.running.Store(false)

	s.log.Info("scheduler started", "interval", s.interval)
	s.Step()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			if frame, ok := s.Step(); ok {
				s.logTick(frame)
			}
		case <-s.wake:
			s.logTick(s.tick())
		}
	}
}

func (s *Scheduler) logTick(frame *Frame) {
	s.log.Debug("tick", "seq", frame.Seq, "temp_celsius", frame.Reading.TempCelsius)
}
