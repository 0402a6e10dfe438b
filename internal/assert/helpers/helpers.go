package helpers

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kode4food/tartan/internal/config"
	"github.com/kode4food/tartan/pkg/api"
)

type (
	// StepClock is a deterministic clock that advances one second on every
	// reading
	StepClock struct {
		next time.Time
		mu   sync.Mutex
	}

	// Sleeper records requested delays without sleeping
	Sleeper struct {
		delays []time.Duration
		mu     sync.Mutex
	}

	// EventRecorder collects published events
	EventRecorder struct {
		events []*api.Event
		mu     sync.Mutex
	}
)

// NewTestConfig creates a default configuration with debug logging and
// in-memory buckets
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.FlowBucketURL = "mem://"
	cfg.ArtifactBucketURL = "mem://"
	cfg.GraphCacheSize = 16
	return cfg
}

// NewStepClock creates a StepClock whose first reading is start
func NewStepClock(start time.Time) *StepClock {
	return &StepClock{next: start}
}

// Now returns the current reading and advances the clock
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := c.next
	c.next = c.next.Add(time.Second)
	return res
}

// NewSleeper creates an empty Sleeper
func NewSleeper() *Sleeper {
	return &Sleeper{}
}

// Sleep records the delay and returns immediately unless the context is
// already done
func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Delays returns every delay requested so far
func (s *Sleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.delays)
}

// NewEventRecorder creates an empty EventRecorder
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// Publish records the event
func (r *EventRecorder) Publish(ev *api.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns every recorded event in publication order
func (r *EventRecorder) Events() []*api.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Types returns the type of every recorded event in publication order
func (r *EventRecorder) Types() []api.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]api.EventType, len(r.events))
	for i, ev := range r.events {
		res[i] = ev.Type
	}
	return res
}

// OfType returns the recorded events of the given type
func (r *EventRecorder) OfType(typ api.EventType) []*api.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*api.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			res = append(res, ev)
		}
	}
	return res
}

// Reset forgets recorded events
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
