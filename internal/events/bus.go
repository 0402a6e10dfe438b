package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/message"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/log"
)

type (
	// Bus fans engine events out to subscribers. Publishing never blocks on
	// a subscriber and never fails the caller
	Bus struct {
		topic  topic.Topic[*api.Event]
		prod   topic.Producer[*api.Event]
		drain  topic.Consumer[*api.Event]
		clock  Clock
		stop   chan struct{}
		wg     sync.WaitGroup
		mu     sync.RWMutex
		closed bool
	}

	// Clock stamps events that are published without a timestamp
	Clock func() time.Time

	// Filter selects the events a subscriber is interested in
	Filter func(*api.Event) bool
)

// NewBus creates a Bus and starts the consumer that logs every event
func NewBus(clock Clock) *Bus {
	if clock == nil {
		clock = time.Now
	}
	t := caravan.NewTopic[*api.Event]()
	b := &Bus{
		topic: t,
		prod:  t.NewProducer(),
		drain: t.NewConsumer(),
		clock: clock,
		stop:  make(chan struct{}),
	}
	b.wg.Go(b.logEvents)
	return b
}

// Publish sends an event to every subscriber. Events published after the
// Bus is closed are dropped
func (b *Bus) Publish(ev *api.Event) {
	if ev == nil || ev.Type == "" {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = b.clock()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	message.Send(b.prod, ev)
}

// Subscribe returns a new consumer of the Bus's events. The caller must
// Close it when done
func (b *Bus) Subscribe() topic.Consumer[*api.Event] {
	return b.topic.NewConsumer()
}

// Close stops the Bus. Subscribers' channels are left for them to close
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stop)
	b.wg.Wait()
	b.prod.Close()
	b.drain.Close()
}

func (b *Bus) logEvents() {
	for {
		select {
		case <-b.stop:
			return
		case ev, ok := <-b.drain.Receive():
			if !ok {
				return
			}
			logEvent(ev)
		}
	}
}

func logEvent(ev *api.Event) {
	attrs := []any{
		slog.String("type", string(ev.Type)),
		log.ProjectID(ev.ProjectID),
	}
	if ev.NodeID != "" {
		attrs = append(attrs, log.NodeID(ev.NodeID))
	}
	if ev.ArtifactID != "" {
		attrs = append(attrs, log.ArtifactID(ev.ArtifactID))
	}
	if ev.Error != "" {
		attrs = append(attrs, log.ErrorString(ev.Error))
	}
	slog.Debug("Engine event", attrs...)
}
