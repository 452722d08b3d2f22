package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
)

// Subscriber is one connected actor waiting for events.
type Subscriber struct {
	ID    string
	Actor *domain.Actor
	ch    chan events.Event
}

// Events returns the delivery channel. It is closed on deregistration.
func (s *Subscriber) Events() <-chan events.Event {
	return s.ch
}

// Directory maps connected actors to delivery channels. It is owned by the
// transport layer; services only publish events and never touch it.
type Directory struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	buffer      int
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewDirectory creates an empty directory with per-subscriber buffers of size buffer.
func NewDirectory(buffer int, metrics *observability.Metrics, logger *zap.Logger) *Directory {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		subscribers: make(map[string]*Subscriber),
		buffer:      buffer,
		metrics:     metrics,
		logger:      logger,
	}
}

// Register adds a subscriber for actor.
func (d *Directory) Register(actor *domain.Actor) *Subscriber {
	sub := &Subscriber{
		ID:    uuid.NewString(),
		Actor: actor,
		ch:    make(chan events.Event, d.buffer),
	}
	d.mu.Lock()
	d.subscribers[sub.ID] = sub
	d.mu.Unlock()
	d.metrics.RealtimeClients(1)
	d.logger.Debug("realtime subscriber registered", zap.String("subscriber_id", sub.ID), zap.String("actor_id", actor.ID))
	return sub
}

// Deregister removes the subscriber and closes its channel. Unknown ids are ignored.
func (d *Directory) Deregister(id string) {
	d.mu.Lock()
	sub, ok := d.subscribers[id]
	if ok {
		delete(d.subscribers, id)
		close(sub.ch)
	}
	d.mu.Unlock()
	if ok {
		d.metrics.RealtimeClients(-1)
		d.logger.Debug("realtime subscriber deregistered", zap.String("subscriber_id", id))
	}
}

// Deliver hands event to every subscriber allowed to see it without
// blocking. Subscribers with a full buffer miss the event. Returns the number
// of deliveries.
func (d *Directory) Deliver(event events.Event) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	delivered := 0
	for _, sub := range d.subscribers {
		if !sub.Actor.CanView(event.Audience.DestinationProfile, event.Audience.CreatorID, event.Audience.ClientScopeID) {
			continue
		}
		select {
		case sub.ch <- event:
			delivered++
		default:
			d.metrics.EventDropped("realtime")
			d.logger.Debug("realtime subscriber buffer full", zap.String("subscriber_id", sub.ID))
		}
	}
	return delivered
}

// Len returns the number of connected subscribers.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

// LocalBroadcaster delivers events straight into a Directory. It is used
// when no Redis stream is configured.
type LocalBroadcaster struct {
	Directory *Directory
}

// Broadcast implements service.Broadcaster.
func (b LocalBroadcaster) Broadcast(_ context.Context, event events.Event) error {
	b.Directory.Deliver(event)
	return nil
}
