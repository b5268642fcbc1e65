package jobcontrol

import (
	"sync"
	"time"
)

// EventType identifies a job lifecycle transition a subscriber (the
// admin API's activity feed, in practice) may want to observe.
type EventType string

const (
	EventJobTriggered      EventType = "job.triggered"
	EventJobPaused         EventType = "job.paused"
	EventJobResumed        EventType = "job.resumed"
	EventJobCancelled      EventType = "job.cancelled"
	EventJobCompleted      EventType = "job.completed"
	EventJobFailed         EventType = "job.failed"
	EventJobPriorityUpdate EventType = "job.priority_updated"
	EventJobDeleted        EventType = "job.deleted"
)

// Event is one job lifecycle notification.
type Event struct {
	Type      EventType
	JobID     string
	Timestamp time.Time
	Detail    string
}

// Subscriber is a channel that receives job lifecycle events.
type Subscriber chan *Event

// Broker fans out job lifecycle events to every subscriber. A full
// subscriber buffer drops the event rather than blocking the
// publisher; a job control plane under load favors making progress
// over guaranteeing every subscriber sees every event.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]bool
}

func NewBroker() *Broker {
	return &Broker{subscribers: make(map[Subscriber]bool)}
}

// Subscribe returns a new buffered channel of job events.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := make(Subscriber, 50)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes and closes a subscription.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub]; ok {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish delivers an event to every current subscriber.
func (b *Broker) Publish(e *Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers {
		select {
		case sub <- e:
		default:
		}
	}
}
