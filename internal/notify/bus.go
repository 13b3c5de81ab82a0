package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventParticipantAdded is published after every successful registration.
const EventParticipantAdded = "participant-added"

// Event is a payload-free notification.
type Event struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

// Publisher announces events without waiting for subscribers.
type Publisher interface {
	Publish(name string)
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	next      uint64
	buffer    int
	logger    *zap.Logger
}

// NewBus constructs a bus with per-subscriber buffers of the given size.
func NewBus(buffer int, logger *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{listeners: make(map[uint64]chan Event), buffer: buffer, logger: logger}
}

// Publish delivers the event to every current subscriber.
func (b *Bus) Publish(name string) {
	evt := Event{Name: name, At: time.Now().UTC()}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.listeners {
		select {
		case ch <- evt:
		default:
			b.logger.Debug("dropping event for slow subscriber", zap.String("event", name), zap.Uint64("subscriber", id))
		}
	}
}

// Subscribe registers a listener. The returned cancel func unregisters it and
// closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	b.next++
	id := b.next
	b.listeners[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// SubscribeFunc runs fn for every event with the given name on a dedicated
// goroutine until the returned cancel func is called.
func (b *Bus) SubscribeFunc(name string, fn func(Event)) func() {
	ch, cancel := b.Subscribe()
	go func() {
		for evt := range ch {
			if evt.Name == name {
				fn(evt)
			}
		}
	}()
	return cancel
}

// Subscribers reports the number of registered listeners.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
