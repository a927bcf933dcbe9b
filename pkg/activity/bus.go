package activity

import (
	"context"
	"sync"
)

// subscriberBuffer is how many events a subscriber may fall behind before
// further events are dropped for it.
const subscriberBuffer = 64

// Bus is a Store that also pushes every appended event to live subscribers.
// Views subscribe with Notifications to receive only the events that should
// be shown to the user.
type Bus struct {
	Store

	mu   sync.RWMutex
	subs map[chan *Event]bool // value: notifications only
}

// NewBus wraps store.
func NewBus(store Store) *Bus {
	return &Bus{Store: store, subs: make(map[chan *Event]bool)}
}

// Append stores the event, then delivers it without blocking. A subscriber
// whose buffer is full misses the event; the store still has it.
func (b *Bus) Append(ctx context.Context, eventType string, level Level, message, taskID string) (*Event, error) {
	e, err := b.Store.Append(ctx, eventType, level, message, taskID)
	if err != nil {
		return nil, err
	}
	notify := e.Notify()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, notificationsOnly := range b.subs {
		if notificationsOnly && !notify {
			continue
		}
		select {
		case ch <- e:
		default:
		}
	}
	return e, nil
}

// Subscribe returns a channel receiving every appended event, silent ones
// included.
func (b *Bus) Subscribe() chan *Event {
	return b.subscribe(false)
}

// Notifications returns a channel receiving only events whose Notify is true.
func (b *Bus) Notifications() chan *Event {
	return b.subscribe(true)
}

func (b *Bus) subscribe(notificationsOnly bool) chan *Event {
	ch := make(chan *Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = notificationsOnly
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes ch and closes it.
func (b *Bus) Unsubscribe(ch chan *Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
