package events

import (
	"sync"
)

// Envelope carries a payload together with its topic, for subscribers that
// listen on several topics at once.
type Envelope struct {
	Event   Event `json:"event"`
	Payload any   `json:"payload"`
}

// Bus is a lightweight pub/sub broker using channels.
type Bus struct {
	mu    sync.RWMutex
	subs  map[Event][]chan any
	multi map[Event][]chan Envelope
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{
		subs:  make(map[Event][]chan any),
		multi: make(map[Event][]chan Envelope),
	}
}

// Subscribe registers a listener for an event and returns the channel and an unsubscribe function.
func (b *Bus) Subscribe(e Event, buffer int) (<-chan any, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan any, buffer)
	b.subs[e] = append(b.subs[e], ch)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.subs[e] = removeChan(b.subs[e], ch)
			close(ch)
		})
	}
	return ch, unsub
}

// SubscribeMany registers one channel for several topics.
func (b *Bus) SubscribeMany(topics []Event, buffer int) (<-chan Envelope, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Envelope, buffer)
	for _, e := range topics {
		b.multi[e] = append(b.multi[e], ch)
	}

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for _, e := range topics {
				b.multi[e] = removeChan(b.multi[e], ch)
			}
			close(ch)
		})
	}
	return ch, unsub
}

// Publish fan-outs the payload to subscribers without blocking; slow
// subscribers miss events.
func (b *Bus) Publish(e Event, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[e] {
		select {
		case ch <- payload:
		default:
		}
	}
	if len(b.multi[e]) == 0 {
		return
	}
	env := Envelope{Event: e, Payload: payload}
	for _, ch := range b.multi[e] {
		select {
		case ch <- env:
		default:
		}
	}
}

func removeChan[T any](list []chan T, ch chan T) []chan T {
	for i, c := range list {
		if c == ch {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
