// Package changefeed carries storage-change signals between the local cache
// and whoever renders from it.
package changefeed

import (
	"context"
	"sync"
)

// Change reports that a local cache key was rewritten.
type Change struct {
	Key    string `json:"key"`
	Value  string `json:"value,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// Publisher announces changes.
type Publisher interface {
	Publish(ctx context.Context, change Change)
}

// Bus is an in-process fan-out. Slow subscribers miss signals rather than
// blocking writers; observers also poll, so a dropped signal only delays a refresh.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Change
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Change)}
}

// Publish delivers change to every subscriber without blocking.
func (b *Bus) Publish(_ context.Context, change Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// Subscribe registers a listener. The returned cancel func closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Change, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active listeners.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
