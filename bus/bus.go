// Package bus implements the in-process pub/sub channel agents and the
// breeding subsystem use to communicate. The scheduler holds a reference
// but never interprets traffic; observers may mirror it (see package obs).
package bus

import (
	"sync"

	"terrarium/core"
)

// Well-known topics.
const (
	// TopicChat carries every agent utterance.
	TopicChat = "chat"
	// TopicBreed carries breed proposals: Name is the initiating agent,
	// Content the requested partner.
	TopicBreed = "breed"
)

// Envelope is one published message tagged with its topic.
type Envelope struct {
	Topic   string       `json:"topic"`
	Message core.Message `json:"message"`
}

// Bus is a topic-based fanout. Publish never blocks: subscribers that fall
// behind lose messages rather than stalling the tick loop.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]chan Envelope
	closed bool
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]chan Envelope)}
}

// Subscribe registers a new subscriber channel for topic with the given
// buffer size. The channel is closed when the bus is closed.
func (b *Bus) Subscribe(topic string, buffer int) <-chan Envelope {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Envelope, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[topic] = append(b.subs[topic], ch)
	return ch
}

// Publish delivers msg to every subscriber of topic, dropping it for
// subscribers whose buffer is full.
func (b *Bus) Publish(topic string, msg core.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	env := Envelope{Topic: topic, Message: msg}
	for _, ch := range b.subs[topic] {
		select {
		case ch <- env:
		default:
		}
	}
}

// Close closes all subscriber channels. Publish and Subscribe become no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, chs := range b.subs {
		for _, ch := range chs {
			close(ch)
		}
	}
	b.subs = nil
}
