package realtime

import (
	"sync"

	"github.com/dalemusser/mentorconnect/internal/app/system/metrics"
)

// fanout is the local subscription registry shared by both brokers.
type fanout struct {
	mu     sync.RWMutex
	next   uint64
	topics map[string]map[uint64]Handler
	closed bool

	// onFirst and onLast run under mu when a topic gains its first or loses
	// its last local subscriber.
	onFirst func(topic string) error
	onLast  func(topic string)
}

func newFanout() *fanout {
	return &fanout{topics: make(map[string]map[uint64]Handler)}
}

func (f *fanout) add(topic string, fn Handler) (Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}

	subs, ok := f.topics[topic]
	if !ok {
		if f.onFirst != nil {
			if err := f.onFirst(topic); err != nil {
				return nil, err
			}
		}
		subs = make(map[uint64]Handler)
		f.topics[topic] = subs
	}
	f.next++
	id := f.next
	subs[id] = fn
	metrics.RealtimeSubscriptions.Inc()

	var once sync.Once
	return func() {
		once.Do(func() { f.remove(topic, id) })
	}, nil
}

func (f *fanout) remove(topic string, id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs, ok := f.topics[topic]
	if !ok {
		return
	}
	if _, ok := subs[id]; !ok {
		return
	}
	delete(subs, id)
	metrics.RealtimeSubscriptions.Dec()
	if len(subs) == 0 {
		delete(f.topics, topic)
		if f.onLast != nil && !f.closed {
			f.onLast(topic)
		}
	}
}

// deliver calls every handler subscribed to ev.Topic.
func (f *fanout) deliver(ev Event) {
	f.mu.RLock()
	subs := f.topics[ev.Topic]
	handlers := make([]Handler, 0, len(subs))
	for _, h := range subs {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// count returns the number of local subscriptions on topic.
func (f *fanout) count(topic string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.topics[topic])
}

func (f *fanout) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for _, subs := range f.topics {
		metrics.RealtimeSubscriptions.Sub(float64(len(subs)))
	}
	f.topics = make(map[string]map[uint64]Handler)
}

func (f *fanout) isClosed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}
