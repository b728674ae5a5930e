package realtime

import "context"

// MemoryBroker delivers events within one process.
type MemoryBroker struct {
	f *fanout
}

// NewMemoryBroker returns an in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{f: newFanout()}
}

// Publish delivers ev to the topic's subscribers before returning.
func (b *MemoryBroker) Publish(_ context.Context, topic string, ev Event) error {
	if b.f.isClosed() {
		return ErrClosed
	}
	ev.Topic = topic
	b.f.deliver(ev)
	return nil
}

// Subscribe registers fn for topic.
func (b *MemoryBroker) Subscribe(_ context.Context, topic string, fn Handler) (Unsubscribe, error) {
	return b.f.add(topic, fn)
}

// Close drops every subscription.
func (b *MemoryBroker) Close() error {
	b.f.close()
	return nil
}
