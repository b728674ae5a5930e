package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestMemoryBroker_PublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()
	ctx := context.Background()

	var inbox, other recorder
	unsub, err := b.Subscribe(ctx, UserTopic("u1"), inbox.handle)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub()
	unsub2, _ := b.Subscribe(ctx, UserTopic("u2"), other.handle)
	defer unsub2()

	ev, err := NewEvent(EventConversationUpdated, "", map[string]string{"id": "c1"})
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	if err := b.Publish(ctx, UserTopic("u1"), ev); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if inbox.len() != 1 {
		t.Fatalf("inbox got %d events, want 1", inbox.len())
	}
	if other.len() != 0 {
		t.Errorf("other topic got %d events, want 0", other.len())
	}
	got := inbox.events[0]
	if got.Type != EventConversationUpdated || got.Topic != "user:u1" {
		t.Errorf("event = %+v", got)
	}
	var data map[string]string
	if err := json.Unmarshal(got.Data, &data); err != nil || data["id"] != "c1" {
		t.Errorf("data = %s, want id c1", got.Data)
	}
}

func TestMemoryBroker_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()
	ctx := context.Background()
	topic := ConversationTopic("c1")

	var r recorder
	unsub, _ := b.Subscribe(ctx, topic, r.handle)
	_ = b.Publish(ctx, topic, Event{Type: EventMessageCreated})
	unsub()
	unsub() // idempotent
	_ = b.Publish(ctx, topic, Event{Type: EventMessageCreated})

	if r.len() != 1 {
		t.Errorf("got %d events, want 1", r.len())
	}
	if n := b.f.count(topic); n != 0 {
		t.Errorf("subscriptions left = %d, want 0", n)
	}
}

func TestMemoryBroker_MultipleSubscribers(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()
	ctx := context.Background()
	topic := ConversationTopic("c1")

	var a, c recorder
	ua, _ := b.Subscribe(ctx, topic, a.handle)
	uc, _ := b.Subscribe(ctx, topic, c.handle)
	defer uc()

	ua()
	_ = b.Publish(ctx, topic, Event{Type: EventMessageCreated})
	if a.len() != 0 || c.len() != 1 {
		t.Errorf("a=%d c=%d, want 0 and 1", a.len(), c.len())
	}
}

func TestMemoryBroker_Closed(t *testing.T) {
	b := NewMemoryBroker()
	_ = b.Close()
	ctx := context.Background()

	if _, err := b.Subscribe(ctx, "t", func(Event) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe after Close err = %v, want ErrClosed", err)
	}
	if err := b.Publish(ctx, "t", Event{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close err = %v, want ErrClosed", err)
	}
}

func TestMemoryBroker_ConcurrentUse(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var r recorder
			unsub, err := b.Subscribe(ctx, "t", r.handle)
			if err != nil {
				t.Errorf("Subscribe failed: %v", err)
				return
			}
			_ = b.Publish(ctx, "t", Event{Type: "x"})
			unsub()
		}()
	}
	wg.Wait()
	if n := b.f.count("t"); n != 0 {
		t.Errorf("subscriptions left = %d, want 0", n)
	}
}
