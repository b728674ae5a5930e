// Package realtime delivers push events to live subscribers.
//
// Topics are per user (inbox updates) and per conversation (new messages).
// A Broker is either in-process, for a single node, or backed by Redis
// pub/sub so events published on one node reach sockets held by another.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event types pushed to clients.
const (
	EventConversationUpdated = "conversation.updated"
	EventMessageCreated      = "message.created"
)

// ErrClosed is returned by a Broker after Close.
var ErrClosed = errors.New("realtime: broker closed")

// Event is one pushed notification.
type Event struct {
	Type  string          `json:"type"`
	Topic string          `json:"topic"`
	At    time.Time       `json:"at"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals data into an Event for topic.
func NewEvent(typ, topic string, data any) (Event, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", typ, err)
	}
	return Event{Type: typ, Topic: topic, At: time.Now().UTC(), Data: b}, nil
}

// Handler receives events for a subscription. It runs on the broker's
// delivery goroutine and must not block.
type Handler func(Event)

// Unsubscribe ends a subscription. Calling it more than once is safe.
type Unsubscribe func()

// Broker publishes events to topics and manages subscriptions.
type Broker interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Subscribe(ctx context.Context, topic string, fn Handler) (Unsubscribe, error)
	Close() error
}

// UserTopic is the inbox topic of one user.
func UserTopic(userHex string) string { return "user:" + userHex }

// ConversationTopic is the message topic of one conversation.
func ConversationTopic(convHex string) string { return "conversation:" + convHex }
