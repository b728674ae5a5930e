package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "mentorconnect:rt:"

// RedisBroker fans events out through Redis pub/sub. Each node holds one
// PubSub connection and subscribes to a Redis channel only while it has a
// local subscriber for that topic. Published events come back through Redis
// to every node, including the publisher.
type RedisBroker struct {
	rdb    *redis.Client
	ps     *redis.PubSub
	f      *fanout
	log    *zap.Logger
	nodeID string

	done chan struct{}
	once sync.Once
}

// NewRedisBroker subscribes to this node's control channel and starts the
// receive loop.
func NewRedisBroker(ctx context.Context, rdb *redis.Client, log *zap.Logger) (*RedisBroker, error) {
	b := &RedisBroker{
		rdb:    rdb,
		f:      newFanout(),
		log:    log,
		nodeID: uuid.NewString(),
		done:   make(chan struct{}),
	}

	b.ps = rdb.Subscribe(ctx, channelPrefix+"node:"+b.nodeID)
	if _, err := b.ps.Receive(ctx); err != nil {
		_ = b.ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	b.f.onFirst = func(topic string) error {
		return b.ps.Subscribe(context.Background(), channelPrefix+topic)
	}
	b.f.onLast = func(topic string) {
		if err := b.ps.Unsubscribe(context.Background(), channelPrefix+topic); err != nil {
			b.log.Warn("redis unsubscribe failed", zap.String("topic", topic), zap.Error(err))
		}
	}

	go b.receive(b.ps.Channel())
	return b, nil
}

// NodeID identifies this broker instance.
func (b *RedisBroker) NodeID() string { return b.nodeID }

func (b *RedisBroker) receive(ch <-chan *redis.Message) {
	for {
		select {
		case <-b.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			topic := strings.TrimPrefix(msg.Channel, channelPrefix)
			if strings.HasPrefix(topic, "node:") {
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("dropping malformed realtime event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			ev.Topic = topic
			b.f.deliver(ev)
		}
	}
}

// Publish sends ev to every node subscribed to topic.
func (b *RedisBroker) Publish(ctx context.Context, topic string, ev Event) error {
	if b.f.isClosed() {
		return ErrClosed
	}
	ev.Topic = topic
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, channelPrefix+topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe registers fn for topic, subscribing this node in Redis when it is
// the topic's first local subscriber.
func (b *RedisBroker) Subscribe(_ context.Context, topic string, fn Handler) (Unsubscribe, error) {
	return b.f.add(topic, fn)
}

// Close drops local subscriptions and the PubSub connection. The Redis client
// itself belongs to the caller.
func (b *RedisBroker) Close() error {
	var err error
	b.once.Do(func() {
		b.f.close()
		close(b.done)
		err = b.ps.Close()
	})
	return err
}
