// internal/app/features/messages/handler.go
package messages

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/mentorconnect/internal/app/features/errors"
	conversationstore "github.com/dalemusser/mentorconnect/internal/app/store/conversations"
	messagestore "github.com/dalemusser/mentorconnect/internal/app/store/messages"
	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/app/system/metrics"
	"github.com/dalemusser/mentorconnect/internal/app/system/realtime"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SocketConfig tunes the realtime socket.
type SocketConfig struct {
	// AllowedOrigins lists browser origins allowed to open the socket. Empty
	// means same-origin only.
	AllowedOrigins []string
	// InboundPerSecond and InboundBurst limit client frames per socket.
	InboundPerSecond float64
	InboundBurst     int
}

// DefaultSocketConfig is used when NewHandler gets a zero config.
var DefaultSocketConfig = SocketConfig{InboundPerSecond: 5, InboundBurst: 10}

// Handler serves conversations, messages, and the realtime socket.
type Handler struct {
	Users         *userstore.Store
	Conversations *conversationstore.Store
	Messages      *messagestore.Store
	Broker        realtime.Broker
	ErrLog        *uierrors.ErrorLogger
	Log           *zap.Logger

	upgrader  websocket.Upgrader
	rateLimit rate.Limit
	burst     int
}

func NewHandler(db *mongo.Database, broker realtime.Broker, cfg SocketConfig, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if cfg.InboundPerSecond <= 0 {
		cfg.InboundPerSecond = DefaultSocketConfig.InboundPerSecond
	}
	if cfg.InboundBurst <= 0 {
		cfg.InboundBurst = DefaultSocketConfig.InboundBurst
	}
	h := &Handler{
		Users:         userstore.New(db),
		Conversations: conversationstore.New(db),
		Messages:      messagestore.New(db),
		Broker:        broker,
		ErrLog:        errLog,
		Log:           logger,
		rateLimit:     rate.Limit(cfg.InboundPerSecond),
		burst:         cfg.InboundBurst,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	if len(cfg.AllowedOrigins) > 0 {
		allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
		for _, o := range cfg.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		}
	}
	return h
}

// publish sends one event and counts failures. Delivery is best effort: a
// stored message is never rolled back because a push failed.
func (h *Handler) publish(ctx context.Context, typ, topic string, data any) {
	ev, err := realtime.NewEvent(typ, topic, data)
	if err == nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		err = h.Broker.Publish(pctx, topic, ev)
		cancel()
	}
	if err != nil {
		metrics.RealtimePublishErrors.Inc()
		h.Log.Warn("realtime publish failed", zap.String("topic", topic), zap.String("type", typ), zap.Error(err))
	}
}
