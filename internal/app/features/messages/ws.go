// internal/app/features/messages/ws.go
package messages

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/mentorconnect/internal/app/policy/messagepolicy"
	"github.com/dalemusser/mentorconnect/internal/app/system/limits"
	"github.com/dalemusser/mentorconnect/internal/app/system/authz"
	"github.com/dalemusser/mentorconnect/internal/app/system/realtime"
	"github.com/dalemusser/mentorconnect/internal/app/system/timeouts"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Frame types sent by the server besides broker events.
const (
	frameReady    = "ready"
	frameWatching = "watching"
	frameError    = "error"
)

// clientFrame is one inbound socket frame.
type clientFrame struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// serverFrame is a control reply. Broker events are sent as realtime.Event.
type serverFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// socket is one connected client. It always holds the inbox subscription and
// at most one conversation subscription.
type socket struct {
	h       *Handler
	conn    *websocket.Conn
	userID  primitive.ObjectID
	limiter *rate.Limiter
	log     *zap.Logger

	mu       sync.Mutex
	send     chan []byte
	closed   bool
	inbox    realtime.Unsubscribe
	watching primitive.ObjectID
	unwatch  realtime.Unsubscribe
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /messages/ws                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeSocket upgrades to a websocket that streams the viewer's inbox events
// and, after a watch frame, one conversation's messages.
func (h *Handler) ServeSocket(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.Log.Info("websocket upgrade failed", zap.String("user_id", uid.Hex()), zap.Error(err))
		return
	}

	s := &socket{
		h:       h,
		conn:    conn,
		userID:  uid,
		limiter: rate.NewLimiter(h.rateLimit, h.burst),
		log:     h.Log.With(zap.String("user_id", uid.Hex())),
		send:    make(chan []byte, sendBufferSize),
	}

	unsub, err := h.Broker.Subscribe(r.Context(), realtimeUserTopic(uid), s.deliver)
	if err != nil {
		s.log.Warn("inbox subscribe failed", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "realtime unavailable"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	s.inbox = unsub
	s.log.Debug("websocket connected")

	s.reply(serverFrame{Type: frameReady})
	go s.writePump()
	s.readPump(r.Context())
}

// deliver is the broker handler. It never blocks; a client too slow to drain
// its buffer loses events.
func (s *socket) deliver(ev realtime.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.enqueue(b)
}

func (s *socket) reply(f serverFrame) {
	b, _ := json.Marshal(f)
	s.enqueue(b)
}

func (s *socket) enqueue(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- b:
	default:
		s.log.Warn("websocket send buffer full, dropping frame")
	}
}

// readPump handles client frames until the socket fails, then tears down
// every subscription.
func (s *socket) readPump(ctx context.Context) {
	defer s.shutdown()

	s.conn.SetReadLimit(limits.MaxSocketFrame)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Info("websocket read failed", zap.Error(err))
			}
			return
		}
		if !s.limiter.Allow() {
			s.reply(serverFrame{Type: frameError, Error: "rate limited"})
			continue
		}

		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			s.reply(serverFrame{Type: frameError, Error: "malformed frame"})
			continue
		}
		switch f.Action {
		case "watch":
			s.watch(ctx, f.ConversationID)
		case "unwatch":
			s.stopWatching()
			s.reply(serverFrame{Type: frameWatching})
		default:
			s.reply(serverFrame{Type: frameError, Error: "unknown action"})
		}
	}
}

// watch switches the conversation subscription. The previous one is torn
// down before the new one starts.
func (s *socket) watch(ctx context.Context, idHex string) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		s.reply(serverFrame{Type: frameError, Error: "conversation not found"})
		return
	}

	lctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	conv, err := s.h.Conversations.GetByID(lctx, id)
	cancel()
	if err != nil || !messagepolicy.CanRead(conv, s.userID) {
		s.reply(serverFrame{Type: frameError, ConversationID: idHex, Error: "conversation not found"})
		return
	}

	s.mu.Lock()
	same := s.watching == id
	s.mu.Unlock()
	if same {
		s.reply(serverFrame{Type: frameWatching, ConversationID: idHex})
		return
	}
	s.stopWatching()

	unsub, err := s.h.Broker.Subscribe(ctx, realtime.ConversationTopic(id.Hex()), s.deliver)
	if err != nil {
		s.log.Warn("conversation subscribe failed", zap.String("conversation_id", idHex), zap.Error(err))
		s.reply(serverFrame{Type: frameError, ConversationID: idHex, Error: "realtime unavailable"})
		return
	}

	s.mu.Lock()
	s.watching, s.unwatch = id, unsub
	s.mu.Unlock()
	s.reply(serverFrame{Type: frameWatching, ConversationID: idHex})
}

func (s *socket) stopWatching() {
	s.mu.Lock()
	unwatch := s.unwatch
	s.watching, s.unwatch = primitive.NilObjectID, nil
	s.mu.Unlock()
	if unwatch != nil {
		unwatch()
	}
}

// shutdown drops both subscriptions and stops the write pump.
func (s *socket) shutdown() {
	s.stopWatching()
	if s.inbox != nil {
		s.inbox()
	}

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
	s.mu.Unlock()
	s.log.Debug("websocket closed")
}

func (s *socket) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
