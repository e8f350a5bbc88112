package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/FocuswithJustin/Rhymer/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocketConfig bounds label streams.
type WebSocketConfig struct {
	MaxMessageSize    int64 // largest inbound frame in bytes
	MessagesPerSecond int   // per-connection request rate
	Burst             int
}

// DefaultWebSocketConfig returns the stream limits used by "rhymer serve".
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		MaxMessageSize:    64 * 1024,
		MessagesPerSecond: 20,
		Burst:             40,
	}
}

// StreamMessage is one reply on a label stream. Type is "result" or "error".
type StreamMessage struct {
	Type   string         `json:"type"`
	ID     string         `json:"id,omitempty"`
	Result *LabelResponse `json:"result,omitempty"`
	Error  *APIError      `json:"error,omitempty"`
}

// handleLabelStream upgrades to a websocket on which every text frame is a
// LabelRequest and every reply a StreamMessage, in request order.
func (s *Server) handleLabelStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(s.cfg.AllowedOrigins, r)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.WebSocketEvent("upgrade_failed", "error", err, "origin", r.Header.Get("Origin"))
		return
	}

	connID := uuid.NewString()
	s.metrics.streams.Inc()
	logging.WebSocketEvent("connected", "conn_id", connID, "remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		conn.Close()
		s.metrics.streams.Dec()
		logging.WebSocketEvent("disconnected", "conn_id", connID)
	}()

	replies := make(chan StreamMessage, 16)
	go s.streamWriter(ctx, conn, replies)

	cfg := s.cfg.WebSocket
	limiter := rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), max(cfg.Burst, 1))
	if cfg.MessagesPerSecond <= 0 {
		limiter.SetLimit(rate.Inf)
	}
	if cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	defer close(replies)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.WebSocketEvent("read_error", "conn_id", connID, "error", err)
			}
			return
		}

		var req LabelRequest
		var reply StreamMessage
		switch {
		case !limiter.Allow():
			reply = streamError("", "RATE_LIMITED", "Too many messages")
		case json.Unmarshal(data, &req) != nil:
			reply = streamError("", "INVALID_REQUEST", "Invalid JSON message")
		default:
			resp, err := s.label(ctx, "websocket", req)
			if err != nil {
				reply = streamError(req.ID, errorCode(err), err.Error())
			} else {
				reply = StreamMessage{Type: "result", ID: req.ID, Result: resp}
			}
		}

		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}

// streamWriter owns all writes to conn: replies and keepalive pings.
func (s *Server) streamWriter(ctx context.Context, conn *websocket.Conn, replies <-chan StreamMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-replies:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func streamError(id, code, message string) StreamMessage {
	return StreamMessage{Type: "error", ID: id, Error: &APIError{Code: code, Message: message}}
}
