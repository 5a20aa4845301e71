package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// StreamError is sent in place of a verdict when a frame cannot be
// evaluated. The connection stays open.
type StreamError struct {
	Error ErrorBody `json:"error"`
}

// handleStream evaluates each text frame as a message and answers with the
// verdict, one frame per message, in order.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.WarnContext(r.Context(), "WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.cfg.MaxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(conn, done)

	ctx := r.Context()
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.WarnContext(ctx, "WebSocket read failed", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))

		var reply any
		msg, err := s.decodeMessage(data)
		if err != nil {
			reply = StreamError{Error: ErrorBody{Code: "invalid_message", Message: err.Error()}}
		} else {
			verdict := s.manager.Evaluate(ctx, msg)
			s.record(r, SourceWebSocket, msg, verdict)
			reply = verdict
		}

		if err := s.writeFrame(conn, reply); err != nil {
			s.logger.WarnContext(ctx, "WebSocket write failed", "error", err)
			return
		}
	}
}

// pingLoop keeps idle connections alive. gorilla/websocket allows one
// concurrent writer, so control frames go through WriteControl.
func (s *Server) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(v)
}
