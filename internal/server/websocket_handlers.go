package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketFrameMessage is one inbound frame of detections.
type WebSocketFrameMessage struct {
	Type  string          `json:"type"` // "frame"
	Frame SuppressRequest `json:"frame"`
}

// WebSocketResultMessage is the per-frame response.
type WebSocketResultMessage struct {
	Type   string      `json:"type"`             // "result" or "error"
	Result interface{} `json:"result,omitempty"` // suppress.ResultJSON on success
	Error  string      `json:"error,omitempty"`
}

// suppressWebSocketHandler handles WebSocket connections for streaming
// per-frame suppression.
func (s *Server) suppressWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(conn)
}

// handleWebSocketConnection processes frames from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	// Read deadline prevents hanging connections; pongs extend it.
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(conn, data)
		}
	}
}

// handleWebSocketMessage suppresses one frame and writes the result back.
func (s *Server) handleWebSocketMessage(conn *websocket.Conn, data []byte) {
	var msg WebSocketFrameMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendWebSocketError(conn, fmt.Sprintf("Failed to parse message: %v", err))
		return
	}
	if msg.Type != "frame" {
		s.sendWebSocketError(conn, fmt.Sprintf("Unknown message type %q", msg.Type))
		return
	}

	res, err := s.suppressFrame(msg.Frame, "websocket")
	if err != nil {
		suppressRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, err.Error())
		return
	}
	suppressRequestsTotal.WithLabelValues("websocket", "success").Inc()

	s.sendWebSocketMessage(conn, WebSocketResultMessage{Type: "result", Result: res})
}

func (s *Server) sendWebSocketError(conn *websocket.Conn, message string) {
	s.sendWebSocketMessage(conn, WebSocketResultMessage{Type: "error", Error: message})
}

func (s *Server) sendWebSocketMessage(conn *websocket.Conn, msg WebSocketResultMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal WebSocket message", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to write WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
