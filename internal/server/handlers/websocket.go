// internal/server/handlers/websocket.go

package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"innovaradar/internal/domain/opportunity"
	"innovaradar/internal/domain/progress"
)

const wsWriteWait = 10 * time.Second

// WebSocketUpgrader is used to upgrade HTTP connections to WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

type wsEvent struct {
	Kind          string                    `json:"kind"`
	Message       string                    `json:"message,omitempty"`
	Opportunities []opportunity.Opportunity `json:"opportunities,omitempty"`
}

// MatchWebSocketHandler streams a live matching run over a WebSocket. Each
// progress event is sent as one JSON message; the terminal result message is
// sent after the accepted candidates are persisted. Closing the socket
// cancels the run, including mid-pause.
func MatchWebSocketHandler(matcher MatchRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientFilter := r.URL.Query().Get("client")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade to WebSocket: %v", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go cancelOnClose(conn, cancel)

		for ev := range matcher.Run(ctx, clientFilter, limit) {
			if ev.Kind == progress.KindResult && len(ev.Opportunities) > 0 {
				if err := matcher.SaveOpportunities(ctx, ev.Opportunities); err != nil {
					log.Printf("Error saving opportunities from websocket run: %v", err)
					// Tell the peer before the result frame, otherwise the
					// candidates look persisted when they are not.
					if !writeEvent(conn, progress.Logf("Error saving opportunities: %v", err)) {
						cancel()
						return
					}
				}
			}

			if !writeEvent(conn, ev) {
				cancel()
				return
			}
		}
	}
}

// IngestWebSocketHandler streams a live ingestion scan over a WebSocket.
func IngestWebSocketHandler(scanner IngestRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade to WebSocket: %v", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go cancelOnClose(conn, cancel)

		for ev := range scanner.Run(ctx) {
			if !writeEvent(conn, ev) {
				cancel()
				return
			}
		}
	}
}

// cancelOnClose cancels the run context as soon as the peer closes the
// connection or the read side errors.
func cancelOnClose(conn *websocket.Conn, cancel context.CancelFunc) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev progress.Event) bool {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))

	err := conn.WriteJSON(wsEvent{
		Kind:          string(ev.Kind),
		Message:       ev.Message,
		Opportunities: ev.Opportunities,
	})
	if err != nil {
		log.Printf("WebSocket write error: %v", err)
		return false
	}

	return true
}
