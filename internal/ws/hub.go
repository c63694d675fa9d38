// Package ws is the real-time subsystem: WebSocket Admission (C5), the
// Dispatcher (C6), and the Disconnect Handler (C7), wired over the
// Connection Registry, the Data Store, and the Broadcast Transport.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/achgithub/turnlink-backend/internal/auth"
	"github.com/achgithub/turnlink-backend/internal/config"
	"github.com/achgithub/turnlink-backend/internal/logging"
	"github.com/achgithub/turnlink-backend/internal/registry"
	"github.com/achgithub/turnlink-backend/internal/store"
	"github.com/achgithub/turnlink-backend/internal/transport"
)

// Hub owns the upgrade endpoint and holds every collaborator the connect,
// dispatch, and disconnect protocols need.
type Hub struct {
	store     *store.Store
	registry  *registry.Registry
	transport transport.Transport
	verifier  *auth.Verifier
	cfg       config.Config
	log       *logging.Logger
	upgrader  websocket.Upgrader
}

// NewHub builds a Hub. verifier may be nil only when cfg.AuthFallback is set.
func NewHub(st *store.Store, reg *registry.Registry, tr transport.Transport, verifier *auth.Verifier, cfg config.Config, log *logging.Logger) *Hub {
	return &Hub{
		store:     st,
		registry:  reg,
		transport: tr,
		verifier:  verifier,
		cfg:       cfg,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     buildCheckOrigin(cfg.FrontendOrigins),
		},
	}
}

// buildCheckOrigin allows every origin when FrontendOrigins is empty,
// matching the teacher's permissive development default; a deployment that
// cares about origin locking sets FRONTEND_ORIGINS.
func buildCheckOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// HandleWebSocket is the connect endpoint (spec §6 "GET /ws"): it reads
// gameId/userId/token from the query string, upgrades the socket, runs
// admission, then loops reading frames until the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	userID := r.URL.Query().Get("userId")
	token := r.URL.Query().Get("token")

	if gameID == "" || userID == "" {
		http.Error(w, "gameId and userId are required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed: %v", err)
		return
	}

	connectionID := uuid.New().String()
	ctx := context.Background()

	// Register with the Transport before running admission: admit's own
	// broadcastPresence fans the connectionStateUpdate out to connectionID
	// itself, and Transport.Post treats an unregistered connectionId as
	// Gone. Registering first means the connecting client actually receives
	// its own presence frame instead of being reaped the instant it joins.
	h.transport.Register(connectionID, conn)

	admitted, admitErr := h.admit(ctx, connectionID, gameID, userID, token, time.Now())
	if admitErr != nil {
		h.sendAdmissionError(conn, admitErr)
		h.transport.Unregister(connectionID)
		conn.Close()
		return
	}

	defer func() {
		h.transport.Unregister(connectionID)
		conn.Close()
		h.disconnect(context.Background(), connectionID, gameID)
	}()

	h.readLoop(ctx, conn, admitted.ConnectionID)
}

func (h *Hub) sendAdmissionError(conn *websocket.Conn, err error) {
	ae, ok := err.(*admissionError)
	message := "admission failed"
	if ok {
		message = ae.message
	}
	data, marshalErr := json.Marshal(ErrorFrame{Type: "error", Message: message})
	if marshalErr != nil {
		return
	}
	conn.WriteMessage(websocket.TextMessage, data)
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// readLoop pulls frames off the wire until the client disconnects or sends
// something unreadable enough to end the connection. A server-initiated
// ping/pong keepalive runs alongside it: a socket that stops responding to
// pings hits its read deadline and the loop returns, which tears down the
// connection and hands control to the deferred disconnect in
// HandleWebSocket. This is what actually starves a dead TCP connection into
// Dispatcher/Transport's gone classification — the store's own TTL is too
// coarse to catch it within the scenario's timescale.
func (h *Hub) readLoop(ctx context.Context, conn *websocket.Conn, connectionID string) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var frame InboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				h.transport.Post(connectionID, ErrorFrame{Type: "error", Message: "malformed frame"})
				continue
			}

			h.dispatch(ctx, connectionID, frame)
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if result := h.transport.Ping(connectionID); result != transport.ResultOK {
				return
			}
		}
	}
}
