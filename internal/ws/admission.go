package ws

import (
	"context"
	"time"

	"github.com/achgithub/turnlink-backend/internal/store"
	"github.com/achgithub/turnlink-backend/internal/transport"
)

// admissionError carries an HTTP-ish status alongside a client-safe message.
// HandleWebSocket rejects a missing gameId/userId with a 400 before
// upgrading; every admissionError arises after the upgrade, and
// HandleWebSocket reports it as an error frame carrying only the message,
// then closes the socket. The status is not sent to the client.
type admissionError struct {
	status  int
	message string
}

func (e *admissionError) Error() string { return e.message }

// resolveIdentity implements step 2 of spec §4.5: verify the bearer token, or
// — only when AuthFallback is explicitly enabled — trust the supplied userId
// outright. The fallback exists for local development against identity
// providers this service does not control; production deployments must
// leave AuthFallback unset.
func (h *Hub) resolveIdentity(token, userID string) (string, error) {
	if token == "" {
		if h.cfg.AuthFallback == "insecure-userid" {
			h.log.Warn("admitting connection for userId=%s without a verified token (AUTH_FALLBACK=insecure-userid)", userID)
			return userID, nil
		}
		return "", &admissionError{status: 401, message: "missing bearer token"}
	}

	identity, err := h.verifier.Verify(token)
	if err != nil {
		return "", &admissionError{status: 401, message: "invalid or expired token"}
	}
	if identity.UserID != userID {
		return "", &admissionError{status: 403, message: "token does not match userId"}
	}
	return identity.UserID, nil
}

// playerIndexFor computes step 3 of spec §4.5: a connecting userId must be
// one of the game's two players.
func playerIndexFor(game store.Game, userID string) (int, error) {
	if game.Player1ID == userID {
		return 1, nil
	}
	if game.Player2ID != nil && *game.Player2ID == userID {
		return 2, nil
	}
	return 0, &admissionError{status: 403, message: "userId is not a player of this game"}
}

// admit runs the full connect protocol (spec §4.5 steps 2-7): verify
// identity, validate the game and the player's membership in it, persist the
// Connection row, and broadcast the resulting presence to everyone already
// in the game plus the connection just admitted. It returns the Connection
// row on success; callers must register the socket with the Transport
// before broadcasting is able to reach it.
func (h *Hub) admit(ctx context.Context, connectionID, gameID, userID, token string, now time.Time) (store.Connection, error) {
	resolvedUserID, err := h.resolveIdentity(token, userID)
	if err != nil {
		return store.Connection{}, err
	}

	game, err := h.store.GetGame(gameID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Connection{}, &admissionError{status: 404, message: "game not found"}
		}
		return store.Connection{}, &admissionError{status: 500, message: "failed to load game"}
	}

	playerIndex, err := playerIndexFor(game, resolvedUserID)
	if err != nil {
		return store.Connection{}, err
	}

	conn, err := h.registry.Register(ctx, connectionID, gameID, resolvedUserID, playerIndex, now)
	if err != nil {
		return store.Connection{}, &admissionError{status: 500, message: "failed to register connection"}
	}

	h.broadcastPresence(ctx, game, gameID, conn)

	return conn, nil
}

// broadcastPresence implements spec §4.5 step 6: list the game's connections
// and union in the row admission just wrote, because a read immediately
// following a write is not guaranteed to observe it. Disconnect's symmetric
// recompute is broadcastAfterDisconnect in disconnect.go. Failures to reach an individual
// target are logged and otherwise ignored — presence is best-effort, not a
// delivery guarantee.
func (h *Hub) broadcastPresence(ctx context.Context, game store.Game, gameID string, include store.Connection) {
	conns, err := h.registry.ListByGame(ctx, gameID)
	if err != nil {
		h.log.WithGame(gameID).Warn("failed to list connections: %v", err)
		conns = nil
	}

	present := map[int]store.Connection{}
	for _, c := range conns {
		present[c.PlayerIndex] = c
	}
	if include.ConnectionID != "" {
		present[include.PlayerIndex] = include
	}

	frame := ConnectionStateUpdateFrame{Type: "connectionStateUpdate", GameID: gameID, Timestamp: time.Now().UnixMilli()}
	if c, ok := present[1]; ok {
		frame.Connections.Player1 = PlayerPresence{Connected: true, UserID: c.UserID, PlayerName: game.Player1.DisplayName}
	} else {
		frame.Connections.Player1 = PlayerPresence{Connected: false, UserID: game.Player1ID, PlayerName: game.Player1.DisplayName}
	}
	if game.Player2 != nil {
		if c, ok := present[2]; ok {
			frame.Connections.Player2 = &PlayerPresence{Connected: true, UserID: c.UserID, PlayerName: game.Player2.DisplayName}
		} else {
			frame.Connections.Player2 = &PlayerPresence{Connected: false, UserID: game.Player2.UserID, PlayerName: game.Player2.DisplayName}
		}
	}

	h.fanOut(ctx, gameID, conns, include, frame)
}

// fanOut posts frame to every connection in targets plus include (when its
// ConnectionID is non-empty), classifying each Post result per spec §4.6 and
// reaping any target the Transport reports as Gone or Forbidden. A Transient
// result is logged and otherwise left alone — the connection may still be
// good next time.
func (h *Hub) fanOut(ctx context.Context, gameID string, targets []store.Connection, include store.Connection, frame interface{}) {
	seen := map[string]struct{}{}
	post := func(c store.Connection) {
		if _, dup := seen[c.ConnectionID]; dup {
			return
		}
		seen[c.ConnectionID] = struct{}{}
		h.reapOnFailure(ctx, gameID, c.ConnectionID, h.transport.Post(c.ConnectionID, frame))
	}
	for _, c := range targets {
		post(c)
	}
	if include.ConnectionID != "" {
		post(include)
	}
}

func (h *Hub) reapOnFailure(ctx context.Context, gameID, connectionID string, result transport.Result) {
	log := h.log.WithGame(gameID).WithConnection(connectionID)
	switch result {
	case transport.ResultGone, transport.ResultForbidden:
		if err := h.registry.Forget(ctx, connectionID, gameID); err != nil {
			log.Warn("failed to reap dead connection: %v", err)
		}
	case transport.ResultTransient:
		log.Warn("transient broadcast failure")
	}
}
