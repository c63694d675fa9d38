package ws

import (
	"context"
	"time"

	"github.com/achgithub/turnlink-backend/internal/store"
)

// disconnect implements spec §4.7: best-effort read of the Connection row,
// idempotent delete, and a presence recompute broadcast to whoever remains.
// It is safe to call more than once for the same connectionId — a second
// call simply finds nothing left to delete and broadcasts the same presence
// it broadcast the first time.
func (h *Hub) disconnect(ctx context.Context, connectionID, gameID string) {
	conn, err := h.registry.Get(ctx, connectionID)
	hadRow := err == nil
	if hadRow {
		gameID = conn.GameID
	}

	if err := h.registry.Forget(ctx, connectionID, gameID); err != nil {
		h.log.WithGame(gameID).WithConnection(connectionID).Warn("failed to delete connection on disconnect: %v", err)
	}

	game, err := h.store.GetGame(gameID)
	if err != nil {
		// The game itself may have been deleted out from under this
		// connection; there is nothing left to broadcast presence to.
		return
	}

	remaining, err := h.registry.ListByGame(ctx, gameID)
	if err != nil {
		h.log.WithGame(gameID).Warn("failed to list connections on disconnect: %v", err)
		remaining = nil
	}
	filtered := remaining[:0:0]
	for _, c := range remaining {
		if c.ConnectionID != connectionID {
			filtered = append(filtered, c)
		}
	}

	h.broadcastAfterDisconnect(ctx, game, gameID, filtered)
}

// broadcastAfterDisconnect mirrors admission's broadcastPresence but with no
// row to union in — the departing connection must not reappear even if a
// lagging store read still returns it (hence the filter in disconnect).
func (h *Hub) broadcastAfterDisconnect(ctx context.Context, game store.Game, gameID string, remaining []store.Connection) {
	present := map[int]store.Connection{}
	for _, c := range remaining {
		present[c.PlayerIndex] = c
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

	h.fanOut(ctx, gameID, remaining, store.Connection{}, frame)
}
