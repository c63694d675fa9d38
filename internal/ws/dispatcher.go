package ws

import (
	"context"
	"time"

	"github.com/achgithub/turnlink-backend/internal/store"
)

// dispatch implements spec §4.6: load the sender's Connection row fresh —
// step 1 requires failing the frame if it is absent, since admission's row
// may since have been deleted by a terminal send error, a TTL sweep, or a
// disconnect racing this read loop — refresh its lastActivity, then route
// the frame by action. Per-target broadcast failures are reaped by fanOut
// and never surfaced to the sender — a misbehaving peer must not be able to
// wedge this connection's read loop.
func (h *Hub) dispatch(ctx context.Context, connectionID string, frame InboundFrame) {
	conn, err := h.registry.Get(ctx, connectionID)
	if err != nil {
		h.transport.Post(connectionID, ErrorFrame{Type: "error", Message: "connection not found", Code: "not_found"})
		return
	}

	now := time.Now()
	if err := h.registry.Touch(ctx, conn.ConnectionID, now); err != nil {
		h.log.WithConnection(conn.ConnectionID).Warn("failed to touch connection: %v", err)
	}

	gameID := frame.GameID
	if gameID == "" {
		gameID = conn.GameID
	}

	switch frame.Action {
	case "heartbeat":
		// lastActivity is already current; nothing further to do.
	case "chat":
		h.dispatchChat(ctx, conn, gameID, frame)
	case "":
		h.transport.Post(conn.ConnectionID, ErrorFrame{Type: "error", Message: "frame is missing an action"})
	default:
		// moveUnit, selectUnit, endTurn, and any other action the client
		// sends are all state-changing as far as this core is concerned:
		// it persists whatever gameState accompanies the frame and
		// forwards the action name verbatim with the broadcast, per
		// spec.md's "any additional action the server forwards verbatim"
		// clause. Move legality is not this core's concern.
		h.dispatchGameState(ctx, conn, gameID, frame, now)
	}
}

func (h *Hub) dispatchChat(ctx context.Context, conn store.Connection, gameID string, frame InboundFrame) {
	game, err := h.store.GetGame(gameID)
	if err != nil {
		h.transport.Post(conn.ConnectionID, ErrorFrame{Type: "error", Message: "game not found"})
		return
	}

	player := game.Player1.DisplayName
	if conn.PlayerIndex == 2 && game.Player2 != nil {
		player = game.Player2.DisplayName
	}

	userID := conn.UserID
	if frame.UserID != "" {
		userID = frame.UserID
	}

	chat := ChatFrame{
		Type:      "chat",
		GameID:    gameID,
		Player:    player,
		UserID:    userID,
		Message:   frame.Message,
		Timestamp: time.Now().UnixMilli(),
	}

	targets, err := h.registry.ListByGame(ctx, gameID)
	if err != nil {
		h.log.WithGame(gameID).Warn("failed to list connections for chat broadcast: %v", err)
		return
	}
	h.fanOut(ctx, gameID, targets, store.Connection{}, chat)
}

// dispatchGameState implements the state-changing half of spec §4.6: persist
// the caller's gameState, advance the stored turnNumber by one for every
// state-changing frame, then broadcast the gameState to every
// connection in the game. The broadcast frame never includes the scenario
// snapshot — clients already hold it from Game Service reads and it does not
// change after creation.
func (h *Hub) dispatchGameState(ctx context.Context, conn store.Connection, gameID string, frame InboundFrame, now time.Time) {
	game, err := h.store.GetGame(gameID)
	if err != nil {
		h.transport.Post(conn.ConnectionID, ErrorFrame{Type: "error", Message: "game not found"})
		return
	}

	turnNumber := game.TurnNumber + 1
	if err := h.store.UpdateGameState(gameID, frame.GameState, turnNumber, now); err != nil {
		h.transport.Post(conn.ConnectionID, ErrorFrame{Type: "error", Message: "failed to update game state"})
		return
	}

	update := GameStateUpdateFrame{
		Type:      "gameStateUpdate",
		GameID:    gameID,
		Action:    frame.Action,
		GameState: frame.GameState,
		Timestamp: now.UnixMilli(),
	}

	targets, err := h.registry.ListByGame(ctx, gameID)
	if err != nil {
		h.log.WithGame(gameID).Warn("failed to list connections for state broadcast: %v", err)
		return
	}
	h.fanOut(ctx, gameID, targets, store.Connection{}, update)
}
