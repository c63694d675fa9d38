package store

import (
	"encoding/json"
	"time"
)

// GameStatus is the Game.status enum (spec §3).
type GameStatus string

const (
	GameStatusWaiting  GameStatus = "waiting"
	GameStatusActive   GameStatus = "active"
	GameStatusFinished GameStatus = "finished"
)

// Player is a (displayName, userId) pair, as carried by Game.player1/player2.
type Player struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// Game is the spec §3 Game entity.
type Game struct {
	ID               string          `json:"gameId"`
	Status           GameStatus      `json:"status"`
	Player1          Player          `json:"player1"`
	Player2          *Player         `json:"player2"`
	Player1ID        string          `json:"player1Id"`
	Player2ID        *string         `json:"player2Id,omitempty"`
	WinnerID         *string         `json:"winnerId,omitempty"`
	ScenarioID       string          `json:"scenarioId"`
	TurnNumber       int             `json:"turnNumber"`
	ScenarioSnapshot json.RawMessage `json:"scenarioSnapshot"`
	GameState        json.RawMessage `json:"gameState"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Hex is one cell of a scenario's board.
type Hex struct {
	Col int             `json:"col"`
	Row int             `json:"row"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Scenario is the spec §3 Scenario entity.
type Scenario struct {
	ID          string          `json:"scenarioId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Columns     int             `json:"columns"`
	Rows        int             `json:"rows"`
	TurnCount   int             `json:"turnCount"`
	Hexes       json.RawMessage `json:"hexes"`
	CreatorID   string          `json:"creatorId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// PlayerGame is one (playerId, gameId, playerIndex) relationship row.
type PlayerGame struct {
	PlayerID    string `json:"playerId"`
	GameID      string `json:"gameId"`
	PlayerIndex int    `json:"playerIndex"`
}

// Connection is one live WebSocket row.
type Connection struct {
	ConnectionID string    `json:"connectionId"`
	GameID       string    `json:"gameId"`
	UserID       string    `json:"userId"`
	PlayerIndex  int       `json:"playerIndex"`
	ConnectedAt  time.Time `json:"connectedAt"`
	LastActivity time.Time `json:"lastActivity"`
	ExpiresAt    time.Time `json:"-"`
}

// Page is a paginated query result plus the opaque token to fetch the next
// page; NextToken is empty when there is no further page.
type Page[T any] struct {
	Items     []T
	NextToken string
}
