// Package gamesvc is the Game Service (C3): CRUD for games and scenarios,
// ownership enforcement, and paginated queries by player role.
package gamesvc

import (
	"time"

	"github.com/google/uuid"

	"github.com/achgithub/turnlink-backend/internal/store"
)

// Service wraps the Data Store with the identity and ownership rules spec
// §4.3 names. It never accepts a userId from a request body for
// authorisation — every userID parameter here must already have been
// verified by the Identity Gate.
type Service struct {
	store *store.Store
	now   func() time.Time
}

// New builds a Service. now defaults to time.Now; tests may override it.
func New(st *store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// CreateGame creates a new waiting game owned by userID.
func (s *Service) CreateGame(userID, displayName, scenarioID string) (store.Game, error) {
	if displayName == "" {
		displayName = userID
	}
	gameID := uuid.New().String()
	return s.store.CreateGame(gameID, scenarioID, userID, displayName, s.now())
}

// JoinGame joins userID as player2.
func (s *Service) JoinGame(userID, displayName, gameID string) (store.Game, error) {
	if displayName == "" {
		displayName = userID
	}
	return s.store.JoinGame(gameID, userID, displayName, s.now())
}

// GetGame reads a game; visibility is public within authenticated users, so
// no access check is applied here.
func (s *Service) GetGame(gameID string) (store.Game, error) {
	return s.store.GetGame(gameID)
}

// DeleteGame destroys a game; the store enforces the creator-only rule.
func (s *Service) DeleteGame(userID, gameID string) error {
	return s.store.DeleteGame(gameID, userID)
}

// ListGamesInput mirrors spec §4.3 listGames' parameters.
type ListGamesInput struct {
	PlayerID  string
	Role      string // "any", "1", "2"
	Limit     int
	NextToken string
}

// ListGames returns a page of games.
func (s *Service) ListGames(in ListGamesInput) (store.Page[store.Game], error) {
	return s.store.ListGames(store.GameListFilter{PlayerID: in.PlayerID, Role: in.Role}, in.Limit, in.NextToken)
}

// CreateScenario creates a scenario owned by creatorID.
func (s *Service) CreateScenario(creatorID, title, description string, columns, rows, turnCount int, hexes []byte) (store.Scenario, error) {
	return s.store.CreateScenario(store.Scenario{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Columns:     columns,
		Rows:        rows,
		TurnCount:   turnCount,
		Hexes:       hexes,
		CreatorID:   creatorID,
	}, s.now())
}

// GetScenario reads a scenario.
func (s *Service) GetScenario(scenarioID string) (store.Scenario, error) {
	return s.store.GetScenario(scenarioID)
}

// UpdateScenario updates a scenario's mutable fields; only its creator may
// succeed.
func (s *Service) UpdateScenario(requestingUserID, scenarioID, title, description string, columns, rows, turnCount int, hexes []byte) (store.Scenario, error) {
	return s.store.UpdateScenario(store.Scenario{
		ID:          scenarioID,
		Title:       title,
		Description: description,
		Columns:     columns,
		Rows:        rows,
		TurnCount:   turnCount,
		Hexes:       hexes,
	}, requestingUserID)
}

// DeleteScenario deletes a scenario; only its creator may succeed.
func (s *Service) DeleteScenario(requestingUserID, scenarioID string) error {
	return s.store.DeleteScenario(scenarioID, requestingUserID)
}

// ListScenarios returns a page of scenarios ordered by createdAt descending.
func (s *Service) ListScenarios(limit int, token string) (store.Page[store.Scenario], error) {
	return s.store.ListScenarios(limit, token)
}

// PlayerStats reads one player's aggregate stats (SPEC_FULL §4).
func (s *Service) PlayerStats(playerID string) (store.PlayerStats, error) {
	return s.store.GetPlayerStats(playerID)
}

// FinishGame transitions a game to status=finished with a recorded winner
// and tallies the result into both players' aggregate stats. This core
// never computes the winner itself (spec.md keeps rule authority out of
// scope); callers — an external rules layer — supply winnerID directly.
func (s *Service) FinishGame(gameID, winnerID string) (store.Game, error) {
	game, err := s.store.FinishGame(gameID, winnerID, s.now())
	if err != nil {
		return store.Game{}, err
	}
	if err := s.recordResult(game, winnerID); err != nil {
		return store.Game{}, err
	}
	return game, nil
}

func (s *Service) recordResult(game store.Game, winnerID string) error {
	if game.Player2 == nil {
		return nil
	}
	now := s.now()
	if err := s.store.RecordResult(game.Player1ID, winnerID == game.Player1ID, now); err != nil {
		return err
	}
	return s.store.RecordResult(game.Player2.UserID, winnerID == game.Player2.UserID, now)
}
