package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CreateGame inserts a new Game (status=waiting) together with the
// creator's PlayerGame(1) row, atomically (spec §4.3 createGame). The
// scenario must already exist; its snapshot is copied onto the game and
// never mutated again.
func (s *Store) CreateGame(gameID, scenarioID, playerUserID, playerDisplayName string, now time.Time) (Game, error) {
	scenario, err := s.GetScenario(scenarioID)
	if err != nil {
		return Game{}, err
	}

	emptyState, _ := json.Marshal(map[string]interface{}{})

	tx, err := s.db.Begin()
	if err != nil {
		return Game{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	game := Game{
		ID:               gameID,
		Status:           GameStatusWaiting,
		Player1:          Player{UserID: playerUserID, DisplayName: playerDisplayName},
		Player2:          nil,
		Player1ID:        playerUserID,
		Player2ID:        nil,
		ScenarioID:       scenarioID,
		ScenarioSnapshot: scenario.Hexes,
		GameState:        emptyState,
		TurnNumber:       1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err = tx.Exec(fmt.Sprintf(`
		INSERT INTO %s (game_id, status, player1_id, player1_name, player2_id, player2_name, winner_id,
			scenario_id, scenario_snapshot, game_state, turn_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULL, NULL, NULL, $5, $6, $7, $8, $9, $9)
	`, s.gamesTable),
		game.ID, game.Status, game.Player1ID, game.Player1.DisplayName,
		game.ScenarioID, game.ScenarioSnapshot, game.GameState, game.TurnNumber, game.CreatedAt)
	if err != nil {
		return Game{}, fmt.Errorf("insert game: %w", err)
	}

	_, err = tx.Exec(fmt.Sprintf(`
		INSERT INTO %s (player_id, game_id, player_index, created_at) VALUES ($1, $2, 1, $3)
	`, s.playerGamesTable), playerUserID, gameID, now)
	if err != nil {
		return Game{}, fmt.Errorf("insert player_game: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Game{}, fmt.Errorf("commit: %w", err)
	}

	return game, nil
}

// GetGame fetches a game by id.
func (s *Store) GetGame(gameID string) (Game, error) {
	return s.scanGame(s.db.QueryRow(fmt.Sprintf(`
		SELECT game_id, status, player1_id, player1_name, player2_id, player2_name, winner_id,
			scenario_id, scenario_snapshot, game_state, turn_number, created_at, updated_at
		FROM %s WHERE game_id = $1
	`, s.gamesTable), gameID))
}

// FinishGame transitions a game to status=finished with a recorded winner
// (spec §3 Game.status note: a transition this core never drives itself, but
// preserves once an external layer writes it). winnerUserID must be one of
// the game's two players.
func (s *Store) FinishGame(gameID, winnerUserID string, now time.Time) (Game, error) {
	game, err := s.GetGame(gameID)
	if err != nil {
		return Game{}, err
	}
	if winnerUserID != game.Player1ID && (game.Player2ID == nil || winnerUserID != *game.Player2ID) {
		return Game{}, newError(ErrBadRequest, "winnerId is not a player of this game")
	}

	res, err := s.db.Exec(fmt.Sprintf(`
		UPDATE %s SET status = $1, winner_id = $2, updated_at = $3 WHERE game_id = $4
	`, s.gamesTable), GameStatusFinished, winnerUserID, now, gameID)
	if err != nil {
		return Game{}, fmt.Errorf("finish game: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Game{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return Game{}, newError(ErrNotFound, "game not found")
	}
	return s.GetGame(gameID)
}

// JoinGame joins playerUserID as player2 (spec §4.3 joinGame). The update is
// conditional on player2_id still being NULL and the joiner not already
// being player1; losers of a concurrent join race see Conflict.
func (s *Store) JoinGame(gameID, playerUserID, playerDisplayName string, now time.Time) (Game, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return Game{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var player1ID string
	var player2ID sql.NullString
	err = tx.QueryRow(fmt.Sprintf(`SELECT player1_id, player2_id FROM %s WHERE game_id = $1 FOR UPDATE`, s.gamesTable), gameID).
		Scan(&player1ID, &player2ID)
	if err == sql.ErrNoRows {
		return Game{}, newError(ErrNotFound, "game not found")
	}
	if err != nil {
		return Game{}, fmt.Errorf("lookup game: %w", err)
	}

	if player1ID == playerUserID {
		return Game{}, newError(ErrConflict, "creator cannot join their own game")
	}
	if player2ID.Valid {
		return Game{}, newError(ErrConflict, "game already has a second player")
	}

	res, err := tx.Exec(fmt.Sprintf(`
		UPDATE %s SET status = $1, player2_id = $2, player2_name = $3, updated_at = $4
		WHERE game_id = $5 AND player2_id IS NULL
	`, s.gamesTable), GameStatusActive, playerUserID, playerDisplayName, now, gameID)
	if err != nil {
		return Game{}, fmt.Errorf("update game: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Game{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return Game{}, newError(ErrConflict, "game already has a second player")
	}

	_, err = tx.Exec(fmt.Sprintf(`
		INSERT INTO %s (player_id, game_id, player_index, created_at) VALUES ($1, $2, 2, $3)
	`, s.playerGamesTable), playerUserID, gameID, now)
	if err != nil {
		return Game{}, fmt.Errorf("insert player_game: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Game{}, fmt.Errorf("commit: %w", err)
	}

	return s.GetGame(gameID)
}

// DeleteGame destroys a game and sweeps its PlayerGame rows. Only the
// creator (player1) may call this successfully; callers pass
// requestingUserID so the check happens under the same transaction as the
// delete.
func (s *Store) DeleteGame(gameID, requestingUserID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var player1ID string
	err = tx.QueryRow(fmt.Sprintf(`SELECT player1_id FROM %s WHERE game_id = $1 FOR UPDATE`, s.gamesTable), gameID).Scan(&player1ID)
	if err == sql.ErrNoRows {
		return newError(ErrNotFound, "game not found")
	}
	if err != nil {
		return fmt.Errorf("lookup game: %w", err)
	}

	if player1ID != requestingUserID {
		return newError(ErrForbidden, "only the creator may delete this game")
	}

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE game_id = $1`, s.playerGamesTable), gameID); err != nil {
		return fmt.Errorf("delete player_games: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE game_id = $1`, s.gamesTable), gameID); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}

	return tx.Commit()
}

// UpdateGameState writes back the mutable game state blob after a
// state-changing dispatcher action (spec §4.6 step 3). The immutable
// scenario snapshot is never touched.
func (s *Store) UpdateGameState(gameID string, gameState json.RawMessage, turnNumber int, now time.Time) error {
	res, err := s.db.Exec(fmt.Sprintf(`
		UPDATE %s SET game_state = $1, turn_number = $2, updated_at = $3 WHERE game_id = $4
	`, s.gamesTable), gameState, turnNumber, now, gameID)
	if err != nil {
		return fmt.Errorf("update game state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return newError(ErrNotFound, "game not found")
	}
	return nil
}

// GameListFilter narrows ListGames to games a player participates in, by
// role (spec §4.3 listGames).
type GameListFilter struct {
	PlayerID string // empty means unfiltered
	Role     string // "any", "1", "2" — only meaningful when PlayerID is set
}

// ListGames returns a page of games, newest first. When filter.PlayerID is
// set, it uses the PlayerGame secondary index; otherwise it scans the games
// table ordered by created_at, the games-table analogue of the
// constant-partition-key scenario index.
func (s *Store) ListGames(filter GameListFilter, limit int, token string) (Page[Game], error) {
	limit = ClampLimit(limit)
	cur, err := decodeCursor(token)
	if err != nil {
		return Page[Game]{}, err
	}

	var rows *sql.Rows
	if filter.PlayerID != "" {
		switch filter.Role {
		case "1":
			rows, err = s.db.Query(fmt.Sprintf(`
				SELECT g.game_id, g.status, g.player1_id, g.player1_name, g.player2_id, g.player2_name, g.winner_id,
					g.scenario_id, g.scenario_snapshot, g.game_state, g.turn_number, g.created_at, g.updated_at
				FROM %s g JOIN %s pg ON pg.game_id = g.game_id
				WHERE pg.player_id = $1 AND pg.player_index = 1
					AND (g.created_at, g.game_id) < ($2, $3)
				ORDER BY g.created_at DESC, g.game_id DESC
				LIMIT $4
			`, s.gamesTable, s.playerGamesTable), filter.PlayerID, cursorTime(cur), cursorID(cur), limit+1)
		case "2":
			rows, err = s.db.Query(fmt.Sprintf(`
				SELECT g.game_id, g.status, g.player1_id, g.player1_name, g.player2_id, g.player2_name, g.winner_id,
					g.scenario_id, g.scenario_snapshot, g.game_state, g.turn_number, g.created_at, g.updated_at
				FROM %s g JOIN %s pg ON pg.game_id = g.game_id
				WHERE pg.player_id = $1 AND pg.player_index = 2
					AND (g.created_at, g.game_id) < ($2, $3)
				ORDER BY g.created_at DESC, g.game_id DESC
				LIMIT $4
			`, s.gamesTable, s.playerGamesTable), filter.PlayerID, cursorTime(cur), cursorID(cur), limit+1)
		default:
			rows, err = s.db.Query(fmt.Sprintf(`
				SELECT g.game_id, g.status, g.player1_id, g.player1_name, g.player2_id, g.player2_name, g.winner_id,
					g.scenario_id, g.scenario_snapshot, g.game_state, g.turn_number, g.created_at, g.updated_at
				FROM %s g JOIN %s pg ON pg.game_id = g.game_id
				WHERE pg.player_id = $1
					AND (g.created_at, g.game_id) < ($2, $3)
				ORDER BY g.created_at DESC, g.game_id DESC
				LIMIT $4
			`, s.gamesTable, s.playerGamesTable), filter.PlayerID, cursorTime(cur), cursorID(cur), limit+1)
		}
	} else {
		rows, err = s.db.Query(fmt.Sprintf(`
			SELECT game_id, status, player1_id, player1_name, player2_id, player2_name, winner_id,
				scenario_id, scenario_snapshot, game_state, turn_number, created_at, updated_at
			FROM %s
			WHERE (created_at, game_id) < ($1, $2)
			ORDER BY created_at DESC, game_id DESC
			LIMIT $3
		`, s.gamesTable), cursorTime(cur), cursorID(cur), limit+1)
	}
	if err != nil {
		return Page[Game]{}, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		g, err := s.scanGameRow(rows)
		if err != nil {
			return Page[Game]{}, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return Page[Game]{}, err
	}

	page := Page[Game]{Items: games}
	if len(games) > limit {
		last := games[limit-1]
		page.Items = games[:limit]
		page.NextToken = encodeCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}

// cursorTime/cursorID give the first page (no token) a cursor greater than
// any real row by using a far-future created_at when the cursor is empty.
func cursorTime(c cursor) time.Time {
	if c.CreatedAt.IsZero() {
		return time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return c.CreatedAt
}

func cursorID(c cursor) string {
	if c.ID == "" {
		return "￿"
	}
	return c.ID
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanGame(row rowScanner) (Game, error) {
	return s.scanGameRow(row)
}

func (s *Store) scanGameRow(row rowScanner) (Game, error) {
	var g Game
	var player2ID, player2Name, winnerID sql.NullString
	var scenarioSnapshot, gameState []byte

	err := row.Scan(&g.ID, &g.Status, &g.Player1ID, &g.Player1.DisplayName, &player2ID, &player2Name, &winnerID,
		&g.ScenarioID, &scenarioSnapshot, &gameState, &g.TurnNumber, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return Game{}, newError(ErrNotFound, "game not found")
	}
	if err != nil {
		return Game{}, fmt.Errorf("scan game: %w", err)
	}

	g.Player1.UserID = g.Player1ID
	g.ScenarioSnapshot = scenarioSnapshot
	g.GameState = gameState

	if player2ID.Valid {
		g.Player2ID = &player2ID.String
		g.Player2 = &Player{UserID: player2ID.String, DisplayName: player2Name.String}
	}
	if winnerID.Valid {
		g.WinnerID = &winnerID.String
	}

	return g, nil
}
