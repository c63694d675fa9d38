package store

import "fmt"

// PlayersOfGame returns the PlayerGame rows for a game via the game-keyed
// secondary index (spec §3 PlayerGame, §4.4-adjacent query shape).
func (s *Store) PlayersOfGame(gameID string) ([]PlayerGame, error) {
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT player_id, game_id, player_index FROM %s WHERE game_id = $1 ORDER BY player_index
	`, s.playerGamesTable), gameID)
	if err != nil {
		return nil, fmt.Errorf("players of game: %w", err)
	}
	defer rows.Close()

	var out []PlayerGame
	for rows.Next() {
		var pg PlayerGame
		if err := rows.Scan(&pg.PlayerID, &pg.GameID, &pg.PlayerIndex); err != nil {
			return nil, fmt.Errorf("scan player_game: %w", err)
		}
		out = append(out, pg)
	}
	return out, rows.Err()
}
