package store

import (
	"database/sql"
	"fmt"
	"time"
)

// PlayerStats is the supplemented per-player aggregate (SPEC_FULL §4):
// not part of the spec.md core, not excluded by its Non-goals.
type PlayerStats struct {
	PlayerID     string     `json:"playerId"`
	GamesPlayed  int        `json:"gamesPlayed"`
	GamesWon     int        `json:"gamesWon"`
	GamesLost    int        `json:"gamesLost"`
	LastPlayedAt *time.Time `json:"lastPlayedAt,omitempty"`
}

// RecordResult updates one player's aggregate stats after a game reaches
// status=finished with a recorded winner — a transition this core never
// drives itself (spec.md's Game.status note: "a future transition not
// driven by the core; the core preserves it if an external process writes
// it"), but tallies once the status is observed.
func (s *Store) RecordResult(playerID string, won bool, now time.Time) error {
	lost := 0
	wonInt := 0
	if won {
		wonInt = 1
	} else {
		lost = 1
	}

	_, err := s.db.Exec(`
		INSERT INTO player_stats (player_id, games_played, games_won, games_lost, last_played_at)
		VALUES ($1, 1, $2, $3, $4)
		ON CONFLICT (player_id) DO UPDATE SET
			games_played = player_stats.games_played + 1,
			games_won = player_stats.games_won + $2,
			games_lost = player_stats.games_lost + $3,
			last_played_at = $4
	`, playerID, wonInt, lost, now)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// GetPlayerStats fetches one player's aggregate stats, returning a zeroed
// record if the player has no games on file yet.
func (s *Store) GetPlayerStats(playerID string) (PlayerStats, error) {
	var ps PlayerStats
	var lastPlayed sql.NullTime
	err := s.db.QueryRow(`
		SELECT player_id, games_played, games_won, games_lost, last_played_at
		FROM player_stats WHERE player_id = $1
	`, playerID).Scan(&ps.PlayerID, &ps.GamesPlayed, &ps.GamesWon, &ps.GamesLost, &lastPlayed)
	if err == sql.ErrNoRows {
		return PlayerStats{PlayerID: playerID}, nil
	}
	if err != nil {
		return PlayerStats{}, fmt.Errorf("get player stats: %w", err)
	}
	if lastPlayed.Valid {
		ps.LastPlayedAt = &lastPlayed.Time
	}
	return ps, nil
}
