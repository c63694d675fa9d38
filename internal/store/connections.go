package store

import (
	"database/sql"
	"fmt"
	"time"
)

const connectionTTL = 24 * time.Hour

// RegisterConnection inserts a Connection row (spec §4.4 register). The
// connectionId primary key makes this insert-only op a conditional put that
// can never collide across concurrent admissions (spec §5(a)).
func (s *Store) RegisterConnection(connectionID, gameID, userID string, playerIndex int, now time.Time) (Connection, error) {
	conn := Connection{
		ConnectionID: connectionID,
		GameID:       gameID,
		UserID:       userID,
		PlayerIndex:  playerIndex,
		ConnectedAt:  now,
		LastActivity: now,
		ExpiresAt:    now.Add(connectionTTL),
	}

	_, err := s.db.Exec(fmt.Sprintf(`
		INSERT INTO %s (connection_id, game_id, user_id, player_index, connected_at, last_activity, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.connectionsTable),
		conn.ConnectionID, conn.GameID, conn.UserID, conn.PlayerIndex, conn.ConnectedAt, conn.LastActivity, conn.ExpiresAt)
	if err != nil {
		return Connection{}, fmt.Errorf("register connection: %w", err)
	}
	return conn, nil
}

// TouchConnection updates lastActivity (spec §4.4 touch).
func (s *Store) TouchConnection(connectionID string, now time.Time) error {
	_, err := s.db.Exec(fmt.Sprintf(`
		UPDATE %s SET last_activity = $1 WHERE connection_id = $2
	`, s.connectionsTable), now, connectionID)
	if err != nil {
		return fmt.Errorf("touch connection: %w", err)
	}
	return nil
}

// ForgetConnection deletes a Connection row. Idempotent: deleting an
// already-absent row is not an error (spec §8 Idempotent disconnect law).
func (s *Store) ForgetConnection(connectionID string) error {
	_, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE connection_id = $1`, s.connectionsTable), connectionID)
	if err != nil {
		return fmt.Errorf("forget connection: %w", err)
	}
	return nil
}

// GetConnection fetches a Connection row, or a NotFound store error if it
// does not exist (including once the expiry sweep has deleted it). A row
// past expires_at that the sweep has not yet reached is still returned.
func (s *Store) GetConnection(connectionID string) (Connection, error) {
	var c Connection
	err := s.db.QueryRow(fmt.Sprintf(`
		SELECT connection_id, game_id, user_id, player_index, connected_at, last_activity, expires_at
		FROM %s WHERE connection_id = $1
	`, s.connectionsTable), connectionID).
		Scan(&c.ConnectionID, &c.GameID, &c.UserID, &c.PlayerIndex, &c.ConnectedAt, &c.LastActivity, &c.ExpiresAt)
	if err == sql.ErrNoRows {
		return Connection{}, newError(ErrNotFound, "connection not found")
	}
	if err != nil {
		return Connection{}, fmt.Errorf("get connection: %w", err)
	}
	return c, nil
}

// ListByGame consults the game-keyed secondary index. Callers must tolerate
// a just-written row being momentarily missing, or a just-deleted row still
// appearing (spec §4.4).
func (s *Store) ListByGame(gameID string) ([]Connection, error) {
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT connection_id, game_id, user_id, player_index, connected_at, last_activity, expires_at
		FROM %s WHERE game_id = $1
	`, s.connectionsTable), gameID)
	if err != nil {
		return nil, fmt.Errorf("list by game: %w", err)
	}
	defer rows.Close()

	var out []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.ConnectionID, &c.GameID, &c.UserID, &c.PlayerIndex, &c.ConnectedAt, &c.LastActivity, &c.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SweepExpiredConnections deletes connection rows past their TTL. This is
// the bounded-lag store-side eviction spec §4.1 describes; it is never
// relied upon for the correctness of live routing, only as a backstop —
// explicit deletes on terminal send errors (C6/C7) remain the primary
// reaping mechanism.
func (s *Store) SweepExpiredConnections(now time.Time) (int64, error) {
	res, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE expires_at < $1`, s.connectionsTable), now)
	if err != nil {
		return 0, fmt.Errorf("sweep expired connections: %w", err)
	}
	return res.RowsAffected()
}
