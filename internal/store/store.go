// Package store is the Data Store (C1): persistent tables for games,
// scenarios, the player↔game index, and the live connection registry, over
// PostgreSQL via lib/pq. It exposes the contract spec §4.1 names — point get,
// conditional put, delete, and paginated secondary-index query — rather than
// raw SQL, so every other component depends on this package instead of
// database/sql directly.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/achgithub/turnlink-backend/internal/config"
)

// Store wraps the PostgreSQL connections backing every table this service
// owns. A single *sql.DB is shared by all tables; PostgreSQL's own
// connection pool serves the "any number of stateless workers" model in
// spec §5.
type Store struct {
	db *sql.DB

	gamesTable       string
	playerGamesTable string
	scenariosTable   string
	connectionsTable string
}

// Open connects to PostgreSQL and ensures the schema exists.
func Open(cfg config.Config) (*Store, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:               db,
		gamesTable:       cfg.GamesTable,
		playerGamesTable: cfg.PlayerGamesTable,
		scenariosTable:   cfg.ScenariosTable,
		connectionsTable: cfg.ConnectionsTable,
	}

	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[3]s (
		scenario_id  VARCHAR(64) PRIMARY KEY,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		columns      INT NOT NULL,
		rows         INT NOT NULL,
		turn_count   INT NOT NULL,
		hexes        JSONB NOT NULL,
		creator_id   VARCHAR(128) NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_%[3]s_created_at ON %[3]s (created_at DESC, scenario_id DESC);

	CREATE TABLE IF NOT EXISTS %[1]s (
		game_id            VARCHAR(64) PRIMARY KEY,
		status             VARCHAR(16) NOT NULL,
		player1_id         VARCHAR(128) NOT NULL,
		player1_name       TEXT NOT NULL,
		player2_id         VARCHAR(128),
		player2_name       TEXT,
		winner_id          VARCHAR(128),
		scenario_id        VARCHAR(64) NOT NULL,
		scenario_snapshot  JSONB NOT NULL,
		game_state         JSONB NOT NULL,
		turn_number        INT NOT NULL DEFAULT 1,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_player1 ON %[1]s (player1_id, created_at DESC, game_id DESC);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_player2 ON %[1]s (player2_id, created_at DESC, game_id DESC);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_created_at ON %[1]s (created_at DESC, game_id DESC);

	CREATE TABLE IF NOT EXISTS %[2]s (
		player_id    VARCHAR(128) NOT NULL,
		game_id      VARCHAR(64) NOT NULL REFERENCES %[1]s (game_id) ON DELETE CASCADE,
		player_index SMALLINT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (player_id, game_id)
	);
	CREATE INDEX IF NOT EXISTS idx_%[2]s_game ON %[2]s (game_id, player_index);

	CREATE TABLE IF NOT EXISTS %[4]s (
		connection_id  VARCHAR(128) PRIMARY KEY,
		game_id        VARCHAR(64) NOT NULL,
		user_id        VARCHAR(128) NOT NULL,
		player_index   SMALLINT NOT NULL,
		connected_at   TIMESTAMPTZ NOT NULL,
		last_activity  TIMESTAMPTZ NOT NULL,
		expires_at     TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_%[4]s_game ON %[4]s (game_id);
	CREATE INDEX IF NOT EXISTS idx_%[4]s_expires ON %[4]s (expires_at);

	CREATE TABLE IF NOT EXISTS player_stats (
		player_id      VARCHAR(128) PRIMARY KEY,
		games_played   INT NOT NULL DEFAULT 0,
		games_won      INT NOT NULL DEFAULT 0,
		games_lost     INT NOT NULL DEFAULT 0,
		last_played_at TIMESTAMPTZ
	);
	`, s.gamesTable, s.playerGamesTable, s.scenariosTable, s.connectionsTable)

	_, err := s.db.Exec(schema)
	return err
}
