// Package config reads this service's configuration from the environment.
// Every key named in the external configuration surface is read once at
// startup in cmd/server/main.go; nothing here caches or watches for changes.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnv retrieves an environment variable with a fallback default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// RequireEnv retrieves an environment variable and panics if it is not set.
// Use for configuration values this process cannot run without.
func RequireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}

// GetEnvDuration reads an environment variable as a duration, falling back
// to defaultValue if unset or unparseable.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// GetEnvList reads a comma-separated environment variable into a slice of
// trimmed, non-empty entries.
func GetEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetEnvBool reads a boolean environment variable, falling back to
// defaultValue if unset or unparseable.
func GetEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// Config is the full set of environment-style keys this process reads at
// start-up (spec §6). The same artifact runs against any deployment by
// varying only these values.
type Config struct {
	GamesTable       string
	PlayerGamesTable string
	ScenariosTable   string
	ConnectionsTable string

	BroadcastEndpoint string

	IdentityUserPoolID string
	IdentityClientID   string
	IdentityIssuer     string
	IdentityJWKSURL    string

	AllowedDomains []string
	AllowedEmails  []string

	FrontendOrigins []string

	BindPort string

	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	// AuthFallback, when set to "insecure-userid", admits a WebSocket
	// connect without a verified token as long as the supplied userId
	// matches a player of the game (spec §4.5 step 2, §9 Open Question).
	// Default is empty, meaning tokens are required.
	AuthFallback string
}

// Load reads Config from the environment, applying the same defaults the
// teacher backends use for local development.
func Load() Config {
	return Config{
		GamesTable:       GetEnv("GAMES_TABLE", "games"),
		PlayerGamesTable: GetEnv("PLAYER_GAMES_TABLE", "player_games"),
		ScenariosTable:   GetEnv("SCENARIOS_TABLE", "scenarios"),
		ConnectionsTable: GetEnv("CONNECTIONS_TABLE", "connections"),

		BroadcastEndpoint: GetEnv("BROADCAST_ENDPOINT", ""),

		IdentityUserPoolID: GetEnv("IDENTITY_USER_POOL_ID", ""),
		IdentityClientID:   GetEnv("IDENTITY_CLIENT_ID", ""),
		IdentityIssuer:     GetEnv("IDENTITY_ISSUER", ""),
		IdentityJWKSURL:    GetEnv("IDENTITY_JWKS_URL", ""),

		AllowedDomains: GetEnvList("ALLOWED_DOMAINS"),
		AllowedEmails:  GetEnvList("ALLOWED_EMAILS"),

		FrontendOrigins: GetEnvList("FRONTEND_ORIGINS"),

		BindPort: GetEnv("BIND_PORT", "4001"),

		DBHost: GetEnv("DB_HOST", "127.0.0.1"),
		DBPort: GetEnv("DB_PORT", "5555"),
		DBUser: GetEnv("DB_USER", "turnlink"),
		DBPass: GetEnv("DB_PASS", "turnlink"),
		DBName: GetEnv("DB_NAME", "turnlink_db"),

		RedisHost:     GetEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     GetEnv("REDIS_PORT", "6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),

		AuthFallback: GetEnv("AUTH_FALLBACK", ""),
	}
}
