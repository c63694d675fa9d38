// Package registry is the Connection Registry (C4): it wraps the Connection
// table with register/touch/forget/listByGame/get, optionally accelerated
// by a Redis read-through cache. Postgres remains the only source of truth;
// the spec's Design Notes forbid caching this registry in process memory
// for correctness, so the cache lives in Redis with a short TTL and is
// invalidated by Register and Forget (including reaps on terminal send
// errors). ListByGame serves a cached listing whenever one is present, for
// every caller including WebSocket Admission's presence union; Touch and
// SweepExpired do not invalidate it.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/achgithub/turnlink-backend/internal/logging"
	"github.com/achgithub/turnlink-backend/internal/store"
)

// Registry is the Connection Registry.
type Registry struct {
	store  *store.Store
	redis  *redis.Client
	log    *logging.Logger
	cacheTTL time.Duration
}

// New builds a Registry. redisClient may be nil, in which case every read
// goes straight to the store.
func New(st *store.Store, redisClient *redis.Client, log *logging.Logger) *Registry {
	return &Registry{store: st, redis: redisClient, log: log, cacheTTL: 5 * time.Second}
}

// Register writes a new Connection row (spec §4.4 register) and
// invalidates any cached listing for the game.
func (r *Registry) Register(ctx context.Context, connectionID, gameID, userID string, playerIndex int, now time.Time) (store.Connection, error) {
	conn, err := r.store.RegisterConnection(connectionID, gameID, userID, playerIndex, now)
	if err != nil {
		return store.Connection{}, err
	}
	r.invalidate(ctx, gameID)
	return conn, nil
}

// Touch updates lastActivity (spec §4.4 touch).
func (r *Registry) Touch(ctx context.Context, connectionID string, now time.Time) error {
	return r.store.TouchConnection(connectionID, now)
}

// Forget deletes a Connection row and invalidates the game's cached
// listing. Idempotent per spec §8's Idempotent disconnect law.
func (r *Registry) Forget(ctx context.Context, connectionID, gameID string) error {
	if err := r.store.ForgetConnection(connectionID); err != nil {
		return err
	}
	r.invalidate(ctx, gameID)
	return nil
}

// Get fetches a single Connection row.
func (r *Registry) Get(ctx context.Context, connectionID string) (store.Connection, error) {
	return r.store.GetConnection(connectionID)
}

// ListByGame returns every connection for a game. Callers (admission,
// dispatcher, disconnect) must tolerate a just-written row being
// momentarily missing, or a just-deleted row still appearing.
func (r *Registry) ListByGame(ctx context.Context, gameID string) ([]store.Connection, error) {
	if r.redis != nil {
		if cached, ok := r.readCache(ctx, gameID); ok {
			return cached, nil
		}
	}

	conns, err := r.store.ListByGame(gameID)
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.writeCache(ctx, gameID, conns)
	}

	return conns, nil
}

func (r *Registry) cacheKey(gameID string) string {
	return fmt.Sprintf("connreg:%s", gameID)
}

func (r *Registry) readCache(ctx context.Context, gameID string) ([]store.Connection, bool) {
	data, err := r.redis.Get(ctx, r.cacheKey(gameID)).Result()
	if err != nil {
		return nil, false
	}
	var conns []store.Connection
	if err := json.Unmarshal([]byte(data), &conns); err != nil {
		return nil, false
	}
	return conns, true
}

func (r *Registry) writeCache(ctx context.Context, gameID string, conns []store.Connection) {
	data, err := json.Marshal(conns)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, r.cacheKey(gameID), data, r.cacheTTL).Err(); err != nil {
		r.log.Warn("failed to cache connection list for game=%s: %v", gameID, err)
	}
}

func (r *Registry) invalidate(ctx context.Context, gameID string) {
	if r.redis == nil {
		return
	}
	if err := r.redis.Del(ctx, r.cacheKey(gameID)).Err(); err != nil {
		r.log.Warn("failed to invalidate connection cache for game=%s: %v", gameID, err)
	}
}

// SweepExpired deletes connection rows past TTL (spec §4.1's bounded-lag
// store-side eviction). Intended to be called periodically from a
// background goroutine started in cmd/server.
func (r *Registry) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.store.SweepExpiredConnections(now)
}
