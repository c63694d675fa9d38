package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/achgithub/turnlink-backend/internal/allowlist"
	"github.com/achgithub/turnlink-backend/internal/auth"
	"github.com/achgithub/turnlink-backend/internal/config"
	"github.com/achgithub/turnlink-backend/internal/gamesvc"
	"github.com/achgithub/turnlink-backend/internal/httpresp"
	"github.com/achgithub/turnlink-backend/internal/jwks"
	"github.com/achgithub/turnlink-backend/internal/logging"
	"github.com/achgithub/turnlink-backend/internal/registry"
	"github.com/achgithub/turnlink-backend/internal/store"
	"github.com/achgithub/turnlink-backend/internal/transport"
	"github.com/achgithub/turnlink-backend/internal/ws"
)

const appName = "Turnlink"

func main() {
	logger := logging.New("server")
	logger.Info("%s backend starting", appName)

	cfg := config.Load()

	db, err := store.Open(cfg)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL:", err)
	}
	defer db.Close()
	logger.Success("connected to PostgreSQL at %s:%s", cfg.DBHost, cfg.DBPort)

	redisClient := connectRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	reg := registry.New(db, redisClient, logging.New("registry"))
	svc := gamesvc.New(db)
	localTransport := transport.NewLocal()

	verifier := buildVerifier(cfg)
	allow := allowlist.New(cfg.AllowedDomains, cfg.AllowedEmails)

	hub := ws.NewHub(db, reg, localTransport, verifier, cfg, logging.New("ws"))

	r := mux.NewRouter()
	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/signup/check", handleAllowlistCheck(allow)).Methods(http.MethodGet)
	r.HandleFunc("/ws", hub.HandleWebSocket)

	api := r.PathPrefix("/").Subrouter()
	if verifier != nil {
		api.Use(auth.Middleware(verifier))
	}
	gamesvc.NewHandlers(svc).Register(api)

	r.Use(httpresp.LoggingMiddleware)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins(corsOrigins(cfg.FrontendOrigins)),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)

	go runExpirySweep(reg, logging.New("sweep"))

	logger.Info("%s backend listening on :%s", appName, cfg.BindPort)
	log.Fatal(http.ListenAndServe(":"+cfg.BindPort, corsHandler(r)))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	httpresp.SuccessJSON(w, map[string]string{"status": "ok", "service": "turnlink"}, http.StatusOK)
}

// handleAllowlistCheck lets the frontend ask, before ever starting an
// identity-provider signup flow, whether an email is invited (the Allowlist
// Hook, spec §4.9). It is intentionally unauthenticated — there is no
// session yet at this point in the flow.
func handleAllowlistCheck(allow *allowlist.Hook) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			httpresp.ErrorJSON(w, "email query parameter is required", http.StatusBadRequest)
			return
		}
		if !allow.Allow(email) {
			httpresp.ErrorJSON(w, allowlist.ErrSignupRestricted, http.StatusForbidden)
			return
		}
		httpresp.SuccessJSON(w, map[string]bool{"allowed": true}, http.StatusOK)
	}
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// connectRedis wires an optional presence cache (spec's Design Notes: Redis
// accelerates reads but is never the registry's source of truth). A missing
// or unreachable Redis degrades to uncached registry reads rather than
// failing startup.
func connectRedis(cfg config.Config, logger *logging.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Warn("Redis unavailable, presence reads will bypass the cache: %v", err)
		client.Close()
		return nil
	}

	logger.Success("connected to Redis at %s:%s", cfg.RedisHost, cfg.RedisPort)
	return client
}

// buildVerifier wires the Identity Gate against the configured identity
// provider's JWKS endpoint. When IdentityIssuer is unset and AuthFallback is
// enabled, no verifier is built and no auth middleware is installed: REST
// handlers that need a verified identity answer 401, the rest run without
// one — an explicit local-development opt-in, never the production default.
func buildVerifier(cfg config.Config) *auth.Verifier {
	if cfg.IdentityIssuer == "" {
		if cfg.AuthFallback == "insecure-userid" {
			return nil
		}
		log.Fatal("IDENTITY_ISSUER must be set unless AUTH_FALLBACK=insecure-userid")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resolver, err := jwks.NewResolver(ctx, cfg.IdentityJWKSURL)
	if err != nil {
		log.Fatal("failed to resolve identity provider JWKS: ", err)
	}

	return auth.NewVerifier(cfg.IdentityIssuer, cfg.IdentityClientID, resolver.Keyfunc)
}

func runExpirySweep(reg *registry.Registry, logger *logging.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		n, err := reg.SweepExpired(context.Background(), time.Now())
		if err != nil {
			logger.Warn("connection sweep failed: %v", err)
			continue
		}
		if n > 0 {
			logger.Info("swept %d expired connections", n)
		}
	}
}
