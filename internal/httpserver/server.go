// internal/httpserver/server.go
//
// HTTP server wiring for the Triads backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Puzzle content API under /api (routes_puzzle.go).
//   - Play API under /game, guests allowed (routes_game.go, ws.go).
//   - Identity and profile endpoints (routes_auth.go, routes_profile.go).
//   - Daily leaderboard under /daily (routes_daily.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The websocket route sits outside the request timeout.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/triads/internal/auth"
	"github.com/robalobadob/triads/internal/config"
	"github.com/robalobadob/triads/internal/daily"
	"github.com/robalobadob/triads/internal/game"
	"github.com/robalobadob/triads/internal/store"
	"github.com/robalobadob/triads/internal/words"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Config   *config.Config
	Puzzle   game.Puzzle
	Tables   *store.Memory
	Tokens   *auth.Tokens
	Accounts *auth.Accounts
	Profiles game.Profiles
	Daily    *daily.Store
}

// Server bundles router and dependencies.
type Server struct {
	r        *chi.Mux
	http     *http.Server
	cfg      *config.Config
	puzzle   game.Puzzle
	tables   *store.Memory
	tokens   *auth.Tokens
	accounts *auth.Accounts
	profiles game.Profiles
	daily    *daily.Store
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.Config == nil {
		d.Config = config.Load()
	}
	if d.Tokens == nil {
		d.Tokens = auth.NewTokens(auth.Config{Secret: d.Config.Auth.JWTSecret})
	}
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      d.Config,
		puzzle:   d.Puzzle,
		tables:   d.Tables,
		tokens:   d.Tokens,
		accounts: d.Accounts,
		profiles: d.Profiles,
		daily:    d.Daily,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                    // add X-Request-ID
	s.r.Use(chimw.RealIP)                       // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                    // recover from panics
	s.r.Use(corsFor(s.cfg.Server.ClientOrigin)) // credentials-friendly CORS
	s.r.Use(s.tokens.Optional)                  // identity when a token is present

	// Long-lived stream; no timeout, no JSON content type.
	s.r.Get("/game/{id}/ws", s.handleStream)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"triads-go","endpoints":["/health","/api/*","/game/*","/auth/*","/profile/me","/daily/leaderboard"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/puzzles", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(words.Stats())
		})

		s.mountPuzzle(r)
		s.mountGame(r)
		s.mountAuth(r)
		s.mountProfile(r)
		s.mountDaily(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
		})
	})

	return s
}

// Start serves HTTP on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 10 * time.Second}
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
