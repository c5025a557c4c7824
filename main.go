package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/triads/assets"
	"github.com/robalobadob/triads/internal/auth"
	"github.com/robalobadob/triads/internal/config"
	"github.com/robalobadob/triads/internal/daily"
	"github.com/robalobadob/triads/internal/db"
	"github.com/robalobadob/triads/internal/game"
	"github.com/robalobadob/triads/internal/httpserver"
	"github.com/robalobadob/triads/internal/profile"
	"github.com/robalobadob/triads/internal/puzzle"
	"github.com/robalobadob/triads/internal/store"
	"github.com/robalobadob/triads/internal/words"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	conn, err := db.Open(cfg.Server.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Server.DBPath).Msg("open database")
	}
	defer conn.Close()
	if err := db.Migrate(conn, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	content := puzzleSource(cfg, conn)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tables := store.NewMemoryStore()
	go tables.RunSweeper(ctx, cfg.Game.SweepInterval, cfg.Game.TableIdle)

	srv := httpserver.New(httpserver.Deps{
		Config: cfg,
		Puzzle: content,
		Tables: tables,
		Tokens: auth.NewTokens(auth.Config{
			Secret:      cfg.Auth.JWTSecret,
			ExpiresDays: cfg.Auth.JWTExpiresDays,
			CookieName:  cfg.Auth.CookieName,
			Secure:      cfg.IsProduction(),
		}),
		Accounts: auth.NewAccounts(conn),
		Profiles: profile.NewSQLStore(conn),
		Daily:    daily.NewStore(conn),
	})

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("starting triads server")
		if err := srv.Start(cfg.Addr()); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	tables.Sweep(-time.Second)
	log.Info().Msg("server stopped")
}

// puzzleSource returns the remote content API when PUZZLE_API_URL is set,
// otherwise the local database, seeded from the puzzle file on request.
func puzzleSource(cfg *config.Config, conn *sql.DB) game.Puzzle {
	if cfg.Puzzle.APIURL != "" {
		log.Info().Str("url", cfg.Puzzle.APIURL).Msg("using remote puzzle content")
		return puzzle.NewClient(cfg.Puzzle.APIURL, nil)
	}
	st := puzzle.NewStore(conn, cfg.Puzzle.DailySalt)
	if cfg.Puzzle.SeedOnStart {
		if err := words.Init(); err != nil {
			log.Fatal().Err(err).Msg("failed to load puzzle sets")
		}
		n, err := st.Seed(context.Background(), words.Sets())
		if err != nil {
			log.Fatal().Err(err).Msg("seed puzzles")
		}
		log.Info().Int("added", n).Interface("sets", words.Stats()).Msg("puzzles seeded")
	}
	return st
}
