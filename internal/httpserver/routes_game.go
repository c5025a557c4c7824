// internal/httpserver/routes_game.go
//
// Play API. A table is one session plus its bubble board, held in the
// in-memory table registry until deleted or swept.
//   - POST   /game/new            → create a table and load today's puzzle
//   - GET    /game/{id}           → session snapshot + board
//   - POST   /game/{id}/click     → toggle a cue
//   - POST   /game/{id}/select    → select a cue
//   - POST   /game/{id}/deselect  → deselect a cue
//   - POST   /game/{id}/answer    → submit the answer for the selected triad
//   - POST   /game/{id}/hint      → spend a hint
//   - POST   /game/{id}/bonus     → retry a failed bonus round fetch
//   - POST   /game/{id}/restart   → abandon and load a fresh puzzle
//   - POST   /game/{id}/resize    → new container size (debounced)
//   - GET    /game/{id}/share     → share text
//   - DELETE /game/{id}           → close the table
//
// Every mutating route answers with the fresh view so clients without the
// websocket stream stay in sync.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/triads/internal/bubbles"
	"github.com/robalobadob/triads/internal/daily"
	"github.com/robalobadob/triads/internal/game"
	"github.com/robalobadob/triads/internal/play"
	"github.com/robalobadob/triads/internal/store"
	"github.com/robalobadob/triads/internal/words"
)

// default board when the client does not report its size
const (
	defaultWidth  = 800
	defaultHeight = 600
)

type newTableReq struct {
	Difficulty string  `json:"difficulty"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

type cueReq struct {
	CueID int `json:"cueId"`
}

type answerReq struct {
	Answer string `json:"answer"`
}

type hintReq struct {
	Flavor game.HintFlavor `json:"flavor"`
}

type resizeReq struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewTable)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", s.withTable(s.handleView))
		r.Delete("/", s.handleDeleteTable)
		r.Post("/click", s.withTable(s.handleClick))
		r.Post("/select", s.withTable(s.handleSelect))
		r.Post("/deselect", s.withTable(s.handleDeselect))
		r.Post("/answer", s.withTable(s.handleAnswer))
		r.Post("/hint", s.withTable(s.handleTableHint))
		r.Post("/bonus", s.withTable(s.handleTableBonus))
		r.Post("/restart", s.withTable(s.handleRestart))
		r.Post("/resize", s.withTable(s.handleResize))
		r.Get("/share", s.withTable(s.handleShare))
	})
}

// handleNewTable creates a table for the caller's device and starts it.
func (s *Server) handleNewTable(w http.ResponseWriter, r *http.Request) {
	var req newTableReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = s.cfg.Game.DefaultDifficulty
	}
	if !validDifficulty(req.Difficulty) {
		writeError(w, http.StatusBadRequest, "bad_difficulty")
		return
	}
	bounds := boundsOr(req.Width, req.Height, bubbles.Bounds{Width: defaultWidth, Height: defaultHeight})

	id := store.NewID()
	deviceID := s.tokens.DeviceID(w, r)
	t := play.New(play.Options{
		ID: id,
		Session: game.Options{
			ID:            id,
			DeviceID:      deviceID,
			Difficulty:    req.Difficulty,
			FeedbackDelay: s.cfg.Game.FeedbackDelay,
			Puzzle:        s.puzzle,
			Profiles:      s.profiles,
			OnFinish:      s.recordResult,
		},
		Bounds:         bounds,
		Seed:           time.Now().UnixNano(),
		FrameInterval:  s.cfg.Game.FrameInterval,
		ResizeDebounce: s.cfg.Game.ResizeDebounce,
	})
	if err := t.Start(r.Context()); err != nil {
		t.Close()
		writeGameError(w, err)
		return
	}
	if err := s.tables.Save(r.Context(), t); err != nil {
		t.Close()
		log.Error().Err(err).Msg("save table")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("table", id).Str("device", deviceID).Str("difficulty", req.Difficulty).Msg("table opened")
	writeJSON(w, http.StatusCreated, t.View())
}

// recordResult stores a finished game for the daily leaderboard.
// It runs on the session's goroutine, possibly after the request is gone.
func (s *Server) recordResult(res game.Result) {
	if s.daily == nil || res.DeviceID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.daily.InsertResult(ctx, daily.Result{
		DeviceID: res.DeviceID,
		Date:     daily.DateKey(res.FinishedAt),
		SetID:    res.SetID,
		Score:    res.Score,
		Won:      res.Won,
	})
	if err != nil {
		log.Warn().Err(err).Str("session", res.SessionID).Msg("record daily result")
	}
}

// withTable resolves {id} to an open table.
func (s *Server) withTable(h func(http.ResponseWriter, *http.Request, *play.Table)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := s.tables.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		h(w, r, t)
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request, t *play.Table) {
	writeJSON(w, http.StatusOK, t.View())
}

func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	if err := s.tables.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request, t *play.Table) {
	var req cueReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.respond(w, t, t.Click(r.Context(), req.CueID))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, t *play.Table) {
	var req cueReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.respond(w, t, t.Select(r.Context(), req.CueID))
}

func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request, t *play.Table) {
	var req cueReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.respond(w, t, t.Deselect(req.CueID))
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request, t *play.Table) {
	var req answerReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.respond(w, t, t.SubmitAnswer(r.Context(), req.Answer))
}

func (s *Server) handleTableHint(w http.ResponseWriter, r *http.Request, t *play.Table) {
	var req hintReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.respond(w, t, t.RequestHint(r.Context(), req.Flavor))
}

func (s *Server) handleTableBonus(w http.ResponseWriter, r *http.Request, t *play.Table) {
	s.respond(w, t, t.LoadBonus(r.Context()))
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request, t *play.Table) {
	s.respond(w, t, t.Restart(r.Context()))
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request, t *play.Table) {
	var req resizeReq
	if err := decode(r, &req); err != nil || req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "bad_size")
		return
	}
	t.Resize(bubbles.Bounds{Width: req.Width, Height: req.Height})
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request, t *play.Table) {
	writeJSON(w, http.StatusOK, map[string]string{"text": t.Share()})
}

// respond writes the table view, or the mapped error.
func (s *Server) respond(w http.ResponseWriter, t *play.Table, err error) {
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.View())
}

// writeGameError maps session errors to HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	status, code := gameError(err)
	body := map[string]string{"error": code}
	var (
		ex *game.ExhaustedError
		np *game.NoPuzzleError
	)
	switch {
	case errors.As(err, &np):
		body["message"] = np.Error()
	case errors.As(err, &ex):
		body["resource"] = ex.Resource
	case status == http.StatusInternalServerError:
		log.Error().Err(err).Msg("game action")
	}
	writeJSON(w, status, body)
}

// errorCode is the error code alone, for the websocket stream.
func errorCode(err error) string {
	_, code := gameError(err)
	return code
}

func gameError(err error) (int, string) {
	var (
		ex *game.ExhaustedError
		ne *game.NetworkError
		np *game.NoPuzzleError
	)
	switch {
	case errors.As(err, &np):
		return http.StatusNotFound, "no_puzzle"
	case errors.As(err, &ex):
		return http.StatusConflict, "exhausted"
	case errors.As(err, &ne):
		return http.StatusBadGateway, "upstream_failed"
	case errors.Is(err, game.ErrHintFlavorRequired):
		return http.StatusConflict, "hint_flavor_required"
	case errors.Is(err, game.ErrGameOver):
		return http.StatusConflict, "game_over"
	case errors.Is(err, game.ErrNotAccepting), errors.Is(err, game.ErrNotStarted):
		return http.StatusConflict, "not_accepting"
	case errors.Is(err, game.ErrUnknownCue):
		return http.StatusBadRequest, "unknown_cue"
	case errors.Is(err, game.ErrEmptyAnswer):
		return http.StatusBadRequest, "empty_answer"
	case errors.Is(err, game.ErrInvalidFlavor):
		return http.StatusBadRequest, "invalid_flavor"
	}
	return http.StatusInternalServerError, "internal"
}

func validDifficulty(d string) bool {
	for _, known := range words.Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

func boundsOr(width, height float64, def bubbles.Bounds) bubbles.Bounds {
	if width <= 0 || height <= 0 {
		return def
	}
	return bubbles.Bounds{Width: width, Height: height}
}
