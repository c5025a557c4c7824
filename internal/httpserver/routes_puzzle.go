// internal/httpserver/routes_puzzle.go
//
// Puzzle content API, consumed by puzzle.Client:
//   - GET  /api/cues?difficulty=   → today's three cue groups
//   - POST /api/triad/check        → do the cues form a triad
//   - POST /api/answer/check       → is the answer the triad's keyword
//   - POST /api/bonus              → bonus cues once the three triads are solved
//   - GET  /api/solutions/{setID}  → full solutions for the loss reveal
//   - POST /api/hint               → keyword length and first letter
//
// Keywords only leave through answer/check (on success) and solutions.

package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/triads/internal/game"
	"github.com/robalobadob/triads/internal/puzzle"
)

type cuesReq struct {
	Cues   []game.Cue `json:"cues"`
	Answer string     `json:"answer"`
}

type bonusReq struct {
	SolvedIDs []int `json:"solvedIds"`
}

func (s *Server) mountPuzzle(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/cues", s.handleCues)
		r.Post("/triad/check", s.handleTriadCheck)
		r.Post("/answer/check", s.handleAnswerCheck)
		r.Post("/bonus", s.handleBonus)
		r.Get("/solutions/{setID}", s.handleSolutions)
		r.Post("/hint", s.handleHint)
	})
}

func (s *Server) handleCues(w http.ResponseWriter, r *http.Request) {
	difficulty := r.URL.Query().Get("difficulty")
	if difficulty == "" {
		difficulty = s.cfg.Game.DefaultDifficulty
	}
	groups, err := s.puzzle.FetchCueGroups(r.Context(), difficulty)
	var np *game.NoPuzzleError
	switch {
	case errors.As(err, &np):
		writeJSON(w, http.StatusOK, map[string]any{"cues": nil, "message": np.Error()})
	case err != nil:
		s.puzzleError(w, "cues", err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
	}
}

func (s *Server) handleTriadCheck(w http.ResponseWriter, r *http.Request) {
	var req cuesReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	ok, err := s.puzzle.CheckTriad(r.Context(), req.Cues)
	if err != nil {
		s.puzzleError(w, "triad check", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

func (s *Server) handleAnswerCheck(w http.ResponseWriter, r *http.Request) {
	var req cuesReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	solved, err := s.puzzle.CheckAnswer(r.Context(), req.Cues, req.Answer)
	if err != nil {
		s.puzzleError(w, "answer check", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": solved != nil, "solved": solved})
}

func (s *Server) handleBonus(w http.ResponseWriter, r *http.Request) {
	var req bonusReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	cues, err := s.puzzle.FetchBonusCues(r.Context(), req.SolvedIDs)
	if err != nil {
		s.puzzleError(w, "bonus", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cues": cues})
}

func (s *Server) handleSolutions(w http.ResponseWriter, r *http.Request) {
	setID, err := strconv.Atoi(chi.URLParam(r, "setID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_set_id")
		return
	}
	sol, err := s.puzzle.FetchGroupSolutions(r.Context(), setID)
	if err != nil {
		s.puzzleError(w, "solutions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"solutions": sol})
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req cuesReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	hint, err := s.puzzle.FetchHint(r.Context(), req.Cues)
	if err != nil {
		s.puzzleError(w, "hint", err)
		return
	}
	writeJSON(w, http.StatusOK, hint)
}

// puzzleError maps content errors to statuses. A StatusError from an
// upstream content API is passed through as a bad gateway.
func (s *Server) puzzleError(w http.ResponseWriter, op string, err error) {
	var se *puzzle.StatusError
	switch {
	case errors.Is(err, puzzle.ErrUnknownSet):
		writeError(w, http.StatusNotFound, "unknown_set")
	case errors.Is(err, puzzle.ErrBadSolved):
		writeError(w, http.StatusBadRequest, "bad_solved_ids")
	case errors.Is(err, puzzle.ErrNotATriad):
		writeError(w, http.StatusBadRequest, "not_a_triad")
	case errors.As(err, &se):
		writeError(w, http.StatusBadGateway, "upstream_failed")
	default:
		log.Error().Err(err).Str("op", op).Msg("puzzle content")
		writeError(w, http.StatusInternalServerError, "content_failed")
	}
}
