// internal/httpserver/routes_daily.go
//
// Daily results. Every game serves the set of the day, and the first
// finished game per device and date is recorded (see recordResult).
//   - GET /daily/today       → today's date key and whether the caller played
//   - GET /daily/leaderboard → top results for today (or ?date=YYYY-MM-DD)

package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/triads/internal/daily"
)

const leaderboardMax = 100

type todayRes struct {
	Date   string `json:"date"`
	Played bool   `json:"played"`
}

type leaderboardRes struct {
	Date string        `json:"date"`
	Rows []daily.LBRow `json:"rows"`
}

func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Get("/today", s.handleToday)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	date := daily.DateKey(time.Now())
	played, err := s.daily.AlreadyPlayed(r.Context(), s.tokens.DeviceID(w, r), date)
	if err != nil {
		log.Error().Err(err).Msg("daily played lookup")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, todayRes{Date: date, Played: played})
}

// handleLeaderboard returns the best scores for a date; ties go to whoever
// finished first.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_limit")
			return
		}
		limit = min(n, leaderboardMax)
	}
	rows, err := s.daily.Leaderboard(r.Context(), date, limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if rows == nil {
		rows = []daily.LBRow{}
	}
	writeJSON(w, http.StatusOK, leaderboardRes{Date: date, Rows: rows})
}
