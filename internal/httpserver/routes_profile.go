// internal/httpserver/routes_profile.go
//
// Profile of whoever plays on this request: the account, the device token,
// or the anonymous cookie.
//   - GET    /profile/me → scores per tier and first-game bookkeeping
//   - DELETE /profile/me → forget it

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/triads/internal/game"
)

type profileRes struct {
	DeviceID    string     `json:"deviceId"`
	GamesPlayed int        `json:"gamesPlayed"`
	Profile     *game.User `json:"profile"`
}

func (s *Server) mountProfile(r chi.Router) {
	r.Get("/profile/me", s.handleProfile)
	r.Delete("/profile/me", s.handleClearProfile)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	id := s.tokens.DeviceID(w, r)
	u, err := s.profiles.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("load profile")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if u == nil {
		u = game.NewUser("")
	}
	writeJSON(w, http.StatusOK, profileRes{DeviceID: id, GamesPlayed: u.GamesPlayed(), Profile: u})
}

func (s *Server) handleClearProfile(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err := s.profiles.Clear(r.Context(), s.tokens.DeviceID(w, r)); err != nil {
		log.Error().Err(err).Msg("clear profile")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
