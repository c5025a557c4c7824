// internal/httpserver/routes_auth.go
//
// Identity endpoints:
//   - POST /auth/device  → anonymous device token (guests who want one)
//   - POST /auth/signup  → create account, set cookie, claim device profile
//   - POST /auth/login   → authenticate, set cookie, claim device profile
//   - POST /auth/logout  → clear cookie
//   - GET  /auth/me      → current account (requires auth)

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/triads/internal/auth"
)

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) mountAuth(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/device", s.handleDevice)
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.With(s.tokens.Require(s.accounts.Exists)).Get("/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, auth.FromContext(r.Context()))
		})
	})
}

// handleDevice issues a device token and cookie. A caller already holding a
// valid identity gets it echoed back.
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	if id := auth.FromContext(r.Context()); id != nil {
		writeJSON(w, http.StatusOK, map[string]any{"id": id.ID, "device": id.Device})
		return
	}
	id, tok, exp, err := s.tokens.NewDevice()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.tokens.SetCookie(w, tok, exp)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id.ID, "device": true, "token": tok, "expiresAt": exp})
}

// handleSignup creates an account, signs a JWT, sets the auth cookie, and
// moves the caller's device profile onto the account.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	acc, err := s.accounts.Create(r.Context(), body.Username, body.Password)
	var ve *auth.ValidationError
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username taken")
		return
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
		return
	case err != nil:
		log.Error().Err(err).Msg("create account")
		writeError(w, http.StatusInternalServerError, "signup_failed")
		return
	}
	if !s.issue(w, acc.ID, acc.Username) {
		return
	}
	s.claimProfile(w, r, acc.ID, acc.Username)
	writeJSON(w, http.StatusCreated, map[string]any{"id": acc.ID, "username": acc.Username, "createdAt": acc.CreatedAt})
}

// handleLogin authenticates, sets the cookie, and claims the device profile.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	acc, err := s.accounts.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !s.issue(w, acc.ID, acc.Username) {
		return
	}
	s.claimProfile(w, r, acc.ID, acc.Username)
	writeJSON(w, http.StatusOK, map[string]any{"id": acc.ID, "username": acc.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.tokens.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) issue(w http.ResponseWriter, id, username string) bool {
	tok, exp, err := s.tokens.Sign(id, username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.tokens.SetCookie(w, tok, exp)
	return true
}

// claimProfile copies the guest profile of the request's device onto the
// account when the account has none yet.
func (s *Server) claimProfile(w http.ResponseWriter, r *http.Request, accountID, username string) {
	if s.profiles == nil {
		return
	}
	if id := auth.FromContext(r.Context()); id != nil && !id.Device {
		return
	}
	from := s.tokens.DeviceID(w, r)
	if from == accountID {
		return
	}
	ctx := context.WithoutCancel(r.Context())
	existing, err := s.profiles.Get(ctx, accountID)
	if err != nil || existing != nil {
		return
	}
	guest, err := s.profiles.Get(ctx, from)
	if err != nil || guest == nil {
		return
	}
	guest.Username = username
	if err := s.profiles.Set(ctx, accountID, guest); err != nil {
		log.Warn().Err(err).Str("account", accountID).Msg("claim device profile")
		return
	}
	if err := s.profiles.Clear(ctx, from); err != nil {
		log.Warn().Err(err).Str("device", from).Msg("clear claimed profile")
	}
}
