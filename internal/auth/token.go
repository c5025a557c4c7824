// internal/auth/token.go
//
// JWT and cookie handling.
// Responsibilities:
//   - Sign HS256 tokens for accounts and anonymous devices.
//   - Parse tokens from the Authorization header or the auth cookie.
//   - Optional / required auth middleware placing an Identity in the request context.
//   - Stable anonymous device id cookie for guests.

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const anonCookieName = "triads_anon"

var ErrInvalidToken = errors.New("invalid token")

// Config holds token and cookie settings.
type Config struct {
	Secret      string
	ExpiresDays int
	CookieName  string
	Secure      bool // production: Secure + SameSite=None cookies
}

// Identity is who a request acts for. Device identities have no username.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Device   bool   `json:"device"`
}

// Tokens signs and verifies tokens for one Config.
type Tokens struct {
	cfg Config
	now func() time.Time
}

func NewTokens(cfg Config) *Tokens {
	if cfg.Secret == "" {
		cfg.Secret = "dev_secret_change_me"
	}
	if cfg.ExpiresDays <= 0 {
		cfg.ExpiresDays = 14
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "triads_token"
	}
	return &Tokens{cfg: cfg, now: time.Now}
}

// Sign creates an HS256 JWT for id. An empty username marks a device token.
func (t *Tokens) Sign(id, username string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(time.Duration(t.cfg.ExpiresDays) * 24 * time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"device":   username == "",
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := tok.SignedString([]byte(t.cfg.Secret))
	return ss, exp, err
}

// NewDevice issues a token for a fresh anonymous device id.
func (t *Tokens) NewDevice() (Identity, string, time.Time, error) {
	id := Identity{ID: uuid.NewString(), Device: true}
	tok, exp, err := t.Sign(id.ID, "")
	return id, tok, exp, err
}

// Parse verifies a token and returns its identity.
func (t *Tokens) Parse(tokenStr string) (*Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(t.cfg.Secret), nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: id, Username: username, Device: username == ""}, nil
}

// SetCookie writes the auth token cookie with appropriate security attributes.
func (t *Tokens) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, t.cookie(token, exp, 0))
}

// ClearCookie deletes the auth token cookie.
func (t *Tokens) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, t.cookie("", time.Time{}, -1))
}

func (t *Tokens) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if t.cfg.Secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return &http.Cookie{
		Name:     t.cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.cfg.Secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}

// BearerOrCookie extracts a bearer token from the Authorization header or
// the auth cookie. Websocket clients may pass it as ?token=.
func (t *Tokens) BearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(t.cfg.CookieName); err == nil {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

// ctxIdentityKey is the context key type for storing an Identity.
type ctxIdentityKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, id)
}

// FromContext returns the request identity, or nil for guests.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxIdentityKey{}).(*Identity)
	return id
}

// Optional decorates requests with the identity of a valid token.
// It never 401s; used for routes where guests are allowed.
func (t *Tokens) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := t.BearerOrCookie(r); tok != "" {
			if id, err := t.Parse(tok); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Require enforces a valid account token. exists, when set, confirms the
// account still exists.
func (t *Tokens) Require(exists func(ctx context.Context, id string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := t.BearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			id, err := t.Parse(tokenStr)
			if err != nil || id.Device {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			if exists != nil && !exists(r.Context(), id.ID) {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// DeviceID returns the id the request plays under: the token identity when
// present, otherwise an anonymous cookie id (set on first use).
func (t *Tokens) DeviceID(w http.ResponseWriter, r *http.Request) string {
	if id := FromContext(r.Context()); id != nil {
		return id.ID
	}
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	c := t.cookie(id, t.now().Add(180*24*time.Hour), 0)
	c.Name = anonCookieName
	http.SetCookie(w, c)
	return id
}
