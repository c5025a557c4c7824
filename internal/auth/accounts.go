package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError reports a rejected signup field.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Account matches the accounts table shape.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Accounts persists registered players.
type Accounts struct{ db *sql.DB }

func NewAccounts(db *sql.DB) *Accounts { return &Accounts{db: db} }

// Create validates input, checks uniqueness, hashes password, and inserts a new account.
func (a *Accounts) Create(ctx context.Context, username, pw string) (*Account, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	if _, err := a.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	acc := &Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		acc.ID, acc.Username, acc.PasswordHash, acc.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return acc, nil
}

// Authenticate returns the account when the password matches.
func (a *Accounts) Authenticate(ctx context.Context, username, pw string) (*Account, error) {
	acc, err := a.FindByUsername(ctx, normalizeUsername(username))
	if err != nil || bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(pw)) != nil {
		return nil, ErrInvalidCredentials
	}
	return acc, nil
}

// FindByUsername loads an account, case-insensitively. Missing rows return sql.ErrNoRows.
func (a *Accounts) FindByUsername(ctx context.Context, username string) (*Account, error) {
	return scanAccount(a.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM accounts WHERE username = ?`, username))
}

// FindByID loads an account by id.
func (a *Accounts) FindByID(ctx context.Context, id string) (*Account, error) {
	return scanAccount(a.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM accounts WHERE id = ?`, id))
}

// Exists reports whether id is a registered account.
func (a *Accounts) Exists(ctx context.Context, id string) bool {
	_, err := a.FindByID(ctx, id)
	return err == nil
}

func scanAccount(row *sql.Row) (*Account, error) {
	var acc Account
	var created string
	if err := row.Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &created); err != nil {
		return nil, err
	}
	acc.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &acc, nil
}

// normalizeUsername trims whitespace.
func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return &ValidationError{"username must be 3-24 chars"}
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return &ValidationError{"username: letters, numbers, underscore only"}
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return &ValidationError{"password must be 8-100 chars"}
	}
	return nil
}
