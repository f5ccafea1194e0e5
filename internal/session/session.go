// Package session resolves the caller's session from an HTTP request. Tokens
// are carried as a bearer token or a session cookie and looked up against the
// sessions table.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CookieName is the session cookie checked when no bearer token is present.
const CookieName = "scribe_session"

var (
	// ErrNoSession indicates the request carried no session token.
	ErrNoSession = errors.New("no session")

	// ErrInvalidSession indicates the token is unknown or expired.
	ErrInvalidSession = errors.New("invalid session")
)

// Session identifies an authenticated caller.
type Session struct {
	Token  string
	UserID uuid.UUID
}

// HasUser reports whether the session is bound to a user. Sessions without a
// user can converse but nothing they produce is persisted.
func (s *Session) HasUser() bool {
	return s != nil && s.UserID != uuid.Nil
}

// Manager looks sessions up in Postgres.
type Manager struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewManager creates a session manager.
func NewManager(pool *pgxpool.Pool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{pool: pool, logger: logger.With("component", "session")}
}

// FromRequest resolves the session for r. ErrNoSession when no token is
// present, ErrInvalidSession when the token is unknown or expired.
func (m *Manager) FromRequest(ctx context.Context, r *http.Request) (*Session, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, ErrNoSession
	}

	var userID uuid.UUID
	err := m.pool.QueryRow(ctx,
		`SELECT user_id FROM sessions WHERE token = $1 AND expires_at > now()`,
		token,
	).Scan(&userID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrInvalidSession
	case err != nil:
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	return &Session{Token: token, UserID: userID}, nil
}

// tokenFromRequest prefers the Authorization header over the cookie.
func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
