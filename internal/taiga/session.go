package taiga

import (
	"errors"
	"time"
)

// tokenLifetime is how long a token from POST /auth is trusted.
const tokenLifetime = 24 * time.Hour

// ErrMissingCredentials is returned when a request needs a token and no
// username/password pair is configured.
var ErrMissingCredentials = errors.New("taiga credentials not configured (set TAIGA_USERNAME and TAIGA_PASSWORD)")

// Credentials authenticate against POST /auth.
type Credentials struct {
	Username string
	Password string
}

// Complete reports whether both fields are set.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// Session holds the bearer token and its expiry. It is owned by one Client.
type Session struct {
	Credentials Credentials

	token     string
	userID    int
	expiresAt time.Time
	now       func() time.Time
}

// NewSession creates an unauthenticated session. A nil clock means time.Now.
func NewSession(creds Credentials, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{Credentials: creds, now: now}
}

// Valid reports whether a token is held and has not expired.
func (s *Session) Valid() bool {
	return s.token != "" && s.now().Before(s.expiresAt)
}

// Token returns the current bearer token, possibly expired.
func (s *Session) Token() string {
	return s.token
}

// UserID is the id of the authenticated user, or 0.
func (s *Session) UserID() int {
	return s.userID
}

// ExpiresAt is when the current token stops being trusted.
func (s *Session) ExpiresAt() time.Time {
	return s.expiresAt
}

func (s *Session) store(token string, userID int) {
	s.token = token
	s.userID = userID
	s.expiresAt = s.now().Add(tokenLifetime)
}
