// Package auth holds the wiki login session. Credentials are only used for
// the duration of a Login call and are never stored.
package auth

import (
	"context"
	"fmt"
	"log"
	"net/http/cookiejar"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/ziadkadry99/wikiwalk/internal/audit"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// State is a snapshot of the session for display.
type State struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	Username        string `json:"username,omitempty"`
}

// Session is the login state against one wiki. It owns the cookie jar that
// carries the wiki session cookies. A Session is safe for concurrent use.
type Session struct {
	base  *wiki.Client
	audit audit.Logger

	mu            sync.RWMutex
	client        *wiki.Client
	authenticated bool
	username      string
	csrfToken     string
}

// NewSession creates a logged-out session. auditLog may be nil.
func NewSession(base *wiki.Client, auditLog audit.Logger) *Session {
	s := &Session{base: base, audit: auditLog}
	s.client = s.freshClient()
	return s
}

func (s *Session) freshClient() *wiki.Client {
	// cookiejar.New never returns a non-nil error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return s.base.WithJar(jar)
}

// Login runs the two-step token login. On failure the previous session state
// is left untouched.
func (s *Session) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return &wiki.ValidationError{Field: "username", Message: "is required"}
	}
	if password == "" {
		return &wiki.ValidationError{Field: "password", Message: "is required"}
	}

	client := s.freshClient()

	token, err := client.LoginToken(ctx)
	if err != nil {
		return fmt.Errorf("starting login: %w", err)
	}

	res, err := client.Login(ctx, username, password, token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.client = client
	s.authenticated = true
	s.username = res.Username
	s.csrfToken = ""
	s.mu.Unlock()

	s.record(ctx, audit.ActionLogin, res.Username)
	return nil
}

// Logout clears the local session. The server-side session is not revoked.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	name := s.username
	was := s.authenticated
	s.client = s.freshClient()
	s.authenticated = false
	s.username = ""
	s.csrfToken = ""
	s.mu.Unlock()

	if was {
		s.record(ctx, audit.ActionLogout, name)
	}
}

// IsAuthenticated reports whether a login has succeeded since the last logout.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Username returns the logged-in user, or "" when logged out.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{IsAuthenticated: s.authenticated, Username: s.username}
}

// Client returns the wiki client carrying this session's cookies.
func (s *Session) Client() *wiki.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// CSRFToken returns the session's edit token, fetching it on first use.
func (s *Session) CSRFToken(ctx context.Context) (string, error) {
	_, token, err := s.EditCredentials(ctx)
	return token, err
}

// EditCredentials returns the client and the edit token issued to that
// client's cookies. The pair is read together, so a concurrent re-login
// cannot mix an old token with a new cookie jar.
func (s *Session) EditCredentials(ctx context.Context) (*wiki.Client, string, error) {
	s.mu.RLock()
	authenticated, cached, client := s.authenticated, s.csrfToken, s.client
	s.mu.RUnlock()

	if !authenticated {
		return nil, "", wiki.NotAuthenticatedError{}
	}
	if cached != "" {
		return client, cached, nil
	}

	token, err := client.CSRFToken(ctx)
	if err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	// Only cache if no logout or re-login happened meanwhile.
	if s.client == client {
		s.csrfToken = token
	}
	s.mu.Unlock()
	return client, token, nil
}

// InvalidateCSRFToken drops the cached edit token, e.g. after a badtoken error.
func (s *Session) InvalidateCSRFToken() {
	s.mu.Lock()
	s.csrfToken = ""
	s.mu.Unlock()
}

func (s *Session) record(ctx context.Context, action audit.Action, username string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, audit.Entry{Actor: username, Action: action}); err != nil {
		log.Printf("auth: writing audit entry: %v", err)
	}
}
