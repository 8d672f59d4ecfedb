package audit

import (
	"context"
	"time"
)

// Action describes what was done.
type Action string

const (
	ActionLogin         Action = "login"
	ActionLogout        Action = "logout"
	ActionEditSubmitted Action = "edit_submitted"
	ActionEditFailed    Action = "edit_failed"
)

// Entry is a single audit trail record. Passwords and wikitext bodies are
// never recorded.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Actor      string    `json:"actor"`
	Action     Action    `json:"action"`
	Title      string    `json:"title,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	RevisionID int64     `json:"revision_id,omitempty"`
}

// Logger records audit entries. *Store implements it.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}
