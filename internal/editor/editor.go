// Package editor submits wikitext edits on behalf of a logged-in session.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ziadkadry99/wikiwalk/internal/audit"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// Session is the part of auth.Session the editor needs.
type Session interface {
	IsAuthenticated() bool
	Username() string
	EditCredentials(ctx context.Context) (*wiki.Client, string, error)
	InvalidateCSRFToken()
	Client() *wiki.Client
}

// EditRequest replaces the full text of an article.
type EditRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Summary string `json:"summary"`
}

// Validate checks the request locally.
func (r EditRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return &wiki.ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(r.Content) == "" {
		return &wiki.ValidationError{Field: "content", Message: "must not be empty"}
	}
	if strings.TrimSpace(r.Summary) == "" {
		return &wiki.ValidationError{Field: "summary", Message: "an edit summary is required"}
	}
	return nil
}

// Editor submits edits through a session.
type Editor struct {
	session Session
	audit   audit.Logger
}

// New creates an Editor. auditLog may be nil.
func New(session Session, auditLog audit.Logger) *Editor {
	return &Editor{session: session, audit: auditLog}
}

// EditArticle fetches an edit token and posts the edit. Authentication and
// input are checked before any request is made.
func (e *Editor) EditArticle(ctx context.Context, req EditRequest) (*wiki.EditRecord, error) {
	if !e.session.IsAuthenticated() {
		return nil, wiki.NotAuthenticatedError{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	client, token, err := e.session.EditCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching edit token: %w", err)
	}

	rec, err := client.Edit(ctx, wiki.EditParams{
		Title:   req.Title,
		Text:    req.Content,
		Summary: req.Summary,
		Token:   token,
	})
	if err != nil {
		var ee *wiki.EditError
		if errors.As(err, &ee) && ee.Code == "badtoken" {
			e.session.InvalidateCSRFToken()
		}
		e.record(ctx, audit.Entry{Action: audit.ActionEditFailed, Title: req.Title, Summary: req.Summary, Detail: err.Error()})
		return nil, err
	}

	detail := ""
	if rec.NoChange {
		detail = "no change"
	}
	e.record(ctx, audit.Entry{Action: audit.ActionEditSubmitted, Title: req.Title, Summary: req.Summary, Detail: detail, RevisionID: rec.NewRevID})
	return rec, nil
}

// LoadWikitext returns the current wikitext of title for pre-filling an edit.
func (e *Editor) LoadWikitext(ctx context.Context, title string) (string, error) {
	if !e.session.IsAuthenticated() {
		return "", wiki.NotAuthenticatedError{}
	}
	return e.session.Client().FetchWikitext(ctx, title)
}

func (e *Editor) record(ctx context.Context, entry audit.Entry) {
	if e.audit == nil {
		return
	}
	entry.Actor = e.session.Username()
	if err := e.audit.Log(ctx, entry); err != nil {
		log.Printf("editor: writing audit entry: %v", err)
	}
}
