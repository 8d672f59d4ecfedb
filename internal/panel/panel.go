// Package panel is the article detail panel: it loads the summary of the
// selected article and decides whether editing is offered.
package panel

import (
	"context"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// Fetcher loads article summaries. *wiki.Client implements it.
type Fetcher interface {
	FetchSummary(ctx context.Context, title string) (*wiki.Summary, error)
	PageURL(title string) string
}

// AuthState reports whether edits may be offered.
type AuthState interface {
	IsAuthenticated() bool
}

// Selection is what the user picked: a marker or a title typed directly.
type Selection struct {
	Title    string     `json:"title"`
	Position *geo.Point `json:"position,omitempty"`
}

// SelectionFromArticle selects a search hit.
func SelectionFromArticle(a wiki.ArticleSummary) Selection {
	pos := a.Position
	return Selection{Title: a.Title, Position: &pos}
}

// EditDraft is handed to the editor when the user starts an edit.
type EditDraft struct {
	Title        string `json:"title"`
	Extract      string `json:"extract"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// View is a snapshot of the panel for rendering.
type View struct {
	Selection   *Selection    `json:"selection,omitempty"`
	Detail      *wiki.Summary `json:"detail,omitempty"`
	ExtractHTML string        `json:"extract_html,omitempty"`
	Error       string        `json:"error,omitempty"`
	FallbackURL string        `json:"fallback_url,omitempty"`
	CanEdit     bool          `json:"can_edit"`
}

// Panel holds the selected article. It is safe for concurrent use.
type Panel struct {
	fetcher Fetcher
	policy  *bluemonday.Policy

	mu        sync.Mutex
	gen       uint64
	selection *Selection
	detail    *wiki.Summary
	errMsg    string
}

// New creates an empty panel.
func New(fetcher Fetcher) *Panel {
	return &Panel{fetcher: fetcher, policy: bluemonday.UGCPolicy()}
}

// Select loads the summary for sel. Any previous detail is cleared first, so
// a failure never leaves a stale article on display. If another Select
// starts before this one finishes, this result is dropped.
func (p *Panel) Select(ctx context.Context, sel Selection) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.selection = &sel
	p.detail = nil
	p.errMsg = ""
	p.mu.Unlock()

	summary, err := p.fetcher.FetchSummary(ctx, sel.Title)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return nil
	}
	if err != nil {
		p.errMsg = err.Error()
		return err
	}
	if summary.Position == nil && sel.Position != nil {
		pos := *sel.Position
		summary.Position = &pos
	}
	p.detail = summary
	return nil
}

// Close clears the panel.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.selection = nil
	p.detail = nil
	p.errMsg = ""
}

// Detail returns the loaded summary, or nil.
func (p *Panel) Detail() *wiki.Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detail
}

// Err returns the message of the last failed load, or "".
func (p *Panel) Err() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errMsg
}

// EditTarget returns the draft to open in the editor. It is only offered
// once a summary has loaded and the session is logged in.
func (p *Panel) EditTarget(auth AuthState) (EditDraft, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return editTarget(p.detail, auth)
}

func editTarget(detail *wiki.Summary, auth AuthState) (EditDraft, bool) {
	if detail == nil || auth == nil || !auth.IsAuthenticated() {
		return EditDraft{}, false
	}
	return EditDraft{
		Title:        detail.Title,
		Extract:      detail.Extract,
		ThumbnailURL: detail.ThumbnailURL,
	}, true
}

// SafeExtractHTML returns the summary's HTML extract with anything outside
// user-generated-content markup stripped.
func (p *Panel) SafeExtractHTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.safeExtractHTML()
}

func (p *Panel) safeExtractHTML() string {
	if p.detail == nil || p.detail.ExtractHTML == "" {
		return ""
	}
	return p.policy.Sanitize(p.detail.ExtractHTML)
}

// FallbackURL links to the plain article page when no summary is shown.
func (p *Panel) FallbackURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fallbackURL()
}

func (p *Panel) fallbackURL() string {
	if p.selection == nil || p.detail != nil {
		return ""
	}
	return p.fetcher.PageURL(p.selection.Title)
}

// View returns a consistent snapshot for rendering.
func (p *Panel) View(auth AuthState) View {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, canEdit := editTarget(p.detail, auth)
	return View{
		Selection:   p.selection,
		Detail:      p.detail,
		ExtractHTML: p.safeExtractHTML(),
		Error:       p.errMsg,
		FallbackURL: p.fallbackURL(),
		CanEdit:     canEdit,
	}
}
