package panel

import (
	"context"
	"strings"
	"testing"

	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
	"github.com/ziadkadry99/wikiwalk/internal/wiki/wikitest"
)

type authFlag bool

func (a authFlag) IsAuthenticated() bool { return bool(a) }

func setup(t *testing.T) (*wikitest.Server, *Panel) {
	t.Helper()
	fake := wikitest.NewServer()
	t.Cleanup(fake.Close)
	fake.AddPage(wikitest.Page{ID: 1, Title: "Tokyo Tower", Lat: 35.6586, Lon: 139.7454, Extract: "A communications tower.", Thumbnail: "https://img.example/tower.jpg"})
	return fake, New(fake.Client())
}

func TestSelectLoadsSummary(t *testing.T) {
	_, p := setup(t)

	if err := p.Select(context.Background(), Selection{Title: "Tokyo Tower"}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	d := p.Detail()
	if d == nil {
		t.Fatal("expected detail")
	}
	if d.Extract != "A communications tower." || d.ThumbnailURL != "https://img.example/tower.jpg" {
		t.Errorf("unexpected detail: %+v", d)
	}
	if p.Err() != "" {
		t.Errorf("unexpected error message %q", p.Err())
	}
	if p.FallbackURL() != "" {
		t.Error("fallback link should be hidden once a summary loaded")
	}
}

func TestSelectFailureClearsStaleDetail(t *testing.T) {
	_, p := setup(t)
	ctx := context.Background()

	if err := p.Select(ctx, Selection{Title: "Tokyo Tower"}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := p.Select(ctx, Selection{Title: "Nowhere In Particular"}); err == nil {
		t.Fatal("expected error for unknown article")
	}

	if p.Detail() != nil {
		t.Error("stale detail left on display after failure")
	}
	if p.Err() == "" {
		t.Error("expected user-visible error message")
	}
	if url := p.FallbackURL(); !strings.HasSuffix(url, "/wiki/Nowhere_In_Particular") {
		t.Errorf("FallbackURL = %q", url)
	}
}

func TestEditTargetGating(t *testing.T) {
	_, p := setup(t)

	if _, ok := p.EditTarget(authFlag(true)); ok {
		t.Error("edit offered before any detail loaded")
	}

	if err := p.Select(context.Background(), Selection{Title: "Tokyo Tower"}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, ok := p.EditTarget(authFlag(false)); ok {
		t.Error("edit offered to logged-out user")
	}

	draft, ok := p.EditTarget(authFlag(true))
	if !ok {
		t.Fatal("edit not offered to logged-in user with loaded detail")
	}
	if draft.Title != "Tokyo Tower" || draft.Extract != "A communications tower." || draft.ThumbnailURL == "" {
		t.Errorf("unexpected draft: %+v", draft)
	}
}

func TestSelectionFromArticleKeepsPosition(t *testing.T) {
	fake := wikitest.NewServer()
	defer fake.Close()
	p := New(fake.Client())

	a := wiki.ArticleSummary{Title: "Ghost", Position: geo.Point{Lat: 1, Lon: 2}}
	sel := SelectionFromArticle(a)
	if sel.Position == nil || sel.Position.Lat != 1 {
		t.Fatalf("selection lost position: %+v", sel)
	}
	// Unknown title: still records the selection for the fallback link.
	_ = p.Select(context.Background(), sel)
	v := p.View(authFlag(true))
	if v.Selection == nil || v.Selection.Title != "Ghost" || v.CanEdit {
		t.Errorf("unexpected view: %+v", v)
	}
}

// stubFetcher returns fixed HTML so sanitisation can be checked.
type stubFetcher struct{ html string }

func (s stubFetcher) FetchSummary(_ context.Context, title string) (*wiki.Summary, error) {
	return &wiki.Summary{Title: title, Extract: "x", ExtractHTML: s.html}, nil
}

func (s stubFetcher) PageURL(title string) string { return "https://example.org/wiki/" + title }

func TestSafeExtractHTML(t *testing.T) {
	p := New(stubFetcher{html: `<p><b>Tokyo</b> Tower<script>alert(1)</script><img src=x onerror="alert(2)"></p>`})
	if err := p.Select(context.Background(), Selection{Title: "Tokyo Tower"}); err != nil {
		t.Fatalf("Select: %v", err)
	}

	got := p.SafeExtractHTML()
	if strings.Contains(got, "<script") || strings.Contains(got, "onerror") {
		t.Errorf("unsafe markup survived: %q", got)
	}
	if !strings.Contains(got, "<b>Tokyo</b>") {
		t.Errorf("safe markup stripped: %q", got)
	}
}

func TestClose(t *testing.T) {
	_, p := setup(t)
	if err := p.Select(context.Background(), Selection{Title: "Tokyo Tower"}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	p.Close()
	v := p.View(authFlag(true))
	if v.Selection != nil || v.Detail != nil || v.CanEdit {
		t.Errorf("expected empty view after Close, got %+v", v)
	}
}

func TestViewIsConsistentUnderConcurrentSelect(t *testing.T) {
	p := New(stubFetcher{html: "<p>Tokyo</p>"})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			p.Select(ctx, Selection{Title: "Tokyo Tower"})
			p.Close()
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		v := p.View(authFlag(true))
		if v.CanEdit && v.Detail == nil {
			t.Fatalf("edit offered without detail: %+v", v)
		}
		if v.ExtractHTML != "" && v.Detail == nil {
			t.Fatalf("extract shown without detail: %+v", v)
		}
		if v.FallbackURL != "" && (v.Detail != nil || v.Selection == nil) {
			t.Fatalf("fallback link alongside detail: %+v", v)
		}
	}
}
