// Package viewport keeps the marker set in step with the map viewport.
//
// Every search is tagged with a generation number when it is dispatched. A
// completed search replaces the markers only if no newer search has been
// dispatched since; otherwise its result is discarded. Searches are never
// cancelled.
package viewport

import (
	"context"
	"sync"

	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// Searcher finds articles around a point. *wiki.Client implements it.
type Searcher interface {
	SearchNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]wiki.ArticleSummary, error)
}

// Mode is the user-controlled auto-search toggle.
type Mode string

const (
	AutoSearchEnabled  Mode = "auto_search_enabled"
	AutoSearchDisabled Mode = "auto_search_disabled"
)

// Outcome says what happened to a viewport event or search.
type Outcome string

const (
	// OutcomeApplied means the search result replaced the markers.
	OutcomeApplied Outcome = "applied"
	// OutcomeSuperseded means a newer search was dispatched first; the
	// result was discarded.
	OutcomeSuperseded Outcome = "superseded"
	// OutcomeSkipped means auto-search is off and no search ran.
	OutcomeSkipped Outcome = "skipped"
)

// Result describes a finished viewport event.
type Result struct {
	Outcome    Outcome
	Generation uint64
	// Markers is the marker set after an applied search.
	Markers []wiki.ArticleSummary
}

// Options configures a Controller.
type Options struct {
	DefaultCenter geo.Point
	DefaultRadius float64
	Limit         int
	AutoSearch    bool
}

// MarkersFunc is told about every applied marker replacement.
type MarkersFunc func(generation uint64, markers []wiki.ArticleSummary)

// Controller owns the viewport and marker state of one map. It is safe for
// concurrent use.
type Controller struct {
	searcher Searcher
	opts     Options

	mu       sync.Mutex
	mode     Mode
	viewport *geo.Viewport
	markers  []wiki.ArticleSummary
	issued   uint64
	applied  uint64
	subs     []MarkersFunc
}

// New creates a controller with an empty marker set.
func New(searcher Searcher, opts Options) *Controller {
	if opts.DefaultRadius <= 0 {
		opts.DefaultRadius = geo.MaxRadiusMeters
	}
	mode := AutoSearchDisabled
	if opts.AutoSearch {
		mode = AutoSearchEnabled
	}
	return &Controller{searcher: searcher, opts: opts, mode: mode}
}

// SetAutoSearch switches the auto-search toggle.
func (c *Controller) SetAutoSearch(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enabled {
		c.mode = AutoSearchEnabled
	} else {
		c.mode = AutoSearchDisabled
	}
}

// OnMarkers registers fn to be called after each applied search. Calls are
// made in generation order while the controller is locked, so fn must not
// call back into the controller.
func (c *Controller) OnMarkers(fn MarkersFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Mode returns the current toggle state.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Markers returns a copy of the current marker set.
func (c *Controller) Markers() []wiki.ArticleSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]wiki.ArticleSummary(nil), c.markers...)
}

// Generation returns the generation of the search behind the current markers.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied
}

// Viewport returns the last viewport reported, if any.
func (c *Controller) Viewport() (geo.Viewport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.viewport == nil {
		return geo.Viewport{}, false
	}
	return *c.viewport, true
}

// InitialLoad runs one search around the default center, regardless of the
// auto-search toggle.
func (c *Controller) InitialLoad(ctx context.Context) (Result, error) {
	return c.Search(ctx, c.opts.DefaultCenter, c.opts.DefaultRadius)
}

// HandleViewportChange records a pan or zoom end. With auto-search enabled
// it searches the visible area and replaces the markers.
func (c *Controller) HandleViewportChange(ctx context.Context, vp geo.Viewport) (Result, error) {
	c.mu.Lock()
	c.viewport = &vp
	mode := c.mode
	c.mu.Unlock()

	if mode != AutoSearchEnabled {
		return Result{Outcome: OutcomeSkipped}, nil
	}
	return c.Search(ctx, vp.Center, geo.SearchRadius(vp))
}

// Search dispatches a tagged search. A failed search leaves the markers
// unchanged.
func (c *Controller) Search(ctx context.Context, center geo.Point, radiusMeters float64) (Result, error) {
	c.mu.Lock()
	c.issued++
	gen := c.issued
	c.mu.Unlock()

	results, err := c.searcher.SearchNearby(ctx, center.Lat, center.Lon, radiusMeters, c.opts.Limit)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.issued {
		return Result{Outcome: OutcomeSuperseded, Generation: gen}, nil
	}
	if err != nil {
		return Result{Generation: gen}, err
	}

	c.markers = results
	c.applied = gen
	for _, fn := range c.subs {
		fn(gen, append([]wiki.ArticleSummary(nil), results...))
	}
	return Result{
		Outcome:    OutcomeApplied,
		Generation: gen,
		Markers:    append([]wiki.ArticleSummary(nil), results...),
	}, nil
}
