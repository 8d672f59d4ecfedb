package wiki

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/wikiwalk/internal/geo"
)

// ArticleSummary is a geosearch hit merged with whatever details could be
// fetched for it. Optional fields are empty when the detail fetch failed.
type ArticleSummary struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Position         geo.Point `json:"position"`
	Distance         float64   `json:"distance"`
	Extract          string    `json:"extract,omitempty"`
	ThumbnailURL     string    `json:"thumbnail_url,omitempty"`
	CanonicalPageURL string    `json:"canonical_page_url,omitempty"`
}

// Hydrated reports whether details were merged into the hit.
func (a ArticleSummary) Hydrated() bool {
	return a.Extract != "" || a.ThumbnailURL != "" || a.CanonicalPageURL != ""
}

// HydrationFunc is told how many of total hits have finished their detail
// fetch, successful or not. Calls are serialized.
type HydrationFunc func(done, total int)

type geosearchResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Geosearch []geosearchHit `json:"geosearch"`
	} `json:"query"`
}

type geosearchHit struct {
	PageID int64   `json:"pageid"`
	Title  string  `json:"title"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Dist   float64 `json:"dist"`
}

// SearchNearby finds up to limit articles within radiusMeters of (lat, lon)
// and hydrates each one with its summary. The radius is clamped to the range
// the API accepts. A failed summary fetch keeps the hit with only its
// geosearch fields; only a failed search fails the call.
func (c *Client) SearchNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]ArticleSummary, error) {
	return c.SearchNearbyWithProgress(ctx, lat, lon, radiusMeters, limit, nil)
}

// SearchNearbyWithProgress is SearchNearby with a hydration progress callback.
func (c *Client) SearchNearbyWithProgress(ctx context.Context, lat, lon, radiusMeters float64, limit int, progress HydrationFunc) ([]ArticleSummary, error) {
	if limit <= 0 {
		limit = c.config.DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	hits, err := c.geosearch(ctx, geo.Point{Lat: lat, Lon: lon}, geo.ClampRadius(radiusMeters), limit)
	if err != nil {
		return nil, err
	}

	results := c.hydrate(ctx, hits, progress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) geosearch(ctx context.Context, center geo.Point, radius, limit int) ([]geosearchHit, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "geosearch")
	params.Set("gscoord", center.String())
	params.Set("gsradius", strconv.Itoa(radius))
	params.Set("gslimit", strconv.Itoa(limit))

	var resp geosearchResponse
	if err := c.apiGet(ctx, params, &resp); err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, &SearchError{Status: se.Status, Message: se.Body}
		}
		return nil, err
	}
	if resp.Error != nil {
		return nil, &SearchError{Status: 200, Message: resp.Error.Info}
	}

	// Hits without a title or usable coordinates cannot become markers.
	hits := resp.Query.Geosearch[:0]
	for _, h := range resp.Query.Geosearch {
		if h.Title != "" && (geo.Point{Lat: h.Lat, Lon: h.Lon}).Valid() {
			hits = append(hits, h)
		}
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// hydrate fetches summaries for all hits concurrently. Order is preserved.
func (c *Client) hydrate(ctx context.Context, hits []geosearchHit, progress HydrationFunc) []ArticleSummary {
	results := make([]ArticleSummary, len(hits))

	var (
		g    errgroup.Group
		mu   sync.Mutex
		done int
	)
	g.SetLimit(c.config.MaxConcurrency)

	for i, hit := range hits {
		g.Go(func() error {
			article := ArticleSummary{
				ID:       hit.PageID,
				Title:    hit.Title,
				Position: geo.Point{Lat: hit.Lat, Lon: hit.Lon},
				Distance: hit.Dist,
			}

			summary, err := c.FetchSummary(ctx, hit.Title)
			if err != nil {
				log.Printf("wiki: %v", &DetailFetchError{Title: hit.Title, Err: err})
			} else {
				article.Extract = summary.Extract
				article.ThumbnailURL = summary.ThumbnailURL
				article.CanonicalPageURL = summary.CanonicalPageURL
			}
			results[i] = article

			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(hits))
				mu.Unlock()
			}
			// Detail failures never fail the group.
			return nil
		})
	}
	_ = g.Wait()

	return results
}
