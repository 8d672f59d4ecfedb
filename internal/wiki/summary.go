package wiki

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ziadkadry99/wikiwalk/internal/geo"
)

// Summary is the article digest served by the REST summary endpoint.
type Summary struct {
	Title            string     `json:"title"`
	Extract          string     `json:"extract"`
	ExtractHTML      string     `json:"extract_html,omitempty"`
	ThumbnailURL     string     `json:"thumbnail_url,omitempty"`
	CanonicalPageURL string     `json:"canonical_page_url,omitempty"`
	Position         *geo.Point `json:"position,omitempty"`
}

type summaryResponse struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ExtractHTML string `json:"extract_html"`
	Thumbnail   *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs *struct {
		Desktop *struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
	Coordinates *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coordinates"`
}

// FetchSummary fetches the summary of the article with the given title.
func (c *Client) FetchSummary(ctx context.Context, title string) (*Summary, error) {
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "is required"}
	}

	var resp summaryResponse
	if err := c.restGet(ctx, "/page/summary/"+escapeTitle(title), &resp); err != nil {
		return nil, fmt.Errorf("fetching summary for %q: %w", title, err)
	}
	return resp.toSummary(title), nil
}

// toSummary flattens the nested response into explicit optional fields.
func (r summaryResponse) toSummary(requested string) *Summary {
	s := &Summary{
		Title:       r.Title,
		Extract:     r.Extract,
		ExtractHTML: r.ExtractHTML,
	}
	if s.Title == "" {
		s.Title = requested
	}
	if r.Thumbnail != nil {
		s.ThumbnailURL = r.Thumbnail.Source
	}
	if r.ContentURLs != nil && r.ContentURLs.Desktop != nil {
		s.CanonicalPageURL = r.ContentURLs.Desktop.Page
	}
	if r.Coordinates != nil {
		s.Position = &geo.Point{Lat: r.Coordinates.Lat, Lon: r.Coordinates.Lon}
	}
	return s
}

type revisionsResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Pages map[string]struct {
			Missing   *string `json:"missing"`
			Revisions []struct {
				Content string `json:"*"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// FetchWikitext returns the current wikitext of the article. A page that
// does not exist yet yields an empty string.
func (c *Client) FetchWikitext(ctx context.Context, title string) (string, error) {
	if title == "" {
		return "", &ValidationError{Field: "title", Message: "is required"}
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "revisions")
	params.Set("rvprop", "content")
	params.Set("titles", title)

	var resp revisionsResponse
	if err := c.apiGet(ctx, params, &resp); err != nil {
		return "", fmt.Errorf("fetching wikitext for %q: %w", title, err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("fetching wikitext for %q: %s", title, resp.Error.Info)
	}

	for _, page := range resp.Query.Pages {
		if page.Missing != nil || len(page.Revisions) == 0 {
			return "", nil
		}
		return page.Revisions[0].Content, nil
	}
	return "", nil
}
