// Package wiki talks to a MediaWiki site: the action API (geosearch, tokens,
// login, edit, wikitext) and the REST summary endpoint.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Defaults used when the corresponding Config field is left empty.
const (
	DefaultAPIURL         = "https://ja.wikipedia.org/w/api.php"
	DefaultRESTURL        = "https://ja.wikipedia.org/api/rest_v1"
	DefaultUserAgent      = "WikiWalk/dev (https://github.com/ziadkadry99/wikiwalk)"
	DefaultLimit          = 50
	DefaultMaxConcurrency = 8

	// MaxLimit is the largest gslimit the API accepts for normal users.
	MaxLimit = 500
)

// Config holds the endpoints and tuning for a Client.
type Config struct {
	APIURL         string
	RESTURL        string
	UserAgent      string
	DefaultLimit   int
	MaxConcurrency int
}

// Client provides access to the wiki APIs. A Client is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a wiki client. httpClient may be nil.
func NewClient(config Config, httpClient *http.Client) *Client {
	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}
	if config.RESTURL == "" {
		config.RESTURL = DefaultRESTURL
	}
	config.RESTURL = strings.TrimRight(config.RESTURL, "/")
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultLimit
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultMaxConcurrency
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{config: config, httpClient: httpClient}
}

// WithJar returns a copy of the client whose requests carry the given cookie
// jar. Sessions use this to keep their login cookies to themselves.
func (c *Client) WithJar(jar http.CookieJar) *Client {
	hc := *c.httpClient
	hc.Jar = jar
	return &Client{config: c.config, httpClient: &hc}
}

// Config returns the effective client configuration.
func (c *Client) Config() Config { return c.config }

// PageURL returns the plain article URL for title on the configured site.
func (c *Client) PageURL(title string) string {
	u, err := url.Parse(c.config.APIURL)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s://%s/wiki/%s", u.Scheme, u.Host, escapeTitle(title))
}

// apiError is the error object the action API returns with a 200 status.
type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (c *Client) apiGet(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	endpoint := c.config.APIURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) apiPost(ctx context.Context, form url.Values, out any) error {
	form.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) restGet(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.RESTURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// escapeTitle escapes a page title for use as a single path segment.
// Spaces become underscores, matching the wiki's canonical form.
func escapeTitle(title string) string {
	return url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}
