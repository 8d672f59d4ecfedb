// Package wikitest provides an in-process fake of the MediaWiki endpoints
// used by wikiwalk, for tests across packages.
package wikitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// Page is an article known to the fake wiki.
type Page struct {
	ID        int64
	Title     string
	Lat, Lon  float64
	Extract   string
	Thumbnail string
	Wikitext  string
}

// Edit is an edit accepted by the fake wiki.
type Edit struct {
	User    string
	Title   string
	Text    string
	Summary string
}

// Server is a fake wiki. Exported fields may be set before the first request.
type Server struct {
	*httptest.Server

	// GeosearchStatus forces a non-200 status on nearby searches when set.
	GeosearchStatus int
	// GeosearchError makes nearby searches return an API error body.
	GeosearchError string
	// EditError makes edits return an API error body with this info.
	EditError string

	mu          sync.Mutex
	pages       map[string]Page
	failSummary map[string]bool
	users       map[string]string
	sessions    map[string]string // session id -> logged-in user ("" = anonymous)
	loginTokens map[string]string // session id -> login token
	nextSession int
	requests    map[string]int
	radii       []int
	edits       []Edit
}

// NewServer starts a fake wiki. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		pages:       make(map[string]Page),
		failSummary: make(map[string]bool),
		users:       make(map[string]string),
		sessions:    make(map[string]string),
		loginTokens: make(map[string]string),
		requests:    make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", s.handleAPI)
	mux.HandleFunc("/api/rest_v1/page/summary/", s.handleSummary)
	s.Server = httptest.NewServer(mux)
	return s
}

// Config returns a wiki.Config pointing at the fake.
func (s *Server) Config() wiki.Config {
	return wiki.Config{
		APIURL:  s.URL + "/w/api.php",
		RESTURL: s.URL + "/api/rest_v1",
	}
}

// Client returns a wiki client pointing at the fake.
func (s *Server) Client() *wiki.Client {
	return wiki.NewClient(s.Config(), nil)
}

// AddPage registers an article.
func (s *Server) AddPage(p Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[p.Title] = p
}

// FailSummary makes summary fetches for title return 500.
func (s *Server) FailSummary(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSummary[title] = true
}

// AddUser registers an account.
func (s *Server) AddUser(name, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[name] = password
}

// Requests returns how many requests of the given kind were served. Kinds are
// "geosearch", "summary", "revisions", "logintoken", "login", "csrftoken", "edit".
func (s *Server) Requests(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[kind]
}

// TotalRequests returns the number of requests served.
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.requests {
		n += c
	}
	return n
}

// Radii returns the gsradius of every nearby search served.
func (s *Server) Radii() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.radii...)
}

// Edits returns the accepted edits.
func (s *Server) Edits() []Edit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Edit(nil), s.edits...)
}

func (s *Server) count(kind string) {
	s.mu.Lock()
	s.requests[kind]++
	s.mu.Unlock()
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	switch {
	case r.Form.Get("list") == "geosearch":
		s.handleGeosearch(w, r)
	case r.Form.Get("prop") == "revisions":
		s.handleRevisions(w, r)
	case r.Form.Get("meta") == "tokens":
		s.handleTokens(w, r)
	case r.Method == http.MethodPost && r.PostForm.Get("action") == "login":
		s.handleLogin(w, r)
	case r.Method == http.MethodPost && r.PostForm.Get("action") == "edit":
		s.handleEdit(w, r)
	default:
		writeJSON(w, map[string]any{"error": map[string]string{"code": "badvalue", "info": "unsupported request"}})
	}
}

func (s *Server) handleGeosearch(w http.ResponseWriter, r *http.Request) {
	s.count("geosearch")
	radius, _ := strconv.Atoi(r.Form.Get("gsradius"))
	limit, _ := strconv.Atoi(r.Form.Get("gslimit"))

	s.mu.Lock()
	s.radii = append(s.radii, radius)
	status, apiErr := s.GeosearchStatus, s.GeosearchError
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, "search unavailable", status)
		return
	}
	if apiErr != "" {
		writeJSON(w, map[string]any{"error": map[string]string{"code": "invalid-coord", "info": apiErr}})
		return
	}
	if radius < geo.MinRadiusMeters || radius > geo.MaxRadiusMeters {
		writeJSON(w, map[string]any{"error": map[string]string{"code": "radius", "info": "radius out of range"}})
		return
	}

	var lat, lon float64
	if parts := strings.Split(r.Form.Get("gscoord"), "|"); len(parts) == 2 {
		lat, _ = strconv.ParseFloat(parts[0], 64)
		lon, _ = strconv.ParseFloat(parts[1], 64)
	}
	center := geo.Point{Lat: lat, Lon: lon}

	type hit struct {
		PageID int64   `json:"pageid"`
		NS     int     `json:"ns"`
		Title  string  `json:"title"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		Dist   float64 `json:"dist"`
	}
	var hits []hit
	s.mu.Lock()
	for _, p := range s.pages {
		d := geo.Distance(center, geo.Point{Lat: p.Lat, Lon: p.Lon})
		if d <= float64(radius) {
			hits = append(hits, hit{PageID: p.ID, Title: p.Title, Lat: p.Lat, Lon: p.Lon, Dist: d})
		}
	}
	s.mu.Unlock()

	sort.Slice(hits, func(i, j int) bool { return hits[i].Dist < hits[j].Dist })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	if hits == nil {
		hits = []hit{}
	}
	writeJSON(w, map[string]any{"batchcomplete": "", "query": map[string]any{"geosearch": hits}})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.count("summary")
	raw := strings.TrimPrefix(r.URL.EscapedPath(), "/api/rest_v1/page/summary/")
	title, err := url.PathUnescape(raw)
	if err != nil {
		http.Error(w, "bad title", http.StatusBadRequest)
		return
	}
	title = strings.ReplaceAll(title, "_", " ")

	s.mu.Lock()
	page, ok := s.pages[title]
	fail := s.failSummary[title]
	s.mu.Unlock()

	if fail {
		http.Error(w, "upstream failure", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"type":"not_found"}`, http.StatusNotFound)
		return
	}

	resp := map[string]any{
		"title":        page.Title,
		"extract":      page.Extract,
		"extract_html": "<p>" + page.Extract + "</p>",
		"content_urls": map[string]any{
			"desktop": map[string]string{"page": s.URL + "/wiki/" + url.PathEscape(strings.ReplaceAll(page.Title, " ", "_"))},
		},
		"coordinates": map[string]float64{"lat": page.Lat, "lon": page.Lon},
	}
	if page.Thumbnail != "" {
		resp["thumbnail"] = map[string]any{"source": page.Thumbnail, "width": 320, "height": 240}
	}
	writeJSON(w, resp)
}

func (s *Server) handleRevisions(w http.ResponseWriter, r *http.Request) {
	s.count("revisions")
	title := r.Form.Get("titles")

	s.mu.Lock()
	page, ok := s.pages[title]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, map[string]any{"query": map[string]any{"pages": map[string]any{
			"-1": map[string]any{"ns": 0, "title": title, "missing": ""},
		}}})
		return
	}
	writeJSON(w, map[string]any{"query": map[string]any{"pages": map[string]any{
		strconv.FormatInt(page.ID, 10): map[string]any{
			"pageid":    page.ID,
			"title":     page.Title,
			"revisions": []map[string]string{{"contentformat": "text/x-wiki", "*": page.Wikitext}},
		},
	}}})
}

const sessionCookie = "fakewiki_session"

// session returns the caller's session id, starting one if needed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		_, ok := s.sessions[c.Value]
		s.mu.Unlock()
		if ok {
			return c.Value
		}
	}
	s.mu.Lock()
	s.nextSession++
	id := fmt.Sprintf("sess-%d", s.nextSession)
	s.sessions[id] = ""
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/"})
	return id
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	tokens := map[string]string{}

	s.mu.Lock()
	switch r.Form.Get("type") {
	case "login":
		s.requests["logintoken"]++
		token := "login-token-" + id
		s.loginTokens[id] = token
		tokens["logintoken"] = token
	case "csrf":
		s.requests["csrftoken"]++
		if user := s.sessions[id]; user != "" {
			tokens["csrftoken"] = "csrf-" + id + "+\\"
		} else {
			tokens["csrftoken"] = "+\\"
		}
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"batchcomplete": "", "query": map[string]any{"tokens": tokens}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.count("login")
	id := s.session(w, r)
	name := r.PostForm.Get("lgname")

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.PostForm.Get("lgtoken") != s.loginTokens[id] || s.loginTokens[id] == "" {
		writeJSON(w, map[string]any{"login": map[string]string{"result": "Failed", "reason": "Unable to continue login. Your session most likely timed out."}})
		return
	}
	pw, ok := s.users[name]
	if !ok || pw != r.PostForm.Get("lgpassword") {
		writeJSON(w, map[string]any{"login": map[string]string{"result": "Failed", "reason": "Incorrect username or password entered. Please try again."}})
		return
	}
	s.sessions[id] = name
	writeJSON(w, map[string]any{"login": map[string]any{"result": "Success", "lguserid": 42, "lgusername": name}})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	s.count("edit")
	id := s.session(w, r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.EditError != "" {
		writeJSON(w, map[string]any{"error": map[string]string{"code": "protectedpage", "info": s.EditError}})
		return
	}
	user := s.sessions[id]
	if user == "" || r.PostForm.Get("token") != "csrf-"+id+"+\\" {
		writeJSON(w, map[string]any{"error": map[string]string{"code": "badtoken", "info": "Invalid CSRF token."}})
		return
	}

	title := r.PostForm.Get("title")
	page, ok := s.pages[title]
	if !ok {
		page = Page{ID: int64(1000 + len(s.pages)), Title: title}
	}
	page.Wikitext = r.PostForm.Get("text")
	s.pages[title] = page
	s.edits = append(s.edits, Edit{User: user, Title: title, Text: page.Wikitext, Summary: r.PostForm.Get("summary")})

	writeJSON(w, map[string]any{"edit": map[string]any{
		"result":       "Success",
		"pageid":       page.ID,
		"title":        title,
		"contentmodel": "wikitext",
		"oldrevid":     100 + len(s.edits) - 1,
		"newrevid":     100 + len(s.edits),
		"newtimestamp": "2026-10-18T09:00:00Z",
	}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
