package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/wikiwalk/internal/editor"
	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/panel"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// mapDefaults is what the page needs before it opens the map socket.
type mapDefaults struct {
	Center     geo.Point `json:"center"`
	Zoom       int       `json:"zoom"`
	AutoSearch bool      `json:"auto_search"`
}

type nearbyResponse struct {
	Center   geo.Point             `json:"center"`
	Radius   int                   `json:"radius"`
	Articles []wiki.ArticleSummary `json:"articles"`
}

type wikitextResponse struct {
	Title    string `json:"title"`
	Wikitext string `json:"wikitext"`
}

type editBody struct {
	Content string `json:"content"`
	Summary string `json:"summary"`
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleMapDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapDefaults{
		Center:     s.cfg.DefaultCenter,
		Zoom:       s.cfg.DefaultZoom,
		AutoSearch: s.cfg.AutoSearch,
	})
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	center, err := parsePoint(q)
	if err != nil {
		writeError(w, err)
		return
	}

	radius := s.cfg.DefaultRadius
	if v := q.Get("radius"); v != "" {
		radius, err = strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, &wiki.ValidationError{Field: "radius", Message: "must be a number"})
			return
		}
	}
	limit := s.cfg.Limit
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, &wiki.ValidationError{Field: "limit", Message: "must be an integer"})
			return
		}
	}

	articles, err := s.wiki.SearchNearby(r.Context(), center.Lat, center.Lon, radius, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if articles == nil {
		articles = []wiki.ArticleSummary{}
	}
	writeJSON(w, http.StatusOK, nearbyResponse{
		Center:   center,
		Radius:   geo.ClampRadius(radius),
		Articles: articles,
	})
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	title, ok := titleParam(w, r)
	if !ok {
		return
	}

	sel := panel.Selection{Title: title}
	if center, err := parsePoint(r.URL.Query()); err == nil {
		sel.Position = &center
	}

	p := panel.New(s.wiki)
	if err := p.Select(r.Context(), sel); err != nil {
		log.Printf("server: loading %q: %v", title, err)
		writeJSON(w, statusFor(err), p.View(s.session))
		return
	}
	writeJSON(w, http.StatusOK, p.View(s.session))
}

func (s *Server) handleWikitext(w http.ResponseWriter, r *http.Request) {
	title, ok := titleParam(w, r)
	if !ok {
		return
	}
	text, err := s.editor.LoadWikitext(r.Context(), title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wikitextResponse{Title: title, Wikitext: text})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	title, ok := titleParam(w, r)
	if !ok {
		return
	}
	var body editBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	rec, err := s.editor.EditArticle(r.Context(), editor.EditRequest{
		Title:   title,
		Content: body.Content,
		Summary: body.Summary,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := s.session.Login(r.Context(), body.Username, body.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.Logout(r.Context())
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleOSMLink(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	center, err := parsePoint(q)
	if err != nil {
		writeError(w, err)
		return
	}
	zoom := s.cfg.DefaultZoom
	if v := q.Get("zoom"); v != "" {
		zoom, err = strconv.Atoi(v)
		if err != nil || zoom < 0 {
			writeError(w, &wiki.ValidationError{Field: "zoom", Message: "must be a non-negative integer"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": geo.OSMEditURL(zoom, center)})
}

// titleParam reads the {title} path segment. chi matches against the raw
// path when the request carries one (a title containing "/"), in which case
// the segment is still percent-encoded.
func titleParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	title := chi.URLParam(r, "title")
	var err error
	if r.URL.RawPath != "" {
		title, err = url.PathUnescape(title)
	}
	if err != nil || strings.TrimSpace(title) == "" {
		writeError(w, &wiki.ValidationError{Field: "title", Message: "is required"})
		return "", false
	}
	return title, true
}

func parsePoint(q url.Values) (geo.Point, error) {
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return geo.Point{}, &wiki.ValidationError{Field: "lat", Message: "must be a number"}
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return geo.Point{}, &wiki.ValidationError{Field: "lon", Message: "must be a number"}
	}
	p := geo.Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return geo.Point{}, &wiki.ValidationError{Field: "lat/lon", Message: "out of range"}
	}
	return p, nil
}

// statusFor maps the wiki error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	var (
		validation *wiki.ValidationError
		authErr    *wiki.AuthError
		searchErr  *wiki.SearchError
		editErr    *wiki.EditError
		statusErr  *wiki.StatusError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case wiki.IsNotAuthenticated(err), errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &searchErr), errors.As(err, &editErr):
		return http.StatusBadGateway
	case errors.As(err, &statusErr):
		if statusErr.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
