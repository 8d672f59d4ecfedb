package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/wikiwalk/internal/audit"
	"github.com/ziadkadry99/wikiwalk/internal/db"
	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/panel"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
	"github.com/ziadkadry99/wikiwalk/internal/wiki/wikitest"
)

var tokyo = geo.Point{Lat: 35.6812, Lon: 139.7671}

func setupTest(t *testing.T, cfg Config) (*Server, *wikitest.Server) {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	fake := wikitest.NewServer()
	t.Cleanup(fake.Close)
	fake.AddPage(wikitest.Page{ID: 1, Title: "Tokyo Station", Lat: 35.6812, Lon: 139.7671, Extract: "A railway station.", Wikitext: "'''Tokyo Station'''"})
	fake.AddPage(wikitest.Page{ID: 2, Title: "Imperial Palace", Lat: 35.6852, Lon: 139.7528, Extract: "Residence of the Emperor."})
	fake.AddUser("Walker", "secret")

	if cfg.DefaultCenter == (geo.Point{}) {
		cfg.DefaultCenter = tokyo
	}
	return New(cfg, database, fake.Client()), fake
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	srv, _ := setupTest(t, Config{})

	w := do(t, srv, "GET", "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := setupTest(t, Config{AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestIndexServed(t *testing.T) {
	srv, _ := setupTest(t, Config{})

	w := do(t, srv, "GET", "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/ws/map") {
		t.Error("map page does not open the map socket")
	}
}

func TestMapDefaults(t *testing.T) {
	srv, _ := setupTest(t, Config{DefaultZoom: 13, AutoSearch: true})

	var body mapDefaults
	decode(t, do(t, srv, "GET", "/api/map", nil), &body)
	if body.Center != tokyo || body.Zoom != 13 || !body.AutoSearch {
		t.Errorf("map defaults = %+v", body)
	}
}

func TestNearbyClampsRadius(t *testing.T) {
	srv, fake := setupTest(t, Config{Limit: 50})

	w := do(t, srv, "GET", "/api/nearby?lat=35.6812&lon=139.7671&radius=50000", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body nearbyResponse
	decode(t, w, &body)
	if body.Radius != 10000 {
		t.Errorf("radius = %d, want 10000", body.Radius)
	}
	if len(body.Articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(body.Articles))
	}
	if body.Articles[0].Title != "Tokyo Station" || body.Articles[0].Extract != "A railway station." {
		t.Errorf("first article = %+v", body.Articles[0])
	}
	if radii := fake.Radii(); len(radii) != 1 || radii[0] != 10000 {
		t.Errorf("upstream radii = %v, want [10000]", radii)
	}
}

func TestNearbyRejectsBadCoordinates(t *testing.T) {
	srv, fake := setupTest(t, Config{})

	for _, path := range []string{"/api/nearby", "/api/nearby?lat=abc&lon=1", "/api/nearby?lat=95&lon=0"} {
		if w := do(t, srv, "GET", path, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
	if n := fake.Requests("geosearch"); n != 0 {
		t.Errorf("geosearch requests = %d, want 0", n)
	}
}

func TestNearbyUpstreamFailure(t *testing.T) {
	srv, fake := setupTest(t, Config{})
	fake.GeosearchStatus = http.StatusServiceUnavailable

	w := do(t, srv, "GET", "/api/nearby?lat=35.6812&lon=139.7671", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestArticleNotFoundOffersFallback(t *testing.T) {
	srv, _ := setupTest(t, Config{})

	w := do(t, srv, "GET", "/api/articles/Nowhere%20In%20Particular", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var view panel.View
	decode(t, w, &view)
	if view.Detail != nil {
		t.Error("detail should be empty after a failed load")
	}
	if view.Error == "" || !strings.HasSuffix(view.FallbackURL, "/wiki/Nowhere_In_Particular") {
		t.Errorf("view = %+v", view)
	}
	if view.CanEdit {
		t.Error("edit offered without detail")
	}
}

func TestEditRequiresLogin(t *testing.T) {
	srv, fake := setupTest(t, Config{})

	w := do(t, srv, "POST", "/api/articles/Tokyo%20Station/edit", editBody{Content: "x", Summary: "y"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if fake.TotalRequests() != 0 {
		t.Errorf("expected no upstream requests, got %d", fake.TotalRequests())
	}

	if w := do(t, srv, "GET", "/api/articles/Tokyo%20Station/wikitext", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("wikitext: expected 401, got %d", w.Code)
	}
}

func TestLoginRejected(t *testing.T) {
	srv, _ := setupTest(t, Config{})

	w := do(t, srv, "POST", "/api/session/login", loginBody{Username: "Walker", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var e errorResponse
	decode(t, w, &e)
	if !strings.Contains(e.Error, "Incorrect username or password") {
		t.Errorf("error = %q", e.Error)
	}

	if w := do(t, srv, "POST", "/api/session/login", loginBody{Username: "", Password: "x"}); w.Code != http.StatusBadRequest {
		t.Errorf("empty username: expected 400, got %d", w.Code)
	}
	if srv.Session().IsAuthenticated() {
		t.Error("session authenticated after rejected login")
	}
}

func TestLoginSelectEditScenario(t *testing.T) {
	srv, fake := setupTest(t, Config{})

	// Logged out: the panel shows the article but offers no edit.
	var view panel.View
	decode(t, do(t, srv, "GET", "/api/articles/Tokyo%20Station", nil), &view)
	if view.Detail == nil || view.CanEdit {
		t.Fatalf("logged-out view = %+v", view)
	}
	if view.ExtractHTML != "<p>A railway station.</p>" {
		t.Errorf("extract_html = %q", view.ExtractHTML)
	}

	w := do(t, srv, "POST", "/api/session/login", loginBody{Username: "Walker", Password: "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var state map[string]any
	decode(t, do(t, srv, "GET", "/api/session", nil), &state)
	if state["is_authenticated"] != true || state["username"] != "Walker" {
		t.Fatalf("session state = %v", state)
	}

	decode(t, do(t, srv, "GET", "/api/articles/Tokyo%20Station", nil), &view)
	if !view.CanEdit {
		t.Fatal("edit not offered after login")
	}

	var text wikitextResponse
	decode(t, do(t, srv, "GET", "/api/articles/Tokyo%20Station/wikitext", nil), &text)
	if text.Wikitext != "'''Tokyo Station'''" {
		t.Errorf("wikitext = %q", text.Wikitext)
	}

	w = do(t, srv, "POST", "/api/articles/Tokyo%20Station/edit", editBody{Content: "'''Tokyo Station''' is big.", Summary: "expand"})
	if w.Code != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var rec wiki.EditRecord
	decode(t, w, &rec)
	if rec.Result != "Success" || rec.NewRevID == 0 {
		t.Errorf("edit record = %+v", rec)
	}

	edits := fake.Edits()
	if len(edits) != 1 || edits[0].User != "Walker" || edits[0].Summary != "expand" {
		t.Errorf("upstream edits = %+v", edits)
	}

	var entries []audit.Entry
	decode(t, do(t, srv, "GET", "/api/audit?action=edit_submitted", nil), &entries)
	if len(entries) != 1 || entries[0].Title != "Tokyo Station" || entries[0].Actor != "Walker" {
		t.Errorf("audit entries = %+v", entries)
	}

	do(t, srv, "POST", "/api/session/logout", nil)
	decode(t, do(t, srv, "GET", "/api/articles/Tokyo%20Station", nil), &view)
	if view.CanEdit {
		t.Error("edit still offered after logout")
	}
}

func TestEditValidation(t *testing.T) {
	srv, fake := setupTest(t, Config{})
	if w := do(t, srv, "POST", "/api/session/login", loginBody{Username: "Walker", Password: "secret"}); w.Code != http.StatusOK {
		t.Fatalf("login: %d", w.Code)
	}
	before := fake.TotalRequests()

	w := do(t, srv, "POST", "/api/articles/Tokyo%20Station/edit", editBody{Content: "text", Summary: "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if fake.TotalRequests() != before {
		t.Error("validation failure reached the wiki")
	}
}

func TestOSMLink(t *testing.T) {
	srv, _ := setupTest(t, Config{DefaultZoom: 13})

	var body map[string]string
	decode(t, do(t, srv, "GET", "/api/osm-link?lat=35.6812&lon=139.7671&zoom=16", nil), &body)
	if body["url"] != "https://www.openstreetmap.org/edit#map=16/35.6812/139.7671" {
		t.Errorf("url = %q", body["url"])
	}
}

func dialMap(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/map", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) mapResponse {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp mapResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp
}

func TestMapSocketMarkers(t *testing.T) {
	srv, fake := setupTest(t, Config{AutoSearch: true, Limit: 50})
	conn := dialMap(t, srv)

	initial := readMessage(t, conn)
	if initial.Type != "markers" || initial.Generation != 1 || len(initial.Markers) != 2 {
		t.Fatalf("initial message = %+v", initial)
	}

	vp := geo.Viewport{
		Center: tokyo,
		Bounds: geo.Bounds{
			NorthEast: geo.Point{Lat: 35.6830, Lon: 139.7690},
			SouthWest: geo.Point{Lat: 35.6794, Lon: 139.7652},
		},
		Zoom: 17,
	}
	if err := conn.WriteJSON(mapRequest{Type: "viewport", Viewport: &vp}); err != nil {
		t.Fatalf("write: %v", err)
	}
	moved := readMessage(t, conn)
	if moved.Type != "markers" || moved.Generation != 2 {
		t.Fatalf("viewport message = %+v", moved)
	}
	if len(moved.Markers) != 1 || moved.Markers[0].Title != "Tokyo Station" {
		t.Errorf("markers = %+v", moved.Markers)
	}

	radii := fake.Radii()
	if len(radii) != 2 || radii[1] != geo.ClampRadius(geo.SearchRadius(vp)) {
		t.Errorf("radii = %v", radii)
	}
}

func TestMapSocketAutoSearchToggle(t *testing.T) {
	srv, fake := setupTest(t, Config{AutoSearch: true})
	conn := dialMap(t, srv)
	readMessage(t, conn)

	if err := conn.WriteJSON(mapRequest{Type: "auto_search", Enabled: false}); err != nil {
		t.Fatalf("write: %v", err)
	}
	mode := readMessage(t, conn)
	if mode.Type != "mode" || mode.AutoSearch == nil || *mode.AutoSearch {
		t.Fatalf("mode message = %+v", mode)
	}

	vp := geo.Viewport{Center: tokyo, Bounds: geo.Bounds{NorthEast: tokyo, SouthWest: tokyo}, Zoom: 12}
	conn.WriteJSON(mapRequest{Type: "viewport", Viewport: &vp})
	conn.WriteJSON(mapRequest{Type: "search"})

	// The viewport event is skipped; the explicit search is generation 2.
	next := readMessage(t, conn)
	if next.Type != "markers" || next.Generation != 2 {
		t.Fatalf("message = %+v", next)
	}
	if n := fake.Requests("geosearch"); n != 2 {
		t.Errorf("geosearch requests = %d, want 2", n)
	}
}

func TestMapSocketErrors(t *testing.T) {
	srv, fake := setupTest(t, Config{})
	conn := dialMap(t, srv)
	readMessage(t, conn)

	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	if msg := readMessage(t, conn); msg.Type != "error" {
		t.Errorf("expected error for bad JSON, got %+v", msg)
	}

	conn.WriteJSON(mapRequest{Type: "teleport"})
	if msg := readMessage(t, conn); msg.Type != "error" || !strings.Contains(msg.Message, "teleport") {
		t.Errorf("expected unknown type error, got %+v", msg)
	}

	fake.GeosearchStatus = http.StatusInternalServerError
	conn.WriteJSON(mapRequest{Type: "search"})
	if msg := readMessage(t, conn); msg.Type != "error" || !strings.Contains(msg.Message, "500") {
		t.Errorf("expected search error, got %+v", msg)
	}
}

func TestArticleTitleWithSlash(t *testing.T) {
	srv, fake := setupTest(t, Config{})
	fake.AddPage(wikitest.Page{ID: 9, Title: "Ochanomizu/Surugadai", Lat: 35.6995, Lon: 139.7650, Extract: "A neighbourhood."})

	var view panel.View
	w := do(t, srv, "GET", "/api/articles/Ochanomizu%2FSurugadai", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &view)
	if view.Detail == nil || view.Detail.Title != "Ochanomizu/Surugadai" {
		t.Errorf("view = %+v", view)
	}
}

func TestCrossSiteWritesRejected(t *testing.T) {
	srv, fake := setupTest(t, Config{})
	if w := do(t, srv, "POST", "/api/session/login", loginBody{Username: "Walker", Password: "secret"}); w.Code != http.StatusOK {
		t.Fatalf("login: %d", w.Code)
	}

	post := func(path, contentType, body string, headers map[string]string) int {
		req := httptest.NewRequest("POST", path, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		return w.Code
	}
	edit := `{"content":"vandalised","summary":"pwned","x":"="}`

	tests := []struct {
		name        string
		path        string
		contentType string
		headers     map[string]string
		want        int
	}{
		{"text/plain form from another site", "/api/articles/Tokyo%20Station/edit", "text/plain", map[string]string{"Origin": "https://evil.example"}, http.StatusForbidden},
		{"text/plain without origin", "/api/articles/Tokyo%20Station/edit", "text/plain", nil, http.StatusUnsupportedMediaType},
		{"json from another site", "/api/articles/Tokyo%20Station/edit", "application/json", map[string]string{"Origin": "https://evil.example"}, http.StatusForbidden},
		{"cross-site fetch metadata", "/api/articles/Tokyo%20Station/edit", "application/json", map[string]string{"Sec-Fetch-Site": "cross-site"}, http.StatusForbidden},
		{"login from another site", "/api/session/login", "text/plain", map[string]string{"Origin": "https://evil.example"}, http.StatusForbidden},
		{"logout from another site", "/api/session/logout", "text/plain", map[string]string{"Origin": "https://evil.example"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := post(tt.path, tt.contentType, edit, tt.headers); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}

	if edits := fake.Edits(); len(edits) != 0 {
		t.Errorf("upstream edits = %+v", edits)
	}
	if !srv.Session().IsAuthenticated() {
		t.Error("cross-site logout ended the session")
	}

	// The page itself and other local dev origins still get through.
	headers := map[string]string{"Origin": "http://example.com", "Sec-Fetch-Site": "same-origin"}
	if got := post("/api/articles/Tokyo%20Station/edit", "application/json", `{"content":"ok","summary":"fix"}`, headers); got != http.StatusOK {
		t.Errorf("same-origin edit: status = %d", got)
	}
	if got := post("/api/session/logout", "application/json", "", map[string]string{"Origin": "http://localhost:5173"}); got != http.StatusOK {
		t.Errorf("local origin logout: status = %d", got)
	}
}

func TestMapSocketRejectsForeignOrigin(t *testing.T) {
	srv, _ := setupTest(t, Config{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/map", header)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v", resp)
	}
}

func TestMapSendGivesUpOnStalledClient(t *testing.T) {
	old := writeWait
	writeWait = 50 * time.Millisecond
	t.Cleanup(func() { writeWait = old })

	conns := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conns <- c
	}))
	defer ts.Close()

	// The client never reads, so the server's socket buffers fill up.
	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	mc := &mapConn{conn: <-conns}
	msg := mapResponse{Type: "error", Message: strings.Repeat("x", 64<<10)}

	start := time.Now()
	for i := 0; i < 4096; i++ {
		if err := mc.send(msg); err != nil {
			if elapsed := time.Since(start); elapsed > 5*time.Second {
				t.Errorf("write took %v to give up", elapsed)
			}
			return
		}
	}
	t.Fatal("writes to a stalled client never failed")
}
