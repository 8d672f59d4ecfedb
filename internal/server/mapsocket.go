package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/viewport"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// mapRequest is the incoming WebSocket message format.
type mapRequest struct {
	Type     string        `json:"type"` // "viewport", "auto_search" or "search"
	Viewport *geo.Viewport `json:"viewport,omitempty"`
	Enabled  bool          `json:"enabled,omitempty"`
}

// mapResponse is the outgoing WebSocket message format.
type mapResponse struct {
	Type       string                `json:"type"` // "markers", "mode" or "error"
	Generation uint64                `json:"generation,omitempty"`
	Markers    []wiki.ArticleSummary `json:"markers,omitempty"`
	AutoSearch *bool                 `json:"auto_search,omitempty"`
	Message    string                `json:"message,omitempty"`
}

// mapConn is one browser map. It owns its viewport controller.
type mapConn struct {
	conn *websocket.Conn
	ctrl *viewport.Controller

	writeMu sync.Mutex
}

func (s *Server) handleMapSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: s.allowRequest}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	mc := &mapConn{
		conn: conn,
		ctrl: viewport.New(s.wiki, viewport.Options{
			DefaultCenter: s.cfg.DefaultCenter,
			DefaultRadius: s.cfg.DefaultRadius,
			Limit:         s.cfg.Limit,
			AutoSearch:    s.cfg.AutoSearch,
		}),
	}
	mc.ctrl.OnMarkers(func(gen uint64, markers []wiki.ArticleSummary) {
		if markers == nil {
			markers = []wiki.ArticleSummary{}
		}
		mc.send(mapResponse{Type: "markers", Generation: gen, Markers: markers})
	})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	// Searches run off the read loop so a newer viewport can supersede an
	// older search that is still in flight.
	run := func(search func(context.Context) (viewport.Result, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := search(ctx); err != nil && ctx.Err() == nil {
				mc.sendError(err.Error())
			}
		}()
	}

	run(mc.ctrl.InitialLoad)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req mapRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			mc.sendError("invalid message format")
			continue
		}

		switch req.Type {
		case "viewport":
			if req.Viewport == nil || !req.Viewport.Center.Valid() {
				mc.sendError("viewport with a valid center is required")
				continue
			}
			vp := *req.Viewport
			run(func(ctx context.Context) (viewport.Result, error) {
				return mc.ctrl.HandleViewportChange(ctx, vp)
			})
		case "auto_search":
			mc.ctrl.SetAutoSearch(req.Enabled)
			enabled := mc.ctrl.Mode() == viewport.AutoSearchEnabled
			mc.send(mapResponse{Type: "mode", AutoSearch: &enabled})
		case "search":
			vp, ok := mc.ctrl.Viewport()
			if !ok {
				run(mc.ctrl.InitialLoad)
				continue
			}
			run(func(ctx context.Context) (viewport.Result, error) {
				return mc.ctrl.Search(ctx, vp.Center, geo.SearchRadius(vp))
			})
		default:
			mc.sendError("unknown message type: " + req.Type)
		}
	}
}

// writeWait bounds a single websocket write. Marker pushes run under the
// viewport controller's lock, so a client that stops reading must not hold
// them up indefinitely.
var writeWait = 10 * time.Second

// send writes one message. A failed write closes the connection, which ends
// the read loop.
func (mc *mapConn) send(resp mapResponse) error {
	mc.writeMu.Lock()
	defer mc.writeMu.Unlock()
	mc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := mc.conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
		mc.conn.Close()
		return err
	}
	return nil
}

func (mc *mapConn) sendError(message string) {
	mc.send(mapResponse{Type: "error", Message: message})
}
