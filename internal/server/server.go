package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/wikiwalk/internal/audit"
	"github.com/ziadkadry99/wikiwalk/internal/auth"
	"github.com/ziadkadry99/wikiwalk/internal/db"
	"github.com/ziadkadry99/wikiwalk/internal/editor"
	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)

	// Map defaults handed to every new map connection.
	DefaultCenter geo.Point
	DefaultZoom   int
	DefaultRadius float64
	Limit         int
	AutoSearch    bool
}

// Server serves the map page, the JSON API and the map websocket. It holds
// a single wiki login session shared by all browser tabs.
type Server struct {
	cfg        Config
	db         *db.DB
	wiki       *wiki.Client
	audit      *audit.Store
	session    *auth.Session
	editor     *editor.Editor
	router     chi.Router
	httpServer *http.Server
}

// New creates a server backed by the given wiki client and database.
func New(cfg Config, database *db.DB, client *wiki.Client) *Server {
	if cfg.DefaultRadius <= 0 {
		cfg.DefaultRadius = geo.MaxRadiusMeters
	}
	auditStore := audit.NewStore(database)
	session := auth.NewSession(client, auditStore)
	s := &Server{
		cfg:     cfg,
		db:      database,
		wiki:    client,
		audit:   auditStore,
		session: session,
		editor:  editor.New(session, auditStore),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// The websocket outlives any request timeout.
	r.Get("/ws/map", s.handleMapSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", serveIndex)
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Get("/api/map", s.handleMapDefaults)
		r.Get("/api/nearby", s.handleNearby)
		r.Get("/api/osm-link", s.handleOSMLink)

		r.Route("/api/articles/{title}", func(r chi.Router) {
			r.Get("/", s.handleArticle)
			r.Get("/wikitext", s.handleWikitext)
			r.With(s.sameOrigin, jsonOnly).Post("/edit", s.handleEdit)
		})

		r.Route("/api/session", func(r chi.Router) {
			r.Get("/", s.handleSessionState)
			r.With(s.sameOrigin, jsonOnly).Post("/login", s.handleLogin)
			r.With(s.sameOrigin, jsonOnly).Post("/logout", s.handleLogout)
		})

		audit.RegisterRoutes(r, s.audit)
	})

	return r
}

// jsonOnly refuses bodies that a plain HTML form could send without a CORS
// preflight.
var jsonOnly = middleware.AllowContentType("application/json")

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Session returns the shared wiki login session.
func (s *Server) Session() *auth.Session { return s.session }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("wikiwalk server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
