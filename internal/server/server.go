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

	"github.com/bookmapapp/bookmap/internal/catalog"
	appconfig "github.com/bookmapapp/bookmap/internal/config"
	"github.com/bookmapapp/bookmap/internal/geocode"
	"github.com/bookmapapp/bookmap/internal/uploads"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool   // allow all CORS origins (dev mode)
	PagesDir string // pre-rendered page images, one subdirectory per book

	Map    appconfig.MapConfig    // tuning for map sessions served over /ws/map
	Reader appconfig.ReaderConfig // tuning for reader sessions served over /ws/reader
}

// Server is the bookmap catalog server.
type Server struct {
	cfg        Config
	store      *catalog.Store
	uploads    *uploads.Store
	geocoder   geocode.Geocoder
	router     chi.Router
	httpServer *http.Server
}

// New creates a new catalog server with all dependencies.
func New(cfg Config, store *catalog.Store, uploadStore *uploads.Store, geocoder geocode.Geocoder) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		uploads:  uploadStore,
		geocoder: geocoder,
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
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/api/books-in-bbox", s.handleBooksInBBox)
	r.Get("/api/search", s.handleSearch)
	r.Post("/api/book", s.handleAddBook)
	r.Post("/api/book-with-pdf", s.handleAddBookWithPDF)
	r.Get("/pdf/{filename}", s.handleServePDF)
	r.Get("/book/{bookID}", s.handleReadBook)
	r.Get("/ws/map", s.handleMapSocket)
	r.Get("/ws/reader/{bookID}", s.handleReaderSocket)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("bookmap server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
