// Package mapview implements the map module: a per-client session that owns
// viewport loading, filtering, marker and heatmap rendering, the popup, the
// sidebar, and search dispatch. All state lives on the Session; there are
// no package-level globals.
package mapview

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/bookmapapp/bookmap/internal/catalog"
	"github.com/bookmapapp/bookmap/internal/config"
	"github.com/bookmapapp/bookmap/internal/geo"
	"github.com/bookmapapp/bookmap/internal/geocode"
)

// Catalog is the data loader the session fetches books through.
// *catalog.Client implements it against the HTTP API.
type Catalog interface {
	BooksInBBox(ctx context.Context, r geo.Rect) ([]catalog.Book, error)
	Search(ctx context.Context, query string) ([]catalog.Book, error)
	CreateBook(ctx context.Context, req catalog.CreateBookRequest, pdf io.Reader, pdfName string) error
}

// Projector converts a geographic point to screen coordinates. Projection
// can fail for points outside the view frustum.
type Projector interface {
	Project(lat, lng float64) (x, y float64, ok bool)
}

// entityRef associates a rendered handle with its originating book and
// location. The table is rebuilt atomically on every render pass.
type entityRef struct {
	book     catalog.Book
	location catalog.Location
}

// Session is one client's map module instance.
type Session struct {
	cfg      config.MapConfig
	catalog  Catalog
	geocoder geocode.Geocoder
	surface  Surface
	emitter  Emitter

	mu         sync.Mutex
	books      []catalog.Book // last loaded book list
	filters    FilterState
	heatmap    bool
	entities   map[Handle]entityRef
	viewport   geo.Rect
	popupShown bool
	submitting bool
	gen        uint64 // book-load generation; stale responses are discarded

	projector Projector
	screenW   float64
	screenH   float64

	moveTimer   Debouncer
	searchTimer Debouncer
	settleTimer Debouncer
}

// NewSession creates a map session. emitter may be nil.
func NewSession(cfg config.MapConfig, cat Catalog, geocoder geocode.Geocoder, surface Surface, emitter Emitter) *Session {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	s := &Session{
		cfg:      cfg,
		catalog:  cat,
		geocoder: geocoder,
		surface:  surface,
		emitter:  emitter,
		entities: map[Handle]entityRef{},
	}
	surface.SetClustering(ClusterConfig{
		PixelRange:  cfg.ClusterPixelRange,
		MinimumSize: cfg.ClusterMinSize,
	})
	return s
}

// SetScreen configures the projector and viewport pixel size used for popup
// positioning.
func (s *Session) SetScreen(p Projector, width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projector = p
	s.screenW = width
	s.screenH = height
}

// Close cancels all pending debounced work.
func (s *Session) Close() {
	s.moveTimer.Stop()
	s.searchTimer.Stop()
	s.settleTimer.Stop()
}

// CameraMoveStart handles the start of camera movement: the popup is
// dismissed before any new load can begin, and a pending load is canceled.
func (s *Session) CameraMoveStart() {
	s.moveTimer.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidePopupLocked()
}

// CameraMoveEnd records the new viewport and schedules a load after the
// configured quiet period. Another move before the period elapses cancels
// the pending load.
func (s *Session) CameraMoveEnd(viewport geo.Rect) {
	s.mu.Lock()
	s.viewport = viewport
	s.mu.Unlock()
	s.moveTimer.Trigger(s.debounce(), s.loadViewport)
}

// SetFilters updates the tag and category filters and re-renders.
func (s *Session) SetFilters(tag, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = FilterState{Tag: tag, Category: category}
	s.renderLocked()
}

// SetHeatmap toggles the heatmap layer and re-renders.
func (s *Session) SetHeatmap(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heatmap = enabled
	s.renderLocked()
}

// Filters returns the current filter state.
func (s *Session) Filters() FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Books returns the last loaded book list.
func (s *Session) Books() []catalog.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Book, len(s.books))
	copy(out, s.books)
	return out
}

// loadViewport fetches books for the padded viewport and applies the
// result unless a newer load has been issued since.
func (s *Session) loadViewport() {
	s.mu.Lock()
	if s.viewport.IsEmpty() {
		s.mu.Unlock()
		return
	}
	rect := s.viewport.Padded(s.cfg.PaddingDeg)
	gen := s.nextGenLocked()
	s.mu.Unlock()

	books, err := s.catalog.BooksInBBox(context.Background(), rect)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return // superseded by a newer load
	}
	if err != nil {
		log.Printf("mapview: viewport load: %v", err)
		s.emitter.Notice(NoticeError, "loading books failed")
		return
	}
	s.books = books
	s.renderLocked()
}

// nextGenLocked stamps a new book-load generation. Responses carrying an
// older generation are discarded, so the last-issued request always wins.
func (s *Session) nextGenLocked() uint64 {
	s.gen++
	return s.gen
}

// renderLocked runs the full filter/render pipeline: markers, heatmap, and
// sidebar, all from the same filtered list.
func (s *Session) renderLocked() {
	filtered := Filter(s.books, s.filters)
	s.renderMarkersLocked(filtered)
	s.renderHeatmapLocked(filtered)
	s.emitter.Sidebar(len(filtered), s.cards(filtered))
}

func (s *Session) debounce() time.Duration {
	return time.Duration(s.cfg.DebounceMs) * time.Millisecond
}
