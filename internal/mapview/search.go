package mapview

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bookmapapp/bookmap/internal/geocode"
)

// SearchInput handles a keystroke in the global search box. Dispatch is
// debounced so rapid typing issues a single request.
func (s *Session) SearchInput(query string) {
	s.searchTimer.Trigger(time.Duration(s.cfg.SearchDebounceMs)*time.Millisecond, func() {
		s.dispatchSearch(query)
	})
}

// dispatchSearch runs the search pipeline: an empty query reloads the
// viewport; otherwise the catalog's text search is tried first, and a query
// matching no books is resolved as a place name instead.
func (s *Session) dispatchSearch(query string) {
	if query == "" {
		s.loadViewport()
		return
	}

	s.mu.Lock()
	gen := s.nextGenLocked()
	s.mu.Unlock()

	books, err := s.catalog.Search(context.Background(), query)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	if err != nil {
		log.Printf("mapview: search %q: %v", query, err)
		s.emitter.Notice(NoticeError, "search failed")
		s.mu.Unlock()
		return
	}
	if len(books) > 0 {
		s.books = books
		s.renderLocked()
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.searchAsPlace(query)
}

// searchAsPlace resolves the query as a place name, flies to its padded
// bounding box, and reloads viewport books after the camera settles.
func (s *Session) searchAsPlace(query string) {
	if s.geocoder == nil {
		s.emitter.Notice(NoticeAlert, "no books or places found for "+query)
		return
	}

	place, err := s.geocoder.Resolve(context.Background(), query)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			s.emitter.Notice(NoticeAlert, "no books or places found for "+query)
		} else {
			log.Printf("mapview: geocoding %q: %v", query, err)
			s.emitter.Notice(NoticeError, "place lookup failed")
		}
		return
	}

	target := place.BBox.Padded(s.cfg.PaddingDeg)

	s.mu.Lock()
	s.viewport = target
	s.mu.Unlock()

	s.emitter.FlyTo(target)
	s.settleTimer.Trigger(time.Duration(s.cfg.FlyToSettleMs)*time.Millisecond, s.loadViewport)
}
