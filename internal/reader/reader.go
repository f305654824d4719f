// Package reader implements the page reader module: a single-document
// pagination session with spread/single view modes and a thumbnail strip.
package reader

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bookmapapp/bookmap/internal/config"
)

// ViewMode selects between one and two visible pages.
type ViewMode string

const (
	ModeSingle ViewMode = "single"
	ModeSpread ViewMode = "spread"
)

// Direction records which way the last navigation went, selecting the
// page-turn animation.
type Direction string

const (
	DirNone    Direction = ""
	DirForward Direction = "forward"
	DirBack    Direction = "back"
)

// Source supplies a document's pages. Decoding is the source's concern.
type Source interface {
	PageCount() int
	RenderPage(ctx context.Context, page, width int) (image.Image, error)
}

// Canvas is one rendered page.
type Canvas struct {
	Page  int
	Image image.Image
}

// Thumbnail is one entry of the thumbnail strip.
type Thumbnail struct {
	Page  int
	Image image.Image
}

// View receives the session's render output. ShowPages is called only
// after all page renders for a navigation have completed, so the page-turn
// animation never reveals a half-drawn spread.
type View interface {
	Clear()
	ShowPages(left, right *Canvas, turn Direction)
	SetThumbnails(thumbs []Thumbnail)
	SetActiveThumbnail(page int)
	SetSlider(current, total int)
	SetPanelVisible(visible bool)
}

type nopView struct{}

func (nopView) Clear()                      {}
func (nopView) ShowPages(*Canvas, *Canvas, Direction) {}
func (nopView) SetThumbnails([]Thumbnail)   {}
func (nopView) SetActiveThumbnail(int)      {}
func (nopView) SetSlider(int, int)          {}
func (nopView) SetPanelVisible(bool)        {}

// State is a snapshot of the session's pagination state.
type State struct {
	CurrentPage int
	TotalPages  int
	Mode        ViewMode
	UserForced  bool
	PanelOpen   bool
}

// Session is a single-document reader. Loading a new document fully resets
// it; nothing leaks between documents.
type Session struct {
	cfg  config.ReaderConfig
	view View

	mu         sync.Mutex
	src        Source
	current    int // 1-based
	total      int
	mode       ViewMode
	userForced bool
	panelOpen  bool
	viewportW  int
	viewportH  int
}

// NewSession creates a reader session. view may be nil.
func NewSession(cfg config.ReaderConfig, view View) *Session {
	if view == nil {
		view = nopView{}
	}
	return &Session{cfg: cfg, view: view, panelOpen: true}
}

// State returns a snapshot of the pagination state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		CurrentPage: s.current,
		TotalPages:  s.total,
		Mode:        s.mode,
		UserForced:  s.userForced,
		PanelOpen:   s.panelOpen,
	}
}

// Load replaces the current document. State, canvases, and thumbnails are
// hard-reset before the new document renders; a load failure leaves the
// session in the reset empty state.
func (s *Session) Load(ctx context.Context, src Source, viewportW, viewportH int) error {
	s.mu.Lock()
	s.resetLocked()
	s.viewportW = viewportW
	s.viewportH = viewportH
	s.view.Clear()

	if src == nil || src.PageCount() < 1 {
		s.mu.Unlock()
		err := fmt.Errorf("document has no pages")
		log.Printf("reader: load: %v", err)
		return err
	}

	s.src = src
	s.total = src.PageCount()
	s.current = 1
	s.mode = s.autoModeLocked()
	s.mu.Unlock()

	if err := s.buildThumbnails(ctx); err != nil {
		s.mu.Lock()
		s.resetLocked()
		s.view.Clear()
		s.mu.Unlock()
		log.Printf("reader: load thumbnails: %v", err)
		return err
	}
	return s.render(ctx, DirNone)
}

// resetLocked clears all document state.
func (s *Session) resetLocked() {
	s.src = nil
	s.current = 0
	s.total = 0
	s.mode = ModeSingle
	s.userForced = false
}

// autoModeLocked picks the view mode from the viewport dimensions: spread
// when both thresholds are met and the document has more than one page.
func (s *Session) autoModeLocked() ViewMode {
	if s.total > 1 && s.viewportW >= s.cfg.SpreadMinWidth && s.viewportH >= s.cfg.SpreadMinHeight {
		return ModeSpread
	}
	return ModeSingle
}

// Next advances to the next page or spread.
func (s *Session) Next(ctx context.Context) error {
	return s.goTo(ctx, s.targetPage(+1), DirForward)
}

// Prev goes back one page or spread.
func (s *Session) Prev(ctx context.Context) error {
	return s.goTo(ctx, s.targetPage(-1), DirBack)
}

// SetPage jumps directly to a page, as the slider does.
func (s *Session) SetPage(ctx context.Context, page int) error {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	dir := DirForward
	if page < current {
		dir = DirBack
	}
	return s.goTo(ctx, page, dir)
}

// TapZone handles a click on the viewer at the given horizontal fraction:
// the left third goes back, the right third goes forward.
func (s *Session) TapZone(ctx context.Context, xFrac float64) error {
	switch {
	case xFrac < 1.0/3:
		return s.Prev(ctx)
	case xFrac > 2.0/3:
		return s.Next(ctx)
	}
	return nil
}

// ArrowKey handles left/right arrow presses. Other keys are ignored.
func (s *Session) ArrowKey(ctx context.Context, key string) error {
	switch key {
	case "ArrowLeft":
		return s.Prev(ctx)
	case "ArrowRight":
		return s.Next(ctx)
	}
	return nil
}

// ThumbnailClick jumps to the clicked page. On narrow viewports the side
// panel auto-collapses afterwards.
func (s *Session) ThumbnailClick(ctx context.Context, page int) error {
	err := s.SetPage(ctx, page)

	s.mu.Lock()
	if s.panelOpen && s.viewportW > 0 && s.viewportW < s.cfg.SpreadMinWidth {
		s.panelOpen = false
		s.view.SetPanelVisible(false)
	}
	s.mu.Unlock()
	return err
}

// TogglePanel flips the thumbnail panel's visibility.
func (s *Session) TogglePanel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = !s.panelOpen
	s.view.SetPanelVisible(s.panelOpen)
}

// SetViewMode applies a user-initiated mode override. It sticks until the
// next Load, regardless of later resizes.
func (s *Session) SetViewMode(ctx context.Context, mode ViewMode) error {
	s.mu.Lock()
	if s.src == nil || (mode != ModeSingle && mode != ModeSpread) {
		s.mu.Unlock()
		return nil
	}
	s.userForced = true
	if s.mode == mode {
		s.mu.Unlock()
		return nil
	}
	s.mode = mode
	s.mu.Unlock()
	return s.render(ctx, DirNone)
}

// Resize updates the viewport dimensions. The automatic mode choice is
// re-evaluated unless the user has forced a mode.
func (s *Session) Resize(ctx context.Context, viewportW, viewportH int) error {
	s.mu.Lock()
	s.viewportW = viewportW
	s.viewportH = viewportH
	if s.src == nil || s.userForced {
		s.mu.Unlock()
		return nil
	}
	mode := s.autoModeLocked()
	if mode == s.mode {
		s.mu.Unlock()
		return nil
	}
	s.mode = mode
	s.mu.Unlock()
	return s.render(ctx, DirNone)
}

// targetPage computes the destination for a relative move, stepping two
// pages in spread mode.
func (s *Session) targetPage(sign int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	step := 1
	if s.mode == ModeSpread {
		step = 2
	}
	return s.current + sign*step
}

// goTo is the single navigation funnel: it clamps, records the direction,
// and renders. Requests outside [1, totalPages] are no-ops.
func (s *Session) goTo(ctx context.Context, page int, dir Direction) error {
	s.mu.Lock()
	if s.src == nil || page < 1 || page > s.total || page == s.current {
		s.mu.Unlock()
		return nil
	}
	s.current = page
	s.mu.Unlock()
	return s.render(ctx, dir)
}

// render draws the current page (and its spread partner when applicable).
// Both page renders run concurrently and are joined before the view is
// updated, so the turn animation is removed only once both are ready.
func (s *Session) render(ctx context.Context, dir Direction) error {
	s.mu.Lock()
	src := s.src
	if src == nil {
		s.mu.Unlock()
		return nil
	}
	current, total, mode := s.current, s.total, s.mode
	width := s.pageWidthLocked()
	s.mu.Unlock()

	left := &Canvas{Page: current}
	var right *Canvas
	if mode == ModeSpread && current+1 <= total {
		right = &Canvas{Page: current + 1}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := src.RenderPage(gctx, left.Page, width)
		if err != nil {
			return fmt.Errorf("rendering page %d: %w", left.Page, err)
		}
		left.Image = img
		return nil
	})
	if right != nil {
		g.Go(func() error {
			img, err := src.RenderPage(gctx, right.Page, width)
			if err != nil {
				return fmt.Errorf("rendering page %d: %w", right.Page, err)
			}
			right.Image = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("reader: %v", err)
		return err
	}

	s.view.ShowPages(left, right, dir)
	s.view.SetActiveThumbnail(current)
	s.view.SetSlider(current, total)
	return nil
}

// pageWidthLocked is the render width for a main canvas: half the viewport
// in spread mode, the full viewport otherwise.
func (s *Session) pageWidthLocked() int {
	w := s.viewportW
	if w <= 0 {
		w = 800
	}
	if s.mode == ModeSpread {
		w /= 2
	}
	return w
}

// buildThumbnails renders the fixed low-resolution strip, one per page.
func (s *Session) buildThumbnails(ctx context.Context) error {
	s.mu.Lock()
	src := s.src
	total := s.total
	width := s.cfg.ThumbnailWidth
	s.mu.Unlock()

	thumbs := make([]Thumbnail, 0, total)
	for p := 1; p <= total; p++ {
		img, err := src.RenderPage(ctx, p, width)
		if err != nil {
			return fmt.Errorf("thumbnail for page %d: %w", p, err)
		}
		thumbs = append(thumbs, Thumbnail{Page: p, Image: img})
	}
	s.view.SetThumbnails(thumbs)
	s.view.SetActiveThumbnail(1)
	return nil
}
