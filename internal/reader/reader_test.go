package reader

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/bookmapapp/bookmap/internal/config"
)

// fakeSource renders solid-color pages; the color encodes the page number
// so tests can tell pages apart.
type fakeSource struct {
	pages     int
	renderErr error
}

func (f *fakeSource) PageCount() int { return f.pages }

func (f *fakeSource) RenderPage(ctx context.Context, page, width int) (image.Image, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	if page < 1 || page > f.pages {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, width))
	img.Set(0, 0, color.RGBA{R: uint8(page)})
	return img, nil
}

func pageOf(img image.Image) int {
	r, _, _, _ := img.At(0, 0).RGBA()
	return int(r >> 8)
}

// recordingView captures render output.
type recordingView struct {
	mu           sync.Mutex
	clears       int
	left, right  *Canvas
	lastTurn     Direction
	shows        int
	thumbs       []Thumbnail
	activeThumb  int
	sliderValue  int
	sliderTotal  int
	panelVisible *bool
}

func (v *recordingView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clears++
	v.left, v.right = nil, nil
	v.thumbs = nil
	v.activeThumb = 0
}
func (v *recordingView) ShowPages(left, right *Canvas, turn Direction) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.left, v.right, v.lastTurn = left, right, turn
	v.shows++
}
func (v *recordingView) SetThumbnails(thumbs []Thumbnail) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.thumbs = thumbs
}
func (v *recordingView) SetActiveThumbnail(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.activeThumb = page
}
func (v *recordingView) SetSlider(current, total int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sliderValue, v.sliderTotal = current, total
}
func (v *recordingView) SetPanelVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panelVisible = &visible
}

func (v *recordingView) pages() (left, right int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.left != nil {
		left = v.left.Page
	}
	if v.right != nil {
		right = v.right.Page
	}
	return
}

func testReaderConfig() config.ReaderConfig {
	return config.DefaultConfig().Reader
}

func newLoadedSession(t *testing.T, pages, w, h int) (*Session, *recordingView) {
	t.Helper()
	view := &recordingView{}
	s := NewSession(testReaderConfig(), view)
	if err := s.Load(context.Background(), &fakeSource{pages: pages}, w, h); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, view
}

func TestLoadStartsOnPageOne(t *testing.T) {
	s, view := newLoadedSession(t, 10, 800, 600)

	st := s.State()
	if st.CurrentPage != 1 || st.TotalPages != 10 {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.Mode != ModeSingle {
		t.Errorf("expected single mode at 800px, got %q", st.Mode)
	}
	left, right := view.pages()
	if left != 1 || right != 0 {
		t.Errorf("expected only page 1 rendered, got %d/%d", left, right)
	}
	if len(view.thumbs) != 10 {
		t.Errorf("expected 10 thumbnails, got %d", len(view.thumbs))
	}
	if view.activeThumb != 1 {
		t.Errorf("expected thumbnail 1 active, got %d", view.activeThumb)
	}
}

func TestSpreadModeAtWideViewport(t *testing.T) {
	s, view := newLoadedSession(t, 10, 1200, 800)

	if st := s.State(); st.Mode != ModeSpread {
		t.Fatalf("expected spread mode, got %q", st.Mode)
	}
	left, right := view.pages()
	if left != 1 || right != 2 {
		t.Errorf("expected pages 1 and 2, got %d/%d", left, right)
	}
}

func TestSpreadPageFiveShowsFiveAndSix(t *testing.T) {
	s, view := newLoadedSession(t, 10, 1200, 800)

	if err := s.SetPage(context.Background(), 5); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	left, right := view.pages()
	if left != 5 || right != 6 {
		t.Errorf("expected pages 5 and 6, got %d/%d", left, right)
	}

	// Shrinking below the threshold without a user override switches to
	// single-page mode showing page 5 only.
	if err := s.Resize(context.Background(), 900, 800); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if st := s.State(); st.Mode != ModeSingle {
		t.Fatalf("expected single mode after shrink, got %q", st.Mode)
	}
	left, right = view.pages()
	if left != 5 || right != 0 {
		t.Errorf("expected page 5 only, got %d/%d", left, right)
	}
}

func TestSpreadRightPageOmittedAtDocumentEnd(t *testing.T) {
	s, view := newLoadedSession(t, 5, 1200, 800)

	if err := s.SetPage(context.Background(), 5); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	left, right := view.pages()
	if left != 5 || right != 0 {
		t.Errorf("expected lone page 5 at document end, got %d/%d", left, right)
	}
}

func TestSingleDocumentNeverSpreads(t *testing.T) {
	s, _ := newLoadedSession(t, 1, 1920, 1080)
	if st := s.State(); st.Mode != ModeSingle {
		t.Errorf("expected single mode for a one-page document, got %q", st.Mode)
	}
}

func TestUserOverrideSurvivesResize(t *testing.T) {
	s, _ := newLoadedSession(t, 10, 1200, 800)

	if err := s.SetViewMode(context.Background(), ModeSingle); err != nil {
		t.Fatalf("SetViewMode: %v", err)
	}
	if err := s.Resize(context.Background(), 1600, 900); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if st := s.State(); st.Mode != ModeSingle || !st.UserForced {
		t.Errorf("expected forced single mode to survive resize, got %+v", st)
	}
}

func TestLoadResetsUserOverride(t *testing.T) {
	s, _ := newLoadedSession(t, 10, 1200, 800)

	if err := s.SetViewMode(context.Background(), ModeSingle); err != nil {
		t.Fatalf("SetViewMode: %v", err)
	}
	if err := s.Load(context.Background(), &fakeSource{pages: 4}, 1200, 800); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	st := s.State()
	if st.UserForced {
		t.Error("expected override cleared by new load")
	}
	if st.Mode != ModeSpread {
		t.Errorf("expected automatic spread mode after reload, got %q", st.Mode)
	}
}

func TestNavigationClampsToBounds(t *testing.T) {
	s, view := newLoadedSession(t, 3, 800, 600)
	ctx := context.Background()

	// Prev at page 1 is a no-op.
	if err := s.Prev(ctx); err != nil {
		t.Fatalf("Prev: %v", err)
	}
	if st := s.State(); st.CurrentPage != 1 {
		t.Errorf("expected page 1 after Prev at start, got %d", st.CurrentPage)
	}

	for i := 0; i < 10; i++ {
		if err := s.Next(ctx); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if st := s.State(); st.CurrentPage != 3 {
		t.Errorf("expected clamp at page 3, got %d", st.CurrentPage)
	}

	// Direct out-of-range requests are no-ops too.
	if err := s.SetPage(ctx, 99); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if err := s.SetPage(ctx, 0); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if st := s.State(); st.CurrentPage != 3 {
		t.Errorf("expected page unchanged by out-of-range requests, got %d", st.CurrentPage)
	}
	if left, _ := view.pages(); left != 3 {
		t.Errorf("expected canvas on page 3, got %d", left)
	}
}

func TestNavigationDirectionSelectsTurnAnimation(t *testing.T) {
	s, view := newLoadedSession(t, 10, 800, 600)
	ctx := context.Background()

	s.Next(ctx)
	if view.lastTurn != DirForward {
		t.Errorf("expected forward turn, got %q", view.lastTurn)
	}
	s.Prev(ctx)
	if view.lastTurn != DirBack {
		t.Errorf("expected back turn, got %q", view.lastTurn)
	}
	s.SetPage(ctx, 7)
	if view.lastTurn != DirForward {
		t.Errorf("expected forward turn for jump ahead, got %q", view.lastTurn)
	}
	s.SetPage(ctx, 2)
	if view.lastTurn != DirBack {
		t.Errorf("expected back turn for jump back, got %q", view.lastTurn)
	}
}

func TestTapZones(t *testing.T) {
	s, _ := newLoadedSession(t, 10, 800, 600)
	ctx := context.Background()

	s.SetPage(ctx, 5)
	s.TapZone(ctx, 0.9) // right third
	if st := s.State(); st.CurrentPage != 6 {
		t.Errorf("expected page 6 after right tap, got %d", st.CurrentPage)
	}
	s.TapZone(ctx, 0.1) // left third
	if st := s.State(); st.CurrentPage != 5 {
		t.Errorf("expected page 5 after left tap, got %d", st.CurrentPage)
	}
	s.TapZone(ctx, 0.5) // middle: no-op
	if st := s.State(); st.CurrentPage != 5 {
		t.Errorf("expected middle tap to be a no-op, got page %d", st.CurrentPage)
	}
}

func TestArrowKeys(t *testing.T) {
	s, _ := newLoadedSession(t, 10, 800, 600)
	ctx := context.Background()

	s.ArrowKey(ctx, "ArrowRight")
	if st := s.State(); st.CurrentPage != 2 {
		t.Errorf("expected page 2, got %d", st.CurrentPage)
	}
	s.ArrowKey(ctx, "ArrowLeft")
	if st := s.State(); st.CurrentPage != 1 {
		t.Errorf("expected page 1, got %d", st.CurrentPage)
	}
	s.ArrowKey(ctx, "Escape") // ignored
	if st := s.State(); st.CurrentPage != 1 {
		t.Errorf("expected ignored key to be a no-op, got page %d", st.CurrentPage)
	}
}

func TestSpreadNavigationStepsTwoPages(t *testing.T) {
	s, view := newLoadedSession(t, 10, 1200, 800)
	ctx := context.Background()

	s.Next(ctx)
	left, right := view.pages()
	if left != 3 || right != 4 {
		t.Errorf("expected spread 3/4 after Next, got %d/%d", left, right)
	}
}

func TestThumbnailClickJumpsAndCollapsesOnNarrowViewport(t *testing.T) {
	s, view := newLoadedSession(t, 10, 700, 500)
	ctx := context.Background()

	if err := s.ThumbnailClick(ctx, 4); err != nil {
		t.Fatalf("ThumbnailClick: %v", err)
	}
	if st := s.State(); st.CurrentPage != 4 {
		t.Errorf("expected page 4, got %d", st.CurrentPage)
	}
	if view.activeThumb != 4 {
		t.Errorf("expected thumbnail 4 active, got %d", view.activeThumb)
	}
	st := s.State()
	if st.PanelOpen {
		t.Error("expected panel auto-collapsed on narrow viewport")
	}
}

func TestThumbnailPanelStaysOpenOnWideViewport(t *testing.T) {
	s, _ := newLoadedSession(t, 10, 1400, 900)
	if err := s.ThumbnailClick(context.Background(), 4); err != nil {
		t.Fatalf("ThumbnailClick: %v", err)
	}
	if st := s.State(); !st.PanelOpen {
		t.Error("expected panel to stay open on wide viewport")
	}
}

func TestSliderSync(t *testing.T) {
	s, view := newLoadedSession(t, 10, 800, 600)
	s.SetPage(context.Background(), 7)

	view.mu.Lock()
	defer view.mu.Unlock()
	if view.sliderValue != 7 || view.sliderTotal != 10 {
		t.Errorf("expected slider 7/10, got %d/%d", view.sliderValue, view.sliderTotal)
	}
}

func TestLoadingNewDocumentClearsOldContent(t *testing.T) {
	s, view := newLoadedSession(t, 10, 800, 600)
	ctx := context.Background()
	s.SetPage(ctx, 9)

	clearsBefore := view.clears
	if err := s.Load(ctx, &fakeSource{pages: 3}, 800, 600); err != nil {
		t.Fatalf("second Load: %v", err)
	}

	if view.clears != clearsBefore+1 {
		t.Error("expected view cleared before the new document rendered")
	}
	st := s.State()
	if st.CurrentPage != 1 || st.TotalPages != 3 {
		t.Errorf("expected fresh state 1/3, got %d/%d", st.CurrentPage, st.TotalPages)
	}
	if len(view.thumbs) != 3 {
		t.Errorf("expected 3 thumbnails from document B, got %d", len(view.thumbs))
	}
	if got := pageOf(view.thumbs[0].Image); got != 1 {
		t.Errorf("expected thumbnail content from the new document, got page %d", got)
	}
	if left, _ := view.pages(); left != 1 {
		t.Errorf("expected canvas on page 1 of document B, got %d", left)
	}
}

func TestLoadFailureLeavesResetState(t *testing.T) {
	s, view := newLoadedSession(t, 10, 800, 600)
	ctx := context.Background()

	err := s.Load(ctx, &fakeSource{pages: 0}, 800, 600)
	if err == nil {
		t.Fatal("expected error for empty document")
	}
	st := s.State()
	if st.CurrentPage != 0 || st.TotalPages != 0 {
		t.Errorf("expected reset state, got %+v", st)
	}
	if len(view.thumbs) != 0 {
		t.Error("expected no thumbnails after failed load")
	}

	err = s.Load(ctx, &fakeSource{pages: 3, renderErr: errors.New("decode failed")}, 800, 600)
	if err == nil {
		t.Fatal("expected render error surfaced")
	}
	if st := s.State(); st.TotalPages != 0 {
		t.Errorf("expected reset state after render failure, got %+v", st)
	}
}

func TestNavigationBeforeLoadIsNoOp(t *testing.T) {
	s := NewSession(testReaderConfig(), &recordingView{})
	ctx := context.Background()
	if err := s.Next(ctx); err != nil {
		t.Fatalf("Next before load: %v", err)
	}
	if err := s.SetPage(ctx, 3); err != nil {
		t.Fatalf("SetPage before load: %v", err)
	}
	if st := s.State(); st.CurrentPage != 0 {
		t.Errorf("expected untouched state, got %+v", st)
	}
}
