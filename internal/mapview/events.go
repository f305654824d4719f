package mapview

import "github.com/bookmapapp/bookmap/internal/geo"

// Card is one sidebar entry for a filtered book.
type Card struct {
	BookID          string `json:"book_id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Year            int    `json:"year,omitempty"`
	CoverURL        string `json:"cover_url"` // placeholder when the book has none
	HasDocument     bool   `json:"has_document"`
	DescriptionHTML string `json:"description_html,omitempty"`
}

// Popup is the view model shown for a clicked marker.
type Popup struct {
	BookID      string  `json:"book_id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Year        int     `json:"year,omitempty"`
	PlaceName   string  `json:"place_name,omitempty"`
	Country     string  `json:"country,omitempty"`
	HasDocument bool    `json:"has_document"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Positioned  bool    `json:"positioned"` // false when projection failed and only clamping applied
}

// NoticeLevel classifies non-blocking notices versus blocking alerts.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
	NoticeAlert NoticeLevel = "alert" // blocking, e.g. geocoding misses
)

// Emitter receives the session's outputs that are not surface draw calls.
// Implementations must be safe for concurrent use; debounce timers fire on
// their own goroutines.
type Emitter interface {
	Sidebar(count int, cards []Card)
	PopupShown(p Popup)
	PopupHidden()
	FlyTo(r geo.Rect)
	FormReset()
	Notice(level NoticeLevel, message string)
}

// nopEmitter discards all outputs.
type nopEmitter struct{}

func (nopEmitter) Sidebar(int, []Card)        {}
func (nopEmitter) PopupShown(Popup)           {}
func (nopEmitter) PopupHidden()               {}
func (nopEmitter) FlyTo(geo.Rect)             {}
func (nopEmitter) FormReset()                 {}
func (nopEmitter) Notice(NoticeLevel, string) {}
