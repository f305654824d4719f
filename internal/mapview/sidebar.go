package mapview

import (
	"bytes"
	"log"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bookmapapp/bookmap/internal/catalog"
	"github.com/bookmapapp/bookmap/internal/geo"
)

// placeholderCover is shown for books without a cover image.
const placeholderCover = "/static/cover-placeholder.png"

var (
	descMarkdown  = goldmark.New(goldmark.WithExtensions(extension.GFM))
	descSanitizer = bluemonday.UGCPolicy()
)

// cards builds the sidebar view models for a filtered book list. Book
// descriptions are rendered from markdown and sanitized.
func (s *Session) cards(books []catalog.Book) []Card {
	cards := make([]Card, 0, len(books))
	for _, b := range books {
		cover := b.CoverURL
		if cover == "" {
			cover = placeholderCover
		}
		cards = append(cards, Card{
			BookID:          b.ID,
			Title:           b.Title,
			Author:          b.Author,
			Year:            b.Year,
			CoverURL:        cover,
			HasDocument:     b.HasDocument(),
			DescriptionHTML: renderDescription(b.Description),
		})
	}
	return cards
}

func renderDescription(md string) string {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := descMarkdown.Convert([]byte(md), &buf); err != nil {
		log.Printf("mapview: rendering description: %v", err)
		return ""
	}
	return descSanitizer.Sanitize(buf.String())
}

// CardClick flies the camera to the clicked book's primary location. Books
// without a location are ignored.
func (s *Session) CardClick(bookID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.books {
		if b.ID != bookID {
			continue
		}
		if loc := b.PrimaryLocation(); loc != nil {
			s.emitter.FlyTo(geo.RectFromDegrees(loc.Lat, loc.Lng, loc.Lat, loc.Lng).Padded(s.cfg.PaddingDeg))
		}
		return
	}
}
