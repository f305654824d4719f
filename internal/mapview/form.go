package mapview

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/bookmapapp/bookmap/internal/catalog"
	"github.com/bookmapapp/bookmap/internal/geocode"
)

// BookForm is the add-book form input. PDF may be nil.
type BookForm struct {
	Title       string
	Author      string
	Place       string
	Country     string
	Year        int
	Category    string
	Tags        []string
	CoverURL    string
	Description string
	PDF         io.Reader
	PDFName     string
}

// ErrSubmitInProgress is returned while an earlier submission is running;
// the submit control stays disabled until it finishes.
var ErrSubmitInProgress = errors.New("submission already in progress")

// SubmitBook validates the form, resolves the place to coordinates, and
// submits the book (with its optional document) to the catalog. On success
// the form is reset and the viewport reloaded.
func (s *Session) SubmitBook(ctx context.Context, form BookForm) error {
	if msg := validateForm(form); msg != "" {
		s.emitter.Notice(NoticeAlert, msg)
		return errors.New(msg)
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmitInProgress
	}
	s.submitting = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	place, err := s.geocoder.Resolve(ctx, form.Place)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			s.emitter.Notice(NoticeAlert, "could not find place: "+form.Place)
		} else {
			log.Printf("mapview: form geocoding %q: %v", form.Place, err)
			s.emitter.Notice(NoticeError, "place lookup failed")
		}
		return err
	}

	country := form.Country
	if country == "" {
		country = countryFromDisplayName(place.DisplayName)
	}

	req := catalog.CreateBookRequest{
		Title:       form.Title,
		Author:      form.Author,
		Year:        form.Year,
		Category:    form.Category,
		Tags:        form.Tags,
		CoverURL:    form.CoverURL,
		Description: form.Description,
		Locations: []catalog.LocationInput{{
			Geo:       catalog.GeoPoint{Type: "Point", Coordinates: [2]float64{place.Lng, place.Lat}},
			PlaceName: form.Place,
			Country:   country,
		}},
	}

	if err := s.catalog.CreateBook(ctx, req, form.PDF, form.PDFName); err != nil {
		s.emitter.Notice(NoticeError, err.Error())
		return err
	}

	s.emitter.FormReset()
	s.loadViewport()
	return nil
}

func validateForm(form BookForm) string {
	switch {
	case strings.TrimSpace(form.Title) == "":
		return "title is required"
	case strings.TrimSpace(form.Author) == "":
		return "author is required"
	case strings.TrimSpace(form.Place) == "":
		return "place is required"
	}
	return ""
}

// countryFromDisplayName takes the last comma-separated component of a
// geocoder display name, which Nominatim puts the country in.
func countryFromDisplayName(name string) string {
	parts := strings.Split(name, ",")
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}
