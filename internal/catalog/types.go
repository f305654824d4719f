// Package catalog owns the book data model, its SQLite store, and the
// HTTP client used by the map session to load books.
package catalog

import "time"

// Location is one geographic placement of a book. A book may have several.
type Location struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	PlaceName string  `json:"place_name"`
	Country   string  `json:"country"`
}

// Book is a catalog entry. Created by the catalog service; the map and
// reader modules only read it.
type Book struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Year        int        `json:"year,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags"`
	CoverURL    string     `json:"cover_url,omitempty"`
	PDFFile     string     `json:"pdf_file,omitempty"`
	Description string     `json:"description,omitempty"`
	Locations   []Location `json:"locations"`
	CreatedAt   time.Time  `json:"-"`
}

// HasDocument reports whether the book has an associated PDF document.
func (b *Book) HasDocument() bool { return b.PDFFile != "" }

// PrimaryLocation returns the first location, or nil if the book has none.
func (b *Book) PrimaryLocation() *Location {
	if len(b.Locations) == 0 {
		return nil
	}
	return &b.Locations[0]
}

// GeoPoint is the GeoJSON point geometry used in creation payloads.
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lng, lat]
}

// LocationInput is one location in a creation payload.
type LocationInput struct {
	Geo       GeoPoint `json:"geo"`
	PlaceName string   `json:"place_name"`
	Country   string   `json:"country"`
}

// CreateBookRequest is the JSON payload for book creation. In the multipart
// form it travels in the "data" field, next to an optional "pdf_file".
type CreateBookRequest struct {
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Year        int             `json:"year,omitempty"`
	Category    string          `json:"category,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	CoverURL    string          `json:"cover_url,omitempty"`
	Description string          `json:"description,omitempty"`
	Locations   []LocationInput `json:"locations"`
}

// Book converts the request into a Book, dropping malformed locations.
func (r *CreateBookRequest) Book() *Book {
	b := &Book{
		Title:       r.Title,
		Author:      r.Author,
		Year:        r.Year,
		Category:    r.Category,
		Tags:        r.Tags,
		CoverURL:    r.CoverURL,
		Description: r.Description,
	}
	for _, in := range r.Locations {
		if in.Geo.Type != "" && in.Geo.Type != "Point" {
			continue
		}
		b.Locations = append(b.Locations, Location{
			Lat:       in.Geo.Coordinates[1],
			Lng:       in.Geo.Coordinates[0],
			PlaceName: in.PlaceName,
			Country:   in.Country,
		})
	}
	return b
}
