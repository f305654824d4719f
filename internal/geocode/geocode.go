// Package geocode resolves free-text place names to coordinates through an
// external Nominatim-style place-search service.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bookmapapp/bookmap/internal/geo"
)

// ErrNotFound is returned when the service has no result for a query.
var ErrNotFound = errors.New("place not found")

// Place is a resolved place: a point plus the bounding box of the match.
type Place struct {
	Lat         float64
	Lng         float64
	DisplayName string
	BBox        geo.Rect
}

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, query string) (*Place, error)
}

// Client is a Geocoder backed by a Nominatim-compatible HTTP service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a geocoding client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// nominatimResult is one entry of the service's JSON response. Nominatim
// encodes numbers as strings; boundingbox is [minlat, maxlat, minlng, maxlng].
type nominatimResult struct {
	Lat         string    `json:"lat"`
	Lon         string    `json:"lon"`
	DisplayName string    `json:"display_name"`
	BoundingBox [4]string `json:"boundingbox"`
}

// Resolve returns the first match for the query, or ErrNotFound.
func (c *Client) Resolve(ctx context.Context, query string) (*Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNotFound
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "bookmap")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding geocoder response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	return results[0].place()
}

func (r nominatimResult) place() (*Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing lat %q: %w", r.Lat, err)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing lon %q: %w", r.Lon, err)
	}

	p := &Place{Lat: lat, Lng: lng, DisplayName: r.DisplayName}

	var bb [4]float64
	for i, s := range r.BoundingBox {
		if bb[i], err = strconv.ParseFloat(s, 64); err != nil {
			// Fall back to a point rect when the box is malformed.
			p.BBox = geo.RectFromDegrees(lat, lng, lat, lng)
			return p, nil
		}
	}
	p.BBox = geo.RectFromDegrees(bb[0], bb[2], bb[1], bb[3])
	return p, nil
}
