package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bookmapapp/bookmap/internal/geo"
)

// Client talks to the catalog service's HTTP API. It is what the map
// session uses to load books for a viewport or a text query.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// booksEnvelope is the response shape of the bbox and search endpoints.
type booksEnvelope struct {
	Count int    `json:"count"`
	Books []Book `json:"books"`
	Error string `json:"error"`
}

// BooksInBBox fetches all books whose locations fall inside the rect.
// A rect crossing the antimeridian is fetched as two requests and merged.
func (c *Client) BooksInBBox(ctx context.Context, r geo.Rect) ([]Book, error) {
	var books []Book
	seen := map[string]bool{}

	for _, box := range r.Boxes() {
		q := url.Values{}
		q.Set("min_lng", formatCoord(box.MinLng))
		q.Set("min_lat", formatCoord(box.MinLat))
		q.Set("max_lng", formatCoord(box.MaxLng))
		q.Set("max_lat", formatCoord(box.MaxLat))

		var env booksEnvelope
		if err := c.getJSON(ctx, "/api/books-in-bbox?"+q.Encode(), &env); err != nil {
			return nil, err
		}
		for _, b := range env.Books {
			if !seen[b.ID] {
				seen[b.ID] = true
				books = append(books, b)
			}
		}
	}
	return books, nil
}

// Search runs the catalog's free-text search.
func (c *Client) Search(ctx context.Context, query string) ([]Book, error) {
	q := url.Values{}
	q.Set("q", query)

	var env booksEnvelope
	if err := c.getJSON(ctx, "/api/search?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	return env.Books, nil
}

// CreateBook submits a new book as a multipart request: the JSON payload in
// the "data" field and, if pdf is non-nil, the document in "pdf_file".
func (c *Client) CreateBook(ctx context.Context, req CreateBookRequest, pdf io.Reader, pdfName string) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshalling book data: %w", err)
	}
	if err := w.WriteField("data", string(data)); err != nil {
		return fmt.Errorf("writing data field: %w", err)
	}

	if pdf != nil {
		part, err := w.CreateFormFile("pdf_file", pdfName)
		if err != nil {
			return fmt.Errorf("creating pdf field: %w", err)
		}
		if _, err := io.Copy(part, pdf); err != nil {
			return fmt.Errorf("copying pdf: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/book-with-pdf", &body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("submitting book: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var env booksEnvelope
		if json.NewDecoder(resp.Body).Decode(&env) == nil && env.Error != "" {
			return fmt.Errorf("catalog rejected book: %s", env.Error)
		}
		return fmt.Errorf("catalog rejected book: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
