package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/bookmapapp/bookmap/internal/catalog"
	"github.com/bookmapapp/bookmap/internal/geo"
	"github.com/bookmapapp/bookmap/internal/mapview"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// mapRequest is the incoming WebSocket message format. Fields beyond Type
// are populated per message type.
type mapRequest struct {
	Type string `json:"type"`

	Viewport *bboxPayload     `json:"viewport,omitempty"` // camera_move_end
	Tag      string           `json:"tag,omitempty"`      // filters
	Category string           `json:"category,omitempty"` // filters
	Enabled  bool             `json:"enabled,omitempty"`  // heatmap
	Handle   string           `json:"handle,omitempty"`   // click
	X        float64          `json:"x,omitempty"`        // click
	Y        float64          `json:"y,omitempty"`        // click
	BookID   string           `json:"book_id,omitempty"`  // card_click
	Query    string           `json:"query,omitempty"`    // search
	Width    float64          `json:"width,omitempty"`    // screen
	Height   float64          `json:"height,omitempty"`   // screen
	Book     *bookFormPayload `json:"book,omitempty"`     // submit_book
}

type bboxPayload struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// bookFormPayload is the add-book form as sent over the socket. Documents
// are uploaded separately through the multipart endpoint.
type bookFormPayload struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Place       string   `json:"place"`
	Country     string   `json:"country,omitempty"`
	Year        int      `json:"year,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	Description string   `json:"description,omitempty"`
}

// mapResponse is the outgoing WebSocket message format. Exactly one of the
// payload fields is set, matching Type.
type mapResponse struct {
	Type string `json:"type"`

	Render *renderPayload `json:"render,omitempty"`
	Popup  *mapview.Popup `json:"popup,omitempty"`
	FlyTo  *flyToPayload  `json:"fly_to,omitempty"`
	Level  string         `json:"level,omitempty"`
	Text   string         `json:"text,omitempty"`
}

// renderPayload is one complete surface state plus the sidebar. The client
// replaces everything it shows with each batch.
type renderPayload struct {
	Count      int                   `json:"count"`
	Cards      []mapview.Card        `json:"cards"`
	Markers    []mapview.Marker      `json:"markers"`
	Discs      []mapview.Disc        `json:"discs"`
	Clustering mapview.ClusterConfig `json:"clustering"`
}

type flyToPayload struct {
	CenterLat float64   `json:"center_lat"`
	CenterLng float64   `json:"center_lng"`
	Boxes     []geo.Box `json:"boxes"`
}

// wsClient serializes writes to one connection. Session events fire from
// debounce timer goroutines while the read loop runs.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) send(resp interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}

// wsEmitter forwards session outputs to the connection. The sidebar event
// closes every render pass, so that is when the surface snapshot ships.
type wsEmitter struct {
	client  *wsClient
	surface *mapview.MemorySurface
}

func (e *wsEmitter) Sidebar(count int, cards []mapview.Card) {
	e.client.send(mapResponse{Type: "render", Render: &renderPayload{
		Count:      count,
		Cards:      cards,
		Markers:    e.surface.Markers(),
		Discs:      e.surface.Discs(),
		Clustering: e.surface.Clustering(),
	}})
}

func (e *wsEmitter) PopupShown(p mapview.Popup) {
	e.client.send(mapResponse{Type: "popup", Popup: &p})
}

func (e *wsEmitter) PopupHidden() {
	e.client.send(mapResponse{Type: "popup_hidden"})
}

func (e *wsEmitter) FlyTo(r geo.Rect) {
	lat, lng := r.Center()
	e.client.send(mapResponse{Type: "fly_to", FlyTo: &flyToPayload{
		CenterLat: lat,
		CenterLng: lng,
		Boxes:     r.Boxes(),
	}})
}

func (e *wsEmitter) FormReset() {
	e.client.send(mapResponse{Type: "form_reset"})
}

func (e *wsEmitter) Notice(level mapview.NoticeLevel, message string) {
	e.client.send(mapResponse{Type: "notice", Level: string(level), Text: message})
}

// localCatalog adapts the in-process store to the session's data loader.
type localCatalog struct {
	store   *catalog.Store
	uploads uploadSaver
}

type uploadSaver interface {
	Save(r io.Reader, filename string) (string, error)
}

func (c *localCatalog) BooksInBBox(ctx context.Context, r geo.Rect) ([]catalog.Book, error) {
	return c.store.BooksInBBox(ctx, r)
}

func (c *localCatalog) Search(ctx context.Context, query string) ([]catalog.Book, error) {
	return c.store.Search(ctx, query)
}

func (c *localCatalog) CreateBook(ctx context.Context, req catalog.CreateBookRequest, pdf io.Reader, pdfName string) error {
	book := req.Book()
	if pdf != nil {
		name, err := c.uploads.Save(pdf, pdfName)
		if err != nil {
			return err
		}
		book.PDFFile = name
	}
	return c.store.InsertBook(ctx, book)
}

// handleMapSocket runs one map session over a WebSocket connection. All
// state lives in the session; closing the connection discards it.
func (s *Server) handleMapSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn}
	surface := mapview.NewMemorySurface()
	emitter := &wsEmitter{client: client, surface: surface}
	cat := &localCatalog{store: s.store, uploads: s.uploads}

	session := mapview.NewSession(s.cfg.Map, cat, s.geocoder, surface, emitter)
	defer session.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req mapRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			client.send(mapResponse{Type: "notice", Level: string(mapview.NoticeError), Text: "invalid message format"})
			continue
		}

		s.dispatchMapMessage(r.Context(), session, client, req)
	}
}

func (s *Server) dispatchMapMessage(ctx context.Context, session *mapview.Session, client *wsClient, req mapRequest) {
	switch req.Type {
	case "screen":
		session.SetScreen(nil, req.Width, req.Height)
	case "camera_move_start":
		session.CameraMoveStart()
	case "camera_move_end":
		if req.Viewport == nil {
			client.send(mapResponse{Type: "notice", Level: string(mapview.NoticeError), Text: "viewport is required"})
			return
		}
		session.CameraMoveEnd(geo.RectFromDegrees(
			req.Viewport.MinLat, req.Viewport.MinLng,
			req.Viewport.MaxLat, req.Viewport.MaxLng,
		))
	case "filters":
		session.SetFilters(req.Tag, req.Category)
	case "heatmap":
		session.SetHeatmap(req.Enabled)
	case "click":
		session.Click(mapview.Handle(req.Handle), req.X, req.Y)
	case "card_click":
		session.CardClick(req.BookID)
	case "search":
		session.SearchInput(req.Query)
	case "submit_book":
		if req.Book == nil {
			client.send(mapResponse{Type: "notice", Level: string(mapview.NoticeError), Text: "book is required"})
			return
		}
		form := mapview.BookForm{
			Title:       req.Book.Title,
			Author:      req.Book.Author,
			Place:       req.Book.Place,
			Country:     req.Book.Country,
			Year:        req.Book.Year,
			Category:    req.Book.Category,
			Tags:        req.Book.Tags,
			CoverURL:    req.Book.CoverURL,
			Description: req.Book.Description,
		}
		if err := session.SubmitBook(ctx, form); err != nil {
			log.Printf("server: book submission: %v", err)
		}
	default:
		client.send(mapResponse{Type: "notice", Level: string(mapview.NoticeError), Text: "unknown message type: " + req.Type})
	}
}
