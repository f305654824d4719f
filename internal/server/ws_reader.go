package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/bookmapapp/bookmap/internal/reader"
)

// readerRequest is the incoming reader socket message format. Fields
// beyond Type are populated per message type.
type readerRequest struct {
	Type string `json:"type"`

	Width  int     `json:"width,omitempty"`  // open, resize
	Height int     `json:"height,omitempty"` // open, resize
	Page   int     `json:"page,omitempty"`   // set_page, thumbnail_click
	XFrac  float64 `json:"x_frac,omitempty"` // tap
	Key    string  `json:"key,omitempty"`    // arrow
	Mode   string  `json:"mode,omitempty"`   // set_mode
}

// readerResponse is the outgoing reader socket message format.
type readerResponse struct {
	Type string `json:"type"`

	Pages      *pagesPayload  `json:"pages,omitempty"`
	Thumbnails []thumbPayload `json:"thumbnails,omitempty"`
	Page       int            `json:"page,omitempty"`
	Current    int            `json:"current,omitempty"`
	Total      int            `json:"total,omitempty"`
	Visible    bool           `json:"visible,omitempty"`
	Text       string         `json:"text,omitempty"`
}

// pagesPayload carries one completed render: the left canvas, the right
// canvas in spread mode, and the turn direction for the animation.
type pagesPayload struct {
	Left  *canvasPayload `json:"left"`
	Right *canvasPayload `json:"right,omitempty"`
	Turn  string         `json:"turn,omitempty"`
}

// canvasPayload is one rendered page, PNG-encoded as base64.
type canvasPayload struct {
	Page   int    `json:"page"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Image  string `json:"image"`
}

type thumbPayload struct {
	Page  int    `json:"page"`
	Image string `json:"image"`
}

func encodeCanvas(c *reader.Canvas) (*canvasPayload, error) {
	if c == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, c.Image, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding page %d: %w", c.Page, err)
	}
	return &canvasPayload{
		Page:   c.Page,
		Width:  c.Image.Bounds().Dx(),
		Height: c.Image.Bounds().Dy(),
		Image:  base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// readerView forwards reader session output to the connection.
type readerView struct {
	client *wsClient
}

func (v *readerView) Clear() {
	v.client.send(readerResponse{Type: "clear"})
}

func (v *readerView) ShowPages(left, right *reader.Canvas, turn reader.Direction) {
	leftPayload, err := encodeCanvas(left)
	if err != nil {
		log.Printf("server: reader render: %v", err)
		return
	}
	rightPayload, err := encodeCanvas(right)
	if err != nil {
		log.Printf("server: reader render: %v", err)
		return
	}
	v.client.send(readerResponse{Type: "pages", Pages: &pagesPayload{
		Left:  leftPayload,
		Right: rightPayload,
		Turn:  string(turn),
	}})
}

func (v *readerView) SetThumbnails(thumbs []reader.Thumbnail) {
	payload := make([]thumbPayload, 0, len(thumbs))
	for _, t := range thumbs {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, t.Image, imaging.PNG); err != nil {
			log.Printf("server: reader thumbnail %d: %v", t.Page, err)
			continue
		}
		payload = append(payload, thumbPayload{
			Page:  t.Page,
			Image: base64.StdEncoding.EncodeToString(buf.Bytes()),
		})
	}
	v.client.send(readerResponse{Type: "thumbnails", Thumbnails: payload})
}

func (v *readerView) SetActiveThumbnail(page int) {
	v.client.send(readerResponse{Type: "active_thumbnail", Page: page})
}

func (v *readerView) SetSlider(current, total int) {
	v.client.send(readerResponse{Type: "slider", Current: current, Total: total})
}

func (v *readerView) SetPanelVisible(visible bool) {
	v.client.send(readerResponse{Type: "panel", Visible: visible})
}

// openDocument resolves a book to its page source. Pages are pre-rendered
// images under {pagesDir}/{bookID}, one file per page.
func (s *Server) openDocument(ctx context.Context, bookID string) (reader.Source, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, fmt.Errorf("book %s not found", bookID)
	}
	if !book.HasDocument() {
		return nil, fmt.Errorf("book %s has no document", bookID)
	}
	return reader.NewDirSource(filepath.Join(s.cfg.PagesDir, bookID))
}

// handleReaderSocket runs one reader session over a WebSocket connection.
// The client opens with its viewport dimensions, then drives navigation.
func (s *Server) handleReaderSocket(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn}
	session := reader.NewSession(s.cfg.Reader, &readerView{client: client})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req readerRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			client.send(readerResponse{Type: "error", Text: "invalid message format"})
			continue
		}

		s.dispatchReaderMessage(r.Context(), session, client, bookID, req)
	}
}

func (s *Server) dispatchReaderMessage(ctx context.Context, session *reader.Session, client *wsClient, bookID string, req readerRequest) {
	var err error
	switch req.Type {
	case "open":
		var src reader.Source
		if src, err = s.openDocument(ctx, bookID); err == nil {
			err = session.Load(ctx, src, req.Width, req.Height)
		}
	case "next":
		err = session.Next(ctx)
	case "prev":
		err = session.Prev(ctx)
	case "set_page":
		err = session.SetPage(ctx, req.Page)
	case "tap":
		err = session.TapZone(ctx, req.XFrac)
	case "arrow":
		err = session.ArrowKey(ctx, req.Key)
	case "thumbnail_click":
		err = session.ThumbnailClick(ctx, req.Page)
	case "toggle_panel":
		session.TogglePanel()
	case "set_mode":
		err = session.SetViewMode(ctx, reader.ViewMode(req.Mode))
	case "resize":
		err = session.Resize(ctx, req.Width, req.Height)
	default:
		client.send(readerResponse{Type: "error", Text: "unknown message type: " + req.Type})
		return
	}

	if err != nil {
		log.Printf("server: reader %s: %v", req.Type, err)
		client.send(readerResponse{Type: "error", Text: err.Error()})
	}
}
