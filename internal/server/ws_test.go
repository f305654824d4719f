package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialSocket(t *testing.T, srv *Server, path string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(srv.Router())
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func dialMapSocket(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	return dialSocket(t, srv, "/ws/map")
}

// readUntil reads messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) mapResponse {
	t.Helper()

	for {
		var resp mapResponse
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("read waiting for %q: %v", msgType, err)
		}
		if resp.Type == msgType {
			return resp
		}
	}
}

func TestMapSocketViewportRender(t *testing.T) {
	srv := newTestServer(t)
	insertTestBook(t, srv, duneBook())

	conn := dialMapSocket(t, srv)

	move := mapRequest{
		Type:     "camera_move_end",
		Viewport: &bboxPayload{MinLat: 30, MinLng: -10, MaxLat: 36, MaxLng: -5},
	}
	if err := conn.WriteJSON(move); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp := readUntil(t, conn, "render")
	if resp.Render == nil {
		t.Fatal("render message without payload")
	}
	if resp.Render.Count != 1 {
		t.Errorf("expected sidebar count 1, got %d", resp.Render.Count)
	}
	if len(resp.Render.Markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(resp.Render.Markers))
	}
	if resp.Render.Markers[0].Label != "Dune" {
		t.Errorf("expected marker label 'Dune', got %q", resp.Render.Markers[0].Label)
	}
}

func TestMapSocketClickShowsPopup(t *testing.T) {
	srv := newTestServer(t)
	insertTestBook(t, srv, duneBook())

	conn := dialMapSocket(t, srv)

	move := mapRequest{
		Type:     "camera_move_end",
		Viewport: &bboxPayload{MinLat: 30, MinLng: -10, MaxLat: 36, MaxLng: -5},
	}
	if err := conn.WriteJSON(move); err != nil {
		t.Fatalf("write: %v", err)
	}
	render := readUntil(t, conn, "render")

	click := mapRequest{
		Type:   "click",
		Handle: string(render.Render.Markers[0].Handle),
		X:      100,
		Y:      200,
	}
	if err := conn.WriteJSON(click); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp := readUntil(t, conn, "popup")
	if resp.Popup == nil {
		t.Fatal("popup message without payload")
	}
	if resp.Popup.Title != "Dune" || resp.Popup.PlaceName != "Casablanca" {
		t.Errorf("unexpected popup: %+v", resp.Popup)
	}
}

func TestMapSocketUnknownMessage(t *testing.T) {
	srv := newTestServer(t)
	conn := dialMapSocket(t, srv)

	if err := conn.WriteJSON(mapRequest{Type: "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp := readUntil(t, conn, "notice")
	if !strings.Contains(resp.Text, "unknown message type") {
		t.Errorf("unexpected notice %q", resp.Text)
	}
}
