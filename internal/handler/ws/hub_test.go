package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/signal"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func read(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return m
}

func TestHubBroadcastAndReplay(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	first := dial(t, srv)
	defer first.Close()
	waitClients(t, h, 1)

	h.Broadcast(map[string]string{"type": "signal", "signal": "LONG"})
	if m := read(t, first); m["signal"] != "LONG" {
		t.Fatalf("first client got %v", m)
	}

	late := dial(t, srv)
	defer late.Close()
	if m := read(t, late); m["signal"] != "LONG" {
		t.Fatalf("late client should get the latest event, got %v", m)
	}
	waitClients(t, h, 2)

	_ = first.Close()
	waitClients(t, h, 1)
}

func TestHubCloseDisconnects(t *testing.T) {
	h := NewHub(nil)
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitClients(t, h, 1)

	h.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close after hub shutdown")
	}
	h.Broadcast("ignored")
}
