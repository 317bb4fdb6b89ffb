package display

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/vector-forge/internal/jobclient"
)

func newHubServer(t *testing.T, hub *Hub) (string, <-chan struct{}) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	registered := make(chan struct{}, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		id := hub.Register(conn)
		registered <- struct{}{}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.Unregister(id)
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http"), registered
}

func dial(t *testing.T, url string, registered <-chan struct{}) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	select {
	case <-registered:
	case <-time.After(5 * time.Second):
		t.Fatal("client was not registered")
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid message: %v", err)
	}
	return msg
}

func TestHubBroadcastsViews(t *testing.T) {
	hub := NewHub(log.New(io.Discard, "", 0))
	url, registered := newHubServer(t, hub)
	conn := dial(t, url, registered)

	hub.Render(jobclient.View{State: jobclient.StatePolling, Busy: true, Percent: 42, Logs: []string{"tracing"}})
	msg := readMessage(t, conn)
	if msg.Type != "view" || msg.View == nil || msg.View.Percent != 42 {
		t.Fatalf("unexpected message: %+v", msg)
	}

	hub.Alert("ファイルを選択してください。")
	msg = readMessage(t, conn)
	if msg.Type != "alert" || msg.Message == "" {
		t.Fatalf("unexpected alert: %+v", msg)
	}
}

func TestHubSendsLastViewOnRegister(t *testing.T) {
	hub := NewHub(log.New(io.Discard, "", 0))
	hub.Render(jobclient.View{State: jobclient.StateDone, Percent: 100, Logs: []string{"done"}})

	url, registered := newHubServer(t, hub)
	conn := dial(t, url, registered)
	msg := readMessage(t, conn)
	if msg.Type != "view" || msg.View == nil || msg.View.State != jobclient.StateDone {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if hub.Clients() != 1 {
		t.Fatalf("unexpected client count: %d", hub.Clients())
	}
}

func TestHubDropsClientThatStopsReading(t *testing.T) {
	hub := NewHub(log.New(io.Discard, "", 0))
	url, registered := newHubServer(t, hub)
	dial(t, url, registered)

	line := strings.Repeat("x", 64*1024)
	view := jobclient.View{State: jobclient.StatePolling, Busy: true, Logs: []string{line}}

	start := time.Now()
	for i := 0; i < 1000 && hub.Clients() > 0; i++ {
		view.Percent = i % 100
		hub.Render(view)
	}
	if elapsed := time.Since(start); elapsed >= writeWait {
		t.Fatalf("Render blocked on a slow client for %v", elapsed)
	}
	if hub.Clients() != 0 {
		t.Fatalf("slow client should have been dropped, clients=%d", hub.Clients())
	}
}
