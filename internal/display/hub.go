package display

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yourusername/vector-forge/internal/jobclient"
)

const (
	writeWait = 5 * time.Second
	// sendBuffer は1クライアントあたりの未送信メッセージの上限です。
	sendBuffer = 32
)

// Message はダッシュボードへ送る WebSocket メッセージです。
type Message struct {
	Type    string          `json:"type"`
	View    *jobclient.View `json:"view,omitempty"`
	Message string          `json:"message,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub は接続中の WebSocket クライアントへ View を配信します。
// 書き込みはクライアントごとの goroutine が行うため、配信側は遅いクライアントを待ちません。
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client
	last    []byte
	logger  *log.Logger
}

// NewHub は Hub を作成します。
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Register は接続を登録し、最後に配信した View を送ります。
func (h *Hub) Register(conn *websocket.Conn) string {
	id := uuid.NewString()
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[id] = cl
	if h.last != nil {
		cl.send <- h.last
	}
	total := len(h.clients)
	h.mu.Unlock()

	go h.writePump(id, cl)
	h.logger.Printf("websocket client connected id=%s total=%d", id, total)
	return id
}

// Unregister は接続を閉じて登録を解除します。
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.removeLocked(id) {
		h.logger.Printf("websocket client disconnected id=%s remaining=%d", id, len(h.clients))
	}
}

// Clients は接続数を返します。
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Alert は通知をすべてのクライアントへ送ります。後から接続したクライアントには送りません。
func (h *Hub) Alert(message string) {
	h.broadcast(Message{Type: "alert", Message: message}, false)
}

// Render は View をすべてのクライアントへ送り、新規接続向けに保持します。
func (h *Hub) Render(view jobclient.View) {
	h.broadcast(Message{Type: "view", View: &view}, true)
}

func (h *Hub) broadcast(msg Message, remember bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal websocket message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if remember {
		h.last = data
	}
	for id, cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			// 送信待ちがあふれたクライアントは切断する
			h.logger.Printf("websocket client id=%s is too slow, disconnecting", id)
			h.removeLocked(id)
		}
	}
}

// removeLocked は h.mu を保持した状態で呼び出します。
func (h *Hub) removeLocked(id string) bool {
	cl, ok := h.clients[id]
	if !ok {
		return false
	}
	delete(h.clients, id)
	close(cl.send)
	cl.conn.Close()
	return true
}

func (h *Hub) writePump(id string, cl *client) {
	for data := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Printf("error sending message to client id=%s: %v", id, err)
			h.Unregister(id)
			return
		}
	}
}
