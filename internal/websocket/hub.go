package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/makeasinger/scenegen/internal/model"
)

// ScenesTopic is the topic every scene board snapshot is published on
const ScenesTopic = "scenes"

// Client represents a WebSocket client subscribed to one topic
type Client struct {
	Topic string
	Conn  *websocket.Conn
	Send  chan []byte
}

// NewClient creates a client with a buffered send queue
func NewClient(topic string, conn *websocket.Conn) *Client {
	return &Client{
		Topic: topic,
		Conn:  conn,
		Send:  make(chan []byte, 256),
	}
}

// Hub maintains active WebSocket connections
type Hub struct {
	// Clients grouped by topic: ScenesTopic or a batch ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	Topic   string
	Message []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Topic] == nil {
				h.clients[client.Topic] = make(map[*Client]bool)
			}
			h.clients[client.Topic][client] = true
			h.mu.Unlock()
			log.Printf("Client registered for %s", client.Topic)

		case client := <-h.unregister:
			h.mu.Lock()
			if h.removeLocked(client) {
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("Client unregistered from %s", client.Topic)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.Topic] {
				select {
				case client.Send <- msg.Message:
				default:
					// Slow consumer. Send stays open because the reader loop may
					// still write a pong; the writer exits on its next failed ping.
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// removeLocked drops a client and reports whether it was registered. mu must be held.
func (h *Hub) removeLocked(client *Client) bool {
	clients, ok := h.clients[client.Topic]
	if !ok {
		return false
	}
	if _, ok := clients[client]; !ok {
		return false
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.Topic)
	}
	return true
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribers returns the number of clients on a topic
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

func (h *Hub) publish(topic string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal %s message: %v", topic, err)
		return
	}

	h.broadcast <- &BroadcastMessage{
		Topic:   topic,
		Message: data,
	}
}

// BroadcastScenes sends a board snapshot to scene subscribers
func (h *Hub) BroadcastScenes(board *model.SceneBoard) {
	h.publish(ScenesTopic, model.WSScenesMessage{
		Type:  model.WSMessageTypeScenes,
		Board: board,
	})
}

// BroadcastProgress sends a progress update to all batch subscribers
func (h *Hub) BroadcastProgress(batchID string, progress int, status model.JobStatus, step string) {
	h.publish(batchID, model.WSProgressMessage{
		Type:        model.WSMessageTypeProgress,
		BatchID:     batchID,
		Progress:    progress,
		Status:      status,
		CurrentStep: step,
	})
}

// BroadcastComplete sends a completion message to all batch subscribers
func (h *Hub) BroadcastComplete(batchID string, result interface{}) {
	h.publish(batchID, model.WSCompleteMessage{
		Type:    model.WSMessageTypeComplete,
		BatchID: batchID,
		Result:  result,
	})
}

// BroadcastError sends an error message to all batch subscribers
func (h *Hub) BroadcastError(batchID string, code, message string) {
	h.publish(batchID, model.WSErrorMessage{
		Type:    model.WSMessageTypeError,
		BatchID: batchID,
		Error: model.WSError{
			Code:    code,
			Message: message,
		},
	})
}

// HandleConnection serves a WebSocket connection subscribed to topic. When
// initial is non-nil it is sent before any broadcast.
func (h *Hub) HandleConnection(c *websocket.Conn, topic string, initial interface{}) {
	client := NewClient(topic, c)

	if initial != nil {
		if data, err := json.Marshal(initial); err == nil {
			client.Send <- data
		}
	}

	h.Register(client)
	defer h.Unregister(client)

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			pong := model.WSMessage{Type: model.WSMessageTypePong}
			data, _ := json.Marshal(pong)
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}
