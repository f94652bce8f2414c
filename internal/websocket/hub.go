package noticews

import (
	"context"
	"encoding/json"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/yamenzk/ptrainer/internal/services"
	"github.com/yamenzk/ptrainer/internal/wizard"
	"go.uber.org/zap"
)

const checkTimeout = 15 * time.Second

// Hub fans dashboard events out to every open connection of a client.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *envelope
	replies    chan *reply
	done       chan struct{}
	logger     *zap.Logger
}

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	clientID string
	send     chan []byte
}

type envelope struct {
	clientID string
	event    services.Event
}

// reply is a direct answer to one connection, delivered by Run so it never
// races a closed send channel.
type reply struct {
	client  *Client
	payload []byte
}

type requirementsChecker interface {
	CheckNow(ctx context.Context, clientID string) (wizard.Requirements, error)
}

// Message is what the dashboard may send over the socket.
type Message struct {
	Type string `json:"type"`
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *envelope, 64),
		replies:    make(chan *reply, 16),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, clientID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		clientID: clientID,
		send:     make(chan []byte, 32),
	}
}

// Run owns the connection registry until ctx is done, then closes every
// client's send channel.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for clientID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, clientID)
			}
			return nil
		case client := <-h.register:
			set, ok := h.clients[client.clientID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.clientID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.clientID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				h.drop(client)
			}
		case message := <-h.broadcast:
			h.deliver(message)
		case r := <-h.replies:
			if _, ok := h.clients[r.client.clientID][r.client]; !ok {
				continue
			}
			select {
			case r.client.send <- r.payload:
			default:
				h.drop(r.client)
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) drop(client *Client) {
	set := h.clients[client.clientID]
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.clientID)
	}
}

// Publish queues event for the client's connections. Events are dropped when
// the queue is full.
func (h *Hub) Publish(clientID string, event services.Event) {
	select {
	case h.broadcast <- &envelope{clientID: clientID, event: event}:
	default:
		h.logger.Warn("notice queue full, dropping event",
			zap.String("client_id", clientID),
			zap.String("type", event.Type),
		)
	}
}

func (h *Hub) deliver(message *envelope) {
	encoded, err := json.Marshal(message.event)
	if err != nil {
		h.logger.Error("encode dashboard event", zap.Error(err))
		return
	}
	h.sendToClient(message.clientID, encoded)
}

func (h *Hub) sendToClient(clientID string, payload []byte) {
	set, ok := h.clients[clientID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			h.drop(client)
		}
	}
}

// ReadPump answers pings and requirement checks until the connection drops.
func (c *Client) ReadPump(checker requirementsChecker) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming Message
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}

		switch incoming.Type {
		case "ping":
			writeEvent(c, services.Event{Type: "pong", Timestamp: services.FormatEventTimestamp(time.Now())})
		case "check":
			c.Check(checker)
		default:
			writeError(c, "unsupported message type")
		}
	}
}

// Check refreshes the client's profile and lets the refresh service open any
// wizard it now needs. Failures are reported over the socket.
func (c *Client) Check(checker requirementsChecker) {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	if _, err := checker.CheckNow(ctx, c.clientID); err != nil {
		c.hub.logger.Warn("requirements check over websocket", zap.String("client_id", c.clientID), zap.Error(err))
		writeError(c, "failed to refresh profile")
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeError(client *Client, message string) {
	writeEvent(client, services.Event{
		Type:      "error",
		Level:     services.LevelError,
		Message:   message,
		Timestamp: services.FormatEventTimestamp(time.Now()),
	})
}

func writeEvent(client *Client, event services.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case client.hub.replies <- &reply{client: client, payload: payload}:
	case <-client.hub.done:
	}
}
