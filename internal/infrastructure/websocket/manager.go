package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"

	"portfoliochat/internal/domain/repository"
	"portfoliochat/internal/infrastructure/ratelimit"
	"portfoliochat/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 64
)

type Role string

const (
	RoleVisitor Role = "visitor"
	RoleAdmin   Role = "admin"
)

// Client is one WebSocket connection. Every subscription it opens is bound
// to its context and ends when it disconnects.
type Client struct {
	ID       string
	Identity string
	Role     Role
	Conn     *websocket.Conn
	Send     chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	subs   cmap.ConcurrentMap[string, repository.Unsubscribe]
	once   sync.Once
}

func NewClient(ctx context.Context, identity string, role Role, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		ID:       uuid.New().String(),
		Identity: identity,
		Role:     role,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		ctx:      ctx,
		cancel:   cancel,
		subs:     cmap.New[repository.Unsubscribe](),
	}
}

// Manager tracks the live connections and serves their frames.
type Manager struct {
	clients     cmap.ConcurrentMap[string, *Client]
	Register    chan *Client
	Unregister  chan *Client
	service     ChatService
	rateLimiter *ratelimit.RateLimiter
	done        chan struct{}
}

func NewManager(service ChatService, rateLimiter *ratelimit.RateLimiter) *Manager {
	return &Manager{
		clients:     cmap.New[*Client](),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		service:     service,
		rateLimiter: rateLimiter,
		done:        make(chan struct{}),
	}
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	go func() {
		defer close(m.done)
		for {
			select {
			case client := <-m.Register:
				m.clients.Set(client.ID, client)
				metrics.ConnectionOpened(string(client.Role))
				log.Printf("Client registered: %s (%s %s)", client.ID, client.Role, client.Identity)

			case client := <-m.Unregister:
				m.remove(client)

			case <-ctx.Done():
				for _, client := range m.clients.Items() {
					m.remove(client)
				}
				return
			}
		}
	}()
}

func (m *Manager) remove(client *Client) {
	if _, ok := m.clients.Pop(client.ID); !ok {
		return
	}
	client.close()
	metrics.ConnectionClosed(string(client.Role))
	log.Printf("Client unregistered: %s", client.ID)
}

// unregister hands the client to the main loop, or closes it directly once
// the loop has stopped.
func (m *Manager) unregister(c *Client) {
	select {
	case m.Unregister <- c:
	case <-m.done:
		c.close()
	}
}

// Count returns the number of live connections.
func (m *Manager) Count() int {
	return m.clients.Count()
}

// close cancels every subscription of the client and ends its write pump.
// Send is never closed; senders and the write pump watch the context instead.
func (c *Client) close() {
	c.once.Do(func() {
		c.cancel()
		for _, topic := range c.subs.Keys() {
			c.dropSubscription(topic)
		}
	})
}

func (c *Client) dropSubscription(topic string) bool {
	unsubscribe, ok := c.subs.Pop(topic)
	if !ok {
		return false
	}
	unsubscribe()
	metrics.SubscriptionClosed(topicKind(topic))
	return true
}

// enqueue queues a frame without blocking. A client that cannot keep up is
// disconnected.
func (m *Manager) enqueue(c *Client, frame WSMessage) {
	if frame.Timestamp == "" {
		frame.Timestamp = time.Now().Format(time.RFC3339)
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("WebSocket: Failed to encode %s frame: %v", frame.Type, err)
		return
	}

	if c.ctx.Err() != nil {
		return
	}

	select {
	case <-c.ctx.Done():
	case c.Send <- payload:
	default:
		log.Printf("WebSocket: Client %s is too slow, disconnecting", c.ID)
		go m.unregister(c)
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump sends messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("error: %v", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
