package notify

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Conn is the slice of *websocket.Conn the hub needs. Tests substitute fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Message is the envelope fanned out to connected clients.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Client is the handle returned by Register and consumed by Unregister.
type Client struct {
	UserID uint
	Role   string
	conn   Conn
}

type broadcast struct {
	pred func(userID uint, role string) bool
	msg  interface{}
}

// Hub is the in-process connection registry: one entry per attached websocket,
// keyed by identity and role. It is constructed at startup, handed to the
// controllers that need it, and closed at shutdown.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]bool
	queue   chan broadcast
	done    chan struct{}
	once    sync.Once
}

func NewHub() *Hub {
	h := &Hub{
		clients: make(map[*Client]bool),
		queue:   make(chan broadcast, 100),
		done:    make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case b := <-h.queue:
			h.deliver(b)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) deliver(b broadcast) {
	h.mu.Lock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if b.pred(c.UserID, c.Role) {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.conn.WriteJSON(b.msg); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id": c.UserID,
				"role":    c.Role,
			}).Warn("dropping unreachable notification client")
			h.Unregister(c)
		}
	}
}

// Register attaches a connection for the given identity and returns its handle.
func (h *Hub) Register(conn Conn, userID uint, role string) *Client {
	c := &Client{UserID: userID, Role: role, conn: conn}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	logrus.WithFields(logrus.Fields{"user_id": userID, "role": role}).Info("notification client registered")
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		_ = c.conn.Close()
	}
	h.mu.Unlock()
}

// BroadcastTo enqueues msg for every client the predicate selects. The
// enqueue never blocks; when the queue is full the message is dropped with a
// warning, matching the fire-and-forget notification contract.
func (h *Hub) BroadcastTo(pred func(userID uint, role string) bool, msg interface{}) {
	select {
	case h.queue <- broadcast{pred: pred, msg: msg}:
	case <-h.done:
	default:
		logrus.Warn("notification queue full, dropping message")
	}
}

// Close stops the fan-out loop and disconnects every client.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
	h.mu.Lock()
	for c := range h.clients {
		_ = c.conn.Close()
		delete(h.clients, c)
	}
	h.mu.Unlock()
}

// Notifier adapts the hub to the registration package's notifier contract:
// a send targets exactly the recipient's open connections.
type Notifier struct {
	Hub *Hub
}

func (n Notifier) Send(userID uint, subject, body string) error {
	n.Hub.BroadcastTo(func(id uint, _ string) bool { return id == userID },
		Message{Subject: subject, Body: body})
	return nil
}
