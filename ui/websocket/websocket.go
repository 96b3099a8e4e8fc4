package websocket

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domainLookup "github.com/AzielCF/az-lookups/domains/lookup"
	"github.com/AzielCF/az-lookups/lookups/domain"
)

const (
	CodeLookupsChanged = "LOOKUPS_CHANGED"
	CodeFetchLookups   = "FETCH_LOOKUPS"
	CodeListLookups    = "LIST_LOOKUPS"
)

type BroadcastMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Result  any    `json:"result"`
}

// conn is the subset of *websocket.Conn the hub writes to.
type conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	id string
}

type directMessage struct {
	to      conn
	message BroadcastMessage
}

// Hub fans lookup change notifications out to connected browsers. Every
// write goes through the Run loop so a connection is never written
// concurrently.
type Hub struct {
	service domainLookup.ILookupUsecase

	clients    map[conn]client
	register   chan conn
	unregister chan conn
	broadcast  chan BroadcastMessage
	direct     chan directMessage
	done       chan struct{}
}

func NewHub(service domainLookup.ILookupUsecase) *Hub {
	return &Hub{
		service:    service,
		clients:    make(map[conn]client),
		register:   make(chan conn),
		unregister: make(chan conn),
		broadcast:  make(chan BroadcastMessage),
		direct:     make(chan directMessage),
		done:       make(chan struct{}),
	}
}

// Attach subscribes the hub to lookup invalidations. Each signal is pushed to
// every client together with the current cache status.
func (h *Hub) Attach(bus domain.Bus) (unsubscribe func()) {
	return bus.Subscribe(domain.TopicLookupsChanged, func(ctx context.Context) {
		var result any
		if status, err := h.service.GetStatus(ctx); err == nil {
			result = status
		}
		select {
		case h.broadcast <- BroadcastMessage{
			Code:    CodeLookupsChanged,
			Message: "Lookups have changed",
			Result:  result,
		}:
		case <-h.done:
		}
	})
}

// Run processes registrations and writes until ctx is done. It must be
// called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.closeConnection(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = client{id: uuid.NewString()}
			logrus.Debugf("[WS] Connection %s registered", h.clients[c].id)

		case c := <-h.unregister:
			if cl, ok := h.clients[c]; ok {
				delete(h.clients, c)
				logrus.Debugf("[WS] Connection %s unregistered", cl.id)
			}

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				logrus.Errorf("[WS] Marshal error: %v", err)
				continue
			}
			for c := range h.clients {
				h.write(c, data)
			}

		case dm := <-h.direct:
			if _, ok := h.clients[dm.to]; !ok {
				continue
			}
			data, err := json.Marshal(dm.message)
			if err != nil {
				logrus.Errorf("[WS] Marshal error: %v", err)
				continue
			}
			h.write(dm.to, data)
		}
	}
}

func (h *Hub) write(c conn, data []byte) {
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		logrus.Errorf("[WS] Write error: %v", err)
		h.closeConnection(c)
	}
}

func (h *Hub) closeConnection(c conn) {
	_ = c.WriteMessage(websocket.CloseMessage, []byte{})
	_ = c.Close()
	delete(h.clients, c)
}

// handleMessage answers a client request. Unknown codes are ignored.
func (h *Hub) handleMessage(ctx context.Context, from conn, raw []byte) error {
	var request BroadcastMessage
	if err := json.Unmarshal(raw, &request); err != nil {
		return err
	}

	if request.Code == CodeFetchLookups {
		snapshot, err := h.service.GetSnapshot(ctx)
		if err != nil {
			return err
		}
		select {
		case h.direct <- directMessage{to: from, message: BroadcastMessage{
			Code:    CodeListLookups,
			Message: "Lookups found",
			Result:  snapshot,
		}}:
		case <-h.done:
		}
	}
	return nil
}

func (h *Hub) RegisterRoutes(app fiber.Router) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		defer func() {
			select {
			case h.unregister <- c:
			case <-h.done:
			}
			_ = c.Close()
		}()

		select {
		case h.register <- c:
		case <-h.done:
			return
		}

		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Debugf("[WS] Read error: %v", err)
				}
				return
			}

			if messageType != websocket.TextMessage {
				logrus.Debugf("[WS] Unsupported message type: %d", messageType)
				continue
			}
			if err := h.handleMessage(context.Background(), c, message); err != nil {
				logrus.Debugf("[WS] Bad request: %v", err)
				return
			}
		}
	}))
}
