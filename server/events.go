package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"Trackshelf/logger"
	"Trackshelf/model"

	"github.com/gorilla/websocket"
)

// EventType names a catalog change pushed to subscribers.
type EventType string

const (
	EventTrackCreated    EventType = "track.created"
	EventTrackDeleted    EventType = "track.deleted"
	EventCatalogReloaded EventType = "catalog.reloaded"
)

// Event is one message on the /api/events feed.
type Event struct {
	Type      EventType    `json:"type"`
	Track     *model.Track `json:"track,omitempty"`
	Count     int          `json:"count,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

// eventClient is one websocket subscriber.
type eventClient struct {
	hub  *EventHub
	conn *websocket.Conn
	send chan []byte
}

// EventHub fans catalog events out to websocket subscribers.
type EventHub struct {
	clients    map[*eventClient]bool
	register   chan *eventClient
	unregister chan *eventClient
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once
	upgrader   websocket.Upgrader

	// onCount, if set, is called from the hub loop with the subscriber count.
	onCount func(n int)
}

// NewEventHub creates a hub.
func NewEventHub(onCount func(n int)) *EventHub {
	return &EventHub{
		clients:    make(map[*eventClient]bool),
		register:   make(chan *eventClient),
		unregister: make(chan *eventClient),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		onCount: onCount,
	}
}

// Run is the hub loop. It returns after Stop.
func (h *EventHub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.countChanged()
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow subscriber
					h.remove(c)
				}
			}
		case <-h.done:
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*eventClient]bool)
			h.countChanged()
			return
		}
	}
}

func (h *EventHub) remove(c *eventClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.countChanged()
	}
}

func (h *EventHub) countChanged() {
	if h.onCount != nil {
		h.onCount(len(h.clients))
	}
}

// Stop ends Run and closes every client.
func (h *EventHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish queues an event for every subscriber. A nil hub is a no-op, and
// events are dropped rather than blocking a request when the queue is full.
func (h *EventHub) Publish(eventType EventType, track *model.Track) {
	h.publish(Event{Type: eventType, Track: track})
}

// PublishReload announces that the catalog was reloaded from disk.
func (h *EventHub) PublishReload(count int) {
	h.publish(Event{Type: EventCatalogReloaded, Count: count})
}

func (h *EventHub) publish(ev Event) {
	if h == nil {
		return
	}
	ev.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error("[Events] failed to encode event", logger.ErrorField(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logger.Warn("[Events] broadcast queue full, dropping event", logger.String("type", string(ev.Type)))
	}
}

// ServeWS upgrades the request and streams events until the peer leaves.
func (h *EventHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[Events] websocket upgrade failed", logger.ErrorField(err))
		return
	}
	c := &eventClient{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump()
}

// readPump only services control frames; subscribers never send data.
func (c *eventClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("[Events] websocket read error", logger.ErrorField(err))
			}
			return
		}
	}
}

// writePump sends one event per frame and pings on a ticker.
func (c *eventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
