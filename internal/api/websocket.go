package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hearthfall/settlement/internal/core/event"
	"github.com/hearthfall/settlement/internal/metrics"
	"go.uber.org/zap"
)

const (
	maxWSClients  = 64
	clientBacklog = 32
	writeWait     = 5 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
)

// message is one frame of the live feed.
type message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans live-feed frames out to websocket clients. A client too slow to
// keep up with clientBacklog frames is disconnected.
type Hub struct {
	mu sync.RWMutex
	clients   map[*wsClient]struct{}
	broadcast chan []byte
	upgrader  websocket.Upgrader
	log       *zap.Logger
}

func NewHub(origins []string, log *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[*wsClient]struct{}),
		broadcast: make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if originAllowed(r.Header.Get("Origin"), origins) {
					return true
				}
				metrics.Rejected.WithLabelValues("origin").Inc()
				return false
			},
		},
		log: log,
	}
}

// Run fans out broadcasts until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			metrics.WSClients.Set(0)
			return
		case frame := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					h.log.Debug("ws client too slow, dropping", zap.String("addr", c.conn.RemoteAddr().String()))
					close(c.send)
					delete(h.clients, c)
				}
			}
			metrics.WSClients.Set(float64(len(h.clients)))
			h.mu.Unlock()
		}
	}
}

// Send queues one frame for every client. Never blocks; frames are dropped
// when the hub is backed up.
func (h *Hub) Send(name string, data any) {
	raw, err := json.Marshal(message{Event: name, Data: data})
	if err != nil {
		h.log.Warn("ws frame encode failed", zap.String("event", name), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- raw:
	default:
	}
}

// Feed subscribes the hub to every simulation event on bus.
func (h *Hub) Feed(bus *event.Bus) {
	bus.SubscribeAll(func(ev event.Event) {
		if h.ClientCount() > 0 {
			h.Send(ev.Name(), ev)
		}
	})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.ClientCount() >= maxWSClients {
		metrics.Rejected.WithLabelValues("ws_limit").Inc()
		writeError(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, clientBacklog)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	metrics.WSClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
	h.log.Debug("ws client connected", zap.String("ip", ClientIP(r)))

	go h.writeLoop(c)
	go h.readLoop(c)
}

// readLoop only services control frames; the feed is one-way.
func (h *Hub) readLoop(c *wsClient) {
	defer h.drop(c)
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *wsClient) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
		metrics.WSClients.Set(float64(len(h.clients)))
	}
	h.mu.Unlock()
}
