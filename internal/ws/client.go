package ws

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cafebar/api/internal/auth"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection timing. Subscribers never talk back, so the read side only
// has to notice pongs and closes.
const (
	frameWriteTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
	heartbeatInterval = idleTimeout * 9 / 10
	maxInboundFrame   = 512
	outboxSize        = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers on any origin may subscribe; the token gates access.
	CheckOrigin: func(*http.Request) bool { return true },
}

var errNoToken = errors.New("missing token")

// Client is one subscribed dashboard or customer screen.
type Client struct {
	id     uuid.UUID
	userID uuid.UUID
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
}

// ReadPump drains the connection until it closes, then leaves the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	}
	c.conn.SetReadLimit(maxInboundFrame)
	extend("") //nolint:errcheck
	c.conn.SetPongHandler(extend)

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			log.Printf("WARN: websocket read (user %s): %v", c.userID, err)
		}
		return
	}
}

// WritePump forwards hub events, one text frame each, and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	heartbeat := time.NewTicker(heartbeatInterval)
	defer func() {
		heartbeat.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, open := <-c.send:
			if !open {
				c.write(websocket.CloseMessage, nil) //nolint:errcheck
				return
			}
			if err := c.write(websocket.TextMessage, event); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(kind int, payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(frameWriteTimeout)) //nolint:errcheck
	return c.conn.WriteMessage(kind, payload)
}

// bearerToken reads the token from ?token= or, for non-browser clients,
// from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, error) {
	if t := r.URL.Query().Get("token"); t != "" {
		return t, nil
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); t != "" {
			return t, nil
		}
	}
	return "", errNoToken
}

// ServeWS authenticates the caller and subscribes it to hub events.
// Endpoint: GET /ws?token=JWT
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	tokenStr, err := bearerToken(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	claims, err := auth.ValidateToken(jwtSecret, tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ERROR: websocket upgrade (user %s): %v", claims.UserID, err)
		return
	}

	client := &Client{
		id:     uuid.New(),
		userID: claims.UserID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, outboxSize),
	}
	if !hub.join(client) {
		conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
