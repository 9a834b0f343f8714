package runtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/GregoryFarmer/orthant/contract"
	"github.com/GregoryFarmer/orthant/domain"
	"github.com/GregoryFarmer/orthant/domain/event"
	apperrors "github.com/GregoryFarmer/orthant/errors"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// frame is the inbound wire format: {"event":"message","data":"hi"} or
// {"event":"typing","data":true}.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client adapts one websocket connection to the hub: the read pump decodes
// inbound frames into events and the write pump serializes outbound events,
// so neither side blocks the other.
type Client struct {
	hub        contract.IHub
	conn       *websocket.Conn
	log        *slog.Logger
	send       chan event.Outbound
	done       chan struct{}
	signalOnce sync.Once
	closeOnce  sync.Once
	session    domain.Session
}

func NewClient(hub contract.IHub, conn *websocket.Conn, log *slog.Logger) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		log:  log,
		send: make(chan event.Outbound, sendBuffer),
		done: make(chan struct{}),
	}
}

// Start registers the session with the hub and launches both pumps. The
// username comes from the handshake; empty falls back to Anonymous inside
// the hub's session construction.
func (c *Client) Start(username string) domain.Session {
	c.session = c.hub.Connect(username, c)
	go c.writePump()
	go c.readPump()
	return c.session
}

// Consume queues an outbound event for the write pump. A session whose
// buffer is full or whose connection is gone reports an error and is
// removed by the hub.
func (c *Client) Consume(e event.Outbound) error {
	select {
	case <-c.done:
		return apperrors.ErrSinkClosed
	case c.send <- e:
		return nil
	default:
		return apperrors.ErrSinkClosed
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c.session.ConnectionID, "transport close")
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Read error", "id", c.session.ConnectionID, "error", err)
			}
			return
		}
		c.dispatch(raw)
	}
}

// dispatch decodes one inbound frame and hands it to the hub. Unknown or
// malformed frames are logged and dropped; they never tear the connection.
func (c *Client) dispatch(raw []byte) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		c.log.Debug("Discarding malformed frame", "id", c.session.ConnectionID, "error", err)
		return
	}

	switch event.Kind(f.Event) {
	case event.Message:
		var text string
		if err := json.Unmarshal(f.Data, &text); err != nil {
			c.log.Debug("Discarding message with non-string data", "id", c.session.ConnectionID, "error", err)
			return
		}
		c.hub.Dispatch(event.Inbound{Kind: event.Message, SessionID: c.session.ConnectionID, Text: text})
	case event.Typing:
		var typing bool
		if err := json.Unmarshal(f.Data, &typing); err != nil {
			c.log.Debug("Discarding typing with non-bool data", "id", c.session.ConnectionID, "error", err)
			return
		}
		c.hub.Dispatch(event.Inbound{Kind: event.Typing, SessionID: c.session.ConnectionID, Typing: typing})
	default:
		c.log.Debug("Discarding unknown event", "id", c.session.ConnectionID, "event", f.Event)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case out := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(out); err != nil {
				c.log.Debug("Write error", "id", c.session.ConnectionID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close signals both pumps to stop. The write pump sends the close frame
// first and tears the connection down on its way out, which unblocks the
// read pump; the session deregisters through the read pump's exit path.
func (c *Client) Close() error {
	c.signalOnce.Do(func() { close(c.done) })
	return nil
}

func (c *Client) close() {
	_ = c.Close()
	c.closeOnce.Do(func() { _ = c.conn.Close() })
}
