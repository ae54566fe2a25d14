// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package socket

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20

	sendBufSize  = 64
	eventBufSize = 256

	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// =============================================================================
// CLIENT
// =============================================================================

// Client is a self-healing websocket connection to the chat backend.
// Construct with NewClient, start with Run in its own goroutine, and drain
// Events until it is closed.
type Client struct {
	url   string
	token string

	dialer *websocket.Dialer
	events chan Event
	send   chan []byte

	mu     sync.Mutex
	joined map[string]struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

// NewClient prepares a client for the given websocket URL (ws:// or
// wss://). The bearer token is sent as an Authorization header on dial.
func NewClient(url, token string) *Client {
	return &Client{
		url:   url,
		token: token,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
		events: make(chan Event, eventBufSize),
		send:   make(chan []byte, sendBufSize),
		joined: make(map[string]struct{}),
		closed: make(chan struct{}),
	}
}

// Events returns the channel decoded events arrive on. It is closed when
// Run returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Join subscribes to a chat's room. The subscription survives reconnects:
// the room is re-joined automatically after every successful redial.
func (c *Client) Join(chatID string) {
	if chatID == "" {
		return
	}
	c.mu.Lock()
	c.joined[chatID] = struct{}{}
	c.mu.Unlock()
	c.enqueueRoom(evJoin, chatID)
}

// Leave unsubscribes from a chat's room.
func (c *Client) Leave(chatID string) {
	if chatID == "" {
		return
	}
	c.mu.Lock()
	delete(c.joined, chatID)
	c.mu.Unlock()
	c.enqueueRoom(evLeave, chatID)
}

// Close tears the client down. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// Run dials and pumps until ctx is cancelled or Close is called. Every
// dropped connection is redialed with capped exponential backoff; callers
// get KindDisconnected when the channel drops and KindReconnected once it
// is back.
func (c *Client) Run(ctx context.Context) {
	defer close(c.events)

	delay := reconnectBase
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		default:
		}

		conn, err := c.dial(ctx)
		if err != nil {
			log.Printf("socket: dial %s failed: %v (retry in %s)", c.url, err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			case <-c.closed:
				return
			}
			delay = nextDelay(delay)
			continue
		}
		delay = reconnectBase

		if first {
			c.emit(Event{Kind: KindConnected})
			first = false
		} else {
			c.emit(Event{Kind: KindReconnected})
		}
		c.rejoinRooms()

		c.pump(ctx, conn)

		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		default:
		}
		c.emit(Event{Kind: KindDisconnected})
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	hdr := http.Header{}
	if c.token != "" {
		hdr.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, hdr)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// pump runs the read loop on the calling goroutine and the write loop on a
// second one; it returns when either side fails, with the connection closed.
func (c *Client) pump(ctx context.Context, conn *websocket.Conn) {
	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(pumpCtx, conn)
	}()

	c.readPump(conn)
	cancel()
	conn.Close()
	wg.Wait()
}

func (c *Client) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("socket: set read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("socket: read error: %v", err)
			}
			return
		}

		ev, ok, err := decodeFrame(raw)
		if err != nil {
			// A malformed payload is the server's bug, not a reason
			// to drop a healthy connection.
			log.Printf("socket: %v", err)
			continue
		}
		if !ok {
			continue
		}
		c.emit(ev)
	}
}

func (c *Client) writePump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		// Unblocks the read pump, which otherwise sits in ReadMessage.
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case <-c.closed:
			conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case data := <-c.send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// emit delivers an event without ever blocking the read pump. When the UI
// falls behind and the buffer fills, the event is dropped and logged; the
// reconcile-on-fetch path repairs any resulting gap.
func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		log.Printf("socket: event buffer full, dropping %s (chat=%s)", ev.Kind, ev.ChatID)
	}
}

func (c *Client) enqueueRoom(event, chatID string) {
	data, err := encodeRoomFrame(event, chatID)
	if err != nil {
		log.Printf("socket: encode %s frame: %v", event, err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("socket: send buffer full, dropping %s (chat=%s)", event, chatID)
	}
}

// rejoinRooms replays every active subscription after a redial.
func (c *Client) rejoinRooms() {
	c.mu.Lock()
	rooms := make([]string, 0, len(c.joined))
	for id := range c.joined {
		rooms = append(rooms, id)
	}
	c.mu.Unlock()

	for _, id := range rooms {
		c.enqueueRoom(evJoin, id)
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > reconnectMax {
		return reconnectMax
	}
	return d
}
