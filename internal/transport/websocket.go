package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/turtacn/Tether/pkg/consts"
)

// Conn is one live state channel instance.
type Conn interface {
	// ReadMessage blocks until the next text frame arrives or the channel fails.
	ReadMessage() ([]byte, error)
	// WriteJSON encodes v as one text frame. Safe for concurrent use.
	WriteJSON(v any) error
	// Close releases the channel. Safe to call more than once.
	Close() error
}

// Dialer opens state channels bound to a session identity.
type Dialer interface {
	Dial(ctx context.Context, sessionKey string) (Conn, error)
}

// WebSocketDialer opens the server's /cgi/state channel over gorilla/websocket.
type WebSocketDialer struct {
	endpoint url.URL
	origin   string
	dialer   *websocket.Dialer
}

// NewWebSocketDialer derives the ws(s) endpoint from the server's http(s) base URL.
func NewWebSocketDialer(baseURL, path string, handshakeTimeout time.Duration) (*WebSocketDialer, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	origin := u.Scheme + "://" + u.Host
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws", "":
		u.Scheme = "ws"
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if strings.HasPrefix(origin, "ws") {
		origin = "http" + strings.TrimPrefix(origin, "ws")
	}
	u.Path = path
	u.RawQuery = ""

	return &WebSocketDialer{
		endpoint: *u,
		origin:   origin,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
	}, nil
}

// URL returns the channel URL for sessionKey.
func (d *WebSocketDialer) URL(sessionKey string) string {
	u := d.endpoint
	q := url.Values{}
	q.Set(consts.SessionKeyQuery, sessionKey)
	u.RawQuery = q.Encode()
	return u.String()
}

func (d *WebSocketDialer) Dial(ctx context.Context, sessionKey string) (Conn, error) {
	header := http.Header{}
	// The server only upgrades requests whose Origin is its own page.
	header.Set("Origin", d.origin)

	c, resp, err := d.dialer.DialContext(ctx, d.URL(sessionKey), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial state channel: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial state channel: %w", err)
	}
	return &wsConn{c: c}, nil
}

type wsConn struct {
	c       *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
	err     error
}

func (w *wsConn) ReadMessage() ([]byte, error) {
	for {
		kind, data, err := w.c.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage {
			return data, nil
		}
	}
}

func (w *wsConn) WriteJSON(v any) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.c.WriteJSON(v)
}

func (w *wsConn) Close() error {
	w.once.Do(func() {
		w.writeMu.Lock()
		_ = w.c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		w.writeMu.Unlock()
		w.err = w.c.Close()
	})
	return w.err
}

// Personal.AI order the ending
