// Package streaming owns the websocket transport under the Gemini Live session:
// dialing, serialized writes, a single reader goroutine, keepalive pings and
// an idempotent close. Protocol encoding stays with the caller.
package streaming

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cyberwithvishal/riyu/runtime/logger"
)

// Default connection constants.
const (
	DefaultDialTimeout      = 10 * time.Second
	DefaultWriteWait        = 10 * time.Second
	DefaultMaxMessageSize   = 16 * 1024 * 1024
	DefaultCloseGracePeriod = 2 * time.Second
	DefaultInboxSize        = 64
)

// ErrClosed is returned by every operation after Close, or once the peer went away.
var ErrClosed = errors.New("websocket closed")

// ConnConfig configures the websocket connection.
type ConnConfig struct {
	// URL is the websocket endpoint.
	URL string

	// Headers are sent during the handshake.
	Headers http.Header

	DialTimeout      time.Duration
	WriteWait        time.Duration
	MaxMessageSize   int64
	CloseGracePeriod time.Duration

	// PingInterval enables keepalive pings when positive.
	PingInterval time.Duration

	// InboxSize buffers frames read ahead of Receive.
	InboxSize int
}

func (c *ConnConfig) defaults() {
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.WriteWait == 0 {
		c.WriteWait = DefaultWriteWait
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.CloseGracePeriod == 0 {
		c.CloseGracePeriod = DefaultCloseGracePeriod
	}
	if c.InboxSize == 0 {
		c.InboxSize = DefaultInboxSize
	}
}

type frame struct {
	data []byte
	err  error
}

// Conn is a dialed websocket. Writes are serialized; reads are performed by one
// background goroutine and handed out through Receive.
type Conn struct {
	cfg ConnConfig

	conn    *websocket.Conn
	writeMu sync.Mutex // gorilla/websocket allows one concurrent writer

	inbox chan frame
	done  chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to cfg.URL and starts the reader.
func Dial(ctx context.Context, cfg ConnConfig) (*Conn, error) {
	cfg.defaults()

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.DialTimeout,
		TLSClientConfig:  &tls.Config{MinVersion: tls.VersionTLS12},
	}

	logger.DebugContext(ctx, "websocket dialing", "url", logger.RedactSensitiveData(cfg.URL))

	ws, resp, err := dialer.DialContext(ctx, cfg.URL, cfg.Headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	ws.SetReadLimit(cfg.MaxMessageSize)

	c := &Conn{
		cfg:   cfg,
		conn:  ws,
		inbox: make(chan frame, cfg.InboxSize),
		done:  make(chan struct{}),
	}
	go c.readLoop()
	if cfg.PingInterval > 0 {
		go c.pingLoop(cfg.PingInterval)
	}
	return c, nil
}

func (c *Conn) readLoop() {
	defer close(c.inbox)
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = ErrClosed
			}
			select {
			case c.inbox <- frame{err: err}:
			case <-c.done:
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		select {
		case c.inbox <- frame{data: data}:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				logger.Warn("websocket ping failed", "error", err)
				return
			}
		}
	}
}

// Send JSON-encodes msg and writes it as a text frame.
func (c *Conn) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return c.write(websocket.TextMessage, data)
}

func (c *Conn) write(messageType int, data []byte) error {
	if c.IsClosed() {
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		if c.IsClosed() || errors.Is(err, websocket.ErrCloseSent) {
			return ErrClosed
		}
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Receive returns the next frame. It returns ErrClosed after Close or a clean
// remote close, and the read error for anything else.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	case f, ok := <-c.inbox:
		if !ok {
			return nil, ErrClosed
		}
		return f.data, f.err
	}
}

// Close sends a normal close frame and releases the socket. Safe to call repeatedly.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.CloseGracePeriod))
		_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
		c.writeMu.Unlock()

		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// IsClosed reports whether Close has been called.
func (c *Conn) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
