package channel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nutricare/nutricare/internal/config"
)

var (
	// ErrChannelUnavailable is returned when the channel cannot be reached or
	// closes before answering.
	ErrChannelUnavailable = errors.New("channel unavailable")

	// ErrChannelTimeout is returned when no answer arrives in time.
	ErrChannelTimeout = errors.New("channel timeout")
)

const (
	DefaultURL     = "ws://localhost:25002"
	DefaultTimeout = 45 * time.Second
)

// ClientConfig configures a Client.
type ClientConfig struct {
	URL string
	// Timeout bounds one exchange from dial to answer (default: 45s).
	Timeout time.Duration
	Dialer  *websocket.Dialer
}

// ClientConfigFromEnv reads RECOMMENDER_WS_URL and RECOMMENDER_WS_TIMEOUT.
func ClientConfigFromEnv() ClientConfig {
	return ClientConfig{
		URL:     config.String("RECOMMENDER_WS_URL", DefaultURL),
		Timeout: config.Duration("RECOMMENDER_WS_TIMEOUT", DefaultTimeout),
	}
}

// Client asks single questions over a fresh connection each time.
type Client struct {
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer
}

// NewClient creates a channel client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Client{url: cfg.URL, timeout: cfg.Timeout, dialer: cfg.Dialer}
}

// Ask connects, sends question as one text frame and waits for one text
// frame. Failures wrap ErrChannelUnavailable or ErrChannelTimeout.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return "", classify("dial", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}

	// Unblock the read when the caller cancels.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(question)); err != nil {
		return "", classify("send", err)
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return "", classify("receive", ctx.Err())
			}
			return "", classify("receive", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		return string(data), nil
	}
}

func classify(op string, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %s: %w", ErrChannelTimeout, op, err)
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return fmt.Errorf("%w: %s: closed %d %s", ErrChannelUnavailable, op, ce.Code, ce.Text)
	}
	return fmt.Errorf("%w: %s: %w", ErrChannelUnavailable, op, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
