package server

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Client is the Go side of a /ws session.
type Client struct {
	conn *websocket.Conn
	sent uint64
}

// Dial connects to the session endpoint of the server at addr, which may be
// a host:port, an http(s) URL or a ws(s) URL.
func Dial(ctx context.Context, addr string) (*Client, error) {
	u, err := sessionURL(addr)
	if err != nil {
		return nil, err
	}
	c, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	// frames are whole PNG images
	c.SetReadLimit(64 << 20)
	return &Client{conn: c}, nil
}

func sessionURL(addr string) (string, error) {
	if !strings.Contains(addr, "://") {
		if strings.HasPrefix(addr, ":") {
			addr = "localhost" + addr
		}
		addr = "ws://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("server address: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("server address: unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Send writes one input and returns its sequence number.
func (c *Client) Send(ctx context.Context, in Input) (uint64, error) {
	if err := wsjson.Write(ctx, c.conn, in); err != nil {
		return 0, fmt.Errorf("send %s: %w", in.Type, err)
	}
	c.sent++
	return c.sent, nil
}

// Next reads the next status and, unless it reports an error, the PNG frame
// that follows it.
func (c *Client) Next(ctx context.Context) (Status, []byte, error) {
	var st Status
	if err := wsjson.Read(ctx, c.conn, &st); err != nil {
		return Status{}, nil, fmt.Errorf("read status: %w", err)
	}
	if st.Error != "" {
		return st, nil, nil
	}
	typ, frame, err := c.conn.Read(ctx)
	if err != nil {
		return st, nil, fmt.Errorf("read frame: %w", err)
	}
	if typ != websocket.MessageBinary {
		return st, nil, errors.New("read frame: expected a binary message")
	}
	return st, frame, nil
}

// Snapshot asks for a frame of the current view and waits for it, skipping
// frames of earlier views.
func (c *Client) Snapshot(ctx context.Context) (Status, []byte, error) {
	seq, err := c.Send(ctx, Input{Type: MsgFrame})
	if err != nil {
		return Status{}, nil, err
	}
	for {
		st, frame, err := c.Next(ctx)
		if err != nil {
			return st, nil, err
		}
		if st.Seq < seq {
			continue
		}
		if st.Error != "" {
			return st, nil, errors.New(st.Error)
		}
		return st, frame, nil
	}
}

// Close ends the session.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
