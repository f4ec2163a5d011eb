// Package client implements the protocol side of a chat client: dialing,
// username negotiation, sending chat text and receiving the decrypted
// message stream. Rendering, input handling and local commands belong to
// whatever UI consumes this package.
package client

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/confluxus/confluxus/internal/chat"
)

var (
	// ErrUsernameTaken means the server rejected the proposed username
	// because another session already holds it. Retry with a new name.
	ErrUsernameTaken = errors.New("username taken")

	// ErrRejected covers every other negotiation failure.
	ErrRejected = errors.New("server rejected negotiation")
)

// Client is one negotiated connection to a chat server.
type Client struct {
	Username string

	conn   net.Conn
	cipher *chat.Cipher
	dec    *chat.Decoder

	writeMu      sync.Mutex
	writeTimeout time.Duration

	closeOnce sync.Once
}

// Options tune the dial; zero values get sane defaults matching the
// server's.
type Options struct {
	MaxFrame     int
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// Dial connects, derives the session cipher from the shared secret and
// negotiates the username. The returned client is ready to send and
// receive.
func Dial(addr, sharedSecret, username string, opts Options) (*Client, error) {
	if opts.MaxFrame <= 0 {
		opts.MaxFrame = 8192
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}

	conn, err := net.DialTimeout("tcp", addr, opts.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	cipher, err := chat.NewCipher(chat.DeriveKey(sharedSecret))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	c := &Client{
		Username:     username,
		conn:         conn,
		cipher:       cipher,
		dec:          chat.NewDecoder(opts.MaxFrame),
		writeTimeout: opts.WriteTimeout,
	}

	if err := c.send(chat.NewMessage(chat.KindJoin, "", username)); err != nil {
		c.Close()
		return nil, err
	}
	reply, err := c.recv()
	if err != nil {
		c.Close()
		return nil, err
	}
	if strings.HasPrefix(reply.Body, "ERR ") {
		c.Close()
		if reply.Body == "ERR username_taken" {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, strings.TrimPrefix(reply.Body, "ERR "))
	}
	return c, nil
}

// SendChat ships one line of chat text to the server.
func (c *Client) SendChat(text string) error {
	return c.send(chat.NewMessage(chat.KindChat, c.Username, text))
}

// Messages returns a lazy stream of incoming messages. The channel closes
// when the connection dies; reconnect by dialing again.
func (c *Client) Messages() <-chan chat.Message {
	out := make(chan chat.Message)
	go func() {
		defer close(out)
		for {
			m, err := c.recv()
			if err != nil {
				return
			}
			out <- m
		}
	}()
	return out
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}

func (c *Client) send(m chat.Message) error {
	payload, err := chat.EncodeMessage(m)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	frame := chat.AppendFrame(nil, c.cipher.Seal(payload))
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	_, err = c.conn.Write(frame)
	return err
}

func (c *Client) recv() (chat.Message, error) {
	buf := make([]byte, 4096)
	for {
		sealed, err := c.dec.Next()
		if err == nil {
			payload, err := c.cipher.Open(sealed)
			if err != nil {
				return chat.Message{}, err
			}
			return chat.DecodeMessage(payload)
		}
		if !errors.Is(err, chat.ErrNeedMore) {
			return chat.Message{}, err
		}
		n, rerr := c.conn.Read(buf)
		if n > 0 {
			c.dec.Write(buf[:n])
		}
		if rerr != nil {
			return chat.Message{}, rerr
		}
	}
}
