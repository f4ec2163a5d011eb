package chat

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/confluxus/confluxus/internal/chat/history"
)

// Handler drives the per-connection state machine: negotiate a username,
// register the session, relay chat frames until the connection dies, then
// unregister and announce the departure.
type Handler struct {
	cfg    Config
	key    []byte
	reg    *Registry
	bcast  *Broadcaster
	hist   *history.Log
	logger *slog.Logger
}

// NewHandler wires a handler to the shared server state.
func NewHandler(cfg Config, key []byte, reg *Registry, bcast *Broadcaster, hist *history.Log, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{cfg: cfg, key: key, reg: reg, bcast: bcast, hist: hist, logger: logger}
}

// Handle owns conn for the lifetime of the connection. Every exit path
// closes the transport exactly once; no error here ever escapes to the
// accept loop.
func (h *Handler) Handle(conn net.Conn) {
	cipher, err := NewCipher(h.key)
	if err != nil {
		h.logger.Error("cipher init failed", "error", err)
		_ = conn.Close()
		return
	}
	sess := NewSession(conn, cipher, h.cfg.WriteTimeout)
	defer sess.Close()

	dec := NewDecoder(h.cfg.MaxFrame())

	// Negotiating: the first frame's body is the proposed username.
	username, err := h.negotiate(conn, sess, dec)
	if err != nil {
		return
	}

	connectedClients.Set(float64(h.reg.Len()))
	h.logger.Info("user joined", "username", username, "addr", sess.RemoteAddr(), "session", sess.ID)

	h.bcast.Deliver(NewMessage(KindJoin, username, username+" joined the chat!"), username)

	// Active: relay frames until the transport or the protocol fails.
	h.readLoop(conn, sess, dec, username)

	// Closing: unregister first so no new broadcast targets this session,
	// then tell the remaining peers.
	h.reg.Remove(username)
	connectedClients.Set(float64(h.reg.Len()))
	h.logger.Info("user left", "username", username, "session", sess.ID)

	h.bcast.Deliver(NewMessage(KindLeave, username, username+" left the chat!"), username)

	if h.reg.Len() == 0 {
		h.hist.Clear()
		historyEntries.Set(0)
		h.logger.Info("room empty, message history cleared")
	}
}

func (h *Handler) negotiate(conn net.Conn, sess *Session, dec *Decoder) (string, error) {
	sealed, err := readFrame(conn, dec)
	if err != nil {
		if isProtocolError(err) {
			_ = sess.Send(NewMessage(KindSystem, "", "ERR malformed_frame"))
		}
		return "", err
	}

	payload, err := sess.Open(sealed)
	if err != nil {
		_ = sess.Send(NewMessage(KindSystem, "", "ERR malformed_frame"))
		return "", err
	}
	hello, err := DecodeMessage(payload)
	if err != nil {
		_ = sess.Send(NewMessage(KindSystem, "", "ERR malformed_frame"))
		return "", err
	}

	username := strings.TrimSpace(hello.Body)
	if err := h.reg.Admit(username, sess); err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			_ = sess.Send(NewMessage(KindSystem, "", "ERR username_taken"))
		case errors.Is(err, ErrUsernameInvalid):
			_ = sess.Send(NewMessage(KindSystem, "", "ERR username_invalid"))
		default:
			_ = sess.Send(NewMessage(KindSystem, "", "ERR register_failed"))
		}
		h.logger.Info("negotiation rejected", "username", username, "addr", sess.RemoteAddr(), "reason", err)
		return "", err
	}

	if err := sess.Send(NewMessage(KindSystem, "", "Welcome to the chat, "+username+"!")); err != nil {
		h.reg.Remove(username)
		return "", err
	}
	return username, nil
}

func (h *Handler) readLoop(conn net.Conn, sess *Session, dec *Decoder, username string) {
	for {
		sealed, err := readFrame(conn, dec)
		if err != nil {
			h.logReadExit(username, err)
			return
		}
		payload, err := sess.Open(sealed)
		if err != nil {
			h.logReadExit(username, err)
			return
		}
		in, err := DecodeMessage(payload)
		if err != nil {
			h.logReadExit(username, err)
			return
		}
		if in.Kind != KindChat {
			continue
		}

		body := strings.TrimSpace(in.Body)
		if body == "" {
			continue
		}
		if len(body) > h.cfg.MaxBody {
			body = body[:h.cfg.MaxBody]
		}

		if body == "/users" {
			_ = sess.Send(NewMessage(KindSystem, "", "USERS: "+strings.Join(h.reg.Usernames(), ",")))
			continue
		}

		msg := NewMessage(KindChat, username, body)
		h.hist.Push(history.Entry{Sender: username, Body: body, At: time.Unix(msg.Timestamp, 0)})
		historyEntries.Set(float64(h.hist.Len()))

		h.bcast.Deliver(msg, username)
	}
}

func (h *Handler) logReadExit(username string, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	h.logger.Info("read loop ended", "username", username, "error", err)
}

func isProtocolError(err error) bool {
	return errors.Is(err, ErrFrameTooLarge) || errors.Is(err, ErrMalformedFrame)
}

// readFrame pulls bytes off the transport until the decoder yields one
// complete frame. Chunk boundaries are arbitrary; partial frames stay
// buffered in the decoder.
func readFrame(conn net.Conn, dec *Decoder) ([]byte, error) {
	buf := make([]byte, 4096)
	for {
		payload, err := dec.Next()
		if err == nil {
			return payload, nil
		}
		if !errors.Is(err, ErrNeedMore) {
			return nil, err
		}
		n, rerr := conn.Read(buf)
		if n > 0 {
			dec.Write(buf[:n])
		}
		if rerr != nil {
			return nil, rerr
		}
	}
}
