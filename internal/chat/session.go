package chat

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record of one connected, username-identified
// client. The transport handle stays owned by the connection handler that
// created it; the broadcaster only borrows it through Send.
type Session struct {
	ID          string
	Username    string
	ConnectedAt time.Time

	conn   net.Conn
	cipher *Cipher

	// writeMu serializes writes to the socket: the broadcaster may write on
	// behalf of other senders while the owning handler writes its own
	// replies, and interleaved frames would corrupt the stream. It also
	// guards the cipher's nonce counter.
	writeMu      sync.Mutex
	writeTimeout time.Duration

	closeOnce sync.Once
}

// NewSession wraps an accepted connection with its cipher state. The
// username is filled in once negotiation succeeds.
func NewSession(conn net.Conn, cipher *Cipher, writeTimeout time.Duration) *Session {
	return &Session{
		ID:           uuid.NewString(),
		ConnectedAt:  time.Now(),
		conn:         conn,
		cipher:       cipher,
		writeTimeout: writeTimeout,
	}
}

// Send seals a message with this session's key and writes it as one frame.
// The write deadline bounds how long a slow recipient can hold up a
// broadcast pass.
func (s *Session) Send(m Message) error {
	payload, err := EncodeMessage(m)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	frame := AppendFrame(nil, s.cipher.Seal(payload))
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	_, err = s.conn.Write(frame)
	return err
}

// Open decrypts an inbound sealed payload with this session's key.
func (s *Session) Open(sealed []byte) ([]byte, error) {
	return s.cipher.Open(sealed)
}

// Close releases the transport. Safe to call from any exit path; the
// socket is closed exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}

// RemoteAddr reports the peer address for logging.
func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}
