package chat

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"
)

// Kind classifies a chat event on the wire.
type Kind int

const (
	KindChat Kind = iota + 1
	KindJoin
	KindLeave
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindJoin:
		return "join"
	case KindLeave:
		return "leave"
	case KindSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Message is one chat event. Timestamp is assigned by the server at
// receipt; a client-supplied value is never trusted for ordering.
type Message struct {
	Kind      Kind   `json:"kind"`
	Sender    string `json:"sender,omitempty"`
	Body      string `json:"body"`
	Timestamp int64  `json:"ts"`
}

// NewMessage stamps a message with the current time.
func NewMessage(kind Kind, sender, body string) Message {
	return Message{Kind: kind, Sender: sender, Body: body, Timestamp: time.Now().Unix()}
}

// EncodeMessage serializes a message to its payload bytes (pre-encryption).
func EncodeMessage(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMessage parses payload bytes (post-decryption) into a Message.
// Unknown kinds are rejected so a garbled-but-authenticated payload cannot
// smuggle an event the server does not understand.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	switch m.Kind {
	case KindChat, KindJoin, KindLeave, KindSystem:
	default:
		return Message{}, fmt.Errorf("%w: kind %d", ErrMalformedFrame, m.Kind)
	}
	return m, nil
}

const frameHeaderSize = 4

// AppendFrame appends a length-prefixed frame carrying payload to dst.
func AppendFrame(dst, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// Decoder re-assembles length-prefixed frames from a byte stream that
// arrives in arbitrary chunks. Feed bytes with Write, pull complete frames
// with Next. Buffered bytes are only consumed once a whole frame is present.
type Decoder struct {
	maxFrame int
	buf      []byte
}

// NewDecoder builds a Decoder rejecting frames larger than maxFrame bytes.
func NewDecoder(maxFrame int) *Decoder {
	if maxFrame <= 0 {
		maxFrame = defaultMaxFrame
	}
	return &Decoder{maxFrame: maxFrame}
}

// Write buffers raw bytes read from the transport.
func (d *Decoder) Write(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next returns the payload of the next complete frame. It returns
// ErrNeedMore when the buffer holds only a partial frame, and
// ErrFrameTooLarge when the declared length exceeds the maximum; the
// latter is session-fatal since the stream can no longer be trusted.
func (d *Decoder) Next() ([]byte, error) {
	if len(d.buf) < frameHeaderSize {
		return nil, ErrNeedMore
	}
	n := int(binary.BigEndian.Uint32(d.buf[:frameHeaderSize]))
	if n > d.maxFrame {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, n, d.maxFrame)
	}
	if len(d.buf) < frameHeaderSize+n {
		return nil, ErrNeedMore
	}
	payload := make([]byte, n)
	copy(payload, d.buf[frameHeaderSize:frameHeaderSize+n])
	d.buf = d.buf[frameHeaderSize+n:]
	return payload, nil
}
