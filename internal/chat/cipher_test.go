package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	req := require.New(t)

	key := DeriveKey("topsecret")
	sender, err := NewCipher(key)
	req.NoError(err)
	receiver, err := NewCipher(key)
	req.NoError(err)

	for _, body := range []string{
		"",
		"hi",
		"Hello everyone!",
		strings.Repeat("x", 512),
	} {
		sealed := sender.Seal([]byte(body))
		plain, err := receiver.Open(sealed)
		req.NoError(err)
		req.Equal(body, string(plain))
	}
}

func TestCipher_DetectsBitFlips(t *testing.T) {
	req := require.New(t)

	c, err := NewCipher(DeriveKey("topsecret"))
	req.NoError(err)

	sealed := c.Seal([]byte("Hello everyone!"))
	for i := range sealed {
		corrupted := append([]byte(nil), sealed...)
		corrupted[i] ^= 0x01
		_, err := c.Open(corrupted)
		req.ErrorIs(err, ErrAuthentication, "flip at byte %d went undetected", i)
	}
}

func TestCipher_DetectsTruncation(t *testing.T) {
	req := require.New(t)

	c, err := NewCipher(DeriveKey("topsecret"))
	req.NoError(err)

	sealed := c.Seal([]byte("Hello everyone!"))
	for _, n := range []int{0, 1, nonceSize, len(sealed) - 1} {
		_, err := c.Open(sealed[:n])
		req.ErrorIs(err, ErrAuthentication)
	}
}

func TestCipher_RejectsWrongKey(t *testing.T) {
	req := require.New(t)

	sender, err := NewCipher(DeriveKey("topsecret"))
	req.NoError(err)
	other, err := NewCipher(DeriveKey("different"))
	req.NoError(err)

	_, err = other.Open(sender.Seal([]byte("hi")))
	req.ErrorIs(err, ErrAuthentication)
}

func TestCipher_NoncesNeverRepeat(t *testing.T) {
	req := require.New(t)

	c, err := NewCipher(DeriveKey("topsecret"))
	req.NoError(err)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		sealed := c.Seal([]byte("same plaintext"))
		nonce := string(sealed[:nonceSize])
		req.False(seen[nonce], "nonce reused on seal %d", i)
		seen[nonce] = true
	}
}
