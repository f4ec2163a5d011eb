package chat

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize    = 32
	nonceSize  = 12
	kdfRounds  = 100000
	kdfAppSalt = "confluxus-chat-v1"
)

// DeriveKey stretches the pre-shared secret into AES-256 key material.
// Both ends run the same derivation, so no key exchange happens on the wire.
func DeriveKey(sharedSecret string) []byte {
	return pbkdf2.Key([]byte(sharedSecret), []byte(kdfAppSalt), kdfRounds, keySize, sha256.New)
}

// Cipher holds one session's AEAD state. Seal uses a counter-derived nonce
// with a random per-session prefix, so two sessions sharing the same key
// never reuse a nonce. The nonce travels with the ciphertext, so Open needs
// no counter of its own.
type Cipher struct {
	aead   cipher.AEAD
	prefix [4]byte
	seq    uint64
}

// NewCipher builds per-session cipher state from derived key material.
func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	c := &Cipher{aead: aead}
	if _, err := rand.Read(c.prefix[:]); err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	return c, nil
}

// Seal encrypts and authenticates plaintext, returning nonce||ciphertext.
// Not safe for concurrent use; callers serialize through the session's
// write lock.
func (c *Cipher) Seal(plaintext []byte) []byte {
	var nonce [nonceSize]byte
	copy(nonce[:4], c.prefix[:])
	binary.BigEndian.PutUint64(nonce[4:], c.seq)
	c.seq++

	out := make([]byte, nonceSize, nonceSize+len(plaintext)+c.aead.Overhead())
	copy(out, nonce[:])
	return c.aead.Seal(out, nonce[:], plaintext, nil)
}

// Open authenticates and decrypts a sealed payload. Any tampering,
// truncation or wrong key surfaces as ErrAuthentication.
func (c *Cipher) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: sealed payload too short", ErrAuthentication)
	}
	plaintext, err := c.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return plaintext, nil
}
