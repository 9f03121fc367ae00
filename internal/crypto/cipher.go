// Package crypto implements the symmetric cipher used to protect token
// subjects. Ciphertext is AES-CFB under a key derived from the server
// secret, with a fixed 16-byte salt as initialization vector, encoded as
// transport-safe text.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// DefaultSalt is used when no salt is configured in the environment.
const DefaultSalt = "ZlCK@3OpHygTYkP1"

// SaltLength is the required salt length in bytes. The salt doubles as the
// AES initialization vector, so it must match the AES block size exactly.
const SaltLength = 16

// ErrCipher is returned when decryption fails on corrupted or
// foreign-keyed ciphertext.
var ErrCipher = errors.New("cipher error")

// slashEscape keeps ciphertext free of characters reserved by the outer
// token envelope. Standard base64 emits '/', which is substituted on the
// way out and restored on the way in.
const slashEscape = "-_-"

// Cipher encrypts and decrypts opaque strings under a caller-supplied key.
// The zero value is not usable; construct with NewCipher.
type Cipher struct {
	salt []byte
}

// NewCipher validates the salt once up front. A wrong-length salt is a
// configuration error and must be treated as fatal by the caller; no
// per-call validation happens after construction.
func NewCipher(salt string) (*Cipher, error) {
	if salt == "" {
		salt = DefaultSalt
	}
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("salt must be exactly %d bytes, got %d", SaltLength, len(salt))
	}
	return &Cipher{salt: []byte(salt)}, nil
}

// Encrypt encrypts plaintext under the given key and returns
// transport-safe text.
func (c *Cipher) Encrypt(plaintext, key string) (string, error) {
	block, err := c.block(key)
	if err != nil {
		return "", err
	}
	src := []byte(plaintext)
	dst := make([]byte, len(src))
	cipher.NewCFBEncrypter(block, c.salt).XORKeyStream(dst, src)
	encoded := base64.StdEncoding.EncodeToString(dst)
	return strings.ReplaceAll(encoded, "/", slashEscape), nil
}

// Decrypt reverses Encrypt. Corrupted input or a foreign key surfaces as
// ErrCipher rather than silently returning garbage.
func (c *Cipher) Decrypt(ciphertext, key string) (string, error) {
	encoded := strings.ReplaceAll(ciphertext, slashEscape, "/")
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCipher, err)
	}
	block, err := c.block(key)
	if err != nil {
		return "", err
	}
	dst := make([]byte, len(raw))
	cipher.NewCFBDecrypter(block, c.salt).XORKeyStream(dst, raw)
	return string(dst), nil
}

// block derives the AES block cipher. The key is passed through SHA-256 so
// any secret length maps onto a valid AES-256 key.
func (c *Cipher) block(key string) (cipher.Block, error) {
	digest := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	return block, nil
}
