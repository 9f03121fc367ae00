// Package token builds and parses the signed envelopes used as bearer
// credentials. An envelope is an HS256-signed structure whose payload is a
// Cipher-encrypted subject plus an absolute expiry timestamp.
//
// Expiry is carried as an application claim rather than a registered claim
// of the signing scheme. The codec is signature-only by design: checking
// the expiry (and the token kind) is the authenticator's responsibility.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bzdvdn/samba-ad-api/internal/crypto"
)

// Token kinds carried inside the subject.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// ErrInvalidSignature is returned for malformed envelopes and signature
// mismatches alike; the payload is never inspected before the signature
// verifies.
var ErrInvalidSignature = errors.New("invalid token signature")

// Subject is the payload encrypted inside an envelope. It exists only
// transiently in memory; the password never appears outside the
// ciphertext.
type Subject struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	TokenType string `json:"token_type"`
}

// Codec mints and parses token envelopes under a process-wide secret.
type Codec struct {
	cipher *crypto.Cipher
	secret string
	now    func() time.Time
}

// NewCodec creates a codec signing and encrypting under secret. The same
// secret keys both the cipher and the envelope signature, mirroring the
// single SECRET_KEY configuration knob.
func NewCodec(cipher *crypto.Cipher, secret string) *Codec {
	return &Codec{
		cipher: cipher,
		secret: secret,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Mint serializes and encrypts the subject, stamps an absolute expiry of
// now+ttl, and signs the whole envelope as one opaque string.
func (c *Codec) Mint(sub Subject, ttl time.Duration) (string, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return "", fmt.Errorf("encode subject: %w", err)
	}

	ciphertext, err := c.cipher.Encrypt(string(payload), c.secret)
	if err != nil {
		return "", fmt.Errorf("encrypt subject: %w", err)
	}

	expiry := c.now().UTC().Add(ttl)
	envelope := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    ciphertext,
		"expire": expiry.Format(time.RFC3339),
	})

	signed, err := envelope.SignedString([]byte(c.secret))
	if err != nil {
		return "", fmt.Errorf("sign envelope: %w", err)
	}
	return signed, nil
}

// Parse verifies the envelope signature, then decrypts and decodes the
// subject. Returns the subject and the envelope's absolute expiry; the
// expiry is reported, not enforced.
func (c *Codec) Parse(tokenString string) (Subject, time.Time, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return []byte(c.secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Subject{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Subject{}, time.Time{}, ErrInvalidSignature
	}
	ciphertext, ok := claims["sub"].(string)
	if !ok {
		return Subject{}, time.Time{}, ErrInvalidSignature
	}
	expireRaw, ok := claims["expire"].(string)
	if !ok {
		return Subject{}, time.Time{}, ErrInvalidSignature
	}
	expiry, err := time.Parse(time.RFC3339, expireRaw)
	if err != nil {
		return Subject{}, time.Time{}, fmt.Errorf("%w: bad expire claim", ErrInvalidSignature)
	}

	payload, err := c.cipher.Decrypt(ciphertext, c.secret)
	if err != nil {
		return Subject{}, time.Time{}, err
	}

	var sub Subject
	if err := json.Unmarshal([]byte(payload), &sub); err != nil {
		// Signature verified but the plaintext does not decode: the
		// ciphertext was produced under a different key or salt.
		return Subject{}, time.Time{}, fmt.Errorf("%w: subject decode failed", crypto.ErrCipher)
	}
	return sub, expiry, nil
}
