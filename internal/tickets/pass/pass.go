// Package pass renders reserved tickets as QR codes. The QR payload is an
// AES-GCM sealed claim, so a scanner holding the secret can check it offline.
package pass

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"

	"ms-bookings/internal/models"
)

var ErrInvalidPass = errors.New("invalid ticket pass")

// Claims is what a pass proves: who may sit where.
type Claims struct {
	TicketID  string `json:"id"`
	Movie     string `json:"movie"`
	Placement uint64 `json:"seat"`
}

type Generator struct {
	aead cipher.AEAD
	size int
}

// NewGenerator derives a 256-bit key from secret.
func NewGenerator(secret string) (*Generator, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Generator{aead: aead, size: 256}, nil
}

// Seal encrypts the ticket's claims into a URL-safe token.
func (g *Generator) Seal(ticket models.Ticket) (string, error) {
	if !ticket.Reserved {
		return "", models.ErrNotReserved
	}
	data, err := json.Marshal(Claims{TicketID: ticket.ID, Movie: ticket.Movie, Placement: ticket.Placement})
	if err != nil {
		return "", err
	}

	nonce := make([]byte, g.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := g.aead.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (g *Generator) Open(token string) (Claims, error) {
	var claims Claims
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return claims, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}
	ns := g.aead.NonceSize()
	if len(raw) < ns {
		return claims, fmt.Errorf("%w: token too short", ErrInvalidPass)
	}
	data, err := g.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return claims, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}
	if err := json.Unmarshal(data, &claims); err != nil {
		return claims, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}
	return claims, nil
}

// Render returns a PNG QR code holding the sealed token.
func (g *Generator) Render(ticket models.Ticket) ([]byte, error) {
	token, err := g.Seal(ticket)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(token, qrcode.Medium, g.size)
}

// Matches reports whether claims still describe ticket.
func (c Claims) Matches(ticket models.Ticket) bool {
	return c.TicketID == ticket.ID && c.Movie == ticket.Movie && c.Placement == ticket.Placement
}
