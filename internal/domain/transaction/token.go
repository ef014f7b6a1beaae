package transaction

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// TokenPayload is the decoded content of the opaque credential a driver
// presents at the pump. The payload carries just enough to locate the
// token record; everything else lives server-side.
type TokenPayload struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Signature     string    `json:"signature"`
}

// NewSignature generates a random unguessable token signature.
func NewSignature() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// EncodePayload serializes a payload for out-of-band transport.
func EncodePayload(p TokenPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodePayload parses a scanned payload. Any malformed input maps to
// ErrInvalidOrExpiredToken so callers see a single rejection kind.
func DecodePayload(s string) (TokenPayload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return TokenPayload{}, ErrInvalidOrExpiredToken
	}

	var p TokenPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return TokenPayload{}, ErrInvalidOrExpiredToken
	}
	if p.TransactionID == uuid.Nil || p.Signature == "" {
		return TokenPayload{}, ErrInvalidOrExpiredToken
	}
	return p, nil
}
