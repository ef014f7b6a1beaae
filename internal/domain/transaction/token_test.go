package transaction

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	sig, err := NewSignature()
	if err != nil {
		t.Fatalf("signature failed: %v", err)
	}
	if len(sig) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(sig))
	}

	p := TokenPayload{TransactionID: uuid.New(), Signature: sig}
	encoded, err := EncodePayload(p)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodePayload(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != p {
		t.Fatalf("round trip mismatch: %+v != %+v", decoded, p)
	}
}

func TestDecodePayloadRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"!!!not-base64!!!",
		"bm90LWpzb24",           // valid base64, not JSON
		"e30",                   // empty JSON object
		"eyJzaWduYXR1cmUiOiIifQ", // missing fields
	}
	for _, in := range cases {
		if _, err := DecodePayload(in); !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Errorf("DecodePayload(%q): expected ErrInvalidOrExpiredToken, got %v", in, err)
		}
	}
}

func TestSignaturesAreUnique(t *testing.T) {
	a, err := NewSignature()
	if err != nil {
		t.Fatalf("signature failed: %v", err)
	}
	b, err := NewSignature()
	if err != nil {
		t.Fatalf("signature failed: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct signatures")
	}
}
