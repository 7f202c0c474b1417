package pagination

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecodeToken(t *testing.T) {
	cursor := Cursor{
		CreatedAt: time.Date(2025, 4, 2, 12, 30, 0, 250000000, time.UTC),
		ID:        "ord_abc",
	}

	token, err := EncodeToken(cursor)
	if err != nil {
		t.Fatalf("EncodeToken returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	decoded, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken returned error: %v", err)
	}
	if decoded.ID != cursor.ID {
		t.Fatalf("expected id %q got %q", cursor.ID, decoded.ID)
	}
	if !decoded.CreatedAt.Equal(cursor.CreatedAt) {
		t.Fatalf("expected timestamp %s got %s", cursor.CreatedAt, decoded.CreatedAt)
	}
}

func TestEncodeTokenZeroCursor(t *testing.T) {
	token, err := EncodeToken(Cursor{})
	if err != nil {
		t.Fatalf("EncodeToken returned error: %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token for zero cursor got %q", token)
	}
}

func TestDecodeTokenEmpty(t *testing.T) {
	cursor, err := DecodeToken("   ")
	if err != nil {
		t.Fatalf("DecodeToken returned error: %v", err)
	}
	if !cursor.IsZero() {
		t.Fatalf("expected zero cursor got %#v", cursor)
	}
}

func TestDecodeTokenInvalid(t *testing.T) {
	if _, err := DecodeToken("!!!invalid!!!"); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken got %v", err)
	}
	// Valid base64 JSON that carries no cursor position is rejected too.
	if _, err := DecodeToken("e30"); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken for empty payload got %v", err)
	}
}
