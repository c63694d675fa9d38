package store

import (
	"testing"
	"time"
)

func TestClampLimit(t *testing.T) {
	cases := map[int]int{
		0:    100,
		-5:   100,
		1:    1,
		50:   50,
		100:  100,
		101:  100,
		9999: 100,
	}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Errorf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	token := encodeCursor(now, "game-123")

	c, err := decodeCursor(token)
	if err != nil {
		t.Fatalf("unexpected error decoding cursor: %v", err)
	}
	if !c.CreatedAt.Equal(now) {
		t.Errorf("expected CreatedAt %v, got %v", now, c.CreatedAt)
	}
	if c.ID != "game-123" {
		t.Errorf("expected ID 'game-123', got %s", c.ID)
	}
}

func TestDecodeEmptyCursor(t *testing.T) {
	c, err := decodeCursor("")
	if err != nil {
		t.Fatalf("unexpected error decoding empty token: %v", err)
	}
	if !c.CreatedAt.IsZero() || c.ID != "" {
		t.Errorf("expected zero cursor, got %+v", c)
	}
}

func TestDecodeInvalidCursor(t *testing.T) {
	_, err := decodeCursor("not-valid-base64!!!")
	if err == nil {
		t.Fatal("expected an error decoding a malformed token")
	}
	if !IsBadRequest(err) {
		t.Errorf("expected a BadRequest store error, got %v", err)
	}
}
