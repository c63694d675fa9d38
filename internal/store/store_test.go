package store

import (
	"testing"
	"time"
)

func TestCursorTimeDefaultsToFarFutureSentinel(t *testing.T) {
	got := cursorTime(cursor{})
	if !got.After(time.Now().AddDate(100, 0, 0)) {
		t.Errorf("expected the zero cursor's sentinel time to be far in the future, got %v", got)
	}

	explicit := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := cursorTime(cursor{CreatedAt: explicit}); !got.Equal(explicit) {
		t.Errorf("expected an explicit cursor time to pass through unchanged, got %v", got)
	}
}

func TestCursorIDDefaultsToHighSentinel(t *testing.T) {
	if cursorID(cursor{}) == "" {
		t.Error("expected the zero cursor's sentinel id to be non-empty")
	}
	if cursorID(cursor{ID: "game-1"}) != "game-1" {
		t.Error("expected an explicit cursor id to pass through unchanged")
	}
}

// Integration tests (require PostgreSQL) exercising Open/CreateGame/JoinGame/
// ListGames/SweepExpiredConnections against a real database are not included
// here; this package's tests stop at pure logic.
