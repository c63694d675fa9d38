package ws

import (
	"testing"

	"github.com/achgithub/turnlink-backend/internal/store"
)

func testGame() store.Game {
	player2ID := "uB"
	return store.Game{
		ID:        "g1",
		Player1ID: "uA",
		Player2ID: &player2ID,
		Player1:   store.Player{UserID: "uA", DisplayName: "Alice"},
		Player2:   &store.Player{UserID: "uB", DisplayName: "Bob"},
	}
}

func TestPlayerIndexForCreator(t *testing.T) {
	idx, err := playerIndexFor(testGame(), "uA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 1 {
		t.Errorf("expected playerIndex 1, got %d", idx)
	}
}

func TestPlayerIndexForJoiner(t *testing.T) {
	idx, err := playerIndexFor(testGame(), "uB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 2 {
		t.Errorf("expected playerIndex 2, got %d", idx)
	}
}

func TestPlayerIndexForNonParticipantIsForbidden(t *testing.T) {
	_, err := playerIndexFor(testGame(), "uC")
	if err == nil {
		t.Fatal("expected an error for a non-participant userId")
	}
	ae, ok := err.(*admissionError)
	if !ok || ae.status != 403 {
		t.Errorf("expected a 403 admissionError, got %v", err)
	}
}

func TestPlayerIndexForWaitingGameWithNoPlayer2(t *testing.T) {
	game := store.Game{ID: "g2", Player1ID: "uA", Player2ID: nil}
	if _, err := playerIndexFor(game, "uB"); err == nil {
		t.Fatal("expected an error when player2 does not exist yet")
	}
}
