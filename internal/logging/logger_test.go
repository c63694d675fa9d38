package logging

import (
	"testing"
)

func TestNew(t *testing.T) {
	logger := New("test-component")

	if logger == nil {
		t.Error("Expected logger to be created")
	}

	if logger.component != "test-component" {
		t.Errorf("Expected component 'test-component', got '%s'", logger.component)
	}

	// Test logging methods don't panic
	logger.Info("test info")
	logger.Error("test error")
	logger.Warn("test warning")
	logger.Debug("test debug")
	logger.Success("test success")
}

func TestWithGameAddsContext(t *testing.T) {
	parent := New("test-component")
	logger := parent.WithGame("g1")

	if len(logger.context) != 1 || logger.context[0] != "game=g1" {
		t.Errorf("expected context [game=g1], got %v", logger.context)
	}

	// The parent logger must be unaffected by the child's context.
	if len(parent.context) != 0 {
		t.Errorf("expected parent logger to carry no context, got %v", parent.context)
	}
}

func TestWithGameAndConnectionStack(t *testing.T) {
	logger := New("test-component").WithGame("g1").WithConnection("c1")

	want := []string{"game=g1", "connection=c1"}
	if len(logger.context) != len(want) {
		t.Fatalf("expected context %v, got %v", want, logger.context)
	}
	for i, v := range want {
		if logger.context[i] != v {
			t.Errorf("expected context[%d]=%s, got %s", i, v, logger.context[i])
		}
	}

	logger.Warn("test warning with context")
}

func TestWithEmptyValueReturnsSameLogger(t *testing.T) {
	logger := New("test-component")
	if logger.WithGame("") != logger {
		t.Error("expected WithGame(\"\") to be a no-op returning the receiver")
	}
}
