package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_StateClosed(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Second)

	if cb.State() != StateClosed {
		t.Errorf("Expected initial state to be Closed, got %d", cb.State())
	}

	if err := cb.Call(func() error { return nil }); err != nil {
		t.Errorf("Expected call to succeed in Closed state, got %v", err)
	}
}

func TestCircuitBreaker_OpenAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Second)
	boom := errors.New("upstream down")

	for i := 0; i < 2; i++ {
		_ = cb.Call(func() error { return boom })
	}
	if cb.State() != StateClosed {
		t.Error("Expected state to still be Closed after 2 failures")
	}

	_ = cb.Call(func() error { return boom })
	if cb.State() != StateOpen {
		t.Error("Expected state to be Open after 3 failures")
	}

	// Open circuit short-circuits without invoking fn
	invoked := false
	err := cb.Call(func() error {
		invoked = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if invoked {
		t.Error("Expected fn not to be invoked while circuit is open")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 50*time.Millisecond)
	boom := errors.New("upstream down")

	_ = cb.Call(func() error { return boom })
	_ = cb.Call(func() error { return boom })
	if cb.State() != StateOpen {
		t.Fatal("Expected circuit to be Open")
	}

	time.Sleep(80 * time.Millisecond)

	// Successful probes close the circuit again
	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("Expected probe %d to be allowed, got %v", i, err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected state Closed after successful probes, got %d", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 50*time.Millisecond)
	boom := errors.New("upstream down")

	_ = cb.Call(func() error { return boom })
	_ = cb.Call(func() error { return boom })

	time.Sleep(80 * time.Millisecond)

	_ = cb.Call(func() error { return boom })
	if cb.State() != StateOpen {
		t.Errorf("Expected failed probe to reopen circuit, got state %d", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Minute)

	_ = cb.Call(func() error { return errors.New("boom") })
	if cb.State() != StateOpen {
		t.Fatal("Expected circuit to be Open")
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Error("Expected circuit to be Closed after Reset")
	}
}
