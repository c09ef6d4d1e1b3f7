package browserpool

import (
	"context"
	"testing"
	"time"
)

// TestStatsInvariant checks that Stats always reports leased + free = total,
// independent of whether any real browser has been launched (Init requires
// a Chromium binary and is exercised in integration environments).
func TestStatsInvariant(t *testing.T) {
	p := &Pool{total: 3, inUse: 1}
	s := p.Stats()

	if s.Total != 3 {
		t.Fatalf("Total = %d, want 3", s.Total)
	}
	if s.InUse != 1 {
		t.Fatalf("InUse = %d, want 1", s.InUse)
	}
	if s.InUse+s.Available != s.Total {
		t.Fatalf("invariant violated: inUse(%d) + available(%d) != total(%d)", s.InUse, s.Available, s.Total)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	p := New()
	if err := p.Close(); err != nil {
		t.Fatalf("Close on never-initialized pool: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	s := p.Stats()
	if s.Total != 0 {
		t.Fatalf("expected total 0 after close, got %d", s.Total)
	}
}

func TestAcquireAfterCloseFails(t *testing.T) {
	p := New()
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := p.Acquire(context.Background(), 10*time.Millisecond); err != errPoolClosed {
		t.Fatalf("expected errPoolClosed, got %v", err)
	}
}
