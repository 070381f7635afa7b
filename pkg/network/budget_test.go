package network

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestMalformedBudgetWindow(t *testing.T) {
	clk := clock.NewMock()
	b := newMalformedBudget(clk)

	for i := 0; i < MalformedBudget; i++ {
		if !b.take() {
			t.Fatalf("take() #%d = false, want true", i+1)
		}
		clk.Add(time.Minute)
	}

	// The last grant was at minute 3, so the window ends at minute 13
	for i := 0; i < 3; i++ {
		if b.take() {
			t.Errorf("take() = true with an exhausted budget")
		}
		clk.Add(2 * time.Minute)
	}

	clk.Add(3 * time.Minute)
	if !b.take() {
		t.Error("take() = false after the window elapsed")
	}
	if b.remaining != MalformedBudget-1 {
		t.Errorf("remaining = %d, want %d", b.remaining, MalformedBudget-1)
	}
}
