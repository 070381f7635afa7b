package network

import (
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// MalformedBudget is the number of resync Hellos sent per window
	MalformedBudget = 4

	// MalformedWindow is how long after the last resync Hello the budget refills
	MalformedWindow = 10 * time.Minute
)

// malformedBudget caps the Hellos sent in response to undecodable packets.
// It is owned by the receive goroutine.
type malformedBudget struct {
	clock     clock.Clock
	remaining int
	deadline  time.Time
	armed     bool
}

func newMalformedBudget(clk clock.Clock) *malformedBudget {
	return &malformedBudget{
		clock:     clk,
		remaining: MalformedBudget,
	}
}

// take consumes one unit and reports whether a resync Hello may be sent
func (b *malformedBudget) take() bool {
	now := b.clock.Now()
	if b.armed && !now.Before(b.deadline) {
		b.remaining = MalformedBudget
		b.armed = false
	}

	if b.remaining <= 0 {
		b.remaining = 0
		return false
	}
	b.remaining--

	b.deadline = now.Add(MalformedWindow)
	b.armed = true
	return true
}
