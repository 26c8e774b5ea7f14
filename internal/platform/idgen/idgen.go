// Package idgen produces the timestamp-based record identifiers used by every
// collection ("1731600000000", "apt1731600000001", "rec1731600000002").
package idgen

import (
	"strconv"
	"sync"
	"time"
)

// Generator hands out millisecond timestamps that are strictly increasing
// within the process, so two creates in the same millisecond never collide.
type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// New returns a Generator backed by the wall clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock returns a Generator using now as its time source.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next returns prefix followed by the next timestamp.
func (g *Generator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().UnixMilli()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	return prefix + strconv.FormatInt(ts, 10)
}

var defaultGenerator = New()

// Next returns an identifier from the process-wide generator.
func Next(prefix string) string {
	return defaultGenerator.Next(prefix)
}
