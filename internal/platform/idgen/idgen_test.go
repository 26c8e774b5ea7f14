package idgen

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNext_UsesTimestamp(t *testing.T) {
	fixed := time.UnixMilli(1731600000000)
	g := NewWithClock(func() time.Time { return fixed })

	if got := g.Next("apt"); got != "apt1731600000000" {
		t.Errorf("expected apt1731600000000, got %s", got)
	}
}

func TestNext_StrictlyIncreasingWithinSameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1731600000000)
	g := NewWithClock(func() time.Time { return fixed })

	first := g.Next("")
	second := g.Next("")
	third := g.Next("rec")

	if first != "1731600000000" || second != "1731600000001" || third != "rec1731600000002" {
		t.Errorf("unexpected sequence: %s %s %s", first, second, third)
	}
}

func TestNext_ConcurrentUnique(t *testing.T) {
	g := New()
	const n = 200

	var mu sync.Mutex
	seen := make(map[string]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Next("apt")
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("expected %d unique ids, got %d", n, len(seen))
	}
	for id := range seen {
		if !strings.HasPrefix(id, "apt") {
			t.Errorf("id %s missing prefix", id)
		}
	}
}
