package telemetry

import "sync"

// Buffer is a fixed-capacity ring of observations shared between the
// ingestion goroutine and drift scoring. When full, the oldest entry is
// evicted, so unbounded ingestion can never exhaust memory.
type Buffer struct {
	mu    sync.Mutex
	items []Observation
	next  int
	count int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{items: make([]Observation, capacity)}
}

func (b *Buffer) Append(obs Observation) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.next] = obs
	b.next = (b.next + 1) % len(b.items)
	if b.count < len(b.items) {
		b.count++
	}
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Snapshot returns the buffered observations oldest first. The returned
// slice is a copy; readers never hold the buffer's lock.
func (b *Buffer) Snapshot() []Observation {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Observation, 0, b.count)
	start := b.next - b.count
	if start < 0 {
		start += len(b.items)
	}
	for i := 0; i < b.count; i++ {
		out = append(out, b.items[(start+i)%len(b.items)])
	}
	return out
}
