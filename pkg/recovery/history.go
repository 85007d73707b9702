package recovery

import (
	"sync"
	"time"
)

// historyCapacity bounds the per-bucket error ring; statistics otherwise
// grow for the process lifetime.
const historyCapacity = 10

// ErrorRecord is one remembered failure.
type ErrorRecord struct {
	Kind      Kind      `json:"kind"`
	Tool      string    `json:"tool,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorStatistics is the read-only snapshot for one bucket (a tool or a
// component such as "context" or "rendering").
type ErrorStatistics struct {
	Total  int64          `json:"total"`
	ByKind map[Kind]int64 `json:"by_kind"`
	Recent []ErrorRecord  `json:"recent"`
}

// errorRing is a fixed-capacity circular buffer with O(1) overwrite.
type errorRing struct {
	buf  [historyCapacity]ErrorRecord
	next int
	size int
}

func (r *errorRing) append(rec ErrorRecord) {
	r.buf[r.next] = rec
	r.next = (r.next + 1) % historyCapacity
	if r.size < historyCapacity {
		r.size++
	}
}

// records returns the buffered failures, oldest first.
func (r *errorRing) records() []ErrorRecord {
	out := make([]ErrorRecord, 0, r.size)
	start := r.next - r.size
	if start < 0 {
		start += historyCapacity
	}
	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(start+i)%historyCapacity])
	}
	return out
}

func (r *errorRing) countKind(kind Kind) int {
	count := 0
	for _, rec := range r.records() {
		if rec.Kind == kind {
			count++
		}
	}
	return count
}

// historyBook tracks bounded error history per bucket.
type historyBook struct {
	rings  map[string]*errorRing
	totals map[string]int64
	byKind map[string]map[Kind]int64
	mu     sync.RWMutex
}

func newHistoryBook() *historyBook {
	return &historyBook{
		rings:  make(map[string]*errorRing),
		totals: make(map[string]int64),
		byKind: make(map[string]map[Kind]int64),
	}
}

func (hb *historyBook) record(bucket string, rec ErrorRecord) {
	hb.mu.Lock()
	defer hb.mu.Unlock()

	ring, ok := hb.rings[bucket]
	if !ok {
		ring = &errorRing{}
		hb.rings[bucket] = ring
		hb.byKind[bucket] = make(map[Kind]int64)
	}
	ring.append(rec)
	hb.totals[bucket]++
	hb.byKind[bucket][rec.Kind]++
}

// recentKindCount counts failures of a kind within the bucket's ring.
func (hb *historyBook) recentKindCount(bucket string, kind Kind) int {
	hb.mu.RLock()
	defer hb.mu.RUnlock()

	ring, ok := hb.rings[bucket]
	if !ok {
		return 0
	}
	return ring.countKind(kind)
}

// snapshot returns per-bucket statistics copies.
func (hb *historyBook) snapshot() map[string]ErrorStatistics {
	hb.mu.RLock()
	defer hb.mu.RUnlock()

	out := make(map[string]ErrorStatistics, len(hb.rings))
	for bucket, ring := range hb.rings {
		kinds := make(map[Kind]int64, len(hb.byKind[bucket]))
		for k, v := range hb.byKind[bucket] {
			kinds[k] = v
		}
		out[bucket] = ErrorStatistics{
			Total:  hb.totals[bucket],
			ByKind: kinds,
			Recent: ring.records(),
		}
	}
	return out
}
