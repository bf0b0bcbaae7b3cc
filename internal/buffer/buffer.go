package buffer

import (
	"log"
	"sync"
	"time"
)

const (
	// DefaultSweepPeriod is how often the eviction sweep runs.
	DefaultSweepPeriod = 30 * time.Second
	// DefaultMaxAge is the age at which buffered photos are evicted.
	// It is longer than DefaultDrainWindow so a drain always sees a
	// strict subset of what the sweep would keep.
	DefaultMaxAge = 60 * time.Second
	// DefaultDrainWindow is the acceptance window used when a report
	// trigger drains the buffer.
	DefaultDrainWindow = 20 * time.Second
)

// Event is a buffered photo arrival. MessageID references the original
// Telegram message; the buffer never stores message bodies.
type Event struct {
	MessageID int
	Received  time.Time
}

// Buffer is a short-lived per-chat queue of recently received photo events.
// Entries expire via the periodic eviction sweep or are drained into a
// report. Insertion order per chat is the only ordering guarantee.
type Buffer struct {
	mu    sync.Mutex
	chats map[int64][]Event
}

// New creates an empty photo buffer.
func New() *Buffer {
	return &Buffer{chats: make(map[int64][]Event)}
}

// Append adds an event to the tail of the chat's sequence.
func (b *Buffer) Append(chatID int64, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chats[chatID] = append(b.chats[chatID], ev)
}

// Len returns the number of buffered events for a chat.
func (b *Buffer) Len(chatID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chats[chatID])
}

// EvictStale removes every event older than maxAge from every chat's
// sequence. Chats whose sequence becomes empty are dropped entirely so
// unregistered chats do not leak map entries. Idempotent for a fixed now.
func (b *Buffer) EvictStale(now time.Time, maxAge time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := 0
	for chatID, events := range b.chats {
		kept := events[:0]
		for _, ev := range events {
			if now.Sub(ev.Received) <= maxAge {
				kept = append(kept, ev)
			}
		}
		evicted += len(events) - len(kept)
		if len(kept) == 0 {
			delete(b.chats, chatID)
		} else {
			b.chats[chatID] = kept
		}
	}
	if evicted > 0 {
		log.Printf("[PhotoBuffer] Evicted %d stale photo(s)", evicted)
	}
}

// DrainWindow returns every buffered event for the chat whose age relative
// to now is within window. The buffer is not mutated; callers clear it
// explicitly once a report commit succeeds.
func (b *Buffer) DrainWindow(chatID int64, now time.Time, window time.Duration) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	var recent []Event
	for _, ev := range b.chats[chatID] {
		if now.Sub(ev.Received) <= window {
			recent = append(recent, ev)
		}
	}
	return recent
}

// Clear drops the chat's sequence, preventing double-counting
// in the next reporting cycle.
func (b *Buffer) Clear(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.chats, chatID)
}
