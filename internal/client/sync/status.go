package sync

import (
	"sync"
	"time"

	"github.com/avoronov/goalkeeper/internal/models"
)

// Status is a point-in-time snapshot of the engine published to subscribers.
// Pending counts queued operations; Total counts operations handled since the
// coordinator started (confirmed, resolved or dropped).
type Status struct {
	LastSyncAt time.Time                 `json:"last_sync_at"`
	PerType    map[models.ObjectType]int `json:"per_type"`
	LastError  string                    `json:"last_error"`
	Pending    int                       `json:"pending"`
	Total      int                       `json:"total"`
	IsOnline   bool                      `json:"is_online"`
	IsSyncing  bool                      `json:"is_syncing"`
}

// statusBroadcaster fans status snapshots out to subscribers. Publishing
// never blocks: a slow subscriber loses intermediate snapshots, not the
// stream.
type statusBroadcaster struct {
	mu      sync.Mutex
	current Status
	subs    map[int]chan Status
	nextSub int
}

func newStatusBroadcaster() *statusBroadcaster {
	return &statusBroadcaster{subs: make(map[int]chan Status)}
}

// Current returns the latest snapshot.
func (b *statusBroadcaster) Current() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return snapshot(b.current)
}

// Subscribe registers a status listener. The returned cancel function must
// be called to release the channel.
func (b *statusBroadcaster) Subscribe() (<-chan Status, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	ch := make(chan Status, 8)
	b.subs[id] = ch
	ch <- snapshot(b.current)

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// update applies mutate to the current status and publishes the result.
func (b *statusBroadcaster) update(mutate func(*Status)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	mutate(&b.current)
	for _, ch := range b.subs {
		select {
		case ch <- snapshot(b.current):
		default: // subscriber is behind, skip this snapshot
		}
	}
}

func snapshot(s Status) Status {
	out := s
	out.PerType = make(map[models.ObjectType]int, len(s.PerType))
	for k, v := range s.PerType {
		out.PerType[k] = v
	}
	return out
}
