package service

import (
	"log/slog"
	"sync"
)

// ChangeKind names which list a change invalidates.
type ChangeKind string

const (
	ChangeCategories ChangeKind = "categories"
	ChangeScraps     ChangeKind = "scraps"
	ChangeUser       ChangeKind = "user"
)

// ChangeEvent tells subscribers of one owner that data they display is stale.
type ChangeEvent struct {
	UserID     string
	Kind       ChangeKind
	CategoryID string
}

// Broker fans change events out to per-user subscribers. Sends never block;
// a subscriber that is not keeping up misses events and re-fetches on the
// next one.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[chan ChangeEvent]struct{}
	closed bool
	logger *slog.Logger
}

// NewBroker creates a Broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subs:   make(map[string]map[chan ChangeEvent]struct{}),
		logger: logger,
	}
}

// Subscribe registers for events of userID. The returned cancel function
// unregisters and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe(userID string) (<-chan ChangeEvent, func()) {
	ch := make(chan ChangeEvent, 16)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan ChangeEvent]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[userID][ch]; !ok {
				return
			}
			delete(b.subs[userID], ch)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber of ev.UserID. A nil Broker drops
// events.
func (b *Broker) Publish(ev ChangeEvent) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("dropped change event for slow subscriber",
				slog.String("user_id", ev.UserID),
				slog.String("kind", string(ev.Kind)))
		}
	}
}

// Close closes every subscriber channel and rejects new subscriptions.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for userID, chans := range b.subs {
		for ch := range chans {
			close(ch)
		}
		delete(b.subs, userID)
	}
}
