package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"coffee-salon/internal/metrics"
	"coffee-salon/internal/model"
)

// ErrSubscriberLagged ends a stream whose subscriber could not keep up. The
// client has to resume from the last cursor it received.
var ErrSubscriberLagged = errors.New("realtime subscriber fell behind, resume from the last cursor")

// Subscription receives the live events of one salon. Its channel is closed
// when the hub drops it for lagging.
type Subscription struct {
	salonID string
	events  chan Event
	lagged  bool
}

func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Lagged reports whether the hub dropped the subscription. Only meaningful once
// Events is closed.
func (s *Subscription) Lagged() bool {
	return s.lagged
}

// Hub routes change events to the subscriptions of their salon.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

func (h *Hub) Subscribe(salonID string) *Subscription {
	sub := &Subscription{salonID: salonID, events: make(chan Event, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[salonID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[salonID] = set
	}
	set[sub] = struct{}{}
	metrics.RealtimeSubscribers.Inc()
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

// drop removes sub and closes its channel. Callers hold h.mu.
func (h *Hub) drop(sub *Subscription) {
	if h.remove(sub) {
		sub.lagged = true
		close(sub.events)
	}
}

// remove reports whether sub was still registered. Callers hold h.mu.
func (h *Hub) remove(sub *Subscription) bool {
	set, ok := h.subs[sub.salonID]
	if !ok {
		return false
	}
	if _, ok := set[sub]; !ok {
		return false
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.salonID)
	}
	metrics.RealtimeSubscribers.Dec()
	return true
}

// Dispatch never blocks. A subscriber whose buffer is full is removed and its
// channel closed, so it sees the gap instead of silently missing the event.
func (h *Hub) Dispatch(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[evt.SalonID] {
		select {
		case sub.events <- evt:
		default:
			h.drop(sub)
			metrics.RealtimeDropped.Inc()
			log.Warn().Str("salon_id", evt.SalonID).Str("entry_id", evt.Entry.ID).Msg("realtime subscriber buffer full, subscription dropped")
		}
	}
}

// DropAll ends every subscription as lagged. Used when the change feed itself
// had a gap, so every viewer resumes from its cursor.
func (h *Hub) DropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for sub := range set {
			h.drop(sub)
		}
	}
}

func (h *Hub) SubscriberCount(salonID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[salonID])
}

// ReplayFunc reads the full transcript of a salon from the store.
type ReplayFunc func(ctx context.Context, salonID string) ([]model.TranscriptEntry, error)

// Stream sends every entry after the cursor, then live entries, until ctx is
// done, send fails or the subscriber lags (ErrSubscriberLagged). The live
// subscription is opened before the replay read so rows inserted in between
// are delivered once.
func (h *Hub) Stream(ctx context.Context, salonID string, after model.Cursor, replay ReplayFunc, send func(model.TranscriptEntry) error) error {
	sub := h.Subscribe(salonID)
	defer h.Unsubscribe(sub)

	backlog, err := replay(ctx, salonID)
	if err != nil {
		return err
	}

	sent := make(map[string]struct{}, len(backlog))
	for _, entry := range backlog {
		if entry.Position().Compare(after) <= 0 {
			continue
		}
		if err := send(entry); err != nil {
			return err
		}
		sent[entry.ID] = struct{}{}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-sub.Events():
			if !ok {
				return ErrSubscriberLagged
			}
			if _, dup := sent[evt.Entry.ID]; dup {
				continue
			}
			if evt.Entry.Position().Compare(after) <= 0 {
				continue
			}
			if err := send(evt.Entry); err != nil {
				return err
			}
		}
	}
}
