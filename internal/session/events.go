package session

import (
	"sync"
	"time"
)

// Event types published by a processing session.
const (
	EventDataAdded          = "data:added"
	EventReviewUpdated      = "review:updated"
	EventPhaseChanged       = "phase:changed"
	EventStatisticsComputed = "statistics:computed"
	EventQCAdded            = "qc:added"
	EventReportGenerated    = "report:generated"
)

// Event is one state-change notification emitted by a session.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// EventHub fans out session events to subscribers. Slow subscribers drop
// events rather than block the session.
type EventHub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers a subscriber for one session's events. The returned
// cancel func must be called to release the channel.
func (h *EventHub) Subscribe(sessionID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan Event, 32)

	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]chan Event)
	}
	h.subs[sessionID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if chans, ok := h.subs[sessionID]; ok {
			if c, ok := chans[id]; ok {
				delete(chans, id)
				close(c)
			}
			if len(chans) == 0 {
				delete(h.subs, sessionID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the session.
func (h *EventHub) Publish(sessionID, eventType string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ev := Event{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
	for _, ch := range h.subs[sessionID] {
		select {
		case ch <- ev:
		default:
			// Subscriber is not keeping up; drop instead of blocking.
		}
	}
}
