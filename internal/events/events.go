// Package events publishes domain events (token booked, challan created,
// bill created, payment recorded) to interested consumers.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TokenBooked     = "token.booked"
	ChallanCreated  = "challan.created"
	BillCreated     = "bill.created"
	PaymentRecorded = "payment.recorded"
)

// Event is the envelope written to the bus.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PartyID    uuid.UUID `json:"party_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// New stamps an event with a fresh ID and the current time.
func New(name string, partyID uuid.UUID, payload any) Event {
	return Event{ID: uuid.New(), Name: name, PartyID: partyID, OccurredAt: time.Now().UTC(), Payload: payload}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Emit publishes e and logs a failure instead of returning it; business
// writes have already committed by the time events go out.
func Emit(ctx context.Context, p Publisher, log *slog.Logger, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil && log != nil {
		log.Warn("event publish failed", "event", e.Name, "event_id", e.ID.String(), "err", err)
	}
}

// LogPublisher writes events to the logger. Used when no broker is configured.
type LogPublisher struct {
	Log *slog.Logger
}

func (p LogPublisher) Publish(_ context.Context, e Event) error {
	if p.Log != nil {
		p.Log.Debug("event", "name", e.Name, "event_id", e.ID.String(), "party_id", e.PartyID.String())
	}
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns published event names in order.
func (r *Recorder) Names() []string {
	evs := r.Events()
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Name)
	}
	return out
}
