package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
)

type failing struct{}

func (failing) Publish(context.Context, Event) error { return errors.New("broker down") }

func TestEmit_SwallowsPublishErrors(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	Emit(context.Background(), failing{}, log, New(TokenBooked, uuid.New(), nil))
	Emit(context.Background(), nil, log, New(TokenBooked, uuid.New(), nil))
}

func TestRecorder(t *testing.T) {
	var r Recorder
	party := uuid.New()
	Emit(context.Background(), &r, nil, New(PaymentRecorded, party, map[string]string{"amount": "10"}))
	Emit(context.Background(), &r, nil, New(BillCreated, party, nil))
	names := r.Names()
	if len(names) != 2 || names[0] != PaymentRecorded || names[1] != BillCreated {
		t.Fatalf("unexpected events %v", names)
	}
	if r.Events()[0].PartyID != party {
		t.Fatalf("party id not carried")
	}
}

func TestKafkaTopic(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "tms")
	defer p.Close()
	if got := p.Topic(ChallanCreated); got != "tms.challan.created" {
		t.Fatalf("unexpected topic %q", got)
	}
}
