package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeMsgPublisher struct {
	msgs []*nats.Msg
	opts int
	err  error
}

func (f *fakeMsgPublisher) PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, msg)
	f.opts = len(opts)
	return &jetstream.PubAck{Stream: "KIRA_ROUNDS", Sequence: uint64(len(f.msgs))}, nil
}

var at = time.Date(2025, 3, 14, 8, 15, 0, 0, time.UTC)

func TestNewEventEnvelope(t *testing.T) {
	roundID := uuid.New()
	ev, err := NewEvent(EventTypeGuessPlaced, roundID, at, GuessPlacedPayload{Name: "Alice", GuessedTime: "08:10", GuessCount: 1})
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}

	data, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	for _, key := range []string{"eventId", "eventType", "roundId", "timestamp", "payload"} {
		if _, ok := env[key]; !ok {
			t.Errorf("envelope missing %q: %s", key, data)
		}
	}
	if string(env["eventType"]) != `"guess.placed"` {
		t.Errorf("unexpected eventType %s", env["eventType"])
	}
	if string(env["roundId"]) != `"`+roundID.String()+`"` {
		t.Errorf("unexpected roundId %s", env["roundId"])
	}

	var payload GuessPlacedPayload
	if err := json.Unmarshal(env["payload"], &payload); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if payload.Name != "Alice" || payload.GuessedTime != "08:10" || payload.GuessCount != 1 {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "kira-events")
	roundID := uuid.New()
	ev, _ := NewEvent(EventTypeRoundSettled, roundID, at, RoundSettledPayload{ActualTime: "08:15"})

	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != roundID.String() {
		t.Errorf("expected key %s, got %s", roundID, msg.Key)
	}
	if !msg.Time.Equal(at) {
		t.Errorf("expected message time %v, got %v", at, msg.Time)
	}
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.EventID != ev.ID.String() || env.EventType != EventTypeRoundSettled {
		t.Errorf("unexpected envelope %+v", env)
	}

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers[HeaderEventType] != EventTypeRoundSettled || headers[HeaderEventID] != ev.ID.String() || headers[HeaderRoundID] != roundID.String() {
		t.Errorf("unexpected headers %v", headers)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("expected writer closed, err=%v", err)
	}
}

func TestKafkaPublisherError(t *testing.T) {
	boom := errors.New("broker down")
	p := newKafkaPublisher(&fakeWriter{err: boom}, "t")
	ev, _ := NewEvent(EventTypeRoundStarted, uuid.New(), at, RoundStartedPayload{})

	if err := p.Publish(context.Background(), ev); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}

func TestNewKafkaPublisherValidation(t *testing.T) {
	if _, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}}); err == nil {
		t.Error("expected error for missing topic")
	}
	if _, err := NewKafkaPublisher(KafkaConfig{Topic: "t"}); err == nil {
		t.Error("expected error for missing brokers")
	}
	p, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Close()
}

func TestLogPublisher(t *testing.T) {
	ev, _ := NewEvent(EventTypeRoundStarted, uuid.New(), at, RoundStartedPayload{Forced: true})
	p := NewLogPublisher()
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestJetStreamSubject(t *testing.T) {
	p := &JetStreamPublisher{config: DefaultJetStreamConfig()}
	if got := p.Subject(EventTypeRoundSettled); got != "kira.events.round.settled" {
		t.Errorf("unexpected subject %q", got)
	}
	sc := p.streamConfig()
	if len(sc.Subjects) != 1 || sc.Subjects[0] != "kira.events.>" {
		t.Errorf("unexpected stream subjects %v", sc.Subjects)
	}
	if !isStreamConfigEqual(sc, p.streamConfig()) {
		t.Error("expected identical configs to compare equal")
	}
}

func TestJetStreamPublish(t *testing.T) {
	fake := &fakeMsgPublisher{}
	p := &JetStreamPublisher{pub: fake, config: DefaultJetStreamConfig()}
	roundID := uuid.New()
	ev, _ := NewEvent(EventTypeGuessPlaced, roundID, at, GuessPlacedPayload{Name: "Alice", GuessedTime: "08:10"})

	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(fake.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.msgs))
	}
	msg := fake.msgs[0]
	if msg.Subject != "kira.events.guess.placed" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if got := msg.Header.Get(HeaderEventType); got != EventTypeGuessPlaced {
		t.Errorf("Event-Type header = %q", got)
	}
	if got := msg.Header.Get(HeaderEventID); got != ev.ID.String() {
		t.Errorf("Event-ID header = %q, want %s", got, ev.ID)
	}
	if got := msg.Header.Get(HeaderRoundID); got != roundID.String() {
		t.Errorf("Round-ID header = %q, want %s", got, roundID)
	}
	// dedupe id and expected stream
	if fake.opts != 2 {
		t.Errorf("expected 2 publish options, got %d", fake.opts)
	}

	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.EventID != ev.ID.String() || env.RoundID != roundID.String() || !env.Timestamp.Equal(at) {
		t.Errorf("unexpected envelope %+v", env)
	}
	var payload GuessPlacedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.Name != "Alice" || payload.GuessedTime != "08:10" {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestJetStreamPublishError(t *testing.T) {
	boom := errors.New("no responders")
	p := &JetStreamPublisher{pub: &fakeMsgPublisher{err: boom}, config: DefaultJetStreamConfig()}
	ev, _ := NewEvent(EventTypeRoundStarted, uuid.New(), at, RoundStartedPayload{})

	if err := p.Publish(context.Background(), ev); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped publish error, got %v", err)
	}
}

func TestJetStreamPingWithoutConnection(t *testing.T) {
	p := &JetStreamPublisher{config: DefaultJetStreamConfig()}
	if err := p.Ping(context.Background()); err == nil {
		t.Fatal("expected error without a NATS connection")
	}
}
