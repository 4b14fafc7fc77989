package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/fairdraw/fairdraw/internal/draw/storage"
)

type fakeTelemetryStore struct {
	last  storage.TelemetryEvent
	count int
}

func (s *fakeTelemetryStore) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	s.last = evt
	s.count++
	return nil
}

func TestEmitterNoopWhenNil(t *testing.T) {
	var emitter *Emitter
	if err := emitter.Emit(context.Background(), storage.TelemetryEvent{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestEmitterNoopWhenStoreNil(t *testing.T) {
	emitter := &Emitter{}
	if err := emitter.Emit(context.Background(), storage.TelemetryEvent{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestEmitterAddsTimestamp(t *testing.T) {
	store := &fakeTelemetryStore{}
	clockTime := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	emitter := &Emitter{store: store, clock: func() time.Time { return clockTime }}

	if err := emitter.Emit(context.Background(), storage.TelemetryEvent{EventName: "test"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if store.count != 1 {
		t.Fatalf("expected 1 event, got %d", store.count)
	}
	if !store.last.Timestamp.Equal(clockTime) {
		t.Fatalf("timestamp = %v, want %v", store.last.Timestamp, clockTime)
	}
}

func TestEmitterKeepsExplicitTimestamp(t *testing.T) {
	store := &fakeTelemetryStore{}
	emitter := NewEmitter(store)
	explicit := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	evt := storage.TelemetryEvent{EventName: "test", Timestamp: explicit}
	if err := emitter.Emit(context.Background(), evt); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !store.last.Timestamp.Equal(explicit) {
		t.Fatalf("timestamp = %v, want %v", store.last.Timestamp, explicit)
	}
}

func TestEmitf(t *testing.T) {
	store := &fakeTelemetryStore{}
	emitter := NewEmitter(store)

	if err := emitter.Emitf(context.Background(), "oracle.callback.rejected", SeverityWarn, "unknown request"); err != nil {
		t.Fatalf("emitf: %v", err)
	}
	if store.last.EventName != "oracle.callback.rejected" {
		t.Fatalf("event name = %q", store.last.EventName)
	}
	if store.last.Severity != string(SeverityWarn) {
		t.Fatalf("severity = %q, want WARN", store.last.Severity)
	}
	if store.last.Detail != "unknown request" {
		t.Fatalf("detail = %q", store.last.Detail)
	}
}
