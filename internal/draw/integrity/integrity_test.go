package integrity

import (
	"testing"
	"time"

	"github.com/fairdraw/fairdraw/internal/draw/domain"
)

func testEvent(seq uint64) domain.Event {
	return domain.Event{
		Seq:         seq,
		Type:        domain.EventSessionOpened,
		SessionID:   1,
		PayloadJSON: `{"capacity":2}`,
		Timestamp:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestEventHashDeterministic(t *testing.T) {
	evt := testEvent(1)

	first, err := EventHash(evt)
	if err != nil {
		t.Fatalf("event hash: %v", err)
	}
	second, err := EventHash(evt)
	if err != nil {
		t.Fatalf("event hash: %v", err)
	}
	if first != second {
		t.Fatalf("expected deterministic hash, got %s and %s", first, second)
	}
}

func TestEventHashChangesWithPayload(t *testing.T) {
	base := testEvent(1)
	baseline, err := EventHash(base)
	if err != nil {
		t.Fatalf("event hash: %v", err)
	}

	changed := base
	changed.PayloadJSON = `{"capacity":3}`
	other, err := EventHash(changed)
	if err != nil {
		t.Fatalf("event hash: %v", err)
	}
	if baseline == other {
		t.Fatal("expected hash to change with payload")
	}
}

func TestEventHashRequiresType(t *testing.T) {
	evt := testEvent(1)
	evt.Type = ""
	if _, err := EventHash(evt); err == nil {
		t.Fatal("expected error for missing type")
	}
}

func TestChainHashRequiresEventHash(t *testing.T) {
	evt := testEvent(1)
	if _, err := ChainHash(evt, "prev"); err == nil {
		t.Fatal("expected error when event hash is missing")
	}
}

func TestVerifyChain(t *testing.T) {
	events := make([]domain.Event, 0, 3)
	prev := ""
	for seq := uint64(1); seq <= 3; seq++ {
		evt := testEvent(seq)
		hash, err := EventHash(evt)
		if err != nil {
			t.Fatalf("event hash: %v", err)
		}
		evt.Hash = hash
		evt.PrevHash = prev
		chain, err := ChainHash(evt, prev)
		if err != nil {
			t.Fatalf("chain hash: %v", err)
		}
		evt.ChainHash = chain
		prev = chain
		events = append(events, evt)
	}

	if err := VerifyChain(events, ""); err != nil {
		t.Fatalf("verify chain: %v", err)
	}

	tampered := make([]domain.Event, len(events))
	copy(tampered, events)
	tampered[1].PayloadJSON = `{"capacity":99}`
	if err := VerifyChain(tampered, ""); err == nil {
		t.Fatal("expected verification failure for tampered payload")
	}

	reordered := []domain.Event{events[1], events[0], events[2]}
	if err := VerifyChain(reordered, ""); err == nil {
		t.Fatal("expected verification failure for reordered events")
	}
}
