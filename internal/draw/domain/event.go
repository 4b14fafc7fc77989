package domain

import "time"

// EventType identifies a ledger notification appended by a state transition.
type EventType string

const (
	// EventSessionOpened is emitted when a new session is configured.
	EventSessionOpened EventType = "SESSION_OPENED"
	// EventEntrantJoined is emitted when an entrant's payment is collected.
	EventEntrantJoined EventType = "ENTRANT_JOINED"
	// EventRandomnessRequested is emitted when an oracle request is issued.
	EventRandomnessRequested EventType = "RANDOMNESS_REQUESTED"
	// EventSessionSettled is emitted when the winner is selected and paid.
	EventSessionSettled EventType = "SESSION_SETTLED"
)

// Event is one entry in the hash-chained notification journal.
//
// Seq, Hash, PrevHash and ChainHash are assigned by storage on append; the
// chain makes the journal tamper-evident for external observers.
type Event struct {
	Seq         uint64
	Type        EventType
	SessionID   int64
	PayloadJSON string
	Timestamp   time.Time
	Hash        string
	PrevHash    string
	ChainHash   string
}
