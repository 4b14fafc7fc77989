package domain

import (
	"math/big"
	"time"

	apperrors "github.com/fairdraw/fairdraw/internal/platform/errors"
)

// SessionStatus describes the lifecycle state of a raffle session.
type SessionStatus int

const (
	// SessionStatusUnspecified represents an invalid session status value.
	SessionStatusUnspecified SessionStatus = iota
	// SessionStatusOpen indicates the session is accepting entrants.
	SessionStatusOpen
	// SessionStatusAwaitingRandomness indicates the session is full and a
	// randomness request is outstanding with the oracle.
	SessionStatusAwaitingRandomness
	// SessionStatusSettled indicates the winner was selected and paid.
	SessionStatusSettled
)

// String returns the storage and wire representation of the status.
func (s SessionStatus) String() string {
	switch s {
	case SessionStatusOpen:
		return "OPEN"
	case SessionStatusAwaitingRandomness:
		return "AWAITING_RANDOMNESS"
	case SessionStatusSettled:
		return "SETTLED"
	default:
		return "UNSPECIFIED"
	}
}

// SessionStatusFromString parses a stored status value.
func SessionStatusFromString(value string) SessionStatus {
	switch value {
	case "OPEN":
		return SessionStatusOpen
	case "AWAITING_RANDOMNESS":
		return SessionStatusAwaitingRandomness
	case "SETTLED":
		return SessionStatusSettled
	default:
		return SessionStatusUnspecified
	}
}

// InProgress reports whether the status blocks a new configuration.
func (s SessionStatus) InProgress() bool {
	return s == SessionStatusOpen || s == SessionStatusAwaitingRandomness
}

// Session represents one run of the raffle from configuration to settlement.
type Session struct {
	ID               int64
	Status           SessionStatus
	Capacity         int
	EntryFee         int64
	Entrants         []string // ordered party IDs, append-only while open
	PendingRequestID string   // set while a randomness request is outstanding
	Winner           string   // set only after settlement
	CreatedAt        time.Time
	UpdatedAt        time.Time
	SettledAt        *time.Time // nil until the session settles
}

// NewSession validates configuration input and builds an open session.
// The session ID is assigned by storage on creation.
func NewSession(capacity int, entryFee int64, now func() time.Time) (Session, error) {
	if now == nil {
		now = time.Now
	}
	if capacity <= 0 {
		return Session{}, apperrors.New(apperrors.CodeInvalidCapacity, "capacity must be greater than zero")
	}
	if entryFee < 0 {
		return Session{}, apperrors.New(apperrors.CodeInvalidEntryFee, "entry fee must not be negative")
	}

	createdAt := now().UTC()
	return Session{
		Status:    SessionStatusOpen,
		Capacity:  capacity,
		EntryFee:  entryFee,
		Entrants:  []string{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// Full reports whether the session has reached capacity.
func (s *Session) Full() bool {
	return len(s.Entrants) >= s.Capacity
}

// AddEntrant appends a party to the entrant list.
// It reports whether the entry filled the session to capacity.
func (s *Session) AddEntrant(partyID string, now func() time.Time) (filled bool, err error) {
	if now == nil {
		now = time.Now
	}
	if partyID == "" {
		return false, apperrors.New(apperrors.CodeEmptyPartyID, "party id is required")
	}
	if s.Status != SessionStatusOpen {
		return false, apperrors.New(apperrors.CodeSessionNotOpen, "session is not accepting entrants")
	}
	if s.Full() {
		return false, apperrors.New(apperrors.CodeSessionFull, "session is already at capacity")
	}

	s.Entrants = append(s.Entrants, partyID)
	s.UpdatedAt = now().UTC()
	return s.Full(), nil
}

// MarkAwaiting records the outstanding randomness request and moves the
// session to AwaitingRandomness. Only a full open session may transition.
func (s *Session) MarkAwaiting(requestID string, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	if s.Status != SessionStatusOpen || !s.Full() {
		return apperrors.New(apperrors.CodeSessionNotOpen, "session is not ready for a randomness request")
	}
	if requestID == "" {
		return apperrors.New(apperrors.CodeUnknownRequest, "request id is required")
	}

	s.Status = SessionStatusAwaitingRandomness
	s.PendingRequestID = requestID
	s.UpdatedAt = now().UTC()
	return nil
}

// Settle selects the winner from delivered randomness and marks the session
// settled. Modulo reduction over the raw randomness is accepted bias; the
// unpredictability guarantee comes from the oracle, not from this reduction.
func (s *Session) Settle(randomness *big.Int, now func() time.Time) (string, error) {
	if now == nil {
		now = time.Now
	}
	if s.Status != SessionStatusAwaitingRandomness {
		return "", apperrors.New(apperrors.CodeUnknownRequest, "session is not awaiting randomness")
	}
	if randomness == nil || randomness.Sign() < 0 {
		return "", apperrors.New(apperrors.CodeUnknownRequest, "randomness value is required")
	}
	// AwaitingRandomness is only reachable once capacity was filled, so the
	// entrant list is never empty here.
	count := big.NewInt(int64(len(s.Entrants)))
	index := new(big.Int).Mod(randomness, count).Int64()

	settledAt := now().UTC()
	s.Winner = s.Entrants[index]
	s.Status = SessionStatusSettled
	s.PendingRequestID = ""
	s.UpdatedAt = settledAt
	s.SettledAt = &settledAt
	return s.Winner, nil
}
