// Package storage defines persistence contracts for raffle ledger state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/fairdraw/fairdraw/internal/draw/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// Account stores one party's ledger balance.
type Account struct {
	PartyID   string
	Balance   int64
	Frozen    bool // a frozen account cannot accept transfers
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionPage stores one page of session history.
type SessionPage struct {
	Sessions      []domain.Session
	NextPageToken string
}

// TelemetryEvent records one operational or security-relevant occurrence.
type TelemetryEvent struct {
	EventName string
	Severity  string
	Detail    string
	Timestamp time.Time
}

// SessionStore persists raffle sessions and their entrant lists.
type SessionStore interface {
	// CreateSession inserts a session and assigns the next monotonic ID.
	CreateSession(ctx context.Context, session domain.Session) (domain.Session, error)
	GetSession(ctx context.Context, id int64) (domain.Session, error)
	// CurrentSession returns the most recently configured session.
	CurrentSession(ctx context.Context) (domain.Session, error)
	// InProgressSession returns the session in Open or AwaitingRandomness, if any.
	InProgressSession(ctx context.Context) (domain.Session, error)
	UpdateSession(ctx context.Context, session domain.Session) error
	AppendEntrant(ctx context.Context, sessionID int64, position int, partyID string, joinedAt time.Time) error
	ListSessions(ctx context.Context, pageSize int, pageToken string) (SessionPage, error)
}

// RequestStore persists the requestID -> sessionID correlation records.
type RequestStore interface {
	PutRequest(ctx context.Context, requestID string, sessionID int64, issuedAt time.Time) error
	// TakeRequest atomically looks up and removes a correlation record.
	// Unknown request IDs return ErrNotFound without mutating state.
	TakeRequest(ctx context.Context, requestID string) (int64, error)
}

// LedgerStore persists party accounts, per-session escrow and oracle fee credits.
type LedgerStore interface {
	GetAccount(ctx context.Context, partyID string) (Account, error)
	// CreditAccount adds funds to a party account, creating it when missing.
	CreditAccount(ctx context.Context, partyID string, amount int64) error
	// DebitAccount removes funds from a party account.
	DebitAccount(ctx context.Context, partyID string, amount int64) error
	// SetAccountFrozen toggles whether the account can accept transfers.
	SetAccountFrozen(ctx context.Context, partyID string, frozen bool) error

	EscrowBalance(ctx context.Context, sessionID int64) (int64, error)
	CreditEscrow(ctx context.Context, sessionID int64, amount int64) error
	// DrainEscrow zeroes the session escrow and returns the drained amount.
	DrainEscrow(ctx context.Context, sessionID int64) (int64, error)

	OracleCredits(ctx context.Context) (int64, error)
	AddOracleCredits(ctx context.Context, amount int64) error
	// SpendOracleCredits debits the oracle fee balance.
	SpendOracleCredits(ctx context.Context, amount int64) error
}

// EventStore persists the hash-chained notification journal.
type EventStore interface {
	// AppendEvent assigns the next sequence number and chain hashes.
	AppendEvent(ctx context.Context, evt domain.Event) (domain.Event, error)
	// ListEvents returns up to limit events with seq greater than afterSeq.
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]domain.Event, error)
}

// TelemetryStore persists operational telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
}

// Store aggregates every persistence contract the draw service needs.
type Store interface {
	SessionStore
	RequestStore
	LedgerStore
	EventStore
	TelemetryStore
}

// TxStore runs a function against a transaction-scoped Store. The function's
// effects commit together or not at all.
type TxStore interface {
	Store
	InTx(ctx context.Context, fn func(Store) error) error
}
