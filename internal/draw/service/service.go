// Package service orchestrates the raffle session lifecycle.
//
// DrawService is the session state machine: it owns the single in-progress
// session, collects entry payments into escrow, issues oracle randomness
// requests when the session fills, and settles the winner when the oracle
// calls back. All mutating operations run under one mutex and inside one
// storage transaction so each external call executes to completion with
// full-rollback atomicity.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/fairdraw/fairdraw/internal/draw/correlator"
	"github.com/fairdraw/fairdraw/internal/draw/domain"
	"github.com/fairdraw/fairdraw/internal/draw/escrow"
	"github.com/fairdraw/fairdraw/internal/draw/storage"
	apperrors "github.com/fairdraw/fairdraw/internal/platform/errors"
	"github.com/fairdraw/fairdraw/internal/telemetry"
)

// Balances reports the funds held by the service.
type Balances struct {
	SessionID     int64
	Escrow        int64
	OracleCredits int64
}

// DrawService implements the raffle session state machine.
type DrawService struct {
	store      storage.TxStore
	ledger     *escrow.Ledger
	correlator *correlator.Correlator
	telemetry  *telemetry.Emitter
	clock      func() time.Time

	// mu serializes all mutating operations so each external call runs to
	// completion before the next begins.
	mu sync.Mutex
}

// New creates a DrawService with default dependencies.
func New(store storage.TxStore, ledger *escrow.Ledger, corr *correlator.Correlator, emitter *telemetry.Emitter) *DrawService {
	return &DrawService{
		store:      store,
		ledger:     ledger,
		correlator: corr,
		telemetry:  emitter,
		clock:      time.Now,
	}
}

func (s *DrawService) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

// Configure opens a new raffle session. It fails with SESSION_IN_PROGRESS
// while an existing session is Open or AwaitingRandomness.
func (s *DrawService) Configure(ctx context.Context, capacity int, entryFee int64) (domain.Session, error) {
	if s == nil || s.store == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var created domain.Session
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		existing, err := tx.InProgressSession(ctx)
		if err == nil {
			return apperrors.WithMetadata(apperrors.CodeSessionInProgress, "a session is already in progress", map[string]string{
				"session_id": fmt.Sprintf("%d", existing.ID),
				"status":     existing.Status.String(),
			})
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("check in-progress session: %w", err)
		}

		session, err := domain.NewSession(capacity, entryFee, s.clock)
		if err != nil {
			return err
		}
		created, err = tx.CreateSession(ctx, session)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		return s.appendEvent(ctx, tx, domain.EventSessionOpened, created.ID, map[string]any{
			"capacity":  created.Capacity,
			"entry_fee": created.EntryFee,
		})
	})
	if err != nil {
		return domain.Session{}, err
	}
	return created, nil
}

// Enter admits a party into the open session after collecting exactly the
// entry fee into escrow. Filling the last seat transitions the session to
// AwaitingRandomness and issues the oracle request in the same transaction;
// any failure on that path rolls the whole entry back.
func (s *DrawService) Enter(ctx context.Context, partyID string, payment int64) (domain.Session, error) {
	if s == nil || s.store == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return domain.Session{}, apperrors.New(apperrors.CodeEmptyPartyID, "party id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated domain.Session
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		session, err := tx.InProgressSession(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return apperrors.New(apperrors.CodeSessionNotOpen, "no session is accepting entrants")
			}
			return fmt.Errorf("load in-progress session: %w", err)
		}

		filled, err := session.AddEntrant(partyID, s.clock)
		if err != nil {
			return err
		}
		if err := s.ledger.CollectEntry(ctx, tx, session.ID, partyID, payment, session.EntryFee); err != nil {
			return err
		}

		position := len(session.Entrants) - 1
		if err := tx.AppendEntrant(ctx, session.ID, position, partyID, s.now()); err != nil {
			return fmt.Errorf("append entrant: %w", err)
		}
		if err := s.appendEvent(ctx, tx, domain.EventEntrantJoined, session.ID, map[string]any{
			"party_id": partyID,
			"position": position,
		}); err != nil {
			return err
		}

		if filled {
			requestID, err := s.correlator.IssueRequest(ctx, tx, session.ID)
			if err != nil {
				return err
			}
			if err := session.MarkAwaiting(requestID, s.clock); err != nil {
				return err
			}
			if err := s.appendEvent(ctx, tx, domain.EventRandomnessRequested, session.ID, map[string]any{
				"request_id": requestID,
			}); err != nil {
				return err
			}
		}

		if err := tx.UpdateSession(ctx, session); err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		updated = session
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return updated, nil
}

// OnRandomnessReceived handles the oracle callback. The request mapping is
// consumed in its own transaction first, so the same requestID can never
// settle twice even when the settlement itself fails. The settlement
// transaction records the winner and pays out the escrow together; a payout
// failure rolls the settlement back and leaves the session in
// AwaitingRandomness for operator diagnosis.
func (s *DrawService) OnRandomnessReceived(ctx context.Context, requestID string, randomness *big.Int, proof []byte) (domain.Session, error) {
	if s == nil || s.store == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}
	if randomness == nil {
		return domain.Session{}, apperrors.New(apperrors.CodeUnknownRequest, "randomness value is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessionID int64
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		id, err := s.correlator.Resolve(ctx, tx, requestID)
		if err != nil {
			return err
		}
		sessionID = id
		return nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeUnknownRequest) {
			_ = s.telemetry.Emitf(ctx, "oracle.callback.unknown_request", telemetry.SeverityWarn,
				fmt.Sprintf("request_id=%s", requestID))
		}
		return domain.Session{}, err
	}

	var settled domain.Session
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("load session %d: %w", sessionID, err)
		}

		winner, err := session.Settle(randomness, s.clock)
		if err != nil {
			return err
		}
		if err := tx.UpdateSession(ctx, session); err != nil {
			return fmt.Errorf("update session: %w", err)
		}

		amount, err := s.ledger.Payout(ctx, tx, session.ID, winner)
		if err != nil {
			return err
		}

		if err := s.appendEvent(ctx, tx, domain.EventSessionSettled, session.ID, map[string]any{
			"request_id": requestID,
			"randomness": randomness.String(),
			"proof":      fmt.Sprintf("%x", proof),
			"winner":     winner,
			"payout":     amount,
		}); err != nil {
			return err
		}
		settled = session
		return nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeTransferFailed) {
			_ = s.telemetry.Emitf(ctx, "settlement.payout.failed", telemetry.SeverityError,
				fmt.Sprintf("session_id=%d request_id=%s", sessionID, requestID))
		}
		return domain.Session{}, err
	}
	return settled, nil
}

// Session returns one session by ID.
func (s *DrawService) Session(ctx context.Context, id int64) (domain.Session, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Session{}, apperrors.New(apperrors.CodeNotFound, "session not found")
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// CurrentSession returns the most recently configured session.
func (s *DrawService) CurrentSession(ctx context.Context) (domain.Session, error) {
	session, err := s.store.CurrentSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Session{}, apperrors.New(apperrors.CodeNotFound, "no session has been configured")
		}
		return domain.Session{}, fmt.Errorf("current session: %w", err)
	}
	return session, nil
}

// ListSessions returns one page of session history, newest first.
func (s *DrawService) ListSessions(ctx context.Context, pageSize int, pageToken string) (storage.SessionPage, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	page, err := s.store.ListSessions(ctx, pageSize, pageToken)
	if err != nil {
		return storage.SessionPage{}, fmt.Errorf("list sessions: %w", err)
	}
	return page, nil
}

// Balances reports the current session's escrow and the oracle fee credits.
func (s *DrawService) Balances(ctx context.Context) (Balances, error) {
	balances := Balances{}

	session, err := s.store.CurrentSession(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Balances{}, fmt.Errorf("current session: %w", err)
	}
	if err == nil {
		balances.SessionID = session.ID
		escrowBalance, err := s.store.EscrowBalance(ctx, session.ID)
		if err != nil {
			return Balances{}, fmt.Errorf("escrow balance: %w", err)
		}
		balances.Escrow = escrowBalance
	}

	credits, err := s.store.OracleCredits(ctx)
	if err != nil {
		return Balances{}, fmt.Errorf("oracle credits: %w", err)
	}
	balances.OracleCredits = credits
	return balances, nil
}

// Events returns up to limit journal events with seq greater than afterSeq.
func (s *DrawService) Events(ctx context.Context, afterSeq uint64, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	events, err := s.store.ListEvents(ctx, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Deposit credits a party account so it can afford entry fees.
func (s *DrawService) Deposit(ctx context.Context, partyID string, amount int64) (storage.Account, error) {
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return storage.Account{}, apperrors.New(apperrors.CodeEmptyPartyID, "party id is required")
	}
	if amount <= 0 {
		return storage.Account{}, apperrors.New(apperrors.CodeInvalidAmount, "deposit amount must be greater than zero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var account storage.Account
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		if err := tx.CreditAccount(ctx, partyID, amount); err != nil {
			return fmt.Errorf("credit account: %w", err)
		}
		got, err := tx.GetAccount(ctx, partyID)
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}
		account = got
		return nil
	})
	if err != nil {
		return storage.Account{}, err
	}
	return account, nil
}

// AddOracleCredits tops up the oracle fee credit pool and returns the new
// balance.
func (s *DrawService) AddOracleCredits(ctx context.Context, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.New(apperrors.CodeInvalidAmount, "credit amount must be greater than zero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var balance int64
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		if err := tx.AddOracleCredits(ctx, amount); err != nil {
			return fmt.Errorf("add oracle credits: %w", err)
		}
		got, err := tx.OracleCredits(ctx)
		if err != nil {
			return fmt.Errorf("oracle credits: %w", err)
		}
		balance = got
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *DrawService) appendEvent(ctx context.Context, tx storage.Store, eventType domain.EventType, sessionID int64, payload map[string]any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	_, err = tx.AppendEvent(ctx, domain.Event{
		Type:        eventType,
		SessionID:   sessionID,
		PayloadJSON: string(encoded),
		Timestamp:   s.now(),
	})
	if err != nil {
		return fmt.Errorf("append %s event: %w", eventType, err)
	}
	return nil
}
