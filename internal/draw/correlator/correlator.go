// Package correlator maps oracle request identifiers to the sessions that
// issued them and enforces at-most-one resolution per request.
//
// The correlation record is created the instant a request is issued and
// destroyed the instant its callback is consumed. Replayed or forged
// callbacks therefore fail with UNKNOWN_REQUEST and mutate nothing.
package correlator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fairdraw/fairdraw/internal/draw/escrow"
	"github.com/fairdraw/fairdraw/internal/draw/storage"
	apperrors "github.com/fairdraw/fairdraw/internal/platform/errors"
)

// Oracle is the outbound boundary to the randomness service. Request submits
// a randomness request and returns the oracle-assigned request identifier.
type Oracle interface {
	Request(ctx context.Context, keyID string, fee int64) (string, error)
}

// Correlator issues oracle requests and resolves their callbacks.
type Correlator struct {
	oracle Oracle
	ledger *escrow.Ledger
	keyID  string
	fee    int64
	clock  func() time.Time
}

// New creates a correlator bound to an oracle client and fee policy.
func New(oracle Oracle, ledger *escrow.Ledger, keyID string, fee int64) *Correlator {
	return &Correlator{
		oracle: oracle,
		ledger: ledger,
		keyID:  keyID,
		fee:    fee,
		clock:  time.Now,
	}
}

// IssueRequest verifies fee credits, submits a randomness request to the
// oracle and records the requestID -> sessionID correlation. The fee check
// happens before the oracle is called so issuance never overdraws.
func (c *Correlator) IssueRequest(ctx context.Context, store storage.Store, sessionID int64) (string, error) {
	if c == nil || c.oracle == nil {
		return "", fmt.Errorf("oracle client is not configured")
	}
	if store == nil {
		return "", fmt.Errorf("request store is not configured")
	}

	if err := c.ledger.DebitOracleFee(ctx, store, c.fee); err != nil {
		return "", err
	}

	requestID, err := c.oracle.Request(ctx, c.keyID, c.fee)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeOracleUnavailable, "oracle request failed", err)
	}
	if requestID == "" {
		return "", apperrors.New(apperrors.CodeOracleUnavailable, "oracle returned an empty request id")
	}

	now := time.Now
	if c.clock != nil {
		now = c.clock
	}
	if err := store.PutRequest(ctx, requestID, sessionID, now().UTC()); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return "", fmt.Errorf("oracle reused pending request id %s", requestID)
		}
		return "", fmt.Errorf("record oracle request: %w", err)
	}
	return requestID, nil
}

// Resolve looks up and atomically removes the correlation for requestID,
// returning the owning session. Unknown IDs fail with UNKNOWN_REQUEST and
// leave all state untouched.
func (c *Correlator) Resolve(ctx context.Context, store storage.RequestStore, requestID string) (int64, error) {
	if store == nil {
		return 0, fmt.Errorf("request store is not configured")
	}

	sessionID, err := store.TakeRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, apperrors.WithMetadata(apperrors.CodeUnknownRequest, "no session owns this request", map[string]string{
				"request_id": requestID,
			})
		}
		return 0, fmt.Errorf("resolve oracle request: %w", err)
	}
	return sessionID, nil
}
