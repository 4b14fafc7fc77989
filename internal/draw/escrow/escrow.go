// Package escrow implements the ledger bookkeeping for entry payments, the
// per-session escrow balance and the oracle fee credit pool.
//
// Every method operates on the storage handle it is given so callers can pass
// a transaction-scoped store and keep collection and payout atomic with the
// session mutation that triggered them.
package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/fairdraw/fairdraw/internal/draw/storage"
	apperrors "github.com/fairdraw/fairdraw/internal/platform/errors"
)

// Ledger moves value between party accounts, session escrow and the oracle
// fee credit pool.
type Ledger struct{}

// NewLedger creates an escrow ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// CollectEntry takes exactly entryFee from the party and credits the session
// escrow. A mismatched amount fails with WRONG_PAYMENT and collects nothing.
func (l *Ledger) CollectEntry(ctx context.Context, store storage.LedgerStore, sessionID int64, partyID string, amount, entryFee int64) error {
	if store == nil {
		return fmt.Errorf("ledger store is not configured")
	}
	if amount < 0 {
		return apperrors.New(apperrors.CodeInvalidAmount, "payment amount must not be negative")
	}
	if amount != entryFee {
		return apperrors.WithMetadata(apperrors.CodeWrongPayment, "payment does not match the entry fee", map[string]string{
			"expected": fmt.Sprintf("%d", entryFee),
			"received": fmt.Sprintf("%d", amount),
		})
	}
	if amount == 0 {
		return nil
	}

	account, err := store.GetAccount(ctx, partyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeInsufficientFunds, "party has no funded account")
		}
		return fmt.Errorf("load party account: %w", err)
	}
	if account.Balance < amount {
		return apperrors.New(apperrors.CodeInsufficientFunds, "party balance is below the entry fee")
	}

	if err := store.DebitAccount(ctx, partyID, amount); err != nil {
		return fmt.Errorf("debit party account: %w", err)
	}
	if err := store.CreditEscrow(ctx, sessionID, amount); err != nil {
		return fmt.Errorf("credit session escrow: %w", err)
	}
	return nil
}

// Payout transfers the entire session escrow balance to the recipient in one
// step and returns the transferred amount. A missing or frozen recipient
// account fails with TRANSFER_FAILED before any balance moves.
func (l *Ledger) Payout(ctx context.Context, store storage.LedgerStore, sessionID int64, recipient string) (int64, error) {
	if store == nil {
		return 0, fmt.Errorf("ledger store is not configured")
	}

	account, err := store.GetAccount(ctx, recipient)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, apperrors.New(apperrors.CodeTransferFailed, "recipient has no account")
		}
		return 0, fmt.Errorf("load recipient account: %w", err)
	}
	if account.Frozen {
		return 0, apperrors.New(apperrors.CodeTransferFailed, "recipient account cannot accept funds")
	}

	amount, err := store.DrainEscrow(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("drain session escrow: %w", err)
	}
	if amount == 0 {
		return 0, nil
	}
	if err := store.CreditAccount(ctx, recipient, amount); err != nil {
		return 0, fmt.Errorf("credit recipient account: %w", err)
	}
	return amount, nil
}

// DebitOracleFee spends fee credits for one oracle request. The balance is
// checked before any debit so issuance never overdraws.
func (l *Ledger) DebitOracleFee(ctx context.Context, store storage.LedgerStore, fee int64) error {
	if store == nil {
		return fmt.Errorf("ledger store is not configured")
	}
	if fee <= 0 {
		return nil
	}

	credits, err := store.OracleCredits(ctx)
	if err != nil {
		return fmt.Errorf("load oracle credits: %w", err)
	}
	if credits < fee {
		return apperrors.WithMetadata(apperrors.CodeInsufficientOracleFunds, "oracle fee credits are exhausted", map[string]string{
			"required":  fmt.Sprintf("%d", fee),
			"available": fmt.Sprintf("%d", credits),
		})
	}
	if err := store.SpendOracleCredits(ctx, fee); err != nil {
		return fmt.Errorf("spend oracle credits: %w", err)
	}
	return nil
}
