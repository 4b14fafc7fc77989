package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fairdraw/fairdraw/internal/draw/storage"
)

// GetAccount returns one party account.
func (s *Store) GetAccount(ctx context.Context, partyID string) (storage.Account, error) {
	if err := ctx.Err(); err != nil {
		return storage.Account{}, err
	}
	if s == nil || s.db == nil {
		return storage.Account{}, fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return storage.Account{}, fmt.Errorf("party id is required")
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT party_id, balance, frozen, created_at, updated_at
		   FROM accounts
		  WHERE party_id = ?`,
		partyID,
	)

	var account storage.Account
	var frozen int
	var createdAt int64
	var updatedAt int64
	err := row.Scan(&account.PartyID, &account.Balance, &frozen, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Account{}, storage.ErrNotFound
		}
		return storage.Account{}, fmt.Errorf("get account: %w", err)
	}
	account.Frozen = frozen != 0
	account.CreatedAt = fromMillis(createdAt)
	account.UpdatedAt = fromMillis(updatedAt)
	return account, nil
}

// CreditAccount adds funds to a party account, creating it when missing.
func (s *Store) CreditAccount(ctx context.Context, partyID string, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return fmt.Errorf("party id is required")
	}
	if amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}
	now := toMillis(time.Now().UTC())

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO accounts (party_id, balance, frozen, created_at, updated_at)
		 VALUES (?, ?, 0, ?, ?)
		 ON CONFLICT (party_id) DO UPDATE SET
		   balance = balance + excluded.balance,
		   updated_at = excluded.updated_at`,
		partyID,
		amount,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	return nil
}

// DebitAccount removes funds from a party account. The balance check is part
// of the statement so a debit can never overdraw under concurrent writers.
func (s *Store) DebitAccount(ctx context.Context, partyID string, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return fmt.Errorf("party id is required")
	}
	if amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE accounts
		    SET balance = balance - ?,
		        updated_at = ?
		  WHERE party_id = ? AND balance >= ?`,
		amount,
		toMillis(time.Now().UTC()),
		partyID,
		amount,
	)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetAccountFrozen toggles whether the account can accept transfers.
func (s *Store) SetAccountFrozen(ctx context.Context, partyID string, frozen bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return fmt.Errorf("party id is required")
	}
	value := 0
	if frozen {
		value = 1
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE accounts
		    SET frozen = ?,
		        updated_at = ?
		  WHERE party_id = ?`,
		value,
		toMillis(time.Now().UTC()),
		partyID,
	)
	if err != nil {
		return fmt.Errorf("set account frozen: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set account frozen: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// EscrowBalance returns the escrow held for one session.
func (s *Store) EscrowBalance(ctx context.Context, sessionID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT balance FROM escrow WHERE session_id = ?`,
		sessionID,
	)
	var balance int64
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("escrow balance: %w", err)
	}
	return balance, nil
}

// CreditEscrow adds funds to a session's escrow.
func (s *Store) CreditEscrow(ctx context.Context, sessionID int64, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO escrow (session_id, balance)
		 VALUES (?, ?)
		 ON CONFLICT (session_id) DO UPDATE SET
		   balance = balance + excluded.balance`,
		sessionID,
		amount,
	)
	if err != nil {
		return fmt.Errorf("credit escrow: %w", err)
	}
	return nil
}

// DrainEscrow zeroes a session's escrow and returns the drained amount.
func (s *Store) DrainEscrow(ctx context.Context, sessionID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT balance FROM escrow WHERE session_id = ?`,
		sessionID,
	)
	var drained int64
	if err := row.Scan(&drained); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("drain escrow: %w", err)
	}
	if drained == 0 {
		return 0, nil
	}

	_, err := s.db.ExecContext(
		ctx,
		`UPDATE escrow SET balance = 0 WHERE session_id = ?`,
		sessionID,
	)
	if err != nil {
		return 0, fmt.Errorf("drain escrow: %w", err)
	}
	return drained, nil
}

// OracleCredits returns the oracle fee credit balance.
func (s *Store) OracleCredits(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	row := s.db.QueryRowContext(ctx, `SELECT balance FROM oracle_credits WHERE id = 1`)
	var balance int64
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("oracle credits: %w", err)
	}
	return balance, nil
}

// AddOracleCredits tops up the oracle fee credit balance.
func (s *Store) AddOracleCredits(ctx context.Context, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}

	_, err := s.db.ExecContext(
		ctx,
		`UPDATE oracle_credits SET balance = balance + ? WHERE id = 1`,
		amount,
	)
	if err != nil {
		return fmt.Errorf("add oracle credits: %w", err)
	}
	return nil
}

// SpendOracleCredits debits the oracle fee credit balance. The balance check
// is part of the statement so the pool can never go negative.
func (s *Store) SpendOracleCredits(ctx context.Context, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE oracle_credits
		    SET balance = balance - ?
		  WHERE id = 1 AND balance >= ?`,
		amount,
		amount,
	)
	if err != nil {
		return fmt.Errorf("spend oracle credits: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("spend oracle credits: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
