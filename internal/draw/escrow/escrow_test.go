package escrow

import (
	"context"
	"testing"

	"github.com/fairdraw/fairdraw/internal/draw/storage"
	apperrors "github.com/fairdraw/fairdraw/internal/platform/errors"
)

// fakeLedgerStore implements storage.LedgerStore over in-process maps.
type fakeLedgerStore struct {
	accounts      map[string]*storage.Account
	escrow        map[int64]int64
	oracleCredits int64
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{
		accounts: map[string]*storage.Account{},
		escrow:   map[int64]int64{},
	}
}

func (f *fakeLedgerStore) GetAccount(ctx context.Context, partyID string) (storage.Account, error) {
	account, ok := f.accounts[partyID]
	if !ok {
		return storage.Account{}, storage.ErrNotFound
	}
	return *account, nil
}

func (f *fakeLedgerStore) CreditAccount(ctx context.Context, partyID string, amount int64) error {
	account, ok := f.accounts[partyID]
	if !ok {
		account = &storage.Account{PartyID: partyID}
		f.accounts[partyID] = account
	}
	account.Balance += amount
	return nil
}

func (f *fakeLedgerStore) DebitAccount(ctx context.Context, partyID string, amount int64) error {
	account, ok := f.accounts[partyID]
	if !ok {
		return storage.ErrNotFound
	}
	account.Balance -= amount
	return nil
}

func (f *fakeLedgerStore) SetAccountFrozen(ctx context.Context, partyID string, frozen bool) error {
	account, ok := f.accounts[partyID]
	if !ok {
		return storage.ErrNotFound
	}
	account.Frozen = frozen
	return nil
}

func (f *fakeLedgerStore) EscrowBalance(ctx context.Context, sessionID int64) (int64, error) {
	return f.escrow[sessionID], nil
}

func (f *fakeLedgerStore) CreditEscrow(ctx context.Context, sessionID int64, amount int64) error {
	f.escrow[sessionID] += amount
	return nil
}

func (f *fakeLedgerStore) DrainEscrow(ctx context.Context, sessionID int64) (int64, error) {
	amount := f.escrow[sessionID]
	f.escrow[sessionID] = 0
	return amount, nil
}

func (f *fakeLedgerStore) OracleCredits(ctx context.Context) (int64, error) {
	return f.oracleCredits, nil
}

func (f *fakeLedgerStore) AddOracleCredits(ctx context.Context, amount int64) error {
	f.oracleCredits += amount
	return nil
}

func (f *fakeLedgerStore) SpendOracleCredits(ctx context.Context, amount int64) error {
	f.oracleCredits -= amount
	return nil
}

func TestCollectEntryMovesFeeIntoEscrow(t *testing.T) {
	store := newFakeLedgerStore()
	store.accounts["p1"] = &storage.Account{PartyID: "p1", Balance: 50}
	ledger := NewLedger()

	if err := ledger.CollectEntry(context.Background(), store, 1, "p1", 10, 10); err != nil {
		t.Fatalf("collect entry: %v", err)
	}
	if store.accounts["p1"].Balance != 40 {
		t.Fatalf("expected balance 40, got %d", store.accounts["p1"].Balance)
	}
	if store.escrow[1] != 10 {
		t.Fatalf("expected escrow 10, got %d", store.escrow[1])
	}
}

func TestCollectEntryRejectsWrongPayment(t *testing.T) {
	store := newFakeLedgerStore()
	store.accounts["p1"] = &storage.Account{PartyID: "p1", Balance: 50}
	ledger := NewLedger()

	err := ledger.CollectEntry(context.Background(), store, 1, "p1", 5, 10)
	if !apperrors.IsCode(err, apperrors.CodeWrongPayment) {
		t.Fatalf("expected WRONG_PAYMENT, got %v", err)
	}
	if store.accounts["p1"].Balance != 50 {
		t.Fatalf("expected balance unchanged, got %d", store.accounts["p1"].Balance)
	}
	if store.escrow[1] != 0 {
		t.Fatalf("expected empty escrow, got %d", store.escrow[1])
	}

	meta := apperrors.GetMetadata(err)
	if meta["expected"] != "10" || meta["received"] != "5" {
		t.Fatalf("expected payment metadata, got %v", meta)
	}
}

func TestCollectEntryRejectsUnderfundedParty(t *testing.T) {
	store := newFakeLedgerStore()
	store.accounts["p1"] = &storage.Account{PartyID: "p1", Balance: 3}
	ledger := NewLedger()

	err := ledger.CollectEntry(context.Background(), store, 1, "p1", 10, 10)
	if !apperrors.IsCode(err, apperrors.CodeInsufficientFunds) {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}

	err = ledger.CollectEntry(context.Background(), store, 1, "ghost", 10, 10)
	if !apperrors.IsCode(err, apperrors.CodeInsufficientFunds) {
		t.Fatalf("expected INSUFFICIENT_FUNDS for missing account, got %v", err)
	}
}

func TestCollectEntryZeroFee(t *testing.T) {
	store := newFakeLedgerStore()
	ledger := NewLedger()

	// Free sessions collect nothing and need no funded account.
	if err := ledger.CollectEntry(context.Background(), store, 1, "p1", 0, 0); err != nil {
		t.Fatalf("collect free entry: %v", err)
	}
	if store.escrow[1] != 0 {
		t.Fatalf("expected empty escrow, got %d", store.escrow[1])
	}
}

func TestPayoutTransfersFullBalance(t *testing.T) {
	store := newFakeLedgerStore()
	store.accounts["winner"] = &storage.Account{PartyID: "winner", Balance: 1}
	store.escrow[1] = 20
	ledger := NewLedger()

	amount, err := ledger.Payout(context.Background(), store, 1, "winner")
	if err != nil {
		t.Fatalf("payout: %v", err)
	}
	if amount != 20 {
		t.Fatalf("expected payout 20, got %d", amount)
	}
	if store.accounts["winner"].Balance != 21 {
		t.Fatalf("expected balance 21, got %d", store.accounts["winner"].Balance)
	}
	if store.escrow[1] != 0 {
		t.Fatalf("expected drained escrow, got %d", store.escrow[1])
	}
}

func TestPayoutRejectsFrozenRecipient(t *testing.T) {
	store := newFakeLedgerStore()
	store.accounts["winner"] = &storage.Account{PartyID: "winner", Frozen: true}
	store.escrow[1] = 20
	ledger := NewLedger()

	_, err := ledger.Payout(context.Background(), store, 1, "winner")
	if !apperrors.IsCode(err, apperrors.CodeTransferFailed) {
		t.Fatalf("expected TRANSFER_FAILED, got %v", err)
	}
	if store.escrow[1] != 20 {
		t.Fatalf("expected escrow untouched, got %d", store.escrow[1])
	}
}

func TestPayoutRejectsMissingRecipient(t *testing.T) {
	store := newFakeLedgerStore()
	store.escrow[1] = 20
	ledger := NewLedger()

	_, err := ledger.Payout(context.Background(), store, 1, "ghost")
	if !apperrors.IsCode(err, apperrors.CodeTransferFailed) {
		t.Fatalf("expected TRANSFER_FAILED, got %v", err)
	}
}

func TestDebitOracleFee(t *testing.T) {
	store := newFakeLedgerStore()
	store.oracleCredits = 5
	ledger := NewLedger()

	if err := ledger.DebitOracleFee(context.Background(), store, 3); err != nil {
		t.Fatalf("debit oracle fee: %v", err)
	}
	if store.oracleCredits != 2 {
		t.Fatalf("expected 2 credits left, got %d", store.oracleCredits)
	}

	err := ledger.DebitOracleFee(context.Background(), store, 3)
	if !apperrors.IsCode(err, apperrors.CodeInsufficientOracleFunds) {
		t.Fatalf("expected INSUFFICIENT_ORACLE_FUNDS, got %v", err)
	}
	if store.oracleCredits != 2 {
		t.Fatalf("expected credits unchanged after failed debit, got %d", store.oracleCredits)
	}
}
