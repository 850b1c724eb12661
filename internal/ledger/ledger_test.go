package ledger

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

func demoBalances() map[model.Currency]decimal.Decimal {
	return map[model.Currency]decimal.Decimal{
		model.BTC: decimal.RequireFromString("0.05"),
		model.ETH: decimal.RequireFromString("0.1"),
	}
}

func mustAccount(t *testing.T, l *Ledger, username string, starting map[model.Currency]decimal.Decimal) *model.Account {
	t.Helper()
	acct, err := l.CreateAccount(username, starting)
	if err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return acct
}

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	l := New()
	mustAccount(t, l, "alice", demoBalances())

	if _, err := l.CreateAccount("alice", demoBalances()); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	// A different name is still fine.
	if _, err := l.CreateAccount("alice2", demoBalances()); err != nil {
		t.Errorf("distinct username rejected: %v", err)
	}
}

func TestDebit_InsufficientFunds(t *testing.T) {
	l := New()
	acct := mustAccount(t, l, "alice", demoBalances())

	price := decimal.NewFromInt(50000)
	if _, err := l.Debit(acct.PlayerID, model.BTC, decimal.RequireFromString("0.06"), model.EntryBet, "r1", price); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Failed debit must leave no trace.
	bal, err := l.Balance(acct.PlayerID, model.BTC)
	if err != nil {
		t.Fatal(err)
	}
	if !bal.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("balance changed on failed debit: %s", bal)
	}
	if n := len(l.Entries(acct.PlayerID)); n != 0 {
		t.Errorf("expected no entries after failed debit, got %d", n)
	}
}

func TestDebitCredit_EntryPairing(t *testing.T) {
	l := New()
	acct := mustAccount(t, l, "bob", demoBalances())
	price := decimal.NewFromInt(50000)

	if _, err := l.Debit(acct.PlayerID, model.BTC, decimal.RequireFromString("0.02"), model.EntryBet, "r1", price); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if _, err := l.Credit(acct.PlayerID, model.BTC, decimal.RequireFromString("0.04"), model.EntryCashout, "r1", price); err != nil {
		t.Fatalf("credit: %v", err)
	}

	entries := l.Entries(acct.PlayerID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Kind != model.EntryBet || entries[0].Delta.Sign() >= 0 {
		t.Errorf("first entry should be a negative bet delta, got %s %s", entries[0].Kind, entries[0].Delta)
	}
	if entries[1].Kind != model.EntryCashout || entries[1].Delta.Sign() <= 0 {
		t.Errorf("second entry should be a positive cashout delta, got %s %s", entries[1].Kind, entries[1].Delta)
	}

	bal, _ := l.Balance(acct.PlayerID, model.BTC)
	if !bal.Equal(decimal.RequireFromString("0.07")) {
		t.Errorf("balance = %s, want 0.07", bal)
	}
	if err := l.VerifyAccount(acct.PlayerID); err != nil {
		t.Errorf("invariant check failed: %v", err)
	}
}

func TestVerifyAccount_SumInvariantUnderConcurrency(t *testing.T) {
	l := New()
	acct := mustAccount(t, l, "carol", map[model.Currency]decimal.Decimal{
		model.BTC: decimal.NewFromInt(100),
	})
	price := decimal.NewFromInt(50000)
	amount := decimal.NewFromInt(1)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l.Debit(acct.PlayerID, model.BTC, amount, model.EntryWithdrawal, "", price)
		}()
		go func() {
			defer wg.Done()
			l.Credit(acct.PlayerID, model.BTC, amount, model.EntryDeposit, "", price)
		}()
	}
	wg.Wait()

	if err := l.VerifyAccount(acct.PlayerID); err != nil {
		t.Fatalf("invariant violated after concurrent mutations: %v", err)
	}
	bal, _ := l.Balance(acct.PlayerID, model.BTC)
	if bal.Sign() < 0 {
		t.Fatalf("balance went negative: %s", bal)
	}
}

func TestDebit_RejectsNonPositiveAmounts(t *testing.T) {
	l := New()
	acct := mustAccount(t, l, "dave", demoBalances())
	price := decimal.NewFromInt(50000)

	for _, amt := range []string{"0", "-0.01"} {
		if _, err := l.Debit(acct.PlayerID, model.BTC, decimal.RequireFromString(amt), model.EntryBet, "r1", price); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amt, err)
		}
	}
}

func TestAccount_UnknownPlayer(t *testing.T) {
	l := New()
	if _, err := l.Account("nope"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}
