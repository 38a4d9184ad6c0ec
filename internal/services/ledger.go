package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
)

// Ledger is the external account service moving currency. It is injected
// into the engine rather than reached through a global.
type Ledger interface {
	HasFunds(ctx context.Context, accountID string, amount decimal.Decimal) (bool, error)
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) error
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) error
}

// MemoryLedger is the in-process default, used by the binary when no real
// ledger is wired and by the tests.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]decimal.Decimal)}
}

// Credit adds funds out-of-band (bootstrap and tests).
func (l *MemoryLedger) Credit(accountID string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[accountID] = l.balances[accountID].Add(amount)
}

func (l *MemoryLedger) Balance(accountID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[accountID]
}

func (l *MemoryLedger) HasFunds(ctx context.Context, accountID string, amount decimal.Decimal) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[accountID].GreaterThanOrEqual(amount), nil
}

func (l *MemoryLedger) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balances[accountID]
	if bal.LessThan(amount) {
		return fmt.Errorf("%w: balance %s below %s", domain.ErrLedger, bal, amount)
	}
	l.balances[accountID] = bal.Sub(amount)
	return nil
}

func (l *MemoryLedger) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[accountID] = l.balances[accountID].Add(amount)
	return nil
}
