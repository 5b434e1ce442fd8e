package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/common/txhook"
	"github.com/shopspring/decimal"
)

type allowanceKey struct {
	owner, spender string
}

// Memory is a process local ledger. Movements made with a store transaction context are
// reverted when that transaction rolls back.
type Memory struct {
	mu         sync.Mutex
	clock      clockwork.Clock
	balances   map[string]decimal.Decimal
	allowances map[allowanceKey]decimal.Decimal
	transfers  []*Transfer
}

// assertLedgerInterface
func _() {
	var _ Ledger = (*Memory)(nil)
}

// NewMemory returns an empty ledger.
func NewMemory(clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{
		clock:      clock,
		balances:   make(map[string]decimal.Decimal),
		allowances: make(map[allowanceKey]decimal.Decimal),
	}
}

func (m *Memory) BalanceOf(_ context.Context, owner string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[owner], nil
}

func (m *Memory) Allowance(_ context.Context, owner, spender string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allowances[allowanceKey{owner, spender}], nil
}

// Approve replaces the allowance of spender over owner. Zero revokes it.
func (m *Memory) Approve(ctx context.Context, owner, spender string, amount decimal.Decimal) error {
	if err := checkAccounts(owner, spender); err != nil {
		return err
	}
	if amount.IsNegative() || !amount.Equal(amount.Truncate(0)) {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	key := allowanceKey{owner, spender}
	prev, had := m.allowances[key]
	m.allowances[key] = amount
	m.mu.Unlock()

	txhook.OnRollback(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if had {
			m.allowances[key] = prev
		} else {
			delete(m.allowances, key)
		}
	})
	return nil
}

func (m *Memory) Mint(ctx context.Context, to string, amount decimal.Decimal) error {
	if err := checkAccounts(to); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	m.mu.Lock()
	t := m.move("", to, "", amount)
	m.mu.Unlock()
	m.undoOnRollback(ctx, t)
	return nil
}

func (m *Memory) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if err := checkAccounts(from, to); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	m.mu.Lock()
	if m.balances[from].LessThan(amount) {
		m.mu.Unlock()
		return ErrInsufficientFunds
	}
	t := m.move(from, to, "", amount)
	m.mu.Unlock()
	m.undoOnRollback(ctx, t)
	return nil
}

func (m *Memory) TransferFrom(ctx context.Context, spender, from, to string, amount decimal.Decimal) error {
	if err := checkAccounts(spender, from, to); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	m.mu.Lock()
	key := allowanceKey{from, spender}
	if m.allowances[key].LessThan(amount) {
		m.mu.Unlock()
		return ErrInsufficientAllowance
	}
	if m.balances[from].LessThan(amount) {
		m.mu.Unlock()
		return ErrInsufficientFunds
	}
	m.allowances[key] = m.allowances[key].Sub(amount)
	t := m.move(from, to, spender, amount)
	m.mu.Unlock()
	m.undoOnRollback(ctx, t)
	return nil
}

// Transfers returns the newest movements touching owner first, all movements when owner is
// empty.
func (m *Memory) Transfers(_ context.Context, owner string, limit int) ([]*Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*Transfer
	for i := len(m.transfers) - 1; i >= 0 && (limit <= 0 || len(res) < limit); i-- {
		t := m.transfers[i]
		if owner == "" || t.From == owner || t.To == owner {
			c := *t
			res = append(res, &c)
		}
	}
	return res, nil
}

// move books a checked movement. Callers hold m.mu.
func (m *Memory) move(from, to, spender string, amount decimal.Decimal) *Transfer {
	if from != "" {
		m.balances[from] = m.balances[from].Sub(amount)
	}
	m.balances[to] = m.balances[to].Add(amount)
	t := &Transfer{
		ID:      uuid.New(),
		From:    from,
		To:      to,
		Spender: spender,
		Amount:  amount,
		Time:    m.clock.Now(),
	}
	m.transfers = append(m.transfers, t)
	return t
}

func (m *Memory) undoOnRollback(ctx context.Context, t *Transfer) {
	txhook.OnRollback(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.balances[t.To] = m.balances[t.To].Sub(t.Amount)
		if t.From != "" {
			m.balances[t.From] = m.balances[t.From].Add(t.Amount)
		}
		if t.Spender != "" {
			key := allowanceKey{t.From, t.Spender}
			m.allowances[key] = m.allowances[key].Add(t.Amount)
		}
		for i := len(m.transfers) - 1; i >= 0; i-- {
			if m.transfers[i].ID == t.ID {
				m.transfers = append(m.transfers[:i], m.transfers[i+1:]...)
				break
			}
		}
	})
}
