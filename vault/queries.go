package vault

import (
	"context"

	"github.com/shopspring/decimal"
)

// GetUserPosition returns the position of user with yield accrued up to now included in
// YieldEarned. Unknown users get an inactive, empty view.
func (v *Vault) GetUserPosition(ctx context.Context, user string) (*PositionView, error) {
	user, err := normalize(user)
	if err != nil {
		return nil, err
	}
	now := v.now()
	view := &PositionView{User: user, Amount: decimal.Zero, YieldEarned: decimal.Zero}
	err = v.store.View(ctx, func(tx Tx) error {
		p, err := tx.GetPosition(user)
		if err != nil || p == nil {
			return err
		}
		view.Amount = p.DepositedAmount
		view.DepositTime = p.DepositTime
		view.LastUpdateTime = p.LastUpdateTime
		view.YieldEarned = p.PendingYield.Add(CalculateYield(p, now, v.config.APYBps))
		view.IsActive = p.IsActive
		view.BattleID = p.BattleID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// PendingYield returns the yield user could claim now.
func (v *Vault) PendingYield(ctx context.Context, user string) (decimal.Decimal, error) {
	view, err := v.GetUserPosition(ctx, user)
	if err != nil {
		return decimal.Zero, err
	}
	return view.YieldEarned, nil
}

func (v *Vault) battleView(b *Battle, now int64) *BattleView {
	return &BattleView{
		ID:                  b.ID,
		Name:                b.Name,
		StartTime:           b.StartTime,
		EndTime:             b.EndTime,
		PrizePool:           b.TotalPrizePool,
		EntryFee:            b.EntryFee,
		MaxParticipants:     b.MaxParticipants,
		CurrentParticipants: b.CurrentParticipants,
		IsActive:            IsActive(b, now),
		Status:              Status(b, now),
	}
}

// GetBattleDetails returns a battle with its status derived at the current time.
func (v *Vault) GetBattleDetails(ctx context.Context, battleID uint64) (*BattleView, error) {
	now := v.now()
	var view *BattleView
	err := v.store.View(ctx, func(tx Tx) error {
		b, err := tx.GetBattle(battleID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBattleNotFound
		}
		view = v.battleView(b, now)
		return nil
	})
	return view, err
}

// ListBattles returns every battle from id 1 up to the last created one.
func (v *Vault) ListBattles(ctx context.Context) ([]*BattleView, error) {
	now := v.now()
	var views []*BattleView
	err := v.store.View(ctx, func(tx Tx) error {
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		for id := uint64(1); id < st.NextBattleID; id++ {
			b, err := tx.GetBattle(id)
			if err != nil {
				return err
			}
			if b != nil {
				views = append(views, v.battleView(b, now))
			}
		}
		return nil
	})
	return views, err
}

// GetBattleParticipants returns the members of a battle in join order.
func (v *Vault) GetBattleParticipants(ctx context.Context, battleID uint64) ([]*Participant, error) {
	var participants []*Participant
	err := v.store.View(ctx, func(tx Tx) error {
		b, err := tx.GetBattle(battleID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBattleNotFound
		}
		participants, err = tx.ListParticipants(battleID)
		return err
	})
	return participants, err
}

// IsUserInBattle reports whether user joined the battle.
func (v *Vault) IsUserInBattle(ctx context.Context, user string, battleID uint64) (bool, error) {
	user, err := normalize(user)
	if err != nil {
		return false, err
	}
	var joined bool
	err = v.store.View(ctx, func(tx Tx) error {
		p, err := tx.GetParticipant(battleID, user)
		joined = p != nil
		return err
	})
	return joined, err
}

// GetBattleWinners returns the paid ranks of a closed battle, empty while it is open.
func (v *Vault) GetBattleWinners(ctx context.Context, battleID uint64) ([]*Winner, error) {
	var winners []*Winner
	err := v.store.View(ctx, func(tx Tx) error {
		b, err := tx.GetBattle(battleID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBattleNotFound
		}
		winners, err = tx.ListWinners(battleID)
		return err
	})
	if winners == nil && err == nil {
		winners = []*Winner{}
	}
	return winners, err
}

// GetVaultStats returns the vault wide counters. Battles are numbered 1..NextBattleID-1.
func (v *Vault) GetVaultStats(ctx context.Context) (*StatsView, error) {
	var view *StatsView
	err := v.store.View(ctx, func(tx Tx) error {
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		view = newStatsView(st)
		return nil
	})
	return view, err
}

func newStatsView(st *Stats) *StatsView {
	return &StatsView{
		TotalVaultValue:       st.TotalVaultValue,
		TotalYieldDistributed: st.TotalYieldDistributed,
		NextBattleID:          st.NextBattleID,
		RewardReserve:         st.RewardReserve,
		OpenPrizePools:        st.OpenPrizePools,
		OutstandingYield:      st.OutstandingYield,
	}
}

// Audit calls fn with the counters and every position ever opened, both read in one
// transaction. No operation runs until fn returns, so ledger balances read inside fn match
// the books.
func (v *Vault) Audit(ctx context.Context, fn func(ctx context.Context, st *StatsView, positions []*Position) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	var (
		view      *StatsView
		positions []*Position
	)
	err := v.store.View(ctx, func(tx Tx) error {
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		view = newStatsView(st)
		positions, err = tx.ListPositions()
		return err
	})
	if err != nil {
		return err
	}
	return fn(ctx, view, positions)
}
