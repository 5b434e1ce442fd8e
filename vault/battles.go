package vault

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// CreateBattle registers a battle starting now and returns its id.
func (v *Vault) CreateBattle(ctx context.Context, caller string, params BattleParams) (uint64, error) {
	if _, err := v.requireAdmin(caller); err != nil {
		return 0, err
	}
	if err := params.Validate(); err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()

	var id uint64
	err := v.update(ctx, "create_battle", func(ctx context.Context, tx Tx) error {
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		id = st.NextBattleID
		if err := tx.SaveBattle(newBattle(id, params, now)); err != nil {
			return err
		}
		st.NextBattleID++
		return tx.SaveStats(st)
	})
	if err != nil {
		return 0, err
	}
	v.logger.Info("battle created id=%d name=%s fee=%s max=%d duration=%ds",
		id, params.Name, params.EntryFee, params.MaxParticipants, params.Duration)
	return id, nil
}

// JoinBattle enters user into a battle by paying exactly its entry fee into the prize pool.
// A user keeps one regular position and may join any number of battles.
func (v *Vault) JoinBattle(ctx context.Context, user string, battleID uint64, amount decimal.Decimal) error {
	user, err := normalize(user)
	if err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()

	err = v.update(ctx, "join_battle", func(ctx context.Context, tx Tx) error {
		b, err := tx.GetBattle(battleID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBattleNotFound
		}
		if Status(b, now) == BattleExpired {
			return errSettleFirst
		}
		existing, err := tx.GetParticipant(battleID, user)
		if err != nil {
			return err
		}
		if err := checkJoin(b, now, amount, existing != nil); err != nil {
			return err
		}
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		p, err := getOrNewPosition(tx, user)
		if err != nil {
			return err
		}
		if err := v.asset.TransferFrom(ctx, v.config.Address, user, v.config.Address, amount); err != nil {
			return wrapTransfer("join battle", err)
		}

		b.CurrentParticipants++
		b.TotalPrizePool = b.TotalPrizePool.Add(amount)
		st.OpenPrizePools = st.OpenPrizePools.Add(amount)
		p.BattleID = battleID
		if err := tx.SaveParticipant(&Participant{
			BattleID:     battleID,
			User:         user,
			AmountStaked: amount,
			JoinTime:     now,
		}); err != nil {
			return err
		}
		if err := tx.SaveBattle(b); err != nil {
			return err
		}
		if err := tx.SavePosition(p); err != nil {
			return err
		}
		return tx.SaveStats(st)
	})
	if errors.Is(err, errSettleFirst) {
		v.settleExpired(ctx, battleID, now)
		return ErrBattleInactive
	}
	if err != nil {
		return err
	}
	v.logger.Info("battle joined id=%d user=%s", battleID, user)
	v.notify("profile", v.activity.RecordBattleJoined(ctx, user, battleID))
	return nil
}

// SeedBattle adds amount from the admin to the prize pool of an open battle.
func (v *Vault) SeedBattle(ctx context.Context, caller string, battleID uint64, amount decimal.Decimal) error {
	caller, err := v.requireAdmin(caller)
	if err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()

	err = v.update(ctx, "seed_battle", func(ctx context.Context, tx Tx) error {
		b, err := tx.GetBattle(battleID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBattleNotFound
		}
		switch Status(b, now) {
		case BattleExpired:
			return errSettleFirst
		case BattleClosed:
			return ErrBattleInactive
		}
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		if err := v.asset.TransferFrom(ctx, v.config.Address, caller, v.config.Address, amount); err != nil {
			return wrapTransfer("seed battle", err)
		}
		b.TotalPrizePool = b.TotalPrizePool.Add(amount)
		st.OpenPrizePools = st.OpenPrizePools.Add(amount)
		if err := tx.SaveBattle(b); err != nil {
			return err
		}
		return tx.SaveStats(st)
	})
	if errors.Is(err, errSettleFirst) {
		v.settleExpired(ctx, battleID, now)
		return ErrBattleInactive
	}
	return err
}

// CloseBattle settles an ended battle: participants are ranked, the prize pool is paid to
// the top ranks and the winners are stored. Anyone may close once the end time passed.
func (v *Vault) CloseBattle(ctx context.Context, caller string, battleID uint64) ([]*Winner, error) {
	if _, err := normalize(caller); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closeBattle(ctx, battleID, v.now())
}

// settleExpired closes an expired battle found by another write. Callers hold v.mu.
func (v *Vault) settleExpired(ctx context.Context, battleID uint64, now int64) {
	if _, err := v.closeBattle(ctx, battleID, now); err != nil && !errors.Is(err, ErrBattleClosed) {
		v.logger.Warn("fail to settle expired battle id=%d: %s", battleID, err)
	}
}

func (v *Vault) closeBattle(ctx context.Context, battleID uint64, now int64) ([]*Winner, error) {
	var (
		standings []Standing
		winners   []*Winner
	)
	err := v.update(ctx, "close_battle", func(ctx context.Context, tx Tx) error {
		b, err := tx.GetBattle(battleID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBattleNotFound
		}
		if b.Closed {
			return ErrBattleClosed
		}
		if now < b.EndTime {
			return ErrBattleNotEnded
		}
		st, err := tx.GetStats()
		if err != nil {
			return err
		}
		participants, err := tx.ListParticipants(battleID)
		if err != nil {
			return err
		}
		principals := make(map[string]decimal.Decimal, len(participants))
		for _, p := range participants {
			pos, err := tx.GetPosition(p.User)
			if err != nil {
				return err
			}
			if pos != nil {
				principals[p.User] = pos.DepositedAmount
			}
		}

		standings = RankParticipants(b, participants, principals, v.config.APYBps)
		winners = SplitPrizes(b, standings, v.config.PrizeShares)
		for _, w := range winners {
			if !w.Prize.IsPositive() {
				continue
			}
			if err := v.asset.Transfer(ctx, v.config.Address, w.User, w.Prize); err != nil {
				return wrapTransfer("pay prize", err)
			}
		}
		if len(participants) == 0 {
			st.RewardReserve = st.RewardReserve.Add(b.TotalPrizePool)
		}
		st.OpenPrizePools = st.OpenPrizePools.Sub(b.TotalPrizePool)
		b.Closed = true
		b.ClosedAt = now
		if err := tx.SaveWinners(battleID, winners); err != nil {
			return err
		}
		if err := tx.SaveBattle(b); err != nil {
			return err
		}
		return tx.SaveStats(st)
	})
	if err != nil {
		return nil, err
	}

	v.logger.Info("battle closed id=%d participants=%d winners=%d", battleID, len(standings), len(winners))
	for i, s := range standings {
		v.notify("leaderboard", v.scorer.UpdateBattleScore(ctx, s.Participant.User, battleID,
			BattlePoints(i+1, len(standings))))
	}
	for _, w := range winners {
		v.notify("profile", v.activity.RecordBattleWon(ctx, w.User, battleID, w.Rank))
	}
	return winners, nil
}
