// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"

	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/milestone"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/staking/stake"
	"github.com/dposledger/ledger/wallet"
)

// CanCreate checks a stake creation against w without mutating anything.
// now is the timestamp of the block the creation is applied in.
func (e *Engine) CanCreate(w *wallet.Wallet, p CreateParams, now uint64, m *milestone.Milestone) error {
	if _, ok := m.Multiplier(p.Duration); !ok {
		return reverts.New(reverts.InvalidDuration, "duration %d is not a stake level", p.Duration)
	}
	if !ledger.IsWholeUnit(p.Amount) {
		return reverts.New(reverts.NonIntegerStake, "amount %v is not a whole unit", p.Amount)
	}
	if p.Amount.Sign() <= 0 || p.Amount.Cmp(m.MinimumStake) < 0 {
		return reverts.New(reverts.BelowMinimumStake, "amount %v below minimum %v", p.Amount, m.MinimumStake)
	}
	if tolerance := m.StakeTimestampTolerance; tolerance > 0 {
		diff := p.Timestamp - now
		if now > p.Timestamp {
			diff = now - p.Timestamp
		}
		if diff > tolerance {
			return reverts.New(reverts.InvalidStakeTimestamp, "timestamp %d is %ds away from block time %d", p.Timestamp, diff, now)
		}
	}
	if p.Timestamp > math.MaxUint64-longestDelay(m) {
		return reverts.New(reverts.InvalidStakeTimestamp, "timestamp %d overflows the stake schedule", p.Timestamp)
	}
	if _, ok := w.Stake(p.ID); ok {
		return reverts.New(reverts.DuplicateStake, "stake %v already exists", p.ID)
	}
	if _, ok := e.journal.Last(p.ID); ok {
		return reverts.New(reverts.DuplicateStake, "stake %v already recorded", p.ID)
	}
	if p.Amount.Add(p.Fee).Cmp(w.Balance) > 0 {
		return reverts.New(reverts.InsufficientBalance, "amount %v plus fee %v exceeds balance %v", p.Amount, p.Fee, w.Balance)
	}
	return nil
}

// longestDelay bounds every offset added to a stake's creation timestamp,
// extensions included.
func longestDelay(m *milestone.Milestone) uint64 {
	longest := m.PowerUpTime
	for d := range m.StakeLevels {
		longest = max(longest, d)
	}
	return longest
}

func (e *Engine) existing(w *wallet.Wallet, id ledger.TxID) (*stake.Stake, error) {
	s, ok := w.Stake(id)
	if !ok {
		return nil, reverts.New(reverts.StakeNotFound, "stake %v not found", id)
	}
	return s, nil
}

// terminal maps a status that cannot be left to its rejection.
func terminal(s *stake.Stake) error {
	switch s.Status {
	case stake.Canceled:
		return reverts.New(reverts.StakeAlreadyCanceled, "stake %v is canceled", s.ID)
	case stake.Redeeming, stake.Redeemed:
		return reverts.New(reverts.StakeAlreadyRedeemed, "stake %v is %v", s.ID, s.Status)
	}
	return nil
}

// CanCancel checks that the stake is still pending or active.
func (e *Engine) CanCancel(w *wallet.Wallet, id ledger.TxID) error {
	s, err := e.existing(w, id)
	if err != nil {
		return err
	}
	if err := terminal(s); err != nil {
		return err
	}
	if s.Status == stake.Released {
		return reverts.New(reverts.StakeAlreadyReleased, "stake %v is released", id)
	}
	return nil
}

// CanExtend checks that the stake is pending or active and duration is a
// longer stake level.
func (e *Engine) CanExtend(w *wallet.Wallet, id ledger.TxID, duration uint64, m *milestone.Milestone) error {
	if err := e.CanCancel(w, id); err != nil {
		return err
	}
	if _, ok := m.Multiplier(duration); !ok {
		return reverts.New(reverts.InvalidDuration, "duration %d is not a stake level", duration)
	}
	if s, _ := w.Stake(id); duration <= s.Duration {
		return reverts.New(reverts.InvalidStakeExtension, "duration %d does not extend %d", duration, s.Duration)
	}
	return nil
}

// CanRequestRedeem checks that the stake is released.
func (e *Engine) CanRequestRedeem(w *wallet.Wallet, id ledger.TxID) error {
	s, err := e.existing(w, id)
	if err != nil {
		return err
	}
	if err := terminal(s); err != nil {
		return err
	}
	if s.Status != stake.Released {
		return reverts.New(reverts.StakeNotYetRedeemable, "stake %v is %v until %d", id, s.Status, s.Timestamps.Redeemable)
	}
	return nil
}
