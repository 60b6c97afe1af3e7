// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"fmt"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
)

// Timestamps of a stake, in unix seconds of block time.
type Timestamps struct {
	Created    uint64 `json:"created"`
	PowerUp    uint64 `json:"powerUp"`
	Redeemable uint64 `json:"redeemable"`
	RedeemAt   uint64 `json:"redeemAt,omitempty"`
}

// Stake is an amount locked for a duration in exchange for vote power.
// It is identified by the id of the transaction that created it.
type Stake struct {
	ID         ledger.TxID `json:"id"`
	Amount     bn.Int      `json:"amount"`
	Duration   uint64      `json:"duration"`
	Multiplier uint64      `json:"multiplier"` // tenths
	Power      bn.Int      `json:"power"`
	Timestamps Timestamps  `json:"timestamps"`
	Status     Status      `json:"status"`
	Halved     bool        `json:"halved"`
}

// ComputePower returns amount * multiplier / 10.
func ComputePower(amount bn.Int, multiplier uint64) bn.Int {
	return amount.MulUint64(multiplier).DivUint64(10)
}

// New creates a pending stake.
func New(id ledger.TxID, amount bn.Int, duration, multiplier, created, powerUpDelay uint64) *Stake {
	return &Stake{
		ID:         id,
		Amount:     amount,
		Duration:   duration,
		Multiplier: multiplier,
		Power:      ComputePower(amount, multiplier),
		Timestamps: Timestamps{
			Created:    created,
			PowerUp:    created + powerUpDelay,
			Redeemable: created + duration,
		},
		Status: Pending,
	}
}

// Clone returns a copy that shares no state with s.
func (s *Stake) Clone() *Stake {
	cpy := *s
	return &cpy
}

// Equal reports whether both records hold the same values.
func (s *Stake) Equal(other *Stake) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.ID == other.ID &&
		s.Amount.Cmp(other.Amount) == 0 &&
		s.Duration == other.Duration &&
		s.Multiplier == other.Multiplier &&
		s.Power.Cmp(other.Power) == 0 &&
		s.Timestamps == other.Timestamps &&
		s.Status == other.Status &&
		s.Halved == other.Halved
}

// Locked reports whether the amount is held out of the spendable balance.
func (s *Stake) Locked() bool {
	switch s.Status {
	case Pending, Active, Released, Redeeming:
		return true
	}
	return false
}

// Counts reports whether the power contributes to the owner's stake power.
func (s *Stake) Counts() bool {
	switch s.Status {
	case Active, Released, Redeeming:
		return true
	}
	return false
}

// LockedAmount returns the amount if locked, zero otherwise.
func (s *Stake) LockedAmount() bn.Int {
	if s == nil || !s.Locked() {
		return bn.Int{}
	}
	return s.Amount
}

// Contribution returns the power if it counts, zero otherwise.
func (s *Stake) Contribution() bn.Int {
	if s == nil || !s.Counts() {
		return bn.Int{}
	}
	return s.Power
}

// NextEvent returns the kind and time of the next scheduled transition.
// Released stakes wait for a redeem request and have none.
func (s *Stake) NextEvent() (EventKind, uint64, bool) {
	switch s.Status {
	case Pending:
		return EventPowerUp, s.Timestamps.PowerUp, true
	case Active:
		return EventRelease, s.Timestamps.Redeemable, true
	case Redeeming:
		return EventRedeem, s.Timestamps.RedeemAt, true
	}
	return 0, 0, false
}

func (s *Stake) String() string {
	return fmt.Sprintf("Stake(%v %v amount=%v power=%v halved=%v)", s.ID.AbbrevString(), s.Status, s.Amount, s.Power, s.Halved)
}
