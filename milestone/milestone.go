// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package milestone

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
)

// Stake durations of the standard tiers, in seconds.
const (
	ThreeMonths = 7889400
	SixMonths   = 15778800
	OneYear     = 31557600
	TwoYears    = 63115200
)

// Milestone is the set of protocol parameters that applies from Height onwards.
type Milestone struct {
	Height          uint32 `json:"height" yaml:"height"`
	Reward          bn.Int `json:"reward" yaml:"reward"`
	TopReward       bn.Int `json:"topReward" yaml:"topReward"`
	TopDelegates    uint32 `json:"topDelegates" yaml:"topDelegates"`
	ActiveDelegates uint32 `json:"activeDelegates" yaml:"activeDelegates"`
	BlockTime       uint32 `json:"blockTime" yaml:"blockTime"` // seconds

	// StakeLevels maps a stake duration in seconds to its power multiplier in tenths (15 = x1.5).
	StakeLevels             map[uint64]uint64 `json:"stakeLevels" yaml:"stakeLevels"`
	MinimumStake            bn.Int            `json:"minimumStake" yaml:"minimumStake"`
	PowerUpTime             uint64            `json:"powerUpTime" yaml:"powerUpTime"` // seconds between creation and power-up
	RedeemTime              uint64            `json:"redeemTime" yaml:"redeemTime"`   // seconds between redeem request and completion
	StakeTimestampTolerance uint64            `json:"stakeTimestampTolerance" yaml:"stakeTimestampTolerance"`

	BalanceVoteWeight bool `json:"balanceVoteWeight" yaml:"balanceVoteWeight"`
	FeeRemoval        bool `json:"feeRemoval" yaml:"feeRemoval"`
}

// Multiplier returns the multiplier of the stake tier with the given duration.
func (m *Milestone) Multiplier(duration uint64) (uint64, bool) {
	mul, ok := m.StakeLevels[duration]
	return mul, ok
}

// Durations returns the configured stake durations in ascending order.
func (m *Milestone) Durations() []uint64 {
	out := make([]uint64, 0, len(m.StakeLevels))
	for d := range m.StakeLevels {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PollEveryBlock reports whether stake expiries are processed every block
// instead of once per round. Low block time networks need it to keep
// stake events close to their scheduled time.
func (m *Milestone) PollEveryBlock() bool {
	return m.BlockTime <= 2
}

// RewardPool is the total amount minted for a block.
func (m *Milestone) RewardPool() bn.Int {
	return m.Reward.Add(m.TopReward)
}

func (m *Milestone) String() string {
	var tiers []string
	for _, d := range m.Durations() {
		tiers = append(tiers, fmt.Sprintf("%ds:x%d.%d", d, m.StakeLevels[d]/10, m.StakeLevels[d]%10))
	}
	return fmt.Sprintf("#%d reward=%v top=%v/%d active=%d tiers=[%s]",
		m.Height, m.Reward, m.TopReward, m.TopDelegates, m.ActiveDelegates, strings.Join(tiers, " "))
}

func standardLevels() map[uint64]uint64 {
	return map[uint64]uint64{
		ThreeMonths: 15,
		SixMonths:   20,
		OneYear:     25,
		TwoYears:    30,
	}
}

// Mainnet returns the production parameter set.
func Mainnet() *Set {
	return MustNewSet([]Milestone{{
		Height:                  1,
		Reward:                  ledger.Coins(2),
		TopReward:               bn.FromUint64(15_000_000),
		TopDelegates:            5,
		ActiveDelegates:         51,
		BlockTime:               8,
		StakeLevels:             standardLevels(),
		MinimumStake:            ledger.Coins(10),
		PowerUpTime:             3 * 3600,
		RedeemTime:              48 * 3600,
		StakeTimestampTolerance: 120,
		BalanceVoteWeight:       true,
		FeeRemoval:              true,
	}})
}

// Devnet returns a fast network used for local testing. Stake expiries are
// processed every block.
func Devnet() *Set {
	return MustNewSet([]Milestone{{
		Height:                  1,
		Reward:                  ledger.Coins(2),
		TopReward:               bn.FromUint64(15_000_000),
		TopDelegates:            5,
		ActiveDelegates:         5,
		BlockTime:               1,
		StakeLevels:             standardLevels(),
		MinimumStake:            ledger.Coins(1),
		PowerUpTime:             60,
		RedeemTime:              300,
		StakeTimestampTolerance: 120,
		BalanceVoteWeight:       true,
	}})
}
