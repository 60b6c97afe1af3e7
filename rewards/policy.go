// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/milestone"
)

// FeeSplit divides the fees of a block into a burned and a paid part.
type FeeSplit struct {
	ToRemove bn.Int
	ToReward bn.Int
}

// FeePolicy decides how much of the block fees the forger receives.
// ToRemove + ToReward always equals totalFees and neither is negative.
type FeePolicy interface {
	Split(totalFees, reward, topReward bn.Int) FeeSplit
}

// RewardAll pays every fee to the forger.
type RewardAll struct{}

func (RewardAll) Split(totalFees, _, _ bn.Int) FeeSplit {
	return FeeSplit{ToReward: clamp(totalFees)}
}

// PoolCeiling pays fees up to the minted reward pool and burns the rest.
type PoolCeiling struct{}

func (PoolCeiling) Split(totalFees, reward, topReward bn.Int) FeeSplit {
	fees := clamp(totalFees)
	toReward := fees.Min(clamp(reward).Add(clamp(topReward)))
	return FeeSplit{
		ToRemove: fees.Sub(toReward),
		ToReward: toReward,
	}
}

func clamp(v bn.Int) bn.Int {
	if v.Sign() < 0 {
		return bn.Int{}
	}
	return v
}

// PolicyFor returns the fee policy of a milestone.
func PolicyFor(m *milestone.Milestone) FeePolicy {
	if m.FeeRemoval {
		return PoolCeiling{}
	}
	return RewardAll{}
}
