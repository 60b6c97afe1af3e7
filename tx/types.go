// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import "fmt"

// Type groups.
const (
	CoreGroup    uint32 = 1
	StakingGroup uint32 = 100
)

// Type identifies a transaction handler by group and type number.
type Type struct {
	Group uint32 `json:"typeGroup"`
	Type  uint16 `json:"type"`
}

var (
	TypeTransfer             = Type{CoreGroup, 0}
	TypeDelegateRegistration = Type{CoreGroup, 2}
	TypeVote                 = Type{CoreGroup, 3}

	TypeStakeCreate = Type{StakingGroup, 0}
	TypeStakeRedeem = Type{StakingGroup, 1}
	TypeStakeCancel = Type{StakingGroup, 2}
	TypeStakeExtend = Type{StakingGroup, 3}
)

var typeNames = map[Type]string{
	TypeTransfer:             "transfer",
	TypeDelegateRegistration: "delegateRegistration",
	TypeVote:                 "vote",
	TypeStakeCreate:          "stakeCreate",
	TypeStakeRedeem:          "stakeRedeem",
	TypeStakeCancel:          "stakeCancel",
	TypeStakeExtend:          "stakeExtend",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("%d/%d", t.Group, t.Type)
}

// IsStaking reports whether t belongs to the staking group.
func (t Type) IsStaking() bool {
	return t.Group == StakingGroup
}
