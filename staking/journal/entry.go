// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package journal

import (
	"fmt"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
)

// Kind of a stake mutation.
type Kind uint8

const (
	Created Kind = iota + 1
	PoweredUp
	Released
	Extended
	RedeemRequested
	Redeemed
	Canceled
)

var kindNames = map[Kind]string{
	Created:         "created",
	PoweredUp:       "powered-up",
	Released:        "released",
	Extended:        "extended",
	RedeemRequested: "redeem-requested",
	Redeemed:        "redeemed",
	Canceled:        "canceled",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Source tells whether a transaction or the expiry scheduler caused the mutation.
type Source uint8

const (
	SourceTx Source = iota
	SourceScheduler
)

// Entry records one mutation of one stake. Only the fields meaningful for
// the kind are set.
type Entry struct {
	Seq     uint64         `json:"seq"`
	StakeID ledger.TxID    `json:"stakeId"`
	Address ledger.Address `json:"address"`
	Kind    Kind           `json:"kind"`
	Height  uint32         `json:"height"`
	Source  Source         `json:"source"`
	TxID    ledger.TxID    `json:"txId,omitempty"`

	Amount       bn.Int `json:"amount,omitempty"`
	Duration     uint64 `json:"duration,omitempty"`
	Multiplier   uint64 `json:"multiplier,omitempty"`
	Timestamp    uint64 `json:"timestamp,omitempty"`
	PowerUpDelay uint64 `json:"powerUpDelay,omitempty"`
	RedeemDelay  uint64 `json:"redeemDelay,omitempty"`
}

func (e *Entry) String() string {
	return fmt.Sprintf("Entry(#%d %v %v h=%d)", e.Seq, e.StakeID.AbbrevString(), e.Kind, e.Height)
}
