// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wallet

import (
	"sort"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/staking/stake"
)

// DelegateProfile is present on wallets registered as delegates.
type DelegateProfile struct {
	Username         string `json:"username"`
	Rank             uint32 `json:"rank,omitempty"` // 1-based, 0 when unranked
	ProducedBlocks   uint64 `json:"producedBlocks"`
	ForgedFees       bn.Int `json:"forgedFees"`
	ForgedRewards    bn.Int `json:"forgedRewards"`
	ForgedTopRewards bn.Int `json:"forgedTopRewards"`
	VoteBalance      bn.Int `json:"voteBalance"`
	LastBlockHeight  uint32 `json:"lastBlockHeight,omitempty"`
}

// Wallet is the ledger state of one address.
type Wallet struct {
	Address    ledger.Address               `json:"address"`
	PublicKey  *ledger.PublicKey            `json:"publicKey,omitempty"`
	Balance    bn.Int                       `json:"balance"`
	Nonce      uint64                       `json:"nonce"`
	Vote       *ledger.PublicKey            `json:"vote,omitempty"`
	Delegate   *DelegateProfile             `json:"delegate,omitempty"`
	Stakes     map[ledger.TxID]*stake.Stake `json:"stakes,omitempty"`
	StakePower bn.Int                       `json:"stakePower"`
}

// New creates an empty wallet.
func New(addr ledger.Address) *Wallet {
	return &Wallet{Address: addr}
}

// IsDelegate reports whether the wallet registered as a delegate.
func (w *Wallet) IsDelegate() bool {
	return w.Delegate != nil
}

// Stake returns the stake with the given id.
func (w *Wallet) Stake(id ledger.TxID) (*stake.Stake, bool) {
	s, ok := w.Stakes[id]
	return s, ok
}

// SetStake inserts or replaces a stake record.
func (w *Wallet) SetStake(s *stake.Stake) {
	if w.Stakes == nil {
		w.Stakes = make(map[ledger.TxID]*stake.Stake)
	}
	w.Stakes[s.ID] = s
}

// RemoveStake deletes a stake record.
func (w *Wallet) RemoveStake(id ledger.TxID) {
	delete(w.Stakes, id)
	if len(w.Stakes) == 0 {
		w.Stakes = nil
	}
}

// SortedStakes returns stakes ordered by creation time then id.
func (w *Wallet) SortedStakes() []*stake.Stake {
	out := make([]*stake.Stake, 0, len(w.Stakes))
	for _, s := range w.Stakes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamps.Created != out[j].Timestamps.Created {
			return out[i].Timestamps.Created < out[j].Timestamps.Created
		}
		return string(out[i].ID[:]) < string(out[j].ID[:])
	})
	return out
}

// VoteWeight returns the weight this wallet lends to the delegate it votes for.
func (w *Wallet) VoteWeight(balanceVoteWeight bool) bn.Int {
	if balanceVoteWeight {
		return w.Balance.Add(w.StakePower)
	}
	return w.StakePower
}

// IsEmpty reports whether the wallet carries no state worth keeping.
func (w *Wallet) IsEmpty() bool {
	return w.Balance.IsZero() &&
		w.Nonce == 0 &&
		w.Vote == nil &&
		w.Delegate == nil &&
		len(w.Stakes) == 0 &&
		w.StakePower.IsZero()
}

// Clone returns a deep copy.
func (w *Wallet) Clone() *Wallet {
	cpy := *w
	if w.PublicKey != nil {
		pk := *w.PublicKey
		cpy.PublicKey = &pk
	}
	if w.Vote != nil {
		v := *w.Vote
		cpy.Vote = &v
	}
	if w.Delegate != nil {
		d := *w.Delegate
		cpy.Delegate = &d
	}
	if w.Stakes != nil {
		cpy.Stakes = make(map[ledger.TxID]*stake.Stake, len(w.Stakes))
		for id, s := range w.Stakes {
			cpy.Stakes[id] = s.Clone()
		}
	}
	return &cpy
}
