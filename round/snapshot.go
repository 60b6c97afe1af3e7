// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package round

import (
	"bytes"
	"sort"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/wallet"
)

// Entry is a ranked delegate.
type Entry struct {
	PublicKey   ledger.PublicKey
	Username    string
	VoteBalance bn.Int
}

// Snapshot is the delegate ranking taken at the first block of a round.
type Snapshot struct {
	Round        uint64
	Height       uint32
	Ranked       []Entry
	Active       []ledger.PublicKey
	ForgingOrder []ledger.PublicKey
}

// Build ranks every delegate of repo by vote balance, highest first, with
// ties broken by public key. The first MaxDelegates form the active set.
func Build(info Info, repo *wallet.Repository) *Snapshot {
	delegates := repo.Delegates()
	ranked := make([]Entry, 0, len(delegates))
	for _, d := range delegates {
		ranked = append(ranked, Entry{
			PublicKey:   *d.PublicKey,
			Username:    d.Delegate.Username,
			VoteBalance: d.Delegate.VoteBalance,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if c := ranked[i].VoteBalance.Cmp(ranked[j].VoteBalance); c != 0 {
			return c > 0
		}
		return bytes.Compare(ranked[i].PublicKey[:], ranked[j].PublicKey[:]) < 0
	})

	n := min(len(ranked), int(info.MaxDelegates))
	active := make([]ledger.PublicKey, n)
	for i := range active {
		active[i] = ranked[i].PublicKey
	}

	perm := make([]int, n)
	Shuffle(ledger.RoundSeed(info.Round), perm)
	order := make([]ledger.PublicKey, n)
	for i, p := range perm {
		order[i] = active[p]
	}

	return &Snapshot{
		Round:        info.Round,
		Height:       info.RoundHeight,
		Ranked:       ranked,
		Active:       active,
		ForgingOrder: order,
	}
}

// TopDelegates returns the first n active delegates by rank.
func (s *Snapshot) TopDelegates(n uint32) []ledger.PublicKey {
	return append([]ledger.PublicKey(nil), s.Active[:min(int(n), len(s.Active))]...)
}

// Rank returns the 1-based rank of pk, or 0 when it is not ranked.
func (s *Snapshot) Rank(pk ledger.PublicKey) uint32 {
	for i := range s.Ranked {
		if s.Ranked[i].PublicKey == pk {
			return uint32(i + 1)
		}
	}
	return 0
}

// IsActive reports whether pk forges in the round.
func (s *Snapshot) IsActive(pk ledger.PublicKey) bool {
	for _, a := range s.Active {
		if a == pk {
			return true
		}
	}
	return false
}

// Forger returns the delegate scheduled to forge at height.
func (s *Snapshot) Forger(height uint32) (ledger.PublicKey, bool) {
	if len(s.ForgingOrder) == 0 || height < s.Height {
		return ledger.PublicKey{}, false
	}
	return s.ForgingOrder[int(height-s.Height)%len(s.ForgingOrder)], true
}

// ApplyRanks writes the snapshot ranks onto the delegate profiles of repo.
// A nil snapshot clears every rank.
func ApplyRanks(s *Snapshot, repo *wallet.Repository) {
	for _, d := range repo.Delegates() {
		d.Delegate.Rank = 0
	}
	if s == nil {
		return
	}
	for i, e := range s.Ranked {
		if d, ok := repo.Delegate(e.PublicKey); ok {
			d.Delegate.Rank = uint32(i + 1)
		}
	}
}
