// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package journal

import (
	"sort"

	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/staking/stake"
)

type ref struct {
	stakeID ledger.TxID
	seq     uint64
}

// Journal is an append-only log of stake mutations, grouped per stake.
// Reverting a mutation pops the newest entry of that stake, and the record
// before it is rebuilt by replaying the remaining entries from creation.
type Journal struct {
	seq       uint64
	byStake   map[ledger.TxID][]Entry
	scheduled map[uint32][]ref
}

// New creates an empty journal.
func New() *Journal {
	return &Journal{
		byStake:   make(map[ledger.TxID][]Entry),
		scheduled: make(map[uint32][]ref),
	}
}

// Append records e and returns it with its sequence number set.
func (j *Journal) Append(e Entry) Entry {
	j.seq++
	e.Seq = j.seq
	j.byStake[e.StakeID] = append(j.byStake[e.StakeID], e)
	if e.Source == SourceScheduler {
		j.scheduled[e.Height] = append(j.scheduled[e.Height], ref{e.StakeID, e.Seq})
	}
	return e
}

// Entries returns the entries of a stake, oldest first.
func (j *Journal) Entries(stakeID ledger.TxID) []Entry {
	return append([]Entry(nil), j.byStake[stakeID]...)
}

// Last returns the newest entry of a stake.
func (j *Journal) Last(stakeID ledger.TxID) (Entry, bool) {
	entries := j.byStake[stakeID]
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[len(entries)-1], true
}

// Pop removes the newest entry of a stake. It fails with a fatal error when
// that entry is not of the expected kind.
func (j *Journal) Pop(stakeID ledger.TxID, kind Kind) (Entry, error) {
	entries := j.byStake[stakeID]
	if len(entries) == 0 {
		return Entry{}, reverts.Fatal("journal has no entry for stake %v", stakeID)
	}
	last := entries[len(entries)-1]
	if last.Kind != kind {
		return Entry{}, reverts.Fatal("journal of stake %v ends with %v, want %v", stakeID, last.Kind, kind)
	}
	if len(entries) == 1 {
		delete(j.byStake, stakeID)
	} else {
		j.byStake[stakeID] = entries[:len(entries)-1]
	}
	if last.Source == SourceScheduler {
		j.unschedule(last)
	}
	return last, nil
}

func (j *Journal) unschedule(e Entry) {
	refs := j.scheduled[e.Height]
	for i := range refs {
		if refs[i].seq == e.Seq {
			refs = append(refs[:i], refs[i+1:]...)
			break
		}
	}
	if len(refs) == 0 {
		delete(j.scheduled, e.Height)
	} else {
		j.scheduled[e.Height] = refs
	}
}

// SchedulerEntries returns the scheduler caused entries of a height, newest first.
func (j *Journal) SchedulerEntries(height uint32) []Entry {
	refs := j.scheduled[height]
	out := make([]Entry, 0, len(refs))
	for _, r := range refs {
		for _, e := range j.byStake[r.stakeID] {
			if e.Seq == r.seq {
				out = append(out, e)
				break
			}
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Seq > out[b].Seq })
	return out
}

// Replay rebuilds a stake by applying its entries from creation. It returns
// nil when the journal holds nothing for the stake.
func (j *Journal) Replay(stakeID ledger.TxID) (*stake.Stake, error) {
	entries := j.byStake[stakeID]
	if len(entries) == 0 {
		return nil, nil
	}
	var s *stake.Stake
	for _, e := range entries {
		if e.Kind == Created {
			if s != nil {
				return nil, reverts.Fatal("stake %v created twice", stakeID)
			}
			s = stake.New(e.StakeID, e.Amount, e.Duration, e.Multiplier, e.Timestamp, e.PowerUpDelay)
			continue
		}
		if s == nil {
			return nil, reverts.Fatal("stake %v: %v before creation", stakeID, e.Kind)
		}
		if !apply(s, e) {
			return nil, reverts.Fatal("stake %v: cannot replay %v from %v", stakeID, e.Kind, s.Status)
		}
	}
	return s, nil
}

func apply(s *stake.Stake, e Entry) bool {
	switch e.Kind {
	case PoweredUp:
		return s.PowerUp()
	case Released:
		return s.Release()
	case Extended:
		return s.Extend(e.Duration, e.Multiplier)
	case RedeemRequested:
		return s.RequestRedeem(e.Timestamp, e.RedeemDelay)
	case Redeemed:
		return s.CompleteRedeem()
	case Canceled:
		return s.Cancel()
	}
	return false
}

// Len returns the number of stakes with entries.
func (j *Journal) Len() int {
	return len(j.byStake)
}

// Clone returns an independent copy.
func (j *Journal) Clone() *Journal {
	cpy := New()
	cpy.seq = j.seq
	for id, entries := range j.byStake {
		cpy.byStake[id] = append([]Entry(nil), entries...)
	}
	for h, refs := range j.scheduled {
		cpy.scheduled[h] = append([]ref(nil), refs...)
	}
	return cpy
}
