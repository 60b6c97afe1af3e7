// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package expiry

import (
	"fmt"

	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/staking/stake"
)

// Entry is the scheduler row of one live stake.
type Entry struct {
	StakeID    ledger.TxID
	Address    ledger.Address
	PowerUp    uint64
	Redeemable uint64
	RedeemAt   uint64
	Status     stake.Status
}

// EntryOf builds the row for a stake owned by addr.
func EntryOf(addr ledger.Address, s *stake.Stake) Entry {
	return Entry{
		StakeID:    s.ID,
		Address:    addr,
		PowerUp:    s.Timestamps.PowerUp,
		Redeemable: s.Timestamps.Redeemable,
		RedeemAt:   s.Timestamps.RedeemAt,
		Status:     s.Status,
	}
}

// Next returns the next due event of the entry.
func (e *Entry) Next() (Event, bool) {
	ev := Event{StakeID: e.StakeID, Address: e.Address}
	switch e.Status {
	case stake.Pending:
		ev.Kind, ev.At = stake.EventPowerUp, e.PowerUp
	case stake.Active:
		ev.Kind, ev.At = stake.EventRelease, e.Redeemable
	case stake.Redeeming:
		ev.Kind, ev.At = stake.EventRedeem, e.RedeemAt
	default:
		return Event{}, false
	}
	return ev, true
}

// Event is a stake transition that became due.
type Event struct {
	StakeID ledger.TxID
	Address ledger.Address
	Kind    stake.EventKind
	At      uint64
}

func (e Event) String() string {
	return fmt.Sprintf("%v of %v at %d", e.Kind, e.StakeID.AbbrevString(), e.At)
}

// Poll is a processed (height, timestamp) pair.
type Poll struct {
	Height    uint32
	Timestamp uint64
}

// Store persists scheduler rows and the poll log.
type Store interface {
	Upsert(e Entry) error
	Remove(id ledger.TxID) error
	Entries() ([]Entry, error)

	RecordPoll(p Poll) error
	DeletePoll(height uint32) error
	LastPoll() (Poll, bool, error)

	Close() error
}
