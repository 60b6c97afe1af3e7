// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package expiry

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/log"
	"github.com/dposledger/ledger/metrics"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/staking/stake"
)

var (
	logger        = log.WithContext("pkg", "expiry")
	metricFired   = metrics.LazyLoadCounterVec("expiry_fired_count", []string{"kind"})
	metricTracked = metrics.LazyLoadGauge("expiry_tracked_stakes")
)

// FireFunc applies a due event. It must move the stake out of the state
// that made the event due.
type FireFunc func(ev Event) error

// Scheduler tracks the next due transition of every live stake.
// Entries are bucketed by the calendar month of their next event so a poll
// only looks at the months that can hold due events.
type Scheduler struct {
	store   Store
	entries map[ledger.TxID]Entry
	buckets map[uint32]map[ledger.TxID]struct{}
}

// New creates a scheduler and loads the rows held by store.
func New(store Store) (*Scheduler, error) {
	s := &Scheduler{
		store:   store,
		entries: make(map[ledger.TxID]Entry),
		buckets: make(map[uint32]map[ledger.TxID]struct{}),
	}
	entries, err := store.Entries()
	if err != nil {
		return nil, errors.Wrap(err, "load expiry entries")
	}
	for _, e := range entries {
		s.index(e)
	}
	metricTracked().Set(int64(len(s.entries)))
	return s, nil
}

func monthOf(ts uint64) uint32 {
	t := time.Unix(int64(ts), 0).UTC()
	return uint32(t.Year()*12 + int(t.Month()) - 1)
}

func (s *Scheduler) index(e Entry) {
	s.entries[e.StakeID] = e
	if ev, ok := e.Next(); ok {
		m := monthOf(ev.At)
		b := s.buckets[m]
		if b == nil {
			b = make(map[ledger.TxID]struct{})
			s.buckets[m] = b
		}
		b[e.StakeID] = struct{}{}
	}
}

func (s *Scheduler) unindex(id ledger.TxID) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	delete(s.entries, id)
	if ev, ok := e.Next(); ok {
		m := monthOf(ev.At)
		delete(s.buckets[m], id)
		if len(s.buckets[m]) == 0 {
			delete(s.buckets, m)
		}
	}
}

// Sync upserts the row of a stake after it changed, or drops it once the
// stake is gone or terminal. A nil stake removes the row of id.
func (s *Scheduler) Sync(addr ledger.Address, id ledger.TxID, st *stake.Stake) error {
	if st == nil || st.Status.Terminal() {
		return s.Remove(id)
	}
	e := EntryOf(addr, st)
	if old, ok := s.entries[id]; ok && old == e {
		return nil
	}
	if err := s.store.Upsert(e); err != nil {
		return errors.Wrap(err, "upsert expiry entry")
	}
	s.unindex(id)
	s.index(e)
	metricTracked().Set(int64(len(s.entries)))
	return nil
}

// Remove drops the row of a stake.
func (s *Scheduler) Remove(id ledger.TxID) error {
	if _, ok := s.entries[id]; !ok {
		return nil
	}
	if err := s.store.Remove(id); err != nil {
		return errors.Wrap(err, "remove expiry entry")
	}
	s.unindex(id)
	metricTracked().Set(int64(len(s.entries)))
	return nil
}

// Get returns the row of a stake.
func (s *Scheduler) Get(id ledger.TxID) (Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// Len returns the number of tracked stakes.
func (s *Scheduler) Len() int {
	return len(s.entries)
}

// Due returns the events due at ts, ordered by time then stake id.
func (s *Scheduler) Due(ts uint64) []Event {
	limit := monthOf(ts)
	var out []Event
	for m, b := range s.buckets {
		if m > limit {
			continue
		}
		for id := range b {
			e := s.entries[id]
			if ev, ok := e.Next(); ok && ev.At <= ts {
				out = append(out, ev)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At != out[j].At {
			return out[i].At < out[j].At
		}
		return string(out[i].StakeID[:]) < string(out[j].StakeID[:])
	})
	return out
}

// Advance fires due events until none remain at ts and records the poll.
// It returns the number of fired events.
func (s *Scheduler) Advance(height uint32, ts uint64, fire FireFunc) (int, error) {
	fired := 0
	for {
		due := s.Due(ts)
		if len(due) == 0 {
			break
		}
		for _, ev := range due {
			if err := fire(ev); err != nil {
				return fired, err
			}
			if e, ok := s.entries[ev.StakeID]; ok {
				if next, ok := e.Next(); ok && next == ev {
					return fired, reverts.Fatal("expiry event %v was not consumed", ev)
				}
			}
			fired++
			metricFired().AddWithLabel(1, map[string]string{"kind": ev.Kind.String()})
			logger.Debug("fired stake event", "height", height, "event", ev)
		}
	}
	if err := s.store.RecordPoll(Poll{height, ts}); err != nil {
		return fired, errors.Wrap(err, "record expiry poll")
	}
	return fired, nil
}

// Rewind forgets the poll recorded at height.
func (s *Scheduler) Rewind(height uint32) error {
	return errors.Wrap(s.store.DeletePoll(height), "delete expiry poll")
}

// LastPoll returns the last processed poll.
func (s *Scheduler) LastPoll() (Poll, bool, error) {
	return s.store.LastPoll()
}

// Clone copies the rows into a scheduler backed by an in-memory store.
func (s *Scheduler) Clone() *Scheduler {
	store := NewMemStore()
	cpy := &Scheduler{
		store:   store,
		entries: make(map[ledger.TxID]Entry, len(s.entries)),
		buckets: make(map[uint32]map[ledger.TxID]struct{}),
	}
	for _, e := range s.entries {
		_ = store.Upsert(e)
		cpy.index(e)
	}
	return cpy
}

// Reset drops every row and reloads them from entries.
func (s *Scheduler) Reset(entries []Entry) error {
	for id := range s.entries {
		if err := s.Remove(id); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := s.store.Upsert(e); err != nil {
			return errors.Wrap(err, "upsert expiry entry")
		}
		s.index(e)
	}
	metricTracked().Set(int64(len(s.entries)))
	return nil
}

// Close closes the backing store.
func (s *Scheduler) Close() error {
	return s.store.Close()
}
