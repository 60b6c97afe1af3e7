// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package expiry

import (
	"sort"
	"sync"

	"github.com/dposledger/ledger/ledger"
)

type memStore struct {
	lock    sync.Mutex
	entries map[ledger.TxID]Entry
	polls   map[uint32]uint64
}

// NewMemStore creates a store held in memory.
func NewMemStore() Store {
	return &memStore{
		entries: make(map[ledger.TxID]Entry),
		polls:   make(map[uint32]uint64),
	}
}

func (m *memStore) Upsert(e Entry) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.entries[e.StakeID] = e
	return nil
}

func (m *memStore) Remove(id ledger.TxID) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *memStore) Entries() ([]Entry, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].StakeID[:]) < string(out[j].StakeID[:])
	})
	return out, nil
}

func (m *memStore) RecordPoll(p Poll) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.polls[p.Height] = p.Timestamp
	return nil
}

func (m *memStore) DeletePoll(height uint32) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.polls, height)
	return nil
}

func (m *memStore) LastPoll() (Poll, bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	var (
		last  Poll
		found bool
	)
	for h, ts := range m.polls {
		if !found || h > last.Height {
			last, found = Poll{h, ts}, true
		}
	}
	return last, found, nil
}

func (m *memStore) Close() error { return nil }
