// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package manager

import (
	"context"
	"encoding/binary"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dposledger/ledger/block"
	"github.com/dposledger/ledger/staking/reverts"
)

// BlockSource yields blocks in height order and io.EOF at the end.
type BlockSource interface {
	Next() (*block.Block, error)
}

// Bootstrap replays every block of src above the tip, then rebuilds the
// derived state and checks it. progress, if set, is called after each block.
func (m *Manager) Bootstrap(ctx context.Context, src BlockSource, progress func(*block.Block)) error {
	replayed := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		b, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if b.Height <= m.Tip().Height {
			continue
		}
		if err := m.ApplyBlock(b); err != nil {
			return err
		}
		replayed++
		if progress != nil {
			progress(b)
		}
	}
	fixed, err := m.Reconcile()
	if err != nil {
		return err
	}
	if fixed > 0 {
		logger.Warn("bootstrap corrected derived state", "count", fixed)
	}
	if err := m.Verify(); err != nil {
		return err
	}
	logger.Info("bootstrap completed", "blocks", replayed, "height", m.Tip().Height)
	return nil
}

// Reconcile rebuilds stakes from the journal, vote balances from voters and
// the scheduler from the stakes. It returns how many stakes and delegates
// were corrected.
func (m *Manager) Reconcile() (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	stakes, err := m.db.ledger.Stakes.Rebuild()
	if err != nil {
		return 0, err
	}
	votes := m.db.ledger.Votes.Reconcile()
	if err := m.db.scheduler.Reset(m.db.expiryEntries()); err != nil {
		return 0, err
	}
	m.resyncPool()
	if stakes+votes > 0 {
		logger.Warn("reconciled ledger", "stakes", stakes, "votes", votes)
	}
	return stakes + votes, nil
}

// Verify checks that every vote balance matches its voters and that the
// scheduler tracks exactly the live stakes.
func (m *Manager) Verify() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.db.ledger.Votes.Verify(); err != nil {
		return err
	}
	var problems []string
	want := m.db.expiryEntries()
	for _, e := range want {
		got, ok := m.db.scheduler.Get(e.StakeID)
		switch {
		case !ok:
			problems = append(problems, "untracked stake "+e.StakeID.String())
		case got != e:
			problems = append(problems, "stale schedule of "+e.StakeID.String())
		}
	}
	if n := m.db.scheduler.Len(); n != len(want) {
		problems = append(problems, "scheduler tracks "+strconv.Itoa(n)+" stakes, want "+strconv.Itoa(len(want)))
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return reverts.Fatal("expiry schedule mismatch: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Commit persists the db replica. The scheduler persists synchronously.
func (m *Manager) Commit() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.wallets.Save(m.db.ledger.Wallets, m.height); err != nil {
		return err
	}
	if err := m.db.journal.Save(m.store); err != nil {
		return errors.Wrap(err, "save journal")
	}
	if err := m.db.undo.Save(m.store); err != nil {
		return errors.Wrap(err, "save reward undo log")
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], m.timestamp)
	if err := metaBucket.Put(m.store, timestampKey, ts[:]); err != nil {
		return errors.Wrap(err, "save tip timestamp")
	}
	logger.Debug("committed ledger", "height", m.height, "wallets", m.db.ledger.Wallets.Len())
	return nil
}
