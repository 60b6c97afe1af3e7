// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/log"
	"github.com/dposledger/ledger/metrics"
	"github.com/dposledger/ledger/milestone"
	"github.com/dposledger/ledger/staking/aggregation"
	"github.com/dposledger/ledger/staking/expiry"
	"github.com/dposledger/ledger/staking/journal"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/staking/stake"
	"github.com/dposledger/ledger/wallet"
)

var (
	logger           = log.WithContext("pkg", "staking")
	metricTransition = metrics.LazyLoadCounterVec("stake_transition_count", []string{"kind", "direction"})
)

// Listener is told about every stake change, forward or reverted.
type Listener interface {
	Sync(addr ledger.Address, id ledger.TxID, s *stake.Stake) error
}

// Hook observes applied stake mutations.
type Hook func(e journal.Entry, w *wallet.Wallet, s *stake.Stake)

// Origin describes what caused a mutation.
type Origin struct {
	Height    uint32
	Timestamp uint64 // block timestamp
	TxID      ledger.TxID
	Source    journal.Source
}

// Engine applies stake lifecycle operations to one wallet replica.
// Balance and stake power changes of every transition are routed through
// the aggregation service so delegate vote balances follow them.
type Engine struct {
	repo     *wallet.Repository
	agg      *aggregation.Service
	journal  *journal.Journal
	listener Listener
	hook     Hook
}

// New creates an engine.
func New(repo *wallet.Repository, agg *aggregation.Service, j *journal.Journal, listener Listener) *Engine {
	return &Engine{
		repo:     repo,
		agg:      agg,
		journal:  j,
		listener: listener,
	}
}

// SetHook installs the observer of applied mutations.
func (e *Engine) SetHook(h Hook) {
	e.hook = h
}

// Journal returns the mutation journal.
func (e *Engine) Journal() *journal.Journal {
	return e.journal
}

// commit replaces before with after in w and pushes the locked amount and
// counted power deltas through the aggregator. A nil after removes the stake.
func (e *Engine) commit(w *wallet.Wallet, id ledger.TxID, before, after *stake.Stake) error {
	balanceDelta := before.LockedAmount().Sub(after.LockedAmount())
	powerDelta := after.Contribution().Sub(before.Contribution())

	if err := e.agg.AdjustBalance(w, balanceDelta); err != nil {
		return err
	}
	if err := e.agg.AdjustStakePower(w, powerDelta); err != nil {
		return err
	}
	if after == nil {
		w.RemoveStake(id)
	} else {
		w.SetStake(after)
	}
	if e.listener != nil {
		return e.listener.Sync(w.Address, id, after)
	}
	return nil
}

func (e *Engine) record(w *wallet.Wallet, s *stake.Stake, entry journal.Entry, o Origin) {
	entry.StakeID = s.ID
	entry.Address = w.Address
	entry.Height = o.Height
	entry.Source = o.Source
	entry.TxID = o.TxID
	entry = e.journal.Append(entry)

	metricTransition().AddWithLabel(1, map[string]string{"kind": entry.Kind.String(), "direction": "apply"})
	logger.Trace("stake transition", "entry", &entry, "stake", s)
	if e.hook != nil {
		e.hook(entry, w, s)
	}
}

// transition runs fn on a copy of the stake and commits the copy when fn
// reports the move was legal.
func (e *Engine) transition(w *wallet.Wallet, id ledger.TxID, o Origin, entry journal.Entry, fn func(*stake.Stake) bool) (*stake.Stake, bool, error) {
	cur, ok := w.Stake(id)
	if !ok {
		return nil, false, reverts.New(reverts.StakeNotFound, "stake %v not found", id)
	}
	next := cur.Clone()
	if !fn(next) {
		return cur, false, nil
	}
	if err := e.commit(w, id, cur, next); err != nil {
		return nil, false, err
	}
	e.record(w, next, entry, o)
	return next, true, nil
}

// CreateParams are the inputs of a stake creation.
type CreateParams struct {
	ID        ledger.TxID
	Amount    bn.Int
	Fee       bn.Int
	Duration  uint64
	Timestamp uint64 // declared creation time
}

// Create locks amount into a new pending stake.
func (e *Engine) Create(w *wallet.Wallet, p CreateParams, o Origin, m *milestone.Milestone) (*stake.Stake, error) {
	if err := e.CanCreate(w, p, o.Timestamp, m); err != nil {
		return nil, err
	}
	mult, _ := m.Multiplier(p.Duration)
	s := stake.New(p.ID, p.Amount, p.Duration, mult, p.Timestamp, m.PowerUpTime)
	if err := e.commit(w, p.ID, nil, s); err != nil {
		return nil, err
	}
	e.record(w, s, journal.Entry{
		Kind:         journal.Created,
		Amount:       p.Amount,
		Duration:     p.Duration,
		Multiplier:   mult,
		Timestamp:    p.Timestamp,
		PowerUpDelay: m.PowerUpTime,
	}, o)
	return s, nil
}

// Cancel refunds a pending or active stake.
func (e *Engine) Cancel(w *wallet.Wallet, id ledger.TxID, o Origin) (*stake.Stake, error) {
	if err := e.CanCancel(w, id); err != nil {
		return nil, err
	}
	s, ok, err := e.transition(w, id, o, journal.Entry{Kind: journal.Canceled}, (*stake.Stake).Cancel)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reverts.Fatal("cancel of %v rejected in status %v", id, s.Status)
	}
	return s, nil
}

// Extend moves a pending or active stake to a longer tier.
func (e *Engine) Extend(w *wallet.Wallet, id ledger.TxID, duration uint64, o Origin, m *milestone.Milestone) (*stake.Stake, error) {
	if err := e.CanExtend(w, id, duration, m); err != nil {
		return nil, err
	}
	mult, _ := m.Multiplier(duration)
	entry := journal.Entry{Kind: journal.Extended, Duration: duration, Multiplier: mult}
	s, ok, err := e.transition(w, id, o, entry, func(s *stake.Stake) bool {
		return s.Extend(duration, mult)
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reverts.Fatal("extend of %v rejected in status %v", id, s.Status)
	}
	return s, nil
}

// RequestRedeem starts the redeem delay of a released stake.
func (e *Engine) RequestRedeem(w *wallet.Wallet, id ledger.TxID, o Origin, m *milestone.Milestone) (*stake.Stake, error) {
	if err := e.CanRequestRedeem(w, id); err != nil {
		return nil, err
	}
	entry := journal.Entry{Kind: journal.RedeemRequested, Timestamp: o.Timestamp, RedeemDelay: m.RedeemTime}
	s, ok, err := e.transition(w, id, o, entry, func(s *stake.Stake) bool {
		return s.RequestRedeem(o.Timestamp, m.RedeemTime)
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reverts.Fatal("redeem request of %v rejected in status %v", id, s.Status)
	}
	return s, nil
}

// PowerUp activates a pending stake. It reports false, leaving the stake
// untouched, when the stake already moved on.
func (e *Engine) PowerUp(w *wallet.Wallet, id ledger.TxID, o Origin) (bool, error) {
	_, ok, err := e.transition(w, id, o, journal.Entry{Kind: journal.PoweredUp}, (*stake.Stake).PowerUp)
	return ok, err
}

// Release releases an active stake and halves its power once.
func (e *Engine) Release(w *wallet.Wallet, id ledger.TxID, o Origin) (bool, error) {
	_, ok, err := e.transition(w, id, o, journal.Entry{Kind: journal.Released}, (*stake.Stake).Release)
	return ok, err
}

// CompleteRedeem unlocks a redeeming stake.
func (e *Engine) CompleteRedeem(w *wallet.Wallet, id ledger.TxID, o Origin) (bool, error) {
	_, ok, err := e.transition(w, id, o, journal.Entry{Kind: journal.Redeemed}, (*stake.Stake).CompleteRedeem)
	return ok, err
}

// Fire applies a due scheduler event. Events whose stake already moved on
// are ignored.
func (e *Engine) Fire(ev expiry.Event, height uint32, ts uint64) (bool, error) {
	w := e.repo.FindByAddress(ev.Address)
	if _, ok := w.Stake(ev.StakeID); !ok {
		return false, nil
	}
	o := Origin{Height: height, Timestamp: ts, Source: journal.SourceScheduler}
	switch ev.Kind {
	case stake.EventPowerUp:
		return e.PowerUp(w, ev.StakeID, o)
	case stake.EventRelease:
		return e.Release(w, ev.StakeID, o)
	case stake.EventRedeem:
		return e.CompleteRedeem(w, ev.StakeID, o)
	}
	return false, reverts.Fatal("unknown stake event %v", ev.Kind)
}

// Revert undoes the newest mutation of a stake, which must be of the given
// kind. The previous record is rebuilt by replaying the journal.
func (e *Engine) Revert(w *wallet.Wallet, id ledger.TxID, kind journal.Kind) error {
	cur, ok := w.Stake(id)
	if !ok {
		return reverts.Fatal("revert %v of unknown stake %v", kind, id)
	}
	if _, err := e.journal.Pop(id, kind); err != nil {
		return err
	}
	prev, err := e.journal.Replay(id)
	if err != nil {
		return err
	}
	if prev == nil && kind != journal.Created {
		return reverts.Fatal("stake %v has no history left after reverting %v", id, kind)
	}
	if err := e.commit(w, id, cur, prev); err != nil {
		return err
	}
	metricTransition().AddWithLabel(1, map[string]string{"kind": kind.String(), "direction": "revert"})
	logger.Trace("stake transition reverted", "id", id, "kind", kind)
	return nil
}

// RevertScheduled reverts the scheduler driven mutations applied at height,
// newest first, and returns how many were reverted.
func (e *Engine) RevertScheduled(height uint32) (int, error) {
	entries := e.journal.SchedulerEntries(height)
	for _, entry := range entries {
		w := e.repo.FindByAddress(entry.Address)
		if err := e.Revert(w, entry.StakeID, entry.Kind); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// Rebuild replaces every stake of the repository with its journal replay,
// recomputing stake power and locked balance, and resyncs the listener.
// It reports the number of stakes whose live record differed.
func (e *Engine) Rebuild() (int, error) {
	fixed := 0
	for _, w := range e.repo.All() {
		for _, cur := range w.SortedStakes() {
			replayed, err := e.journal.Replay(cur.ID)
			if err != nil {
				return fixed, err
			}
			if replayed == nil {
				return fixed, reverts.Fatal("stake %v of %v has no journal", cur.ID, w.Address)
			}
			if !replayed.Equal(cur) {
				if err := e.commit(w, cur.ID, cur, replayed); err != nil {
					return fixed, err
				}
				fixed++
				continue
			}
			if e.listener != nil {
				if err := e.listener.Sync(w.Address, cur.ID, cur); err != nil {
					return fixed, err
				}
			}
		}
	}
	return fixed, nil
}
