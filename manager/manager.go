// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package manager

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/dposledger/ledger/block"
	"github.com/dposledger/ledger/events"
	"github.com/dposledger/ledger/handlers"
	"github.com/dposledger/ledger/kv"
	"github.com/dposledger/ledger/log"
	"github.com/dposledger/ledger/milestone"
	"github.com/dposledger/ledger/rewards"
	"github.com/dposledger/ledger/round"
	"github.com/dposledger/ledger/staking/expiry"
	"github.com/dposledger/ledger/staking/journal"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/staking/stake"
	"github.com/dposledger/ledger/tx"
	"github.com/dposledger/ledger/wallet"
)

var logger = log.WithContext("pkg", "manager")

var (
	metaBucket   = kv.Bucket("mm/")
	timestampKey = []byte("tip-timestamp")
)

var stakeEventNames = map[journal.Kind]events.Name{
	journal.Created:         events.StakeCreated,
	journal.PoweredUp:       events.StakePoweredUp,
	journal.Released:        events.StakeReleased,
	journal.Extended:        events.StakeExtended,
	journal.RedeemRequested: events.StakeRedeemRequested,
	journal.Redeemed:        events.StakeRedeemed,
	journal.Canceled:        events.StakeCanceled,
}

// Options tunes a manager.
type Options struct {
	SelfCheck         bool // verify every vote balance after each block
	SnapshotCacheSize int
	WalletCacheMB     int
}

// Tip describes the last applied block.
type Tip struct {
	Height    uint32    `json:"height"`
	Timestamp uint64    `json:"timestamp"`
	AppliedAt time.Time `json:"appliedAt"`
	Pending   int       `json:"pending"`
}

// Manager applies and reverts blocks on the ledger and keeps the pool
// replica in step with it.
type Manager struct {
	lock sync.Mutex

	store      kv.Store
	wallets    *wallet.Store
	milestones *milestone.Set
	rounds     *round.Calculator
	snapshots  *round.Store
	registry   *handlers.Registry
	bus        *events.Bus
	opts       Options

	db      *replica
	pool    *replica
	pending []*tx.Transaction

	height    uint32
	timestamp uint64
	appliedAt time.Time
	buffer    events.Buffer
}

// New loads the persisted ledger from store. The scheduler is rebuilt from
// the loaded stakes, so it may hold rows of an uncommitted future.
func New(store kv.Store, scheduler *expiry.Scheduler, ms *milestone.Set, bus *events.Bus, opts Options) (*Manager, error) {
	rounds, err := round.NewCalculator(ms)
	if err != nil {
		return nil, err
	}
	if opts.SnapshotCacheSize <= 0 {
		opts.SnapshotCacheSize = 16
	}
	snapshots, err := round.NewStore(store, opts.SnapshotCacheSize)
	if err != nil {
		return nil, err
	}
	if opts.WalletCacheMB <= 0 {
		opts.WalletCacheMB = 16
	}
	wallets := wallet.NewStore(store, opts.WalletCacheMB)
	repo, height, err := wallets.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load wallets")
	}
	j, err := journal.Load(store)
	if err != nil {
		return nil, errors.Wrap(err, "load journal")
	}
	undo, err := rewards.LoadUndo(store)
	if err != nil {
		return nil, errors.Wrap(err, "load reward undo log")
	}
	ts, err := loadTimestamp(store)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:      store,
		wallets:    wallets,
		milestones: ms,
		rounds:     rounds,
		snapshots:  snapshots,
		registry:   handlers.Default(),
		bus:        bus,
		opts:       opts,
		db:         newReplica("db", repo, j, undo, scheduler, ms.BalanceVoteWeight()),
		height:     height,
		timestamp:  ts,
	}
	if err := m.db.scheduler.Reset(m.db.expiryEntries()); err != nil {
		return nil, err
	}
	if err := m.rewindPolls(); err != nil {
		return nil, err
	}
	m.db.ledger.Stakes.SetHook(m.onStake)
	m.pool = m.db.clone("pool")
	metricTipHeight().Set(int64(height))
	logger.Info("ledger loaded", "height", height, "wallets", repo.Len(), "journal", j.Len(), "scheduled", scheduler.Len())
	return m, nil
}

func loadTimestamp(store kv.Store) (uint64, error) {
	v, err := metaBucket.Get(store, timestampKey)
	if err != nil {
		if store.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "read tip timestamp")
	}
	return binary.BigEndian.Uint64(v), nil
}

// rewindPolls drops scheduler polls recorded past the loaded height.
func (m *Manager) rewindPolls() error {
	for {
		last, ok, err := m.db.scheduler.LastPoll()
		if err != nil {
			return err
		}
		if !ok || last.Height <= m.height {
			return nil
		}
		logger.Warn("dropping uncommitted expiry poll", "height", last.Height, "tip", m.height)
		if err := m.db.scheduler.Rewind(last.Height); err != nil {
			return err
		}
	}
}

// Registry returns the transaction handlers.
func (m *Manager) Registry() *handlers.Registry {
	return m.registry
}

// Tip returns the last applied block.
func (m *Manager) Tip() Tip {
	m.lock.Lock()
	defer m.lock.Unlock()
	return Tip{Height: m.height, Timestamp: m.timestamp, AppliedAt: m.appliedAt, Pending: len(m.pending)}
}

// Wallets returns the confirmed wallet repository. Callers must not mutate it.
func (m *Manager) Wallets() *wallet.Repository {
	return m.db.ledger.Wallets
}

// PoolWallets returns the wallet repository including pending transactions.
func (m *Manager) PoolWallets() *wallet.Repository {
	return m.pool.ledger.Wallets
}

// Snapshot returns the delegate snapshot of the round containing height.
func (m *Manager) Snapshot(height uint32) (*round.Snapshot, bool, error) {
	return m.snapshots.Get(m.rounds.Calculate(height).Round)
}

func (m *Manager) onStake(e journal.Entry, w *wallet.Wallet, s *stake.Stake) {
	if name, ok := stakeEventNames[e.Kind]; ok {
		m.buffer.Add(events.ForStake(name, e.Height, w.Address, s))
	}
}

// applyToAllReplicas runs fn on the db replica then the pool replica.
func (m *Manager) applyToAllReplicas(fn func(r *replica) error) error {
	for _, r := range []*replica{m.db, m.pool} {
		if err := fn(r); err != nil {
			return errors.WithMessage(err, r.name)
		}
	}
	return nil
}

// roundSnapshot returns the snapshot of the round of height, taking it
// when height opens the round.
func (m *Manager) roundSnapshot(height uint32) (snap *round.Snapshot, created bool, err error) {
	info := m.rounds.Calculate(height)
	if m.rounds.IsNewRound(height) {
		snap = round.Build(info, m.db.ledger.Wallets)
		if err := m.snapshots.Save(snap); err != nil {
			return nil, false, err
		}
		if err := m.applyToAllReplicas(func(r *replica) error {
			round.ApplyRanks(snap, r.ledger.Wallets)
			return nil
		}); err != nil {
			return nil, false, err
		}
		logger.Debug("new round", "round", info, "active", len(snap.Active))
		return snap, true, nil
	}
	snap, ok, err := m.snapshots.Get(info.Round)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		logger.Warn("missing round snapshot, taking it now", "round", info)
		snap = round.Build(info, m.db.ledger.Wallets)
		if err := m.snapshots.Save(snap); err != nil {
			return nil, false, err
		}
	}
	return snap, false, nil
}

// dropSnapshot deletes the snapshot opened at height and restores the ranks
// of the previous round.
func (m *Manager) dropSnapshot(height uint32) error {
	info := m.rounds.Calculate(height)
	if err := m.snapshots.Delete(info.Round); err != nil {
		return err
	}
	var prev *round.Snapshot
	if info.Round > 1 {
		snap, ok, err := m.snapshots.Get(info.Round - 1)
		if err != nil {
			return err
		}
		if ok {
			prev = snap
		}
	}
	return m.applyToAllReplicas(func(r *replica) error {
		round.ApplyRanks(prev, r.ledger.Wallets)
		return nil
	})
}

// ApplyBlock applies b on top of the tip. Transactions are all or nothing:
// a rejected transaction rolls the block back and returns its error. Fatal
// errors leave the ledger inconsistent and must halt processing.
func (m *Manager) ApplyBlock(b *block.Block) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	start := time.Now()
	res, err := m.applyBlock(b)
	if err != nil {
		m.buffer.Reset()
		return err
	}
	if len(res.TopPayouts) > 0 {
		ev := events.New(events.TopDelegatesRewarded, b.Height)
		ev.BlockID = b.ID()
		ev.Payouts = res.TopPayouts
		m.buffer.Add(ev)
	}
	applied := events.New(events.BlockApplied, b.Height)
	applied.BlockID = b.ID()
	m.buffer.Add(applied)
	m.buffer.Flush(m.bus)

	m.appliedAt = time.Now()
	metricApplyDuration().Observe(time.Since(start).Milliseconds())
	metricBlocks().AddWithLabel(1, map[string]string{"direction": "apply"})
	metricTipHeight().Set(int64(b.Height))
	logger.Debug("applied block", "block", b, "elapsed", time.Since(start))
	return nil
}

func (m *Manager) applyBlock(b *block.Block) (*rewards.Result, error) {
	if b.Height != m.height+1 {
		return nil, errors.Wrapf(errHeightMismatch, "block #%d on tip #%d", b.Height, m.height)
	}
	ms := m.milestones.At(b.Height)
	if _, err := rewards.Validate(b, ms); err != nil {
		return nil, err
	}

	snap, created, err := m.roundSnapshot(b.Height)
	if err != nil {
		return nil, err
	}
	ctx := &handlers.Context{Height: b.Height, Timestamp: b.Timestamp, Milestone: ms}
	if err := m.applyTransactions(ctx, b.Transactions); err != nil {
		if created {
			if derr := m.dropSnapshot(b.Height); derr != nil {
				return nil, errors.WithMessage(derr, err.Error())
			}
		}
		return nil, err
	}
	resync := m.confirmPending(ctx, b.Transactions)

	var res *rewards.Result
	if err := m.applyToAllReplicas(func(r *replica) error {
		out, err := r.settlement.Apply(b, ms, snap)
		if r == m.db {
			res = out
		}
		return err
	}); err != nil {
		return nil, err
	}

	if m.rounds.IsNewRound(b.Height) || ms.PollEveryBlock() {
		n, err := m.db.scheduler.Advance(b.Height, b.Timestamp, func(ev expiry.Event) error {
			return m.applyToAllReplicas(func(r *replica) error {
				_, err := r.ledger.Stakes.Fire(ev, b.Height, b.Timestamp)
				return err
			})
		})
		if err != nil {
			return nil, err
		}
		if n > 0 {
			logger.Debug("stake events fired", "height", b.Height, "count", n)
		}
	}

	if m.opts.SelfCheck {
		if err := m.db.ledger.Votes.Verify(); err != nil {
			return nil, errors.WithMessagef(err, "self check at #%d", b.Height)
		}
	}
	m.height, m.timestamp = b.Height, b.Timestamp
	if resync {
		m.resyncPool()
	}
	return res, nil
}

// applyTransactions applies txs to the db replica, reverting the applied
// prefix when one is rejected.
func (m *Manager) applyTransactions(ctx *handlers.Context, txs tx.Transactions) error {
	for i, t := range txs {
		err := m.registry.Apply(m.db.ledger, ctx, t)
		if err == nil {
			continue
		}
		if reason, ok := reverts.ReasonOf(err); ok {
			metricRejectedTxs().AddWithLabel(1, map[string]string{"reason": string(reason)})
		}
		for j := i - 1; j >= 0; j-- {
			if rerr := m.registry.Revert(m.db.ledger, ctx, txs[j]); rerr != nil {
				return errors.WithMessagef(rerr, "roll back %v after %v", txs[j].ID, err)
			}
		}
		return errors.WithMessagef(err, "block #%d tx %v", ctx.Height, t.ID)
	}
	return nil
}

// confirmPending removes the confirmed transactions from the pending list
// and applies the others to the pool replica. It reports whether the pool
// diverged and must be rebuilt.
//
// A confirmed pending transaction was applied to the pool under the tip's
// timestamp, not the block's, so confirming one always rebuilds the pool.
func (m *Manager) confirmPending(ctx *handlers.Context, txs tx.Transactions) bool {
	diverged := false
	for _, t := range txs {
		if i := m.pendingIndex(t.ID); i >= 0 {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			diverged = true
			continue
		}
		if diverged {
			continue
		}
		if err := m.registry.Apply(m.pool.ledger, ctx, t); err != nil {
			logger.Debug("pool conflicts with block", "height", ctx.Height, "tx", t.ID, "err", err)
			diverged = true
		}
	}
	if diverged {
		// the pool replica is rebuilt once the block is complete
		m.pool = m.db.clone("pool")
	}
	return diverged
}

// RevertBlock undoes b, which must be the tip, in the exact inverse order
// of ApplyBlock. The pool replica is rebuilt from the db replica.
func (m *Manager) RevertBlock(b *block.Block) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.revertBlock(b); err != nil {
		return err
	}
	ev := events.New(events.BlockReverted, b.Height)
	ev.BlockID = b.ID()
	if m.bus != nil {
		m.bus.Publish(ev)
	}
	metricBlocks().AddWithLabel(1, map[string]string{"direction": "revert"})
	metricTipHeight().Set(int64(m.height))
	logger.Debug("reverted block", "block", b)
	return nil
}

func (m *Manager) revertBlock(b *block.Block) error {
	if m.height == 0 || b.Height != m.height {
		return errors.Wrapf(errHeightMismatch, "revert #%d on tip #%d", b.Height, m.height)
	}
	ms := m.milestones.At(b.Height)
	snap, _, err := m.snapshots.Get(m.rounds.Calculate(b.Height).Round)
	if err != nil {
		return err
	}
	ctx := &handlers.Context{Height: b.Height, Timestamp: b.Timestamp, Milestone: ms}

	if n, err := m.db.ledger.Stakes.RevertScheduled(b.Height); err != nil {
		return err
	} else if n > 0 {
		logger.Debug("stake events reverted", "height", b.Height, "count", n)
	}
	if err := m.db.scheduler.Rewind(b.Height); err != nil {
		return err
	}
	if _, err := m.db.settlement.Revert(b, ms, snap); err != nil {
		return err
	}
	for i := len(b.Transactions) - 1; i >= 0; i-- {
		t := b.Transactions[i]
		if err := m.registry.Revert(m.db.ledger, ctx, t); err != nil {
			return errors.WithMessagef(err, "revert tx %v of block #%d", t.ID, b.Height)
		}
	}
	if m.rounds.IsNewRound(b.Height) {
		if err := m.dropSnapshot(b.Height); err != nil {
			return err
		}
	}
	m.height = b.Height - 1
	m.resyncPool()
	return nil
}
