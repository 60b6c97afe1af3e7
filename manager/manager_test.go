// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package manager

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposledger/ledger/block"
	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/events"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/lvldb"
	"github.com/dposledger/ledger/milestone"
	"github.com/dposledger/ledger/rewards"
	"github.com/dposledger/ledger/staking/expiry"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/staking/stake"
	"github.com/dposledger/ledger/tx"
	"github.com/dposledger/ledger/wallet"
)

const now = uint64(1704067200)

var (
	delegates = keys("delegate", 6)
	voters    = keys("voter", 6)
	fee       = bn.FromUint64(10_000_000)
)

func keys(prefix string, n int) []ledger.PublicKey {
	out := make([]ledger.PublicKey, n)
	for i := range out {
		out[i] = ledger.PublicKeyFromSecret(fmt.Appendf(nil, "%s-%d", prefix, i))
	}
	return out
}

// testGenesis registers six delegates. voter i votes for delegate i with
// (i+1)*10k coins, so delegate 5 ranks first and delegate 0 last.
func testGenesis() *Genesis {
	var g Genesis
	for i, d := range delegates {
		g.Allocations = append(g.Allocations, Allocation{
			PublicKey: d,
			Balance:   ledger.Coins(1_000),
			Username:  fmt.Sprintf("delegate%d", i),
		})
	}
	for i, v := range voters {
		vote := delegates[i]
		g.Allocations = append(g.Allocations, Allocation{
			PublicKey: v,
			Balance:   ledger.Coins(uint64(10_000 * (i + 1))),
			Vote:      &vote,
		})
	}
	return &g
}

type fixture struct {
	m      *Manager
	db     *lvldb.LevelDB
	ms     *milestone.Set
	bus    *events.Bus
	events chan *events.Event
	height uint32
	ts     uint64
	nonces map[ledger.PublicKey]uint64
}

func newTestManager(t *testing.T) *fixture {
	scheduler, err := expiry.New(expiry.NewMemStore())
	require.NoError(t, err)
	return newTestManagerWith(t, milestone.Devnet(), scheduler)
}

func newTestManagerWith(t *testing.T, ms *milestone.Set, scheduler *expiry.Scheduler) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	bus := events.NewBus()
	ch := make(chan *events.Event, 4096)
	bus.Subscribe(ch)
	t.Cleanup(bus.Close)

	m, err := New(db, scheduler, ms, bus, Options{SelfCheck: true})
	require.NoError(t, err)
	require.NoError(t, m.Seed(testGenesis()))
	return &fixture{
		m:      m,
		db:     db,
		ms:     ms,
		bus:    bus,
		events: ch,
		ts:     now,
		nonces: make(map[ledger.PublicKey]uint64),
	}
}

func (f *fixture) tx(typ tx.Type, sender ledger.PublicKey) *tx.Builder {
	f.nonces[sender]++
	return tx.NewBuilder(typ).Sender(sender).Nonce(f.nonces[sender]).Fee(fee).Timestamp(f.ts)
}

// stakeTx creates a stake timestamped for a block 10 seconds after the tip.
func (f *fixture) stakeTx(sender ledger.PublicKey, coins, duration uint64) *tx.Transaction {
	return f.tx(tx.TypeStakeCreate, sender).StakeCreate(ledger.Coins(coins), duration, f.ts+10).Build()
}

func (f *fixture) transfer(from, to ledger.PublicKey, coins uint64) *tx.Transaction {
	return f.tx(tx.TypeTransfer, from).Recipient(to.Address()).Amount(ledger.Coins(coins)).Build()
}

func (f *fixture) block(step uint64, txs ...*tx.Transaction) *block.Block {
	ms := f.ms.At(f.height + 1)
	b := block.NewBuilder(f.height+1).
		Timestamp(f.ts+step).
		Generator(delegates[0]).
		Reward(ms.Reward, ms.TopReward)
	for _, t := range txs {
		b.Transaction(t)
	}
	return b.Build()
}

func (f *fixture) apply(t *testing.T, b *block.Block) {
	require.NoError(t, f.m.ApplyBlock(b))
	f.height, f.ts = b.Height, b.Timestamp
}

func (f *fixture) wallet(pk ledger.PublicKey) *wallet.Wallet {
	return f.m.Wallets().FindByPublicKey(pk)
}

func (f *fixture) status(t *testing.T, owner ledger.PublicKey, id ledger.TxID) stake.Status {
	s, ok := f.wallet(owner).Stake(id)
	require.True(t, ok, "stake %v", id)
	return s.Status
}

func (f *fixture) drain() map[events.Name]int {
	out := make(map[events.Name]int)
	for {
		select {
		case ev := <-f.events:
			out[ev.Name]++
		default:
			return out
		}
	}
}

func TestApplyRevertRoundTrip(t *testing.T) {
	f := newTestManager(t)
	f.drain()

	var blocks []*block.Block
	var dumps []string
	step := func(b *block.Block) {
		dumps = append(dumps, wallet.DumpAll(f.m.Wallets()))
		blocks = append(blocks, b)
		f.apply(t, b)
		require.NoError(t, f.m.Verify())
	}

	stakeA := f.stakeTx(voters[0], 1_000, milestone.ThreeMonths)
	step(f.block(10, f.transfer(voters[0], voters[1], 5), stakeA))
	step(f.block(100))
	assert.Equal(t, stake.Active, f.status(t, voters[0], stakeA.ID))
	step(f.block(milestone.ThreeMonths))
	assert.Equal(t, stake.Released, f.status(t, voters[0], stakeA.ID))
	step(f.block(10, f.tx(tx.TypeStakeRedeem, voters[0]).StakeRedeem(stakeA.ID).Build()))
	assert.Equal(t, stake.Redeeming, f.status(t, voters[0], stakeA.ID))
	step(f.block(400))
	assert.Equal(t, stake.Redeemed, f.status(t, voters[0], stakeA.ID))

	stakeB := f.stakeTx(voters[3], 500, milestone.TwoYears)
	step(f.block(10, f.tx(tx.TypeVote, voters[2]).Unvote(delegates[2]).Vote(delegates[3]).Build(), stakeB))
	step(f.block(10, f.tx(tx.TypeStakeCancel, voters[3]).StakeCancel(stakeB.ID).Build()))

	stakeC := f.stakeTx(voters[4], 100, milestone.OneYear)
	step(f.block(10, stakeC))
	step(f.block(100))
	step(f.block(10, f.tx(tx.TypeStakeExtend, voters[4]).StakeExtend(stakeC.ID, milestone.TwoYears).Build()))

	assert.Equal(t, uint32(10), f.m.Tip().Height)
	assert.Equal(t, uint32(10), f.wallet(delegates[0]).Delegate.ProducedBlocks)
	assert.Equal(t, map[events.Name]int{
		events.StakeCreated:         3,
		events.StakePoweredUp:       2,
		events.StakeReleased:        1,
		events.StakeRedeemRequested: 1,
		events.StakeRedeemed:        1,
		events.StakeCanceled:        1,
		events.StakeExtended:        1,
		events.TopDelegatesRewarded: 10,
		events.BlockApplied:         10,
	}, f.drain())

	for i := len(blocks) - 1; i >= 0; i-- {
		require.NoError(t, f.m.RevertBlock(blocks[i]), "revert #%d", blocks[i].Height)
		require.NoError(t, f.m.Verify())
		assert.Empty(t, wallet.Diff(dumps[i], wallet.DumpAll(f.m.Wallets())), "state after reverting #%d", blocks[i].Height)
	}
	assert.Equal(t, uint32(0), f.m.Tip().Height)
	assert.Equal(t, map[events.Name]int{events.BlockReverted: 10}, f.drain())
	_, ok, err := f.m.Snapshot(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailedBlockRollsBack(t *testing.T) {
	f := newTestManager(t)
	before := wallet.DumpAll(f.m.Wallets())
	f.drain()

	b := f.block(10,
		f.transfer(voters[1], voters[2], 5),
		f.stakeTx(voters[1], 1_000, milestone.OneYear),
		f.transfer(voters[0], voters[1], 1_000_000),
	)
	err := f.m.ApplyBlock(b)
	require.Error(t, err)
	assert.True(t, reverts.Is(err, reverts.InsufficientBalance))
	assert.False(t, reverts.IsFatal(err))

	assert.Equal(t, uint32(0), f.m.Tip().Height)
	assert.Empty(t, wallet.Diff(before, wallet.DumpAll(f.m.Wallets())))
	assert.Empty(t, f.drain())
	_, ok, err := f.m.Snapshot(1)
	require.NoError(t, err)
	assert.False(t, ok, "snapshot of the rejected block must be dropped")
	require.NoError(t, f.m.Verify())
}

func TestHeightContinuity(t *testing.T) {
	f := newTestManager(t)

	f.height = 1
	err := f.m.ApplyBlock(f.block(10))
	assert.True(t, IsErrHeightMismatch(err))

	f.height = 0
	b := f.block(10)
	assert.True(t, IsErrHeightMismatch(f.m.RevertBlock(b)))
	f.apply(t, b)
	assert.True(t, IsErrHeightMismatch(f.m.RevertBlock(f.block(10))))
}

func TestFeeMismatch(t *testing.T) {
	f := newTestManager(t)

	b := f.block(10, f.transfer(voters[0], voters[1], 1))
	b.TotalFee = b.TotalFee.Add(bn.FromUint64(1))
	err := f.m.ApplyBlock(b)
	assert.Equal(t, rewards.ErrFeeMismatch, errors.Cause(err))
	assert.Equal(t, uint32(0), f.m.Tip().Height)
}

func TestTopDelegateRewards(t *testing.T) {
	f := newTestManager(t)
	f.drain()
	f.apply(t, f.block(10))

	share := bn.FromUint64(3_000_000)
	for i := 1; i < len(delegates); i++ {
		d := f.wallet(delegates[i])
		assert.Equal(t, 0, share.Cmp(d.Delegate.ForgedTopRewards), d.Delegate.Username)
		assert.Equal(t, uint32(len(delegates)-i), d.Delegate.Rank, d.Delegate.Username)
	}
	forger := f.wallet(delegates[0])
	assert.True(t, forger.Delegate.ForgedTopRewards.IsZero(), "rank 6 gets no bonus")
	assert.Equal(t, uint32(6), forger.Delegate.Rank)
	assert.Equal(t, uint32(1), forger.Delegate.LastBlockHeight)
	assert.Equal(t, 0, ledger.Coins(1_002).Cmp(forger.Balance))

	var payouts []rewards.Payout
	for len(f.events) > 0 {
		if ev := <-f.events; ev.Name == events.TopDelegatesRewarded {
			payouts = ev.Payouts
		}
	}
	assert.Len(t, payouts, 5)
}

func TestCommitReload(t *testing.T) {
	f := newTestManager(t)
	stakeA := f.stakeTx(voters[0], 1_000, milestone.ThreeMonths)
	f.apply(t, f.block(10, stakeA))
	f.apply(t, f.block(10))
	require.NoError(t, f.m.Commit())
	before := wallet.DumpAll(f.m.Wallets())

	scheduler, err := expiry.New(expiry.NewMemStore())
	require.NoError(t, err)
	m, err := New(f.db, scheduler, f.ms, nil, Options{SelfCheck: true})
	require.NoError(t, err)
	assert.Equal(t, f.m.Tip().Height, m.Tip().Height)
	assert.Equal(t, f.m.Tip().Timestamp, m.Tip().Timestamp)
	assert.Empty(t, wallet.Diff(before, wallet.DumpAll(m.Wallets())))
	assert.Equal(t, 1, scheduler.Len())
	require.NoError(t, m.Verify())

	assert.True(t, IsErrNotEmpty(m.Seed(testGenesis())))

	// the reloaded scheduler powers the stake up
	f.m = m
	f.apply(t, f.block(100))
	assert.Equal(t, stake.Active, f.status(t, voters[0], stakeA.ID))
}

type sliceSource []*block.Block

func (s *sliceSource) Next() (*block.Block, error) {
	if len(*s) == 0 {
		return nil, io.EOF
	}
	b := (*s)[0]
	*s = (*s)[1:]
	return b, nil
}

func TestBootstrap(t *testing.T) {
	f := newTestManager(t)
	stakeA := f.stakeTx(voters[0], 1_000, milestone.ThreeMonths)
	src := sliceSource{
		f.block(10, stakeA, f.transfer(voters[1], voters[2], 3)),
	}
	f.ts += 10
	f.height++
	src = append(src, f.block(100))

	var seen []uint32
	require.NoError(t, f.m.Bootstrap(context.Background(), &src, func(b *block.Block) {
		seen = append(seen, b.Height)
	}))
	assert.Equal(t, []uint32{1, 2}, seen)
	assert.Equal(t, uint32(2), f.m.Tip().Height)

	fixed, err := f.m.Reconcile()
	require.NoError(t, err)
	assert.Zero(t, fixed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, f.m.Bootstrap(ctx, &sliceSource{}, nil))
}

func TestReconcileRepairsVoteBalances(t *testing.T) {
	f := newTestManager(t)
	d := f.wallet(delegates[3])
	d.Delegate.VoteBalance = d.Delegate.VoteBalance.Add(ledger.Coins(7))
	assert.True(t, reverts.IsFatal(f.m.Verify()))

	fixed, err := f.m.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)
	require.NoError(t, f.m.Verify())
}
