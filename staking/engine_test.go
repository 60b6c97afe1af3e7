// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/milestone"
	"github.com/dposledger/ledger/staking/aggregation"
	"github.com/dposledger/ledger/staking/expiry"
	"github.com/dposledger/ledger/staking/journal"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/staking/stake"
	"github.com/dposledger/ledger/wallet"
)

const start = uint64(1704067200)

type testEnv struct {
	repo      *wallet.Repository
	agg       *aggregation.Service
	scheduler *expiry.Scheduler
	engine    *Engine
	m         *milestone.Milestone
	delegate  *wallet.Wallet
	voter     *wallet.Wallet
}

func newEnv(t *testing.T) *testEnv {
	repo := wallet.NewRepository()
	agg := aggregation.New(repo, true)
	scheduler, err := expiry.New(expiry.NewMemStore())
	require.NoError(t, err)

	delegate := repo.FindByPublicKey(ledger.PublicKeyFromSecret([]byte("delegate")))
	delegate.Delegate = &wallet.DelegateProfile{Username: "genesis_1"}
	repo.Index(delegate)

	voter := repo.FindByPublicKey(ledger.PublicKeyFromSecret([]byte("voter")))
	voter.Balance = ledger.Coins(20_000)
	require.NoError(t, agg.Vote(voter, *delegate.PublicKey))

	return &testEnv{
		repo:      repo,
		agg:       agg,
		scheduler: scheduler,
		engine:    New(repo, agg, journal.New(), scheduler),
		m:         milestone.Mainnet().At(1),
		delegate:  delegate,
		voter:     voter,
	}
}

func (env *testEnv) create(t *testing.T, seed string, amount bn.Int, duration uint64) *stake.Stake {
	id := ledger.Blake2b([]byte(seed))
	s, err := env.engine.Create(env.voter, CreateParams{
		ID:        id,
		Amount:    amount,
		Fee:       ledger.Coins(1),
		Duration:  duration,
		Timestamp: start,
	}, Origin{Height: 1, Timestamp: start, TxID: id}, env.m)
	require.NoError(t, err)
	return s
}

func (env *testEnv) advance(t *testing.T, height uint32, ts uint64) int {
	n, err := env.scheduler.Advance(height, ts, func(ev expiry.Event) error {
		_, err := env.engine.Fire(ev, height, ts)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, env.agg.Verify())
	return n
}

func (env *testEnv) voteBalance() bn.Int {
	return env.delegate.Delegate.VoteBalance
}

func TestStakeLifecycle(t *testing.T) {
	env := newEnv(t)
	before := wallet.DumpAll(env.repo)

	s := env.create(t, "stake", ledger.Coins(10_000), milestone.ThreeMonths)
	assert.Equal(t, ledger.Coins(15_000), s.Power)
	assert.Equal(t, stake.Pending, s.Status)
	assert.Equal(t, ledger.Coins(10_000), env.voter.Balance)
	assert.True(t, env.voter.StakePower.IsZero())
	assert.Equal(t, ledger.Coins(10_000), env.voteBalance())
	require.NoError(t, env.agg.Verify())

	err := env.engine.CanRequestRedeem(env.voter, s.ID)
	assert.True(t, reverts.Is(err, reverts.StakeNotYetRedeemable))

	assert.Equal(t, 1, env.advance(t, 2, start+env.m.PowerUpTime))
	s, _ = env.voter.Stake(s.ID)
	assert.Equal(t, stake.Active, s.Status)
	assert.Equal(t, ledger.Coins(15_000), env.voter.StakePower)
	assert.Equal(t, ledger.Coins(25_000), env.voteBalance())

	assert.True(t, reverts.Is(env.engine.CanRequestRedeem(env.voter, s.ID), reverts.StakeNotYetRedeemable))

	assert.Equal(t, 1, env.advance(t, 3, start+milestone.ThreeMonths))
	s, _ = env.voter.Stake(s.ID)
	assert.Equal(t, stake.Released, s.Status)
	assert.True(t, s.Halved)
	assert.Equal(t, ledger.Coins(7_500), s.Power)
	assert.Equal(t, ledger.Coins(17_500), env.voteBalance())

	// firing the release again leaves the halved power alone
	ok, err := env.engine.Release(env.voter, s.ID, Origin{Height: 3, Source: journal.SourceScheduler})
	require.NoError(t, err)
	assert.False(t, ok)
	s, _ = env.voter.Stake(s.ID)
	assert.Equal(t, ledger.Coins(7_500), s.Power)

	redeemAt := start + milestone.ThreeMonths + 100
	_, err = env.engine.RequestRedeem(env.voter, s.ID, Origin{Height: 4, Timestamp: redeemAt, TxID: ledger.Blake2b([]byte("redeem"))}, env.m)
	require.NoError(t, err)
	s, _ = env.voter.Stake(s.ID)
	assert.Equal(t, stake.Redeeming, s.Status)
	assert.Equal(t, redeemAt+env.m.RedeemTime, s.Timestamps.RedeemAt)
	assert.True(t, reverts.Is(env.engine.CanRequestRedeem(env.voter, s.ID), reverts.StakeAlreadyRedeemed))

	assert.Equal(t, 0, env.advance(t, 5, redeemAt+env.m.RedeemTime-1))
	assert.Equal(t, 1, env.advance(t, 6, redeemAt+env.m.RedeemTime))
	s, _ = env.voter.Stake(s.ID)
	assert.Equal(t, stake.Redeemed, s.Status)
	assert.Equal(t, ledger.Coins(20_000), env.voter.Balance)
	assert.True(t, env.voter.StakePower.IsZero())
	assert.Equal(t, ledger.Coins(20_000), env.voteBalance())
	assert.Equal(t, 0, env.scheduler.Len())

	// unwind everything in reverse order
	n, err := env.engine.RevertScheduled(6)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	s, _ = env.voter.Stake(s.ID)
	assert.Equal(t, stake.Redeeming, s.Status)
	assert.Equal(t, ledger.Coins(7_500), s.Power)
	assert.Equal(t, ledger.Coins(7_500), env.voter.StakePower)
	assert.Equal(t, 1, env.scheduler.Len())
	require.NoError(t, env.agg.Verify())

	require.NoError(t, env.engine.Revert(env.voter, s.ID, journal.RedeemRequested))
	_, err = env.engine.RevertScheduled(3)
	require.NoError(t, err)
	_, err = env.engine.RevertScheduled(2)
	require.NoError(t, err)
	s, _ = env.voter.Stake(s.ID)
	assert.Equal(t, stake.Pending, s.Status)
	assert.False(t, s.Halved)
	assert.Equal(t, ledger.Coins(15_000), s.Power)

	require.NoError(t, env.engine.Revert(env.voter, s.ID, journal.Created))
	require.NoError(t, env.agg.Verify())
	assert.Equal(t, 0, env.scheduler.Len())
	assert.Empty(t, wallet.Diff(before, wallet.DumpAll(env.repo)))
}

func TestCreateChecks(t *testing.T) {
	env := newEnv(t)
	id := ledger.Blake2b([]byte("check"))
	params := func(amount bn.Int, duration, ts uint64) CreateParams {
		return CreateParams{ID: id, Amount: amount, Fee: ledger.Coins(1), Duration: duration, Timestamp: ts}
	}

	tests := []struct {
		name   string
		params CreateParams
		reason reverts.Reason
	}{
		{"invalid duration first", params(ledger.Coins(10).Add(bn.FromUint64(1)), 1000, start+1000), reverts.InvalidDuration},
		{"fractional", params(ledger.Coins(10).Add(bn.FromUint64(1)), milestone.ThreeMonths, start), reverts.NonIntegerStake},
		{"below minimum", params(ledger.Coins(9), milestone.ThreeMonths, start), reverts.BelowMinimumStake},
		{"zero", params(bn.Int{}, milestone.ThreeMonths, start), reverts.BelowMinimumStake},
		{"timestamp too late", params(ledger.Coins(10), milestone.ThreeMonths, start+121), reverts.InvalidStakeTimestamp},
		{"timestamp too early", params(ledger.Coins(10), milestone.ThreeMonths, start-121), reverts.InvalidStakeTimestamp},
		{"whole balance leaves nothing for fee", params(ledger.Coins(20_000), milestone.ThreeMonths, start), reverts.InsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := wallet.Dump(env.voter)
			_, err := env.engine.Create(env.voter, tt.params, Origin{Height: 1, Timestamp: start}, env.m)
			assert.True(t, reverts.Is(err, tt.reason), "got %v", err)
			assert.Empty(t, wallet.Diff(before, wallet.Dump(env.voter)))
		})
	}

	assert.NoError(t, env.engine.CanCreate(env.voter, params(ledger.Coins(10), milestone.ThreeMonths, start+120), start, env.m))

	// without a tolerance the declared timestamp is only bounded by the schedule
	loose := *env.m
	loose.StakeTimestampTolerance = 0
	late := uint64(math.MaxUint64) - milestone.TwoYears
	assert.NoError(t, env.engine.CanCreate(env.voter, params(ledger.Coins(10), milestone.ThreeMonths, late), start, &loose))
	err := env.engine.CanCreate(env.voter, params(ledger.Coins(10), milestone.ThreeMonths, late+1), start, &loose)
	assert.True(t, reverts.Is(err, reverts.InvalidStakeTimestamp), "got %v", err)
	err = env.engine.CanCreate(env.voter, params(ledger.Coins(10), milestone.ThreeMonths, math.MaxUint64), start, &loose)
	assert.True(t, reverts.Is(err, reverts.InvalidStakeTimestamp), "got %v", err)

	env.create(t, "check", ledger.Coins(10), milestone.ThreeMonths)
	err = env.engine.CanCreate(env.voter, params(ledger.Coins(10), milestone.ThreeMonths, start), start, env.m)
	assert.True(t, reverts.Is(err, reverts.DuplicateStake))
}

func TestCancel(t *testing.T) {
	env := newEnv(t)

	active := env.create(t, "active", ledger.Coins(1_000), milestone.OneYear)
	env.advance(t, 2, start+env.m.PowerUpTime)
	pending := env.create(t, "pending", ledger.Coins(1_000), milestone.ThreeMonths)
	assert.Equal(t, ledger.Coins(2_500), env.voter.StakePower)

	cancelOrigin := Origin{Height: 3, Timestamp: start + env.m.PowerUpTime + 1}
	_, err := env.engine.Cancel(env.voter, pending.ID, cancelOrigin)
	require.NoError(t, err)
	_, err = env.engine.Cancel(env.voter, active.ID, cancelOrigin)
	require.NoError(t, err)
	require.NoError(t, env.agg.Verify())
	assert.Equal(t, ledger.Coins(20_000), env.voter.Balance)
	assert.True(t, env.voter.StakePower.IsZero())
	assert.Equal(t, 0, env.scheduler.Len())

	assert.True(t, reverts.Is(env.engine.CanCancel(env.voter, active.ID), reverts.StakeAlreadyCanceled))
	assert.True(t, reverts.Is(env.engine.CanCancel(env.voter, ledger.Blake2b([]byte("nope"))), reverts.StakeNotFound))
	assert.True(t, reverts.Is(env.engine.CanRequestRedeem(env.voter, active.ID), reverts.StakeAlreadyCanceled))

	require.NoError(t, env.engine.Revert(env.voter, active.ID, journal.Canceled))
	s, _ := env.voter.Stake(active.ID)
	assert.Equal(t, stake.Active, s.Status)
	assert.Equal(t, ledger.Coins(2_500), env.voter.StakePower)
	assert.Equal(t, 1, env.scheduler.Len())
	require.NoError(t, env.agg.Verify())

	// a released stake can no longer be canceled
	released := env.create(t, "released", ledger.Coins(1_000), milestone.ThreeMonths)
	assert.Equal(t, 2, env.advance(t, 4, start+milestone.ThreeMonths))
	s, _ = env.voter.Stake(released.ID)
	assert.Equal(t, stake.Released, s.Status)
	assert.True(t, reverts.Is(env.engine.CanCancel(env.voter, released.ID), reverts.StakeAlreadyReleased))
	assert.True(t, reverts.Is(env.engine.CanExtend(env.voter, released.ID, milestone.OneYear, env.m), reverts.StakeAlreadyReleased))
}

func TestExtend(t *testing.T) {
	env := newEnv(t)
	s := env.create(t, "extend", ledger.Coins(1_000), milestone.ThreeMonths)
	env.advance(t, 2, start+env.m.PowerUpTime)

	err := env.engine.CanExtend(env.voter, s.ID, milestone.ThreeMonths, env.m)
	assert.True(t, reverts.Is(err, reverts.InvalidStakeExtension))
	err = env.engine.CanExtend(env.voter, s.ID, 12345, env.m)
	assert.True(t, reverts.Is(err, reverts.InvalidDuration))

	before := wallet.DumpAll(env.repo)
	_, err = env.engine.Extend(env.voter, s.ID, milestone.OneYear, Origin{Height: 3}, env.m)
	require.NoError(t, err)
	s, _ = env.voter.Stake(s.ID)
	assert.Equal(t, ledger.Coins(2_500), s.Power)
	assert.Equal(t, start+milestone.OneYear, s.Timestamps.Redeemable)
	assert.Equal(t, ledger.Coins(2_500), env.voter.StakePower)
	require.NoError(t, env.agg.Verify())

	// release moved with the extension
	assert.Equal(t, 0, env.advance(t, 4, start+milestone.ThreeMonths))
	e, ok := env.scheduler.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, start+milestone.OneYear, e.Redeemable)

	require.NoError(t, env.engine.Revert(env.voter, s.ID, journal.Extended))
	assert.Empty(t, wallet.Diff(before, wallet.DumpAll(env.repo)))
	e, _ = env.scheduler.Get(s.ID)
	assert.Equal(t, start+milestone.ThreeMonths, e.Redeemable)
}

func TestRevertRejectsWrongKind(t *testing.T) {
	env := newEnv(t)
	s := env.create(t, "wrong", ledger.Coins(100), milestone.ThreeMonths)

	err := env.engine.Revert(env.voter, s.ID, journal.PoweredUp)
	assert.True(t, reverts.IsFatal(err))
	err = env.engine.Revert(env.voter, ledger.Blake2b([]byte("missing")), journal.Created)
	assert.True(t, reverts.IsFatal(err))
}

func TestRebuild(t *testing.T) {
	env := newEnv(t)
	s := env.create(t, "rebuild", ledger.Coins(100), milestone.ThreeMonths)
	env.advance(t, 2, start+env.m.PowerUpTime)

	n, err := env.engine.Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// corrupt the live record, the journal wins
	live, _ := env.voter.Stake(s.ID)
	broken := live.Clone()
	broken.Power = ledger.Coins(1)
	env.voter.SetStake(broken)
	env.voter.StakePower = ledger.Coins(1)
	env.agg.Reconcile()

	n, err = env.engine.Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, ledger.Coins(150), env.voter.StakePower)
	require.NoError(t, env.agg.Verify())
}
