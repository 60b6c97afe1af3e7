// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/milestone"
	"github.com/dposledger/ledger/staking"
	"github.com/dposledger/ledger/staking/aggregation"
	"github.com/dposledger/ledger/staking/expiry"
	"github.com/dposledger/ledger/staking/journal"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/tx"
	"github.com/dposledger/ledger/wallet"
)

const now = uint64(1704067200)

var (
	alice = ledger.PublicKeyFromSecret([]byte("alice"))
	bob   = ledger.PublicKeyFromSecret([]byte("bob"))
	carol = ledger.PublicKeyFromSecret([]byte("carol"))
	fee   = bn.FromUint64(10_000_000)
)

type env struct {
	l         *Ledger
	ctx       *Context
	registry  *Registry
	scheduler *expiry.Scheduler
}

func newEnv(t *testing.T) *env {
	repo := wallet.NewRepository()
	agg := aggregation.New(repo, true)
	scheduler, err := expiry.New(expiry.NewMemStore())
	require.NoError(t, err)
	e := &env{
		l: &Ledger{
			Wallets: repo,
			Votes:   agg,
			Stakes:  staking.New(repo, agg, journal.New(), scheduler),
		},
		ctx:       &Context{Height: 2, Timestamp: now, Milestone: milestone.Mainnet().At(2)},
		registry:  Default(),
		scheduler: scheduler,
	}
	for _, pk := range []ledger.PublicKey{alice, bob, carol} {
		repo.FindByPublicKey(pk).Balance = ledger.Coins(100_000)
	}
	e.mustApply(t, e.build(tx.TypeDelegateRegistration, alice).Username("alice").Build())
	e.mustApply(t, e.build(tx.TypeDelegateRegistration, bob).Username("bob").Build())
	return e
}

func (e *env) build(typ tx.Type, sender ledger.PublicKey) *tx.Builder {
	w := e.l.Wallets.FindByPublicKey(sender)
	return tx.NewBuilder(typ).Sender(sender).Nonce(w.Nonce + 1).Fee(fee).Timestamp(now)
}

func (e *env) mustApply(t *testing.T, trx *tx.Transaction) {
	require.NoError(t, e.registry.Apply(e.l, e.ctx, trx))
	require.NoError(t, e.l.Votes.Verify())
}

// roundTrip applies and reverts trx and checks that every wallet is restored.
func (e *env) roundTrip(t *testing.T, trx *tx.Transaction) {
	before := wallet.DumpAll(e.l.Wallets)
	e.mustApply(t, trx)
	assert.NotEmpty(t, wallet.Diff(before, wallet.DumpAll(e.l.Wallets)))
	require.NoError(t, e.registry.Revert(e.l, e.ctx, trx))
	require.NoError(t, e.l.Votes.Verify())
	assert.Empty(t, wallet.Diff(before, wallet.DumpAll(e.l.Wallets)))
}

func (e *env) stake(t *testing.T, sender ledger.PublicKey, amount uint64, duration uint64) ledger.TxID {
	trx := e.build(tx.TypeStakeCreate, sender).StakeCreate(ledger.Coins(amount), duration, e.ctx.Timestamp).Build()
	e.mustApply(t, trx)
	return trx.ID
}

func (e *env) advance(t *testing.T, ts uint64) {
	e.ctx.Height++
	e.ctx.Timestamp = ts
	_, err := e.scheduler.Advance(e.ctx.Height, ts, func(ev expiry.Event) error {
		_, err := e.l.Stakes.Fire(ev, e.ctx.Height, ts)
		return err
	})
	require.NoError(t, err)
}

func TestRoundTrips(t *testing.T) {
	e := newEnv(t)
	e.mustApply(t, e.build(tx.TypeVote, carol).Vote(alice).Build())
	matured := e.stake(t, carol, 1_000, milestone.ThreeMonths)
	e.advance(t, now+e.ctx.Milestone.PowerUpTime)
	e.advance(t, now+milestone.ThreeMonths)
	toCancel := e.stake(t, alice, 100, milestone.OneYear)
	toExtend := e.stake(t, alice, 100, milestone.OneYear)
	ts := e.ctx.Timestamp

	tests := []struct {
		name string
		trx  *tx.Transaction
	}{
		{"transfer", e.build(tx.TypeTransfer, carol).Recipient(bob.Address()).Amount(ledger.Coins(5)).Build()},
		{"transfer to self", e.build(tx.TypeTransfer, carol).Recipient(carol.Address()).Amount(ledger.Coins(5)).Build()},
		{"register", e.build(tx.TypeDelegateRegistration, carol).Username("carol").Build()},
		{"unvote", e.build(tx.TypeVote, carol).Unvote(alice).Build()},
		{"switch vote", e.build(tx.TypeVote, carol).Unvote(alice).Vote(bob).Build()},
		{"stake create", e.build(tx.TypeStakeCreate, carol).StakeCreate(ledger.Coins(500), milestone.SixMonths, ts).Build()},
		{"stake redeem", e.build(tx.TypeStakeRedeem, carol).StakeRedeem(matured).Build()},
		{"stake cancel", e.build(tx.TypeStakeCancel, alice).StakeCancel(toCancel).Build()},
		{"stake extend", e.build(tx.TypeStakeExtend, alice).StakeExtend(toExtend, milestone.TwoYears).Build()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.roundTrip(t, tt.trx)
		})
	}
}

func TestValidation(t *testing.T) {
	e := newEnv(t)
	carolWallet := e.l.Wallets.FindByPublicKey(carol)

	tests := []struct {
		name   string
		trx    *tx.Transaction
		reason reverts.Reason
	}{
		{"bad nonce", e.build(tx.TypeTransfer, carol).Nonce(5).Recipient(bob.Address()).Amount(ledger.Coins(1)).Build(), reverts.InvalidNonce},
		{"overdraft", e.build(tx.TypeTransfer, carol).Recipient(bob.Address()).Amount(ledger.Coins(100_000)).Build(), reverts.InsufficientBalance},
		{"no recipient", e.build(tx.TypeTransfer, carol).Amount(ledger.Coins(1)).Build(), reverts.InvalidAsset},
		{"username taken", e.build(tx.TypeDelegateRegistration, carol).Username("alice").Build(), reverts.UsernameTaken},
		{"bad username", e.build(tx.TypeDelegateRegistration, carol).Username("Carol").Build(), reverts.InvalidAsset},
		{"already delegate", e.build(tx.TypeDelegateRegistration, alice).Username("other").Build(), reverts.AlreadyDelegate},
		{"vote for nobody", e.build(tx.TypeVote, carol).Vote(carol).Build(), reverts.DelegateNotFound},
		{"unvote without vote", e.build(tx.TypeVote, carol).Unvote(alice).Build(), reverts.NoVote},
		{"whole balance stake", e.build(tx.TypeStakeCreate, carol).StakeCreate(ledger.Coins(100_000), milestone.ThreeMonths, now).Build(), reverts.InsufficientBalance},
		{"fractional stake", e.build(tx.TypeStakeCreate, carol).StakeCreate(ledger.Coins(10).Add(bn.FromUint64(5)), milestone.ThreeMonths, now).Build(), reverts.NonIntegerStake},
		{"unknown stake", e.build(tx.TypeStakeRedeem, carol).StakeRedeem(ledger.Blake2b([]byte("x"))).Build(), reverts.StakeNotFound},
		{"cancel unknown stake", e.build(tx.TypeStakeCancel, carol).Amount(ledger.Coins(1)).StakeCancel(ledger.Blake2b([]byte("x"))).Build(), reverts.StakeNotFound},
		{"missing asset", e.build(tx.TypeStakeExtend, carol).Build(), reverts.InvalidAsset},
		{"unsupported", e.build(tx.Type{Group: 9, Type: 9}, carol).Build(), reverts.UnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := wallet.DumpAll(e.l.Wallets)
			err := e.registry.Apply(e.l, e.ctx, tt.trx)
			assert.True(t, reverts.Is(err, tt.reason), "got %v", err)
			assert.Empty(t, wallet.Diff(before, wallet.DumpAll(e.l.Wallets)))
		})
	}

	e.mustApply(t, e.build(tx.TypeVote, carol).Vote(alice).Build())
	err := e.registry.Apply(e.l, e.ctx, e.build(tx.TypeVote, carol).Vote(bob).Build())
	assert.True(t, reverts.Is(err, reverts.AlreadyVoted))
	err = e.registry.Apply(e.l, e.ctx, e.build(tx.TypeVote, carol).Unvote(bob).Build())
	assert.True(t, reverts.Is(err, reverts.UnvoteMismatch))
	assert.Equal(t, uint64(1), carolWallet.Nonce)
}

func TestVoteWeightFollowsTransfers(t *testing.T) {
	e := newEnv(t)
	e.mustApply(t, e.build(tx.TypeVote, carol).Vote(alice).Build())
	aliceWallet, _ := e.l.Wallets.Delegate(alice)
	carolWallet := e.l.Wallets.FindByPublicKey(carol)
	assert.Equal(t, carolWallet.Balance, aliceWallet.Delegate.VoteBalance)

	e.mustApply(t, e.build(tx.TypeTransfer, bob).Recipient(carol.Address()).Amount(ledger.Coins(7)).Build())
	assert.Equal(t, carolWallet.Balance, aliceWallet.Delegate.VoteBalance)

	id := e.stake(t, carol, 1_000, milestone.ThreeMonths)
	e.advance(t, now+e.ctx.Milestone.PowerUpTime)
	s, _ := carolWallet.Stake(id)
	assert.Equal(t, carolWallet.Balance.Add(s.Power), aliceWallet.Delegate.VoteBalance)
}

type fakePool struct {
	groups    map[ledger.Address]uint32
	types     map[ledger.Address]tx.Type
	usernames map[string]bool
}

func (p *fakePool) HasSenderOfGroup(addr ledger.Address, group uint32) bool {
	g, ok := p.groups[addr]
	return ok && g == group
}

func (p *fakePool) HasType(addr ledger.Address, typ tx.Type) bool {
	t, ok := p.types[addr]
	return ok && t == typ
}

func (p *fakePool) HasUsername(name string) bool {
	return p.usernames[name]
}

func TestCanEnterPool(t *testing.T) {
	e := newEnv(t)
	pool := &fakePool{
		groups:    map[ledger.Address]uint32{carol.Address(): tx.StakingGroup},
		types:     map[ledger.Address]tx.Type{carol.Address(): tx.TypeStakeCreate},
		usernames: map[string]bool{"dave": true},
	}

	stakeTx := e.build(tx.TypeStakeCreate, carol).StakeCreate(ledger.Coins(10), milestone.ThreeMonths, now).Build()
	h, err := e.registry.Get(stakeTx.Type)
	require.NoError(t, err)
	assert.True(t, reverts.Is(h.CanEnterPool(pool, stakeTx), reverts.PendingStakeTransaction))

	other := e.build(tx.TypeStakeCreate, bob).StakeCreate(ledger.Coins(10), milestone.ThreeMonths, now).Build()
	assert.NoError(t, h.CanEnterPool(pool, other))

	reg := e.build(tx.TypeDelegateRegistration, bob).Username("dave").Build()
	h, err = e.registry.Get(reg.Type)
	require.NoError(t, err)
	assert.True(t, reverts.Is(h.CanEnterPool(pool, reg), reverts.PendingDelegateRequest))

	transfer := e.build(tx.TypeTransfer, carol).Recipient(bob.Address()).Amount(ledger.Coins(1)).Build()
	h, err = e.registry.Get(transfer.Type)
	require.NoError(t, err)
	assert.NoError(t, h.CanEnterPool(pool, transfer))
}
