// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/wallet"
)

func newSvc(t *testing.T) (*Service, *wallet.Repository, ledger.PublicKey) {
	repo := wallet.NewRepository()
	pk := ledger.PublicKeyFromSecret([]byte("delegate"))
	d := repo.FindByPublicKey(pk)
	d.Delegate = &wallet.DelegateProfile{Username: "delegate"}
	repo.Index(d)
	return New(repo, true), repo, pk
}

func TestVoteUnvote(t *testing.T) {
	svc, repo, pk := newSvc(t)
	voter := repo.FindByPublicKey(ledger.PublicKeyFromSecret([]byte("voter")))
	voter.Balance = bn.FromUint64(100)
	voter.StakePower = bn.FromUint64(50)

	require.NoError(t, svc.Vote(voter, pk))
	d, _ := repo.Delegate(pk)
	assert.Equal(t, bn.FromUint64(150), d.Delegate.VoteBalance)
	assert.NoError(t, svc.Verify())

	err := svc.Vote(voter, pk)
	assert.True(t, reverts.IsFatal(err))

	prev, err := svc.Unvote(voter)
	require.NoError(t, err)
	assert.Equal(t, pk, prev)
	assert.True(t, d.Delegate.VoteBalance.IsZero())
	assert.Nil(t, voter.Vote)

	_, err = svc.Unvote(voter)
	assert.True(t, reverts.IsFatal(err))
}

func TestAdjustments(t *testing.T) {
	svc, repo, pk := newSvc(t)
	voter := repo.FindByPublicKey(ledger.PublicKeyFromSecret([]byte("voter")))
	require.NoError(t, svc.Vote(voter, pk))
	d, _ := repo.Delegate(pk)

	require.NoError(t, svc.AdjustBalance(voter, bn.FromUint64(40)))
	require.NoError(t, svc.AdjustStakePower(voter, bn.FromUint64(15)))
	assert.Equal(t, bn.FromUint64(55), d.Delegate.VoteBalance)

	require.NoError(t, svc.AdjustBalance(voter, bn.FromInt64(-10)))
	require.NoError(t, svc.AdjustStakePower(voter, bn.FromInt64(-15)))
	assert.Equal(t, bn.FromUint64(30), d.Delegate.VoteBalance)
	assert.NoError(t, svc.Verify())

	err := svc.AdjustBalance(voter, bn.FromInt64(-31))
	assert.True(t, reverts.IsFatal(err))
	assert.Equal(t, bn.FromUint64(30), voter.Balance)

	err = svc.AdjustStakePower(voter, bn.FromInt64(-1))
	assert.True(t, reverts.IsFatal(err))

	// non voters never touch delegates
	other := repo.FindByPublicKey(ledger.PublicKeyFromSecret([]byte("other")))
	require.NoError(t, svc.AdjustBalance(other, bn.FromUint64(1000)))
	assert.Equal(t, bn.FromUint64(30), d.Delegate.VoteBalance)
}

func TestStakePowerOnlyNetwork(t *testing.T) {
	_, repo, pk := newSvc(t)
	svc := New(repo, false)
	voter := repo.FindByPublicKey(ledger.PublicKeyFromSecret([]byte("voter")))
	voter.Balance = bn.FromUint64(100)
	require.NoError(t, svc.Vote(voter, pk))
	d, _ := repo.Delegate(pk)
	assert.True(t, d.Delegate.VoteBalance.IsZero())

	require.NoError(t, svc.AdjustBalance(voter, bn.FromUint64(5)))
	require.NoError(t, svc.AdjustStakePower(voter, bn.FromUint64(7)))
	assert.Equal(t, bn.FromUint64(7), d.Delegate.VoteBalance)
	assert.NoError(t, svc.Verify())
}

func TestVerifyAndReconcile(t *testing.T) {
	svc, repo, pk := newSvc(t)
	voter := repo.FindByPublicKey(ledger.PublicKeyFromSecret([]byte("voter")))
	voter.Balance = bn.FromUint64(100)
	require.NoError(t, svc.Vote(voter, pk))

	// bypass the service to simulate drift
	voter.Balance = bn.FromUint64(120)
	err := svc.Verify()
	assert.True(t, reverts.IsFatal(err))
	assert.Contains(t, err.Error(), "delegate has 100 want 120")

	assert.Equal(t, 1, svc.Reconcile())
	assert.NoError(t, svc.Verify())
	assert.Equal(t, 0, svc.Reconcile())

	expected := Expected(repo, true)
	assert.Equal(t, bn.FromUint64(120), expected[pk])
}

func TestUnknownDelegate(t *testing.T) {
	svc, repo, _ := newSvc(t)
	voter := repo.FindByPublicKey(ledger.PublicKeyFromSecret([]byte("voter")))
	ghost := ledger.PublicKeyFromSecret([]byte("ghost"))
	voter.Vote = &ghost

	assert.True(t, reverts.IsFatal(svc.AddWeight(voter, bn.FromUint64(1))))
	assert.NoError(t, svc.AddWeight(voter, bn.Int{}))
	assert.True(t, reverts.IsFatal(svc.Verify()))
}
