// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package round

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/lvldb"
	"github.com/dposledger/ledger/milestone"
	"github.com/dposledger/ledger/wallet"
)

func milestones(t *testing.T, changes ...milestone.Milestone) *milestone.Set {
	base := milestone.Mainnet().All()[0]
	ms := []milestone.Milestone{base}
	for _, c := range changes {
		m := base
		m.Height = c.Height
		m.ActiveDelegates = c.ActiveDelegates
		m.TopDelegates = min(base.TopDelegates, c.ActiveDelegates)
		ms = append(ms, m)
	}
	set, err := milestone.NewSet(ms)
	require.NoError(t, err)
	return set
}

func TestCalculate(t *testing.T) {
	c, err := NewCalculator(milestones(t))
	require.NoError(t, err)

	tests := []struct {
		height uint32
		want   Info
	}{
		{1, Info{1, 1, 2, 51}},
		{51, Info{1, 1, 2, 51}},
		{52, Info{2, 52, 3, 51}},
		{103, Info{3, 103, 4, 51}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Calculate(tt.height), "height %d", tt.height)
	}
	assert.True(t, c.IsNewRound(1))
	assert.True(t, c.IsNewRound(52))
	assert.False(t, c.IsNewRound(53))
	assert.Equal(t, uint32(102), c.Calculate(60).LastHeight())
}

func TestCalculateAcrossMilestones(t *testing.T) {
	c, err := NewCalculator(milestones(t,
		milestone.Milestone{Height: 103, ActiveDelegates: 5},
		milestone.Milestone{Height: 200, ActiveDelegates: 5},
	))
	require.NoError(t, err)

	assert.Equal(t, Info{2, 52, 3, 51}, c.Calculate(102))
	assert.Equal(t, Info{3, 103, 4, 5}, c.Calculate(103))
	assert.Equal(t, Info{3, 103, 4, 5}, c.Calculate(107))
	assert.Equal(t, Info{4, 108, 5, 5}, c.Calculate(108))
	assert.True(t, c.IsNewRound(113))

	_, err = NewCalculator(milestones(t, milestone.Milestone{Height: 100, ActiveDelegates: 5}))
	assert.Error(t, err)
}

func delegates(t *testing.T, balances ...uint64) *wallet.Repository {
	repo := wallet.NewRepository()
	for i, b := range balances {
		w := repo.FindByPublicKey(ledger.PublicKeyFromSecret([]byte(fmt.Sprintf("delegate-%d", i))))
		w.Delegate = &wallet.DelegateProfile{
			Username:    fmt.Sprintf("genesis_%d", i+1),
			VoteBalance: ledger.Coins(b),
		}
		repo.Index(w)
	}
	return repo
}

func TestBuild(t *testing.T) {
	repo := delegates(t, 10, 30, 20, 20, 5)
	info := Info{Round: 7, RoundHeight: 19, NextRound: 8, MaxDelegates: 4}

	snap := Build(info, repo)
	require.Len(t, snap.Ranked, 5)
	require.Len(t, snap.Active, 4)
	assert.Equal(t, "genesis_2", snap.Ranked[0].Username)
	assert.Equal(t, "genesis_5", snap.Ranked[4].Username)

	// equal balances are ordered by public key
	tied := snap.Ranked[1:3]
	assert.Equal(t, tied[0].VoteBalance, tied[1].VoteBalance)
	assert.True(t, tied[0].PublicKey.Less(tied[1].PublicKey))

	assert.Equal(t, snap.Active[:2], snap.TopDelegates(2))
	assert.Len(t, snap.TopDelegates(10), 4)
	assert.ElementsMatch(t, snap.Active, snap.ForgingOrder)
	assert.Equal(t, snap.ForgingOrder, Build(info, repo).ForgingOrder)

	assert.Equal(t, uint32(1), snap.Rank(snap.Ranked[0].PublicKey))
	assert.Equal(t, uint32(0), snap.Rank(ledger.PublicKey{}))
	assert.False(t, snap.IsActive(snap.Ranked[4].PublicKey))

	forger, ok := snap.Forger(23)
	require.True(t, ok)
	assert.Equal(t, snap.ForgingOrder[0], forger)
	_, ok = snap.Forger(18)
	assert.False(t, ok)

	ApplyRanks(snap, repo)
	d, _ := repo.Delegate(snap.Ranked[0].PublicKey)
	assert.Equal(t, uint32(1), d.Delegate.Rank)
	ApplyRanks(nil, repo)
	assert.Equal(t, uint32(0), d.Delegate.Rank)
}

func TestShuffle(t *testing.T) {
	perm := make([]int, 10)
	Shuffle(ledger.RoundSeed(1), perm)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, perm)

	again := make([]int, 10)
	Shuffle(ledger.RoundSeed(1), again)
	assert.Equal(t, perm, again)

	Shuffle(ledger.RoundSeed(2), again)
	assert.NotEqual(t, perm, again)

	one := []int{5}
	Shuffle(nil, one)
	assert.Equal(t, []int{0}, one)
}

func TestStore(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewStore(db, 2)
	require.NoError(t, err)

	repo := delegates(t, 10, 30, 20)
	snap := Build(Info{Round: 3, RoundHeight: 7, NextRound: 4, MaxDelegates: 2}, repo)
	require.NoError(t, store.Save(snap))

	// a fresh store reads through the database
	fresh, err := NewStore(db, 2)
	require.NoError(t, err)
	loaded, ok, err := fresh.Get(3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, loaded)

	_, ok, err = fresh.Get(4)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fresh.Delete(3))
	_, ok, err = fresh.Get(3)
	require.NoError(t, err)
	assert.False(t, ok)
}
