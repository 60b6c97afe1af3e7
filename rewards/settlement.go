// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math"

	"github.com/pkg/errors"

	"github.com/dposledger/ledger/block"
	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/log"
	"github.com/dposledger/ledger/metrics"
	"github.com/dposledger/ledger/milestone"
	"github.com/dposledger/ledger/round"
	"github.com/dposledger/ledger/staking/aggregation"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/wallet"
)

var (
	logger            = log.WithContext("pkg", "rewards")
	metricRemovedFees = metrics.LazyLoadCounter("removed_fees_satoshi_count")
	metricTopPayouts  = metrics.LazyLoadCounter("top_delegate_payout_count")

	// ErrFeeMismatch is returned for blocks whose recorded fees differ from the computed ones.
	ErrFeeMismatch = errors.New("block fee mismatch")
)

// Payout is a top delegate bonus.
type Payout struct {
	PublicKey ledger.PublicKey
	Username  string
	Amount    bn.Int
}

// Result describes what the settlement of one block paid.
type Result struct {
	Height       uint32
	Forger       ledger.PublicKey
	Split        FeeSplit
	ForgerReward bn.Int // reward + split.ToReward
	TopPayouts   []Payout
	TopRemainder bn.Int // share of the top reward lost to integer division
}

// Settlement pays block rewards and takes them back on reversion.
type Settlement struct {
	repo *wallet.Repository
	agg  *aggregation.Service
	undo *Undo
}

// New creates a settlement service.
func New(repo *wallet.Repository, agg *aggregation.Service, undo *Undo) *Settlement {
	return &Settlement{
		repo: repo,
		agg:  agg,
		undo: undo,
	}
}

// Validate checks the fee totals recorded on the block and returns the split.
func Validate(b *block.Block, m *milestone.Milestone) (FeeSplit, error) {
	total := b.Transactions.TotalFee()
	if total.Cmp(b.TotalFee) != 0 {
		return FeeSplit{}, errors.Wrapf(ErrFeeMismatch, "block #%d total fee %v, transactions sum to %v", b.Height, b.TotalFee, total)
	}
	split := PolicyFor(m).Split(b.TotalFee, b.Reward, b.TopReward)
	if split.ToRemove.Cmp(b.RemovedFee) != 0 {
		return FeeSplit{}, errors.Wrapf(ErrFeeMismatch, "block #%d removed fee %v, want %v", b.Height, b.RemovedFee, split.ToRemove)
	}
	return split, nil
}

// plan computes the payouts of a block without touching any wallet.
func (s *Settlement) plan(b *block.Block, m *milestone.Milestone, snap *round.Snapshot) (*Result, error) {
	res := &Result{
		Height: b.Height,
		Forger: b.GeneratorPublicKey,
		Split:  PolicyFor(m).Split(b.TotalFee, b.Reward, b.TopReward),
	}
	res.ForgerReward = b.Reward.Add(res.Split.ToReward)

	if m.TopDelegates == 0 || b.TopReward.Sign() <= 0 {
		return res, nil
	}
	if snap == nil {
		return nil, reverts.Fatal("block #%d pays top rewards without a round snapshot", b.Height)
	}
	share := b.TopReward.DivUint64(uint64(m.TopDelegates))
	top := snap.TopDelegates(m.TopDelegates)
	for _, pk := range top {
		d, ok := s.repo.Delegate(pk)
		if !ok {
			return nil, reverts.Fatal("top delegate %v of round %d is not a delegate", pk, snap.Round)
		}
		res.TopPayouts = append(res.TopPayouts, Payout{PublicKey: pk, Username: d.Delegate.Username, Amount: share})
	}
	res.TopRemainder = b.TopReward.Sub(share.MulUint64(uint64(len(top))))
	return res, nil
}

func (s *Settlement) forger(pk ledger.PublicKey) (*wallet.Wallet, error) {
	w, ok := s.repo.Delegate(pk)
	if !ok {
		return nil, reverts.Fatal("generator %v is not a delegate", pk)
	}
	return w, nil
}

// Apply pays the forger its reward and fees, then the top delegate bonuses.
func (s *Settlement) Apply(b *block.Block, m *milestone.Milestone, snap *round.Snapshot) (*Result, error) {
	res, err := s.plan(b, m, snap)
	if err != nil {
		return nil, err
	}
	f, err := s.forger(b.GeneratorPublicKey)
	if err != nil {
		return nil, err
	}
	if err := s.agg.AdjustBalance(f, res.ForgerReward); err != nil {
		return nil, err
	}
	profile := f.Delegate
	profile.ForgedRewards = profile.ForgedRewards.Add(b.Reward)
	profile.ForgedFees = profile.ForgedFees.Add(res.Split.ToReward)
	profile.ProducedBlocks++
	s.undo.Push(b.Height, profile.LastBlockHeight)
	profile.LastBlockHeight = b.Height

	for _, p := range res.TopPayouts {
		d, _ := s.repo.Delegate(p.PublicKey)
		if err := s.agg.AdjustBalance(d, p.Amount); err != nil {
			return nil, err
		}
		d.Delegate.ForgedTopRewards = d.Delegate.ForgedTopRewards.Add(p.Amount)
	}

	metricRemovedFees().Add(counterValue(res.Split.ToRemove))
	metricTopPayouts().Add(int64(len(res.TopPayouts)))
	logger.Debug("settled block", "height", b.Height, "forger", profile.Username,
		"reward", res.ForgerReward, "removed", res.Split.ToRemove, "top", len(res.TopPayouts))
	return res, nil
}

var maxCounterValue = bn.FromUint64(math.MaxInt64)

// counterValue converts an amount to a counter increment, saturating at the
// largest value a counter accepts.
func counterValue(v bn.Int) int64 {
	if v.Sign() <= 0 {
		return 0
	}
	if v.Cmp(maxCounterValue) >= 0 {
		return math.MaxInt64
	}
	return int64(v.Uint64())
}

// Revert takes back what Apply paid for the block, top bonuses first.
func (s *Settlement) Revert(b *block.Block, m *milestone.Milestone, snap *round.Snapshot) (*Result, error) {
	res, err := s.plan(b, m, snap)
	if err != nil {
		return nil, err
	}
	f, err := s.forger(b.GeneratorPublicKey)
	if err != nil {
		return nil, err
	}
	profile := f.Delegate
	if profile.LastBlockHeight != b.Height {
		return nil, reverts.Fatal("forger %v last forged #%d, reverting #%d", profile.Username, profile.LastBlockHeight, b.Height)
	}
	prev, err := s.undo.Pop(b.Height)
	if err != nil {
		return nil, err
	}

	for i := len(res.TopPayouts) - 1; i >= 0; i-- {
		p := res.TopPayouts[i]
		d, _ := s.repo.Delegate(p.PublicKey)
		if err := s.agg.AdjustBalance(d, p.Amount.Neg()); err != nil {
			return nil, err
		}
		d.Delegate.ForgedTopRewards = d.Delegate.ForgedTopRewards.Sub(p.Amount)
	}

	if err := s.agg.AdjustBalance(f, res.ForgerReward.Neg()); err != nil {
		return nil, err
	}
	profile.ForgedRewards = profile.ForgedRewards.Sub(b.Reward)
	profile.ForgedFees = profile.ForgedFees.Sub(res.Split.ToReward)
	profile.ProducedBlocks--
	profile.LastBlockHeight = prev
	return res, nil
}
