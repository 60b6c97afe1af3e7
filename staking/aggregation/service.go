// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package aggregation

import (
	"sort"
	"strings"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/wallet"
)

// Service keeps every delegate's vote balance equal to the summed weight of
// its voters. Every mutation of a voter's balance, stake power or vote goes
// through it so the delegate side is adjusted by the same delta.
type Service struct {
	repo              *wallet.Repository
	balanceVoteWeight bool
}

// New creates a service over repo.
func New(repo *wallet.Repository, balanceVoteWeight bool) *Service {
	return &Service{
		repo:              repo,
		balanceVoteWeight: balanceVoteWeight,
	}
}

// BalanceVoteWeight reports whether spendable balance counts as weight.
func (s *Service) BalanceVoteWeight() bool {
	return s.balanceVoteWeight
}

// AddWeight adds delta to the vote balance of the delegate voter votes for.
func (s *Service) AddWeight(voter *wallet.Wallet, delta bn.Int) error {
	return s.adjust(voter, delta)
}

// RemoveWeight subtracts delta from the vote balance of the delegate voter votes for.
func (s *Service) RemoveWeight(voter *wallet.Wallet, delta bn.Int) error {
	return s.adjust(voter, delta.Neg())
}

func (s *Service) adjust(voter *wallet.Wallet, delta bn.Int) error {
	if voter.Vote == nil || delta.IsZero() {
		return nil
	}
	delegate, ok := s.repo.Delegate(*voter.Vote)
	if !ok {
		return reverts.Fatal("wallet %v votes for unknown delegate %v", voter.Address, *voter.Vote)
	}
	next := delegate.Delegate.VoteBalance.Add(delta)
	if next.Sign() < 0 {
		return reverts.Fatal("vote balance of %v would drop to %v", delegate.Delegate.Username, next)
	}
	delegate.Delegate.VoteBalance = next
	return nil
}

// AdjustBalance changes the spendable balance of w by delta.
func (s *Service) AdjustBalance(w *wallet.Wallet, delta bn.Int) error {
	next := w.Balance.Add(delta)
	if next.Sign() < 0 {
		return reverts.Fatal("balance of %v would drop to %v", w.Address, next)
	}
	if s.balanceVoteWeight {
		if err := s.AddWeight(w, delta); err != nil {
			return err
		}
	}
	w.Balance = next
	return nil
}

// AdjustStakePower changes the stake power of w by delta.
func (s *Service) AdjustStakePower(w *wallet.Wallet, delta bn.Int) error {
	next := w.StakePower.Add(delta)
	if next.Sign() < 0 {
		return reverts.Fatal("stake power of %v would drop to %v", w.Address, next)
	}
	if err := s.AddWeight(w, delta); err != nil {
		return err
	}
	w.StakePower = next
	return nil
}

// Vote points voter at delegate and moves its whole weight there.
func (s *Service) Vote(voter *wallet.Wallet, delegate ledger.PublicKey) error {
	if voter.Vote != nil {
		return reverts.Fatal("wallet %v already votes for %v", voter.Address, *voter.Vote)
	}
	pk := delegate
	voter.Vote = &pk
	if err := s.AddWeight(voter, voter.VoteWeight(s.balanceVoteWeight)); err != nil {
		voter.Vote = nil
		return err
	}
	return nil
}

// Unvote withdraws voter's weight from its delegate and clears the vote.
func (s *Service) Unvote(voter *wallet.Wallet) (ledger.PublicKey, error) {
	if voter.Vote == nil {
		return ledger.PublicKey{}, reverts.Fatal("wallet %v has no vote", voter.Address)
	}
	prev := *voter.Vote
	if err := s.RemoveWeight(voter, voter.VoteWeight(s.balanceVoteWeight)); err != nil {
		return ledger.PublicKey{}, err
	}
	voter.Vote = nil
	return prev, nil
}

// Expected recomputes every delegate's vote balance from voter state alone.
func Expected(repo *wallet.Repository, balanceVoteWeight bool) map[ledger.PublicKey]bn.Int {
	out := make(map[ledger.PublicKey]bn.Int)
	for _, d := range repo.Delegates() {
		out[*d.PublicKey] = bn.Int{}
	}
	for _, w := range repo.All() {
		if w.Vote == nil {
			continue
		}
		out[*w.Vote] = out[*w.Vote].Add(w.VoteWeight(balanceVoteWeight))
	}
	return out
}

// Verify compares the live vote balances with recomputed ones and returns a
// fatal error describing every mismatch.
func (s *Service) Verify() error {
	mismatches := s.mismatches()
	if len(mismatches) == 0 {
		return nil
	}
	return reverts.Fatal("vote balance mismatch: %s", strings.Join(mismatches, "; "))
}

// Reconcile overwrites live vote balances with recomputed ones and returns
// the number of delegates that were corrected.
func (s *Service) Reconcile() int {
	n := 0
	for pk, want := range Expected(s.repo, s.balanceVoteWeight) {
		d, ok := s.repo.Delegate(pk)
		if !ok {
			continue
		}
		if d.Delegate.VoteBalance.Cmp(want) != 0 {
			d.Delegate.VoteBalance = want
			n++
		}
	}
	return n
}

func (s *Service) mismatches() []string {
	var out []string
	for pk, want := range Expected(s.repo, s.balanceVoteWeight) {
		d, ok := s.repo.Delegate(pk)
		if !ok {
			out = append(out, "votes for unknown delegate "+pk.String())
			continue
		}
		if got := d.Delegate.VoteBalance; got.Cmp(want) != 0 {
			out = append(out, d.Delegate.Username+" has "+got.String()+" want "+want.String())
		}
	}
	sort.Strings(out)
	return out
}
