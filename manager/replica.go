// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package manager

import (
	"github.com/dposledger/ledger/handlers"
	"github.com/dposledger/ledger/rewards"
	"github.com/dposledger/ledger/staking"
	"github.com/dposledger/ledger/staking/aggregation"
	"github.com/dposledger/ledger/staking/expiry"
	"github.com/dposledger/ledger/staking/journal"
	"github.com/dposledger/ledger/wallet"
)

// replica is one full copy of the mutable ledger state. The db replica
// follows confirmed blocks, the pool replica additionally holds the
// pending transactions.
type replica struct {
	name       string
	ledger     *handlers.Ledger
	journal    *journal.Journal
	scheduler  *expiry.Scheduler
	undo       *rewards.Undo
	settlement *rewards.Settlement
}

func newReplica(name string, repo *wallet.Repository, j *journal.Journal, undo *rewards.Undo, scheduler *expiry.Scheduler, balanceVoteWeight bool) *replica {
	agg := aggregation.New(repo, balanceVoteWeight)
	return &replica{
		name: name,
		ledger: &handlers.Ledger{
			Wallets: repo,
			Votes:   agg,
			Stakes:  staking.New(repo, agg, j, scheduler),
		},
		journal:    j,
		scheduler:  scheduler,
		undo:       undo,
		settlement: rewards.New(repo, agg, undo),
	}
}

// clone deep copies the replica. The copy's scheduler is memory backed.
func (r *replica) clone(name string) *replica {
	return newReplica(name,
		r.ledger.Wallets.Clone(),
		r.journal.Clone(),
		r.undo.Clone(),
		r.scheduler.Clone(),
		r.ledger.Votes.BalanceVoteWeight(),
	)
}

// expiryEntries derives the scheduler rows from the live stakes.
func (r *replica) expiryEntries() []expiry.Entry {
	var out []expiry.Entry
	for _, w := range r.ledger.Wallets.All() {
		for _, s := range w.SortedStakes() {
			if s.Status.Terminal() {
				continue
			}
			out = append(out, expiry.EntryOf(w.Address, s))
		}
	}
	return out
}
