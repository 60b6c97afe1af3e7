// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package handlers

import (
	"strings"

	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/tx"
	"github.com/dposledger/ledger/wallet"
)

// ballot is a parsed vote asset: an optional unvote followed by an optional vote.
type ballot struct {
	unvote *ledger.PublicKey
	vote   *ledger.PublicKey
}

func parseBallot(votes []string) (*ballot, error) {
	if len(votes) == 0 || len(votes) > 2 {
		return nil, reverts.New(reverts.InvalidAsset, "expected one or two votes, got %d", len(votes))
	}
	b := &ballot{}
	for i, v := range votes {
		if len(v) < 2 {
			return nil, reverts.New(reverts.InvalidAsset, "malformed vote %q", v)
		}
		pk, err := ledger.ParsePublicKey(v[1:])
		if err != nil {
			return nil, reverts.New(reverts.InvalidAsset, "malformed vote %q: %v", v, err)
		}
		switch {
		case strings.HasPrefix(v, "-") && i == 0:
			b.unvote = &pk
		case strings.HasPrefix(v, "+") && b.vote == nil:
			b.vote = &pk
		default:
			return nil, reverts.New(reverts.InvalidAsset, "unexpected vote %q", v)
		}
	}
	return b, nil
}

// Vote points the sender's weight at a delegate, withdraws it, or switches.
type Vote struct {
	base
}

func (Vote) Type() tx.Type { return tx.TypeVote }

func (h Vote) CanBeApplied(l *Ledger, ctx *Context, t *tx.Transaction, sender *wallet.Wallet) error {
	if err := noAmount(t); err != nil {
		return err
	}
	b, err := parseBallot(t.Asset.Votes)
	if err != nil {
		return err
	}
	if b.unvote != nil {
		if sender.Vote == nil {
			return reverts.New(reverts.NoVote, "%v has no vote to withdraw", sender.Address)
		}
		if *sender.Vote != *b.unvote {
			return reverts.New(reverts.UnvoteMismatch, "%v votes for %v, not %v", sender.Address, *sender.Vote, *b.unvote)
		}
	} else if sender.Vote != nil && b.vote != nil {
		return reverts.New(reverts.AlreadyVoted, "%v already votes for %v", sender.Address, *sender.Vote)
	}
	if b.vote != nil {
		if _, ok := l.Wallets.Delegate(*b.vote); !ok {
			return reverts.New(reverts.DelegateNotFound, "%v is not a delegate", *b.vote)
		}
	}
	return h.base.CanBeApplied(l, ctx, t, sender)
}

func (h Vote) ApplyToSender(l *Ledger, _ *Context, t *tx.Transaction) error {
	b, err := parseBallot(t.Asset.Votes)
	if err != nil {
		return err
	}
	sender := h.sender(l, t)
	if err := h.debit(l, sender, t); err != nil {
		return err
	}
	if b.unvote != nil {
		if _, err := l.Votes.Unvote(sender); err != nil {
			return err
		}
	}
	if b.vote != nil {
		return l.Votes.Vote(sender, *b.vote)
	}
	return nil
}

func (h Vote) RevertForSender(l *Ledger, _ *Context, t *tx.Transaction) error {
	b, err := parseBallot(t.Asset.Votes)
	if err != nil {
		return err
	}
	sender := h.sender(l, t)
	if b.vote != nil {
		prev, err := l.Votes.Unvote(sender)
		if err != nil {
			return err
		}
		if prev != *b.vote {
			return reverts.Fatal("%v voted for %v, reverting vote for %v", sender.Address, prev, *b.vote)
		}
	}
	if b.unvote != nil {
		if err := l.Votes.Vote(sender, *b.unvote); err != nil {
			return err
		}
	}
	return h.credit(l, sender, t)
}
