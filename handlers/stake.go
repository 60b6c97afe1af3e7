// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package handlers

import (
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/staking"
	"github.com/dposledger/ledger/staking/journal"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/tx"
	"github.com/dposledger/ledger/wallet"
)

// stakeBase carries what every staking type shares. Staking transactions
// only pay a fee and have no recipient.
type stakeBase struct {
	base
}

func (h stakeBase) check(l *Ledger, ctx *Context, t *tx.Transaction, sender *wallet.Wallet) error {
	if err := noAmount(t); err != nil {
		return err
	}
	return h.base.CanBeApplied(l, ctx, t, sender)
}

// CanEnterPool allows one pending staking transaction per sender.
func (stakeBase) CanEnterPool(pool Pool, t *tx.Transaction) error {
	if pool.HasSenderOfGroup(t.Sender(), tx.StakingGroup) {
		return reverts.New(reverts.PendingStakeTransaction, "%v already has a pending stake transaction", t.Sender())
	}
	return nil
}

// revert undoes the fee then the stake mutation of kind.
func (h stakeBase) revert(l *Ledger, t *tx.Transaction, id ledger.TxID, kind journal.Kind) error {
	sender := h.sender(l, t)
	if err := h.credit(l, sender, t); err != nil {
		return err
	}
	return l.Stakes.Revert(sender, id, kind)
}

func refAsset(ref *tx.StakeRefAsset) (ledger.TxID, error) {
	if ref == nil {
		return ledger.TxID{}, reverts.New(reverts.InvalidAsset, "missing stake reference")
	}
	return ref.StakeID, nil
}

// StakeCreate locks funds into a new stake identified by the transaction id.
type StakeCreate struct {
	stakeBase
}

func (StakeCreate) Type() tx.Type { return tx.TypeStakeCreate }

func createParams(t *tx.Transaction) (staking.CreateParams, error) {
	a := t.Asset.StakeCreate
	if a == nil {
		return staking.CreateParams{}, reverts.New(reverts.InvalidAsset, "missing stake asset")
	}
	return staking.CreateParams{
		ID:        t.ID,
		Amount:    a.Amount,
		Fee:       t.Fee,
		Duration:  a.Duration,
		Timestamp: a.Timestamp,
	}, nil
}

func (h StakeCreate) CanBeApplied(l *Ledger, ctx *Context, t *tx.Transaction, sender *wallet.Wallet) error {
	p, err := createParams(t)
	if err != nil {
		return err
	}
	if err := l.Stakes.CanCreate(sender, p, ctx.Timestamp, ctx.Milestone); err != nil {
		return err
	}
	return h.check(l, ctx, t, sender)
}

func (h StakeCreate) ApplyToSender(l *Ledger, ctx *Context, t *tx.Transaction) error {
	p, err := createParams(t)
	if err != nil {
		return err
	}
	sender := h.sender(l, t)
	if _, err := l.Stakes.Create(sender, p, ctx.origin(t), ctx.Milestone); err != nil {
		return err
	}
	return h.debit(l, sender, t)
}

func (h StakeCreate) RevertForSender(l *Ledger, _ *Context, t *tx.Transaction) error {
	return h.revert(l, t, t.ID, journal.Created)
}

// StakeRedeem requests the redemption of a released stake.
type StakeRedeem struct {
	stakeBase
}

func (StakeRedeem) Type() tx.Type { return tx.TypeStakeRedeem }

func (h StakeRedeem) CanBeApplied(l *Ledger, ctx *Context, t *tx.Transaction, sender *wallet.Wallet) error {
	id, err := refAsset(t.Asset.StakeRedeem)
	if err != nil {
		return err
	}
	if err := l.Stakes.CanRequestRedeem(sender, id); err != nil {
		return err
	}
	return h.check(l, ctx, t, sender)
}

func (h StakeRedeem) ApplyToSender(l *Ledger, ctx *Context, t *tx.Transaction) error {
	id, err := refAsset(t.Asset.StakeRedeem)
	if err != nil {
		return err
	}
	sender := h.sender(l, t)
	if _, err := l.Stakes.RequestRedeem(sender, id, ctx.origin(t), ctx.Milestone); err != nil {
		return err
	}
	return h.debit(l, sender, t)
}

func (h StakeRedeem) RevertForSender(l *Ledger, _ *Context, t *tx.Transaction) error {
	id, err := refAsset(t.Asset.StakeRedeem)
	if err != nil {
		return err
	}
	return h.revert(l, t, id, journal.RedeemRequested)
}

// StakeCancel refunds a stake that has not been released yet.
type StakeCancel struct {
	stakeBase
}

func (StakeCancel) Type() tx.Type { return tx.TypeStakeCancel }

func (h StakeCancel) CanBeApplied(l *Ledger, ctx *Context, t *tx.Transaction, sender *wallet.Wallet) error {
	id, err := refAsset(t.Asset.StakeCancel)
	if err != nil {
		return err
	}
	if err := l.Stakes.CanCancel(sender, id); err != nil {
		return err
	}
	return h.check(l, ctx, t, sender)
}

func (h StakeCancel) ApplyToSender(l *Ledger, ctx *Context, t *tx.Transaction) error {
	id, err := refAsset(t.Asset.StakeCancel)
	if err != nil {
		return err
	}
	sender := h.sender(l, t)
	if _, err := l.Stakes.Cancel(sender, id, ctx.origin(t)); err != nil {
		return err
	}
	return h.debit(l, sender, t)
}

func (h StakeCancel) RevertForSender(l *Ledger, _ *Context, t *tx.Transaction) error {
	id, err := refAsset(t.Asset.StakeCancel)
	if err != nil {
		return err
	}
	return h.revert(l, t, id, journal.Canceled)
}

// StakeExtend moves a stake to a longer tier.
type StakeExtend struct {
	stakeBase
}

func (StakeExtend) Type() tx.Type { return tx.TypeStakeExtend }

func extendAsset(t *tx.Transaction) (*tx.StakeExtendAsset, error) {
	if t.Asset.StakeExtend == nil {
		return nil, reverts.New(reverts.InvalidAsset, "missing stake extension")
	}
	return t.Asset.StakeExtend, nil
}

func (h StakeExtend) CanBeApplied(l *Ledger, ctx *Context, t *tx.Transaction, sender *wallet.Wallet) error {
	a, err := extendAsset(t)
	if err != nil {
		return err
	}
	if err := l.Stakes.CanExtend(sender, a.StakeID, a.Duration, ctx.Milestone); err != nil {
		return err
	}
	return h.check(l, ctx, t, sender)
}

func (h StakeExtend) ApplyToSender(l *Ledger, ctx *Context, t *tx.Transaction) error {
	a, err := extendAsset(t)
	if err != nil {
		return err
	}
	sender := h.sender(l, t)
	if _, err := l.Stakes.Extend(sender, a.StakeID, a.Duration, ctx.origin(t), ctx.Milestone); err != nil {
		return err
	}
	return h.debit(l, sender, t)
}

func (h StakeExtend) RevertForSender(l *Ledger, _ *Context, t *tx.Transaction) error {
	a, err := extendAsset(t)
	if err != nil {
		return err
	}
	return h.revert(l, t, a.StakeID, journal.Extended)
}
