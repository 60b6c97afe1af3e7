// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package handlers

import (
	"regexp"

	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/tx"
	"github.com/dposledger/ledger/wallet"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9!@$&_.]{1,20}$`)

// DelegateRegistration turns the sender into a delegate.
type DelegateRegistration struct {
	base
}

func (DelegateRegistration) Type() tx.Type { return tx.TypeDelegateRegistration }

func (h DelegateRegistration) CanBeApplied(l *Ledger, ctx *Context, t *tx.Transaction, sender *wallet.Wallet) error {
	if err := noAmount(t); err != nil {
		return err
	}
	asset := t.Asset.Delegate
	if asset == nil || !usernamePattern.MatchString(asset.Username) {
		return reverts.New(reverts.InvalidAsset, "invalid delegate username")
	}
	if sender.IsDelegate() {
		return reverts.New(reverts.AlreadyDelegate, "%v is already delegate %v", sender.Address, sender.Delegate.Username)
	}
	if _, ok := l.Wallets.FindByUsername(asset.Username); ok {
		return reverts.New(reverts.UsernameTaken, "username %v is taken", asset.Username)
	}
	return h.base.CanBeApplied(l, ctx, t, sender)
}

func (h DelegateRegistration) ApplyToSender(l *Ledger, _ *Context, t *tx.Transaction) error {
	sender := h.sender(l, t)
	if err := h.debit(l, sender, t); err != nil {
		return err
	}
	sender.Delegate = &wallet.DelegateProfile{Username: t.Asset.Delegate.Username}
	l.Wallets.Index(sender)
	return nil
}

func (h DelegateRegistration) RevertForSender(l *Ledger, _ *Context, t *tx.Transaction) error {
	sender := h.sender(l, t)
	if sender.Delegate == nil || sender.Delegate.Username != t.Asset.Delegate.Username {
		return reverts.Fatal("%v is not delegate %v", sender.Address, t.Asset.Delegate.Username)
	}
	if !sender.Delegate.VoteBalance.IsZero() || sender.Delegate.ProducedBlocks > 0 {
		return reverts.Fatal("delegate %v still has votes or blocks", sender.Delegate.Username)
	}
	l.Wallets.ForgetUsername(sender.Delegate.Username)
	sender.Delegate = nil
	return h.credit(l, sender, t)
}

func (DelegateRegistration) CanEnterPool(pool Pool, t *tx.Transaction) error {
	if pool.HasType(t.Sender(), tx.TypeDelegateRegistration) {
		return reverts.New(reverts.PendingDelegateRequest, "%v already has a pending registration", t.Sender())
	}
	if t.Asset.Delegate != nil && pool.HasUsername(t.Asset.Delegate.Username) {
		return reverts.New(reverts.PendingDelegateRequest, "username %v is pending registration", t.Asset.Delegate.Username)
	}
	return nil
}
