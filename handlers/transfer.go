// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package handlers

import (
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/tx"
	"github.com/dposledger/ledger/wallet"
)

// Transfer moves funds between wallets.
type Transfer struct {
	base
}

func (Transfer) Type() tx.Type { return tx.TypeTransfer }

func (h Transfer) CanBeApplied(l *Ledger, ctx *Context, t *tx.Transaction, sender *wallet.Wallet) error {
	if t.Recipient == nil {
		return reverts.New(reverts.InvalidAsset, "transfer without recipient")
	}
	if t.Amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidAsset, "transfer amount %v", t.Amount)
	}
	return h.base.CanBeApplied(l, ctx, t, sender)
}

func (h Transfer) ApplyToSender(l *Ledger, _ *Context, t *tx.Transaction) error {
	return h.debit(l, h.sender(l, t), t)
}

func (h Transfer) RevertForSender(l *Ledger, _ *Context, t *tx.Transaction) error {
	return h.credit(l, h.sender(l, t), t)
}

func (Transfer) ApplyToRecipient(l *Ledger, _ *Context, t *tx.Transaction) error {
	return l.Votes.AdjustBalance(l.Wallets.FindByAddress(*t.Recipient), t.Amount)
}

func (Transfer) RevertForRecipient(l *Ledger, _ *Context, t *tx.Transaction) error {
	return l.Votes.AdjustBalance(l.Wallets.FindByAddress(*t.Recipient), t.Amount.Neg())
}
