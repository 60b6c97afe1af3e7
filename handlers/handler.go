// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package handlers

import (
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/milestone"
	"github.com/dposledger/ledger/staking"
	"github.com/dposledger/ledger/staking/aggregation"
	"github.com/dposledger/ledger/staking/journal"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/tx"
	"github.com/dposledger/ledger/wallet"
)

// Ledger is one replica of the wallet state a handler mutates.
type Ledger struct {
	Wallets *wallet.Repository
	Votes   *aggregation.Service
	Stakes  *staking.Engine
}

// Context is the block a transaction is applied in.
type Context struct {
	Height    uint32
	Timestamp uint64
	Milestone *milestone.Milestone
}

func (c *Context) origin(t *tx.Transaction) staking.Origin {
	return staking.Origin{
		Height:    c.Height,
		Timestamp: c.Timestamp,
		TxID:      t.ID,
		Source:    journal.SourceTx,
	}
}

// Pool is the view of pending transactions used for admission.
type Pool interface {
	// HasSenderOfGroup reports whether addr already has a pending transaction of the type group.
	HasSenderOfGroup(addr ledger.Address, group uint32) bool
	// HasType reports whether addr already has a pending transaction of the type.
	HasType(addr ledger.Address, typ tx.Type) bool
	// HasUsername reports whether a pending registration claims name.
	HasUsername(name string) bool
}

// Handler applies and reverts one transaction type. CanBeApplied checks
// every precondition so that the apply methods never fail half way.
type Handler interface {
	Type() tx.Type
	CanBeApplied(l *Ledger, ctx *Context, t *tx.Transaction, sender *wallet.Wallet) error
	ApplyToSender(l *Ledger, ctx *Context, t *tx.Transaction) error
	RevertForSender(l *Ledger, ctx *Context, t *tx.Transaction) error
	ApplyToRecipient(l *Ledger, ctx *Context, t *tx.Transaction) error
	RevertForRecipient(l *Ledger, ctx *Context, t *tx.Transaction) error
	CanEnterPool(pool Pool, t *tx.Transaction) error
}

// base implements the nonce and fee bookkeeping shared by every type.
type base struct{}

func (base) sender(l *Ledger, t *tx.Transaction) *wallet.Wallet {
	return l.Wallets.FindByPublicKey(t.SenderPublicKey)
}

func (base) CanBeApplied(_ *Ledger, _ *Context, t *tx.Transaction, sender *wallet.Wallet) error {
	if t.Nonce != sender.Nonce+1 {
		return reverts.New(reverts.InvalidNonce, "nonce %d, expected %d", t.Nonce, sender.Nonce+1)
	}
	if t.Amount.Sign() < 0 || t.Fee.Sign() < 0 {
		return reverts.New(reverts.InvalidAsset, "negative amount or fee")
	}
	if need := t.Amount.Add(t.Fee); need.Cmp(sender.Balance) > 0 {
		return reverts.New(reverts.InsufficientBalance, "need %v, balance %v", need, sender.Balance)
	}
	return nil
}

func (base) debit(l *Ledger, sender *wallet.Wallet, t *tx.Transaction) error {
	sender.Nonce++
	return l.Votes.AdjustBalance(sender, t.Amount.Add(t.Fee).Neg())
}

func (base) credit(l *Ledger, sender *wallet.Wallet, t *tx.Transaction) error {
	if sender.Nonce == 0 {
		return reverts.Fatal("nonce of %v underflows reverting %v", sender.Address, t.ID)
	}
	sender.Nonce--
	return l.Votes.AdjustBalance(sender, t.Amount.Add(t.Fee))
}

func (base) ApplyToRecipient(*Ledger, *Context, *tx.Transaction) error   { return nil }
func (base) RevertForRecipient(*Ledger, *Context, *tx.Transaction) error { return nil }
func (base) CanEnterPool(Pool, *tx.Transaction) error                    { return nil }

// noAmount rejects a transaction that moves funds it has no recipient for.
func noAmount(t *tx.Transaction) error {
	if !t.Amount.IsZero() {
		return reverts.New(reverts.InvalidAsset, "%v carries amount %v", t.Type, t.Amount)
	}
	return nil
}

// Registry maps transaction types to handlers.
type Registry struct {
	handlers map[tx.Type]Handler
}

// NewRegistry creates a registry holding hs.
func NewRegistry(hs ...Handler) *Registry {
	r := &Registry{handlers: make(map[tx.Type]Handler)}
	for _, h := range hs {
		r.Register(h)
	}
	return r
}

// Default returns a registry with every built-in handler.
func Default() *Registry {
	return NewRegistry(
		Transfer{},
		DelegateRegistration{},
		Vote{},
		StakeCreate{},
		StakeRedeem{},
		StakeCancel{},
		StakeExtend{},
	)
}

// Register adds or replaces the handler of its type.
func (r *Registry) Register(h Handler) {
	r.handlers[h.Type()] = h
}

// Get returns the handler of typ.
func (r *Registry) Get(typ tx.Type) (Handler, error) {
	h, ok := r.handlers[typ]
	if !ok {
		return nil, reverts.New(reverts.UnsupportedType, "unsupported transaction type %v", typ)
	}
	return h, nil
}

// Apply checks t and applies it to sender and recipient.
func (r *Registry) Apply(l *Ledger, ctx *Context, t *tx.Transaction) error {
	h, err := r.Get(t.Type)
	if err != nil {
		return err
	}
	if err := h.CanBeApplied(l, ctx, t, l.Wallets.FindByPublicKey(t.SenderPublicKey)); err != nil {
		return err
	}
	if err := h.ApplyToSender(l, ctx, t); err != nil {
		return err
	}
	return h.ApplyToRecipient(l, ctx, t)
}

// Revert undoes Apply, recipient first.
func (r *Registry) Revert(l *Ledger, ctx *Context, t *tx.Transaction) error {
	h, err := r.Get(t.Type)
	if err != nil {
		return err
	}
	if err := h.RevertForRecipient(l, ctx, t); err != nil {
		return err
	}
	return h.RevertForSender(l, ctx, t)
}
