// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wallet

import (
	"bytes"
	"sort"

	"github.com/dposledger/ledger/ledger"
)

// Repository indexes wallets by address, public key and delegate username.
// Wallets are created lazily on first lookup.
type Repository struct {
	byAddress   map[ledger.Address]*Wallet
	byPublicKey map[ledger.PublicKey]*Wallet
	byUsername  map[string]*Wallet
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		byAddress:   make(map[ledger.Address]*Wallet),
		byPublicKey: make(map[ledger.PublicKey]*Wallet),
		byUsername:  make(map[string]*Wallet),
	}
}

// FindByAddress returns the wallet at addr, creating it if unknown.
func (r *Repository) FindByAddress(addr ledger.Address) *Wallet {
	w, ok := r.byAddress[addr]
	if !ok {
		w = New(addr)
		r.byAddress[addr] = w
	}
	return w
}

// FindByPublicKey returns the wallet owned by pk, creating it if unknown.
func (r *Repository) FindByPublicKey(pk ledger.PublicKey) *Wallet {
	if w, ok := r.byPublicKey[pk]; ok {
		return w
	}
	w := r.FindByAddress(pk.Address())
	if w.PublicKey == nil {
		cpy := pk
		w.PublicKey = &cpy
	}
	r.byPublicKey[pk] = w
	return w
}

// Has reports whether a wallet exists at addr.
func (r *Repository) Has(addr ledger.Address) bool {
	_, ok := r.byAddress[addr]
	return ok
}

// HasPublicKey reports whether a wallet with the given public key exists.
func (r *Repository) HasPublicKey(pk ledger.PublicKey) bool {
	_, ok := r.byPublicKey[pk]
	return ok
}

// FindByUsername returns the delegate registered under name.
func (r *Repository) FindByUsername(name string) (*Wallet, bool) {
	w, ok := r.byUsername[name]
	return w, ok
}

// Delegate returns the delegate wallet owning pk.
func (r *Repository) Delegate(pk ledger.PublicKey) (*Wallet, bool) {
	w, ok := r.byPublicKey[pk]
	if !ok || !w.IsDelegate() {
		return nil, false
	}
	return w, true
}

// Index refreshes the secondary indexes of w after its public key or delegate profile changed.
func (r *Repository) Index(w *Wallet) {
	r.byAddress[w.Address] = w
	if w.PublicKey != nil {
		r.byPublicKey[*w.PublicKey] = w
	}
	if w.Delegate != nil {
		r.byUsername[w.Delegate.Username] = w
	}
}

// ForgetUsername removes a username from the index.
func (r *Repository) ForgetUsername(name string) {
	delete(r.byUsername, name)
}

// Purge removes the wallet at addr if it is empty and not a delegate.
func (r *Repository) Purge(addr ledger.Address) bool {
	w, ok := r.byAddress[addr]
	if !ok || !w.IsEmpty() {
		return false
	}
	delete(r.byAddress, addr)
	if w.PublicKey != nil {
		delete(r.byPublicKey, *w.PublicKey)
	}
	return true
}

// Len returns the number of wallets.
func (r *Repository) Len() int {
	return len(r.byAddress)
}

// All returns every wallet ordered by address.
func (r *Repository) All() []*Wallet {
	out := make([]*Wallet, 0, len(r.byAddress))
	for _, w := range r.byAddress {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}

// Delegates returns every delegate wallet ordered by public key.
func (r *Repository) Delegates() []*Wallet {
	out := make([]*Wallet, 0, len(r.byUsername))
	for _, w := range r.byUsername {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PublicKey.Less(*out[j].PublicKey)
	})
	return out
}

// Clone returns a deep copy of the repository and every wallet in it.
func (r *Repository) Clone() *Repository {
	cpy := NewRepository()
	for _, w := range r.byAddress {
		cpy.Index(w.Clone())
	}
	return cpy
}
