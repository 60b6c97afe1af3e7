// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
)

// Builder to make it easy to build transaction.
type Builder struct {
	tx Transaction
}

// NewBuilder starts a transaction of the given type.
func NewBuilder(typ Type) *Builder {
	return &Builder{tx: Transaction{Type: typ}}
}

// Sender set sender public key.
func (b *Builder) Sender(pk ledger.PublicKey) *Builder {
	b.tx.SenderPublicKey = pk
	return b
}

// Recipient set recipient address.
func (b *Builder) Recipient(addr ledger.Address) *Builder {
	b.tx.Recipient = &addr
	return b
}

// Amount set transferred amount.
func (b *Builder) Amount(v bn.Int) *Builder {
	b.tx.Amount = v
	return b
}

// Fee set fee.
func (b *Builder) Fee(v bn.Int) *Builder {
	b.tx.Fee = v
	return b
}

// Nonce set nonce.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.tx.Nonce = nonce
	return b
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(ts uint64) *Builder {
	b.tx.Timestamp = ts
	return b
}

// Username set delegate registration asset.
func (b *Builder) Username(name string) *Builder {
	b.tx.Asset.Delegate = &DelegateAsset{Username: name}
	return b
}

// Vote add a "+publicKey" entry.
func (b *Builder) Vote(pk ledger.PublicKey) *Builder {
	b.tx.Asset.Votes = append(b.tx.Asset.Votes, "+"+pk.String())
	return b
}

// Unvote add a "-publicKey" entry.
func (b *Builder) Unvote(pk ledger.PublicKey) *Builder {
	b.tx.Asset.Votes = append(b.tx.Asset.Votes, "-"+pk.String())
	return b
}

// StakeCreate set stake create asset.
func (b *Builder) StakeCreate(amount bn.Int, duration, timestamp uint64) *Builder {
	b.tx.Asset.StakeCreate = &StakeCreateAsset{Amount: amount, Duration: duration, Timestamp: timestamp}
	return b
}

// StakeRedeem set stake redeem asset.
func (b *Builder) StakeRedeem(id ledger.TxID) *Builder {
	b.tx.Asset.StakeRedeem = &StakeRefAsset{StakeID: id}
	return b
}

// StakeCancel set stake cancel asset.
func (b *Builder) StakeCancel(id ledger.TxID) *Builder {
	b.tx.Asset.StakeCancel = &StakeRefAsset{StakeID: id}
	return b
}

// StakeExtend set stake extend asset.
func (b *Builder) StakeExtend(id ledger.TxID, duration uint64) *Builder {
	b.tx.Asset.StakeExtend = &StakeExtendAsset{StakeID: id, Duration: duration}
	return b
}

// Build builds a tx object with its id computed.
func (b *Builder) Build() *Transaction {
	t := b.tx
	t.Asset.Votes = append([]string(nil), b.tx.Asset.Votes...)
	if len(t.Asset.Votes) == 0 {
		t.Asset.Votes = nil
	}
	t.ID = t.ComputeID()
	return &t
}
