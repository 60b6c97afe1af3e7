// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/tx"
)

// Builder to make it easy to build a block.
type Builder struct {
	blk Block
}

// NewBuilder starts a block at the given height.
func NewBuilder(height uint32) *Builder {
	return &Builder{blk: Block{Height: height}}
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(ts uint64) *Builder {
	b.blk.Timestamp = ts
	return b
}

// Generator set the forging delegate.
func (b *Builder) Generator(pk ledger.PublicKey) *Builder {
	b.blk.GeneratorPublicKey = pk
	return b
}

// Reward set the forger reward and the top delegate reward.
func (b *Builder) Reward(reward, topReward bn.Int) *Builder {
	b.blk.Reward = reward
	b.blk.TopReward = topReward
	return b
}

// RemovedFee set the fee removed from circulation.
func (b *Builder) RemovedFee(v bn.Int) *Builder {
	b.blk.RemovedFee = v
	return b
}

// Transaction add a transaction.
func (b *Builder) Transaction(t *tx.Transaction) *Builder {
	b.blk.Transactions = append(b.blk.Transactions, t)
	return b
}

// Build builds the block, setting TotalFee from the transactions.
func (b *Builder) Build() *Block {
	blk := b.blk
	blk.Transactions = append(tx.Transactions(nil), b.blk.Transactions...)
	blk.TotalFee = blk.Transactions.TotalFee()
	return &blk
}
