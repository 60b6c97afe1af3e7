// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"encoding/binary"
	"fmt"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/tx"
)

// Block is the envelope handed over by the host after consensus validation.
// TotalFee and RemovedFee are recorded by the forger and checked against the
// values computed during application.
type Block struct {
	Height             uint32           `json:"height"`
	Timestamp          uint64           `json:"timestamp"`
	GeneratorPublicKey ledger.PublicKey `json:"generatorPublicKey"`
	Reward             bn.Int           `json:"reward"`
	TopReward          bn.Int           `json:"topReward"`
	TotalFee           bn.Int           `json:"totalFee"`
	RemovedFee         bn.Int           `json:"removedFee"`
	Transactions       tx.Transactions  `json:"transactions"`
}

// ID returns an identifier derived from the height, time and generator.
func (b *Block) ID() ledger.Bytes32 {
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[:4], b.Height)
	binary.BigEndian.PutUint64(buf[4:], b.Timestamp)
	return ledger.Blake2b(buf[:], b.GeneratorPublicKey.Bytes())
}

func (b *Block) String() string {
	return fmt.Sprintf("Block(#%d ts=%d txs=%d generator=%v)", b.Height, b.Timestamp, len(b.Transactions), b.GeneratorPublicKey)
}
