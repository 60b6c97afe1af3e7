// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block_test

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposledger/ledger/block"
	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/tx"
)

func TestBuilderTotalFee(t *testing.T) {
	gen := ledger.PublicKeyFromSecret([]byte("gen"))
	blk := block.NewBuilder(5).
		Timestamp(40).
		Generator(gen).
		Reward(ledger.Coins(2), bn.FromUint64(15_000_000)).
		Transaction(&tx.Transaction{Fee: bn.FromUint64(7)}).
		Transaction(&tx.Transaction{Fee: bn.FromUint64(3)}).
		Build()

	assert.Equal(t, bn.FromUint64(10), blk.TotalFee)
	assert.Len(t, blk.Transactions, 2)
	assert.NotEqual(t, blk.ID(), block.NewBuilder(6).Generator(gen).Build().ID())
}

func TestReader(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for h := uint32(1); h <= 3; h++ {
		require.NoError(t, enc.Encode(block.NewBuilder(h).Timestamp(uint64(h*8)).Build()))
	}

	r := block.NewReader(&buf)
	for h := uint32(1); h <= 3; h++ {
		blk, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, h, blk.Height)
	}
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)

	buf.Reset()
	require.NoError(t, enc.Encode(block.NewBuilder(1).Build()))
	require.NoError(t, enc.Encode(block.NewBuilder(3).Build()))
	r = block.NewReader(&buf)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.Error(t, err)
}
