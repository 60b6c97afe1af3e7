// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package manager

import (
	"maps"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposledger/ledger/block"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/milestone"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/tx"
	"github.com/dposledger/ledger/wallet"
)

// randomTx builds a transaction from fuzzed choices. It may well be
// invalid; the block carrying it is then rejected as a whole.
func (f *fixture) randomTx(fz *fuzz.Fuzzer, stakes map[ledger.PublicKey][]ledger.TxID) *tx.Transaction {
	var op, who, target uint8
	var coins uint16
	fz.Fuzz(&op)
	fz.Fuzz(&who)
	fz.Fuzz(&target)
	fz.Fuzz(&coins)
	sender := voters[int(who)%len(voters)]
	amount := uint64(coins%2_000) + 1
	durations := f.ms.At(f.height + 1).Durations()

	switch op % 6 {
	case 0:
		return f.transfer(sender, voters[int(target)%len(voters)], amount)
	case 1:
		w := f.m.Wallets().FindByPublicKey(sender)
		b := f.tx(tx.TypeVote, sender)
		if w.Vote != nil {
			b.Unvote(*w.Vote)
		}
		return b.Vote(delegates[int(target)%len(delegates)]).Build()
	case 2:
		t := f.stakeTx(sender, amount, durations[int(target)%len(durations)])
		stakes[sender] = append(stakes[sender], t.ID)
		return t
	}
	ids := stakes[sender]
	if len(ids) == 0 {
		return f.transfer(sender, delegates[int(target)%len(delegates)], amount)
	}
	id := ids[int(target)%len(ids)]
	switch op % 6 {
	case 3:
		return f.tx(tx.TypeStakeRedeem, sender).StakeRedeem(id).Build()
	case 4:
		return f.tx(tx.TypeStakeCancel, sender).StakeCancel(id).Build()
	default:
		return f.tx(tx.TypeStakeExtend, sender).StakeExtend(id, durations[int(target)%len(durations)]).Build()
	}
}

func TestRandomOperationsKeepVoteInvariant(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		fz := fuzz.NewWithSeed(seed)
		f := newTestManager(t)
		genesis := wallet.DumpAll(f.m.Wallets())
		stakes := make(map[ledger.PublicKey][]ledger.TxID)
		steps := []uint64{10, 100, 400, milestone.ThreeMonths}

		var applied []*block.Block
		for i := 0; i < 60; i++ {
			var n, gap uint8
			fz.Fuzz(&n)
			fz.Fuzz(&gap)

			nonces := maps.Clone(f.nonces)
			known := make(map[ledger.PublicKey][]ledger.TxID, len(stakes))
			for k, v := range stakes {
				known[k] = append([]ledger.TxID(nil), v...)
			}
			var txs []*tx.Transaction
			for j := 0; j < int(n%4); j++ {
				txs = append(txs, f.randomTx(fz, stakes))
			}
			b := f.block(steps[int(gap)%len(steps)], txs...)
			if err := f.m.ApplyBlock(b); err != nil {
				require.False(t, reverts.IsFatal(err), "seed %d block #%d: %v", seed, b.Height, err)
				f.nonces, stakes = nonces, known
				continue
			}
			f.height, f.ts = b.Height, b.Timestamp
			applied = append(applied, b)
			require.NoError(t, f.m.Verify(), "seed %d block #%d", seed, b.Height)
		}

		for i := len(applied) - 1; i >= 0; i-- {
			require.NoError(t, f.m.RevertBlock(applied[i]), "seed %d revert #%d", seed, applied[i].Height)
			require.NoError(t, f.m.Verify())
		}
		assert.Empty(t, wallet.Diff(genesis, wallet.DumpAll(f.m.Wallets())), "seed %d", seed)
	}
}
