// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package round

import (
	"encoding/binary"

	"github.com/dposledger/ledger/ledger"
)

// seatDraw yields the indices used to seat a round's active delegates.
// Each blake2b digest of the counter-prefixed round seed gives eight draws.
type seatDraw struct {
	buf    []byte
	digest ledger.Bytes32
	block  uint32
	drawn  uint32
}

func newSeatDraw(seed []byte) *seatDraw {
	buf := make([]byte, 4+len(seed))
	copy(buf[4:], seed)
	return &seatDraw{buf: buf}
}

// below returns a draw in [0, n). n must be positive.
func (d *seatDraw) below(n int) int {
	if n <= 0 {
		panic("round: seat draw bound must be positive")
	}
	word := d.drawn % 8
	if word == 0 {
		binary.BigEndian.PutUint32(d.buf, d.block)
		d.digest = ledger.Blake2b(d.buf)
		d.block++
	}
	d.drawn++
	return int(binary.BigEndian.Uint32(d.digest[word*4:]) % uint32(n))
}

// Shuffle fills perm with a permutation of its indices derived from seed.
// Every node computes the same forging order for a round seed.
func Shuffle(seed []byte, perm []int) {
	for i := range perm {
		perm[i] = i
	}
	if len(perm) < 2 {
		return
	}
	d := newSeatDraw(seed)
	for i := 0; i < len(perm)-1; i++ {
		j := i + d.below(len(perm)-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
}
