// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Blake2b computes blake2b-256 checksum for given data.
func Blake2b(data ...[]byte) Bytes32 {
	if len(data) == 1 {
		return blake2b.Sum256(data[0])
	}
	h, _ := blake2b.New256(nil)
	for _, b := range data {
		h.Write(b)
	}
	var out Bytes32
	h.Sum(out[:0])
	return out
}

// RoundSeed returns the seed used to shuffle the forging order of a round.
func RoundSeed(round uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], round)
	seed := Blake2b(b[:])
	return seed[:]
}
