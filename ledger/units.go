// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "github.com/dposledger/ledger/bn"

// SATOSHI is the number of base units in one whole coin.
const SATOSHI uint64 = 100_000_000

// Coins returns n whole coins expressed in base units.
func Coins(n uint64) bn.Int {
	return bn.FromUint64(n).MulUint64(SATOSHI)
}

// IsWholeUnit reports whether v is a multiple of SATOSHI.
func IsWholeUnit(v bn.Int) bool {
	return v.ModUint64(SATOSHI).IsZero()
}
