// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wallet

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump renders a wallet deterministically, for snapshot comparisons.
func Dump(w *Wallet) string {
	return dumpConfig.Sdump(w)
}

// DumpAll renders every wallet of the repository in address order.
func DumpAll(r *Repository) string {
	return dumpConfig.Sdump(r.All())
}

// Diff returns a unified diff of two dumps, empty when they are equal.
func Diff(before, after string) string {
	if before == after {
		return ""
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  2,
	})
	return diff
}
