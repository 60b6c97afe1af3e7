// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dposledger/ledger/round"
)

// printRanking writes the ranked delegates as a table. Delegates within the
// active set are marked with a star. top <= 0 prints all of them.
func printRanking(w io.Writer, rnd uint64, ranked []round.Entry, active, top int) error {
	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}
	fmt.Fprintf(w, "round %d, %d active\n", rnd, active)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSERNAME\tVOTES\tPUBLIC KEY\t")
	for i, e := range ranked {
		mark := ""
		if i < active {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%v\t%v\t\n", i+1, mark, e.Username, e.VoteBalance, e.PublicKey)
	}
	return tw.Flush()
}
