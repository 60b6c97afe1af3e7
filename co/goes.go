// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Goes groups background work of the daemon, such as the admin server or
// the clock check, so shutdown can wait on it in one place.
type Goes struct {
	wg sync.WaitGroup
}

// Go starts f as part of the group.
func (g *Goes) Go(f func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f()
	}()
}

// Wait returns after all work of the group has finished.
func (g *Goes) Wait() {
	g.wg.Wait()
}

// Done is Wait as a channel, for use in a select with a shutdown timeout.
func (g *Goes) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	return done
}
