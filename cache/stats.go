// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import "sync/atomic"

// Stats counts cache hits and misses.
type Stats struct {
	hit, miss atomic.Int64
	permille  atomic.Int32
}

// Hit records a hit.
func (s *Stats) Hit() int64 { return s.hit.Add(1) }

// Miss records a miss.
func (s *Stats) Miss() int64 { return s.miss.Add(1) }

// Stats returns the hits and misses so far and whether the hit rate, in
// permille, differs from the one seen by the previous call.
func (s *Stats) Stats() (bool, int64, int64) {
	hit, miss := s.hit.Load(), s.miss.Load()
	var rate int32
	if total := hit + miss; total > 0 {
		rate = int32(hit * 1000 / total)
	}
	return s.permille.Swap(rate) != rate, hit, miss
}
