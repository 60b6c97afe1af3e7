// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package round

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dposledger/ledger/milestone"
)

// Info locates a height within its round.
type Info struct {
	Round        uint64
	RoundHeight  uint32 // first height of the round
	NextRound    uint64
	MaxDelegates uint32
}

func (i Info) String() string {
	return fmt.Sprintf("Round(%d from #%d, %d delegates)", i.Round, i.RoundHeight, i.MaxDelegates)
}

// LastHeight returns the last height of the round.
func (i Info) LastHeight() uint32 {
	return i.RoundHeight + i.MaxDelegates - 1
}

type span struct {
	height    uint32 // first height of the span
	round     uint64 // round starting at height
	delegates uint32
}

// Calculator maps heights to rounds. A round holds one block per active
// delegate, so rounds change size only where the active delegate count does.
type Calculator struct {
	spans []span
}

// NewCalculator builds the round spans of a milestone set. A change of the
// active delegate count must fall on a round boundary.
func NewCalculator(ms *milestone.Set) (*Calculator, error) {
	all := ms.All()
	c := &Calculator{spans: []span{{height: 1, round: 1, delegates: all[0].ActiveDelegates}}}
	for _, m := range all[1:] {
		last := c.spans[len(c.spans)-1]
		if m.ActiveDelegates == last.delegates {
			continue
		}
		length := m.Height - last.height
		if length%last.delegates != 0 {
			return nil, errors.Errorf("milestone #%d changes active delegates off a round boundary", m.Height)
		}
		c.spans = append(c.spans, span{
			height:    m.Height,
			round:     last.round + uint64(length/last.delegates),
			delegates: m.ActiveDelegates,
		})
	}
	return c, nil
}

// Calculate returns the round of height.
func (c *Calculator) Calculate(height uint32) Info {
	if height == 0 {
		height = 1
	}
	s := c.spans[0]
	for _, next := range c.spans[1:] {
		if next.height > height {
			break
		}
		s = next
	}
	offset := (height - s.height) / s.delegates
	round := s.round + uint64(offset)
	return Info{
		Round:        round,
		RoundHeight:  s.height + offset*s.delegates,
		NextRound:    round + 1,
		MaxDelegates: s.delegates,
	}
}

// IsNewRound reports whether height is the first block of a round.
func (c *Calculator) IsNewRound(height uint32) bool {
	return c.Calculate(height).RoundHeight == height
}
