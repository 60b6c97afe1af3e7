// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package milestone

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Set is a height ordered list of milestones.
type Set struct {
	milestones []Milestone
}

// NewSet validates and sorts the milestones.
func NewSet(ms []Milestone) (*Set, error) {
	if len(ms) == 0 {
		return nil, errors.New("no milestones")
	}
	sorted := append([]Milestone(nil), ms...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Height < sorted[j].Height })

	if sorted[0].Height != 1 {
		return nil, errors.Errorf("first milestone must start at height 1, got %d", sorted[0].Height)
	}
	for i := range sorted {
		m := &sorted[i]
		if i > 0 && m.Height == sorted[i-1].Height {
			return nil, errors.Errorf("duplicate milestone height %d", m.Height)
		}
		if m.ActiveDelegates == 0 {
			return nil, errors.Errorf("milestone #%d: activeDelegates must be > 0", m.Height)
		}
		if m.TopDelegates > m.ActiveDelegates {
			return nil, errors.Errorf("milestone #%d: topDelegates %d exceeds activeDelegates %d", m.Height, m.TopDelegates, m.ActiveDelegates)
		}
		if m.BlockTime == 0 {
			return nil, errors.Errorf("milestone #%d: blockTime must be > 0", m.Height)
		}
		for d, mul := range m.StakeLevels {
			if d == 0 || mul == 0 {
				return nil, errors.Errorf("milestone #%d: invalid stake level %d:%d", m.Height, d, mul)
			}
		}
		if m.Reward.Sign() < 0 || m.TopReward.Sign() < 0 || m.MinimumStake.Sign() < 0 {
			return nil, errors.Errorf("milestone #%d: negative amount", m.Height)
		}
		if m.BalanceVoteWeight != sorted[0].BalanceVoteWeight {
			return nil, errors.Errorf("milestone #%d: balanceVoteWeight cannot change after genesis", m.Height)
		}
	}
	return &Set{sorted}, nil
}

// MustNewSet is like NewSet but panics on error.
func MustNewSet(ms []Milestone) *Set {
	s, err := NewSet(ms)
	if err != nil {
		panic(err)
	}
	return s
}

// At returns the milestone in effect at the given height.
func (s *Set) At(height uint32) *Milestone {
	i := sort.Search(len(s.milestones), func(i int) bool { return s.milestones[i].Height > height })
	if i == 0 {
		return &s.milestones[0]
	}
	return &s.milestones[i-1]
}

// All returns every milestone in height order.
func (s *Set) All() []Milestone {
	return append([]Milestone(nil), s.milestones...)
}

// BalanceVoteWeight reports whether spendable balances count as vote weight on this network.
func (s *Set) BalanceVoteWeight() bool {
	return s.milestones[0].BalanceVoteWeight
}

type file struct {
	Milestones []Milestone `json:"milestones" yaml:"milestones"`
}

// Load reads a milestone set from a .yaml, .yml or .json file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read milestones")
	}
	var f file
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &f)
	default:
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode milestones [%v]", path)
	}
	return NewSet(f.Milestones)
}

// ForNetwork returns a built-in set by name.
func ForNetwork(name string) (*Set, error) {
	switch name {
	case "mainnet":
		return Mainnet(), nil
	case "devnet":
		return Devnet(), nil
	}
	return nil, errors.Errorf("unknown network %q", name)
}
