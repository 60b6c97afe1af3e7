// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package manager

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/wallet"
)

// Allocation funds a wallet before the first block. A username registers
// the wallet as delegate, a vote points its weight at a genesis delegate.
type Allocation struct {
	PublicKey ledger.PublicKey  `json:"publicKey" yaml:"publicKey"`
	Balance   bn.Int            `json:"balance" yaml:"balance"`
	Username  string            `json:"username,omitempty" yaml:"username,omitempty"`
	Vote      *ledger.PublicKey `json:"vote,omitempty" yaml:"vote,omitempty"`
}

// Genesis is the initial wallet state.
type Genesis struct {
	Allocations []Allocation `json:"allocations" yaml:"allocations"`
}

// LoadGenesis reads a genesis file. JSON is accepted as a subset of YAML.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	var g Genesis
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return &g, nil
}

// Seed applies the genesis allocations to an empty ledger.
func (m *Manager) Seed(g *Genesis) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	repo := m.db.ledger.Wallets
	if m.height != 0 || repo.Len() != 0 {
		return errors.Wrapf(errNotEmpty, "height %d, %d wallets", m.height, repo.Len())
	}
	for _, a := range g.Allocations {
		if a.Balance.Sign() < 0 {
			return errors.Errorf("negative genesis balance of %v", a.PublicKey)
		}
		w := repo.FindByPublicKey(a.PublicKey)
		w.Balance = w.Balance.Add(a.Balance)
		if a.Username != "" {
			if _, ok := repo.FindByUsername(a.Username); ok {
				return errors.Errorf("duplicate genesis delegate %v", a.Username)
			}
			w.Delegate = &wallet.DelegateProfile{Username: a.Username}
			repo.Index(w)
		}
	}
	for _, a := range g.Allocations {
		if a.Vote == nil {
			continue
		}
		if err := m.db.ledger.Votes.Vote(repo.FindByPublicKey(a.PublicKey), *a.Vote); err != nil {
			return errors.WithMessagef(err, "genesis vote of %v", a.PublicKey)
		}
	}
	if err := m.db.ledger.Votes.Verify(); err != nil {
		return err
	}
	m.resyncPool()
	logger.Info("genesis seeded", "wallets", repo.Len(), "delegates", len(repo.Delegates()))
	return nil
}
