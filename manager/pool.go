// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package manager

import (
	"github.com/pkg/errors"

	"github.com/dposledger/ledger/handlers"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/staking/reverts"
	"github.com/dposledger/ledger/tx"
)

// poolView answers admission queries from the pending transactions.
type poolView []*tx.Transaction

func (p poolView) HasSenderOfGroup(addr ledger.Address, group uint32) bool {
	for _, t := range p {
		if t.Type.Group == group && t.Sender() == addr {
			return true
		}
	}
	return false
}

func (p poolView) HasType(addr ledger.Address, typ tx.Type) bool {
	for _, t := range p {
		if t.Type == typ && t.Sender() == addr {
			return true
		}
	}
	return false
}

func (p poolView) HasUsername(name string) bool {
	for _, t := range p {
		if t.Type == tx.TypeDelegateRegistration && t.Asset.Delegate != nil && t.Asset.Delegate.Username == name {
			return true
		}
	}
	return false
}

// poolContext is the block pending transactions are checked against.
func (m *Manager) poolContext() *handlers.Context {
	return &handlers.Context{
		Height:    m.height + 1,
		Timestamp: m.timestamp,
		Milestone: m.milestones.At(m.height + 1),
	}
}

func (m *Manager) pendingIndex(id ledger.TxID) int {
	for i, t := range m.pending {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// resyncPool rebuilds the pool replica from the db replica and reapplies
// the pending transactions, dropping those no longer applicable.
func (m *Manager) resyncPool() {
	m.pool = m.db.clone("pool")
	ctx := m.poolContext()
	kept := m.pending[:0]
	for _, t := range m.pending {
		if err := m.registry.Apply(m.pool.ledger, ctx, t); err != nil {
			logger.Debug("dropped pending transaction", "tx", t.ID, "err", err)
			continue
		}
		kept = append(kept, t)
	}
	for i := len(kept); i < len(m.pending); i++ {
		m.pending[i] = nil
	}
	m.pending = kept
	metricPoolSize().Set(int64(len(m.pending)))
}

// Pending returns the pending transactions in admission order.
func (m *Manager) Pending() []*tx.Transaction {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]*tx.Transaction(nil), m.pending...)
}

// AddToPool admits t: the handler's pool rules are checked against the
// pending transactions before t is applied to the pool replica.
func (m *Manager) AddToPool(t *tx.Transaction) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	h, err := m.registry.Get(t.Type)
	if err != nil {
		return err
	}
	if m.pendingIndex(t.ID) >= 0 {
		return errors.Wrapf(errKnownTx, "%v", t.ID)
	}
	if err := h.CanEnterPool(poolView(m.pending), t); err != nil {
		if reason, ok := reverts.ReasonOf(err); ok {
			metricRejectedTxs().AddWithLabel(1, map[string]string{"reason": string(reason)})
		}
		return err
	}
	return m.applyTransaction(t)
}

// ApplyTransaction applies t to the pool replica without the admission rules.
func (m *Manager) ApplyTransaction(t *tx.Transaction) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.pendingIndex(t.ID) >= 0 {
		return errors.Wrapf(errKnownTx, "%v", t.ID)
	}
	return m.applyTransaction(t)
}

func (m *Manager) applyTransaction(t *tx.Transaction) error {
	if err := m.registry.Apply(m.pool.ledger, m.poolContext(), t); err != nil {
		if reason, ok := reverts.ReasonOf(err); ok {
			metricRejectedTxs().AddWithLabel(1, map[string]string{"reason": string(reason)})
		}
		return err
	}
	m.pending = append(m.pending, t)
	metricPoolSize().Set(int64(len(m.pending)))
	return nil
}

// RevertTransaction removes a pending transaction from the pool replica.
// The newest one is reverted in place; removing an older one rebuilds the
// pool from the db replica.
func (m *Manager) RevertTransaction(id ledger.TxID) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	i := m.pendingIndex(id)
	if i < 0 {
		return errors.Wrapf(errUnknownTx, "%v", id)
	}
	if i == len(m.pending)-1 {
		if err := m.registry.Revert(m.pool.ledger, m.poolContext(), m.pending[i]); err != nil {
			return err
		}
		m.pending[i] = nil
		m.pending = m.pending[:i]
		metricPoolSize().Set(int64(len(m.pending)))
		return nil
	}
	m.pending = append(m.pending[:i], m.pending[i+1:]...)
	m.resyncPool()
	return nil
}
