// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dposledger/ledger/bn"
	"github.com/dposledger/ledger/ledger"
)

// DelegateAsset registers the sender as a delegate.
type DelegateAsset struct {
	Username string `json:"username"`
}

// StakeCreateAsset locks Amount for Duration seconds. Timestamp is the
// creation time claimed by the sender, checked against the block time.
type StakeCreateAsset struct {
	Amount    bn.Int `json:"amount"`
	Duration  uint64 `json:"duration"`
	Timestamp uint64 `json:"timestamp"`
}

// StakeRefAsset references an existing stake by the id of its creating transaction.
type StakeRefAsset struct {
	StakeID ledger.TxID `json:"stakeId"`
}

// StakeExtendAsset moves a stake to a longer tier.
type StakeExtendAsset struct {
	StakeID  ledger.TxID `json:"stakeId"`
	Duration uint64      `json:"duration"`
}

// Asset holds the type specific payload. Exactly one field is set for
// non-transfer transactions.
type Asset struct {
	Delegate    *DelegateAsset    `json:"delegate,omitempty"`
	Votes       []string          `json:"votes,omitempty"`
	StakeCreate *StakeCreateAsset `json:"stakeCreate,omitempty"`
	StakeRedeem *StakeRefAsset    `json:"stakeRedeem,omitempty"`
	StakeCancel *StakeRefAsset    `json:"stakeCancel,omitempty"`
	StakeExtend *StakeExtendAsset `json:"stakeExtend,omitempty"`
}

// Transaction is the envelope handed over by the host after signature verification.
type Transaction struct {
	ID              ledger.TxID      `json:"id"`
	Type            Type             `json:"-"`
	SenderPublicKey ledger.PublicKey `json:"senderPublicKey"`
	Recipient       *ledger.Address  `json:"recipientId,omitempty"`
	Amount          bn.Int           `json:"amount"`
	Fee             bn.Int           `json:"fee"`
	Nonce           uint64           `json:"nonce"`
	Timestamp       uint64           `json:"timestamp"`
	Asset           Asset            `json:"asset"`
}

// MarshalJSON flattens the type fields next to the envelope fields.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		*plain
		Type
	}{(*plain)(t), t.Type})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	var v struct {
		plain
		Type
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Transaction(v.plain)
	t.Type = v.Type
	return nil
}

// Sender returns the address of the sender.
func (t *Transaction) Sender() ledger.Address {
	return t.SenderPublicKey.Address()
}

// ComputeID returns the id derived from the envelope fields. Hosts assign
// ids themselves; this is used by tools that fabricate transactions.
func (t *Transaction) ComputeID() ledger.TxID {
	asset, _ := json.Marshal(t.Asset)
	var recipient []byte
	if t.Recipient != nil {
		recipient = t.Recipient.Bytes()
	}
	data, _ := rlp.EncodeToBytes([]any{
		t.Type.Group,
		uint64(t.Type.Type),
		t.SenderPublicKey.Bytes(),
		recipient,
		t.Amount,
		t.Fee,
		t.Nonce,
		t.Timestamp,
		asset,
	})
	return ledger.Blake2b(data)
}

// Transactions a slice of transactions.
type Transactions []*Transaction

// TotalFee sums the fees of all transactions.
func (txs Transactions) TotalFee() bn.Int {
	var sum bn.Int
	for _, t := range txs {
		sum = sum.Add(t.Fee)
	}
	return sum
}
