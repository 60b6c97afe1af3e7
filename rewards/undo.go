// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/dposledger/ledger/kv"
	"github.com/dposledger/ledger/staking/reverts"
)

var undoBucket = kv.Bucket("ru/")

// Undo remembers, per block height, the last forged height the forger had
// before the block, so reverting the block can restore it.
type Undo struct {
	prev map[uint32]uint32
}

// NewUndo creates an empty undo log.
func NewUndo() *Undo {
	return &Undo{prev: make(map[uint32]uint32)}
}

// Push records the previous last forged height of the forger of height.
func (u *Undo) Push(height, prev uint32) {
	u.prev[height] = prev
}

// Pop returns and forgets the record of height.
func (u *Undo) Pop(height uint32) (uint32, error) {
	prev, ok := u.prev[height]
	if !ok {
		return 0, reverts.Fatal("no reward undo record for #%d", height)
	}
	delete(u.prev, height)
	return prev, nil
}

// Len returns the number of records.
func (u *Undo) Len() int {
	return len(u.prev)
}

// Clone returns an independent copy.
func (u *Undo) Clone() *Undo {
	cpy := NewUndo()
	for h, p := range u.prev {
		cpy.prev[h] = p
	}
	return cpy
}

// Save replaces the persisted log.
func (u *Undo) Save(db kv.Store) error {
	if err := undoBucket.Clear(db); err != nil {
		return errors.Wrap(err, "clear reward undo")
	}
	batch := db.NewBatch()
	for h, p := range u.prev {
		var k, v [4]byte
		binary.BigEndian.PutUint32(k[:], h)
		binary.BigEndian.PutUint32(v[:], p)
		if err := undoBucket.Put(batch, k[:], v[:]); err != nil {
			return err
		}
	}
	return errors.Wrap(batch.Write(), "write reward undo")
}

// LoadUndo reads the persisted log.
func LoadUndo(db kv.Store) (*Undo, error) {
	u := NewUndo()
	err := undoBucket.Iterate(db, func(key, val []byte) error {
		if len(key) != 4 || len(val) != 4 {
			return errors.New("corrupted reward undo record")
		}
		u.prev[binary.BigEndian.Uint32(key)] = binary.BigEndian.Uint32(val)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
