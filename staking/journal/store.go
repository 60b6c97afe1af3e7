// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package journal

import (
	"encoding/binary"
	"encoding/json"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/dposledger/ledger/kv"
)

var (
	entryBucket = kv.Bucket("j/")
	seqKey      = []byte("journal-seq")
	metaBucket  = kv.Bucket("jm/")
)

// Save replaces the persisted journal.
func (j *Journal) Save(db kv.Store) error {
	if err := entryBucket.Clear(db); err != nil {
		return errors.Wrap(err, "clear journal")
	}
	batch := db.NewBatch()
	for id, entries := range j.byStake {
		data, err := json.Marshal(entries)
		if err != nil {
			return errors.Wrapf(err, "encode journal of %v", id)
		}
		if err := entryBucket.Put(batch, id[:], snappy.Encode(nil, data)); err != nil {
			return err
		}
	}
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], j.seq)
	if err := metaBucket.Put(batch, seqKey, seq[:]); err != nil {
		return err
	}
	return errors.Wrap(batch.Write(), "write journal")
}

// Load reads a persisted journal. An empty store yields an empty journal.
func Load(db kv.Store) (*Journal, error) {
	j := New()
	raw, err := metaBucket.Get(db, seqKey)
	if err != nil {
		if db.IsNotFound(err) {
			return j, nil
		}
		return nil, errors.Wrap(err, "read journal seq")
	}
	j.seq = binary.BigEndian.Uint64(raw)

	err = entryBucket.Iterate(db, func(_, val []byte) error {
		data, err := snappy.Decode(nil, val)
		if err != nil {
			return errors.Wrap(err, "decompress journal")
		}
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return errors.Wrap(err, "decode journal")
		}
		for _, e := range entries {
			j.byStake[e.StakeID] = append(j.byStake[e.StakeID], e)
			if e.Source == SourceScheduler {
				j.scheduled[e.Height] = append(j.scheduled[e.Height], ref{e.StakeID, e.Seq})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return j, nil
}
