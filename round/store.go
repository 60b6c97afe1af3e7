// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package round

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/dposledger/ledger/cache"
	"github.com/dposledger/ledger/kv"
	"github.com/dposledger/ledger/log"
)

var (
	logger         = log.WithContext("pkg", "round")
	snapshotBucket = kv.Bucket("r/")
)

// Store persists round snapshots.
type Store struct {
	db    kv.Store
	cache *cache.LRU[uint64, *Snapshot]
}

// NewStore creates a store caching up to cacheSize snapshots.
func NewStore(db kv.Store, cacheSize int) (*Store, error) {
	c, err := cache.NewLRU[uint64, *Snapshot](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, cache: c}, nil
}

func roundKey(round uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], round)
	return k[:]
}

// Save writes a snapshot, replacing any previous one of the same round.
func (s *Store) Save(snap *Snapshot) error {
	data, err := rlp.EncodeToBytes(snap)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	if err := snapshotBucket.Put(s.db, roundKey(snap.Round), snappy.Encode(nil, data)); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	s.cache.Add(snap.Round, snap)
	if changed, hit, miss := s.cache.Stats(); changed {
		logger.Debug("snapshot cache stats", "hit", hit, "miss", miss)
	}
	return nil
}

// Get returns the snapshot of round. It reports false when none is saved.
func (s *Store) Get(round uint64) (*Snapshot, bool, error) {
	snap, err := s.cache.GetOrLoad(round, func(round uint64) (*Snapshot, error) {
		raw, err := snapshotBucket.Get(s.db, roundKey(round))
		if err != nil {
			return nil, err
		}
		data, err := snappy.Decode(nil, raw)
		if err != nil {
			return nil, errors.Wrap(err, "decompress snapshot")
		}
		var snap Snapshot
		if err := rlp.DecodeBytes(data, &snap); err != nil {
			return nil, errors.Wrap(err, "decode snapshot")
		}
		return &snap, nil
	})
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return snap, true, nil
}

// Delete removes the snapshot of round.
func (s *Store) Delete(round uint64) error {
	s.cache.Remove(round)
	return errors.Wrap(snapshotBucket.Delete(s.db, roundKey(round)), "delete snapshot")
}
