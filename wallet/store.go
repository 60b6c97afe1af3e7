// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wallet

import (
	"bytes"
	"encoding/binary"
	"encoding/json"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/qianbin/directcache"

	"github.com/dposledger/ledger/kv"
	"github.com/dposledger/ledger/ledger"
	"github.com/dposledger/ledger/log"
)

var logger = log.WithContext("pkg", "wallet")

var (
	walletBucket = kv.Bucket("w/")
	metaBucket   = kv.Bucket("m/")
	heightKey    = []byte("height")
)

// Store persists a repository. Wallets are encoded as JSON, stakes inline,
// and compressed with snappy. Blobs of the last save are kept in a cache so
// that unchanged wallets are not rewritten.
type Store struct {
	db        kv.Store
	committed *directcache.Cache
}

// NewStore creates a store on db caching up to cacheMB of committed blobs.
func NewStore(db kv.Store, cacheMB int) *Store {
	return &Store{db, directcache.New(max(cacheMB, 1) * 1024 * 1024)}
}

// isCommitted reports whether blob is known to be stored under addr.
func (s *Store) isCommitted(addr []byte, blob []byte) bool {
	same := false
	s.committed.AdvGet(addr, func(val []byte) {
		same = bytes.Equal(val, blob)
	}, true)
	return same
}

// Save writes the repository content, tagged with height. Wallets missing
// from r are deleted.
func (s *Store) Save(r *Repository, height uint32) error {
	var (
		batch   = s.db.NewBatch()
		live    = make(map[ledger.Address]bool, r.Len())
		written = make(map[ledger.Address][]byte)
	)
	for _, w := range r.All() {
		live[w.Address] = true
		data, err := json.Marshal(w)
		if err != nil {
			return errors.Wrapf(err, "encode wallet %v", w.Address)
		}
		blob := snappy.Encode(nil, data)
		if s.isCommitted(w.Address[:], blob) {
			continue
		}
		if err := walletBucket.Put(batch, w.Address[:], blob); err != nil {
			return err
		}
		written[w.Address] = blob
	}

	var removed [][]byte
	if err := walletBucket.Iterate(s.db, func(key, _ []byte) error {
		var addr ledger.Address
		copy(addr[:], key)
		if !live[addr] {
			removed = append(removed, addr[:])
			return walletBucket.Delete(batch, addr[:])
		}
		return nil
	}); err != nil {
		return errors.Wrap(err, "scan wallets")
	}

	var h [4]byte
	binary.BigEndian.PutUint32(h[:], height)
	if err := metaBucket.Put(batch, heightKey, h[:]); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "write wallets")
	}
	for addr, blob := range written {
		s.committed.Set(addr[:], blob)
	}
	for _, addr := range removed {
		s.committed.Del(addr)
	}
	logger.Debug("saved wallets", "height", height, "written", len(written), "removed", len(removed))
	return nil
}

// Load reads the persisted repository and the height it was saved at.
// An empty store yields an empty repository at height 0.
func (s *Store) Load() (*Repository, uint32, error) {
	r := NewRepository()
	var height uint32
	h, err := metaBucket.Get(s.db, heightKey)
	switch {
	case err == nil:
		height = binary.BigEndian.Uint32(h)
	case s.db.IsNotFound(err):
		return r, 0, nil
	default:
		return nil, 0, errors.Wrap(err, "read height")
	}

	err = walletBucket.Iterate(s.db, func(_, val []byte) error {
		data, err := snappy.Decode(nil, val)
		if err != nil {
			return errors.Wrap(err, "decompress wallet")
		}
		var w Wallet
		if err := json.Unmarshal(data, &w); err != nil {
			return errors.Wrap(err, "decode wallet")
		}
		r.Index(&w)
		s.committed.Set(w.Address[:], val)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return r, height, nil
}
