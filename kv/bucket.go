// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides logical bucket for kv store by prefixing keys.
type Bucket string

func (b Bucket) key(k []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(k)), b...), k...)
}

// Range returns the range covering every key of the bucket.
func (b Bucket) Range() Range {
	return Range{Start: []byte(b), Limit: prefixLimit([]byte(b))}
}

// Get reads key from the bucket.
func (b Bucket) Get(src Getter, key []byte) ([]byte, error) {
	return src.Get(b.key(key))
}

// Put writes key into the bucket.
func (b Bucket) Put(dst Putter, key, val []byte) error {
	return dst.Put(b.key(key), val)
}

// Delete removes key from the bucket.
func (b Bucket) Delete(dst Putter, key []byte) error {
	return dst.Delete(b.key(key))
}

// Iterate calls fn for every key in the bucket with the bucket prefix stripped.
func (b Bucket) Iterate(src Store, fn func(key, val []byte) error) error {
	it := src.Iterate(b.Range())
	defer it.Release()
	for it.Next() {
		if err := fn(it.Key()[len(b):], it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

// Clear deletes every key in the bucket.
func (b Bucket) Clear(src Store) error {
	batch := src.NewBatch()
	if err := b.Iterate(src, func(key, _ []byte) error {
		return batch.Delete(b.key(key))
	}); err != nil {
		return err
	}
	return batch.Write()
}

func prefixLimit(prefix []byte) []byte {
	limit := append([]byte{}, prefix...)
	for i := len(limit) - 1; i >= 0; i-- {
		if limit[i] < 0xff {
			limit[i]++
			return limit[:i+1]
		}
	}
	return nil
}
