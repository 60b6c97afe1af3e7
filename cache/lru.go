// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import lru "github.com/hashicorp/golang-lru"

// LRU is a typed least recently used cache that counts its hits and misses.
type LRU[K comparable, V any] struct {
	c     *lru.Cache
	stats Stats
}

// NewLRU creates a cache holding up to size entries. size must be > 0.
func NewLRU[K comparable, V any](size int) (*LRU[K, V], error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{c: c}, nil
}

// Get returns the cached value of key.
func (l *LRU[K, V]) Get(key K) (V, bool) {
	if v, ok := l.c.Get(key); ok {
		l.stats.Hit()
		return v.(V), true
	}
	l.stats.Miss()
	var zero V
	return zero, false
}

// Add caches val under key.
func (l *LRU[K, V]) Add(key K, val V) {
	l.c.Add(key, val)
}

// Remove drops key.
func (l *LRU[K, V]) Remove(key K) {
	l.c.Remove(key)
}

// Contains reports whether key is cached, without touching its recency.
func (l *LRU[K, V]) Contains(key K) bool {
	return l.c.Contains(key)
}

// Len returns the number of cached entries.
func (l *LRU[K, V]) Len() int {
	return l.c.Len()
}

// GetOrLoad returns the cached value of key, calling load on a miss. Failed
// loads are not cached.
func (l *LRU[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		return v, err
	}
	l.c.Add(key, v)
	return v, nil
}

// Stats returns the hit and miss counts and whether the hit rate moved
// since the last call.
func (l *LRU[K, V]) Stats() (changed bool, hit, miss int64) {
	return l.stats.Stats()
}
