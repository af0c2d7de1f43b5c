package state

import "sync"

const defaultShards = 32

type entry[V any] struct {
	mu  sync.Mutex
	val V
}

type shard[V any] struct {
	mu      sync.RWMutex
	entries map[int64]*entry[V]
}

// Store maps user IDs to values of type V. Entries are created lazily with
// the init function and live for the lifetime of the store.
type Store[V any] struct {
	shards []*shard[V]
	init   func() V
}

// NewStore builds a store with the default shard count. init may be nil, in
// which case new entries start at the zero value of V.
func NewStore[V any](init func() V) *Store[V] {
	return NewStoreShards(defaultShards, init)
}

// NewStoreShards is NewStore with an explicit shard count.
func NewStoreShards[V any](n int, init func() V) *Store[V] {
	if n <= 0 {
		n = 1
	}
	s := &Store[V]{shards: make([]*shard[V], n), init: init}
	for i := range s.shards {
		s.shards[i] = &shard[V]{entries: make(map[int64]*entry[V])}
	}
	return s
}

func (s *Store[V]) shardFor(key int64) *shard[V] {
	return s.shards[uint64(key)%uint64(len(s.shards))]
}

func (s *Store[V]) entry(key int64) *entry[V] {
	sh := s.shardFor(key)

	sh.mu.RLock()
	e, ok := sh.entries[key]
	sh.mu.RUnlock()
	if ok {
		return e
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok = sh.entries[key]; ok {
		return e
	}
	e = &entry[V]{}
	if s.init != nil {
		e.val = s.init()
	}
	sh.entries[key] = e
	return e
}

// Do runs fn with exclusive access to the value stored under key.
// Calls for the same key are serialized; calls for different keys are not.
// fn must not call back into the store for the same key.
func (s *Store[V]) Do(key int64, fn func(v *V) error) error {
	e := s.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.val)
}

// Load returns a copy of the value stored under key, creating it if needed.
func (s *Store[V]) Load(key int64) V {
	var out V
	_ = s.Do(key, func(v *V) error {
		out = *v
		return nil
	})
	return out
}

// Len reports how many keys currently hold a value.
func (s *Store[V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}
