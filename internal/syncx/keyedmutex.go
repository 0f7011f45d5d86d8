// Package syncx provides a sharded keyed mutex so operations on different
// users proceed concurrently while operations on the same user serialize.
package syncx

import (
	"hash/fnv"
	"sync"
)

const defaultShards = 64

// KeyedMutex is a fixed pool of mutexes indexed by a hash of the key.
// Two different keys may occasionally share a shard; that costs a little
// concurrency, never correctness.
type KeyedMutex struct {
	shards []sync.Mutex
}

// NewKeyedMutex returns a KeyedMutex with the default shard count.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{shards: make([]sync.Mutex, defaultShards)}
}

// Lock acquires the shard owning key and returns its unlock function.
// The unlock must run on all paths, typically via defer.
func (m *KeyedMutex) Lock(key string) func() {
	shard := &m.shards[m.index(key)]
	shard.Lock()
	return shard.Unlock
}

func (m *KeyedMutex) index(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % uint32(len(m.shards))
}
