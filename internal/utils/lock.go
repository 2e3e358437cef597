package utils

import "sync"

// KeyedMutex serializes work per string key using a fixed set of stripes.
// Keys hash to a stripe, so two distinct keys may share a lock but one key
// always maps to the same lock.
type KeyedMutex struct {
	stripes []sync.Mutex
}

func NewKeyedMutex(stripes int) *KeyedMutex {
	if stripes <= 0 {
		stripes = 64
	}
	return &KeyedMutex{stripes: make([]sync.Mutex, stripes)}
}

func (k *KeyedMutex) Lock(key string) {
	k.stripes[HashStringToUint64(key)%uint64(len(k.stripes))].Lock()
}

func (k *KeyedMutex) Unlock(key string) {
	k.stripes[HashStringToUint64(key)%uint64(len(k.stripes))].Unlock()
}
