// Package partition routes keys to reducers.
//
// Mappers and reducers run in separate processes that never talk to each
// other, so the route must depend only on the key bytes and the reducer
// count. FNV-1a has no seed, unlike the runtime's map hash.
package partition

import "hash/fnv"

// Hash returns the 31-bit FNV-1a hash of key.
func Hash(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() & 0x7fffffff)
}

// For returns the reducer index in [0, n) that owns key.
func For(key string, n int) int {
	if n <= 0 {
		panic("partition: reducer count must be positive")
	}
	return Hash(key) % n
}
