package backend

import (
	"fmt"
	"math"
)

// ConstID indexes a string in the ConstantPool
type ConstID uint16

// ConstantPool is a deduplicated table of string constants shared by every
// function of a program. Interning the same string twice returns the same id
type ConstantPool struct {
	strings []string
	index   map[string]ConstID
}

// NewConstantPool returns an empty pool
func NewConstantPool() *ConstantPool {
	return &ConstantPool{index: make(map[string]ConstID)}
}

// Intern returns the id of a string, adding it to the pool if necessary. An
// error is returned once the pool can no longer be addressed by a 2 byte id
func (pool *ConstantPool) Intern(s string) (ConstID, error) {
	if id, ok := pool.index[s]; ok {
		return id, nil
	}

	if len(pool.strings) > math.MaxUint16 {
		return 0, fmt.Errorf("too many string constants (limit is %d)", math.MaxUint16+1)
	}

	id := ConstID(len(pool.strings))
	pool.strings = append(pool.strings, s)
	pool.index[s] = id
	return id, nil
}

// Get returns the string stored under an id
func (pool *ConstantPool) Get(id ConstID) (string, bool) {
	if int(id) >= len(pool.strings) {
		return "", false
	}

	return pool.strings[id], true
}

// Len returns the number of distinct strings in the pool
func (pool *ConstantPool) Len() int {
	return len(pool.strings)
}
