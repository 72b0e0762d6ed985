package gpuverify

import (
	"math"
	"sort"
)

// Constraint keys recognized by Verify.
const (
	KeyMaxLocalMemoryPerBlock  = "max_local_memory_per_block"
	KeyMaxSharedMemoryPerBlock = "max_shared_memory_per_block"
	KeyMaxThreadPerBlock       = "max_thread_per_block"
	KeyMaxThreadX              = "max_thread_x"
	KeyMaxThreadY              = "max_thread_y"
	KeyMaxThreadZ              = "max_thread_z"
)

// Unbounded is the limit used for keys absent from a Constraints map.
const Unbounded int64 = math.MaxInt64

// Keys returns the recognized constraint keys in sorted order.
func Keys() []string {
	keys := []string{
		KeyMaxLocalMemoryPerBlock,
		KeyMaxSharedMemoryPerBlock,
		KeyMaxThreadPerBlock,
		KeyMaxThreadX,
		KeyMaxThreadY,
		KeyMaxThreadZ,
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key is a recognized constraint key.
func IsKey(key string) bool {
	switch key {
	case KeyMaxLocalMemoryPerBlock, KeyMaxSharedMemoryPerBlock, KeyMaxThreadPerBlock,
		KeyMaxThreadX, KeyMaxThreadY, KeyMaxThreadZ:
		return true
	}
	return false
}

// Constraints maps a limit name to its value. Missing keys are unbounded;
// unknown keys are ignored.
type Constraints map[string]int64

// Merge returns a new map holding c overlaid with the entries of over.
func (c Constraints) Merge(over Constraints) Constraints {
	out := make(Constraints, len(c)+len(over))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Limits holds the six resolved limits of one verification.
type Limits struct {
	MaxLocalMemoryPerBlock  int64
	MaxSharedMemoryPerBlock int64
	MaxThreadPerBlock       int64
	MaxThreadX              int64
	MaxThreadY              int64
	MaxThreadZ              int64
}

// ResolveLimits reads the recognized keys from c, substituting Unbounded
// for each absent key. c is not modified.
func ResolveLimits(c Constraints) Limits {
	get := func(key string) int64 {
		if v, ok := c[key]; ok {
			return v
		}
		return Unbounded
	}
	return Limits{
		MaxLocalMemoryPerBlock:  get(KeyMaxLocalMemoryPerBlock),
		MaxSharedMemoryPerBlock: get(KeyMaxSharedMemoryPerBlock),
		MaxThreadPerBlock:       get(KeyMaxThreadPerBlock),
		MaxThreadX:              get(KeyMaxThreadX),
		MaxThreadY:              get(KeyMaxThreadY),
		MaxThreadZ:              get(KeyMaxThreadZ),
	}
}

// Constraints returns l as a map with every key present.
func (l Limits) Constraints() Constraints {
	return Constraints{
		KeyMaxLocalMemoryPerBlock:  l.MaxLocalMemoryPerBlock,
		KeyMaxSharedMemoryPerBlock: l.MaxSharedMemoryPerBlock,
		KeyMaxThreadPerBlock:       l.MaxThreadPerBlock,
		KeyMaxThreadX:              l.MaxThreadX,
		KeyMaxThreadY:              l.MaxThreadY,
		KeyMaxThreadZ:              l.MaxThreadZ,
	}
}
