package mempool

import (
	"sync"
)

// Sized pools for the transient working buffers of the suppression engine
// (per-box areas, the rank permutation, and suppression flags). Pooling keeps
// repeated calls on large frames from churning the allocator.

var (
	float64Pools sync.Map // key: size class (int), value: *sync.Pool
	intPools     sync.Map // key: size class (int), value: *sync.Pool
	boolPools    sync.Map // key: size class (int), value: *sync.Pool
)

// sizeClass rounds n up to the next bucket to reduce churn.
func sizeClass(n int) int {
	const step = 1024
	if n <= step {
		return step
	}
	r := (n + step - 1) / step
	return r * step
}

// GetFloat64 retrieves a []float64 buffer of at least n elements from the pool.
// The returned slice has length n but may have larger capacity.
// The caller must return it via PutFloat64 when done.
func GetFloat64(n int) []float64 {
	cls := sizeClass(n)
	pAny, _ := float64Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float64, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]float64, n)
	}
	buf, ok := p.Get().([]float64)
	if !ok || cap(buf) < n {
		buf = make([]float64, cls)
	}
	return buf[:n]
}

// PutFloat64 returns a buffer obtained from GetFloat64 to the pool.
func PutFloat64(buf []float64) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := float64Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float64, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck // slices are pointer-like
	}
}

// GetInt retrieves an []int buffer of at least n elements from the pool.
func GetInt(n int) []int {
	cls := sizeClass(n)
	pAny, _ := intPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]int, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]int, n)
	}
	buf, ok := p.Get().([]int)
	if !ok || cap(buf) < n {
		buf = make([]int, cls)
	}
	return buf[:n]
}

// PutInt returns a buffer obtained from GetInt to the pool.
func PutInt(buf []int) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := intPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]int, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck // slices are pointer-like
	}
}

// GetBool retrieves a []bool buffer of at least n elements from the pool.
// All elements are reset to false before returning.
func GetBool(n int) []bool {
	cls := sizeClass(n)
	pAny, _ := boolPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]bool, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]bool, n)
	}
	buf, ok := p.Get().([]bool)
	if !ok || cap(buf) < n {
		buf = make([]bool, cls)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = false
	}
	return buf
}

// PutBool returns a buffer obtained from GetBool to the pool.
func PutBool(buf []bool) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := boolPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]bool, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck // slices are pointer-like
	}
}
