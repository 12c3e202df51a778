package mempool

import (
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// The helpers below place values inside pool memory, which the garbage
// collector does not scan: T must not contain Go pointers, and the memory is
// only valid until the pool is Reset or destroyed.

// NewValue returns a pointer to a zeroed T stored inside the pool.
func NewValue[T any](p *Pool) (*T, error) {
	b, err := allocFor[T](p, 1)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return new(T), nil
	}
	clear(b)
	return (*T)(unsafe.Pointer(unsafe.SliceData(b))), nil
}

// NewValueUninitialized returns a *T located in the pool without zeroing.
// The contents are undefined until written.
func NewValueUninitialized[T any](p *Pool) (*T, error) {
	b, err := allocFor[T](p, 1)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return new(T), nil
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(b))), nil
}

// MakeSlice allocates a slice of n elements of type T inside the pool.
// The elements are not initialized. Returns nil if n <= 0.
func MakeSlice[T any](p *Pool, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	b, err := allocFor[T](p, n)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return make([]T, n), nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}

// MakeSliceZeroed is MakeSlice with the elements zeroed.
func MakeSliceZeroed[T any](p *Pool, n int) ([]T, error) {
	s, err := MakeSlice[T](p, n)
	if err != nil {
		return nil, err
	}
	clear(s)
	return s, nil
}

// allocFor reserves room for n values of T. It returns nil, nil for
// zero-sized types, which need no pool memory.
func allocFor[T any](p *Pool, n int) ([]byte, error) {
	var zero T
	elem := int(unsafe.Sizeof(zero))
	if elem == 0 {
		p.panicIfDestroyed()
		return nil, nil
	}
	if n > math.MaxInt/elem {
		return nil, errors.Wrapf(ErrInvalidSize, "%d elements of %d bytes", n, elem)
	}
	size := elem * n
	if align := int(unsafe.Alignof(zero)); align > Alignment {
		return p.AlignedAlloc(size, align)
	}
	return p.Alloc(size)
}
