package mempool

import "sync"

// SafePool is a mutex-protected wrapper around Pool for concurrent access.
// All operations are thread-safe but come with the overhead of mutex locking.
type SafePool struct {
	mu sync.Mutex
	p  *Pool
}

// NewSafe creates a thread-safe pool. Arguments are as for New.
func NewSafe(size int, opts ...Option) (*SafePool, error) {
	p, err := New(size, opts...)
	if err != nil {
		return nil, err
	}
	return &SafePool{p: p}, nil
}

// Alloc thread-safely allocates size bytes.
func (s *SafePool) Alloc(size int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Alloc(size)
}

// AllocUnaligned thread-safely allocates size bytes without small-path alignment.
func (s *SafePool) AllocUnaligned(size int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.AllocUnaligned(size)
}

// Calloc thread-safely allocates size zeroed bytes.
func (s *SafePool) Calloc(size int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Calloc(size)
}

// AlignedAlloc thread-safely allocates size bytes aligned to alignment.
func (s *SafePool) AlignedAlloc(size, alignment int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.AlignedAlloc(size, alignment)
}

// Free thread-safely releases a large allocation.
func (s *SafePool) Free(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Free(b)
}

// Reset thread-safely rewinds the pool for reuse.
func (s *SafePool) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Reset()
}

// Destroy thread-safely releases all memory and makes the pool unusable.
func (s *SafePool) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Destroy()
}

// Generic allocation functions for SafePool

// SafeNewValue thread-safely returns a zeroed *T stored inside the pool.
func SafeNewValue[T any](s *SafePool) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewValue[T](s.p)
}

// SafeMakeSlice thread-safely allocates a slice of n uninitialized elements.
func SafeMakeSlice[T any](s *SafePool, n int) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MakeSlice[T](s.p, n)
}

// SafeMakeSliceZeroed thread-safely allocates a slice of n zeroed elements.
func SafeMakeSliceZeroed[T any](s *SafePool, n int) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MakeSliceZeroed[T](s.p, n)
}
