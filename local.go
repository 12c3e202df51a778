package mempool

import "context"

// Local owns at most one pool for a single execution context, such as a
// worker goroutine or a request, creating it on first use. It replaces
// implicit per-thread pools with a handle the caller passes around.
// A Local must not be shared between goroutines.
type Local struct {
	size int
	opts []Option
	pool *Pool
}

// NewLocal returns a Local whose pool will be created with New(size, opts...).
func NewLocal(size int, opts ...Option) *Local {
	return &Local{size: size, opts: opts}
}

// Create creates the pool now. It reports false if the pool already exists.
func (l *Local) Create() (bool, error) {
	if l.pool != nil {
		return false, nil
	}
	p, err := New(l.size, l.opts...)
	if err != nil {
		return false, err
	}
	l.pool = p
	return true, nil
}

// Pool returns the owned pool, or nil if it has not been created.
func (l *Local) Pool() *Pool {
	return l.pool
}

// Alloc allocates from the owned pool, creating it if needed.
func (l *Local) Alloc(size int) ([]byte, error) {
	if _, err := l.Create(); err != nil {
		return nil, err
	}
	return l.pool.Alloc(size)
}

// Calloc allocates zeroed memory from the owned pool, creating it if needed.
func (l *Local) Calloc(size int) ([]byte, error) {
	if _, err := l.Create(); err != nil {
		return nil, err
	}
	return l.pool.Calloc(size)
}

// AlignedAlloc allocates aligned memory from the owned pool, creating it if
// needed.
func (l *Local) AlignedAlloc(size, alignment int) ([]byte, error) {
	if _, err := l.Create(); err != nil {
		return nil, err
	}
	return l.pool.AlignedAlloc(size, alignment)
}

// Free releases a large allocation. No-op if no pool exists.
func (l *Local) Free(b []byte) {
	if l.pool == nil {
		return
	}
	l.pool.Free(b)
}

// Reset rewinds the owned pool. No-op if no pool exists.
func (l *Local) Reset() {
	if l.pool == nil {
		return
	}
	l.pool.Reset()
}

// Destroy destroys the owned pool. A later Alloc creates a fresh one.
func (l *Local) Destroy() {
	if l.pool == nil {
		return
	}
	l.pool.Destroy()
	l.pool = nil
}

type localKey struct{}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *Local) context.Context {
	return context.WithValue(ctx, localKey{}, l)
}

// FromContext returns the Local carried by ctx, if any.
func FromContext(ctx context.Context) (*Local, bool) {
	l, ok := ctx.Value(localKey{}).(*Local)
	return l, ok && l != nil
}
