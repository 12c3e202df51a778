package mempool

import (
	"log/slog"

	"github.com/cockroachdb/errors"
)

const (
	// Alignment is the alignment of every aligned small allocation.
	Alignment = 16
	// DefaultPoolSize is the slab size used when New is given size <= 0 (16 KiB).
	DefaultPoolSize = 16 << 10
	// DefaultPageSize caps the small-allocation threshold at DefaultPageSize-1.
	DefaultPageSize = 4096

	// blockHeaderSize is reserved at the front of every non-head slab and
	// poolHeaderSize at the front of the head slab, keeping slab capacity
	// identical to a pool whose headers live in-band.
	blockHeaderSize = 32
	poolHeaderSize  = 80
	// largeRecordSize is charged to the arena for every large record.
	largeRecordSize = 16

	// MinPoolSize is the smallest slab a pool will request: the pool
	// header plus two large records.
	MinPoolSize = (poolHeaderSize + 2*largeRecordSize + Alignment - 1) &^ (Alignment - 1)

	// maxBlockFailures is how many growth walks a block survives before
	// current skips past it.
	maxBlockFailures = 4
)

// block is one slab in the chain.
type block struct {
	buf    []byte // backing slab, header region included
	start  int    // first data offset
	cursor int    // next free offset, start <= cursor <= len(buf)
	next   *block
	failed int
}

// Pool is a region allocator. Not goroutine-safe; use SafePool or one pool
// per goroutine for concurrent access.
type Pool struct {
	head     *block
	current  *block
	max      int
	size     int
	large    *largeRecord
	provider Provider
	logger   *slog.Logger

	blocks      int
	largeAllocs int
	largeBytes  int
}

// New creates a pool whose head slab is size bytes. size <= 0 selects
// DefaultPoolSize and sizes below MinPoolSize are raised to it. Every block
// added later has the same size.
func New(size int, opts ...Option) (*Pool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if size < MinPoolSize {
		size = MinPoolSize
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	buf, err := o.provider.Alloc(Alignment, size)
	if err != nil {
		o.logger.Warn("mempool: create failed", "size", size, "error", err)
		return nil, exhausted(err, "create %d-byte pool", size)
	}

	head := &block{buf: buf, start: poolHeaderSize, cursor: poolHeaderSize}
	p := &Pool{
		head:     head,
		current:  head,
		max:      min(size-poolHeaderSize, o.pageSize-1),
		size:     size,
		blocks:   1,
		provider: o.provider,
		logger:   o.logger,
	}
	return p, nil
}

// Alloc returns size bytes from the pool. Requests up to SmallThreshold are
// bump-allocated and aligned to Alignment; larger ones come from the
// provider and can be returned early with Free. The memory is not zeroed.
func (p *Pool) Alloc(size int) ([]byte, error) {
	p.panicIfDestroyed()
	if size < 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "alloc %d bytes", size)
	}
	if size <= p.max {
		return p.allocSmall(size, true)
	}
	return p.allocLarge(size)
}

// AllocUnaligned is Alloc without aligning small allocations, for byte
// data that packs tighter than Alignment.
func (p *Pool) AllocUnaligned(size int) ([]byte, error) {
	p.panicIfDestroyed()
	if size < 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "alloc %d bytes", size)
	}
	if size <= p.max {
		return p.allocSmall(size, false)
	}
	return p.allocLarge(size)
}

// Calloc is Alloc followed by zeroing the returned bytes.
func (p *Pool) Calloc(size int) ([]byte, error) {
	b, err := p.Alloc(size)
	if err != nil {
		return nil, err
	}
	clear(b)
	return b, nil
}

// Reset releases every large allocation and rewinds all blocks, keeping
// their slabs for reuse. Previously returned memory must not be used.
func (p *Pool) Reset() {
	p.panicIfDestroyed()
	p.releaseLarge()
	for b := p.head; b != nil; b = b.next {
		b.cursor = b.start
		b.failed = 0
	}
	p.current = p.head
}

// Destroy releases every large allocation and every slab, head slab last.
// Any other call after Destroy panics; calling Destroy again is a no-op.
func (p *Pool) Destroy() {
	if p.head == nil {
		return
	}
	p.releaseLarge()
	for b := p.head.next; b != nil; {
		next := b.next
		p.provider.Release(b.buf)
		b.buf, b.next = nil, nil
		b = next
	}
	p.provider.Release(p.head.buf)
	p.head.buf, p.head.next = nil, nil
	p.head, p.current = nil, nil
	p.blocks = 0
}

// allocSmall scans forward from current for the first block with room.
func (p *Pool) allocSmall(size int, align bool) ([]byte, error) {
	for b := p.current; b != nil; b = b.next {
		off := b.cursor
		if align {
			off = alignUp(off, Alignment)
		}
		if off <= len(b.buf) && len(b.buf)-off >= size {
			b.cursor = off + size
			return b.buf[off : off+size : off+size], nil
		}
	}
	return p.allocBlock(size)
}

// allocBlock appends a new slab and carves size bytes from its front.
// Blocks passed on the way to the tail age by one failure; those past
// maxBlockFailures are dropped from future scans.
func (p *Pool) allocBlock(size int) ([]byte, error) {
	buf, err := p.provider.Alloc(Alignment, p.size)
	if err != nil {
		p.logger.Warn("mempool: block allocation failed", "size", p.size, "error", err)
		return nil, exhausted(err, "grow pool by %d bytes", p.size)
	}
	start := alignUp(blockHeaderSize, Alignment)
	nb := &block{buf: buf, start: start, cursor: start + size}

	b := p.current
	for ; b.next != nil; b = b.next {
		if b.failed > maxBlockFailures {
			p.current = b.next
			p.logger.Debug("mempool: current advanced", "failed", b.failed, "blocks", p.blocks+1)
		}
		b.failed++
	}
	b.next = nb
	p.blocks++

	p.logger.Debug("mempool: block added", "slab", p.size, "request", size, "blocks", p.blocks)
	return buf[start : start+size : start+size], nil
}

// panicIfDestroyed panics if the pool has been destroyed.
func (p *Pool) panicIfDestroyed() {
	if p.head == nil {
		panic("mempool: use after Destroy()")
	}
}
