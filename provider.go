package mempool

import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// Provider is the raw memory source behind a Pool. Slabs are obtained with
// Alloc, large payloads with AllocPlain, and both are handed back with
// Release exactly once.
type Provider interface {
	// Alloc returns size bytes whose address is a multiple of alignment.
	Alloc(alignment, size int) ([]byte, error)
	// AllocPlain returns size bytes with no alignment beyond the default.
	AllocPlain(size int) ([]byte, error)
	// Release returns memory obtained from Alloc or AllocPlain.
	Release(b []byte)
}

// maxHeapAlloc is the largest request a heap-backed provider accepts: 2^47-1
// on 64-bit platforms, 2^31-1 on 32-bit ones. Larger slices cannot be
// made by the Go runtime.
const maxHeapAlloc = 1<<(31+16*(^uint(0)>>63)) - 1

// DefaultProvider is the unbounded heap provider used when no provider is
// configured.
var DefaultProvider Provider = NewHeapProvider(0)

// HeapProvider serves memory from the Go heap. A positive limit bounds the
// number of outstanding bytes; requests beyond it fail with
// ErrProviderExhausted. It is safe for concurrent use.
type HeapProvider struct {
	mu    sync.Mutex
	limit int
	inUse int
}

// NewHeapProvider creates a heap provider. limit <= 0 means unbounded.
func NewHeapProvider(limit int) *HeapProvider {
	return &HeapProvider{limit: limit}
}

// Alloc over-allocates by alignment and returns an aligned window.
func (h *HeapProvider) Alloc(alignment, size int) ([]byte, error) {
	if !isPowerOfTwo(alignment) {
		return nil, errors.Wrapf(ErrInvalidAlignment, "alignment %d", alignment)
	}
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "provider alloc %d bytes", size)
	}
	if err := h.reserve(size, alignment); err != nil {
		return nil, err
	}
	buf := make([]byte, size+alignment)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	shift := int(alignUintptr(addr, uintptr(alignment)) - addr)
	return buf[shift : shift+size : shift+size], nil
}

func (h *HeapProvider) AllocPlain(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "provider alloc %d bytes", size)
	}
	if err := h.reserve(size, 0); err != nil {
		return nil, err
	}
	return make([]byte, size), nil
}

// Release only returns the bytes to the budget; the garbage collector
// reclaims the memory once it is unreachable.
func (h *HeapProvider) Release(b []byte) {
	h.mu.Lock()
	h.inUse -= cap(b)
	h.mu.Unlock()
}

// InUse returns the number of bytes handed out and not yet released.
func (h *HeapProvider) InUse() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inUse
}

// reserve charges size bytes to the budget. pad is the extra slack the
// caller will allocate on top of size.
func (h *HeapProvider) reserve(size, pad int) error {
	if size > maxHeapAlloc-pad {
		return errors.Wrapf(ErrProviderExhausted, "%d bytes exceeds the heap limit", size)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.limit > 0 && size > h.limit-h.inUse {
		return errors.Wrapf(ErrProviderExhausted, "need %d bytes, %d of %d in use", size, h.inUse, h.limit)
	}
	h.inUse += size
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// alignUp rounds off up to a multiple of align, which must be a power of two.
func alignUp(off, align int) int {
	return (off + align - 1) &^ (align - 1)
}

func alignUintptr(p, align uintptr) uintptr {
	return (p + align - 1) &^ (align - 1)
}

// dataPtr identifies the memory behind b. Zero-capacity slices have no
// identity and yield nil.
func dataPtr(b []byte) unsafe.Pointer {
	if cap(b) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b))
}
