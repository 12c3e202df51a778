//go:build linux || darwin || freebsd || netbsd || openbsd

package mempool

import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// MmapProvider backs every request with an anonymous private mapping.
// Mappings are page granular, so it suits pools with page-sized or larger
// slabs. It is safe for concurrent use.
type MmapProvider struct {
	mu       sync.Mutex
	pageSize int
	mappings map[uintptr][]byte
}

// NewMmapProvider creates a provider using the system page size.
func NewMmapProvider() *MmapProvider {
	return &MmapProvider{
		pageSize: unix.Getpagesize(),
		mappings: make(map[uintptr][]byte),
	}
}

func (m *MmapProvider) Alloc(alignment, size int) ([]byte, error) {
	if !isPowerOfTwo(alignment) {
		return nil, errors.Wrapf(ErrInvalidAlignment, "alignment %d", alignment)
	}
	return m.mmap(alignment, size)
}

// AllocPlain returns page-aligned memory.
func (m *MmapProvider) AllocPlain(size int) ([]byte, error) {
	return m.mmap(m.pageSize, size)
}

func (m *MmapProvider) Release(b []byte) {
	p := dataPtr(b)
	if p == nil {
		return
	}
	m.mu.Lock()
	mem, ok := m.mappings[uintptr(p)]
	delete(m.mappings, uintptr(p))
	m.mu.Unlock()
	if ok {
		// Munmap only fails for mappings we did not create.
		_ = unix.Munmap(mem)
	}
}

// Mappings returns the number of live mappings.
func (m *MmapProvider) Mappings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mappings)
}

func (m *MmapProvider) mmap(alignment, size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "mmap %d bytes", size)
	}
	if size > maxHeapAlloc-alignment-m.pageSize {
		return nil, errors.Wrapf(ErrProviderExhausted, "%d bytes exceeds the mapping limit", size)
	}
	n := size
	if alignment > m.pageSize {
		n += alignment
	}
	n = alignUp(n, m.pageSize)
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, exhausted(err, "mmap %d bytes", n)
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	shift := int(alignUintptr(addr, uintptr(alignment)) - addr)
	b := mem[shift : shift+size : shift+size]

	m.mu.Lock()
	m.mappings[uintptr(dataPtr(b))] = mem
	m.mu.Unlock()
	return b, nil
}
