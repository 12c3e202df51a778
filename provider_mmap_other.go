//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package mempool

import "github.com/cockroachdb/errors"

// MmapProvider is unavailable on this platform; every request fails with
// ErrProviderExhausted.
type MmapProvider struct{}

func NewMmapProvider() *MmapProvider { return &MmapProvider{} }

func (m *MmapProvider) Alloc(alignment, size int) ([]byte, error) {
	return nil, errors.Wrap(ErrProviderExhausted, "mmap not supported")
}

func (m *MmapProvider) AllocPlain(size int) ([]byte, error) {
	return nil, errors.Wrap(ErrProviderExhausted, "mmap not supported")
}

func (m *MmapProvider) Release(b []byte) {}

func (m *MmapProvider) Mappings() int { return 0 }
