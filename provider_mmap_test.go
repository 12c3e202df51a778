//go:build linux || darwin || freebsd || netbsd || openbsd

package mempool

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMmapProvider(t *testing.T) {
	m := NewMmapProvider()

	b, err := m.Alloc(16, 100)
	require.NoError(t, err)
	assert.Len(t, b, 100)
	assert.Equal(t, 1, m.Mappings())
	for i := range b {
		b[i] = byte(i)
	}

	a, err := m.Alloc(1<<20, 10)
	require.NoError(t, err)
	assert.Zero(t, uintptr(dataPtr(a))%(1<<20))

	c, err := m.AllocPlain(1 << 16)
	require.NoError(t, err)
	assert.Len(t, c, 1<<16)
	assert.Equal(t, 3, m.Mappings())

	m.Release(b)
	m.Release(a)
	m.Release(c)
	assert.Zero(t, m.Mappings())

	// unknown memory is ignored
	m.Release(make([]byte, 10))
	m.Release(nil)
}

func TestMmapProviderInvalid(t *testing.T) {
	m := NewMmapProvider()

	_, err := m.Alloc(3, 10)
	assert.True(t, errors.Is(err, ErrInvalidAlignment))
	_, err = m.AllocPlain(0)
	assert.True(t, errors.Is(err, ErrInvalidSize))
	assert.Zero(t, m.Mappings())
}

func TestMmapProviderHugeSizes(t *testing.T) {
	m := NewMmapProvider()

	require.NotPanics(t, func() {
		_, err := m.AllocPlain(math.MaxInt)
		assert.True(t, errors.Is(err, ErrProviderExhausted), "got %v", err)
		_, err = m.Alloc(16, math.MaxInt-8)
		assert.True(t, errors.Is(err, ErrProviderExhausted), "got %v", err)
	})
	assert.Zero(t, m.Mappings())
}

func TestPoolOnMmap(t *testing.T) {
	m := NewMmapProvider()
	p, err := New(1<<16, WithProvider(m))
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		b, err := p.Alloc(p.SmallThreshold())
		require.NoError(t, err)
		b[0], b[len(b)-1] = 1, 2
	}
	big, err := p.Alloc(1 << 20)
	require.NoError(t, err)
	big[len(big)-1] = 3
	_, err = p.AlignedAlloc(64, 1<<16)
	require.NoError(t, err)
	assert.Equal(t, p.NumBlocks()+2, m.Mappings())

	p.Free(big)
	assert.Equal(t, p.NumBlocks()+1, m.Mappings())

	p.Destroy()
	assert.Zero(t, m.Mappings())
}
