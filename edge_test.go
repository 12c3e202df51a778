package mempool_test

import (
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/pavanmanishd/mempool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryCorruption checks that typed values never overlap
func TestMemoryCorruption(t *testing.T) {
	p, err := mempool.New(1024)
	require.NoError(t, err)
	defer p.Destroy()

	ptrs := make([]*[64]byte, 100)
	for i := range ptrs {
		ptrs[i], err = mempool.NewValueUninitialized[[64]byte](p)
		require.NoError(t, err)
		for j := range ptrs[i] {
			ptrs[i][j] = byte(i)
		}
	}

	for i, ptr := range ptrs {
		for j, b := range ptr {
			if b != byte(i) {
				t.Errorf("Memory corruption detected at ptr[%d][%d]: got %d, want %d", i, j, b, byte(i))
			}
		}
	}
}

// TestBoundaryConditions tests allocations around block and threshold edges
func TestBoundaryConditions(t *testing.T) {
	t.Run("ExactThresholdAllocation", func(t *testing.T) {
		p, err := mempool.New(1024)
		require.NoError(t, err)
		defer p.Destroy()

		buf, err := p.Alloc(p.SmallThreshold())
		require.NoError(t, err)
		assert.Len(t, buf, p.SmallThreshold())
		assert.Equal(t, 1, p.NumBlocks())

		// the head block is full now
		buf2, err := p.Alloc(1)
		require.NoError(t, err)
		assert.Len(t, buf2, 1)
		assert.Equal(t, 2, p.NumBlocks())
	})

	t.Run("AlignmentBoundaries", func(t *testing.T) {
		p, err := mempool.New(1024)
		require.NoError(t, err)
		defer p.Destroy()

		for size := 1; size <= 64; size++ {
			b, err := p.Alloc(size)
			require.NoError(t, err)
			addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
			if addr%mempool.Alignment != 0 {
				t.Errorf("Alloc(%d) address %#x not aligned to %d", size, addr, mempool.Alignment)
			}
		}
	})

	t.Run("AppendDoesNotOverwriteNeighbour", func(t *testing.T) {
		p, err := mempool.New(1024)
		require.NoError(t, err)
		defer p.Destroy()

		a, err := p.Alloc(16)
		require.NoError(t, err)
		b, err := p.Alloc(16)
		require.NoError(t, err)
		b[0] = 0x55

		a = append(a, 1, 2, 3)
		assert.Len(t, a, 19)
		assert.Equal(t, byte(0x55), b[0])
	})
}

// TestTypeSpecificAllocations allocates a range of pointer-free types
func TestTypeSpecificAllocations(t *testing.T) {
	p, err := mempool.New(0)
	require.NoError(t, err)
	defer p.Destroy()

	t.Run("BasicTypes", func(t *testing.T) {
		i8, err := mempool.NewValue[int8](p)
		require.NoError(t, err)
		f64, err := mempool.NewValue[float64](p)
		require.NoError(t, err)
		c128, err := mempool.NewValue[complex128](p)
		require.NoError(t, err)

		*i8, *f64, *c128 = -8, 3.25, complex(1, 2)
		assert.Equal(t, int8(-8), *i8)
		assert.Equal(t, 3.25, *f64)
		assert.Equal(t, complex(1, 2), *c128)
	})

	t.Run("ArraysAndSlices", func(t *testing.T) {
		arr, err := mempool.NewValue[[16]uint32](p)
		require.NoError(t, err)
		for i := range arr {
			arr[i] = uint32(i)
		}
		assert.Equal(t, uint32(15), arr[15])

		s, err := mempool.MakeSliceZeroed[[3]float32](p, 100)
		require.NoError(t, err)
		assert.Len(t, s, 100)
		assert.Equal(t, [3]float32{}, s[99])
	})
}

// TestResetBehavior checks that memory is reused after Reset
func TestResetBehavior(t *testing.T) {
	p, err := mempool.New(4096)
	require.NoError(t, err)
	defer p.Destroy()

	first, err := p.Alloc(128)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		_, err := p.Alloc(1000)
		require.NoError(t, err)
	}
	blocks := p.NumBlocks()

	for round := 0; round < 5; round++ {
		p.Reset()
		again, err := p.Alloc(128)
		require.NoError(t, err)
		assert.Same(t, &first[0], &again[0], "round %d", round)
		for i := 0; i < 20; i++ {
			_, err := p.Alloc(1000)
			require.NoError(t, err)
		}
		assert.Equal(t, blocks, p.NumBlocks(), "round %d", round)
	}
}

// TestExhaustedBudget runs a pool against a bounded provider until it fails
func TestExhaustedBudget(t *testing.T) {
	h := mempool.NewHeapProvider(64 << 10)
	p, err := mempool.New(4096, mempool.WithProvider(h))
	require.NoError(t, err)

	var lastErr error
	for i := 0; i < 1000; i++ {
		if _, lastErr = p.Alloc(1000); lastErr != nil {
			break
		}
	}
	require.Error(t, lastErr)
	assert.True(t, errors.Is(lastErr, mempool.ErrProviderExhausted))
	assert.LessOrEqual(t, h.InUse(), 64<<10)

	// Reset keeps the slabs, so the same workload now fits without growth
	p.Reset()
	blocks := p.NumBlocks()
	for i := 0; i < blocks*3; i++ {
		_, err := p.Alloc(1000)
		require.NoError(t, err)
	}
	assert.Equal(t, blocks, p.NumBlocks())

	p.Destroy()
	assert.Zero(t, h.InUse())
}
