// Package mempool implements a region-based pool allocator for Go.
//
// # Overview
//
// A pool hands out memory from a chain of fixed-size slabs and releases it
// all at once instead of object by object. This is useful for:
//
//   - Request-scoped buffers in servers
//   - Parsers and encoders that build many short-lived byte slices
//   - Batch jobs that discard all intermediate data at the end of a step
//
// # Basic Usage
//
//	p, err := mempool.New(0) // DefaultPoolSize slabs
//	if err != nil {
//		return err
//	}
//	defer p.Destroy()
//
//	buf, err := p.Alloc(512)      // bump-allocated, 16-byte aligned
//	big, err := p.Alloc(1 << 20)  // provider-backed, tracked
//	p.Free(big)                   // only large allocations can be freed early
//
//	p.Reset() // O(blocks): rewind every slab and release large allocations
//
// # Small and Large Allocations
//
// Requests up to SmallThreshold (the usable head slab size, capped at one
// byte below the page size) are bumped out of the block chain. The search
// starts at a roaming current block; blocks that keep failing to fit
// requests are skipped by later searches. When no block has room, a new
// slab of the pool's original size is appended.
//
// Larger requests, and every AlignedAlloc, are served by the Provider and
// recorded in a list so Reset and Destroy can release them. Freed records
// are reused by later large allocations.
//
// # Providers
//
// HeapProvider serves slabs from the Go heap and can enforce a byte budget.
// MmapProvider maps anonymous memory on unix systems. Provider failures
// surface as ErrProviderExhausted and leave the pool usable.
//
// # Thread Safety
//
// Pool is not thread-safe. Either give each goroutine its own pool, for
// example through a Local carried in a context.Context, or use SafePool:
//
//	s, _ := mempool.NewSafe(64 << 10)
//	defer s.Destroy()
//	buf, _ := s.Alloc(128)
//
// # Important Notes
//
//   - Allocated memory is only valid until Reset or Destroy
//   - Small allocations cannot be freed individually
//   - Memory is not zeroed unless using Calloc or the zeroing helpers
//   - Typed helpers must only be used with pointer-free types
package mempool
