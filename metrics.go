package mempool

// SizeInUse returns the bytes bump-allocated from all blocks, alignment
// padding and large-record bookkeeping included. Large payloads are not
// counted; see LargeBytes.
func (p *Pool) SizeInUse() int {
	sum := 0
	for b := p.head; b != nil; b = b.next {
		sum += b.cursor - b.start
	}
	return sum
}

// NumBlocks returns the length of the block chain.
func (p *Pool) NumBlocks() int {
	return p.blocks
}

// Capacity returns the total size of all slabs, headers included.
func (p *Pool) Capacity() int {
	sum := 0
	for b := p.head; b != nil; b = b.next {
		sum += len(b.buf)
	}
	return sum
}

// Utilization returns the ratio of bytes in use to capacity (0.0 to 1.0).
// Returns 0.0 if the pool has no capacity.
func (p *Pool) Utilization() float64 {
	capacity := p.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(p.SizeInUse()) / float64(capacity)
}

// SmallThreshold returns the largest request served by the small path.
func (p *Pool) SmallThreshold() int {
	return p.max
}

// SlabSize returns the size of every slab in the chain.
func (p *Pool) SlabSize() int {
	return p.size
}

// LargeAllocs returns the number of live large and aligned allocations.
func (p *Pool) LargeAllocs() int {
	return p.largeAllocs
}

// LargeBytes returns the bytes held by live large and aligned allocations.
func (p *Pool) LargeBytes() int {
	return p.largeBytes
}

// LargeSlots returns the number of large records, free slots included.
func (p *Pool) LargeSlots() int {
	n := 0
	for l := p.large; l != nil; l = l.next {
		n++
	}
	return n
}

// Stats returns a snapshot of pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		SizeInUse:      p.SizeInUse(),
		Capacity:       p.Capacity(),
		NumBlocks:      p.NumBlocks(),
		SlabSize:       p.SlabSize(),
		SmallThreshold: p.SmallThreshold(),
		LargeAllocs:    p.LargeAllocs(),
		LargeBytes:     p.LargeBytes(),
		LargeSlots:     p.LargeSlots(),
		Utilization:    p.Utilization(),
	}
}

// Stats contains statistical information about a pool.
type Stats struct {
	SizeInUse      int     // Bytes bump-allocated from blocks
	Capacity       int     // Total slab bytes
	NumBlocks      int     // Blocks in the chain
	SlabSize       int     // Size of each slab
	SmallThreshold int     // Largest small request
	LargeAllocs    int     // Live large allocations
	LargeBytes     int     // Bytes in live large allocations
	LargeSlots     int     // Large records, free slots included
	Utilization    float64 // SizeInUse / Capacity (0.0-1.0)
}

// Thread-safe metrics for SafePool

// SizeInUse thread-safely returns the bytes bump-allocated from all blocks.
func (s *SafePool) SizeInUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.SizeInUse()
}

// NumBlocks thread-safely returns the length of the block chain.
func (s *SafePool) NumBlocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.NumBlocks()
}

// Capacity thread-safely returns the total size of all slabs.
func (s *SafePool) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Capacity()
}

// LargeAllocs thread-safely returns the number of live large allocations.
func (s *SafePool) LargeAllocs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.LargeAllocs()
}

// Stats thread-safely returns a snapshot of pool statistics.
func (s *SafePool) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Stats()
}
