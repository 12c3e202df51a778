package mempool

import "github.com/cockroachdb/errors"

// largeReuseScan bounds how many records allocLarge inspects for a free slot.
const largeReuseScan = 4

// largeRecord tracks one provider-backed allocation. A nil payload marks a
// slot freed with Free and available for reuse.
type largeRecord struct {
	payload []byte
	next    *largeRecord
}

func (p *Pool) allocLarge(size int) ([]byte, error) {
	b, err := p.provider.AllocPlain(size)
	if err != nil {
		p.logger.Warn("mempool: large allocation failed", "size", size, "error", err)
		return nil, exhausted(err, "large alloc %d bytes", size)
	}

	n := 0
	for l := p.large; l != nil && n < largeReuseScan; l = l.next {
		if l.payload == nil {
			l.payload = b
			p.largeAllocs++
			p.largeBytes += len(b)
			return b, nil
		}
		n++
	}

	if err := p.track(b); err != nil {
		return nil, err
	}
	return b, nil
}

// AlignedAlloc returns size bytes aligned to alignment straight from the
// provider, regardless of size. The result is tracked like a large
// allocation and may be returned early with Free.
func (p *Pool) AlignedAlloc(size, alignment int) ([]byte, error) {
	p.panicIfDestroyed()
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "aligned alloc %d bytes", size)
	}
	if !isPowerOfTwo(alignment) {
		return nil, errors.Wrapf(ErrInvalidAlignment, "alignment %d", alignment)
	}
	b, err := p.provider.Alloc(alignment, size)
	if err != nil {
		p.logger.Warn("mempool: aligned allocation failed", "size", size, "alignment", alignment, "error", err)
		return nil, exhausted(err, "aligned alloc %d bytes at %d", size, alignment)
	}
	if err := p.track(b); err != nil {
		return nil, err
	}
	return b, nil
}

// track prepends a record for b. The record is charged to the arena; if
// that fails b goes back to the provider.
func (p *Pool) track(b []byte) error {
	if _, err := p.allocSmall(largeRecordSize, true); err != nil {
		p.provider.Release(b)
		return errors.Wrap(err, "record large allocation")
	}
	p.large = &largeRecord{payload: b, next: p.large}
	p.largeAllocs++
	p.largeBytes += len(b)
	return nil
}

// Free releases a large or aligned allocation before Reset or Destroy.
// Anything else, including small allocations, nil and memory already
// freed, is ignored.
func (p *Pool) Free(b []byte) {
	p.panicIfDestroyed()
	ptr := dataPtr(b)
	if ptr == nil {
		return
	}
	for l := p.large; l != nil; l = l.next {
		if l.payload != nil && dataPtr(l.payload) == ptr {
			p.largeAllocs--
			p.largeBytes -= len(l.payload)
			p.provider.Release(l.payload)
			l.payload = nil
			return
		}
	}
}

// releaseLarge releases every live payload and drops the list.
func (p *Pool) releaseLarge() {
	for l := p.large; l != nil; l = l.next {
		if l.payload != nil {
			p.provider.Release(l.payload)
			l.payload = nil
		}
	}
	p.large = nil
	p.largeAllocs = 0
	p.largeBytes = 0
}
