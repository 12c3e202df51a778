package mempool

import "github.com/cockroachdb/errors"

var (
	// ErrProviderExhausted is returned when the memory provider cannot
	// satisfy a request, at pool creation, block growth or large allocation.
	ErrProviderExhausted = errors.New("mempool: provider exhausted")
	// ErrInvalidSize is returned for negative sizes, or a zero size where
	// a provider-backed allocation is required.
	ErrInvalidSize = errors.New("mempool: invalid size")
	// ErrInvalidAlignment is returned when an alignment is not a power of two.
	ErrInvalidAlignment = errors.New("mempool: alignment must be a power of two")
)

// exhausted marks err as ErrProviderExhausted and annotates it.
func exhausted(err error, format string, args ...interface{}) error {
	return errors.Wrapf(errors.Mark(err, ErrProviderExhausted), format, args...)
}
