package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/ringguard/internal/screen/repos/allowlist"
)

// factory implements allowlist.BloomFactory using the sizer's formulas.
type factory struct {
	sizer allowlist.BloomSizer
}

// NewFactory returns a BloomFactory that sizes filters from capacity and FP rate.
func NewFactory() allowlist.BloomFactory { return factory{sizer: NewSizer()} }

// New constructs a filter sized for capacity entries at fpRate.
func (f factory) New(capacity uint64, fpRate float64) allowlist.BloomFilter {
	m, k := f.sizer.Size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}
