// Package archive implements the archival controller (component C8):
// the contiguous height-range -> shard-principal index and the
// auto-scaling hand-off strategy, grounded in the original
// dft_basic::auto_scaling_storage.rs (AutoScalingStorageService) and
// the teacher's manager.CompleteLedgerSet merge-on-insert range
// tracker (internal/core/ledger/manager/completeness.go), retargeted
// from "is this ledger sequence complete" to "which shard holds this
// height range".
package archive

import (
	"sort"

	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
)

// Range is an archived [Start, End) height range held by Shard.
type Range struct {
	Start, End uint64
	Shard      identity.Principal
}

func (r Range) contains(h uint64) bool { return h >= r.Start && h < r.End }

// Index tracks the ordered, non-overlapping archived ranges, merging
// a newly inserted range into its neighbor when they are contiguous
// AND target the same shard — the one refinement the teacher's
// sequence-only completeness set does not need, since every range
// here also carries a shard identity.
type Index struct {
	ranges []Range
}

// NewIndex creates an empty archive index.
func NewIndex() *Index { return &Index{} }

// AddRange records that [start, end) was archived to shard.
func (idx *Index) AddRange(start, end uint64, shard identity.Principal) {
	if start >= end {
		return
	}
	r := Range{Start: start, End: end, Shard: shard}

	insertAt := sort.Search(len(idx.ranges), func(i int) bool { return idx.ranges[i].Start >= r.Start })
	merged := false

	if insertAt > 0 {
		prev := idx.ranges[insertAt-1]
		if prev.End == r.Start && prev.Shard.Equal(r.Shard) {
			idx.ranges[insertAt-1].End = r.End
			merged = true
			insertAt--
		}
	}
	if !merged {
		idx.ranges = append(idx.ranges, Range{})
		copy(idx.ranges[insertAt+1:], idx.ranges[insertAt:])
		idx.ranges[insertAt] = r
	}

	// Merge with the following range if it is now contiguous and
	// shares the same shard.
	if insertAt+1 < len(idx.ranges) {
		next := idx.ranges[insertAt+1]
		if idx.ranges[insertAt].End == next.Start && idx.ranges[insertAt].Shard.Equal(next.Shard) {
			idx.ranges[insertAt].End = next.End
			idx.ranges = append(idx.ranges[:insertAt+1], idx.ranges[insertAt+2:]...)
		}
	}
}

// ShardFor returns the shard holding height, if archived.
func (idx *Index) ShardFor(height uint64) (identity.Principal, bool) {
	i := sort.Search(len(idx.ranges), func(i int) bool { return idx.ranges[i].End > height })
	if i < len(idx.ranges) && idx.ranges[i].contains(height) {
		return idx.ranges[i].Shard, true
	}
	return nil, false
}

// RangesIntersecting returns every archived range overlapping
// [start, end), used by blocks_by_query to build the
// archived_blocks_range portion of a query result.
func (idx *Index) RangesIntersecting(start, end uint64) []Range {
	var out []Range
	for _, r := range idx.ranges {
		if r.Start < end && r.End > start {
			s, e := r.Start, r.End
			if s < start {
				s = start
			}
			if e > end {
				e = end
			}
			out = append(out, Range{Start: s, End: e, Shard: r.Shard})
		}
	}
	return out
}

// Len returns the number of (possibly merged) ranges tracked.
func (idx *Index) Len() int { return len(idx.ranges) }

// Ranges returns every archived range, in ascending height order, for
// the façade's archives query.
func (idx *Index) Ranges() []Range {
	out := make([]Range, len(idx.ranges))
	copy(out, idx.ranges)
	return out
}
