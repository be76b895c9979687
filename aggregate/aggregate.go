// Package aggregate reduces a set of IP prefixes to the minimal set of
// prefixes that covers exactly the same addresses.
//
// The input is sorted by network address and length, then scanned once per
// address family while a stack keeps the settled result. A prefix contained in
// the top of the stack is dropped; otherwise it is pushed and the top two
// entries are merged into their supernet for as long as they are siblings.
// Merges cascade towards shorter prefixes but never beyond the configured
// ceiling.
package aggregate

import (
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"paepcke.de/netagg/prefix"
)

// DefaultParallelThreshold is the per-family input size below which the
// parallel reducer falls back to a single pass.
const DefaultParallelThreshold = 1 << 14

// Options control Aggregate.
type Options struct {
	// MaxDepth is the shortest prefix length a merge may produce, per family.
	// The zero value does not restrict merging. Input prefixes already
	// shorter than the ceiling are kept as they are, never split.
	MaxDepth prefix.LengthPair

	// Parallel reduces large inputs in chunks on several goroutines.
	// The result is identical to the serial run.
	Parallel bool

	// Workers is the number of chunks, default runtime.NumCPU().
	Workers int

	// ParallelThreshold overrides DefaultParallelThreshold.
	ParallelThreshold int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

func (o Options) threshold() int {
	if o.ParallelThreshold > 0 {
		return o.ParallelThreshold
	}
	return DefaultParallelThreshold
}

// Aggregate returns the minimal cover of pfxs: IPv4 prefixes first, then
// IPv6, each block in ascending order. The input slice is not modified.
// Input order and duplicates do not matter.
func Aggregate(pfxs []prefix.Prefix, opts Options) []prefix.Prefix {
	sorted := slices.Clone(pfxs)
	Sort(sorted)
	v4, v6 := SplitFamilies(sorted)

	if !opts.Parallel {
		return append(Reduce(v4, opts.MaxDepth.V4), Reduce(v6, opts.MaxDepth.V6)...)
	}

	var r4, r6 []prefix.Prefix
	var g errgroup.Group
	g.Go(func() error {
		r4 = reduceParallel(v4, opts.MaxDepth.V4, opts)
		return nil
	})
	g.Go(func() error {
		r6 = reduceParallel(v6, opts.MaxDepth.V6, opts)
		return nil
	})
	_ = g.Wait()
	return append(r4, r6...)
}

// Reduce runs the aggregation pass over prefixes of one family, sorted with
// Sort. No merge produces a prefix shorter than ceiling.
func Reduce(sorted []prefix.Prefix, ceiling int) []prefix.Prefix {
	s := stack{ceiling: ceiling}
	for _, p := range sorted {
		s.push(p)
	}
	return s.items
}

// stack holds the settled prefixes of one family in ascending order,
// none containing or sibling to its neighbour.
type stack struct {
	items   []prefix.Prefix
	ceiling int
}

func (s *stack) push(p prefix.Prefix) {
	if n := len(s.items); n > 0 && s.items[n-1].Contains(p) {
		return
	}
	s.items = append(s.items, p)

	for n := len(s.items); n >= 2; n = len(s.items) {
		second, top := s.items[n-2], s.items[n-1]
		if !second.IsSibling(top) || second.Bits()-1 < s.ceiling {
			return
		}
		s.items[n-2] = second.Supernet()
		s.items = s.items[:n-1]
	}
}
