package aggregate

import (
	"golang.org/x/sync/errgroup"

	"paepcke.de/netagg/prefix"
)

// reduceParallel cuts the sorted slice into contiguous chunks, reduces every
// chunk on its own goroutine and stitches the chunk results with one more
// pass. Chunk results are sorted and their concatenation is too, and the only
// interaction the pass knows is between a prefix and the one settled right
// before it, so the result does not depend on where the chunks were cut.
func reduceParallel(sorted []prefix.Prefix, ceiling int, opts Options) []prefix.Prefix {
	workers := opts.workers()
	if workers < 2 || len(sorted) < opts.threshold() {
		return Reduce(sorted, ceiling)
	}

	chunks := partition(sorted, workers)
	stacks := make([][]prefix.Prefix, len(chunks))

	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			stacks[i] = Reduce(chunk, ceiling)
			return nil
		})
	}
	_ = g.Wait()

	return stitch(stacks, ceiling)
}

// partition splits s into at most n contiguous, non-empty chunks of nearly equal size.
func partition[T any](s []T, n int) [][]T {
	if len(s) == 0 {
		return nil
	}
	n = min(n, len(s))
	size := (len(s) + n - 1) / n
	chunks := make([][]T, 0, n)
	for len(s) > 0 {
		end := min(size, len(s))
		chunks = append(chunks, s[:end:end])
		s = s[end:]
	}
	return chunks
}

// stitch pushes the chunk results through the stack once more, in chunk
// order. The head of one chunk may be contained in or merge with the tail of
// the previous one, so containment and collapse both run again.
func stitch(stacks [][]prefix.Prefix, ceiling int) []prefix.Prefix {
	total := 0
	for _, part := range stacks {
		total += len(part)
	}
	s := stack{ceiling: ceiling, items: make([]prefix.Prefix, 0, total)}
	for _, part := range stacks {
		for _, p := range part {
			s.push(p)
		}
	}
	return s.items
}
