package aggregate

import (
	"cmp"
	"slices"

	"paepcke.de/netagg/prefix"
)

// Sort orders pfxs by family, network address and length, IPv4 first and
// shorter prefixes first on equal addresses. After sorting, every prefix that
// is contained in an earlier one follows it, so a single forward pass can
// drop it.
func Sort(pfxs []prefix.Prefix) {
	slices.SortStableFunc(pfxs, prefix.Compare)
}

// SplitFamilies returns the IPv4 and IPv6 runs of a sorted slice.
// Invalid zero prefixes, which sort first, are left out.
func SplitFamilies(sorted []prefix.Prefix) (v4, v6 []prefix.Prefix) {
	byFamily := func(p prefix.Prefix, f prefix.Family) int { return cmp.Compare(p.Family(), f) }
	i, _ := slices.BinarySearchFunc(sorted, prefix.IPv4, byFamily)
	j, _ := slices.BinarySearchFunc(sorted, prefix.IPv6, byFamily)
	return sorted[i:j:j], sorted[j:]
}
