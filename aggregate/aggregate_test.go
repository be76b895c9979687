package aggregate

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paepcke.de/netagg/prefix"
)

var mpp = prefix.MustParse

func pfxs(ss ...string) []prefix.Prefix {
	out := make([]prefix.Prefix, 0, len(ss))
	for _, s := range ss {
		out = append(out, mpp(s))
	}
	return out
}

func strs(ps []prefix.Prefix) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.String())
	}
	return out
}

func TestAggregateScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		opts Options
		want []string
	}{
		{
			name: "siblings merge",
			in:   []string{"1.1.1.0/25", "1.1.1.128/25"},
			want: []string{"1.1.1.0/24"},
		},
		{
			name: "redundant dropped",
			in:   []string{"1.1.1.0/24", "1.1.1.1/32"},
			want: []string{"1.1.1.0/24"},
		},
		{
			name: "redundant before container",
			in:   []string{"1.1.1.1/32", "1.1.1.0/24"},
			want: []string{"1.1.1.0/24"},
		},
		{
			name: "adjacent non siblings",
			in:   []string{"1.1.1.0/24", "1.1.2.0/24"},
			want: []string{"1.1.1.0/24", "1.1.2.0/24"},
		},
		{
			name: "ceiling refuses merge",
			in:   []string{"10.0.0.0/9", "10.128.0.0/9"},
			opts: Options{MaxDepth: prefix.LengthPair{V4: 9}},
			want: []string{"10.0.0.0/9", "10.128.0.0/9"},
		},
		{
			name: "ceiling allows merge to its length",
			in:   []string{"10.0.0.0/9", "10.128.0.0/9"},
			opts: Options{MaxDepth: prefix.LengthPair{V4: 8}},
			want: []string{"10.0.0.0/8"},
		},
		{
			name: "ceiling is per family",
			in:   []string{"10.0.0.0/9", "10.128.0.0/9", "2001:db8::/33", "2001:db8:8000::/33"},
			opts: Options{MaxDepth: prefix.LengthPair{V4: 9, V6: 0}},
			want: []string{"10.0.0.0/9", "10.128.0.0/9", "2001:db8::/32"},
		},
		{
			name: "duplicates",
			in:   []string{"192.0.2.0/24", "192.0.2.0/24", "192.0.2.0/255.255.255.0"},
			want: []string{"192.0.2.0/24"},
		},
		{
			name: "cascade",
			in:   []string{"10.0.0.0/32", "10.0.0.1/32", "10.0.0.2/31", "10.0.0.4/30", "10.0.0.8/29"},
			want: []string{"10.0.0.0/28"},
		},
		{
			name: "back merge after hole is filled",
			in:   []string{"10.0.0.0/26", "10.0.0.128/25", "10.0.0.64/26"},
			want: []string{"10.0.0.0/24"},
		},
		{
			name: "whole space absorbs",
			in:   []string{"192.0.2.0/24", "0.0.0.0/0", "255.255.255.255/32", "10.0.0.0/8"},
			want: []string{"0.0.0.0/0"},
		},
		{
			name: "halves make whole space",
			in:   []string{"0.0.0.0/1", "128.0.0.0/1", "::/1", "8000::/1"},
			want: []string{"0.0.0.0/0", "::/0"},
		},
		{
			name: "families ordered v4 first",
			in:   []string{"2001:db8::/32", "192.0.2.0/24", "::/128", "10.0.0.0/8"},
			want: []string{"10.0.0.0/8", "192.0.2.0/24", "::/128", "2001:db8::/32"},
		},
		{
			name: "v6 siblings",
			in:   []string{"2001:db8::/128", "2001:db8::1/128", "2001:db8::2/127"},
			want: []string{"2001:db8::/126"},
		},
		{
			name: "input shorter than ceiling passes",
			in:   []string{"10.0.0.0/8", "10.1.0.0/16", "11.0.0.0/16", "11.1.0.0/16"},
			opts: Options{MaxDepth: prefix.LengthPair{V4: 16}},
			want: []string{"10.0.0.0/8", "11.0.0.0/16", "11.1.0.0/16"},
		},
		{
			name: "empty",
			in:   nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(pfxs(tt.in...), tt.opts)
			assert.Equal(t, tt.want, strs(got))

			tt.opts.Parallel = true
			tt.opts.ParallelThreshold = 1
			tt.opts.Workers = 3
			assert.Equal(t, tt.want, strs(Aggregate(pfxs(tt.in...), tt.opts)), "parallel")
		})
	}
}

func TestAggregateDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	in := pfxs("1.1.1.128/25", "1.1.1.0/25", "2001:db8::/32")
	orig := append([]prefix.Prefix(nil), in...)
	_ = Aggregate(in, Options{})
	assert.Equal(t, orig, in)
}

func TestAggregateSkipsZeroPrefixes(t *testing.T) {
	t.Parallel()

	in := append(pfxs("1.1.1.0/25"), prefix.Prefix{}, mpp("1.1.1.128/25"))
	assert.Equal(t, []string{"1.1.1.0/24"}, strs(Aggregate(in, Options{})))
}

func TestAggregateLongCascade(t *testing.T) {
	t.Parallel()

	// 2^16 contiguous host routes collapse into a single /16
	in := make([]prefix.Prefix, 0, 1<<16)
	for i := range 1 << 16 {
		in = append(in, host4(10, 20, byte(i>>8), byte(i)))
	}
	assert.Equal(t, []string{"10.20.0.0/16"}, strs(Aggregate(in, Options{})))
	assert.Equal(t, []string{"10.20.0.0/16"}, strs(Aggregate(in, Options{Parallel: true, Workers: 7})))

	// with a ceiling the cascade stops at /20
	got := Aggregate(in, Options{MaxDepth: prefix.LengthPair{V4: 20}})
	require.Len(t, got, 16)
	for _, p := range got {
		assert.Equal(t, 20, p.Bits())
	}
}

func TestSortAndSplit(t *testing.T) {
	t.Parallel()

	in := pfxs("2001:db8::/48", "10.0.0.0/16", "2001:db8::/32", "10.0.0.0/8", "::/0", "0.0.0.0/0")
	in = append(in, prefix.Prefix{})
	Sort(in)

	v4, v6 := SplitFamilies(in)
	assert.Equal(t, []string{"0.0.0.0/0", "10.0.0.0/8", "10.0.0.0/16"}, strs(v4))
	assert.Equal(t, []string{"::/0", "2001:db8::/32", "2001:db8::/48"}, strs(v6))

	v4, v6 = SplitFamilies(nil)
	assert.Empty(t, v4)
	assert.Empty(t, v6)
}

func TestPartition(t *testing.T) {
	t.Parallel()

	s := []int{1, 2, 3, 4, 5, 6, 7}
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7}}, partition(s, 3))
	assert.Equal(t, [][]int{{1}, {2}, {3}, {4}, {5}, {6}, {7}}, partition(s, 100))
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5, 6, 7}}, partition(s, 1))
	assert.Nil(t, partition([]int{}, 4))
}

func TestStitchAcrossBoundary(t *testing.T) {
	t.Parallel()

	// the container settles in the first chunk, its subnets arrive in the second
	got := stitch([][]prefix.Prefix{
		pfxs("10.0.0.0/8"),
		pfxs("10.1.0.0/16", "10.2.0.0/16", "11.0.0.0/8"),
	}, 0)
	assert.Equal(t, []string{"10.0.0.0/7"}, strs(got))

	// a merge across the boundary that cascades into the second chunk
	got = stitch([][]prefix.Prefix{
		pfxs("0.0.0.0/32"),
		pfxs("0.0.0.1/32", "0.0.0.2/31", "0.0.0.4/30"),
	}, 0)
	assert.Equal(t, []string{"0.0.0.0/29"}, strs(got))
}

func host4(a, b, c, d byte) prefix.Prefix {
	p, _ := prefix.FromNetip(netip.PrefixFrom(netip.AddrFrom4([4]byte{a, b, c, d}), 32))
	return p
}
