package rootable

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindClustersConnectivity(t *testing.T) {
	t.Parallel()

	t.Run("side neighbours merge", func(t *testing.T) {
		clusters, err := FindClusters([]int{5, 5}, []int{5, 6}, []int32{10, 10}, 20, 20)
		require.NoError(t, err)
		require.Len(t, clusters, 1)
		assert.Equal(t, 2, clusters[0].Size)
		assert.Equal(t, int32(20), clusters[0].TotalCharge)
		assert.Equal(t, 1, clusters[0].USize)
		assert.Equal(t, 2, clusters[0].VSize)
	})

	t.Run("diagonal neighbours stay apart", func(t *testing.T) {
		clusters, err := FindClusters([]int{5, 6}, []int{5, 6}, []int32{10, 10}, 20, 20)
		require.NoError(t, err)
		require.Len(t, clusters, 2)
		assert.Equal(t, 1, clusters[0].Size)
		assert.Equal(t, 1, clusters[1].Size)
	})
}

func TestFindClustersPartition(t *testing.T) {
	t.Parallel()

	// an L shape, a lone pixel, a ring and a zero charge digit
	uCells := []int{0, 0, 1, 2, 10, 20, 20, 20, 21, 21, 22, 22, 22, 15}
	vCells := []int{0, 1, 1, 1, 10, 20, 21, 22, 20, 22, 20, 21, 22, 15}
	charges := []int32{1, 2, 3, 4, 50, 6, 7, 8, 9, 10, 11, 12, 13, 0}

	clusters, err := FindClusters(uCells, vCells, charges, 30, 30)
	require.NoError(t, err)
	require.Len(t, clusters, 3)

	seen := make(map[cell]int)
	for i, c := range clusters {
		for _, p := range c.Pixels {
			_, dup := seen[cell{p.U, p.V}]
			assert.False(t, dup, "pixel (%d, %d) in more than one cluster", p.U, p.V)
			seen[cell{p.U, p.V}] = i
			assert.Equal(t, charges[p.Digit], p.Charge)
		}
	}
	for i := range uCells {
		_, ok := seen[cell{uCells[i], vCells[i]}]
		assert.Equal(t, charges[i] != 0, ok, "pixel (%d, %d)", uCells[i], vCells[i])
	}

	sizes := []int{clusters[0].Size, clusters[1].Size, clusters[2].Size}
	assert.Equal(t, []int{4, 1, 8}, sizes)

	ring := clusters[2]
	assert.Equal(t, int32(13), ring.SeedCharge)
	assert.Equal(t, 22, ring.SeedU)
	assert.Equal(t, 22, ring.SeedV)
	assert.Equal(t, 12, ring.SeedDigit)
	assert.Equal(t, 3, ring.USize)
	assert.Equal(t, 3, ring.VSize)
}

func TestFindClustersOrderIndependent(t *testing.T) {
	t.Parallel()

	uCells := []int{3, 3, 4, 8, 8}
	vCells := []int{3, 4, 4, 8, 9}
	charges := []int32{5, 6, 7, 1, 2}

	members := func(clusters []Cluster) [][]cell {
		out := make([][]cell, 0, len(clusters))
		for _, c := range clusters {
			cells := make([]cell, 0, len(c.Pixels))
			for _, p := range c.Pixels {
				cells = append(cells, cell{p.U, p.V})
			}
			sort.Slice(cells, func(i, j int) bool {
				return cells[i].u < cells[j].u || (cells[i].u == cells[j].u && cells[i].v < cells[j].v)
			})
			out = append(out, cells)
		}
		sort.Slice(out, func(i, j int) bool { return out[i][0].u < out[j][0].u })
		return out
	}

	forward, err := FindClusters(uCells, vCells, charges, 10, 10)
	require.NoError(t, err)

	rev := func(s []int) []int {
		r := make([]int, len(s))
		for i := range s {
			r[len(s)-1-i] = s[i]
		}
		return r
	}
	revCharges := make([]int32, len(charges))
	for i := range charges {
		revCharges[len(charges)-1-i] = charges[i]
	}
	backward, err := FindClusters(rev(uCells), rev(vCells), revCharges, 10, 10)
	require.NoError(t, err)

	if diff := cmp.Diff(members(forward), members(backward), cmp.AllowUnexported(cell{})); diff != "" {
		t.Errorf("partition depends on input order (-forward +backward):\n%s", diff)
	}
}

func TestFindClustersDenseDeposit(t *testing.T) {
	t.Parallel()

	// a full sensor of charge is one component and must not blow the stack
	const n = 200
	uCells := make([]int, 0, n*n)
	vCells := make([]int, 0, n*n)
	charges := make([]int32, 0, n*n)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			uCells = append(uCells, u)
			vCells = append(vCells, v)
			charges = append(charges, 1)
		}
	}
	clusters, err := FindClusters(uCells, vCells, charges, n, n)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, n*n, clusters[0].Size)
}

func TestFindClustersErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		u, v    []int
		charges []int32
		target  error
	}{
		{"duplicate with different charge", []int{1, 1}, []int{1, 1}, []int32{3, 4}, &ErrDuplicatePixel{}},
		{"out of range", []int{1, 10}, []int{1, 1}, []int32{3, 4}, &ErrPixelOutOfRange{}},
		{"negative charge", []int{1}, []int{1}, []int32{-3}, &ErrNegativeCharge{}},
		{"length mismatch", []int{1, 2}, []int{1}, []int32{3, 4}, &ErrArrayLengthMismatch{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindClusters(tt.u, tt.v, tt.charges, 10, 10)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDataIntegrity)
			assert.IsType(t, tt.target, err)
		})
	}

	var dup *ErrDuplicatePixel
	_, err := FindClusters([]int{2, 2}, []int{7, 7}, []int32{3, 4}, 10, 10)
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, ErrDuplicatePixel{U: 2, V: 7, First: 3, Second: 4}, *dup)
}

func TestFindClustersRepeatedDigit(t *testing.T) {
	t.Parallel()

	clusters, err := FindClusters([]int{1, 1}, []int{1, 1}, []int32{3, 3}, 10, 10)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, 1, clusters[0].Size)
	assert.Equal(t, 0, clusters[0].Pixels[0].Digit)
}

func TestClusterMatrix(t *testing.T) {
	t.Parallel()

	clusters, err := FindClusters([]int{4, 5, 5, 9}, []int{4, 4, 5, 9}, []int32{1, 9, 2, 0}, 10, 10)
	require.NoError(t, err)
	require.Len(t, clusters, 1)

	want := [][]int32{
		{0, 1, 0},
		{0, 9, 2},
		{0, 0, 0},
	}
	if diff := cmp.Diff(want, clusters[0].Matrix(3, 3)); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}

	// members outside the box are dropped
	small := clusters[0].Matrix(1, 1)
	assert.Equal(t, [][]int32{{9}}, small)
}
