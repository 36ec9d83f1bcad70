package rootable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridWith(uCells, vCells int, charges map[cell]int32) *ChargeGrid {
	g := NewChargeGrid(uCells, vCells)
	for c, q := range charges {
		g.Set(c.u, c.v, q)
	}
	return g
}

func TestExtractWindowRecenters(t *testing.T) {
	t.Parallel()

	g := gridWith(DefaultUCells, DefaultVCells, map[cell]int32{
		{5, 5}: 3,
		{5, 7}: 10,
	})
	w, err := ExtractWindow(g, 5, 5, 9, 9)
	require.NoError(t, err)

	assert.Equal(t, 5, w.SeedU)
	assert.Equal(t, 7, w.SeedV)
	assert.Equal(t, 9, w.USize)
	assert.Equal(t, 9, w.VSize)
	assert.Equal(t, 1, w.ULower)
	assert.Equal(t, 3, w.VLower)
	assert.Equal(t, int32(10), w.Charges[4][4])
	assert.Equal(t, []int{5, 5}, w.UPositions)
	assert.Equal(t, []int{5, 7}, w.VPositions)
}

func TestExtractWindowGrows(t *testing.T) {
	t.Parallel()

	g := gridWith(DefaultUCells, DefaultVCells, map[cell]int32{
		{100, 100}: 20,
		{104, 100}: 5,
	})
	w, err := ExtractWindow(g, 100, 100, 9, 9)
	require.NoError(t, err)

	assert.Equal(t, 11, w.USize)
	assert.Equal(t, 11, w.VSize)
	assert.Equal(t, 95, w.ULower)
	assert.Equal(t, 95, w.VLower)
	assert.Equal(t, 100, w.SeedU)
	assert.Equal(t, 100, w.SeedV)
	assert.Equal(t, []int{100, 104}, w.UPositions)
	require.Len(t, w.Charges, 11)
	for _, row := range w.Charges {
		assert.Len(t, row, 11)
	}
}

func TestExtractWindowSensorEdge(t *testing.T) {
	t.Parallel()

	// charge on the first row and column is on the sensor edge, no growth
	g := gridWith(DefaultUCells, DefaultVCells, map[cell]int32{
		{0, 0}: 7,
		{0, 1}: 4,
		{1, 0}: 2,
	})
	w, err := ExtractWindow(g, 0, 0, 9, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, w.USize)
	assert.Equal(t, 0, w.ULower)
	assert.Equal(t, 0, w.VLower)
	assert.Equal(t, 0, w.SeedU)
	assert.Equal(t, 0, w.SeedV)

	// the far corner clips the offset, never the size
	last := gridWith(DefaultUCells, DefaultVCells, map[cell]int32{
		{DefaultUCells - 1, DefaultVCells - 1}: 7,
	})
	w, err = ExtractWindow(last, DefaultUCells-1, DefaultVCells-1, 9, 9)
	require.NoError(t, err)
	assert.Equal(t, DefaultUCells-9, w.ULower)
	assert.Equal(t, DefaultVCells-9, w.VLower)
	assert.Equal(t, 9, w.USize)
}

func TestExtractWindowCannotGrow(t *testing.T) {
	t.Parallel()

	g := NewChargeGrid(10, 10)
	for u := 0; u < 10; u++ {
		for v := 0; v < 10; v++ {
			g.Set(u, v, 1)
		}
	}
	g.Set(4, 4, 5)

	_, err := ExtractWindow(g, 4, 4, 9, 9)
	require.Error(t, err)
	assert.IsType(t, &ErrWindowGrowth{}, err)
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestExtractWindowInvalidSize(t *testing.T) {
	t.Parallel()

	g := NewChargeGrid(DefaultUCells, DefaultVCells)
	g.Set(10, 10, 1)

	for _, size := range [][2]int{{8, 9}, {9, 8}, {0, 9}, {251, 9}, {9, DefaultVCells}} {
		_, err := ExtractWindow(g, 10, 10, size[0], size[1])
		require.Error(t, err, "size %v", size)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.IsType(t, &ErrInvalidWindowSize{}, err)
	}
}

func TestSweepWindows(t *testing.T) {
	t.Parallel()

	uCells := []int{10, 10, 50, 10}
	vCells := []int{10, 11, 50, 10}
	charges := []int32{5, 8, 3, 5}

	clusters, err := SweepWindows(uCells, vCells, charges, DefaultUCells, DefaultVCells, 9, 9)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	first := clusters[0]
	assert.Equal(t, 2, first.Size)
	assert.Equal(t, int32(13), first.TotalCharge)
	assert.Equal(t, int32(8), first.SeedCharge)
	assert.Equal(t, 10, first.SeedU)
	assert.Equal(t, 11, first.SeedV)
	assert.Equal(t, 1, first.SeedDigit)
	assert.Equal(t, 0, first.OriginDigit)

	second := clusters[1]
	assert.Equal(t, 1, second.Size)
	assert.Equal(t, 2, second.OriginDigit)
}

func TestSweepWindowsClaimsEveryPixel(t *testing.T) {
	t.Parallel()

	// a track much longer than the starting window
	uCells := make([]int, 0)
	vCells := make([]int, 0)
	charges := make([]int32, 0)
	for v := 0; v < 40; v++ {
		uCells = append(uCells, 20)
		vCells = append(vCells, v)
		charges = append(charges, int32(1+v%7))
	}

	clusters, err := SweepWindows(uCells, vCells, charges, DefaultUCells, DefaultVCells, 9, 9)
	require.NoError(t, err)

	claimed := make(map[cell]int)
	for _, c := range clusters {
		for _, p := range c.Pixels {
			claimed[cell{p.U, p.V}]++
		}
	}
	assert.Len(t, claimed, 40)
	for c, n := range claimed {
		assert.Equal(t, 1, n, "pixel (%d, %d)", c.u, c.v)
	}
	require.Len(t, clusters, 1)
	assert.Equal(t, 40, clusters[0].Size)
}
