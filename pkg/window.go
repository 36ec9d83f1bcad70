package rootable

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// DefaultWindowSize is the starting window in both u and v.
const DefaultWindowSize = 9

// ChargeGrid is the dense charge map of one sensor in one event, indexed
// [u][v] and stored row-major.
type ChargeGrid struct {
	UCells  int
	VCells  int
	charges []int32
}

func NewChargeGrid(uCells, vCells int) *ChargeGrid {
	return &ChargeGrid{
		UCells:  uCells,
		VCells:  vCells,
		charges: make([]int32, uCells*vCells),
	}
}

func (g *ChargeGrid) At(u, v int) int32 {
	return g.charges[u*g.VCells+v]
}

func (g *ChargeGrid) Set(u, v int, charge int32) {
	g.charges[u*g.VCells+v] = charge
}

func (g *ChargeGrid) Contains(u, v int) bool {
	return u >= 0 && u < g.UCells && v >= 0 && v < g.VCells
}

// Window is the square region extracted around a charge deposit.
type Window struct {
	ULower int
	VLower int
	USize  int
	VSize  int

	// Charges is USize rows of VSize values.
	Charges [][]int32

	// Global cell positions of the nonzero pixels, row-major.
	UPositions []int
	VPositions []int

	// Global position of the charge maximum.
	SeedU int
	SeedV int
}

func clip[T constraints.Integer](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func largestOdd(n int) int {
	if n%2 == 0 {
		return n - 1
	}
	return n
}

// ExtractWindow returns the smallest odd window, starting at uSize x vSize,
// that holds the deposit around the seed pixel with the charge maximum at
// its centre. The window grows by two cells in both dimensions while charge
// sits on a border that is not a sensor edge.
func ExtractWindow(grid *ChargeGrid, seedU, seedV, uSize, vSize int) (*Window, error) {
	if uSize < 1 || vSize < 1 || uSize%2 == 0 || vSize%2 == 0 ||
		uSize >= grid.UCells || vSize >= grid.VCells {
		return nil, &ErrInvalidWindowSize{USize: uSize, VSize: vSize, UCells: grid.UCells, VCells: grid.VCells}
	}
	if !grid.Contains(seedU, seedV) {
		return nil, &ErrPixelOutOfRange{U: seedU, V: seedV, UCells: grid.UCells, VCells: grid.VCells}
	}

	maxU, maxV := largestOdd(grid.UCells), largestOdd(grid.VCells)
	for {
		cu, cv := uSize/2, vSize/2
		uLower := clip(seedU-cu, 0, grid.UCells-uSize)
		vLower := clip(seedV-cv, 0, grid.VCells-vSize)

		mu, mv := grid.argmax(uLower, vLower, uSize, vSize)
		if mu != uLower+cu || mv != vLower+cv {
			uLower = clip(mu-cu, 0, grid.UCells-uSize)
			vLower = clip(mv-cv, 0, grid.VCells-vSize)
		}

		if !grid.spillsOver(uLower, vLower, uSize, vSize) {
			return grid.window(uLower, vLower, uSize, vSize), nil
		}

		nu, nv := min(uSize+2, maxU), min(vSize+2, maxV)
		if nu == uSize && nv == vSize {
			return nil, &ErrWindowGrowth{SeedU: seedU, SeedV: seedV, USize: uSize, VSize: vSize}
		}
		if configuration.Verbosity > 3 {
			message := fmt.Sprintf("Growing window around (%d, %d) to %dx%d", seedU, seedV, nu, nv)
			logger.Info(message, "window")
		}
		uSize, vSize = nu, nv
	}
}

// argmax returns the global position of the first maximum in row-major order.
func (g *ChargeGrid) argmax(uLower, vLower, uSize, vSize int) (int, int) {
	bestU, bestV := uLower, vLower
	best := g.At(uLower, vLower)
	for u := uLower; u < uLower+uSize; u++ {
		for v := vLower; v < vLower+vSize; v++ {
			if q := g.At(u, v); q > best {
				best, bestU, bestV = q, u, v
			}
		}
	}
	return bestU, bestV
}

// spillsOver reports whether a border line carries charge on a side that
// is not a physical edge of the sensor.
func (g *ChargeGrid) spillsOver(uLower, vLower, uSize, vSize int) bool {
	uUpper, vUpper := uLower+uSize-1, vLower+vSize-1

	if uLower > 0 && g.rowCharged(uLower, vLower, vUpper) {
		return true
	}
	if uUpper < g.UCells-1 && g.rowCharged(uUpper, vLower, vUpper) {
		return true
	}
	if vLower > 0 && g.columnCharged(vLower, uLower, uUpper) {
		return true
	}
	if vUpper < g.VCells-1 && g.columnCharged(vUpper, uLower, uUpper) {
		return true
	}
	return false
}

func (g *ChargeGrid) rowCharged(u, vFrom, vTo int) bool {
	for v := vFrom; v <= vTo; v++ {
		if g.At(u, v) != 0 {
			return true
		}
	}
	return false
}

func (g *ChargeGrid) columnCharged(v, uFrom, uTo int) bool {
	for u := uFrom; u <= uTo; u++ {
		if g.At(u, v) != 0 {
			return true
		}
	}
	return false
}

func (g *ChargeGrid) window(uLower, vLower, uSize, vSize int) *Window {
	w := &Window{
		ULower:  uLower,
		VLower:  vLower,
		USize:   uSize,
		VSize:   vSize,
		Charges: make([][]int32, uSize),
	}
	w.SeedU, w.SeedV = g.argmax(uLower, vLower, uSize, vSize)
	for i := 0; i < uSize; i++ {
		w.Charges[i] = make([]int32, vSize)
		for j := 0; j < vSize; j++ {
			q := g.At(uLower+i, vLower+j)
			w.Charges[i][j] = q
			if q != 0 {
				w.UPositions = append(w.UPositions, uLower+i)
				w.VPositions = append(w.VPositions, vLower+j)
			}
		}
	}
	return w
}

// SweepWindows walks the digits in input order and extracts a window
// around every fired pixel not yet claimed. The unclaimed nonzero pixels
// of the window, plus the pixel that opened it, become one cluster.
func SweepWindows(uCells, vCells []int, charges []int32, uExtent, vExtent, uSize, vSize int) ([]Cluster, error) {
	grid, digits, err := scatterDigits(uCells, vCells, charges, uExtent, vExtent)
	if err != nil {
		return nil, err
	}

	claimed := make([]bool, uExtent*vExtent)
	clusters := make([]Cluster, 0)
	for i := range uCells {
		u, v := uCells[i], vCells[i]
		if grid.At(u, v) == 0 || claimed[u*vExtent+v] {
			continue
		}
		w, err := ExtractWindow(grid, u, v, uSize, vSize)
		if err != nil {
			return nil, err
		}

		origin := digits[cell{u, v}]
		claimed[u*vExtent+v] = true
		pixels := []Pixel{{U: u, V: v, Charge: grid.At(u, v), Digit: origin}}
		for k := range w.UPositions {
			pu, pv := w.UPositions[k], w.VPositions[k]
			if claimed[pu*vExtent+pv] {
				continue
			}
			claimed[pu*vExtent+pv] = true
			pixels = append(pixels, Pixel{U: pu, V: pv, Charge: grid.At(pu, pv), Digit: digits[cell{pu, pv}]})
		}

		c := newCluster(pixels)
		c.OriginDigit = origin
		clusters = append(clusters, c)
	}
	return clusters, nil
}
