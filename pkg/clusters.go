package rootable

// Pixel is a single fired cell of a cluster. Digit is the position of the
// pixel in the input digit arrays it was read from.
type Pixel struct {
	U      int
	V      int
	Charge int32
	Digit  int
}

// Cluster is a connected charge deposit on one sensor in one event.
type Cluster struct {
	SensorID SensorID
	Event    int

	Pixels      []Pixel
	SeedCharge  int32
	TotalCharge int32
	USize       int
	VSize       int
	Size        int
	SeedU       int
	SeedV       int
	SeedDigit   int

	// Digit the cluster was built from: the seed in component mode, the
	// pixel that opened the window in window mode.
	OriginDigit int
}

func newCluster(pixels []Pixel) Cluster {
	c := Cluster{
		Pixels: pixels,
		Size:   len(pixels),
	}
	us := make(map[int]struct{})
	vs := make(map[int]struct{})
	for i, p := range pixels {
		c.TotalCharge += p.Charge
		// first maximum wins
		if i == 0 || p.Charge > c.SeedCharge {
			c.SeedCharge = p.Charge
			c.SeedU, c.SeedV, c.SeedDigit = p.U, p.V, p.Digit
		}
		us[p.U] = struct{}{}
		vs[p.V] = struct{}{}
	}
	c.USize = len(us)
	c.VSize = len(vs)
	c.OriginDigit = c.SeedDigit
	return c
}

// Matrix returns a uSize x vSize charge matrix with the seed pixel at the
// centre. Members falling outside the matrix are dropped.
func (c *Cluster) Matrix(uSize, vSize int) [][]int32 {
	m := make([][]int32, uSize)
	for i := range m {
		m[i] = make([]int32, vSize)
	}
	for _, p := range c.Pixels {
		i := p.U - c.SeedU + uSize/2
		j := p.V - c.SeedV + vSize/2
		if i < 0 || i >= uSize || j < 0 || j >= vSize {
			continue
		}
		m[i][j] = p.Charge
	}
	return m
}

type cell struct {
	u, v int
}

// scatterDigits fills a dense grid from the digit arrays and returns the
// grid plus the digit index of every fired cell. Zero charges carry no
// information and are left out.
func scatterDigits(uCells, vCells []int, charges []int32, uExtent, vExtent int) (*ChargeGrid, map[cell]int, error) {
	if len(vCells) != len(uCells) {
		return nil, nil, &ErrArrayLengthMismatch{Array: "v_cell_id", Length: len(vCells), Expected: len(uCells)}
	}
	if len(charges) != len(uCells) {
		return nil, nil, &ErrArrayLengthMismatch{Array: "charge", Length: len(charges), Expected: len(uCells)}
	}

	grid := NewChargeGrid(uExtent, vExtent)
	digits := make(map[cell]int, len(uCells))
	for i := range uCells {
		u, v, q := uCells[i], vCells[i], charges[i]
		if !grid.Contains(u, v) {
			return nil, nil, &ErrPixelOutOfRange{U: u, V: v, UCells: uExtent, VCells: vExtent}
		}
		if q < 0 {
			return nil, nil, &ErrNegativeCharge{U: u, V: v, Charge: q}
		}
		if q == 0 {
			continue
		}
		if prev := grid.At(u, v); prev != 0 {
			if prev != q {
				return nil, nil, &ErrDuplicatePixel{U: u, V: v, First: prev, Second: q}
			}
			continue
		}
		grid.Set(u, v, q)
		digits[cell{u, v}] = i
	}
	return grid, digits, nil
}

// FindClusters partitions the fired cells of one sensor into 4-connected
// components. Every nonzero cell ends up in exactly one cluster; diagonal
// neighbours are not connected.
//
// A cell listed twice with different charges is rejected with
// ErrDuplicatePixel instead of keeping the last value.
func FindClusters(uCells, vCells []int, charges []int32, uExtent, vExtent int) ([]Cluster, error) {
	grid, digits, err := scatterDigits(uCells, vCells, charges, uExtent, vExtent)
	if err != nil {
		return nil, err
	}

	visited := make([]bool, uExtent*vExtent)
	clusters := make([]Cluster, 0)
	for i := range uCells {
		u, v := uCells[i], vCells[i]
		if grid.At(u, v) == 0 || visited[u*vExtent+v] {
			continue
		}
		pixels := floodFill(grid, visited, digits, u, v)
		clusters = append(clusters, newCluster(pixels))
	}
	return clusters, nil
}

// floodFill collects the component containing (startU, startV) using an
// explicit stack.
func floodFill(grid *ChargeGrid, visited []bool, digits map[cell]int, startU, startV int) []Pixel {
	neighbours := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

	pixels := make([]Pixel, 0)
	stack := []cell{{startU, startV}}
	visited[startU*grid.VCells+startV] = true

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pixels = append(pixels, Pixel{U: c.u, V: c.v, Charge: grid.At(c.u, c.v), Digit: digits[c]})

		for _, d := range neighbours {
			u, v := c.u+d[0], c.v+d[1]
			if !grid.Contains(u, v) || grid.At(u, v) == 0 {
				continue
			}
			if visited[u*grid.VCells+v] {
				continue
			}
			visited[u*grid.VCells+v] = true
			stack = append(stack, cell{u, v})
		}
	}
	return pixels
}
