package rootable

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pixel matrix extent of every PXD sensor.
const (
	DefaultUCells = 250
	DefaultVCells = 768
)

type SensorID uint16

// Polynomial holds fit coefficients with the highest order first.
type Polynomial []float64

func (p Polynomial) Eval(x float64) float64 {
	y := 0.0
	for _, c := range p {
		y = y*x + c
	}
	return y
}

// Sensor is one PXD module: its pixel extent, placement in the detector
// and local pixel calibration.
type Sensor struct {
	ID          SensorID
	UCells      int
	VCells      int
	Shift       [3]float64
	RotationDeg float64
	UFit        Polynomial
	VFit        Polynomial
	Layer       int
	Ladder      int

	rotation *mat.Dense
}

// PixelToUV converts cell indices into physical local u/v positions.
func (s *Sensor) PixelToUV(uCell, vCell int) (float64, float64) {
	return s.UFit.Eval(float64(uCell)), s.VFit.Eval(float64(vCell))
}

func rotationAboutZ(deg float64) *mat.Dense {
	theta := deg * math.Pi / 180
	c, s := math.Cos(theta), math.Sin(theta)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// Catalog is the immutable sensor table, shared read-only by every stage.
type Catalog struct {
	sensors []Sensor
	index   map[SensorID]int
}

// NewCatalog validates the sensors and builds their rotation matrices.
// The order of the input is kept and defines the processing order.
func NewCatalog(sensors []Sensor) (*Catalog, error) {
	c := &Catalog{
		sensors: make([]Sensor, len(sensors)),
		index:   make(map[SensorID]int, len(sensors)),
	}
	for i, s := range sensors {
		if _, ok := c.index[s.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate sensor id %d in catalog", ErrConfiguration, s.ID)
		}
		if s.UCells <= 0 || s.VCells <= 0 {
			return nil, fmt.Errorf("%w: sensor %d has invalid extent %dx%d", ErrConfiguration, s.ID, s.UCells, s.VCells)
		}
		if len(s.UFit) == 0 || len(s.VFit) == 0 {
			return nil, fmt.Errorf("%w: sensor %d has no pixel calibration", ErrConfiguration, s.ID)
		}
		s.UFit = append(Polynomial(nil), s.UFit...)
		s.VFit = append(Polynomial(nil), s.VFit...)
		s.rotation = rotationAboutZ(s.RotationDeg)
		c.sensors[i] = s
		c.index[s.ID] = i
	}
	return c, nil
}

func mustNewCatalog(sensors []Sensor) *Catalog {
	c, err := NewCatalog(sensors)
	if err != nil {
		panic(err)
	}
	return c
}

// Sensor returns the sensor with the given ID.
func (c *Catalog) Sensor(id SensorID) (*Sensor, error) {
	i, ok := c.index[id]
	if !ok {
		return nil, &ErrUnknownSensor{SensorID: id}
	}
	return &c.sensors[i], nil
}

func (c *Catalog) Contains(id SensorID) bool {
	_, ok := c.index[id]
	return ok
}

// IDs returns the sensor IDs in catalog order.
func (c *Catalog) IDs() []SensorID {
	ids := make([]SensorID, len(c.sensors))
	for i, s := range c.sensors {
		ids[i] = s.ID
	}
	return ids
}

func (c *Catalog) Len() int {
	return len(c.sensors)
}

// LayerLadder returns the layer and ladder a sensor is mounted on.
func (c *Catalog) LayerLadder(id SensorID) (int, int, error) {
	s, err := c.Sensor(id)
	if err != nil {
		return 0, 0, err
	}
	return s.Layer, s.Ladder, nil
}

var referenceCatalog = mustNewCatalog(referenceSensors())

// ReferenceCatalog returns the built-in 40 sensor PXD geometry.
func ReferenceCatalog() *Catalog {
	return referenceCatalog
}

func referenceSensors() []Sensor {
	type row struct {
		id     SensorID
		shift  [3]float64
		rot    float64
		layer  int
		ladder int
		uFit   Polynomial
		vFit   Polynomial
	}

	// Layer 1, v fits are linear
	v1fw := Polynomial{0.00587037, -2.29395374}
	v1bw := Polynomial{0.00587037, -2.20862039}
	rows := []row{
		{8480, [3]float64{1.3985, 0.2652658, 3.68255}, 90, 1, 1, Polynomial{0.005, -0.6228546}, v1fw},
		{8512, [3]float64{1.3985, 0.2652658, -0.88255}, 90, 1, 1, Polynomial{0.005, -0.62285449}, v1bw},
		{8736, [3]float64{0.80146531, 1.17631236, 3.68255}, 225, 1, 2, Polynomial{0.005, -0.6228546}, v1fw},
		{8768, [3]float64{0.80146531, 1.17631236, -0.88255}, 225, 1, 2, Polynomial{0.005, -0.62285449}, v1bw},
		{8992, [3]float64{-0.2652658, 1.3985, 3.68255}, 180, 1, 3, Polynomial{0.005, -0.6228546}, Polynomial{0.00587037, -2.29395375}},
		{9024, [3]float64{-0.2652658, 1.3985, -0.88255}, 180, 1, 3, Polynomial{0.005, -0.62285449}, v1bw},
		{9248, [3]float64{-1.17631236, 0.80146531, 3.68255}, 135, 1, 4, Polynomial{0.005, -0.6228546}, Polynomial{0.00587037, -2.29395375}},
		{9280, [3]float64{-1.17631236, 0.80146531, -0.88255}, 135, 1, 4, Polynomial{0.005, -0.62285449}, v1bw},
		{9504, [3]float64{-1.3985, -0.2652658, 3.68255}, 270, 1, 5, Polynomial{0.005, -0.6228546}, Polynomial{0.00587037, -2.29395375}},
		{9536, [3]float64{-1.3985, -0.2652658, -0.88255}, 270, 1, 5, Polynomial{0.005, -0.62285449}, v1bw},
		{9760, [3]float64{-0.80146531, -1.17631236, 3.68255}, 405, 1, 6, Polynomial{0.005, -0.6228546}, Polynomial{0.00587037, -2.29395375}},
		{9792, [3]float64{-0.80146531, -1.17631236, -0.88255}, 405, 1, 6, Polynomial{0.005, -0.62285449}, Polynomial{0.00587037, -2.2086204}},
		{10016, [3]float64{0.2652658, -1.3985, 3.68255}, 360, 1, 7, Polynomial{0.005, -0.6228546}, Polynomial{0.00587037, -2.29395375}},
		{10048, [3]float64{0.2652658, -1.3985, -0.88255}, 360, 1, 7, Polynomial{0.005, -0.62285449}, v1bw},
		{10272, [3]float64{1.2652658, -0.80146531, 3.68255}, 495, 1, 8, Polynomial{0.005, -0.6228546}, Polynomial{0.00587037, -2.29395375}},
		{10304, [3]float64{1.2652658, -0.80146531, -0.88255}, 495, 1, 8, Polynomial{0.005, -0.62285449}, v1bw},

		// Layer 2, v fits are quadratic
		{16672, [3]float64{2.2015, 0.2652658, 5.01305}, 90, 2, 9, Polynomial{0.005, -0.62285456}, Polynomial{1.44676145e-06, 7.00144541e-03, -3.09694398e+00}},
		{16704, [3]float64{2.2015, 0.2652658, -1.21305}, 90, 2, 9, Polynomial{0.005, -0.62285445}, Polynomial{-1.44676141e-06, 9.22077745e-03, -3.12427848e+00}},
		{16928, [3]float64{1.77559093, 1.32758398, 5.01305}, 60, 2, 10, Polynomial{0.005, -0.62285456}, Polynomial{1.44676147e-06, 7.00144538e-03, -3.09694398e+00}},
		{16960, [3]float64{1.77559093, 1.32758398, -1.21305}, 60, 2, 10, Polynomial{0.005, -0.62285446}, Polynomial{-1.44676141e-06, 9.22077745e-03, -3.12427848e+00}},
		{17184, [3]float64{0.87126021, 2.039055, 5.01305}, 30, 2, 12, Polynomial{0.005, -0.62285456}, Polynomial{1.44676151e-06, 7.00144535e-03, -3.09694397e+00}},
		{17216, [3]float64{0.87126021, 2.039055, -1.21305}, 30, 2, 12, Polynomial{0.005, -0.62285446}, Polynomial{-1.44676138e-06, 9.22077742e-03, -3.12427847e+00}},
		{17440, [3]float64{-0.2652658, 2.2015, 5.01305}, 180, 2, 13, Polynomial{0.005, -0.62285456}, Polynomial{1.44676148e-06, 7.00144538e-03, -3.09694398e+00}},
		{17472, [3]float64{-0.2652658, 2.2015, -1.21305}, 180, 2, 13, Polynomial{0.005, -0.62285446}, Polynomial{-1.44676141e-06, 9.22077744e-03, -3.12427848e+00}},
		{17696, [3]float64{-1.32758398, 1.77559093, 5.01305}, 150, 2, 14, Polynomial{0.005, -0.62285456}, Polynomial{1.44676154e-06, 7.00144533e-03, -3.09694397e+00}},
		{17728, [3]float64{-1.32758398, 1.77559093, -1.21305}, 150, 2, 14, Polynomial{0.005, -0.62285446}, Polynomial{-1.44676144e-06, 9.22077747e-03, -3.12427849e+00}},
		{17952, [3]float64{-2.039055, 0.87126021, 5.01305}, 120, 2, 15, Polynomial{0.005, -0.62285456}, Polynomial{1.44676148e-06, 7.00144539e-03, -3.09694398e+00}},
		{17984, [3]float64{-2.039055, 0.87126021, -1.21305}, 120, 2, 15, Polynomial{0.005, -0.62285446}, Polynomial{-1.44676143e-06, 9.22077746e-03, -3.12427848e+00}},
		{18208, [3]float64{-2.2015, -0.2652658, 5.01305}, 270, 2, 16, Polynomial{0.005, -0.62285456}, Polynomial{1.44676142e-06, 7.00144543e-03, -3.09694399e+00}},
		{18240, [3]float64{-2.2015, -0.2652658, -1.21305}, 270, 2, 16, Polynomial{0.005, -0.62285446}, Polynomial{-1.44676147e-06, 9.22077748e-03, -3.12427848e+00}},
		{18464, [3]float64{-1.77559093, -1.32758398, 5.01305}, 60, 2, 17, Polynomial{0.005, -0.62285456}, Polynomial{1.44676148e-06, 7.00144539e-03, -3.09694398e+00}},
		{18496, [3]float64{-1.77559093, -1.32758398, -1.21305}, 60, 2, 17, Polynomial{0.005, -0.62285446}, Polynomial{-1.44676139e-06, 9.22077742e-03, -3.12427847e+00}},
		{18720, [3]float64{-0.87126021, -2.039055, 5.01305}, 390, 2, 18, Polynomial{0.005, -0.62285456}, Polynomial{1.44676152e-06, 7.00144535e-03, -3.09694397e+00}},
		{18752, [3]float64{-0.87126021, -2.039055, -1.21305}, 390, 2, 18, Polynomial{0.005, -0.62285446}, Polynomial{-1.44676141e-06, 9.22077744e-03, -3.12427848e+00}},
		{18976, [3]float64{0.2652658, -2.2015, 5.01305}, 360, 2, 19, Polynomial{0.005, -0.62285456}, Polynomial{1.44676153e-06, 7.00144534e-03, -3.09694397e+00}},
		{19008, [3]float64{0.2652658, -2.2015, -1.21305}, 360, 2, 19, Polynomial{0.005, -0.62285446}, Polynomial{-1.44676139e-06, 9.22077743e-03, -3.12427848e+00}},
		{19232, [3]float64{1.32758398, -1.77559093, 5.01305}, 330, 2, 20, Polynomial{0.005, -0.62285456}, Polynomial{1.44676152e-06, 7.00144537e-03, -3.09694398e+00}},
		{19264, [3]float64{1.32758398, -1.77559093, -1.21305}, 330, 2, 20, Polynomial{0.005, -0.62285446}, Polynomial{-1.44676145e-06, 9.22077748e-03, -3.12427849e+00}},
		{19488, [3]float64{2.039055, -0.87126021, 5.01305}, 300, 2, 21, Polynomial{0.005, -0.62285456}, Polynomial{1.44676150e-06, 7.00144538e-03, -3.09694398e+00}},
		{19520, [3]float64{2.039055, -0.87126021, -1.21305}, 300, 2, 21, Polynomial{0.005, -0.62285445}, Polynomial{-1.44676143e-06, 9.22077746e-03, -3.12427848e+00}},
	}

	sensors := make([]Sensor, len(rows))
	for i, r := range rows {
		sensors[i] = Sensor{
			ID:          r.id,
			UCells:      DefaultUCells,
			VCells:      DefaultVCells,
			Shift:       r.shift,
			RotationDeg: r.rot,
			UFit:        r.uFit,
			VFit:        r.vFit,
			Layer:       r.layer,
			Ladder:      r.ladder,
		}
	}
	return sensors
}
