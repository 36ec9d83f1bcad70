package rootable

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MinRadius replaces r = 0 when computing theta.
const MinRadius = 1e-10

// GlobalPosition is a cluster position in the detector frame, cartesian
// and spherical (theta from the z axis).
type GlobalPosition struct {
	X, Y, Z       float64
	R, Theta, Phi float64
}

// GeometryMapper places local sensor positions in the detector frame.
type GeometryMapper struct {
	catalog *Catalog
}

func NewGeometryMapper(catalog *Catalog) *GeometryMapper {
	return &GeometryMapper{catalog: catalog}
}

// ToGlobal maps the local point (u, 0, v) of a sensor into the detector
// frame: the point, taken as a row vector, is multiplied by the sensor's
// rotation about z and then shifted by the sensor translation.
func (m *GeometryMapper) ToGlobal(uLocal, vLocal float64, id SensorID) (float64, float64, float64, error) {
	s, err := m.catalog.Sensor(id)
	if err != nil {
		return 0, 0, 0, err
	}
	local := mat.NewVecDense(3, []float64{uLocal, 0, vLocal})
	var rotated mat.VecDense
	rotated.MulVec(s.rotation.T(), local)
	return rotated.AtVec(0) + s.Shift[0], rotated.AtVec(1) + s.Shift[1], rotated.AtVec(2) + s.Shift[2], nil
}

// Position returns the cartesian and spherical global position.
func (m *GeometryMapper) Position(uLocal, vLocal float64, id SensorID) (GlobalPosition, error) {
	x, y, z, err := m.ToGlobal(uLocal, vLocal, id)
	if err != nil {
		return GlobalPosition{}, err
	}
	r, theta, phi := ToSpherical(x, y, z)
	return GlobalPosition{X: x, Y: y, Z: z, R: r, Theta: theta, Phi: phi}, nil
}

func (m *GeometryMapper) LayerLadder(id SensorID) (int, int, error) {
	return m.catalog.LayerLadder(id)
}

// ToSpherical converts cartesian coordinates to (r, theta, phi).
func ToSpherical(x, y, z float64) (float64, float64, float64) {
	r := math.Sqrt(x*x + y*y + z*z)
	rSafe := r
	if r == 0 {
		rSafe = MinRadius
	}
	theta := math.Acos(z / rSafe)
	phi := math.Atan2(y, x)
	return r, theta, phi
}

// SphericalToCartesian is the inverse of ToSpherical.
func SphericalToCartesian(r, theta, phi float64) (float64, float64, float64) {
	sinTheta := math.Sin(theta)
	return r * sinTheta * math.Cos(phi), r * sinTheta * math.Sin(phi), r * math.Cos(theta)
}
