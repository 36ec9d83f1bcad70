package rootable

import "sort"

// NoTruth marks a reconstructed object without a truth record.
const NoTruth = -1

// TruthParticle is one simulated particle.
type TruthParticle struct {
	PDG              int32
	Mass             float64
	Energy           float64
	Momentum         [3]float64
	ValidVertex      bool
	ProductionTime   float64
	ProductionVertex [3]float64
	DecayTime        float64
	DecayVertex      [3]float64
}

// ParticleTable is the per-event particle list in the columnar layout the
// simulation stores it in. Columns other than PDG and the momenta may be
// left empty.
type ParticleTable struct {
	PDG               []int32   `json:"pdg"`
	Mass              []float64 `json:"mass"`
	Energy            []float64 `json:"energy"`
	MomentumX         []float64 `json:"momentum_x"`
	MomentumY         []float64 `json:"momentum_y"`
	MomentumZ         []float64 `json:"momentum_z"`
	ValidVertex       []bool    `json:"valid_vertex"`
	ProductionTime    []float64 `json:"production_time"`
	ProductionVertexX []float64 `json:"production_vertex_x"`
	ProductionVertexY []float64 `json:"production_vertex_y"`
	ProductionVertexZ []float64 `json:"production_vertex_z"`
	DecayTime         []float64 `json:"decay_time"`
	DecayVertexX      []float64 `json:"decay_vertex_x"`
	DecayVertexY      []float64 `json:"decay_vertex_y"`
	DecayVertexZ      []float64 `json:"decay_vertex_z"`
}

func (t *ParticleTable) Len() int {
	return len(t.PDG)
}

// Validate checks that every column is either empty or as long as PDG.
// The momenta are required whenever there are particles.
func (t *ParticleTable) Validate() error {
	n := len(t.PDG)
	columns := []struct {
		name     string
		length   int
		required bool
	}{
		{"momentum_x", len(t.MomentumX), true},
		{"momentum_y", len(t.MomentumY), true},
		{"momentum_z", len(t.MomentumZ), true},
		{"mass", len(t.Mass), false},
		{"energy", len(t.Energy), false},
		{"valid_vertex", len(t.ValidVertex), false},
		{"production_time", len(t.ProductionTime), false},
		{"production_vertex_x", len(t.ProductionVertexX), false},
		{"production_vertex_y", len(t.ProductionVertexY), false},
		{"production_vertex_z", len(t.ProductionVertexZ), false},
		{"decay_time", len(t.DecayTime), false},
		{"decay_vertex_x", len(t.DecayVertexX), false},
		{"decay_vertex_y", len(t.DecayVertexY), false},
		{"decay_vertex_z", len(t.DecayVertexZ), false},
	}
	for _, col := range columns {
		if col.length == n || (col.length == 0 && !col.required) {
			continue
		}
		return &ErrArrayLengthMismatch{Array: col.name, Length: col.length, Expected: n}
	}
	return nil
}

func at[T any](column []T, i int) T {
	var zero T
	if i < len(column) {
		return column[i]
	}
	return zero
}

// Particle returns row i of the table. Callers check the index.
func (t *ParticleTable) Particle(i int) TruthParticle {
	return TruthParticle{
		PDG:              t.PDG[i],
		Mass:             at(t.Mass, i),
		Energy:           at(t.Energy, i),
		Momentum:         [3]float64{t.MomentumX[i], t.MomentumY[i], t.MomentumZ[i]},
		ValidVertex:      at(t.ValidVertex, i),
		ProductionTime:   at(t.ProductionTime, i),
		ProductionVertex: [3]float64{at(t.ProductionVertexX, i), at(t.ProductionVertexY, i), at(t.ProductionVertexZ, i)},
		DecayTime:        at(t.DecayTime, i),
		DecayVertex:      [3]float64{at(t.DecayVertexX, i), at(t.DecayVertexY, i), at(t.DecayVertexZ, i)},
	}
}

// TruthRelation is a sparse relation table: From holds the indices of the
// reconstructed objects that have a match, To the matched particle for
// each of them, in ascending From order.
type TruthRelation struct {
	From []int `json:"from"`
	To   []int `json:"to"`
}

// missingIndices returns the positions in [0, total) absent from from, sorted.
func missingIndices(from []int, total int) []int {
	present := make(map[int]struct{}, len(from))
	for _, i := range from {
		present[i] = struct{}{}
	}
	missing := make([]int, 0)
	for i := 0; i < total; i++ {
		if _, ok := present[i]; !ok {
			missing = append(missing, i)
		}
	}
	sort.Ints(missing)
	return missing
}

// Reconcile expands a sparse relation into one link per reconstructed
// object. Positions missing from fromIndices get NoTruth; the others take
// the values of toValues in the order they were given. fromIndices only
// decides which positions are missing, it is not used as a key.
func Reconcile(fromIndices, toValues []int, total int) ([]int, error) {
	missing := missingIndices(fromIndices, total)
	if expected := total - len(missing); len(toValues) != expected {
		return nil, &ErrRelationLengthMismatch{Values: len(toValues), Expected: expected, Total: total}
	}

	links := make([]int, total)
	next, m := 0, 0
	for i := range links {
		if m < len(missing) && missing[m] == i {
			links[i] = NoTruth
			m++
			continue
		}
		links[i] = toValues[next]
		next++
	}
	return links, nil
}

// TruthInfo is the truth attached to one cluster. Unmatched clusters get
// the zero value with Link set to NoTruth.
type TruthInfo struct {
	Link     int
	PDG      int32
	Mass     float64
	Energy   float64
	Momentum [3]float64
}

// ResolveTruth looks up the particle behind every link.
func ResolveTruth(links []int, particles *ParticleTable) ([]TruthInfo, error) {
	infos := make([]TruthInfo, len(links))
	for i, link := range links {
		if link == NoTruth {
			infos[i] = TruthInfo{Link: NoTruth}
			continue
		}
		if link < 0 || link >= particles.Len() {
			return nil, &ErrTruthIndexOutOfRange{Index: link, Particles: particles.Len()}
		}
		p := particles.Particle(link)
		infos[i] = TruthInfo{
			Link:     link,
			PDG:      p.PDG,
			Mass:     p.Mass,
			Energy:   p.Energy,
			Momentum: p.Momentum,
		}
	}
	return infos, nil
}
