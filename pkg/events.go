package rootable

// DigitArrays holds the digits of one event as parallel arrays, the way
// the simulation stores them.
type DigitArrays struct {
	SensorID []SensorID `json:"sensor_id"`
	UCellID  []int      `json:"u_cell_id"`
	VCellID  []int      `json:"v_cell_id"`
	Charge   []int32    `json:"charge"`
}

func (d *DigitArrays) Len() int {
	return len(d.SensorID)
}

func (d *DigitArrays) Validate() error {
	n := len(d.SensorID)
	if len(d.UCellID) != n {
		return &ErrArrayLengthMismatch{Array: "u_cell_id", Length: len(d.UCellID), Expected: n}
	}
	if len(d.VCellID) != n {
		return &ErrArrayLengthMismatch{Array: "v_cell_id", Length: len(d.VCellID), Expected: n}
	}
	if len(d.Charge) != n {
		return &ErrArrayLengthMismatch{Array: "charge", Length: len(d.Charge), Expected: n}
	}
	return nil
}

type EventType struct {
	Number int `json:"event"`
	// Digits inside the regions of interest.
	Digits   DigitArrays   `json:"digits"`
	Relation TruthRelation `json:"relation"`
	// Digits outside the regions of interest, optional.
	UnselectedDigits   DigitArrays   `json:"unselected_digits"`
	UnselectedRelation TruthRelation `json:"unselected_relation"`
	Particles          ParticleTable `json:"particles"`
}

// ClusterRow is one line of the output cluster table.
type ClusterRow struct {
	EventNumber int
	SensorID    SensorID
	ClsCharge   int32
	SeedCharge  int32
	ClsSize     int
	USize       int
	VSize       int
	UPosition   float64
	VPosition   float64
	X           float64
	Y           float64
	Z           float64
	R           float64
	Theta       float64
	Phi         float64
	Layer       int
	Ladder      int
	PDG         int32
	MomentumX   float64
	MomentumY   float64
	MomentumZ   float64
	Mass        float64
	Energy      float64
	ClsNumber   int
	ROISelected bool

	// Seed-centred charge matrix, only filled when matrices are requested.
	Matrix [][]int32
}

type Table []ClusterRow

// EventResult is what the workers hand back for one event.
type EventResult struct {
	Event int
	Rows  Table
	Err   error
}
