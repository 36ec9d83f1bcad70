package rootable

import (
	"fmt"
)

// Pipeline turns the digits of one event into cluster table rows. It only
// reads the catalog and its configuration, so a single Pipeline can serve
// any number of goroutines.
type Pipeline struct {
	catalog *Catalog
	mapper  *GeometryMapper
	config  Configuration
}

func NewPipeline(catalog *Catalog, config Configuration) (*Pipeline, error) {
	if config.Mode == ModeWindow {
		for _, id := range catalog.IDs() {
			s, _ := catalog.Sensor(id)
			if config.WindowU < 1 || config.WindowV < 1 || config.WindowU%2 == 0 || config.WindowV%2 == 0 ||
				config.WindowU >= s.UCells || config.WindowV >= s.VCells {
				return nil, &ErrInvalidWindowSize{USize: config.WindowU, VSize: config.WindowV, UCells: s.UCells, VCells: s.VCells}
			}
		}
	}
	return &Pipeline{
		catalog: catalog,
		mapper:  NewGeometryMapper(catalog),
		config:  config,
	}, nil
}

func (p *Pipeline) Catalog() *Catalog {
	return p.catalog
}

// ProcessEvent reconstructs the selected digits of an event, and the
// unselected ones when configured, and attaches truth to every cluster.
// Failures come back as *EventError.
func (p *Pipeline) ProcessEvent(event *EventType) (Table, error) {
	if err := event.Particles.Validate(); err != nil {
		return nil, &EventError{Event: event.Number, Stage: "particles", Err: err}
	}

	rows, err := p.processDigits(event, &event.Digits, &event.Relation, true)
	if err != nil {
		return nil, err
	}
	if p.config.IncludeUnselected && event.UnselectedDigits.Len() > 0 {
		unselected, err := p.processDigits(event, &event.UnselectedDigits, &event.UnselectedRelation, false)
		if err != nil {
			return nil, err
		}
		rows = append(rows, unselected...)
	}

	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("Event %d: %d clusters", event.Number, len(rows))
		logger.Info(message, "pipeline")
	}
	return rows, nil
}

func (p *Pipeline) processDigits(event *EventType, digits *DigitArrays, relation *TruthRelation, selected bool) (Table, error) {
	stage := "digits"
	if !selected {
		stage = "unselected digits"
	}
	if err := digits.Validate(); err != nil {
		return nil, &EventError{Event: event.Number, Stage: stage, Err: err}
	}

	clusters, err := p.Reconstruct(event.Number, digits)
	if err != nil {
		return nil, err
	}

	links, err := p.links(clusters, digits.Len(), relation)
	if err != nil {
		return nil, &EventError{Event: event.Number, Stage: "truth", Err: err}
	}
	truth, err := ResolveTruth(links, &event.Particles)
	if err != nil {
		return nil, &EventError{Event: event.Number, Stage: "truth", Err: err}
	}

	rows := make(Table, len(clusters))
	for i := range clusters {
		row, err := p.row(&clusters[i], truth[i])
		if err != nil {
			return nil, &EventError{Event: event.Number, SensorID: clusters[i].SensorID, Stage: "geometry", Err: err}
		}
		row.ROISelected = selected
		rows[i] = row
	}
	return rows, nil
}

// links returns one truth link per cluster, reconciling the relation over
// clusters or over digits depending on the truth level.
func (p *Pipeline) links(clusters []Cluster, nDigits int, relation *TruthRelation) ([]int, error) {
	if p.config.TruthLevel == TruthClusters {
		return Reconcile(relation.From, relation.To, len(clusters))
	}
	digitLinks, err := Reconcile(relation.From, relation.To, nDigits)
	if err != nil {
		return nil, err
	}
	links := make([]int, len(clusters))
	for i, c := range clusters {
		links[i] = digitLinks[c.OriginDigit]
	}
	return links, nil
}

// Reconstruct groups the digits by sensor and clusters every sensor in
// catalog order. Pixel digit indices refer to the event digit arrays.
func (p *Pipeline) Reconstruct(eventNumber int, digits *DigitArrays) ([]Cluster, error) {
	bySensor := make(map[SensorID][]int)
	for i, id := range digits.SensorID {
		if !p.catalog.Contains(id) {
			return nil, &EventError{Event: eventNumber, SensorID: id, Stage: "digits", Err: &ErrUnknownSensor{SensorID: id}}
		}
		bySensor[id] = append(bySensor[id], i)
	}

	clusters := make([]Cluster, 0)
	for _, id := range p.catalog.IDs() {
		indices, ok := bySensor[id]
		if !ok {
			continue
		}
		s, _ := p.catalog.Sensor(id)

		uCells := make([]int, len(indices))
		vCells := make([]int, len(indices))
		charges := make([]int32, len(indices))
		for j, i := range indices {
			uCells[j], vCells[j], charges[j] = digits.UCellID[i], digits.VCellID[i], digits.Charge[i]
		}

		var found []Cluster
		var err error
		stage := "clustering"
		switch p.config.Mode {
		case ModeWindow:
			stage = "window"
			found, err = SweepWindows(uCells, vCells, charges, s.UCells, s.VCells, p.config.WindowU, p.config.WindowV)
		default:
			found, err = FindClusters(uCells, vCells, charges, s.UCells, s.VCells)
		}
		if err != nil {
			return nil, &EventError{Event: eventNumber, SensorID: id, Stage: stage, Err: err}
		}

		for k := range found {
			c := &found[k]
			c.SensorID = id
			c.Event = eventNumber
			for m := range c.Pixels {
				c.Pixels[m].Digit = indices[c.Pixels[m].Digit]
			}
			c.SeedDigit = indices[c.SeedDigit]
			c.OriginDigit = indices[c.OriginDigit]
		}
		if configuration.Verbosity > 2 {
			message := fmt.Sprintf("Event %d, sensor %d: %d digits, %d clusters", eventNumber, id, len(indices), len(found))
			logger.Info(message, "pipeline")
		}
		clusters = append(clusters, found...)
	}
	return clusters, nil
}

func (p *Pipeline) row(c *Cluster, truth TruthInfo) (ClusterRow, error) {
	s, err := p.catalog.Sensor(c.SensorID)
	if err != nil {
		return ClusterRow{}, err
	}
	uPosition, vPosition := s.PixelToUV(c.SeedU, c.SeedV)
	pos, err := p.mapper.Position(uPosition, vPosition, c.SensorID)
	if err != nil {
		return ClusterRow{}, err
	}

	row := ClusterRow{
		EventNumber: c.Event,
		SensorID:    c.SensorID,
		ClsCharge:   c.TotalCharge,
		SeedCharge:  c.SeedCharge,
		ClsSize:     c.Size,
		USize:       c.USize,
		VSize:       c.VSize,
		UPosition:   uPosition,
		VPosition:   vPosition,
		X:           pos.X,
		Y:           pos.Y,
		Z:           pos.Z,
		R:           pos.R,
		Theta:       pos.Theta,
		Phi:         pos.Phi,
		Layer:       s.Layer,
		Ladder:      s.Ladder,
		PDG:         truth.PDG,
		MomentumX:   truth.Momentum[0],
		MomentumY:   truth.Momentum[1],
		MomentumZ:   truth.Momentum[2],
		Mass:        truth.Mass,
		Energy:      truth.Energy,
		ClsNumber:   truth.Link,
	}
	if p.config.WriteMatrices {
		row.Matrix = c.Matrix(p.config.MatrixU, p.config.MatrixV)
	}
	return row, nil
}
