package rootable

import (
	"encoding/json"
	"fmt"
)

// ClusteringMode selects how the fired pixels of a sensor become clusters.
type ClusteringMode int

const (
	// ModeComponents partitions all fired pixels into 4-connected components.
	ModeComponents ClusteringMode = iota
	// ModeWindow sweeps the digits and extracts an adaptive window around
	// every pixel not already claimed by a previous window.
	ModeWindow
)

var clusteringModeStrings = []string{
	"components",
	"window",
}

func (m ClusteringMode) String() string {
	if m < ModeComponents || m > ModeWindow {
		return "UNKNOWN"
	}
	return clusteringModeStrings[m]
}

func (m ClusteringMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *ClusteringMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, v := range clusteringModeStrings {
		if v == s {
			*m = ClusteringMode(i)
			return nil
		}
	}
	return fmt.Errorf("invalid ClusteringMode: %s", s)
}

// TruthLevel tells what the truth relation of an event is indexed by.
type TruthLevel int

const (
	TruthClusters TruthLevel = iota
	TruthDigits
)

var truthLevelStrings = []string{
	"clusters",
	"digits",
}

func (l TruthLevel) String() string {
	if l < TruthClusters || l > TruthDigits {
		return "UNKNOWN"
	}
	return truthLevelStrings[l]
}

func (l TruthLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *TruthLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, v := range truthLevelStrings {
		if v == s {
			*l = TruthLevel(i)
			return nil
		}
	}
	return fmt.Errorf("invalid TruthLevel: %s", s)
}

// GeometrySource is where the sensor catalog is loaded from.
type GeometrySource int

const (
	GeometryBuiltin GeometrySource = iota
	GeometryMySQL
	GeometrySQLite
)

var geometrySourceStrings = []string{
	"builtin",
	"mysql",
	"sqlite",
}

func (g GeometrySource) String() string {
	if g < GeometryBuiltin || g > GeometrySQLite {
		return "UNKNOWN"
	}
	return geometrySourceStrings[g]
}

func (g GeometrySource) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

func (g *GeometrySource) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, v := range geometrySourceStrings {
		if v == s {
			*g = GeometrySource(i)
			return nil
		}
	}
	return fmt.Errorf("invalid GeometrySource: %s", s)
}
