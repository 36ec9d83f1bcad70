package rootable

import (
	"errors"
	"fmt"
)

type Configuration struct {
	MaxEvents  int    `json:"max_events"`
	Verbosity  int    `json:"verbosity"`
	FileIn     string `json:"file_in"`
	FileOut    string `json:"file_out"`
	Skip       int    `json:"skip"`
	NumWorkers int    `json:"num_workers"`
	Discard    bool   `json:"discard"`

	Mode              ClusteringMode `json:"mode"`
	WindowU           int            `json:"window_u"`
	WindowV           int            `json:"window_v"`
	TruthLevel        TruthLevel     `json:"truth_level"`
	IncludeUnselected bool           `json:"include_unselected"`

	WriteData        bool `json:"write_data"`
	WriteMatrices    bool `json:"write_matrices"`
	MatrixU          int  `json:"matrix_u"`
	MatrixV          int  `json:"matrix_v"`
	CompressionLevel int  `json:"compression_level"`

	GeometrySource GeometrySource `json:"geometry_source"`
	Host           string         `json:"host"`
	User           string         `json:"user"`
	Passwd         string         `json:"pass"`
	DBName         string         `json:"dbname"`
	GeometryDB     string         `json:"geometry_db"`
	RunNumber      int            `json:"run_number"`
}

// DefaultConfiguration returns the values used for keys missing from the
// configuration file.
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxEvents:        1000000000,
		Verbosity:        0,
		Skip:             0,
		NumWorkers:       1,
		Discard:          true,
		Mode:             ModeComponents,
		WindowU:          DefaultWindowSize,
		WindowV:          DefaultWindowSize,
		TruthLevel:       TruthClusters,
		WriteData:        true,
		MatrixU:          DefaultWindowSize,
		MatrixV:          DefaultWindowSize,
		CompressionLevel: 4,
		GeometrySource:   GeometryBuiltin,
		Host:             "localhost",
		User:             "pxdreader",
		Passwd:           "readonly",
		DBName:           "PXD",
	}
}

// Validate checks the settings that do not depend on a sensor. Window
// sizes are checked against every sensor when the pipeline is built.
func (c Configuration) Validate() error {
	var errs []error
	if c.NumWorkers < 1 {
		errs = append(errs, fmt.Errorf("num_workers must be at least 1, got %d", c.NumWorkers))
	}
	if c.Skip < 0 {
		errs = append(errs, fmt.Errorf("skip must not be negative, got %d", c.Skip))
	}
	if c.MaxEvents < 0 {
		errs = append(errs, fmt.Errorf("max_events must not be negative, got %d", c.MaxEvents))
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		errs = append(errs, fmt.Errorf("compression_level must be in [0, 9], got %d", c.CompressionLevel))
	}
	if c.WriteMatrices && (c.MatrixU < 1 || c.MatrixV < 1 || c.MatrixU%2 == 0 || c.MatrixV%2 == 0) {
		errs = append(errs, fmt.Errorf("matrix size must be odd and positive, got %dx%d", c.MatrixU, c.MatrixV))
	}
	if c.GeometrySource == GeometrySQLite && c.GeometryDB == "" {
		errs = append(errs, errors.New("geometry_db is required for the sqlite geometry source"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

var configuration = DefaultConfiguration()

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
