package main

import (
	"encoding/json"
	"fmt"
	"os"

	rootable "github.com/pxd-tools/rootable_go/pkg"
)

func LoadConfiguration(filename string) (rootable.Configuration, error) {
	// Set default values
	config := rootable.DefaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, config.Validate()
}

func printConfiguration(config rootable.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Discard: %t", config.Discard), "config")
	logger.Info(fmt.Sprintf("Mode: %s", config.Mode), "config")
	logger.Info(fmt.Sprintf("Window: %dx%d", config.WindowU, config.WindowV), "config")
	logger.Info(fmt.Sprintf("Truth level: %s", config.TruthLevel), "config")
	logger.Info(fmt.Sprintf("Include unselected: %t", config.IncludeUnselected), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Write matrices: %t (%dx%d)", config.WriteMatrices, config.MatrixU, config.MatrixV), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Geometry source: %s", config.GeometrySource), "config")
	switch config.GeometrySource {
	case rootable.GeometryMySQL:
		logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
		logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	case rootable.GeometrySQLite:
		logger.Info(fmt.Sprintf("Geometry DB: %s", config.GeometryDB), "config")
	}
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
}
