package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	rootable "github.com/pxd-tools/rootable_go/pkg"
)

type Logger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

func (l Logger) Info(message string, module string) {
	l.InfoLog.Info(message, "module", module)
}

func (l Logger) Error(message string) {
	l.ErrorLog.Error(message)
}

func LoadConfiguration(filename string) (rootable.Configuration, error) {
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
	logger.Info(fmt.Sprintf("Window: %dx%d", config.WindowU, config.WindowV), "config")
	logger.Info(fmt.Sprintf("Geometry source: %s", config.GeometrySource), "config")
}

// parseWorkers reads a comma separated list of worker counts.
func parseWorkers(list string) ([]int, error) {
	workers := make([]int, 0)
	for _, field := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("invalid worker count %q: %w", field, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("invalid worker count %d", n)
		}
		workers = append(workers, n)
	}
	return workers, nil
}

func parseModes(list string) ([]rootable.ClusteringMode, error) {
	modes := make([]rootable.ClusteringMode, 0)
	for _, field := range strings.Split(list, ",") {
		var mode rootable.ClusteringMode
		if err := json.Unmarshal([]byte(strconv.Quote(strings.TrimSpace(field))), &mode); err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}
	return modes, nil
}
