package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	rootable "github.com/pxd-tools/rootable_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(results ...rootable.EventResult) <-chan rootable.EventResult {
	ch := make(chan rootable.EventResult, len(results))
	for _, r := range results {
		ch <- r
	}
	close(ch)
	return ch
}

func TestProcessWorkerResultsDiscard(t *testing.T) {
	DiscardErrors = true
	defer func() { DiscardErrors = false }()

	dataErr := &rootable.EventError{Event: 1, Stage: "truth", Err: &rootable.ErrRelationLengthMismatch{Values: 1, Expected: 2, Total: 3}}
	cancelled := false
	processed, discarded, clusters, err := processWorkerResults(feed(
		rootable.EventResult{Event: 0, Rows: rootable.Table{{}, {}}},
		rootable.EventResult{Event: 1, Err: dataErr},
		rootable.EventResult{Event: 2, Rows: rootable.Table{{}}},
	), nil, func() { cancelled = true })

	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 1, discarded)
	assert.Equal(t, 3, clusters)
	assert.False(t, cancelled)
}

func TestProcessWorkerResultsAbort(t *testing.T) {
	DiscardErrors = false

	dataErr := &rootable.EventError{Event: 1, Stage: "clustering", Err: &rootable.ErrDuplicatePixel{U: 1, V: 1, First: 2, Second: 3}}
	cancelled := false
	processed, _, _, err := processWorkerResults(feed(
		rootable.EventResult{Event: 0, Rows: rootable.Table{{}}},
		rootable.EventResult{Event: 1, Err: dataErr},
		rootable.EventResult{Event: 2, Rows: rootable.Table{{}}},
	), nil, func() { cancelled = true })

	assert.ErrorIs(t, err, rootable.ErrDataIntegrity)
	assert.Equal(t, 1, processed)
	assert.True(t, cancelled)
}

func TestProcessWorkerResultsConfigurationErrorsAlwaysAbort(t *testing.T) {
	DiscardErrors = true
	defer func() { DiscardErrors = false }()

	configErr := &rootable.EventError{Event: 0, SensorID: 3, Stage: "digits", Err: &rootable.ErrUnknownSensor{SensorID: 3}}
	_, discarded, _, err := processWorkerResults(feed(
		rootable.EventResult{Event: 0, Err: configErr},
	), nil, func() {})

	assert.ErrorIs(t, err, rootable.ErrConfiguration)
	assert.Equal(t, 0, discarded)
	var eventErr *rootable.EventError
	assert.True(t, errors.As(err, &eventErr))
}

func TestRunWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "events.json")
	require.NoError(t, os.WriteFile(input, []byte(`
{"event": 0, "digits": {"sensor_id": [8480, 8480], "u_cell_id": [3, 3], "v_cell_id": [4, 5], "charge": [9, 12]}}
{"event": 1, "digits": {"sensor_id": [8480], "u_cell_id": [3], "v_cell_id": [4], "charge": [9]}, "relation": {"from": [0], "to": [0, 1]}}
{"event": 2, "digits": {"sensor_id": [9024], "u_cell_id": [30], "v_cell_id": [40], "charge": [2]}}
`), 0o644))

	configuration = rootable.DefaultConfiguration()
	configuration.FileIn = input
	configuration.WriteData = false
	configuration.NumWorkers = 2
	DiscardErrors = true
	defer func() { DiscardErrors = false }()

	assert.NoError(t, run(context.Background()))

	// the broken relation in event 1 aborts without discard
	DiscardErrors = false
	assert.ErrorIs(t, run(context.Background()), rootable.ErrDataIntegrity)
}

func TestExportCatalog(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "pxd.db")
	require.NoError(t, exportCatalog(filename, 10, 20))

	configuration = rootable.DefaultConfiguration()
	configuration.GeometrySource = rootable.GeometrySQLite
	configuration.GeometryDB = filename
	configuration.RunNumber = 15
	catalog, err := rootable.LoadCatalog(configuration)
	require.NoError(t, err)
	assert.Equal(t, 40, catalog.Len())
}
