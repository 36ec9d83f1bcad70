package rootable

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/hdf5"
)

// Writer appends cluster tables to an HDF5 file:
//
//	/Clusters/clusters  one compound row per cluster
//	/Clusters/matrices  nClusters x matrixU x matrixV int16 (optional)
//	/Run/runInfo        run id, run number and totals, written on Close
type Writer struct {
	File          *hdf5.File
	Filename      string
	ClustersGroup *hdf5.Group
	RunGroup      *hdf5.Group
	ClusterTable  *hdf5.Dataset
	MatrixArray   *hdf5.Dataset
	RunInfoTable  *hdf5.Dataset

	RunID          uuid.UUID
	RunNumber      int
	EvtCounter     int
	ClusterCounter int

	matrixU int
	matrixV int
}

// NewWriter creates filename, truncating it. Matrices are written when
// config.WriteMatrices is set.
func NewWriter(filename string, runID uuid.UUID, config Configuration) (*Writer, error) {
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Creating file %s", filename)
		logger.Info(message, "writer")
	}
	w := &Writer{
		Filename:  filename,
		RunID:     runID,
		RunNumber: config.RunNumber,
	}

	var err error
	if w.File, err = openFile(filename); err != nil {
		return nil, err
	}
	if w.ClustersGroup, err = createGroup(w.File, "Clusters"); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.ClusterTable, err = createTable(w.ClustersGroup, "clusters", ClusterHDF5{}, config.CompressionLevel); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.RunInfoTable, err = createTable(w.RunGroup, "runInfo", RunInfoHDF5{}, config.CompressionLevel); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if config.WriteMatrices {
		w.matrixU, w.matrixV = config.MatrixU, config.MatrixV
		if w.MatrixArray, err = create3dArray(w.ClustersGroup, "matrices", w.matrixU, w.matrixV, config.CompressionLevel); err != nil {
			return nil, errors.Join(err, w.Close())
		}
	}
	return w, nil
}

// WriteEvent appends the rows of one event.
func (w *Writer) WriteEvent(rows Table) error {
	entries := make([]ClusterHDF5, len(rows))
	for i := range rows {
		entries[i] = toClusterHDF5(&rows[i])
	}
	if err := writeArrayToTable(w.ClusterTable, &entries, w.ClusterCounter); err != nil {
		return fmt.Errorf("error writing clusters: %w", err)
	}
	if w.MatrixArray != nil {
		data := flattenMatrices(rows, w.matrixU, w.matrixV)
		if err := write3dArray(w.MatrixArray, &data, w.ClusterCounter, len(rows), w.matrixU, w.matrixV); err != nil {
			return fmt.Errorf("error writing matrices: %w", err)
		}
	}
	w.ClusterCounter += len(rows)
	w.EvtCounter++
	return nil
}

func (w *Writer) writeRunInfo() error {
	info := []RunInfoHDF5{{
		RunID:     convertToHdf5String(w.RunID.String()),
		RunNumber: int32(w.RunNumber),
		Events:    int32(w.EvtCounter),
		Clusters:  int32(w.ClusterCounter),
	}}
	return writeArrayToTable(w.RunInfoTable, &info, 0)
}

// Close writes the run summary and releases every HDF5 handle. It is safe
// on a partially created writer.
func (w *Writer) Close() error {
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Closing file %s", w.Filename)
		logger.Info(message, "writer")
	}
	var errs []error

	if w.RunInfoTable != nil && w.ClusterTable != nil {
		if err := w.writeRunInfo(); err != nil {
			errs = append(errs, fmt.Errorf("error writing run info: %w", err))
		}
	}
	if w.MatrixArray != nil {
		if err := w.MatrixArray.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing matrices: %w", err))
		}
	}
	if w.ClusterTable != nil {
		if err := w.ClusterTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing cluster table: %w", err))
		}
	}
	if w.RunInfoTable != nil {
		if err := w.RunInfoTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run info table: %w", err))
		}
	}
	if w.ClustersGroup != nil {
		if err := w.ClustersGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing clusters group: %w", err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
