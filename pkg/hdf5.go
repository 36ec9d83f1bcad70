package rootable

import (
	"fmt"
	"math"

	"gonum.org/v1/hdf5"
)

// ClusterHDF5 is the on-disk layout of a ClusterRow.
type ClusterHDF5 struct {
	EventNumber int32   `hdf5:"eventNumber"`
	SensorID    uint16  `hdf5:"sensorID"`
	ClsCharge   int32   `hdf5:"clsCharge"`
	SeedCharge  int32   `hdf5:"seedCharge"`
	ClsSize     int32   `hdf5:"clsSize"`
	USize       int32   `hdf5:"uSize"`
	VSize       int32   `hdf5:"vSize"`
	UPosition   float64 `hdf5:"uPosition"`
	VPosition   float64 `hdf5:"vPosition"`
	X           float64 `hdf5:"x"`
	Y           float64 `hdf5:"y"`
	Z           float64 `hdf5:"z"`
	R           float64 `hdf5:"r"`
	Theta       float64 `hdf5:"theta"`
	Phi         float64 `hdf5:"phi"`
	Layer       int32   `hdf5:"layer"`
	Ladder      int32   `hdf5:"ladder"`
	PDG         int32   `hdf5:"pdg"`
	MomentumX   float64 `hdf5:"momentumX"`
	MomentumY   float64 `hdf5:"momentumY"`
	MomentumZ   float64 `hdf5:"momentumZ"`
	Mass        float64 `hdf5:"mass"`
	Energy      float64 `hdf5:"energy"`
	ClsNumber   int32   `hdf5:"clsNumber"`
	ROISelected int8    `hdf5:"roiSelected"`
}

type RunInfoHDF5 struct {
	RunID     [STRLEN]byte `hdf5:"run_id"`
	RunNumber int32        `hdf5:"run_number"`
	Events    int32        `hdf5:"events"`
	Clusters  int32        `hdf5:"clusters"`
}

// STRLEN fits a canonical UUID.
const STRLEN = 36

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func toClusterHDF5(row *ClusterRow) ClusterHDF5 {
	var roi int8
	if row.ROISelected {
		roi = 1
	}
	return ClusterHDF5{
		EventNumber: int32(row.EventNumber),
		SensorID:    uint16(row.SensorID),
		ClsCharge:   row.ClsCharge,
		SeedCharge:  row.SeedCharge,
		ClsSize:     int32(row.ClsSize),
		USize:       int32(row.USize),
		VSize:       int32(row.VSize),
		UPosition:   row.UPosition,
		VPosition:   row.VPosition,
		X:           row.X,
		Y:           row.Y,
		Z:           row.Z,
		R:           row.R,
		Theta:       row.Theta,
		Phi:         row.Phi,
		Layer:       int32(row.Layer),
		Ladder:      int32(row.Ladder),
		PDG:         row.PDG,
		MomentumX:   row.MomentumX,
		MomentumY:   row.MomentumY,
		MomentumZ:   row.MomentumZ,
		Mass:        row.Mass,
		Energy:      row.Energy,
		ClsNumber:   int32(row.ClsNumber),
		ROISelected: roi,
	}
}

// flattenMatrices packs the matrices of rows into one row-major int16
// block. Charges above the int16 range saturate.
func flattenMatrices(rows Table, uSize, vSize int) []int16 {
	data := make([]int16, len(rows)*uSize*vSize)
	for k, row := range rows {
		for i := 0; i < uSize && i < len(row.Matrix); i++ {
			for j := 0; j < vSize && j < len(row.Matrix[i]); j++ {
				q := row.Matrix[i][j]
				if q > math.MaxInt16 {
					q = math.MaxInt16
				}
				data[(k*uSize+i)*vSize+j] = int16(q)
			}
		}
	}
	return data
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func create3dArray(group *hdf5.Group, name string, nU int, nV int, compression int) (*hdf5.Dataset, error) {
	dimsArray := []uint{0, uint(nU), uint(nV)}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDimsArray := []uint{uint(unlimitedDims), uint(nU), uint(nV)}
	chunks := []uint{1024, uint(nU), uint(nV)}
	dataset, err := createDataset(group, name, hdf5.T_NATIVE_INT16, dimsArray, maxDimsArray, chunks, compression)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dataset, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	chunks := []uint{32768}

	// create the memory data type
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	dset, err := createDataset(group, name, dtype, dims, maxDims, chunks, compression)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func createDataset(group *hdf5.Group, name string, dtype *hdf5.Datatype, dims, maxDims, chunks []uint, compression int) (*hdf5.Dataset, error) {
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, err
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	defer plist.Close()

	if err := plist.SetChunk(chunks); err != nil {
		return nil, err
	}
	if compression > 0 {
		if err := plist.SetDeflate(compression); err != nil {
			return nil, err
		}
	}
	return group.CreateDatasetWith(name, dtype, fileSpace, plist)
}

// writeArrayToTable appends data to a 1D table holding offset rows.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, offset int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("error creating memory space: %w", err)
	}
	defer dataspace.Close()

	// extend
	rowsInFile := uint(offset)
	if err := dataset.Resize([]uint{rowsInFile + length}); err != nil {
		return fmt.Errorf("error extending table: %w", err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{rowsInFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return fmt.Errorf("error selecting rows: %w", err)
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

// write3dArray appends n matrices of nU x nV values after offset matrices.
func write3dArray(dataset *hdf5.Dataset, data *[]int16, offset int, n int, nU int, nV int) error {
	if n == 0 {
		return nil
	}
	// extend
	newsize := []uint{uint(offset + n), uint(nU), uint(nV)}
	if err := dataset.Resize(newsize); err != nil {
		return fmt.Errorf("error extending array: %w", err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{uint(offset), 0, 0}
	count := []uint{uint(n), uint(nU), uint(nV)}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return fmt.Errorf("error selecting matrices: %w", err)
	}

	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return fmt.Errorf("error creating memory space: %w", err)
	}
	defer dataspace.Close()

	return dataset.WriteSubset(data, dataspace, filespace)
}
