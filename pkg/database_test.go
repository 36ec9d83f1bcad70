package rootable

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	sqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeometryDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenGeometryDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, CreateGeometrySchema(db))
	return db
}

func sensorsOf(c *Catalog) []Sensor {
	sensors := make([]Sensor, 0, c.Len())
	for _, id := range c.IDs() {
		s, _ := c.Sensor(id)
		sensors = append(sensors, *s)
	}
	return sensors
}

func TestLoadCatalogFromDB(t *testing.T) {
	t.Parallel()

	db := newGeometryDB(t)
	require.NoError(t, StoreCatalog(db, ReferenceCatalog(), 0, 1000))

	catalog, err := LoadCatalogFromDB(db, 500)
	require.NoError(t, err)
	require.Equal(t, 40, catalog.Len())

	if diff := cmp.Diff(sensorsOf(ReferenceCatalog()), sensorsOf(catalog), cmpopts.IgnoreUnexported(Sensor{})); diff != "" {
		t.Errorf("catalog mismatch (-builtin +db):\n%s", diff)
	}

	// the rotation is rebuilt, so the transform matches too
	want, err := NewGeometryMapper(ReferenceCatalog()).Position(0.2, -1, 17696)
	require.NoError(t, err)
	got, err := NewGeometryMapper(catalog).Position(0.2, -1, 17696)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadCatalogFromDBRunValidity(t *testing.T) {
	t.Parallel()

	db := newGeometryDB(t)
	require.NoError(t, StoreCatalog(db, ReferenceCatalog(), 100, 200))

	_, err := LoadCatalogFromDB(db, 99)
	assert.ErrorIs(t, err, ErrConfiguration)

	catalog, err := LoadCatalogFromDB(db, 200)
	require.NoError(t, err)
	assert.Equal(t, 40, catalog.Len())
}

func TestLoadCatalogFromDBMissingPowers(t *testing.T) {
	t.Parallel()

	db := newGeometryDB(t)
	_, err := db.Exec(`INSERT INTO SensorGeometry
		(SensorID, UCells, VCells, ShiftX, ShiftY, ShiftZ, Rotation, Layer, Ladder, MinRun, MaxRun)
		VALUES (7, 10, 20, 1, 2, 3, 90, 1, 1, 0, 10)`)
	require.NoError(t, err)
	for _, q := range []string{
		`INSERT INTO SensorCalibration VALUES (7, 'u', 2, 0.5, 0, 10)`,
		`INSERT INTO SensorCalibration VALUES (7, 'u', 0, -1, 0, 10)`,
		`INSERT INTO SensorCalibration VALUES (7, 'v', 1, 2, 0, 10)`,
	} {
		_, err := db.Exec(q)
		require.NoError(t, err)
	}

	catalog, err := LoadCatalogFromDB(db, 5)
	require.NoError(t, err)
	s, err := catalog.Sensor(7)
	require.NoError(t, err)
	assert.Equal(t, Polynomial{0.5, 0, -1}, s.UFit)
	assert.Equal(t, Polynomial{2, 0}, s.VFit)

	_, err = db.Exec(`INSERT INTO SensorCalibration VALUES (7, 'w', 0, 1, 0, 10)`)
	require.NoError(t, err)
	_, err = LoadCatalogFromDB(db, 5)
	assert.Error(t, err)
}

func TestLoadCatalogBuiltin(t *testing.T) {
	t.Parallel()

	catalog, err := LoadCatalog(DefaultConfiguration())
	require.NoError(t, err)
	assert.Same(t, ReferenceCatalog(), catalog)
}
