package rootable

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	"golang.org/x/exp/slices"
	_ "modernc.org/sqlite"
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// OpenGeometryDB opens a local SQLite conditions database. ":memory:"
// gives a private in-memory database.
func OpenGeometryDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

type SensorGeometryEntry struct {
	SensorID int     `db:"SensorID"`
	UCells   int     `db:"UCells"`
	VCells   int     `db:"VCells"`
	ShiftX   float64 `db:"ShiftX"`
	ShiftY   float64 `db:"ShiftY"`
	ShiftZ   float64 `db:"ShiftZ"`
	Rotation float64 `db:"Rotation"`
	Layer    int     `db:"Layer"`
	Ladder   int     `db:"Ladder"`
}

type SensorCalibrationEntry struct {
	SensorID    int     `db:"SensorID"`
	Axis        string  `db:"Axis"`
	Power       int     `db:"Power"`
	Coefficient float64 `db:"Coefficient"`
}

var geometrySchema = []string{`
CREATE TABLE IF NOT EXISTS SensorGeometry (
	SensorID INTEGER NOT NULL,
	UCells   INTEGER NOT NULL,
	VCells   INTEGER NOT NULL,
	ShiftX   DOUBLE NOT NULL,
	ShiftY   DOUBLE NOT NULL,
	ShiftZ   DOUBLE NOT NULL,
	Rotation DOUBLE NOT NULL,
	Layer    INTEGER NOT NULL,
	Ladder   INTEGER NOT NULL,
	MinRun   INTEGER NOT NULL,
	MaxRun   INTEGER NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS SensorCalibration (
	SensorID    INTEGER NOT NULL,
	Axis        CHAR(1) NOT NULL,
	Power       INTEGER NOT NULL,
	Coefficient DOUBLE NOT NULL,
	MinRun      INTEGER NOT NULL,
	MaxRun      INTEGER NOT NULL
)`}

// CreateGeometrySchema creates the conditions tables if they are missing.
func CreateGeometrySchema(db *sqlx.DB) error {
	for _, statement := range geometrySchema {
		if _, err := db.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}

// StoreCatalog inserts every sensor of catalog as valid for runs
// [minRun, maxRun].
func StoreCatalog(db *sqlx.DB, catalog *Catalog, minRun, maxRun int) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range catalog.IDs() {
		s, _ := catalog.Sensor(id)
		_, err := tx.Exec(`INSERT INTO SensorGeometry
			(SensorID, UCells, VCells, ShiftX, ShiftY, ShiftZ, Rotation, Layer, Ladder, MinRun, MaxRun)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			int(s.ID), s.UCells, s.VCells, s.Shift[0], s.Shift[1], s.Shift[2], s.RotationDeg, s.Layer, s.Ladder, minRun, maxRun)
		if err != nil {
			return fmt.Errorf("error storing sensor %d: %w", s.ID, err)
		}
		for axis, fit := range map[string]Polynomial{"u": s.UFit, "v": s.VFit} {
			for k, c := range fit {
				_, err := tx.Exec(`INSERT INTO SensorCalibration
					(SensorID, Axis, Power, Coefficient, MinRun, MaxRun) VALUES (?, ?, ?, ?, ?, ?)`,
					int(s.ID), axis, len(fit)-1-k, c, minRun, maxRun)
				if err != nil {
					return fmt.Errorf("error storing calibration of sensor %d: %w", s.ID, err)
				}
			}
		}
	}
	return tx.Commit()
}

// LoadCatalogFromDB builds the sensor catalog valid for runNumber. Sensors
// come out in SensorID order.
func LoadCatalogFromDB(db *sqlx.DB, runNumber int) (*Catalog, error) {
	geometry, err := getGeometryFromDB(db, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting sensor geometry from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}
	calibration, err := getCalibrationFromDB(db, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting sensor calibration from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}

	sensors := make([]Sensor, 0, len(geometry))
	for _, g := range geometry {
		sensors = append(sensors, Sensor{
			ID:          SensorID(g.SensorID),
			UCells:      g.UCells,
			VCells:      g.VCells,
			Shift:       [3]float64{g.ShiftX, g.ShiftY, g.ShiftZ},
			RotationDeg: g.Rotation,
			UFit:        calibration[calibrationKey{g.SensorID, "u"}],
			VFit:        calibration[calibrationKey{g.SensorID, "v"}],
			Layer:       g.Layer,
			Ladder:      g.Ladder,
		})
	}
	if len(sensors) == 0 {
		return nil, fmt.Errorf("%w: no sensor geometry for run %d", ErrConfiguration, runNumber)
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Loaded %d sensors for run %d", len(sensors), runNumber)
		logger.Info(message, "database")
	}
	return NewCatalog(sensors)
}

func getGeometryFromDB(db *sqlx.DB, runNumber int) ([]SensorGeometryEntry, error) {
	query := `SELECT SensorID, UCells, VCells, ShiftX, ShiftY, ShiftZ, Rotation, Layer, Ladder
		FROM SensorGeometry WHERE MinRun <= ? and MaxRun >= ? ORDER BY SensorID`

	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}
	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	entries := make([]SensorGeometryEntry, 0)
	for rows.Next() {
		result := SensorGeometryEntry{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		entries = append(entries, result)
	}
	return entries, rows.Err()
}

type calibrationKey struct {
	sensorID int
	axis     string
}

// getCalibrationFromDB returns the u and v polynomials of every sensor,
// highest power first. Missing powers are zero.
func getCalibrationFromDB(db *sqlx.DB, runNumber int) (map[calibrationKey]Polynomial, error) {
	query := `SELECT SensorID, Axis, Power, Coefficient
		FROM SensorCalibration WHERE MinRun <= ? and MaxRun >= ?`

	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}
	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	terms := make(map[calibrationKey][]SensorCalibrationEntry)
	for rows.Next() {
		result := SensorCalibrationEntry{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		if result.Axis != "u" && result.Axis != "v" {
			return nil, fmt.Errorf("sensor %d: unknown calibration axis %q", result.SensorID, result.Axis)
		}
		if result.Power < 0 {
			return nil, fmt.Errorf("sensor %d: negative calibration power %d", result.SensorID, result.Power)
		}
		key := calibrationKey{result.SensorID, result.Axis}
		terms[key] = append(terms[key], result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fits := make(map[calibrationKey]Polynomial, len(terms))
	for key, entries := range terms {
		slices.SortFunc(entries, func(a, b SensorCalibrationEntry) int {
			return b.Power - a.Power
		})
		fit := make(Polynomial, entries[0].Power+1)
		for _, e := range entries {
			fit[entries[0].Power-e.Power] = e.Coefficient
		}
		fits[key] = fit
	}
	return fits, nil
}

// LoadCatalog returns the catalog selected by config.GeometrySource.
func LoadCatalog(config Configuration) (*Catalog, error) {
	switch config.GeometrySource {
	case GeometryMySQL:
		db, err := ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
		if err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		defer db.Close()
		return LoadCatalogFromDB(db, config.RunNumber)
	case GeometrySQLite:
		db, err := OpenGeometryDB(config.GeometryDB)
		if err != nil {
			return nil, &ErrOpenFile{Filename: config.GeometryDB, Err: err}
		}
		defer db.Close()
		return LoadCatalogFromDB(db, config.RunNumber)
	default:
		return ReferenceCatalog(), nil
	}
}
