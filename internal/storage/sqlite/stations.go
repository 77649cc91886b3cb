package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yegors/zendmap/internal/stations"
	"github.com/yegors/zendmap/pkg/logger"
)

var (
	// ErrRunNotFound is returned when the catalog holds no runs
	ErrRunNotFound = errors.New("run not found")
	// ErrStationNotFound is returned when a run holds no station with the requested id
	ErrStationNotFound = errors.New("station not found")
)

// Open opens the catalog database at path. ":memory:" gives a private in-memory catalog.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// sqlite allows one writer; an in-memory database also lives on a single connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return db, nil
}

// StationStorage handles storage of runs and their base stations
type StationStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewStationStorage creates a new SQLite station storage
func NewStationStorage(db *sql.DB, log *logger.Logger) (*StationStorage, error) {
	storage := &StationStorage{
		db:     db,
		logger: log.Named("sqlite-stations"),
	}

	if err := storage.initDB(); err != nil {
		return nil, err
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *StationStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			bbox TEXT NOT NULL,
			summary TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS stations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			operator TEXT NOT NULL,
			bipt_id INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			dossier TEXT,
			distance REAL NOT NULL,
			sectors TEXT NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create stations table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at)`,
		`CREATE INDEX IF NOT EXISTS idx_stations_run_operator ON stations(run_id, operator)`,
		`CREATE INDEX IF NOT EXISTS idx_stations_bipt_id ON stations(bipt_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err = s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create station index: %w", err)
		}
	}

	return nil
}

// StoreRun stores a run record
func (s *StationStorage) StoreRun(run *RunRecord) error {
	var summary sql.NullString
	if len(run.Summary) > 0 {
		summary = sql.NullString{String: string(run.Summary), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, started_at, finished_at, bbox, summary) VALUES (?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.BBox,
		summary,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// StoreStations stores the base stations of one operator in a single transaction
func (s *StationStorage) StoreStations(runID, operator string, list []stations.BaseStation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO stations (run_id, operator, bipt_id, x, y, dossier, distance, sectors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare station insert: %w", err)
	}
	defer stmt.Close()

	for _, bs := range list {
		sectors, err := json.Marshal(bs.Sectors)
		if err != nil {
			return fmt.Errorf("failed to encode sectors of %d: %w", bs.BIPTID, err)
		}
		if _, err := stmt.Exec(runID, operator, bs.BIPTID, bs.Location.X, bs.Location.Y, bs.Dossier, bs.Distance, string(sectors)); err != nil {
			return fmt.Errorf("failed to insert station %d: %w", bs.BIPTID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stations: %w", err)
	}

	s.logger.Debug("Stored base stations",
		logger.String("run_id", runID),
		logger.String("operator", operator),
		logger.Int("count", len(list)))
	return nil
}

// LatestRun returns the most recently finished run
func (s *StationStorage) LatestRun() (*RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, started_at, finished_at, bbox, summary
		FROM runs
		ORDER BY finished_at DESC, rowid DESC
		LIMIT 1`,
	)

	var run RunRecord
	var startedAt, finishedAt string
	var summary sql.NullString
	if err := row.Scan(&run.ID, &startedAt, &finishedAt, &run.BBox, &summary); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339, finishedAt); err != nil {
		return nil, fmt.Errorf("failed to parse finished_at: %w", err)
	}
	if summary.Valid {
		run.Summary = json.RawMessage(summary.String)
	}

	return &run, nil
}

// GetStations returns the stations of a run, optionally limited to one operator
func (s *StationStorage) GetStations(runID, operator string) ([]*StationRecord, error) {
	query := `SELECT id, run_id, operator, bipt_id, x, y, dossier, distance, sectors
		FROM stations
		WHERE run_id = ?`
	args := []interface{}{runID}
	if operator != "" {
		query += ` AND operator = ?`
		args = append(args, operator)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	return s.scanStationRows(rows)
}

// GetStation returns every operator's record of one site in a run
func (s *StationStorage) GetStation(runID string, biptID int64) ([]*StationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, operator, bipt_id, x, y, dossier, distance, sectors
		FROM stations
		WHERE run_id = ? AND bipt_id = ?
		ORDER BY id`,
		runID, biptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query station %d: %w", biptID, err)
	}
	defer rows.Close()

	records, err := s.scanStationRows(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrStationNotFound
	}
	return records, nil
}

// scanStationRows scans database rows into StationRecord structs
func (s *StationStorage) scanStationRows(rows *sql.Rows) ([]*StationRecord, error) {
	records := []*StationRecord{}
	for rows.Next() {
		var record StationRecord
		var dossier sql.NullString
		var sectors string

		if err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.Operator,
			&record.BIPTID,
			&record.Location.X,
			&record.Location.Y,
			&dossier,
			&record.Distance,
			&sectors,
		); err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}

		if err := json.Unmarshal([]byte(sectors), &record.Sectors); err != nil {
			return nil, fmt.Errorf("failed to decode sectors of %d: %w", record.BIPTID, err)
		}
		if dossier.Valid {
			record.Dossier = dossier.String
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stations: %w", err)
	}
	return records, nil
}
