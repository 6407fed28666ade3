package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/transitlog/busrecorder/gtfsrt"
)

// maxConnections bounds the sqlite connection pool.
const maxConnections = 5

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp INTEGER NOT NULL,
	vehicle_id TEXT NOT NULL,
	route_id TEXT NOT NULL,
	trip_id TEXT,
	direction_id INTEGER,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	current_stop_sequence INTEGER,
	speed REAL,
	bearing REAL
)`

const insertQuery = `INSERT INTO observations (
	timestamp, vehicle_id, route_id, trip_id, direction_id,
	latitude, longitude, current_stop_sequence, speed, bearing
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Store is the durable observation store. A Store is safe for concurrent
// use; the pipeline holds the only writer.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the database at path, bounds the connection pool
// and ensures the observations schema and its indexes exist. Opening an
// already-initialized database leaves existing rows untouched. An error
// here means the process has no durable storage and cannot run.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(maxConnections)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create observations table: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_timestamp ON observations(timestamp)`); err != nil {
		return fmt.Errorf("create timestamp index: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_vehicle ON observations(vehicle_id)`); err != nil {
		return fmt.Errorf("create vehicle index: %w", err)
	}
	log.Debug("database schema initialized")
	return nil
}

// InsertBatch writes every observation in one transaction. Either all rows
// commit or none do. An empty batch is a no-op that returns (0, nil).
func (s *Store) InsertBatch(ctx context.Context, batch []gtfsrt.Observation) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	for _, obs := range batch {
		if _, err := tx.ExecContext(ctx, insertQuery,
			obs.ObservedAt, obs.VehicleID, obs.RouteID, obs.TripID, obs.DirectionID,
			obs.Latitude, obs.Longitude, obs.CurrentStopSequence, obs.Speed, obs.Bearing,
		); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	log.WithField("count", len(batch)).Debug("inserted observations")
	return len(batch), nil
}

// CountTotal returns the number of rows ever committed.
func (s *Store) CountTotal(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM observations`); err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return n, nil
}

// CountForRoute returns the number of committed rows for one route.
func (s *Store) CountForRoute(ctx context.Context, routeID string) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM observations WHERE route_id = ?`, routeID); err != nil {
		return 0, fmt.Errorf("count route observations: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
