// Package sqlite persists tracking sessions, per-frame observations and
// counted events in a SQLite database. The schema is managed with
// golang-migrate from migrations embedded in the binary.
package sqlite

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/juggle.report/internal/monitoring"
	"github.com/banshee-data/juggle.report/internal/session"
	"github.com/banshee-data/juggle.report/internal/trajectory"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("session not found")

const (
	busyRetries = 5
	busyBackoff = 20 * time.Millisecond
)

// Store wraps the database handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and migrates it to the
// latest schema. Use ":memory:" only for single-connection tests.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// migrateUp applies all pending migrations. The migrate instance is not
// closed because closing it would close the shared *sql.DB.
func (s *Store) migrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() (uint, bool, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Debugf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return monitoring.Verbose()
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn, retrying with linear backoff while SQLite reports
// the database as locked.
func retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		if err = fn(); !isBusy(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * busyBackoff)
	}
	return err
}

// SessionRecord is one row of the sessions table.
type SessionRecord struct {
	SessionID  string
	StartedAt  time.Time
	EndedAt    *time.Time
	Points     []string
	Config     json.RawMessage
	FrameCount int
	EventCount int
}

// EventRecord is one counted event.
type EventRecord struct {
	SessionID  string
	EventCount int
	FrameIndex int
	PointID    string
	Timestamp  time.Time
}

// FrameRow is the stored state of one point in one frame.
type FrameRow struct {
	FrameIndex   int
	PointID      string
	Timestamp    time.Time
	Measurement  trajectory.Observation
	Prediction   trajectory.Observation
	Extrapolated trajectory.Observation
}

// CreateSession inserts a session row. An empty SessionID is replaced
// with a new uuid.
func (s *Store) CreateSession(rec *SessionRecord) error {
	if rec.SessionID == "" {
		rec.SessionID = uuid.New().String()
	}
	points, err := json.Marshal(rec.Points)
	if err != nil {
		return fmt.Errorf("encode points: %w", err)
	}
	var cfg interface{}
	if len(rec.Config) > 0 {
		cfg = string(rec.Config)
	}
	return retryOnBusy(func() error {
		_, err := s.db.Exec(
			`INSERT INTO sessions (session_id, started_at, points_json, config_json) VALUES (?, ?, ?, ?)`,
			rec.SessionID, rec.StartedAt.UnixNano(), string(points), cfg,
		)
		if err != nil {
			return fmt.Errorf("insert session %s: %w", rec.SessionID, err)
		}
		return nil
	})
}

// CreateSessionFrom inserts a row describing a live session.
func (s *Store) CreateSessionFrom(sess *session.Session) (*SessionRecord, error) {
	cfg, err := json.Marshal(sess.Config)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	rec := &SessionRecord{
		SessionID: sess.ID,
		StartedAt: sess.StartedAt,
		Points:    sess.Points(),
		Config:    cfg,
	}
	if err := s.CreateSession(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// RecordFrame stores every point of one frame result, plus an event row
// when the frame fired, in a single transaction.
func (s *Store) RecordFrame(sessionID string, res session.FrameResult) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO frames
			(session_id, frame_index, point_id, ts, meas_x, meas_y, width, height,
			 pred_x, pred_y, pred_w, pred_h, extrap_x, extrap_y, extrap_w, extrap_h)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare frame insert: %w", err)
		}
		defer stmt.Close()

		ts := res.Timestamp.UnixNano()
		for id, meas := range res.Measurements {
			pred := res.Predictions[id]
			extrap := trajectory.MissingObservation()
			if res.Extrapolated != nil {
				extrap = res.Extrapolated[id]
			}
			_, err := stmt.Exec(sessionID, res.Index, id, ts,
				nullCoord(meas.X), nullCoord(meas.Y), meas.Width, meas.Height,
				nullCoord(pred.X), nullCoord(pred.Y), pred.Width, pred.Height,
				nullCoord(extrap.X), nullCoord(extrap.Y), extrap.Width, extrap.Height,
			)
			if err != nil {
				return fmt.Errorf("insert frame %d point %s: %w", res.Index, id, err)
			}
		}

		if res.Fired {
			if _, err := tx.Exec(
				`INSERT INTO events (session_id, event_count, frame_index, point_id, ts) VALUES (?, ?, ?, ?, ?)`,
				sessionID, res.Count, res.Index, res.CounterPoint, ts,
			); err != nil {
				return fmt.Errorf("insert event %d: %w", res.Count, err)
			}
		}

		if _, err := tx.Exec(
			`UPDATE sessions SET frame_count = ?, event_count = ? WHERE session_id = ?`,
			res.Index+1, res.Count, sessionID,
		); err != nil {
			return fmt.Errorf("update session %s: %w", sessionID, err)
		}
		return tx.Commit()
	})
}

// FinishSession stamps the end time.
func (s *Store) FinishSession(sessionID string, endedAt time.Time) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`UPDATE sessions SET ended_at = ? WHERE session_id = ?`, endedAt.UnixNano(), sessionID)
		if err != nil {
			return fmt.Errorf("finish session %s: %w", sessionID, err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil
	})
}

// GetSession loads one session row.
func (s *Store) GetSession(sessionID string) (*SessionRecord, error) {
	var (
		rec       SessionRecord
		startedAt int64
		endedAt   sql.NullInt64
		points    string
		cfg       sql.NullString
	)
	err := s.db.QueryRow(
		`SELECT session_id, started_at, ended_at, points_json, config_json, frame_count, event_count
		 FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&rec.SessionID, &startedAt, &endedAt, &points, &cfg, &rec.FrameCount, &rec.EventCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", sessionID, err)
	}
	rec.StartedAt = time.Unix(0, startedAt).UTC()
	if endedAt.Valid {
		t := time.Unix(0, endedAt.Int64).UTC()
		rec.EndedAt = &t
	}
	if err := json.Unmarshal([]byte(points), &rec.Points); err != nil {
		return nil, fmt.Errorf("decode points for %s: %w", sessionID, err)
	}
	if cfg.Valid {
		rec.Config = json.RawMessage(cfg.String)
	}
	return &rec, nil
}

// ListSessions returns every session, newest first.
func (s *Store) ListSessions() ([]string, error) {
	rows, err := s.db.Query(`SELECT session_id FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListEvents returns the events of a session in count order.
func (s *Store) ListEvents(sessionID string) ([]EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, event_count, frame_index, point_id, ts FROM events
		 WHERE session_id = ? ORDER BY event_count`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var (
			ev EventRecord
			ts int64
		)
		if err := rows.Scan(&ev.SessionID, &ev.EventCount, &ev.FrameIndex, &ev.PointID, &ts); err != nil {
			return nil, err
		}
		ev.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}

// FrameCount returns the number of distinct frames stored for a session.
func (s *Store) FrameCount(sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(DISTINCT frame_index) FROM frames WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count frames for %s: %w", sessionID, err)
	}
	return n, nil
}

// PointSeries returns the stored rows of one point in frame order.
func (s *Store) PointSeries(sessionID, pointID string) ([]FrameRow, error) {
	rows, err := s.db.Query(
		`SELECT frame_index, ts, meas_x, meas_y, width, height,
		        pred_x, pred_y, pred_w, pred_h, extrap_x, extrap_y, extrap_w, extrap_h
		 FROM frames WHERE session_id = ? AND point_id = ? ORDER BY frame_index`, sessionID, pointID)
	if err != nil {
		return nil, fmt.Errorf("query series %s/%s: %w", sessionID, pointID, err)
	}
	defer rows.Close()

	var out []FrameRow
	for rows.Next() {
		var (
			row                    FrameRow
			ts                     int64
			mx, my, px, py, ex, ey sql.NullFloat64
			w, h, pw, ph, ew, eh   float64
		)
		if err := rows.Scan(&row.FrameIndex, &ts, &mx, &my, &w, &h, &px, &py, &pw, &ph, &ex, &ey, &ew, &eh); err != nil {
			return nil, err
		}
		row.PointID = pointID
		row.Timestamp = time.Unix(0, ts).UTC()
		row.Measurement = observationFrom(mx, my, w, h)
		row.Prediction = observationFrom(px, py, pw, ph)
		row.Extrapolated = observationFrom(ex, ey, ew, eh)
		out = append(out, row)
	}
	return out, rows.Err()
}

// nullCoord maps a missing coordinate to SQL NULL.
func nullCoord(c trajectory.Coord) sql.NullFloat64 {
	v, ok := c.Get()
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func observationFrom(x, y sql.NullFloat64, w, h float64) trajectory.Observation {
	if !x.Valid || !y.Valid {
		return trajectory.MissingObservation()
	}
	return trajectory.NewObservation(x.Float64, y.Float64, w, h)
}
