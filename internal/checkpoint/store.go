// Package checkpoint keeps an undo history of label grids in sqlite.
//
// Each checkpoint is a full snapshot of a label grid, gob-encoded and
// gzipped, keyed by a uuid and grouped by editing session. Manager adapts
// a Store to the fill engine's Checkpointer.
package checkpoint

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/labelwand/internal/grid"
	"github.com/banshee-data/labelwand/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoCheckpoint is returned when a session has no stored checkpoint.
var ErrNoCheckpoint = errors.New("no checkpoint")

// Checkpoint is one stored label snapshot.
type Checkpoint struct {
	ID           string
	SessionID    string
	TakenAt      time.Time
	Shape        grid.Shape
	Reason       string
	LabeledCount int
	// Labels is row-major; nil in the results of List.
	Labels []int32
}

// Store is the sqlite checkpoint database.
type Store struct {
	*sql.DB
	path string
}

// Open opens or creates the database at path and migrates it to the latest
// schema version.
func Open(path string) (*Store, error) {
	s, err := OpenNoMigrate(path)
	if err != nil {
		return nil, err
	}
	if err := s.MigrateUp(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// OpenNoMigrate opens the database without touching the schema. The
// migrate subcommands use it.
func OpenNoMigrate(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	// One connection keeps ":memory:" databases coherent and serializes
	// writers for file databases.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return &Store{DB: db, path: path}, nil
}

// Path is the path the store was opened with.
func (s *Store) Path() string { return s.path }

// MigrateUp runs all pending migrations. It is a no-op at the latest version.
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed: closing it would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func (s *Store) MigrateDown() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current schema version and dirty state.
// It returns 0, false, nil before any migration has run.
func (s *Store) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
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

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// Insert stores cp. cp.Labels must hold exactly cp.Shape.Len() values.
func (s *Store) Insert(cp Checkpoint) error {
	if len(cp.Labels) != cp.Shape.Len() {
		return fmt.Errorf("checkpoint %s: %d labels for shape %s", cp.ID, len(cp.Labels), cp.Shape)
	}
	shapeJSON, err := json.Marshal(cp.Shape.Slice())
	if err != nil {
		return fmt.Errorf("encode shape: %w", err)
	}
	blob, err := encodeLabels(cp.Labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	_, err = s.Exec(`
		INSERT INTO label_checkpoints
			(checkpoint_id, session_id, taken_unix_nanos, shape_json, labels_blob, reason, labeled_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cp.ID, cp.SessionID, cp.TakenAt.UnixNano(), string(shapeJSON), blob, cp.Reason, cp.LabeledCount)
	if err != nil {
		return fmt.Errorf("insert checkpoint %s: %w", cp.ID, err)
	}
	tracef("insert %s session=%s shape=%s bytes=%d", cp.ID, cp.SessionID, cp.Shape, len(blob))
	return nil
}

// Latest returns the newest checkpoint of session, including its labels.
func (s *Store) Latest(sessionID string) (*Checkpoint, error) {
	row := s.QueryRow(`
		SELECT checkpoint_id, session_id, taken_unix_nanos, shape_json, reason, labeled_count, labels_blob
		FROM label_checkpoints
		WHERE session_id = ?
		ORDER BY taken_unix_nanos DESC, rowid DESC
		LIMIT 1`, sessionID)

	var (
		cp        Checkpoint
		nanos     int64
		shapeJSON string
		blob      []byte
	)
	err := row.Scan(&cp.ID, &cp.SessionID, &nanos, &shapeJSON, &cp.Reason, &cp.LabeledCount, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w in session %s", ErrNoCheckpoint, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("query latest checkpoint: %w", err)
	}
	cp.TakenAt = time.Unix(0, nanos)
	if cp.Shape, err = decodeShape(shapeJSON); err != nil {
		return nil, err
	}
	if cp.Labels, err = decodeLabels(blob); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", cp.ID, err)
	}
	if len(cp.Labels) != cp.Shape.Len() {
		return nil, fmt.Errorf("checkpoint %s: %d labels for shape %s", cp.ID, len(cp.Labels), cp.Shape)
	}
	return &cp, nil
}

// List returns the checkpoints of session, newest first, without labels.
// A limit of 0 or less lists them all.
func (s *Store) List(sessionID string, limit int) ([]Checkpoint, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.Query(`
		SELECT checkpoint_id, session_id, taken_unix_nanos, shape_json, reason, labeled_count
		FROM label_checkpoints
		WHERE session_id = ?
		ORDER BY taken_unix_nanos DESC, rowid DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		var (
			cp        Checkpoint
			nanos     int64
			shapeJSON string
		)
		if err := rows.Scan(&cp.ID, &cp.SessionID, &nanos, &shapeJSON, &cp.Reason, &cp.LabeledCount); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		cp.TakenAt = time.Unix(0, nanos)
		if cp.Shape, err = decodeShape(shapeJSON); err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// Sessions returns the distinct session ids, most recently active first.
func (s *Store) Sessions() ([]string, error) {
	rows, err := s.Query(`
		SELECT session_id FROM label_checkpoints
		GROUP BY session_id
		ORDER BY MAX(taken_unix_nanos) DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Delete removes one checkpoint. Deleting a missing id is not an error.
func (s *Store) Delete(id string) error {
	if _, err := s.Exec(`DELETE FROM label_checkpoints WHERE checkpoint_id = ?`, id); err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", id, err)
	}
	return nil
}

// Prune keeps the newest keep checkpoints of session and deletes the rest.
// It returns the number deleted.
func (s *Store) Prune(sessionID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.Exec(`
		DELETE FROM label_checkpoints
		WHERE session_id = ?
		  AND checkpoint_id NOT IN (
			SELECT checkpoint_id FROM label_checkpoints
			WHERE session_id = ?
			ORDER BY taken_unix_nanos DESC, rowid DESC
			LIMIT ?)`, sessionID, sessionID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune checkpoints: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		diagf("pruned %d checkpoints from session %s (kept %d)", n, sessionID, keep)
	}
	return n, nil
}

func decodeShape(s string) (grid.Shape, error) {
	var extents []int
	if err := json.Unmarshal([]byte(s), &extents); err != nil {
		return grid.Shape{}, fmt.Errorf("decode shape %q: %w", s, err)
	}
	shape, err := grid.NewShape(extents...)
	if err != nil {
		return grid.Shape{}, fmt.Errorf("decode shape %q: %w", s, err)
	}
	return shape, nil
}
