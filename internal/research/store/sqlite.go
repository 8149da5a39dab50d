package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkgerror"
	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

const appDir = "researchflow"

// DefaultPath is the database file under the XDG data directory.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, appDir, "researchflow.db")
}

type SQLiteStore struct {
	conn *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and migrates it to the
// latest schema. ":memory:" keeps everything in process.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultPath()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrate(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &SQLiteStore{conn: conn, path: path}, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Path() string {
	return s.path
}

const sessionColumns = `id, topic, depth, status, progress, current_agent, report_id, error_message, created_at, updated_at`

func (s *SQLiteStore) CreateSession(ctx context.Context, session entity.Session) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Topic, string(session.Depth), string(session.Status), session.Progress,
		string(session.CurrentAgent), session.ReportID, session.Err,
		formatTime(session.CreatedAt), formatTime(session.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return pkgerror.NewBusiness("session already exists", pkgerror.CodeConflict)
	}
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// UpdateSession applies fn inside a transaction so concurrent updates of the
// same session do not lose writes.
func (s *SQLiteStore) UpdateSession(ctx context.Context, id string, fn func(s *entity.Session)) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	session, err := scanSession(tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		return err
	}

	fn(&session)

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET topic = ?, depth = ?, status = ?, progress = ?, current_agent = ?,
			report_id = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		session.Topic, string(session.Depth), string(session.Status), session.Progress,
		string(session.CurrentAgent), session.ReportID, session.Err, formatTime(session.UpdatedAt), id,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}

	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (entity.Session, error) {
	return scanSession(s.conn.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
}

func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]entity.Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collectSessions(rows)
}

func (s *SQLiteStore) ListStaleSessions(ctx context.Context, before time.Time) ([]entity.Session, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		WHERE status NOT IN (?, ?) AND updated_at < ?
		ORDER BY updated_at ASC`,
		string(entity.StatusComplete), string(entity.StatusFailed), formatTime(before))
	if err != nil {
		return nil, fmt.Errorf("list stale sessions: %w", err)
	}
	return collectSessions(rows)
}

func (s *SQLiteStore) CreateReport(ctx context.Context, r entity.Report) error {
	sources, err := json.Marshal(r.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO reports (id, session_id, topic, content, sources, word_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.Topic, r.Content, string(sources), r.WordCount, formatTime(r.CreatedAt),
	)
	if isUniqueViolation(err) {
		return pkgerror.NewBusiness("report already exists", pkgerror.CodeConflict)
	}
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	return nil
}

func (s *SQLiteStore) GetReport(ctx context.Context, id string) (entity.Report, error) {
	var (
		r         entity.Report
		sources   string
		createdAt string
	)

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, session_id, topic, content, sources, word_count, created_at FROM reports WHERE id = ?`, id,
	).Scan(&r.ID, &r.SessionID, &r.Topic, &r.Content, &sources, &r.WordCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Report{}, pkgerror.ErrNotFound
	}
	if err != nil {
		return entity.Report{}, fmt.Errorf("get report: %w", err)
	}

	if err := json.Unmarshal([]byte(sources), &r.Sources); err != nil {
		return entity.Report{}, fmt.Errorf("decode sources: %w", err)
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return entity.Report{}, err
	}

	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (entity.Session, error) {
	var (
		s                    entity.Session
		depth, status, agent string
		createdAt, updatedAt string
	)

	err := row.Scan(&s.ID, &s.Topic, &depth, &status, &s.Progress, &agent, &s.ReportID, &s.Err, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Session{}, pkgerror.ErrNotFound
	}
	if err != nil {
		return entity.Session{}, fmt.Errorf("scan session: %w", err)
	}

	s.Depth = entity.Depth(depth)
	s.Status = entity.SessionStatus(status)
	s.CurrentAgent = entity.Agent(agent)
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return entity.Session{}, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return entity.Session{}, err
	}

	return s, nil
}

func collectSessions(rows *sql.Rows) ([]entity.Session, error) {
	defer func() { _ = rows.Close() }()

	var out []entity.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return out, nil
}

// Times are stored as fixed-width UTC text so lexical order matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

var migrations = []migration{
	{
		Version:     1,
		Description: "sessions and reports",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS sessions (
					id            TEXT PRIMARY KEY,
					topic         TEXT NOT NULL,
					depth         TEXT NOT NULL,
					status        TEXT NOT NULL,
					progress      INTEGER NOT NULL DEFAULT 0,
					current_agent TEXT NOT NULL DEFAULT '',
					report_id     TEXT NOT NULL DEFAULT '',
					error_message TEXT NOT NULL DEFAULT '',
					created_at    TEXT NOT NULL,
					updated_at    TEXT NOT NULL
				);
				CREATE TABLE IF NOT EXISTS reports (
					id         TEXT PRIMARY KEY,
					session_id TEXT NOT NULL,
					topic      TEXT NOT NULL,
					content    TEXT NOT NULL,
					sources    TEXT NOT NULL DEFAULT '[]',
					word_count INTEGER NOT NULL DEFAULT 0,
					created_at TEXT NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
			`)
			return err
		},
	},
	{
		Version:     2,
		Description: "stale session lookup",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_status_updated ON sessions(status, updated_at)`)
			return err
		},
	},
}

func latestVersion() int {
	return migrations[len(migrations)-1].Version
}

func schemaVersion(conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// migrate applies every migration newer than PRAGMA user_version.
func migrate(conn *sql.DB) error {
	current, err := schemaVersion(conn)
	if err != nil {
		return err
	}
	if current >= latestVersion() {
		return nil
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		slog.Info("applying migration", "version", m.Version, "description", m.Description)

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		// user_version cannot be set inside the transaction with modernc
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			return fmt.Errorf("setting version %d: %w", m.Version, err)
		}
	}

	return nil
}
