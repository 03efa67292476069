package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS document_versions (
	version_id  TEXT PRIMARY KEY,
	parent_id   TEXT,
	document    TEXT NOT NULL,
	size        INTEGER NOT NULL,
	leaves      INTEGER NOT NULL,
	note        TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES document_versions(version_id)
);

CREATE TABLE IF NOT EXISTS save_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id    TEXT,
	trigger_type  TEXT NOT NULL,
	dirty_json    TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS active_document (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES document_versions(version_id)
);
`

// #endregion schema

// #region store-struct
// Store keeps versioned snapshots of the document in SQLite and a pointer to
// the active one.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the save log.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region commit
// Commit stores doc as a new version whose parent is the active one and
// moves the active pointer to it.
func (s *Store) Commit(doc any, note string) (Version, error) {
	data, err := value.Encode(doc)
	if err != nil {
		return Version{}, fmt.Errorf("encode document: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Version{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parent sql.NullString
	err = tx.QueryRow(`SELECT version_id FROM active_document WHERE id = 1`).Scan(&parent)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("get active: %w", err)
	}

	rec := Version{
		VersionID: uuid.New().String(),
		ParentID:  parent.String,
		Document:  value.Clone(doc),
		Size:      len(data),
		Leaves:    value.Leaves(doc),
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.Exec(
		`INSERT INTO document_versions (version_id, parent_id, document, size, leaves, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.VersionID, nullIfEmpty(rec.ParentID), string(data), rec.Size, rec.Leaves,
		nullIfEmpty(note), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Version{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_document (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		rec.VersionID,
	)
	if err != nil {
		return Version{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Version{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion commit

// #region read
// Current reads the active version.
func (s *Store) Current() (Version, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_document WHERE id = 1`).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, ErrNoActive
	}
	if err != nil {
		return Version{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetVersion(versionID)
}

// Resume returns the active document, or fallback with an empty version ID
// when nothing was committed yet.
func (s *Store) Resume(fallback any) (doc any, versionID string, err error) {
	cur, err := s.Current()
	if errors.Is(err, ErrNoActive) {
		return fallback, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return cur.Document, cur.VersionID, nil
}

// GetVersion retrieves one version by ID.
func (s *Store) GetVersion(id string) (Version, error) {
	row := s.db.QueryRow(
		`SELECT version_id, parent_id, document, size, leaves, note, created_at
		 FROM document_versions WHERE version_id = ?`, id,
	)
	rec, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("get version %s: %w", id, ErrVersionNotFound)
	}
	if err != nil {
		return Version{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return rec, nil
}

// ListVersions returns the most recent versions, newest first.
func (s *Store) ListVersions(limit int) ([]Version, error) {
	rows, err := s.db.Query(
		`SELECT version_id, parent_id, document, size, leaves, note, created_at
		 FROM document_versions ORDER BY rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListVersionsWithSaves returns the most recent versions joined with the
// save_log row that committed them, newest first.
func (s *Store) ListVersionsWithSaves(limit int) ([]VersionWithSave, error) {
	rows, err := s.db.Query(
		`SELECT v.version_id, v.parent_id, v.document, v.size, v.leaves, v.note, v.created_at,
		        COALESCE(l.trigger_type, ''), COALESCE(l.decision, ''), COALESCE(l.reason, '')
		 FROM document_versions v
		 LEFT JOIN save_log l ON l.version_id = v.version_id AND l.decision = 'commit'
		 ORDER BY v.rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []VersionWithSave
	for rows.Next() {
		var vs VersionWithSave
		var parentID, note sql.NullString
		var doc, created string
		if err := rows.Scan(&vs.VersionID, &parentID, &doc, &vs.Size, &vs.Leaves, &note, &created,
			&vs.Trigger, &vs.Decision, &vs.Reason); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := fill(&vs.Version, parentID, note, doc, created); err != nil {
			return nil, err
		}
		out = append(out, vs)
	}
	return out, rows.Err()
}

// #endregion read

// #region rollback
// Rollback sets the active pointer to a previous version.
func (s *Store) Rollback(targetVersionID string) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM document_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("rollback %s: %w", targetVersionID, ErrVersionNotFound)
	}

	_, err = s.db.Exec(`UPDATE active_document SET version_id = ? WHERE id = 1`, targetVersionID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Restore rolls back to a previous version and writes its document through
// w, so the edited file matches the active version.
func (s *Store) Restore(targetVersionID string, w Writer) (Version, error) {
	if err := s.Rollback(targetVersionID); err != nil {
		return Version{}, err
	}
	v, err := s.GetVersion(targetVersionID)
	if err != nil {
		return Version{}, err
	}
	if err := w.Save(v.Document); err != nil {
		return Version{}, fmt.Errorf("write restored document: %w", err)
	}
	return v, nil
}

// #endregion rollback

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(row scanner) (Version, error) {
	var rec Version
	var parentID, note sql.NullString
	var doc, created string
	if err := row.Scan(&rec.VersionID, &parentID, &doc, &rec.Size, &rec.Leaves, &note, &created); err != nil {
		return Version{}, err
	}
	if err := fill(&rec, parentID, note, doc, created); err != nil {
		return Version{}, err
	}
	return rec, nil
}

func fill(rec *Version, parentID, note sql.NullString, doc, created string) error {
	rec.ParentID = parentID.String
	rec.Note = note.String
	v, err := value.Decode([]byte(doc))
	if err != nil {
		return fmt.Errorf("decode version %s: %w", rec.VersionID, err)
	}
	rec.Document = v
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
