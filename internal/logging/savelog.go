package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// #region log-save
// LogSave writes a save decision to the save_log table.
func LogSave(db *sql.DB, entry SaveEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO save_log (version_id, trigger_type, dirty_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.VersionID),
		entry.TriggerType,
		nullIfEmpty(entry.DirtyJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log save: %w", err)
	}
	return nil
}
// #endregion log-save

// #region list-saves
// ListSaves returns the most recent save_log rows, newest first.
func ListSaves(db *sql.DB, limit int) ([]SaveEntry, error) {
	rows, err := db.Query(
		`SELECT id, version_id, trigger_type, dirty_json, decision, reason, created_at
		 FROM save_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	var out []SaveEntry
	for rows.Next() {
		var e SaveEntry
		var versionID, dirtyJSON, reason sql.NullString
		var created string
		if err := rows.Scan(&e.ID, &versionID, &e.TriggerType, &dirtyJSON, &e.Decision, &reason, &created); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.VersionID = versionID.String
		e.DirtyJSON = dirtyJSON.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
// #endregion list-saves

// #region dirty-json
// EncodeDirty serializes r for SaveEntry.DirtyJSON.
func EncodeDirty(r DirtyRecord) string {
	b, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(b)
}

// ParseDirty decodes SaveEntry.DirtyJSON. An empty or invalid string gives nil.
func ParseDirty(s string) *DirtyRecord {
	if s == "" {
		return nil
	}
	var r DirtyRecord
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil
	}
	return &r
}
// #endregion dirty-json

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
