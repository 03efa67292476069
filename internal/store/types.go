package store

import (
	"errors"
	"time"
)

// ErrNoActive is returned when no version has been committed yet.
var ErrNoActive = errors.New("no active version")

// ErrVersionNotFound is returned for unknown version IDs.
var ErrVersionNotFound = errors.New("version not found")

// Writer receives a restored document, typically the file being edited.
type Writer interface {
	Save(doc any) error
}

// #region version
// Version is one committed snapshot of the edited document.
type Version struct {
	VersionID string
	ParentID  string
	Document  any
	Size      int // encoded bytes
	Leaves    int
	Note      string
	CreatedAt time.Time
}

// #endregion version

// #region version-with-save
// VersionWithSave pairs a version with the save_log row that produced it.
type VersionWithSave struct {
	Version
	Trigger  string
	Decision string
	Reason   string
}

// #endregion version-with-save
