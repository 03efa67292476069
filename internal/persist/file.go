package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region load
// Load reads the document at path. A missing file is ErrNotFound, a file
// that does not decode is a *MalformedError.
func Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	v, err := value.Decode(data)
	if err != nil {
		return nil, &MalformedError{Path: path, Err: err}
	}
	return v, nil
}

// LoadOrEmpty loads path and falls back to an empty map when the file is
// missing or malformed. Malformed files are logged; other read errors are
// returned.
func LoadOrEmpty(path string, logger *slog.Logger) (any, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v, err := Load(path)
	var malformed *MalformedError
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, ErrNotFound):
		return value.NewMap(), nil
	case errors.As(err, &malformed):
		logger.Warn("malformed document, starting empty", "path", path, "err", malformed.Err)
		return value.NewMap(), nil
	default:
		return nil, err
	}
}

// #endregion load

// #region save
// Save writes v as indented JSON to path. The document is written to a
// temporary file in the same directory and renamed over path, so a failed
// save leaves the previous file untouched.
func Save(v any, path string) error {
	data, err := value.EncodeIndent(v, "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeAtomic(path, append(data, '\n'))
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// #endregion save

// #region file-sink
// FileSink persists documents to one path.
type FileSink struct {
	Path string
}

func (f FileSink) Save(v any) error { return Save(v, f.Path) }

// #endregion file-sink
