package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtension is the file extension of cache entries.
const DefaultExtension = ".txt"

// #region cache
// Cache is a directory of JSON entries. A cache tagged "runs" under folder
// "." lives in "./.runs"; entry "a" is the file "./.runs/.a.txt" and the
// sub-cache "b" is the directory "./.runs/.b".
type Cache struct {
	tag    string
	folder string
	ext    string
}

// NewCache creates the cache directory for tag under folder.
func NewCache(folder, tag string) (*Cache, error) {
	if err := checkName(tag); err != nil {
		return nil, err
	}
	c := &Cache{tag: tag, folder: filepath.Clean(folder), ext: DefaultExtension}
	if err := os.MkdirAll(c.Dir(), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return filepath.Join(c.folder, "."+c.tag)
}

// Tag returns the cache tag.
func (c *Cache) Tag() string { return c.tag }

// SetExtension changes the entry extension. A missing leading dot is added.
func (c *Cache) SetExtension(ext string) *Cache {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.ext = ext
	return c
}

func (c *Cache) entry(key string) string {
	return filepath.Join(c.Dir(), "."+key+c.ext)
}

func checkName(name string) error {
	if name == "" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid cache name %q", name)
	}
	return nil
}

// #endregion cache

// #region entries
// Get loads entry key. A missing entry is ErrNotFound, an undecodable one is
// a *MalformedError.
func (c *Cache) Get(key string) (any, error) {
	if err := checkName(key); err != nil {
		return nil, err
	}
	return Load(c.entry(key))
}

// Put stores v under key. Nothing is written when v does not encode.
func (c *Cache) Put(key string, v any) error {
	if err := checkName(key); err != nil {
		return err
	}
	return Save(v, c.entry(key))
}

// Delete removes entry key. Deleting a missing entry is not an error.
func (c *Cache) Delete(key string) error {
	if err := checkName(key); err != nil {
		return err
	}
	err := os.Remove(c.entry(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the entries, not the sub-caches or in-flight writes.
func (c *Cache) Keys() ([]string, error) {
	des, err := os.ReadDir(c.Dir())
	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}
	var keys []string
	for _, de := range des {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, ".") || strings.HasPrefix(name, "..") || !strings.HasSuffix(name, c.ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name[1:], c.ext))
	}
	return keys, nil
}

// #endregion entries

// #region hierarchy
// Sub returns the nested cache name, creating it when missing.
func (c *Cache) Sub(name string) (*Cache, error) {
	sub, err := NewCache(c.Dir(), name)
	if err != nil {
		return nil, err
	}
	sub.ext = c.ext
	return sub, nil
}

// Relocate moves the cache under folder. When the destination already
// exists it is kept as is and the current directory is removed unless
// retain is set.
func (c *Cache) Relocate(folder string, retain bool) error {
	folder = filepath.Clean(folder)
	if folder == c.folder {
		return nil
	}
	from := c.Dir()
	to := filepath.Join(folder, "."+c.tag)

	if _, err := os.Stat(to); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return fmt.Errorf("create folder: %w", err)
		}
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("move cache: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	} else if !retain {
		if err := os.RemoveAll(from); err != nil {
			return fmt.Errorf("remove old cache: %w", err)
		}
	}
	c.folder = folder
	return nil
}

// Clear removes every entry and sub-cache.
func (c *Cache) Clear() error {
	if err := os.RemoveAll(c.Dir()); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	if err := os.MkdirAll(c.Dir(), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return nil
}

// #endregion hierarchy
