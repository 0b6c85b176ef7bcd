package pkcs15

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/opencard/pkcs15mw/file"
	cardpath "github.com/opencard/pkcs15mw/path"
)

// DefaultCacheDir is the on-disk cache directory named by spec.md §6
// Persistence.
const DefaultCacheDir = ".eid"

// FileCache wraps a FileReader with a read-through disk cache of raw
// ReadBinary results, keyed by path.Path.String(), per spec.md §6:
// "On-disk cache directory named .eid, containing raw file-content
// dumps keyed by absolute path; consulted only when use_file_cache is
// on. Format is opaque (raw bytes)." Bind installs this wrapper
// automatically when Options.UseFileCache is set.
//
// A cache hit skips the underlying SELECT entirely and returns a nil
// *file.File: every caller in this package (Bind, Card.Load) discards
// the FCI handle SelectAndReadBinary returns, so there is nothing to
// reconstruct from a cached entry, and re-selecting just to throw the
// FCI away would defeat the point of caching.
type FileCache struct {
	Reader FileReader

	// Dir overrides DefaultCacheDir; empty means DefaultCacheDir.
	Dir string
}

func (fc FileCache) dir() string {
	if fc.Dir == "" {
		return DefaultCacheDir
	}
	return fc.Dir
}

// cacheFileName maps a path to a filesystem-safe cache entry name.
// path.Path.String() is already unseparated hex except for the "::"
// AID/DF_NAME marker, which this replaces so every path kind lands in
// a flat directory.
func cacheFileName(p cardpath.Path) string {
	return strings.ReplaceAll(p.String(), ":", "_")
}

// SelectAndReadBinary satisfies pkcs15.FileReader, consulting the disk
// cache before falling through to the wrapped Reader.
func (fc FileCache) SelectAndReadBinary(p cardpath.Path) (*file.File, []byte, error) {
	name := filepath.Join(fc.dir(), cacheFileName(p))
	if data, err := os.ReadFile(name); err == nil {
		return nil, data, nil
	}

	f, data, err := fc.Reader.SelectAndReadBinary(p)
	if err != nil {
		return nil, nil, err
	}

	// Best-effort write-through: a cache directory that can't be
	// created or written (read-only filesystem, permissions) must not
	// fail a read that already succeeded against the card.
	if mkErr := os.MkdirAll(fc.dir(), 0o700); mkErr == nil {
		_ = os.WriteFile(name, data, 0o600)
	}
	return f, data, nil
}
