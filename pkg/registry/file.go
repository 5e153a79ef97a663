package registry

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	dirMode  = 0700
	fileMode = 0600

	scoreFileExt = ".json"
)

// File is a durable registry keeping one JSON file per model under a root
// directory. The file name replaces the namespace separator with a double
// underscore so entries cannot escape the root or collide across namespaces.
type File struct {
	dir string
}

// NewFile creates the registry, creating the root directory if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("cache directory required")
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache dir: %s", dir)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(repoID string) string {
	safe := strings.ReplaceAll(repoID, "/", "__")
	safe = strings.ReplaceAll(safe, string(os.PathSeparator), "__")
	return filepath.Join(f.dir, safe+scoreFileExt)
}

func (f *File) GetScore(repoID string) (Entry, bool) {
	b, err := os.ReadFile(f.path(repoID))
	if err != nil {
		return nil, false
	}

	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		// a damaged entry degrades to recomputation, not failure
		slog.Warn("unreadable score cache entry", "repo", repoID, "error", err)
		return nil, false
	}

	return r.entry(), true
}

func (f *File) SaveScore(repoID string, scores Entry) error {
	b, err := json.MarshalIndent(toRecord(repoID, scores), "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to marshal scores for: %s", repoID)
	}
	if err := os.WriteFile(f.path(repoID), b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write scores for: %s", repoID)
	}
	return nil
}

func (f *File) HasScore(repoID string) bool {
	_, ok := f.GetScore(repoID)
	return ok
}

func (f *File) Clear() error {
	if err := os.RemoveAll(f.dir); err != nil {
		return errors.Wrapf(err, "failed to clear cache dir: %s", f.dir)
	}
	if err := os.MkdirAll(f.dir, dirMode); err != nil {
		return errors.Wrapf(err, "failed to recreate cache dir: %s", f.dir)
	}
	return nil
}
