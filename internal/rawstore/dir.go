package rawstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DirStore is a Store over a local directory with the same layout as the
// bucket. It is used for offline runs.
type DirStore struct {
	root string
}

// NewDirStore returns a Store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{root: dir}
}

// ListUserObjects walks <root>/<userID> for JSON files.
func (s *DirStore) ListUserObjects(ctx context.Context, userID string) ([]string, error) {
	base := filepath.Join(s.root, userID)

	var names []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if IsJSONObject(name) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ListUserObjects: walking %s: %w", base, err)
	}

	sort.Strings(names)
	return names, nil
}

// ReadObject reads <root>/<name>.
func (s *DirStore) ReadObject(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("ReadObject: %w", err)
	}
	return data, nil
}
