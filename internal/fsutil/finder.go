// Package fsutil holds small filesystem helpers shared by the loaders.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension walks rootPath and returns every file whose name ends
// with extension, sorted so load order is stable across platforms. A root
// that does not exist yields an empty result, so callers may pass optional
// configuration directories without checking them first.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), extension) {
			return nil
		}
		files = append(files, path)
		return nil
	}

	if err := filepath.WalkDir(rootPath, walk); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
