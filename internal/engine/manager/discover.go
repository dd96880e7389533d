package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReplayExt is the extension of replay files.
const ReplayExt = ".wrpl"

// FindReplays expands path into replay files. A file must carry the replay
// extension; a directory yields its replay files, not recursing.
func FindReplays(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %s", path)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("invalid path type: %s", path)
		}
		if !strings.EqualFold(filepath.Ext(path), ReplayExt) {
			return nil, fmt.Errorf("file must have %s extension: %s", ReplayExt, path)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ReplayExt) {
			paths = append(paths, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
