package batch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions is the allow-list used when the caller does not
// provide one.
var DefaultExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".wmv"}

// Discover recursively finds video files under inputDir whose extension
// is in the allow-list. Matching is case-insensitive on the extension.
// The result is deduplicated and lexically sorted so repeated runs visit
// files in the same order.
func Discover(inputDir string, extensions []string) ([]string, error) {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}

	seen := make(map[string]bool)
	var files []string

	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan input dir: %w", err)
	}

	sort.Strings(files)
	return files, nil
}
